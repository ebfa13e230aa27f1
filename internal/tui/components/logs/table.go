package logs

import (
	"context"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/riotx/riotx/internal/logging"
	"github.com/riotx/riotx/internal/pubsub"
	"github.com/riotx/riotx/internal/tui/styles"
)

const logLimit = 200

type logsLoadedMsg struct {
	logs []logging.Log
}

// Table lists recent log records, newest first.
type Table struct {
	table table.Model
	logs  []logging.Log
}

func NewTable() *Table {
	columns := []table.Column{
		{Title: "Time", Width: 8},
		{Title: "Level", Width: 7},
		{Title: "Message", Width: 40},
	}
	t := table.New(table.WithColumns(columns), table.WithFocused(true))
	s := table.DefaultStyles()
	s.Selected = s.Selected.Foreground(styles.Primary)
	t.SetStyles(s)
	return &Table{table: t}
}

// Load reads the stored records from svc.
func Load(svc *logging.Service) tea.Cmd {
	return func() tea.Msg {
		logs, err := svc.List(context.Background(), logLimit)
		if err != nil {
			return nil
		}
		// newest first
		for i, j := 0, len(logs)-1; i < j; i, j = i+1, j-1 {
			logs[i], logs[j] = logs[j], logs[i]
		}
		return logsLoadedMsg{logs: logs}
	}
}

func (m *Table) Update(msg tea.Msg) (*Table, tea.Cmd) {
	switch msg := msg.(type) {
	case logsLoadedMsg:
		m.logs = msg.logs
		m.updateRows()
		return m, nil
	case pubsub.Event[logging.Log]:
		if msg.Type == pubsub.Created {
			m.logs = append([]logging.Log{msg.Payload}, m.logs...)
			if len(m.logs) > logLimit {
				m.logs = m.logs[:logLimit]
			}
			m.updateRows()
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Table) Len() int {
	return len(m.logs)
}

func (m *Table) SetSize(width, height int) {
	m.table.SetWidth(width)
	m.table.SetHeight(height)
	columns := m.table.Columns()
	columns[2].Width = max(width-8-7-6, 10)
	m.table.SetColumns(columns)
}

func (m *Table) updateRows() {
	rows := make([]table.Row, 0, len(m.logs))
	for _, l := range m.logs {
		rows = append(rows, table.Row{l.Timestamp.Local().Format("15:04:05"), l.Level, l.Message})
	}
	m.table.SetRows(rows)
}

func (m *Table) View() string {
	return m.table.View()
}
