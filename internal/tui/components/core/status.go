package core

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/riotx/riotx/internal/pubsub"
	"github.com/riotx/riotx/internal/status"
	"github.com/riotx/riotx/internal/tui/styles"
)

const defaultMessageTTL = 5 * time.Second

type statusMessage struct {
	Level     status.Level
	Message   string
	ExpiresAt time.Time
}

type statusCleanupMsg struct {
	time time.Time
}

// StatusBar shows the room, the last status message and a help hint.
type StatusBar struct {
	width      int
	room       string
	homeserver string
	messages   []statusMessage
	messageTTL time.Duration
	busy       string
}

func NewStatusBar(room, homeserver string) *StatusBar {
	return &StatusBar{room: room, homeserver: homeserver, messageTTL: defaultMessageTTL}
}

func (m *StatusBar) clearMessageCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return statusCleanupMsg{time: t}
	})
}

func (m *StatusBar) Init() tea.Cmd {
	return m.clearMessageCmd()
}

// SetBusy shows a persistent activity label; empty clears it.
func (m *StatusBar) SetBusy(label string) {
	m.busy = label
}

func (m *StatusBar) Update(msg tea.Msg) (*StatusBar, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case pubsub.Event[status.StatusMessage]:
		if msg.Payload.Level == status.LevelDebug {
			return m, nil
		}
		m.messages = append(m.messages, statusMessage{
			Level:     msg.Payload.Level,
			Message:   msg.Payload.Message,
			ExpiresAt: msg.Payload.Timestamp.Add(m.messageTTL),
		})
	case statusCleanupMsg:
		active := m.messages[:0]
		for _, sm := range m.messages {
			if sm.ExpiresAt.After(msg.time) {
				active = append(active, sm)
			}
		}
		m.messages = active
		return m, m.clearMessageCmd()
	}
	return m, nil
}

// Last returns the newest unexpired message.
func (m *StatusBar) Last() (status.Level, string, bool) {
	if len(m.messages) == 0 {
		return "", "", false
	}
	last := m.messages[len(m.messages)-1]
	return last.Level, last.Message, true
}

var (
	roomStyle = styles.Padded().Background(styles.Primary).Foreground(styles.Background).Bold(true)
	helpStyle = styles.Padded().Foreground(styles.TextMuted)
)

func (m *StatusBar) View() string {
	room := roomStyle.Render(styles.RoomIcon + " " + m.room)
	help := helpStyle.Render("ctrl+l logs · ctrl+c quit")
	avail := max(m.width-lipgloss.Width(room)-lipgloss.Width(help), 0)

	var middle string
	switch level, text, ok := m.Last(); {
	case m.busy != "":
		middle = styles.Level(status.LevelInfo).Render(ansi.Truncate(m.busy, max(avail-2, 0), "…"))
	case ok:
		label := styles.LevelIcon(level) + " " + text
		middle = styles.Level(level).Render(ansi.Truncate(label, max(avail-2, 0), "…"))
	default:
		middle = styles.Muted().Padding(0, 1).Render(ansi.Truncate(m.homeserver, max(avail-2, 0), "…"))
	}
	gap := max(avail-lipgloss.Width(middle), 0)
	return lipgloss.JoinHorizontal(lipgloss.Top, room, middle, lipgloss.NewStyle().Width(gap).Render(""), help)
}
