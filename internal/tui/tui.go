// Package tui is the interactive message composer.
package tui

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/commands"
	"github.com/riotx/riotx/internal/drafts"
	"github.com/riotx/riotx/internal/history"
	"github.com/riotx/riotx/internal/logging"
	"github.com/riotx/riotx/internal/message"
	"github.com/riotx/riotx/internal/pubsub"
	"github.com/riotx/riotx/internal/status"
	"github.com/riotx/riotx/internal/text"
	"github.com/riotx/riotx/internal/tui/components/chat"
	"github.com/riotx/riotx/internal/tui/components/core"
	"github.com/riotx/riotx/internal/tui/components/dialog"
	"github.com/riotx/riotx/internal/tui/components/logs"
)

const sendTimeout = 30 * time.Second

// Sender delivers composed messages to the homeserver.
type Sender interface {
	SendMessage(ctx context.Context, roomID string, content any) (string, error)
}

// MemberLoader fetches the members used for '@' completion.
type MemberLoader func(ctx context.Context) ([]autocomplete.Item, error)

type Options struct {
	RoomID        string
	RoomLabel     string
	Homeserver    string
	Autocompleter *autocomplete.Autocompleter
	Commands      commands.Registry
	Sender        Sender
	Drafts        *drafts.Store
	History       *history.Service
	Logs          *logging.Service
	Draft         *text.Buffer
	LoadMembers   MemberLoader
}

type keyMap struct {
	Quit key.Binding
	Logs key.Binding
	Back key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
	Logs: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "logs")),
	Back: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
}

type membersLoadedMsg struct {
	members []autocomplete.Item
	err     error
}

type historyLoadedMsg struct {
	buffers []*text.Buffer
}

type sentMsg struct {
	eventID string
	buffer  *text.Buffer
}

type sendFailedMsg struct {
	buffer *text.Buffer
	err    error
}

type appModel struct {
	opts   Options
	width  int
	height int

	editor     *chat.Editor
	completion *dialog.CompletionDialog
	statusBar  *core.StatusBar
	logs       *logs.Table
	help       help.Model
	showLogs   bool

	// start of the session dismissed with esc, -1 when none
	dismissed int
}

func New(opts Options) tea.Model {
	if opts.Commands == nil {
		opts.Commands = commands.NewCommandRegistry()
	}
	if opts.Autocompleter == nil {
		opts.Autocompleter = autocomplete.New(autocomplete.Options{Commands: opts.Commands})
	}
	label := opts.RoomLabel
	if label == "" {
		label = opts.RoomID
	}
	return &appModel{
		opts:       opts,
		editor:     chat.NewEditor(opts.Draft),
		completion: dialog.NewCompletionDialog(),
		statusBar:  core.NewStatusBar(label, opts.Homeserver),
		logs:       logs.NewTable(),
		help:       help.New(),
		dismissed:  -1,
	}
}

func (m *appModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.statusBar.Init(), m.editor.Init()}
	if m.opts.LoadMembers != nil {
		load := m.opts.LoadMembers
		cmds = append(cmds, func() tea.Msg {
			members, err := load(context.Background())
			return membersLoadedMsg{members: members, err: err}
		})
	}
	if m.opts.History != nil {
		svc, roomID := m.opts.History, m.opts.RoomID
		cmds = append(cmds, func() tea.Msg {
			bufs, err := svc.Buffers(context.Background(), roomID)
			if err != nil {
				slog.Warn("failed to load history", "error", err)
				return nil
			}
			return historyLoadedMsg{buffers: bufs}
		})
	}
	if m.opts.Logs != nil {
		cmds = append(cmds, logs.Load(m.opts.Logs))
	}
	return tea.Batch(cmds...)
}

func (m *appModel) refreshCompletion() {
	q, ok, err := m.opts.Autocompleter.Query(m.editor.Buffer(), m.editor.Cursor())
	if err != nil {
		slog.Debug("completion failed", "error", err)
		m.completion.Close()
		return
	}
	if !ok {
		m.dismissed = -1
		m.completion.Close()
		return
	}
	if q.Session.Start == m.dismissed {
		return
	}
	m.dismissed = -1
	m.completion.SetQuery(q)
}

func (m *appModel) selectCompletion(s autocomplete.CompletionSuggestion) tea.Cmd {
	cursor, err := m.opts.Autocompleter.Select(m.editor.Buffer(), m.editor.Cursor(), s)
	if err != nil {
		status.Warn("completion: " + err.Error())
		return nil
	}
	return m.editor.SetCursor(cursor)
}

func (m *appModel) send(buf *text.Buffer) tea.Cmd {
	content, cmd, err := message.Compose(buf, m.opts.Commands)
	switch {
	case errors.Is(err, message.ErrEmptyMessage):
		return nil
	case errors.Is(err, message.ErrUnsupportedCommand):
		status.Warn(cmd.Trigger() + " is not supported here")
		return m.editor.SetBuffer(buf)
	case err != nil:
		status.Error(err.Error())
		return m.editor.SetBuffer(buf)
	}
	if m.opts.Sender == nil {
		status.Warn("not connected, message not sent")
		return m.editor.SetBuffer(buf)
	}

	m.statusBar.SetBusy("sending…")
	sender, roomID := m.opts.Sender, m.opts.RoomID
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()
		eventID, err := sender.SendMessage(ctx, roomID, content)
		if err != nil {
			return sendFailedMsg{buffer: buf, err: err}
		}
		return sentMsg{eventID: eventID, buffer: buf}
	}
}

func (m *appModel) saveDraft() {
	if m.opts.Drafts == nil || m.opts.RoomID == "" {
		return
	}
	if err := m.opts.Drafts.Save(context.Background(), m.opts.RoomID, m.editor.Buffer()); err != nil {
		slog.Error("failed to save draft", "room", m.opts.RoomID, "error", err)
	}
}

func (m *appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.editor.SetWidth(msg.Width)
		m.help.Width = msg.Width
		m.completion.SetWidth(min(msg.Width, 60))
		m.logs.SetSize(msg.Width, max(msg.Height-4, 3))
		m.statusBar, cmd = m.statusBar.Update(msg)
		return m, cmd

	case pubsub.Event[status.StatusMessage]:
		m.statusBar, cmd = m.statusBar.Update(msg)
		return m, cmd

	case pubsub.Event[logging.Log]:
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd

	case membersLoadedMsg:
		if msg.err != nil {
			status.Warn("could not load room members: " + msg.err.Error())
			return m, nil
		}
		m.opts.Autocompleter.SetMembers(msg.members)
		if m.completion.IsOpen() {
			m.refreshCompletion()
		}
		return m, nil

	case chat.BufferChangedMsg:
		m.refreshCompletion()
		return m, nil

	case dialog.CompletionSelectedMsg:
		return m, m.selectCompletion(msg.Suggestion)

	case dialog.CompletionDialogCloseMsg:
		m.dismissed = msg.Start
		return m, nil

	case chat.SendMsg:
		return m, m.send(msg.Buffer)

	case historyLoadedMsg:
		m.editor.SetHistory(msg.buffers)
		return m, nil

	case sentMsg:
		m.statusBar.SetBusy("")
		if m.opts.History != nil {
			if _, err := m.opts.History.Add(context.Background(), m.opts.RoomID, msg.eventID, msg.buffer); err != nil {
				slog.Error("failed to record sent message", "error", err)
			}
		}
		if m.opts.Drafts != nil {
			if err := m.opts.Drafts.Delete(context.Background(), m.opts.RoomID); err != nil {
				slog.Debug("failed to delete draft", "error", err)
			}
		}
		status.Info("sent " + msg.eventID)
		return m, nil

	case sendFailedMsg:
		m.statusBar.SetBusy("")
		status.Error("send failed: " + msg.err.Error())
		if strings.TrimSpace(m.editor.Buffer().String()) == "" {
			return m, m.editor.SetBuffer(msg.buffer)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, keys.Quit) {
			m.saveDraft()
			return m, tea.Quit
		}
		if key.Matches(msg, keys.Logs) {
			m.showLogs = !m.showLogs
			return m, nil
		}
		if m.showLogs {
			if key.Matches(msg, keys.Back) {
				m.showLogs = false
				return m, nil
			}
			m.logs, cmd = m.logs.Update(msg)
			return m, cmd
		}
		if handled, cmd := m.completion.HandleKey(msg); handled {
			return m, cmd
		}
	}

	m.statusBar, cmd = m.statusBar.Update(msg)
	var editorCmd tea.Cmd
	m.editor, editorCmd = m.editor.Update(msg)
	return m, tea.Batch(cmd, editorCmd)
}

func (m *appModel) View() string {
	bar := m.statusBar.View()
	if m.showLogs {
		return lipgloss.JoinVertical(lipgloss.Left, m.logs.View(), bar)
	}
	parts := []string{}
	if popup := m.completion.View(); popup != "" {
		parts = append(parts, popup)
	}
	parts = append(parts, m.editor.View())
	if m.editor.Buffer().Len() == 0 && !m.completion.IsOpen() {
		bindings := append(m.editor.BindingKeys(), keys.Logs, keys.Quit)
		parts = append(parts, m.help.ShortHelpView(bindings))
	}
	parts = append(parts, bar)
	view := lipgloss.JoinVertical(lipgloss.Left, parts...)
	if m.height > 0 {
		return lipgloss.PlaceVertical(m.height, lipgloss.Bottom, view)
	}
	return view
}
