package chat

import (
	"strings"
	"unicode"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/status"
	"github.com/riotx/riotx/internal/text"
	"github.com/riotx/riotx/internal/tui/styles"
	"github.com/riotx/riotx/internal/tui/util"
)

// SendMsg carries the composed buffer out of the editor.
type SendMsg struct {
	Buffer *text.Buffer
}

// BufferChangedMsg is emitted after every edit or cursor move.
type BufferChangedMsg struct{}

// PasteMsg inserts clipboard text at the cursor.
type PasteMsg struct {
	Text string
}

type EditorKeyMaps struct {
	Send        key.Binding
	Paste       key.Binding
	Clear       key.Binding
	DeleteWord  key.Binding
	HistoryUp   key.Binding
	HistoryDown key.Binding
	Home        key.Binding
	End         key.Binding
}

var editorMaps = EditorKeyMaps{
	Send: key.NewBinding(
		key.WithKeys("enter", "ctrl+s"),
		key.WithHelp("enter", "send message"),
	),
	Paste: key.NewBinding(
		key.WithKeys("ctrl+v"),
		key.WithHelp("ctrl+v", "paste"),
	),
	Clear: key.NewBinding(
		key.WithKeys("ctrl+u"),
		key.WithHelp("ctrl+u", "clear"),
	),
	DeleteWord: key.NewBinding(
		key.WithKeys("ctrl+w", "alt+backspace"),
		key.WithHelp("ctrl+w", "delete word"),
	),
	HistoryUp: key.NewBinding(
		key.WithKeys("up"),
		key.WithHelp("up", "previous message"),
	),
	HistoryDown: key.NewBinding(
		key.WithKeys("down"),
		key.WithHelp("down", "next message"),
	),
	Home: key.NewBinding(key.WithKeys("home", "ctrl+a")),
	End:  key.NewBinding(key.WithKeys("end", "ctrl+e")),
}

// Editor is a single message composer over a text.Buffer. Pills behave as
// one character for cursor movement and deletion.
type Editor struct {
	buf    *text.Buffer
	cursor int
	width  int

	history        []*text.Buffer
	historyIndex   int
	currentMessage *text.Buffer

	readClipboard func() (string, error)
}

func NewEditor(initial *text.Buffer) *Editor {
	if initial == nil {
		initial = text.NewBuffer("")
	}
	return &Editor{
		buf:           initial,
		cursor:        initial.Len(),
		readClipboard: clipboard.ReadAll,
	}
}

func (m *Editor) Buffer() *text.Buffer { return m.buf }
func (m *Editor) Cursor() int          { return m.cursor }

func (m *Editor) SetCursor(pos int) tea.Cmd {
	m.cursor = util.Clamp(pos, 0, m.buf.Len())
	return changed()
}

func (m *Editor) SetWidth(width int) {
	m.width = width
}

func changed() tea.Cmd {
	return util.CmdHandler(BufferChangedMsg{})
}

func (m *Editor) insert(s string) tea.Cmd {
	if s == "" {
		return nil
	}
	m.buf.Insert(m.cursor, s)
	m.cursor += len([]rune(s))
	return changed()
}

func (m *Editor) backspace() tea.Cmd {
	if m.cursor == 0 {
		return nil
	}
	start := m.cursor - 1
	if pill, ok := m.buf.SpanEndingAt(m.cursor); ok {
		start = pill.Start
	}
	m.buf.Delete(start, m.cursor)
	m.cursor = start
	return changed()
}

func (m *Editor) deleteForward() tea.Cmd {
	if m.cursor >= m.buf.Len() {
		return nil
	}
	end := m.cursor + 1
	if pill, ok := m.buf.SpanAt(m.cursor); ok && pill.Start == m.cursor {
		end = pill.End
	}
	m.buf.Delete(m.cursor, end)
	return changed()
}

func (m *Editor) deleteWord() tea.Cmd {
	if m.cursor == 0 {
		return nil
	}
	if _, ok := m.buf.SpanEndingAt(m.cursor); ok {
		return m.backspace()
	}
	start := m.cursor
	for start > 0 {
		r, _ := m.buf.RuneAt(start - 1)
		if !unicode.IsSpace(r) {
			break
		}
		start--
	}
	for start > 0 {
		r, _ := m.buf.RuneAt(start - 1)
		if unicode.IsSpace(r) {
			break
		}
		if _, ok := m.buf.SpanAt(start - 1); ok {
			break
		}
		start--
	}
	m.buf.Delete(start, m.cursor)
	m.cursor = start
	return changed()
}

func (m *Editor) left() tea.Cmd {
	if m.cursor == 0 {
		return nil
	}
	if pill, ok := m.buf.SpanEndingAt(m.cursor); ok {
		m.cursor = pill.Start
	} else {
		m.cursor--
	}
	return changed()
}

func (m *Editor) right() tea.Cmd {
	if m.cursor >= m.buf.Len() {
		return nil
	}
	if pill, ok := m.buf.SpanAt(m.cursor); ok && pill.Start == m.cursor {
		m.cursor = pill.End
	} else {
		m.cursor++
	}
	return changed()
}

// SetHistory replaces the sent messages recalled with up and down.
func (m *Editor) SetHistory(bufs []*text.Buffer) {
	m.history = bufs
	m.historyIndex = len(bufs)
	m.currentMessage = nil
}

// Reset clears the buffer and leaves history navigation.
func (m *Editor) Reset() tea.Cmd {
	m.buf.Clear()
	m.cursor = 0
	m.historyIndex = len(m.history)
	m.currentMessage = nil
	return changed()
}

// SetBuffer replaces the buffer, e.g. to restore a message that failed to send.
func (m *Editor) SetBuffer(buf *text.Buffer) tea.Cmd {
	m.buf = buf
	m.cursor = buf.Len()
	return changed()
}

func (m *Editor) send() tea.Cmd {
	if strings.TrimSpace(m.buf.String()) == "" {
		return nil
	}
	sent := m.buf.Clone()
	if n := len(m.history); n == 0 || m.history[n-1].String() != sent.String() {
		m.history = append(m.history, sent.Clone())
	}
	return tea.Batch(m.Reset(), util.CmdHandler(SendMsg{Buffer: sent}))
}

func (m *Editor) historyUp() tea.Cmd {
	if len(m.history) == 0 || m.historyIndex == 0 {
		return nil
	}
	if m.historyIndex == len(m.history) {
		m.currentMessage = m.buf.Clone()
	}
	m.historyIndex--
	m.buf = m.history[m.historyIndex].Clone()
	m.cursor = m.buf.Len()
	return changed()
}

func (m *Editor) historyDown() tea.Cmd {
	if m.historyIndex >= len(m.history) {
		return nil
	}
	m.historyIndex++
	if m.historyIndex == len(m.history) {
		m.buf = m.currentMessage
		if m.buf == nil {
			m.buf = text.NewBuffer("")
		}
		m.currentMessage = nil
	} else {
		m.buf = m.history[m.historyIndex].Clone()
	}
	m.cursor = m.buf.Len()
	return changed()
}

func (m *Editor) paste() tea.Cmd {
	read := m.readClipboard
	return func() tea.Msg {
		s, err := read()
		if err != nil {
			status.Error("clipboard: " + err.Error())
			return nil
		}
		return PasteMsg{Text: s}
	}
}

func (m *Editor) Init() tea.Cmd {
	return nil
}

func (m *Editor) Update(msg tea.Msg) (*Editor, tea.Cmd) {
	switch msg := msg.(type) {
	case PasteMsg:
		return m, m.insert(strings.ReplaceAll(msg.Text, "\r\n", "\n"))
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, editorMaps.Send):
			if r, ok := m.buf.RuneAt(m.cursor - 1); ok && r == '\\' && m.cursor == m.buf.Len() {
				m.buf.ReplaceRange(m.cursor-1, m.cursor, "\n")
				return m, changed()
			}
			return m, m.send()
		case key.Matches(msg, editorMaps.Paste):
			return m, m.paste()
		case key.Matches(msg, editorMaps.Clear):
			return m, m.Reset()
		case key.Matches(msg, editorMaps.DeleteWord):
			return m, m.deleteWord()
		case key.Matches(msg, editorMaps.HistoryUp):
			return m, m.historyUp()
		case key.Matches(msg, editorMaps.HistoryDown):
			return m, m.historyDown()
		case key.Matches(msg, editorMaps.Home):
			return m, m.SetCursor(0)
		case key.Matches(msg, editorMaps.End):
			return m, m.SetCursor(m.buf.Len())
		}

		switch msg.Type {
		case tea.KeyRunes, tea.KeySpace:
			return m, m.insert(string(msg.Runes))
		case tea.KeyBackspace:
			return m, m.backspace()
		case tea.KeyDelete:
			return m, m.deleteForward()
		case tea.KeyLeft:
			return m, m.left()
		case tea.KeyRight:
			return m, m.right()
		}
	}
	return m, nil
}

var (
	promptStyle = lipgloss.NewStyle().Padding(0, 0, 0, 1).Bold(true).Foreground(styles.Primary)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
)

func (m *Editor) View() string {
	var sb strings.Builder
	pos := 0
	for _, seg := range m.buf.Segments() {
		style := styles.BaseStyle()
		if seg.Span != nil {
			if item, ok := seg.Span.Payload.(autocomplete.Item); ok {
				style = styles.Pill(item.Kind)
			}
		}
		for _, r := range seg.Text {
			glyph := string(r)
			if r == '\n' {
				glyph = "↵"
			}
			if pos == m.cursor {
				sb.WriteString(cursorStyle.Render(glyph))
			} else {
				sb.WriteString(style.Render(glyph))
			}
			if r == '\n' {
				sb.WriteString("\n")
			}
			pos++
		}
	}
	if m.cursor >= m.buf.Len() {
		sb.WriteString(cursorStyle.Render(" "))
	}

	body := sb.String()
	if m.width > 3 {
		body = lipgloss.NewStyle().Width(m.width - 3).Render(body)
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, promptStyle.Render(">"), " ", body)
}

func (m *Editor) BindingKeys() []key.Binding {
	return []key.Binding{
		editorMaps.Send, editorMaps.Paste, editorMaps.Clear, editorMaps.DeleteWord,
		editorMaps.HistoryUp, editorMaps.HistoryDown,
	}
}
