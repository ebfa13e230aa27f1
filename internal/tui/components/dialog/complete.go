package dialog

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/tui/styles"
	"github.com/riotx/riotx/internal/tui/util"
)

const maxVisibleItems = 7

// CompletionSelectedMsg is sent when the user accepts a suggestion.
type CompletionSelectedMsg struct {
	Suggestion autocomplete.CompletionSuggestion
}

// CompletionDialogCloseMsg is sent when the popup is dismissed with esc.
type CompletionDialogCloseMsg struct {
	// Start of the dismissed session, so it is not reopened while typing on.
	Start int
}

type completionDialogKeyMap struct {
	Complete key.Binding
	Cancel   key.Binding
	Up       key.Binding
	Down     key.Binding
}

var completionDialogKeys = completionDialogKeyMap{
	Complete: key.NewBinding(key.WithKeys("tab", "enter")),
	Cancel:   key.NewBinding(key.WithKeys("esc")),
	Up:       key.NewBinding(key.WithKeys("up", "ctrl+p", "shift+tab")),
	Down:     key.NewBinding(key.WithKeys("down", "ctrl+n")),
}

// CompletionDialog shows the suggestions of the active completion session.
type CompletionDialog struct {
	query    autocomplete.Query
	open     bool
	selected int
	offset   int
	width    int
}

func NewCompletionDialog() *CompletionDialog {
	return &CompletionDialog{}
}

// SetQuery opens the popup on q, keeping the selection when the same
// suggestion is still listed.
func (c *CompletionDialog) SetQuery(q autocomplete.Query) {
	var keep string
	if c.open && c.selected < len(c.query.Suggestions) {
		keep = c.query.Suggestions[c.selected].Item.ID
	}
	c.query = q
	c.open = true
	c.selected, c.offset = 0, 0
	for i, s := range q.Suggestions {
		if keep != "" && s.Item.ID == keep {
			c.selected = i
			break
		}
	}
	c.scroll()
}

func (c *CompletionDialog) Close() {
	c.open = false
	c.query = autocomplete.Query{}
	c.selected, c.offset = 0, 0
}

func (c *CompletionDialog) IsOpen() bool {
	return c.open
}

func (c *CompletionDialog) IsEmpty() bool {
	return len(c.query.Suggestions) == 0
}

func (c *CompletionDialog) Query() autocomplete.Query {
	return c.query
}

// Selected returns the highlighted suggestion.
func (c *CompletionDialog) Selected() (autocomplete.CompletionSuggestion, bool) {
	if !c.open || c.selected >= len(c.query.Suggestions) {
		return autocomplete.CompletionSuggestion{}, false
	}
	return c.query.Suggestions[c.selected], true
}

func (c *CompletionDialog) SetWidth(width int) {
	c.width = width
}

func (c *CompletionDialog) scroll() {
	if c.selected < c.offset {
		c.offset = c.selected
	}
	if c.selected >= c.offset+maxVisibleItems {
		c.offset = c.selected - maxVisibleItems + 1
	}
}

// HandleKey consumes navigation keys while the popup is open. It reports
// whether msg was handled.
func (c *CompletionDialog) HandleKey(msg tea.KeyMsg) (bool, tea.Cmd) {
	if !c.open {
		return false, nil
	}
	n := len(c.query.Suggestions)
	switch {
	case key.Matches(msg, completionDialogKeys.Cancel):
		start := c.query.Session.Start
		c.Close()
		return true, util.CmdHandler(CompletionDialogCloseMsg{Start: start})
	case key.Matches(msg, completionDialogKeys.Complete):
		s, ok := c.Selected()
		if !ok {
			// nothing to accept; let the editor see the key
			return false, nil
		}
		c.Close()
		return true, util.CmdHandler(CompletionSelectedMsg{Suggestion: s})
	case key.Matches(msg, completionDialogKeys.Up):
		if n > 0 {
			c.selected = (c.selected - 1 + n) % n
			c.scroll()
		}
		return true, nil
	case key.Matches(msg, completionDialogKeys.Down):
		if n > 0 {
			c.selected = (c.selected + 1) % n
			c.scroll()
		}
		return true, nil
	}
	return false, nil
}

var (
	popupStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.ThickBorder()).
			BorderLeft(true).
			BorderRight(true).
			BorderForeground(styles.Border)
	itemStyle     = styles.Padded()
	selectedStyle = styles.Padded().Foreground(styles.Primary).Bold(true)
)

func (c *CompletionDialog) View() string {
	if !c.open {
		return ""
	}
	width := c.width
	if width <= 0 {
		width = 40
	}
	inner := max(width-4, 8)

	if len(c.query.Suggestions) == 0 {
		return popupStyle.Width(width - 2).Render(styles.Muted().Padding(0, 1).Render(ansi.Truncate(c.query.EmptyMessage, inner, "…")))
	}

	end := min(c.offset+maxVisibleItems, len(c.query.Suggestions))
	rows := make([]string, 0, end-c.offset)
	for i := c.offset; i < end; i++ {
		s := c.query.Suggestions[i]
		line := s.Display
		if s.Description != "" && s.Description != s.Display {
			line += "  " + styles.Muted().Render(s.Description)
		}
		line = ansi.Truncate(line, inner, "…")
		style := itemStyle
		if i == c.selected {
			style = selectedStyle
		}
		rows = append(rows, style.Width(width-2).Render(line))
	}
	return popupStyle.Render(strings.Join(rows, "\n"))
}
