package dialog

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func query(t *testing.T, input string) autocomplete.Query {
	t.Helper()
	ac := autocomplete.New(autocomplete.Options{Members: []autocomplete.Item{
		autocomplete.Member("@alice:example.org", "Alice"),
		autocomplete.Member("@alicia:example.org", "Alicia"),
		autocomplete.Member("@bob:example.org", "Bob"),
	}})
	buf := text.NewBuffer(input)
	q, ok, err := ac.Query(buf, buf.Len())
	require.NoError(t, err)
	require.True(t, ok)
	return q
}

func TestCompletionDialogNavigation(t *testing.T) {
	t.Parallel()

	c := NewCompletionDialog()
	handled, _ := c.HandleKey(tea.KeyMsg{Type: tea.KeyTab})
	assert.False(t, handled, "closed popup ignores keys")

	c.SetQuery(query(t, "@ali"))
	require.True(t, c.IsOpen())
	require.Len(t, c.Query().Suggestions, 2)

	first, ok := c.Selected()
	require.True(t, ok)

	handled, _ = c.HandleKey(tea.KeyMsg{Type: tea.KeyDown})
	assert.True(t, handled)
	second, _ := c.Selected()
	assert.NotEqual(t, first.Item.ID, second.Item.ID)

	handled, _ = c.HandleKey(tea.KeyMsg{Type: tea.KeyDown})
	assert.True(t, handled)
	wrapped, _ := c.Selected()
	assert.Equal(t, first.Item.ID, wrapped.Item.ID, "selection wraps around")

	c.HandleKey(tea.KeyMsg{Type: tea.KeyUp})
	c.SetQuery(query(t, "@ali"))
	kept, _ := c.Selected()
	assert.Equal(t, second.Item.ID, kept.Item.ID, "selection survives a refresh")

	handled, _ = c.HandleKey(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	assert.False(t, handled, "typing goes to the editor")
}

func TestCompletionDialogSelect(t *testing.T) {
	t.Parallel()

	c := NewCompletionDialog()
	c.SetQuery(query(t, "@bo"))
	handled, cmd := c.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	require.True(t, handled)
	require.NotNil(t, cmd)

	msg, ok := cmd().(CompletionSelectedMsg)
	require.True(t, ok)
	assert.Equal(t, "@bob:example.org", msg.Suggestion.Item.ID)
	assert.False(t, c.IsOpen())
}

func TestCompletionDialogCancel(t *testing.T) {
	t.Parallel()

	c := NewCompletionDialog()
	c.SetQuery(query(t, "hey @al"))
	handled, cmd := c.HandleKey(tea.KeyMsg{Type: tea.KeyEsc})
	require.True(t, handled)
	assert.Equal(t, CompletionDialogCloseMsg{Start: 4}, cmd())
	assert.False(t, c.IsOpen())
	assert.Empty(t, c.View())
}

func TestCompletionDialogEmpty(t *testing.T) {
	t.Parallel()

	c := NewCompletionDialog()
	c.SetQuery(query(t, "@zzz"))
	assert.True(t, c.IsEmpty())
	assert.Contains(t, c.View(), "no matching")

	handled, _ := c.HandleKey(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, handled, "enter falls through when nothing is listed")
}

func TestCompletionDialogView(t *testing.T) {
	t.Parallel()

	c := NewCompletionDialog()
	c.SetWidth(50)
	c.SetQuery(query(t, "@ali"))
	view := c.View()
	assert.Contains(t, view, "Alice")
	assert.Contains(t, view, "Alicia")
	assert.NotContains(t, view, "Bob")
}
