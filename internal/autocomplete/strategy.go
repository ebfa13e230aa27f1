package autocomplete

import (
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/riotx/riotx/internal/text"
)

var (
	ErrUnknownTrigger   = errors.New("no completion registered for trigger")
	ErrEmptyDisplayName = errors.New("completion has an empty display name")
	ErrNoSession        = errors.New("no completion session at cursor")
)

// Strategy turns a selected item into an edit of [start, end). It returns the
// offset just past the inserted text.
type Strategy interface {
	Apply(buf *text.Buffer, start, end int, item Item) (int, error)
}

// PillStrategy replaces the token with the item's best name followed by
// Separator and attaches a span over the name only.
type PillStrategy struct {
	Separator string
}

func (p PillStrategy) Apply(buf *text.Buffer, start, end int, item Item) (int, error) {
	display := item.BestName()
	if strings.TrimSpace(display) == "" {
		return start, ErrEmptyDisplayName
	}
	replacement := display + p.Separator
	buf.ReplaceWithSpan(start, end, replacement, utf8.RuneCountInString(display), item)
	return start + utf8.RuneCountInString(replacement), nil
}

// TextStrategy replaces the token with the item's value and nothing else.
type TextStrategy struct{}

func (TextStrategy) Apply(buf *text.Buffer, start, end int, item Item) (int, error) {
	value := item.BestName()
	if value == "" {
		return start, ErrEmptyDisplayName
	}
	buf.ReplaceRange(start, end, value)
	return start + utf8.RuneCountInString(value), nil
}

// CommandStrategy replaces the whole buffer with the command and a space.
type CommandStrategy struct{}

func (CommandStrategy) Apply(buf *text.Buffer, _, _ int, item Item) (int, error) {
	value := item.BestName()
	if value == "" {
		return 0, ErrEmptyDisplayName
	}
	if !strings.HasPrefix(value, "/") {
		value = "/" + value
	}
	buf.Clear()
	buf.Append(value + " ")
	return buf.Len(), nil
}

// tokenEnd is the first whitespace at or after start, or the buffer end.
func tokenEnd(buf *text.Buffer, start int) int {
	if end := buf.IndexSpace(start); end != -1 {
		return end
	}
	return buf.Len()
}
