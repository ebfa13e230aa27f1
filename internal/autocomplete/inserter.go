package autocomplete

import (
	"fmt"

	"github.com/riotx/riotx/internal/text"
)

// Inserter maps trigger characters to insertion strategies.
type Inserter struct {
	strategies map[rune]Strategy
}

// NewInserter returns an inserter with the default registrations: pills for
// members, rooms and groups, plain text for emoji, and command replacement.
func NewInserter() *Inserter {
	in := &Inserter{strategies: make(map[rune]Strategy)}
	pill := PillStrategy{Separator: " "}
	in.Register(KindMember.Trigger(), pill)
	in.Register(KindRoom.Trigger(), pill)
	in.Register(KindGroup.Trigger(), pill)
	in.Register(KindEmoji.Trigger(), TextStrategy{})
	in.Register(KindCommand.Trigger(), CommandStrategy{})
	return in
}

// Register sets the strategy used for trigger, replacing any previous one.
func (in *Inserter) Register(trigger rune, s Strategy) {
	in.strategies[trigger] = s
}

// Triggers returns the registered trigger characters.
func (in *Inserter) Triggers() []rune {
	out := make([]rune, 0, len(in.strategies))
	for r := range in.strategies {
		out = append(out, r)
	}
	return out
}

// InsertCompletion replaces the token opened by the last trigger in buf with
// item. When trigger does not occur the token starts at 0.
func (in *Inserter) InsertCompletion(buf *text.Buffer, trigger rune, item Item) error {
	start := buf.LastIndexOf(trigger)
	if start == -1 {
		start = 0
	}
	_, err := in.InsertAt(buf, trigger, start, item)
	return err
}

// InsertAt replaces the token starting at start with item and returns the
// offset just past the inserted text.
func (in *Inserter) InsertAt(buf *text.Buffer, trigger rune, start int, item Item) (int, error) {
	s, ok := in.strategies[trigger]
	if !ok {
		return start, fmt.Errorf("%w: %q", ErrUnknownTrigger, trigger)
	}
	return s.Apply(buf, start, tokenEnd(buf, start), item)
}

// InsertAtCursor inserts item at pos without consuming any text.
func (in *Inserter) InsertAtCursor(buf *text.Buffer, pos int, item Item) (int, error) {
	trigger := item.Kind.Trigger()
	s, ok := in.strategies[trigger]
	if !ok {
		return pos, fmt.Errorf("%w: %q", ErrUnknownTrigger, trigger)
	}
	return s.Apply(buf, pos, pos, item)
}
