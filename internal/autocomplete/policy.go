package autocomplete

import (
	"unicode"
	"unicode/utf8"

	"github.com/riotx/riotx/internal/text"
)

// Session is an active completion: the token [Start, End) opened by Trigger,
// and the Query typed after it.
type Session struct {
	Trigger rune
	Start   int
	End     int
	Query   string
}

// Policy decides whether a completion session is active at a cursor.
type Policy interface {
	Detect(buf *text.Buffer, cursor int) (Session, bool)
}

// CharPolicy opens a session on Trigger. With NeedsSpace the trigger must
// start the buffer or follow whitespace.
type CharPolicy struct {
	Trigger    rune
	NeedsSpace bool
	MinQuery   int
}

func (p CharPolicy) Detect(buf *text.Buffer, cursor int) (Session, bool) {
	if cursor <= 0 || cursor > buf.Len() {
		return Session{}, false
	}
	if _, inPill := buf.SpanAt(cursor - 1); inPill {
		return Session{}, false
	}
	for i := cursor - 1; i >= 0; i-- {
		if _, inPill := buf.SpanAt(i); inPill {
			return Session{}, false
		}
		r, _ := buf.RuneAt(i)
		if unicode.IsSpace(r) {
			return Session{}, false
		}
		if r != p.Trigger {
			continue
		}
		if p.NeedsSpace && i > 0 {
			prev, _ := buf.RuneAt(i - 1)
			if !unicode.IsSpace(prev) {
				return Session{}, false
			}
		}
		query := buf.Slice(i+1, cursor)
		if utf8.RuneCountInString(query) < p.MinQuery {
			return Session{}, false
		}
		return Session{Trigger: p.Trigger, Start: i, End: cursor, Query: query}, true
	}
	return Session{}, false
}

// CommandPolicy opens a session when the buffer is a single word starting
// with '/'. It is switched off while the composer is in a special mode.
type CommandPolicy struct {
	Enabled bool
}

func (p *CommandPolicy) Detect(buf *text.Buffer, cursor int) (Session, bool) {
	if !p.Enabled || buf.Len() == 0 || cursor <= 0 {
		return Session{}, false
	}
	if r, _ := buf.RuneAt(0); r != '/' {
		return Session{}, false
	}
	if buf.IndexSpace(0) != -1 {
		return Session{}, false
	}
	return Session{Trigger: '/', Start: 0, End: buf.Len(), Query: buf.Slice(1, buf.Len())}, true
}
