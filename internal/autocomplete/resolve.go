package autocomplete

import (
	"strings"
	"unicode"

	"github.com/riotx/riotx/internal/text"
)

const roomIDSigil = "!"

type token struct {
	start, end int
	text       string
}

func tokens(buf *text.Buffer) []token {
	var out []token
	runes := []rune(buf.String())
	start := -1
	for i, r := range runes {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, token{start, i, string(runes[start:i])})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, token{start, len(runes), string(runes[start:])})
	}
	return out
}

func (t token) matches(item Item) bool {
	switch item.Kind {
	case KindMember, KindGroup:
		return item.ID == t.text
	case KindRoom:
		return item.ID == t.text || (item.Alias != "" && item.Alias == t.text)
	case KindEmoji:
		return ":"+item.ID+":" == t.text
	}
	return false
}

// Resolve turns complete ids, aliases and ":shortcode:" tokens already typed
// in buf into the completion they name, as if each had been selected from
// the popup. Tokens inside pills and unknown entities are left alone. It
// returns the number of replacements.
func (a *Autocompleter) Resolve(buf *text.Buffer) int {
	toks := tokens(buf)
	n := 0
	// right to left so earlier offsets stay valid
	for i := len(toks) - 1; i >= 0; i-- {
		t := toks[i]
		if _, inPill := buf.SpanAt(t.start); inPill {
			continue
		}
		if a.resolveRoomID(buf, t) {
			n++
			continue
		}
		cursor := t.end
		if r, _ := buf.RuneAt(t.start); r == KindEmoji.Trigger() {
			// the closing ':' would open a new, empty session
			cursor = t.end - 1
		}
		q, ok, err := a.Query(buf, cursor)
		if err != nil || !ok || q.Session.Start != t.start || q.Session.Trigger == KindCommand.Trigger() {
			continue
		}
		for _, s := range q.Suggestions {
			if !t.matches(s.Item) {
				continue
			}
			end, err := a.Select(buf, cursor, s)
			if err != nil {
				break
			}
			n++
			// the pill brings its own separator
			if s.Item.Kind.IsPill() {
				if r, ok := buf.RuneAt(end); ok && r == ' ' {
					buf.Delete(end, end+1)
				}
			}
			break
		}
	}
	return n
}

// resolveRoomID handles "!id:server" tokens, which no trigger opens a session
// for.
func (a *Autocompleter) resolveRoomID(buf *text.Buffer, t token) bool {
	if !strings.HasPrefix(t.text, roomIDSigil) {
		return false
	}
	room, ok := a.rooms.find(func(i Item) bool { return i.ID == t.text })
	if !ok {
		return false
	}
	end, err := a.inserter.InsertAt(buf, KindRoom.Trigger(), t.start, room)
	if err != nil {
		return false
	}
	if r, ok := buf.RuneAt(end); ok && r == ' ' {
		buf.Delete(end, end+1)
	}
	return true
}
