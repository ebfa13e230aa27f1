// Package text implements the composer's editable buffer: a rune sequence with
// range-tagged spans attached to it.
package text

import (
	"sort"
	"strings"
	"unicode"

	"github.com/google/uuid"
)

// Span is an annotation over the rune range [Start, End) of a Buffer.
type Span struct {
	ID      string // unique per attached span
	Start   int
	End     int
	Payload any
}

// Len returns the number of runes covered by the span.
func (s Span) Len() int {
	return s.End - s.Start
}

// Text returns the buffer text covered by the span.
func (s Span) Text(b *Buffer) string {
	return b.Slice(s.Start, s.End)
}

// Buffer is a mutable rune sequence with spans. Indices are rune offsets.
// A Buffer is not safe for concurrent use.
type Buffer struct {
	runes []rune
	spans []*Span
}

// NewBuffer returns a buffer holding s.
func NewBuffer(s string) *Buffer {
	return &Buffer{runes: []rune(s)}
}

// String returns the buffer contents.
func (b *Buffer) String() string {
	return string(b.runes)
}

// Len returns the number of runes in the buffer.
func (b *Buffer) Len() int {
	return len(b.runes)
}

// Slice returns the text in [start, end), clamped to the buffer bounds.
func (b *Buffer) Slice(start, end int) string {
	start, end = b.clampRange(start, end)
	return string(b.runes[start:end])
}

// LastIndexOf returns the index of the last occurrence of r, or -1.
func (b *Buffer) LastIndexOf(r rune) int {
	return b.LastIndexBefore(r, len(b.runes))
}

// LastIndexBefore returns the index of the last occurrence of r strictly before
// pos, or -1.
func (b *Buffer) LastIndexBefore(r rune, pos int) int {
	pos = clamp(pos, 0, len(b.runes))
	for i := pos - 1; i >= 0; i-- {
		if b.runes[i] == r {
			return i
		}
	}
	return -1
}

// IndexOf returns the index of the first occurrence of r at or after from, or -1.
func (b *Buffer) IndexOf(r rune, from int) int {
	return b.IndexFunc(from, func(c rune) bool { return c == r })
}

// IndexFunc returns the index of the first rune at or after from satisfying f,
// or -1.
func (b *Buffer) IndexFunc(from int, f func(rune) bool) int {
	for i := max(from, 0); i < len(b.runes); i++ {
		if f(b.runes[i]) {
			return i
		}
	}
	return -1
}

// IndexSpace returns the index of the first whitespace rune at or after from,
// or -1.
func (b *Buffer) IndexSpace(from int) int {
	return b.IndexFunc(from, unicode.IsSpace)
}

// RuneAt returns the rune at i and whether i is in bounds.
func (b *Buffer) RuneAt(i int) (rune, bool) {
	if i < 0 || i >= len(b.runes) {
		return 0, false
	}
	return b.runes[i], true
}

// ReplaceRange replaces [start, end) with s. Spans intersecting the replaced
// range are dropped and spans after it are shifted.
func (b *Buffer) ReplaceRange(start, end int, s string) {
	start, end = b.clampRange(start, end)
	repl := []rune(s)

	next := make([]rune, 0, len(b.runes)-(end-start)+len(repl))
	next = append(next, b.runes[:start]...)
	next = append(next, repl...)
	next = append(next, b.runes[end:]...)
	b.runes = next

	b.adjustSpans(start, end, len(repl))
}

// Insert inserts s at pos.
func (b *Buffer) Insert(pos int, s string) {
	b.ReplaceRange(pos, pos, s)
}

// Append adds s to the end of the buffer.
func (b *Buffer) Append(s string) {
	b.Insert(len(b.runes), s)
}

// Delete removes [start, end).
func (b *Buffer) Delete(start, end int) {
	b.ReplaceRange(start, end, "")
}

// Clear empties the buffer and drops every span.
func (b *Buffer) Clear() {
	b.runes = nil
	b.spans = nil
}

// AttachSpan attaches payload over [start, end). Out of range positions are
// clamped to the buffer.
func (b *Buffer) AttachSpan(start, end int, payload any) *Span {
	start, end = b.clampRange(start, end)
	span := &Span{
		ID:      uuid.NewString(),
		Start:   start,
		End:     end,
		Payload: payload,
	}
	b.spans = append(b.spans, span)
	sort.SliceStable(b.spans, func(i, j int) bool {
		return b.spans[i].Start < b.spans[j].Start
	})
	return span
}

// ReplaceWithSpan replaces [start, end) with s and attaches payload over the
// first spanLen runes of the replacement in one step.
func (b *Buffer) ReplaceWithSpan(start, end int, s string, spanLen int, payload any) *Span {
	start, _ = b.clampRange(start, end)
	b.ReplaceRange(start, end, s)
	spanLen = clamp(spanLen, 0, len([]rune(s)))
	return b.AttachSpan(start, start+spanLen, payload)
}

// RemoveSpan detaches the span with the given id. The text is left untouched.
func (b *Buffer) RemoveSpan(id string) bool {
	for i, s := range b.spans {
		if s.ID == id {
			b.spans = append(b.spans[:i], b.spans[i+1:]...)
			return true
		}
	}
	return false
}

// Spans returns copies of the attached spans ordered by start offset.
func (b *Buffer) Spans() []Span {
	out := make([]Span, 0, len(b.spans))
	for _, s := range b.spans {
		out = append(out, *s)
	}
	return out
}

// SpanAt returns the span containing pos, where a span [s, e) contains pos if
// s <= pos < e.
func (b *Buffer) SpanAt(pos int) (Span, bool) {
	for _, s := range b.spans {
		if s.Start <= pos && pos < s.End {
			return *s, true
		}
	}
	return Span{}, false
}

// SpanEndingAt returns the non-empty span whose End equals pos.
func (b *Buffer) SpanEndingAt(pos int) (Span, bool) {
	for _, s := range b.spans {
		if s.End == pos && s.Len() > 0 {
			return *s, true
		}
	}
	return Span{}, false
}

// Segment is a run of buffer text, either plain or covered by a span.
type Segment struct {
	Text string
	Span *Span
}

// Segments splits the buffer into plain and span-covered runs in order.
// Zero length spans produce no segment.
func (b *Buffer) Segments() []Segment {
	var out []Segment
	pos := 0
	for _, s := range b.spans {
		if s.Len() == 0 || s.Start < pos {
			continue
		}
		if s.Start > pos {
			out = append(out, Segment{Text: string(b.runes[pos:s.Start])})
		}
		span := *s
		out = append(out, Segment{Text: string(b.runes[s.Start:s.End]), Span: &span})
		pos = s.End
	}
	if pos < len(b.runes) {
		out = append(out, Segment{Text: string(b.runes[pos:])})
	}
	return out
}

// Clone returns a deep copy of the buffer. Payloads are shared.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{runes: append([]rune(nil), b.runes...)}
	for _, s := range b.spans {
		span := *s
		c.spans = append(c.spans, &span)
	}
	return c
}

// Debug renders the buffer with spans bracketed, e.g. "hello [Alice] ".
func (b *Buffer) Debug() string {
	var sb strings.Builder
	for _, seg := range b.Segments() {
		if seg.Span != nil {
			sb.WriteString("[" + seg.Text + "]")
			continue
		}
		sb.WriteString(seg.Text)
	}
	return sb.String()
}

// adjustSpans keeps spans consistent after [start, end) became n runes.
func (b *Buffer) adjustSpans(start, end, n int) {
	delta := n - (end - start)
	kept := b.spans[:0]
	for _, s := range b.spans {
		switch {
		case s.End <= start && !(s.Len() == 0 && s.Start == start && end > start):
			// entirely before the edit
		case s.Start >= end && !(s.Len() == 0 && s.Start == end && end > start):
			s.Start += delta
			s.End += delta
		default:
			continue
		}
		kept = append(kept, s)
	}
	for i := len(kept); i < len(b.spans); i++ {
		b.spans[i] = nil
	}
	b.spans = kept
}

func (b *Buffer) clampRange(start, end int) (int, int) {
	start = clamp(start, 0, len(b.runes))
	end = clamp(end, start, len(b.runes))
	return start, end
}

func clamp(v, low, high int) int {
	if high < low {
		low, high = high, low
	}
	return min(high, max(low, v))
}
