package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferIndexing(t *testing.T) {
	t.Parallel()

	b := NewBuffer("héllo @ali bob")
	assert.Equal(t, 14, b.Len())
	assert.Equal(t, 6, b.LastIndexOf('@'))
	assert.Equal(t, -1, b.LastIndexOf('#'))
	assert.Equal(t, 10, b.IndexSpace(6))
	assert.Equal(t, 5, b.IndexOf(' ', 0))
	assert.Equal(t, -1, b.IndexOf('z', 0))
	assert.Equal(t, 6, b.LastIndexBefore('@', 8))
	assert.Equal(t, -1, b.LastIndexBefore('@', 6))
	assert.Equal(t, "@ali", b.Slice(6, 10))

	r, ok := b.RuneAt(1)
	assert.True(t, ok)
	assert.Equal(t, 'é', r)
	_, ok = b.RuneAt(99)
	assert.False(t, ok)
}

func TestBufferReplaceRange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		initial    string
		start, end int
		repl       string
		want       string
	}{
		{name: "middle", initial: "hello world", start: 6, end: 11, repl: "there", want: "hello there"},
		{name: "insert", initial: "ab", start: 1, end: 1, repl: "X", want: "aXb"},
		{name: "delete", initial: "abc", start: 0, end: 2, repl: "", want: "c"},
		{name: "clamped", initial: "abc", start: -4, end: 40, repl: "z", want: "z"},
		{name: "inverted range", initial: "abc", start: 2, end: 1, repl: "-", want: "ab-c"},
		{name: "multibyte", initial: "😄 :smi", start: 2, end: 6, repl: "👍", want: "😄 👍"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			b := NewBuffer(tt.initial)
			b.ReplaceRange(tt.start, tt.end, tt.repl)
			assert.Equal(t, tt.want, b.String())
		})
	}
}

func TestSpansFollowEdits(t *testing.T) {
	t.Parallel()

	t.Run("shifted by edits before the span", func(t *testing.T) {
		t.Parallel()
		b := NewBuffer("hi Alice ")
		b.AttachSpan(3, 8, "alice")

		b.Insert(0, "oh ")
		spans := b.Spans()
		require.Len(t, spans, 1)
		assert.Equal(t, 6, spans[0].Start)
		assert.Equal(t, 11, spans[0].End)
		assert.Equal(t, "Alice", spans[0].Text(b))
	})

	t.Run("untouched by edits after the span", func(t *testing.T) {
		t.Parallel()
		b := NewBuffer("Alice ")
		b.AttachSpan(0, 5, "alice")

		b.Append("hello")
		b.Insert(5, "!")
		spans := b.Spans()
		require.Len(t, spans, 1)
		assert.Equal(t, 0, spans[0].Start)
		assert.Equal(t, 5, spans[0].End)
		assert.Equal(t, "Alice! hello", b.String())
	})

	t.Run("dropped when the range is overwritten", func(t *testing.T) {
		t.Parallel()
		b := NewBuffer("hi Alice and Bob")
		b.AttachSpan(3, 8, "alice")
		b.AttachSpan(13, 16, "bob")

		b.ReplaceRange(2, 9, " ")
		spans := b.Spans()
		require.Len(t, spans, 1)
		assert.Equal(t, "bob", spans[0].Payload)
		assert.Equal(t, "Bob", spans[0].Text(b))
	})

	t.Run("dropped on partial overlap", func(t *testing.T) {
		t.Parallel()
		b := NewBuffer("Alice")
		b.AttachSpan(0, 5, "alice")

		b.Delete(4, 5)
		assert.Empty(t, b.Spans())
	})

	t.Run("dropped when typing inside", func(t *testing.T) {
		t.Parallel()
		b := NewBuffer("Alice")
		b.AttachSpan(0, 5, "alice")

		b.Insert(2, "x")
		assert.Empty(t, b.Spans())
	})

	t.Run("cleared", func(t *testing.T) {
		t.Parallel()
		b := NewBuffer("Alice")
		b.AttachSpan(0, 5, "alice")
		b.Clear()
		assert.Empty(t, b.Spans())
		assert.Equal(t, 0, b.Len())
	})
}

func TestSpansStayInBounds(t *testing.T) {
	t.Parallel()

	b := NewBuffer("abc")
	s := b.AttachSpan(1, 10, nil)
	assert.Equal(t, 1, s.Start)
	assert.Equal(t, 3, s.End)

	b.Delete(0, 3)
	for _, span := range b.Spans() {
		assert.LessOrEqual(t, span.End, b.Len())
	}
}

func TestReplaceWithSpan(t *testing.T) {
	t.Parallel()

	b := NewBuffer("hello @ali")
	span := b.ReplaceWithSpan(6, 10, "Alice ", 5, "payload")
	assert.Equal(t, "hello Alice ", b.String())
	assert.Equal(t, 6, span.Start)
	assert.Equal(t, 11, span.End)
	assert.NotEmpty(t, span.ID)
	assert.Equal(t, "hello [Alice] ", b.Debug())
}

func TestSegmentsAndLookup(t *testing.T) {
	t.Parallel()

	b := NewBuffer("to Alice and Bob now")
	b.AttachSpan(13, 16, "bob")
	b.AttachSpan(3, 8, "alice")

	segs := b.Segments()
	require.Len(t, segs, 5)
	assert.Equal(t, "to ", segs[0].Text)
	assert.Nil(t, segs[0].Span)
	assert.Equal(t, "Alice", segs[1].Text)
	assert.Equal(t, "alice", segs[1].Span.Payload)
	assert.Equal(t, "Bob", segs[3].Text)
	assert.Equal(t, " now", segs[4].Text)

	s, ok := b.SpanAt(4)
	require.True(t, ok)
	assert.Equal(t, "alice", s.Payload)
	_, ok = b.SpanAt(8)
	assert.False(t, ok)

	s, ok = b.SpanEndingAt(16)
	require.True(t, ok)
	assert.Equal(t, "bob", s.Payload)

	assert.True(t, b.RemoveSpan(s.ID))
	assert.False(t, b.RemoveSpan(s.ID))
	assert.Len(t, b.Spans(), 1)
}

func TestClone(t *testing.T) {
	t.Parallel()

	b := NewBuffer("Alice ")
	b.AttachSpan(0, 5, "alice")
	c := b.Clone()
	c.Clear()

	assert.Equal(t, "Alice ", b.String())
	assert.Len(t, b.Spans(), 1)
}
