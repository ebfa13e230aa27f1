package autocomplete

import (
	"testing"

	"github.com/riotx/riotx/internal/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertCompletionMember(t *testing.T) {
	t.Parallel()

	buf := text.NewBuffer("hello @ali")
	err := NewInserter().InsertCompletion(buf, '@', Member("@alice:example.org", "Alice"))
	require.NoError(t, err)

	assert.Equal(t, "hello Alice ", buf.String())
	spans := buf.Spans()
	require.Len(t, spans, 1)
	assert.Equal(t, 6, spans[0].Start)
	assert.Equal(t, 11, spans[0].End)
	assert.Equal(t, Member("@alice:example.org", "Alice"), spans[0].Payload)
}

func TestInsertCompletionReplacesUpToWhitespace(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		initial   string
		trigger   rune
		item      Item
		want      string
		spanStart int
		spanEnd   int
	}{
		{
			name:      "token in the middle",
			initial:   "hi @al there",
			trigger:   '@',
			item:      Member("@alice:example.org", "Alice"),
			want:      "hi Alice  there",
			spanStart: 3,
			spanEnd:   8,
		},
		{
			name:      "last trigger wins",
			initial:   "@bo and @ca",
			trigger:   '@',
			item:      Member("@carol:example.org", "Carol"),
			want:      "@bo and Carol ",
			spanStart: 8,
			spanEnd:   13,
		},
		{
			name:      "room alias",
			initial:   "see #ma",
			trigger:   '#',
			item:      Room("!abc:example.org", "#matrix:example.org", "Matrix HQ"),
			want:      "see #matrix:example.org ",
			spanStart: 4,
			spanEnd:   23,
		},
		{
			name:      "group",
			initial:   "+co",
			trigger:   '+',
			item:      Group("+community:example.org", "Community"),
			want:      "+community:example.org ",
			spanStart: 0,
			spanEnd:   22,
		},
		{
			name:      "member without display name",
			initial:   "@bo",
			trigger:   '@',
			item:      Member("@bob:example.org", " "),
			want:      "@bob:example.org ",
			spanStart: 0,
			spanEnd:   16,
		},
		{
			name:      "trigger absent falls back to zero",
			initial:   "alfred rest",
			trigger:   '@',
			item:      Member("@alice:example.org", "Alice"),
			want:      "Alice  rest",
			spanStart: 0,
			spanEnd:   5,
		},
		{
			name:      "multibyte before the token",
			initial:   "😄 @ali",
			trigger:   '@',
			item:      Member("@alice:example.org", "Alice"),
			want:      "😄 Alice ",
			spanStart: 2,
			spanEnd:   7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			buf := text.NewBuffer(tt.initial)
			require.NoError(t, NewInserter().InsertCompletion(buf, tt.trigger, tt.item))
			assert.Equal(t, tt.want, buf.String())

			spans := buf.Spans()
			require.Len(t, spans, 1)
			assert.Equal(t, tt.spanStart, spans[0].Start)
			assert.Equal(t, tt.spanEnd, spans[0].End)
			// the trailing space is never part of the pill
			assert.Equal(t, tt.item.BestName(), spans[0].Text(buf))
		})
	}
}

func TestInsertCompletionEmoji(t *testing.T) {
	t.Parallel()

	buf := text.NewBuffer(":smi")
	require.NoError(t, NewInserter().InsertCompletion(buf, ':', Emoji("smile", "😄")))
	assert.Equal(t, "😄", buf.String())
	assert.Empty(t, buf.Spans())

	buf = text.NewBuffer("nice :thu bye")
	require.NoError(t, NewInserter().InsertCompletion(buf, ':', Emoji("thumbsup", "👍")))
	assert.Equal(t, "nice 👍 bye", buf.String())
}

func TestInsertCompletionCommand(t *testing.T) {
	t.Parallel()

	buf := text.NewBuffer("/sh")
	buf.AttachSpan(0, 1, "stale")
	item := Item{Kind: KindCommand, ID: "shrug", Value: "/shrug"}
	require.NoError(t, NewInserter().InsertCompletion(buf, '/', item))
	assert.Equal(t, "/shrug ", buf.String())
	assert.Empty(t, buf.Spans())
}

func TestInsertCompletionKeepsOtherPills(t *testing.T) {
	t.Parallel()

	in := NewInserter()
	buf := text.NewBuffer("@al")
	require.NoError(t, in.InsertCompletion(buf, '@', Member("@alice:example.org", "Alice")))
	buf.Append("and @bo")
	require.NoError(t, in.InsertCompletion(buf, '@', Member("@bob:example.org", "Bob")))

	assert.Equal(t, "Alice and Bob ", buf.String())
	assert.Equal(t, "[Alice] and [Bob] ", buf.Debug())
}

func TestInsertCompletionRejectsWithoutMutation(t *testing.T) {
	t.Parallel()

	t.Run("unknown trigger", func(t *testing.T) {
		t.Parallel()
		buf := text.NewBuffer("hey !x")
		err := NewInserter().InsertCompletion(buf, '!', Member("@a:b", "A"))
		assert.ErrorIs(t, err, ErrUnknownTrigger)
		assert.Equal(t, "hey !x", buf.String())
	})

	t.Run("empty display name", func(t *testing.T) {
		t.Parallel()
		buf := text.NewBuffer("hey @x")
		buf.AttachSpan(0, 3, "keep")
		err := NewInserter().InsertCompletion(buf, '@', Member("", ""))
		assert.ErrorIs(t, err, ErrEmptyDisplayName)
		assert.Equal(t, "hey @x", buf.String())
		assert.Len(t, buf.Spans(), 1)
	})

	t.Run("empty emoji", func(t *testing.T) {
		t.Parallel()
		buf := text.NewBuffer(":x")
		err := NewInserter().InsertCompletion(buf, ':', Emoji("", ""))
		assert.ErrorIs(t, err, ErrEmptyDisplayName)
		assert.Equal(t, ":x", buf.String())
	})
}

func TestInsertCompletionTwice(t *testing.T) {
	t.Parallel()

	in := NewInserter()
	buf := text.NewBuffer("hello @ali")
	alice := Member("@alice:example.org", "Alice")
	require.NoError(t, in.InsertCompletion(buf, '@', alice))
	assert.Equal(t, "hello Alice ", buf.String())

	// no '@' is left, so the token starting at 0 is replaced
	require.NoError(t, in.InsertCompletion(buf, '@', alice))
	assert.Equal(t, "Alice  Alice ", buf.String())

	spans := buf.Spans()
	require.Len(t, spans, 2)
	for _, s := range spans {
		assert.LessOrEqual(t, s.End, buf.Len())
		assert.Equal(t, "Alice", s.Text(buf))
	}
}

func TestRegisterCustomStrategy(t *testing.T) {
	t.Parallel()

	in := NewInserter()
	in.Register('!', PillStrategy{Separator: ", "})
	buf := text.NewBuffer("cc !al")
	require.NoError(t, in.InsertCompletion(buf, '!', Member("@alice:example.org", "Alice")))
	assert.Equal(t, "cc Alice, ", buf.String())
	assert.Contains(t, in.Triggers(), '!')
}
