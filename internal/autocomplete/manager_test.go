package autocomplete

import (
	"testing"

	"github.com/riotx/riotx/internal/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAutocompleter() *Autocompleter {
	return New(Options{
		Members: []Item{
			Member("@alice:example.org", "Alice"),
			Member("@bob:example.org", "Bob"),
			Member("@alfred:example.org", ""),
		},
		Rooms: []Item{
			Room("!hq:example.org", "#matrix:example.org", "Matrix HQ"),
			Room("!dev:example.org", "#dev:example.org", "Developers"),
		},
		Groups: []Item{
			Group("+community:example.org", "Community"),
		},
	})
}

func TestCharPolicyDetect(t *testing.T) {
	t.Parallel()

	member := CharPolicy{Trigger: '@', NeedsSpace: true}
	emoji := CharPolicy{Trigger: ':', MinQuery: 2}

	tests := []struct {
		name   string
		policy CharPolicy
		input  string
		cursor int
		want   bool
		query  string
		start  int
	}{
		{name: "at start", policy: member, input: "@al", cursor: 3, want: true, query: "al", start: 0},
		{name: "after space", policy: member, input: "hi @al", cursor: 6, want: true, query: "al", start: 3},
		{name: "bare trigger", policy: member, input: "hi @", cursor: 4, want: true, query: "", start: 3},
		{name: "inside a word", policy: member, input: "mail@ex", cursor: 7, want: false},
		{name: "whitespace after trigger", policy: member, input: "@al x", cursor: 5, want: false},
		{name: "cursor before trigger", policy: member, input: "hi @al", cursor: 2, want: false},
		{name: "cursor mid token", policy: member, input: "@alice", cursor: 3, want: true, query: "al", start: 0},
		{name: "emoji inside a word", policy: emoji, input: "nice:sm", cursor: 7, want: true, query: "sm", start: 4},
		{name: "emoji query too short", policy: emoji, input: "10:3", cursor: 4, want: false},
		{name: "empty buffer", policy: member, input: "", cursor: 0, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, ok := tt.policy.Detect(text.NewBuffer(tt.input), tt.cursor)
			assert.Equal(t, tt.want, ok)
			if tt.want {
				assert.Equal(t, tt.query, s.Query)
				assert.Equal(t, tt.start, s.Start)
				assert.Equal(t, tt.cursor, s.End)
				assert.Equal(t, tt.policy.Trigger, s.Trigger)
			}
		})
	}
}

func TestCharPolicyIgnoresPills(t *testing.T) {
	t.Parallel()

	buf := text.NewBuffer("@bob:example.org")
	buf.AttachSpan(0, 16, Member("@bob:example.org", ""))

	_, ok := CharPolicy{Trigger: ':', MinQuery: 2}.Detect(buf, 16)
	assert.False(t, ok)
	_, ok = CharPolicy{Trigger: '@', NeedsSpace: true}.Detect(buf, 5)
	assert.False(t, ok)
}

func TestCommandPolicy(t *testing.T) {
	t.Parallel()

	p := &CommandPolicy{Enabled: true}
	s, ok := p.Detect(text.NewBuffer("/sh"), 3)
	require.True(t, ok)
	assert.Equal(t, "sh", s.Query)
	assert.Equal(t, '/', s.Trigger)

	_, ok = p.Detect(text.NewBuffer("/shrug hi"), 9)
	assert.False(t, ok)
	_, ok = p.Detect(text.NewBuffer("hi /sh"), 6)
	assert.False(t, ok)

	p.Enabled = false
	_, ok = p.Detect(text.NewBuffer("/sh"), 3)
	assert.False(t, ok)
}

func TestAutocompleterQuery(t *testing.T) {
	t.Parallel()

	a := newTestAutocompleter()

	t.Run("members", func(t *testing.T) {
		buf := text.NewBuffer("hi @bo")
		q, ok, err := a.Query(buf, buf.Len())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "members", q.Provider.GetId())
		require.NotEmpty(t, q.Suggestions)
		assert.Equal(t, "Bob", q.Suggestions[0].Display)
	})

	t.Run("rooms with colon in the alias", func(t *testing.T) {
		buf := text.NewBuffer("#matrix:ex")
		q, ok, err := a.Query(buf, buf.Len())
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "rooms", q.Provider.GetId())
		assert.Equal(t, "matrix:ex", q.Session.Query)
	})

	t.Run("commands", func(t *testing.T) {
		buf := text.NewBuffer("/shr")
		q, ok, err := a.Query(buf, buf.Len())
		require.NoError(t, err)
		require.True(t, ok)
		require.NotEmpty(t, q.Suggestions)
		assert.Equal(t, "/shrug", q.Suggestions[0].Item.Value)
	})

	t.Run("no session", func(t *testing.T) {
		buf := text.NewBuffer("plain text")
		_, ok, err := a.Query(buf, buf.Len())
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestAutocompleterSpecialMode(t *testing.T) {
	t.Parallel()

	a := newTestAutocompleter()
	buf := text.NewBuffer("/sh")

	a.EnterSpecialMode()
	_, ok, err := a.Query(buf, buf.Len())
	require.NoError(t, err)
	assert.False(t, ok)

	a.ExitSpecialMode()
	_, ok, err = a.Query(buf, buf.Len())
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestAutocompleterSelect(t *testing.T) {
	t.Parallel()

	a := newTestAutocompleter()
	buf := text.NewBuffer("hello @ali")
	q, ok, err := a.Query(buf, buf.Len())
	require.NoError(t, err)
	require.True(t, ok)

	var alice CompletionSuggestion
	for _, s := range q.Suggestions {
		if s.Item.ID == "@alice:example.org" {
			alice = s
		}
	}
	require.Equal(t, "Alice", alice.Display)

	cursor, err := a.Select(buf, buf.Len(), alice)
	require.NoError(t, err)
	assert.Equal(t, "hello Alice ", buf.String())
	assert.Equal(t, 12, cursor)

	// selecting again without typing appends a second pill
	cursor, err = a.Select(buf, cursor, alice)
	require.NoError(t, err)
	assert.Equal(t, "hello Alice Alice ", buf.String())
	assert.Equal(t, 18, cursor)
	assert.Equal(t, "hello [Alice] [Alice] ", buf.Debug())
}

func TestAutocompleterSelectMismatch(t *testing.T) {
	t.Parallel()

	a := newTestAutocompleter()
	buf := text.NewBuffer("hi #ma")
	_, err := a.Select(buf, buf.Len(), CompletionSuggestion{Item: Member("@alice:example.org", "Alice")})
	assert.ErrorIs(t, err, ErrNoSession)
	assert.Equal(t, "hi #ma", buf.String())

	buf = text.NewBuffer("plain")
	_, err = a.Select(buf, buf.Len(), CompletionSuggestion{Item: Emoji("smile", "😄")})
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestAutocompleterSelectCommandAndEmoji(t *testing.T) {
	t.Parallel()

	a := newTestAutocompleter()

	buf := text.NewBuffer("/sh")
	q, ok, err := a.Query(buf, buf.Len())
	require.NoError(t, err)
	require.True(t, ok)
	cursor, err := a.Select(buf, buf.Len(), q.Suggestions[0])
	require.NoError(t, err)
	assert.Equal(t, "/shrug ", buf.String())
	assert.Equal(t, 7, cursor)

	buf = text.NewBuffer("good :tada")
	q, ok, err = a.Query(buf, buf.Len())
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "emoji", q.Provider.GetId())
	cursor, err = a.Select(buf, buf.Len(), q.Suggestions[0])
	require.NoError(t, err)
	assert.Equal(t, "good 🎉", buf.String())
	assert.Equal(t, 6, cursor)
}
