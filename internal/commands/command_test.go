package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	t.Parallel()

	r := NewCommandRegistry()
	tests := []struct {
		name  string
		input string
		want  CommandName
		args  string
		ok    bool
	}{
		{name: "emote", input: "/me waves", want: EmoteCommand, args: "waves", ok: true},
		{name: "no args", input: "/shrug", want: ShrugCommand, ok: true},
		{name: "args trimmed", input: "/ban  @spam:example.org  ", want: BanCommand, args: "@spam:example.org", ok: true},
		{name: "unknown", input: "/usr/bin", ok: false},
		{name: "escaped slash", input: "//me", ok: false},
		{name: "not a command", input: "me too", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, args, ok := r.Parse(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, c.Name)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestSorted(t *testing.T) {
	t.Parallel()

	sorted := NewCommandRegistry().Sorted()
	assert.Len(t, sorted, 18)
	for i := 1; i < len(sorted); i++ {
		assert.Less(t, string(sorted[i-1].Name), string(sorted[i].Name))
	}
	assert.Equal(t, "/clear_scalar_token", sorted[1].Trigger())
}
