package autocomplete

import (
	"testing"

	"github.com/riotx/riotx/internal/commands"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemberProvider(t *testing.T) {
	t.Parallel()

	p := NewMemberCompletionProvider([]Item{
		Member("@zed:example.org", "Zed"),
		Member("@alice:example.org", "Alice"),
		Member("@bob:example.org", ""),
	})
	assert.Equal(t, "members", p.GetId())
	assert.Equal(t, "no matching members", p.GetEmptyMessage())

	all, err := p.GetChildEntries("")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "@bob:example.org", all[0].Display)
	assert.Equal(t, "Alice", all[1].Display)
	assert.Equal(t, "Zed", all[2].Display)

	byID, err := p.GetChildEntries("bob")
	require.NoError(t, err)
	require.Len(t, byID, 1)
	assert.Equal(t, "@bob:example.org", byID[0].Item.ID)
	assert.Equal(t, "members", byID[0].ProviderID)

	// display name and id both match but the member is listed once
	alice, err := p.GetChildEntries("ALI")
	require.NoError(t, err)
	require.Len(t, alice, 1)
	assert.Equal(t, "@alice:example.org", alice[0].Description)

	none, err := p.GetChildEntries("qqq")
	require.NoError(t, err)
	assert.Empty(t, none)

	p.SetItems(nil)
	all, err = p.GetChildEntries("")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRoomAndGroupProviders(t *testing.T) {
	t.Parallel()

	rooms := NewRoomCompletionProvider([]Item{
		Room("!hq:example.org", "#matrix:example.org", "Matrix HQ"),
		Room("!x:example.org", "", "Unaliased"),
	})
	got, err := rooms.GetChildEntries("hq")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "#matrix:example.org", got[0].Display)

	groups := NewGroupCompletionProvider([]Item{Group("+community:example.org", "Community")})
	got, err = groups.GetChildEntries("comm")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "+community:example.org", got[0].Display)
	assert.Equal(t, KindGroup, got[0].Item.Kind)
}

func TestEmojiProvider(t *testing.T) {
	t.Parallel()

	p := NewEmojiCompletionProvider(map[string]string{"matrix": "🟩"})

	got, err := p.GetChildEntries("smile")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "😄", got[0].Display)
	assert.Equal(t, ":smile:", got[0].Description)
	assert.Equal(t, "smiley", got[1].Item.ID)

	got, err = p.GetChildEntries("matri")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "🟩", got[0].Item.Value)

	got, err = p.GetChildEntries("")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCommandProvider(t *testing.T) {
	t.Parallel()

	registry := commands.NewCommandRegistry()
	p := NewCommandCompletionProvider(registry, false)

	all, err := p.GetChildEntries("")
	require.NoError(t, err)
	for _, s := range all {
		assert.NotEqual(t, "clear_scalar_token", s.Item.ID)
		assert.Equal(t, KindCommand, s.Item.Kind)
	}
	assert.Len(t, all, len(registry)-1)

	dev := NewCommandCompletionProvider(registry, true)
	all, err = dev.GetChildEntries("")
	require.NoError(t, err)
	assert.Len(t, all, len(registry))

	got, err := p.GetChildEntries("/to")
	require.NoError(t, err)
	require.NotEmpty(t, got)
	assert.Equal(t, "/topic", got[0].Item.Value)
	assert.Equal(t, "/topic <topic>", got[0].Display)
}

func TestItemNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "#matrix:example.org", Room("!hq:example.org", "#matrix:example.org", "HQ").LinkID())
	assert.Equal(t, "!x:example.org", Room("!x:example.org", "", "X").BestName())
	assert.Equal(t, "@a:b", Member("@a:b", "A").LinkID())
	assert.Equal(t, "member", KindMember.String())
	assert.True(t, KindGroup.IsPill())
	assert.False(t, KindEmoji.IsPill())
}
