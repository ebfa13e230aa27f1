package drafts

import (
	"context"
	"testing"

	"github.com/riotx/riotx/internal/autocomplete"
	"github.com/riotx/riotx/internal/text"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob/memblob"
)

func TestSaveLoadKeepsPills(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { store.Close() })

	buf := text.NewBuffer("hi @ali")
	require.NoError(t, autocomplete.NewInserter().InsertCompletion(buf, '@', autocomplete.Member("@alice:ex", "Alice")))
	buf.Append("see #ma")
	require.NoError(t, autocomplete.NewInserter().InsertCompletion(buf, '#', autocomplete.Room("!r:ex", "#matrix:ex", "Matrix")))
	require.NoError(t, store.Save(ctx, "!room:ex", buf))

	got, ok, err := store.Load(ctx, "!room:ex")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, buf.String(), got.String())
	assert.Equal(t, "hi [Alice] see [#matrix:ex] ", got.Debug())

	spans := got.Spans()
	require.Len(t, spans, 2)
	item, ok := spans[1].Payload.(autocomplete.Item)
	require.True(t, ok)
	assert.Equal(t, autocomplete.KindRoom, item.Kind)
	assert.Equal(t, "!r:ex", item.ID)

	rooms, err := store.Rooms(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"!room:ex"}, rooms)
}

func TestBlankDraftIsDeleted(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewStore(memblob.OpenBucket(nil))
	t.Cleanup(func() { store.Close() })

	require.NoError(t, store.Save(ctx, "!room:ex", text.NewBuffer("draft")))
	require.NoError(t, store.Save(ctx, "!room:ex", text.NewBuffer("  ")))

	got, ok, err := store.Load(ctx, "!room:ex")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, got.Len())

	assert.NoError(t, store.Delete(ctx, "!missing:ex"))
}

func TestOpenOnDisk(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, "!room:ex", text.NewBuffer("persisted")))
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	got, ok, err := store.Load(ctx, "!room:ex")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", got.String())
}
