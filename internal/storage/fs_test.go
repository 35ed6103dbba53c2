package storage

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFSStore() *FSStore {
	return NewFSStore(afero.NewMemMapFs(), "/data")
}

func TestFSStorePutGetRoundTrip(t *testing.T) {
	s := newTestFSStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "mysite/pages/index.html", []byte("<p>hello</p>")))

	data, err := s.Get(ctx, "mysite/pages/index.html")
	require.NoError(t, err)
	assert.Equal(t, "<p>hello</p>", string(data))

	ok, err := s.Exists(ctx, "mysite/pages/index.html")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFSStorePutOverwrites(t *testing.T) {
	s := newTestFSStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a/b.html", []byte("first")))
	require.NoError(t, s.Put(ctx, "a/b.html", []byte("second")))

	data, err := s.Get(ctx, "a/b.html")
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestFSStoreGetMissing(t *testing.T) {
	s := newTestFSStore()

	_, err := s.Get(context.Background(), "nope/missing.html")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFSStoreList(t *testing.T) {
	s := newTestFSStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "site/pages/a.html", []byte("a")))
	require.NoError(t, s.Put(ctx, "site/pages/b.html", []byte("b")))
	require.NoError(t, s.Put(ctx, "site/pages/b.meta.json", []byte("{}")))
	require.NoError(t, s.Put(ctx, "other/pages/c.html", []byte("c")))

	keys, err := s.List(ctx, "site/pages/")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"site/pages/a.html",
		"site/pages/b.html",
		"site/pages/b.meta.json",
	}, keys)
}

func TestFSStoreListEmptyPrefix(t *testing.T) {
	s := newTestFSStore()

	keys, err := s.List(context.Background(), "ghost/pages/")
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestFSStoreDelete(t *testing.T) {
	s := newTestFSStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "site/pages/a.html", []byte("a")))
	require.NoError(t, s.Delete(ctx, "site/pages/a.html"))

	ok, err := s.Exists(ctx, "site/pages/a.html")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.ErrorIs(t, s.Delete(ctx, "site/pages/a.html"), ErrNotFound)
}

func TestFSStoreLastModified(t *testing.T) {
	s := newTestFSStore()
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "site/pages/a.html", []byte("a")))

	ts, err := s.LastModified(ctx, "site/pages/a.html")
	require.NoError(t, err)
	assert.False(t, ts.IsZero())

	_, err = s.LastModified(ctx, "site/pages/missing.html")
	assert.ErrorIs(t, err, ErrNotFound)
}
