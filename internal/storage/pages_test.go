package storage

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestPageStore() *PageStore {
	return NewPageStore(NewFSStore(afero.NewMemMapFs(), "/data"), zap.NewNop())
}

func TestPagePathNormalization(t *testing.T) {
	assert.Equal(t, "mysite/pages/index.html", PagePath("mysite", "index"))
	assert.Equal(t, "mysite/pages/index.html", PagePath("mysite", "index.html"))
	assert.Equal(t, "mysite/pages/about-us.html", PagePath("mysite", "about-us"))
}

func TestStoreRetrieveRoundTrip(t *testing.T) {
	ps := newTestPageStore()
	ctx := context.Background()

	html := "<html><body><p>welcome</p></body></html>"
	meta := map[string]any{
		"prompt":     "make a welcome page",
		"session_id": "session-abc",
	}

	stored, err := ps.Store(ctx, "mysite", "welcome", html, meta)
	require.NoError(t, err)
	assert.Equal(t, "mysite/pages/welcome.html", stored.Path)
	assert.Equal(t, len(html), stored.Size)

	got, err := ps.Retrieve(ctx, stored.Path)
	require.NoError(t, err)
	assert.Equal(t, html, got.HTML)
	assert.Equal(t, len(html), got.Size)
	assert.Equal(t, "make a welcome page", got.Metadata["prompt"])
	assert.Equal(t, "session-abc", got.Metadata["session_id"])
	assert.False(t, got.LastModified.IsZero())
}

func TestStoreWithoutMetadataSkipsSidecar(t *testing.T) {
	ps := newTestPageStore()
	ctx := context.Background()

	stored, err := ps.Store(ctx, "mysite", "plain", "<p>x</p>", nil)
	require.NoError(t, err)

	ok, err := ps.objects.Exists(ctx, sidecarPath(stored.Path))
	require.NoError(t, err)
	assert.False(t, ok, "no metadata means no sidecar blob")

	got, err := ps.Retrieve(ctx, stored.Path)
	require.NoError(t, err)
	assert.Empty(t, got.Metadata)
}

func TestRetrieveMissingPage(t *testing.T) {
	ps := newTestPageStore()

	_, err := ps.Retrieve(context.Background(), "mysite/pages/ghost.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML file not found")
}

func TestRetrieveCorruptSidecar(t *testing.T) {
	ps := newTestPageStore()
	ctx := context.Background()

	require.NoError(t, ps.objects.Put(ctx, "mysite/pages/a.html", []byte("<p>a</p>")))
	require.NoError(t, ps.objects.Put(ctx, "mysite/pages/a.meta.json", []byte("{not json")))

	got, err := ps.Retrieve(ctx, "mysite/pages/a.html")
	require.NoError(t, err)
	assert.Empty(t, got.Metadata)
}

func TestListFiltersToHTML(t *testing.T) {
	ps := newTestPageStore()
	ctx := context.Background()

	_, err := ps.Store(ctx, "mysite", "a", "<p>a</p>", map[string]any{"k": "v"})
	require.NoError(t, err)
	_, err = ps.Store(ctx, "mysite", "b", "<p>b</p>", nil)
	require.NoError(t, err)
	_, err = ps.Store(ctx, "othersite", "c", "<p>c</p>", nil)
	require.NoError(t, err)

	entries, err := ps.List(ctx, "mysite")
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byName := map[string]PageEntry{}
	for _, e := range entries {
		byName[e.Filename] = e
	}

	a := byName["a.html"]
	assert.Equal(t, "mysite/pages/a.html", a.Path)
	assert.Equal(t, len("<p>a</p>"), a.Size)
	assert.Equal(t, "v", a.Metadata["k"])

	b := byName["b.html"]
	assert.Empty(t, b.Metadata)
}

func TestDeleteRemovesPageAndSidecar(t *testing.T) {
	ps := newTestPageStore()
	ctx := context.Background()

	stored, err := ps.Store(ctx, "mysite", "a", "<p>a</p>", map[string]any{"k": "v"})
	require.NoError(t, err)

	require.NoError(t, ps.Delete(ctx, stored.Path))

	ok, err := ps.objects.Exists(ctx, stored.Path)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = ps.objects.Exists(ctx, sidecarPath(stored.Path))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteMissingPage(t *testing.T) {
	ps := newTestPageStore()

	err := ps.Delete(context.Background(), "mysite/pages/ghost.html")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML file not found")
}
