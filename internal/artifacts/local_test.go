package artifacts

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPutGetDelete(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	key := Key("p1", "i1", "home.png")
	data := []byte("\x89PNG fake image")

	info, err := l.Put(ctx, key, bytes.NewReader(data), int64(len(data)), "image/png")
	require.NoError(t, err)
	assert.Equal(t, int64(len(data)), info.Size)
	assert.Equal(t, ComputeChecksum(data), info.Checksum)

	rc, got, err := l.Get(ctx, key)
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, rc.Close())
	require.NoError(t, err)
	assert.Equal(t, data, body)
	assert.Equal(t, info, got)

	require.NoError(t, l.Delete(ctx, key))
	_, _, err = l.Get(ctx, key)
	assert.True(t, errors.Is(err, types.ErrNotFound), "expected ErrNotFound, got %v", err)

	// Deleting again is fine
	assert.NoError(t, l.Delete(ctx, key))
}

func TestLocalReplace(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	_, err = l.Put(ctx, "a/b", strings.NewReader("one"), -1, "")
	require.NoError(t, err)
	info, err := l.Put(ctx, "a/b", strings.NewReader("two!"), -1, "text/plain")
	require.NoError(t, err)

	rc, got, err := l.Get(ctx, "a/b")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "two!", string(body))
	assert.Equal(t, "text/plain", got.ContentType)
	assert.Equal(t, int64(4), info.Size)
}

func TestLocalSizeMismatchLeavesNothing(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)

	_, err = l.Put(ctx, "x", strings.NewReader("short"), 100, "")
	require.ErrorIs(t, err, types.ErrInvalid)

	_, err = os.Stat(filepath.Join(root, "x"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalMetadataDoesNotCollide(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	l, err := NewLocal(root)
	require.NoError(t, err)

	_, err = l.Put(ctx, "a/x.meta.json", strings.NewReader("{}"), -1, "application/json")
	require.NoError(t, err)
	_, err = l.Put(ctx, "a/x", strings.NewReader("<svg/>"), -1, "image/svg+xml")
	require.NoError(t, err)

	// Dropping the longer key must leave the shorter one's metadata alone
	require.NoError(t, l.Delete(ctx, "a/x.meta.json"))

	rc, info, err := l.Get(ctx, "a/x")
	require.NoError(t, err)
	defer rc.Close()
	body, _ := io.ReadAll(rc)
	assert.Equal(t, "<svg/>", string(body))
	assert.Equal(t, "image/svg+xml", info.ContentType)
	assert.Equal(t, ComputeChecksum([]byte("<svg/>")), info.Checksum)

	_, err = os.Stat(filepath.Join(root, "a", "x.meta.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalDefaultContentType(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	info, err := l.Put(ctx, "k", strings.NewReader("data"), 4, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultContentType, info.ContentType)
}

func TestLocalRejectsBadKeys(t *testing.T) {
	ctx := context.Background()
	l, err := NewLocal(t.TempDir())
	require.NoError(t, err)

	for _, key := range []string{"", ".", "../escape", "/abs", "a//b", `a\b`, ".meta", ".meta/a/b.json"} {
		_, err := l.Put(ctx, key, strings.NewReader("x"), 1, "")
		assert.ErrorIs(t, err, types.ErrInvalid, "key %q", key)
	}
}

func TestKey(t *testing.T) {
	assert.Equal(t, "projects/p1/items/i1/deck.pptx", Key("p1", "i1", "deck.pptx"))
	assert.Equal(t, "projects/p1/items/i1/a_b", Key("p1", "i1", "a/b"))
}

func TestNew(t *testing.T) {
	b, err := New(context.Background(), types.ArtifactsConfig{Backend: "local", Root: t.TempDir()}, zerolog.Nop())
	require.NoError(t, err)
	assert.IsType(t, &Local{}, b)

	_, err = New(context.Background(), types.ArtifactsConfig{Backend: "ftp"}, zerolog.Nop())
	assert.Error(t, err)
}

func TestComputeChecksum(t *testing.T) {
	tests := []struct {
		data []byte
		want string
	}{
		{[]byte{}, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"},
		{[]byte("hello world"), "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"},
	}
	for _, tt := range tests {
		if got := ComputeChecksum(tt.data); got != tt.want {
			t.Errorf("ComputeChecksum(%q) = %s, want %s", tt.data, got, tt.want)
		}
	}
}
