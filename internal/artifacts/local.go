package artifacts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/google/renameio/v2"
)

// metaDir holds sidecar metadata, mirroring the key layout. Keys may not
// start with it, so no artifact can land on a sidecar path.
const metaDir = ".meta"

// Local keeps artifacts as files under a root directory. Content and its
// sidecar metadata are each replaced atomically.
type Local struct {
	root string
}

// NewLocal creates the root directory if needed
func NewLocal(root string) (*Local, error) {
	if root == "" {
		return nil, fmt.Errorf("artifacts root is required")
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifacts root: %w", err)
	}
	return &Local{root: root}, nil
}

// Root returns the directory artifacts are stored in
func (l *Local) Root() string {
	return l.root
}

func (l *Local) path(key string) (string, error) {
	if !ValidKey(key) || key == metaDir || strings.HasPrefix(key, metaDir+"/") {
		return "", fmt.Errorf("artifact key %q: %w", key, types.ErrInvalid)
	}
	return filepath.Join(l.root, filepath.FromSlash(key)), nil
}

func (l *Local) metaPath(key string) string {
	return filepath.Join(l.root, metaDir, filepath.FromSlash(key)+".json")
}

func (l *Local) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Info, error) {
	path, err := l.path(key)
	if err != nil {
		return Info{}, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Info{}, fmt.Errorf("failed to create artifact dir: %w", err)
	}

	pending, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return Info{}, fmt.Errorf("create pending artifact %s: %w", key, err)
	}
	defer pending.Cleanup()

	hr := newHashingReader(r)
	if _, err := io.Copy(pending, hr); err != nil {
		return Info{}, fmt.Errorf("write artifact %s: %w", key, err)
	}
	if size >= 0 && hr.n != size {
		return Info{}, fmt.Errorf("artifact %s: expected %d bytes, got %d: %w", key, size, hr.n, types.ErrInvalid)
	}
	if err := ctx.Err(); err != nil {
		return Info{}, err
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return Info{}, fmt.Errorf("atomically replace artifact %s: %w", key, err)
	}

	info := Info{Key: key, Size: hr.n, ContentType: contentTypeOrDefault(contentType), Checksum: hr.Sum()}
	meta, err := json.Marshal(info)
	if err != nil {
		return Info{}, fmt.Errorf("marshal artifact metadata: %w", err)
	}
	metaPath := l.metaPath(key)
	if err := os.MkdirAll(filepath.Dir(metaPath), 0o755); err != nil {
		return Info{}, fmt.Errorf("failed to create artifact metadata dir: %w", err)
	}
	if err := renameio.WriteFile(metaPath, meta, 0o644); err != nil {
		return Info{}, fmt.Errorf("write artifact metadata %s: %w", key, err)
	}
	return info, nil
}

func (l *Local) Get(ctx context.Context, key string) (io.ReadCloser, Info, error) {
	path, err := l.path(key)
	if err != nil {
		return nil, Info{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Info{}, fmt.Errorf("artifact %s: %w", key, types.ErrNotFound)
		}
		return nil, Info{}, fmt.Errorf("open artifact %s: %w", key, err)
	}

	info := Info{Key: key, ContentType: DefaultContentType}
	if meta, err := os.ReadFile(l.metaPath(key)); err == nil {
		_ = json.Unmarshal(meta, &info)
	}
	if st, err := f.Stat(); err == nil {
		info.Size = st.Size()
	}
	return f, info, nil
}

func (l *Local) Delete(ctx context.Context, key string) error {
	path, err := l.path(key)
	if err != nil {
		return err
	}
	for _, p := range []string{path, l.metaPath(key)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("delete artifact %s: %w", key, err)
		}
	}
	return nil
}
