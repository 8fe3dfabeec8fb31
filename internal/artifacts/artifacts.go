// Package artifacts stores the binary content behind site items: page
// screenshots, images and slide decks.
package artifacts

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"strings"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/Project-Sylos/Sitemap/internal/utils"
	"github.com/rs/zerolog"
)

// DefaultContentType is recorded when an upload names none
const DefaultContentType = "application/octet-stream"

// Info describes a stored blob
type Info struct {
	Key         string `json:"key"`
	Size        int64  `json:"size"`
	ContentType string `json:"content_type"`
	Checksum    string `json:"checksum,omitempty"`
}

// Blobs is a flat key/value store for artifact content.
type Blobs interface {
	// Put stores r under key, replacing any previous content. size may be -1
	// when unknown. The returned Info carries the SHA-256 of what was written.
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Info, error)
	// Get opens the content under key. Missing keys return types.ErrNotFound.
	Get(ctx context.Context, key string) (io.ReadCloser, Info, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// New builds the backend selected by cfg
func New(ctx context.Context, cfg types.ArtifactsConfig, logger zerolog.Logger) (Blobs, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocal(cfg.Root)
	case "s3":
		return NewS3(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported artifacts backend %q", cfg.Backend)
	}
}

// Key returns the object key of an item's artifact
func Key(projectID, itemID, name string) string {
	return utils.ObjectKey("projects", projectID, "items", itemID, utils.SafeName(name))
}

// ValidKey reports whether key is a clean relative slash path
func ValidKey(key string) bool {
	return key != "" && fs.ValidPath(key) && key != "." && !strings.Contains(key, "\\")
}

// ComputeChecksum computes a SHA256 checksum for the given data
func ComputeChecksum(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// hashingReader hashes and counts everything read through it
type hashingReader struct {
	r io.Reader
	h hash.Hash
	n int64
}

func newHashingReader(r io.Reader) *hashingReader {
	return &hashingReader{r: r, h: sha256.New()}
}

func (hr *hashingReader) Read(p []byte) (int, error) {
	n, err := hr.r.Read(p)
	if n > 0 {
		hr.h.Write(p[:n])
		hr.n += int64(n)
	}
	return n, err
}

func (hr *hashingReader) Sum() string {
	return hex.EncodeToString(hr.h.Sum(nil))
}

func contentTypeOrDefault(ct string) string {
	if ct == "" {
		return DefaultContentType
	}
	return ct
}
