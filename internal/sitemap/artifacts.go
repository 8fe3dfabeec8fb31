package sitemap

import (
	"context"
	"fmt"
	"io"

	"github.com/Project-Sylos/Sitemap/internal/artifacts"
	"github.com/Project-Sylos/Sitemap/internal/db"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/metrics"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"go.opentelemetry.io/otel/attribute"
)

// UploadArtifact stores r as the content of a page, image or deck item and
// records its key, type, size and checksum on the item. A previous artifact
// under another name is removed.
func (s *Service) UploadArtifact(ctx context.Context, itemID, name, contentType string, r io.Reader, size int64) (*types.Item, error) {
	ctx, span := startSpan(ctx, "UploadArtifact", attribute.String(xlog.FieldItemID, itemID))
	defer span.End()

	it, err := s.db.GetItem(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if !types.AcceptsArtifact(it.Type) {
		return nil, fmt.Errorf("item %s is a %s and cannot carry an artifact: %w", itemID, it.Type, types.ErrInvalid)
	}
	if name == "" {
		name = it.Name
	}

	key := artifacts.Key(it.ProjectID, it.ID, name)
	info, err := s.blobs.Put(ctx, key, r, size, contentType)
	if err != nil {
		return nil, err
	}

	previous := it.ArtifactKey
	err = s.db.WithTx(ctx, func(tx *db.DB) error {
		current, err := tx.GetItem(ctx, itemID)
		if err != nil {
			return err
		}
		current.ArtifactKey = info.Key
		current.ArtifactType = info.ContentType
		current.ArtifactSize = info.Size
		current.ArtifactChecksum = info.Checksum
		current.UpdatedAt = s.timestamp()
		if err := tx.UpdateItem(ctx, current); err != nil {
			return err
		}
		it = current
		return nil
	})
	if err != nil {
		// The item vanished while uploading
		s.removeBlobs(ctx, []string{key})
		return nil, err
	}

	if previous != "" && previous != key {
		s.removeBlobs(ctx, []string{previous})
	}
	s.invalidate(ctx, it.ProjectID)
	metrics.RecordArtifactUpload(info.Size)
	s.loggerFor(ctx).Info().
		Str(xlog.FieldItemID, itemID).
		Str("key", key).
		Int64(xlog.FieldBytes, info.Size).
		Str("checksum", info.Checksum).
		Msg("artifact uploaded")
	return it, nil
}

// OpenArtifact opens the content of an item. Items without an artifact
// report types.ErrNotFound.
func (s *Service) OpenArtifact(ctx context.Context, itemID string) (io.ReadCloser, *types.Item, error) {
	it, err := s.db.GetItem(ctx, itemID)
	if err != nil {
		return nil, nil, err
	}
	if !it.HasArtifact() {
		return nil, nil, fmt.Errorf("item %s has no artifact: %w", itemID, types.ErrNotFound)
	}
	rc, _, err := s.blobs.Get(ctx, it.ArtifactKey)
	if err != nil {
		return nil, nil, err
	}
	return rc, it, nil
}
