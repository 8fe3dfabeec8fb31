package artifacts

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
)

const checksumMeta = "Sha256"

// S3 keeps artifacts in an S3-compatible bucket.
type S3 struct {
	client *minio.Client
	bucket string
	logger zerolog.Logger
}

// NewS3 connects to the endpoint and creates the bucket when it is missing
func NewS3(ctx context.Context, cfg types.ArtifactsConfig, logger zerolog.Logger) (*S3, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", cfg.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("failed to create bucket %s: %w", cfg.Bucket, err)
		}
		logger.Info().Str("bucket", cfg.Bucket).Msg("created artifacts bucket")
	}

	return &S3{client: client, bucket: cfg.Bucket, logger: logger}, nil
}

func (s *S3) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (Info, error) {
	if !ValidKey(key) {
		return Info{}, fmt.Errorf("artifact key %q: %w", key, types.ErrInvalid)
	}

	hr := newHashingReader(r)
	ct := contentTypeOrDefault(contentType)
	up, err := s.client.PutObject(ctx, s.bucket, key, hr, size, minio.PutObjectOptions{ContentType: ct})
	if err != nil {
		return Info{}, fmt.Errorf("upload artifact %s: %w", key, err)
	}
	info := Info{Key: key, Size: up.Size, ContentType: ct, Checksum: hr.Sum()}

	// The checksum is only known once the body has streamed, so it is attached
	// with a server-side copy onto the same key.
	src := minio.CopySrcOptions{Bucket: s.bucket, Object: key}
	dst := minio.CopyDestOptions{
		Bucket:          s.bucket,
		Object:          key,
		ReplaceMetadata: true,
		UserMetadata:    map[string]string{checksumMeta: info.Checksum, "Content-Type": ct},
	}
	if _, err := s.client.CopyObject(ctx, dst, src); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to record artifact checksum")
	}
	return info, nil
}

func (s *S3) Get(ctx context.Context, key string) (io.ReadCloser, Info, error) {
	if !ValidKey(key) {
		return nil, Info{}, fmt.Errorf("artifact key %q: %w", key, types.ErrInvalid)
	}

	obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, Info{}, s.mapErr(key, err)
	}
	st, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, Info{}, s.mapErr(key, err)
	}
	return obj, Info{
		Key:         key,
		Size:        st.Size,
		ContentType: contentTypeOrDefault(st.ContentType),
		Checksum:    st.UserMetadata[checksumMeta],
	}, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("artifact key %q: %w", key, types.ErrInvalid)
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		if isNotFound(err) {
			return nil
		}
		return fmt.Errorf("delete artifact %s: %w", key, err)
	}
	return nil
}

func (s *S3) mapErr(key string, err error) error {
	if isNotFound(err) {
		return fmt.Errorf("artifact %s: %w", key, types.ErrNotFound)
	}
	return fmt.Errorf("read artifact %s: %w", key, err)
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound
}
