package coldwriter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"
)

// uploadTimeout bounds each object-store PUT, per spec.md §5.
const uploadTimeout = 5 * time.Second

// Uploader pushes local archive files to an S3-compatible object store
// and bootstraps the target bucket on startup (spec.md §4.7).
type Uploader struct {
	client *minio.Client
	bucket string
	log    *zap.Logger
}

// NewUploader constructs an Uploader. pathStyle selects path-style
// addressing, a configuration option for backends that do not support
// virtual-hosted-style bucket URLs.
func NewUploader(endpoint, accessKey, secretKey, bucket string, useSSL, pathStyle bool, log *zap.Logger) (*Uploader, error) {
	lookup := minio.BucketLookupAuto
	if pathStyle {
		lookup = minio.BucketLookupPath
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:        credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure:       useSSL,
		BucketLookup: lookup,
	})
	if err != nil {
		return nil, fmt.Errorf("construct object store client: %w", err)
	}

	return &Uploader{client: client, bucket: bucket, log: log}, nil
}

// EnsureBucket probes for the bucket and creates it if absent.
func (u *Uploader) EnsureBucket(ctx context.Context) error {
	exists, err := u.client.BucketExists(ctx, u.bucket)
	if err != nil {
		return fmt.Errorf("probe bucket existence: %w", err)
	}
	if exists {
		return nil
	}

	if err := u.client.MakeBucket(ctx, u.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	u.log.Info("object store bucket created", zap.String("bucket", u.bucket))
	return nil
}

// Upload puts localPath at {partition}/{filename} under the bucket. On
// success the local file is deleted; on failure it is left in place
// (spec.md §4.7). Nothing in this package uploads a retained file again.
func (u *Uploader) Upload(ctx context.Context, localPath, objectKey string) error {
	putCtx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	_, err := u.client.FPutObject(putCtx, u.bucket, objectKey, localPath, minio.PutObjectOptions{
		ContentType: "application/octet-stream",
	})
	if err != nil {
		return fmt.Errorf("upload %s: %w", objectKey, err)
	}

	if err := os.Remove(localPath); err != nil {
		u.log.Warn("archive uploaded but local file could not be removed",
			zap.String("path", localPath), zap.Error(err))
	}
	return nil
}
