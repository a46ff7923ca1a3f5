package writing

import (
	"context"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioConfig configures the bucket-backed writer.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	UseSSL    bool
	Bucket    string
}

// NewMinioClient builds a MinIO client from config.
func NewMinioClient(cfg MinioConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return client, nil
}

// MinioWriter uploads one text result as an object. PutObject is already
// all-or-nothing, so no staging step is needed.
type MinioWriter struct {
	client *minio.Client
	bucket string
	object string
}

func NewMinioWriter(client *minio.Client, bucket, object string) *MinioWriter {
	return &MinioWriter{client: client, bucket: bucket, object: object}
}

func (w *MinioWriter) Write(ctx context.Context, content string) error {
	reader := strings.NewReader(content)
	_, err := w.client.PutObject(ctx, w.bucket, w.object, reader, int64(reader.Len()), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return fmt.Errorf("put object %s/%s: %w", w.bucket, w.object, err)
	}
	return nil
}
