package storage

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/terraincognita07/ecgscan/internal/services"
)

type MinIOOptions struct {
	Endpoint   string
	AccessKey  string
	SecretKey  string
	Bucket     string
	UseSSL     bool
	PublicBase string
}

// MinIO stores ECG images in an S3 compatible bucket.
type MinIO struct {
	client     *minio.Client
	bucket     string
	publicBase string
	now        func() time.Time
}

// NewMinIO connects and creates the bucket when it is missing.
func NewMinIO(ctx context.Context, options MinIOOptions) (*MinIO, error) {
	client, err := minio.New(options.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(options.AccessKey, options.SecretKey, ""),
		Secure: options.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, options.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", options.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, options.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", options.Bucket, err)
		}
	}

	publicBase := strings.TrimRight(options.PublicBase, "/")
	if publicBase == "" {
		scheme := "http"
		if options.UseSSL {
			scheme = "https"
		}
		publicBase = scheme + "://" + options.Endpoint
	}

	return &MinIO{
		client:     client,
		bucket:     options.Bucket,
		publicBase: publicBase,
		now:        time.Now,
	}, nil
}

func (store *MinIO) Store(ctx context.Context, data []byte, contentType string) (services.StoredBlob, error) {
	key, err := newObjectKey(contentType, store.now())
	if err != nil {
		return services.StoredBlob{}, err
	}

	_, err = store.client.PutObject(ctx, store.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return services.StoredBlob{}, fmt.Errorf("put object %s: %w", key, err)
	}

	publicURL, err := objectURL(store.publicBase, store.bucket, key)
	if err != nil {
		return services.StoredBlob{}, err
	}
	return services.StoredBlob{Key: key, URL: publicURL}, nil
}

func (store *MinIO) Delete(ctx context.Context, key string) error {
	return store.client.RemoveObject(ctx, store.bucket, key, minio.RemoveObjectOptions{})
}

func objectURL(publicBase string, bucket string, key string) (string, error) {
	base, err := url.Parse(publicBase)
	if err != nil {
		return "", fmt.Errorf("parse public base %q: %w", publicBase, err)
	}
	base.Path = path.Join(base.Path, bucket, key)
	return base.String(), nil
}
