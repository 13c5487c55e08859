package service

import (
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioService stores book assets in a MinIO (or other S3-compatible) bucket.
type MinioService struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string
	Region    string // defaults to us-east-1, which skips the bucket location lookup
}

// NewMinioService connects to MinIO and ensures the bucket exists.
func NewMinioService(ctx context.Context, o MinioOptions) (*MinioService, error) {
	region := o.Region
	if region == "" {
		region = "us-east-1"
	}
	client, err := minio.New(o.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(o.AccessKey, o.SecretKey, ""),
		Secure: o.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, o.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, o.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	publicURL := o.PublicURL
	if publicURL == "" {
		scheme := "http"
		if o.UseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, o.Endpoint, o.Bucket)
	}
	return &MinioService{client: client, bucket: o.Bucket, publicURL: publicURL}, nil
}

func (m *MinioService) Upload(ctx context.Context, localPath string, opts UploadOptions) (StoredObject, error) {
	key := objectKey(localPath, opts)
	putOpts := minio.PutObjectOptions{ContentType: objectContentType(opts)}
	if opts.Raw {
		putOpts.ContentDisposition = "attachment"
	}
	if _, err := m.client.FPutObject(ctx, m.bucket, key, localPath, putOpts); err != nil {
		return StoredObject{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return StoredObject{URL: publicObjectURL(m.publicURL, key), ID: key}, nil
}

func (m *MinioService) Delete(ctx context.Context, id string, _ DeleteOptions) error {
	if err := m.client.RemoveObject(ctx, m.bucket, id, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}
