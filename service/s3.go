package service

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Service stores book assets in an S3 bucket.
type S3Service struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

type S3Options struct {
	Bucket          string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Endpoint        string // optional, for S3-compatible providers
	PublicURL       string // optional prefix for returned URLs
}

func NewS3Service(ctx context.Context, o S3Options) (*S3Service, error) {
	if o.Bucket == "" {
		return nil, fmt.Errorf("AWS_S3_BUCKET is required")
	}
	opts := []func(*config.LoadOptions) error{config.WithRegion(o.Region)}
	if o.AccessKeyID != "" && o.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
			so.UsePathStyle = true
		}
	})

	publicURL := o.PublicURL
	if publicURL == "" {
		if o.Endpoint != "" {
			publicURL = publicObjectURL(o.Endpoint, o.Bucket)
		} else {
			publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", o.Bucket, o.Region)
		}
	}
	return &S3Service{client: client, bucket: o.Bucket, publicURL: publicURL}, nil
}

// Upload stores the file at localPath under "<category>/<name>.<format>".
func (s *S3Service) Upload(ctx context.Context, localPath string, opts UploadOptions) (StoredObject, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return StoredObject{}, fmt.Errorf("open staged file: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return StoredObject{}, fmt.Errorf("stat staged file: %w", err)
	}

	key := objectKey(localPath, opts)
	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          f,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String(objectContentType(opts)),
	}
	if opts.Raw {
		input.ContentDisposition = aws.String("attachment")
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return StoredObject{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return StoredObject{URL: publicObjectURL(s.publicURL, key), ID: key}, nil
}

// Delete removes the object from S3. Raw and image objects share one key space.
func (s *S3Service) Delete(ctx context.Context, id string, _ DeleteOptions) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(id),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", id, err)
	}
	return nil
}
