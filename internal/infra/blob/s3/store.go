// Package s3 implements an archive store on an S3 / MinIO compatible bucket.
package s3

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	aws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"

	"hotlabcore/internal/blob"
)

// Store implements blob.Store against a single bucket. Keys map to object
// keys directly.
type Store struct {
	client *awss3.Client
	bucket string
}

// Config holds explicit construction parameters, mostly for tests; a
// production process is configured through the environment.
type Config struct {
	Region    string
	Bucket    string
	Endpoint  string // optional, enables MinIO-style endpoints
	PathStyle bool
}

// New creates an S3 archive store from Config.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := awss3.NewFromConfig(awsCfg, func(o *awss3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

// OpenFromEnv constructs an S3 store from process environment:
//
//	HOTLAB_ARCHIVE_S3_BUCKET     (required)
//	HOTLAB_ARCHIVE_S3_REGION     (default us-east-1)
//	HOTLAB_ARCHIVE_S3_ENDPOINT   (optional, MinIO)
//	HOTLAB_ARCHIVE_S3_PATH_STYLE true|false (default false)
//
// plus the standard AWS credential variables.
func OpenFromEnv(ctx context.Context) (*Store, error) {
	bucket := os.Getenv("HOTLAB_ARCHIVE_S3_BUCKET")
	if bucket == "" {
		return nil, fmt.Errorf("HOTLAB_ARCHIVE_S3_BUCKET required for s3 driver")
	}
	return New(ctx, Config{
		Bucket:    bucket,
		Region:    os.Getenv("HOTLAB_ARCHIVE_S3_REGION"),
		Endpoint:  os.Getenv("HOTLAB_ARCHIVE_S3_ENDPOINT"),
		PathStyle: strings.EqualFold(os.Getenv("HOTLAB_ARCHIVE_S3_PATH_STYLE"), "true"),
	})
}

// Driver returns the driver identifier.
func (s *Store) Driver() blob.Driver { return blob.DriverS3 }

// Put writes or overwrites the object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, contentType string) (blob.Info, error) {
	input := &awss3.PutObjectInput{Bucket: &s.bucket, Key: &key, Body: r}
	if contentType != "" {
		input.ContentType = &contentType
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return blob.Info{}, err
	}
	head, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		return blob.Info{}, err
	}
	return s.infoFor(key, head.ContentLength, head.ContentType, head.LastModified), nil
}

// Get fetches the object.
func (s *Store) Get(ctx context.Context, key string) (blob.Info, io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &awss3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if strings.Contains(err.Error(), "NoSuchKey") || strings.Contains(err.Error(), "NotFound") {
			return blob.Info{}, nil, blob.ErrNotFound
		}
		return blob.Info{}, nil, err
	}
	return s.infoFor(key, out.ContentLength, out.ContentType, out.LastModified), out.Body, nil
}

// List enumerates objects under prefix, sorted by key.
func (s *Store) List(ctx context.Context, prefix string) ([]blob.Info, error) {
	var out []blob.Info
	paginator := awss3.NewListObjectsV2Paginator(s.client, &awss3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &prefix,
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, obj := range page.Contents {
			info := blob.Info{}
			if obj.Key != nil {
				info.Key = *obj.Key
			}
			if obj.Size != nil {
				info.Size = *obj.Size
			}
			if obj.LastModified != nil {
				info.LastModified = obj.LastModified.UTC()
			}
			out = append(out, info)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Delete removes the object. S3 deletes are idempotent, so existence is
// assumed when the call succeeds.
func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	if _, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{Bucket: &s.bucket, Key: &key}); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) infoFor(key string, size *int64, contentType *string, lastModified *time.Time) blob.Info {
	info := blob.Info{Key: key}
	if size != nil {
		info.Size = *size
	}
	if contentType != nil {
		info.ContentType = *contentType
	}
	if lastModified != nil {
		info.LastModified = lastModified.UTC()
	}
	return info
}
