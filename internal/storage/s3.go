package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// ErrNotFound is returned by Get when no object exists under the key.
var ErrNotFound = errors.New("object not found")

// Object is a stored blob plus the metadata written alongside it.
type Object struct {
	Bytes        []byte
	ContentType  string
	CacheControl string
	Metadata     map[string]string
}

// S3Store stores image blobs in an S3 bucket. A custom endpoint enables
// S3-compatible backends (MinIO, R2) for local runs.
type S3Store struct {
	client   *s3.Client
	uploader *manager.Uploader
	bucket   string
}

func NewS3Store(ctx context.Context, region, bucket, endpoint string) (*S3Store, error) {
	cfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return &S3Store{client: client, uploader: manager.NewUploader(client), bucket: bucket}, nil
}

// Put writes the object under the caller-supplied key, silently
// overwriting anything already there.
func (s *S3Store) Put(ctx context.Context, key string, data []byte, contentType, cacheControl string, meta map[string]string) error {
	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	}
	if cacheControl != "" {
		in.CacheControl = aws.String(cacheControl)
	}
	if len(meta) > 0 {
		in.Metadata = meta
	}
	_, err := s.uploader.Upload(ctx, in)
	return err
}

func (s *S3Store) Get(ctx context.Context, key string) (*Object, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, err
	}
	return &Object{
		Bytes:        data,
		ContentType:  aws.ToString(out.ContentType),
		CacheControl: aws.ToString(out.CacheControl),
		Metadata:     out.Metadata,
	}, nil
}

// Delete is idempotent; S3 does not error on missing keys.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	return err
}

// GetInline fetches the object and returns it as a data URI, for
// embedding uploaded icons and logos without another round trip.
func (s *S3Store) GetInline(ctx context.Context, key string) (string, error) {
	obj, err := s.Get(ctx, key)
	if err != nil {
		return "", err
	}
	ct := obj.ContentType
	if ct == "" {
		ct = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", ct, base64.StdEncoding.EncodeToString(obj.Bytes)), nil
}
