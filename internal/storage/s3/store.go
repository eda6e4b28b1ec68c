package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/askdb/askdb/internal/config"
	"github.com/askdb/askdb/internal/storage"
)

type Config struct {
	Endpoint         string
	Region           string
	Bucket           string
	AccessKeyID      string
	SecretAccessKey  string
	UseSSL           bool
	AutoCreateBucket bool
}

func ConfigFrom(cfg config.ObjectStoreConfig) Config {
	return Config{
		Endpoint:         strings.TrimSpace(cfg.Endpoint),
		Region:           strings.TrimSpace(cfg.Region),
		Bucket:           strings.TrimSpace(cfg.Bucket),
		AccessKeyID:      cfg.AccessKeyID,
		SecretAccessKey:  cfg.SecretAccessKey,
		UseSSL:           cfg.UseSSL,
		AutoCreateBucket: cfg.AutoCreateBucket,
	}
}

// objectAttrs is what the bucket backend reports about a stored object.
type objectAttrs struct {
	Size         int64
	ETag         string
	LastModified time.Time
}

type bucket interface {
	Upload(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (objectAttrs, error)
	Download(ctx context.Context, key string) (io.ReadCloser, error)
	Head(ctx context.Context, key string) (objectAttrs, error)
	Ensure(ctx context.Context, region string) error
}

// Store writes exports to one S3-compatible bucket.
type Store struct {
	bucket bucket
	name   string
}

func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}
	endpoint, secure, err := parseEndpoint(cfg.Endpoint, cfg.UseSSL)
	if err != nil {
		return nil, err
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: secure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("create s3 client: %w", err)
	}
	store := newStore(cfg.Bucket, &minioBucket{client: client, name: cfg.Bucket})
	if cfg.AutoCreateBucket {
		if err := store.bucket.Ensure(ctx, cfg.Region); err != nil {
			return nil, fmt.Errorf("ensure bucket %q: %w", cfg.Bucket, err)
		}
	}
	return store, nil
}

func newStore(name string, b bucket) *Store {
	return &Store{bucket: b, name: name}
}

func (s *Store) Location() string {
	return "s3://" + s.name
}

func (s *Store) uri(key string) string {
	return s.Location() + "/" + key
}

func (s *Store) Put(ctx context.Context, key string, payload []byte, opts storage.PutOptions) (storage.Object, error) {
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return storage.Object{}, err
	}
	attrs, err := s.bucket.Upload(ctx, cleaned, payload, opts.ContentType, opts.Metadata)
	if err != nil {
		return storage.Object{}, fmt.Errorf("upload %s: %w", s.uri(cleaned), err)
	}
	if attrs.Size == 0 {
		attrs.Size = int64(len(payload))
	}
	return s.object(cleaned, attrs), nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return nil, err
	}
	reader, err := s.bucket.Download(ctx, cleaned)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", s.uri(cleaned), err)
	}
	return reader, nil
}

func (s *Store) Stat(ctx context.Context, key string) (storage.Object, error) {
	cleaned, err := storage.CleanKey(key)
	if err != nil {
		return storage.Object{}, err
	}
	attrs, err := s.bucket.Head(ctx, cleaned)
	if errors.Is(err, storage.ErrObjectNotFound) {
		return storage.Object{}, err
	}
	if err != nil {
		return storage.Object{}, fmt.Errorf("head %s: %w", s.uri(cleaned), err)
	}
	return s.object(cleaned, attrs), nil
}

func (s *Store) object(key string, attrs objectAttrs) storage.Object {
	return storage.Object{
		Key:       key,
		Location:  s.uri(key),
		Size:      attrs.Size,
		ETag:      attrs.ETag,
		WrittenAt: attrs.LastModified,
	}
}

// parseEndpoint accepts host[:port] or an http(s) URL. An https scheme forces TLS.
func parseEndpoint(raw string, useSSL bool) (string, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", false, fmt.Errorf("s3 endpoint is required")
	}
	if !strings.Contains(raw, "://") {
		return raw, useSSL, nil
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", false, fmt.Errorf("parse s3 endpoint: %w", err)
	}
	if parsed.Host == "" {
		return "", false, fmt.Errorf("s3 endpoint %q has no host", raw)
	}
	switch parsed.Scheme {
	case "https":
		return parsed.Host, true, nil
	case "http":
		return parsed.Host, useSSL, nil
	}
	return "", false, fmt.Errorf("unsupported s3 endpoint scheme %q", parsed.Scheme)
}

type minioBucket struct {
	client *minio.Client
	name   string
}

func (m *minioBucket) Upload(ctx context.Context, key string, payload []byte, contentType string, metadata map[string]string) (objectAttrs, error) {
	info, err := m.client.PutObject(ctx, m.name, key, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType:  contentType,
		UserMetadata: metadata,
	})
	if err != nil {
		return objectAttrs{}, notFound(err)
	}
	return objectAttrs{Size: info.Size, ETag: info.ETag, LastModified: info.LastModified}, nil
}

func (m *minioBucket) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	obj, err := m.client.GetObject(ctx, m.name, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, notFound(err)
	}
	// GetObject is lazy; Stat surfaces a missing key before the caller reads.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, notFound(err)
	}
	return obj, nil
}

func (m *minioBucket) Head(ctx context.Context, key string) (objectAttrs, error) {
	info, err := m.client.StatObject(ctx, m.name, key, minio.StatObjectOptions{})
	if err != nil {
		return objectAttrs{}, notFound(err)
	}
	return objectAttrs{Size: info.Size, ETag: info.ETag, LastModified: info.LastModified}, nil
}

func (m *minioBucket) Ensure(ctx context.Context, region string) error {
	exists, err := m.client.BucketExists(ctx, m.name)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	err = m.client.MakeBucket(ctx, m.name, minio.MakeBucketOptions{Region: region})
	if code := minio.ToErrorResponse(err).Code; code == "BucketAlreadyOwnedByYou" || code == "BucketAlreadyExists" {
		return nil
	}
	return err
}

func notFound(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket", "NotFound":
		return storage.ErrObjectNotFound
	}
	return err
}
