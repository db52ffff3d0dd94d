package media

import (
	"context"
	"fmt"
	"io"
	"log"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinioConfig struct {
	Endpoint  string // host:port the server connects to
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL prefixes object URLs handed to clients, e.g.
	// http://cdn.example.com. Defaults to the endpoint.
	PublicURL string
}

type MinioStore struct {
	client *minio.Client
	bucket string
	base   string // <public>/<bucket>/
}

// NewMinioStore connects and creates the bucket if it does not exist.
func NewMinioStore(ctx context.Context, cfg MinioConfig) (*MinioStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	ok, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("bucket exists %s: %w", cfg.Bucket, err)
	}
	if !ok {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("make bucket %s: %w", cfg.Bucket, err)
		}
		log.Printf("minio bucket created bucket=%s", cfg.Bucket)
	}

	public := cfg.PublicURL
	if public == "" {
		scheme := "http://"
		if cfg.UseSSL {
			scheme = "https://"
		}
		public = scheme + cfg.Endpoint
	}
	return &MinioStore{client: client, bucket: cfg.Bucket, base: publicBase(public, cfg.Bucket)}, nil
}

func publicBase(public, bucket string) string {
	return strings.TrimSuffix(public, "/") + "/" + bucket + "/"
}

func objectKey(kind, filename string) string {
	return kind + "/" + uuid.NewString() + strings.ToLower(path.Ext(filename))
}

func (s *MinioStore) Put(ctx context.Context, kind, filename string, r io.Reader, size int64, contentType string) (Object, error) {
	key := objectKey(kind, filename)
	_, err := s.client.PutObject(ctx, s.bucket, key, r, size, minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return Object{}, fmt.Errorf("put object %s: %w", key, err)
	}
	return Object{Key: key, URL: s.base + key}, nil
}

func (s *MinioStore) Delete(ctx context.Context, key string) error {
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object %s: %w", key, err)
	}
	return nil
}

func (s *MinioStore) KeyFromURL(url string) string {
	if !strings.HasPrefix(url, s.base) {
		return ""
	}
	return strings.TrimPrefix(url, s.base)
}
