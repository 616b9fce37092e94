// Package media handles binary artifacts: downloading source images,
// producing the sized variants each channel needs, and persisting artifacts
// to object storage.
package media

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// BlobStore persists a named binary artifact and returns a public URL.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// MinioStore implements BlobStore on a MinIO (or S3-compatible) bucket.
type MinioStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// MinioOptions configures a MinioStore.
type MinioOptions struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the externally reachable base for stored objects. Empty
	// derives one from the endpoint.
	PublicURL string
}

// NewMinioStore connects to object storage and ensures the bucket exists.
func NewMinioStore(ctx context.Context, opts MinioOptions) (*MinioStore, error) {
	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket %s: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket %s: %w", opts.Bucket, err)
		}
	}

	public := opts.PublicURL
	if public == "" {
		scheme := "http"
		if opts.UseSSL {
			scheme = "https"
		}
		public = fmt.Sprintf("%s://%s", scheme, opts.Endpoint)
	}

	return &MinioStore{client: client, bucket: opts.Bucket, publicURL: public}, nil
}

// Put uploads the artifact and returns its public URL.
func (s *MinioStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(
		ctx,
		s.bucket,
		key,
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType},
	)
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return fmt.Sprintf("%s/%s/%s", s.publicURL, s.bucket, key), nil
}

// MemoryBlobStore is an in-memory BlobStore for tests.
type MemoryBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	// PutErr, when set, is returned by every Put.
	PutErr error
}

// NewMemoryBlobStore creates an empty in-memory store.
func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{objects: make(map[string][]byte)}
}

// Put stores the artifact under a fake URL.
func (s *MemoryBlobStore) Put(_ context.Context, key string, data []byte, _ string) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return "https://blobs.test/" + key, nil
}

// Get returns a stored artifact.
func (s *MemoryBlobStore) Get(key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	return data, ok
}

// Len returns the number of stored artifacts.
func (s *MemoryBlobStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
