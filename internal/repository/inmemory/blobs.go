package inmemory

import (
	"context"
	"sync"

	"legacy-keeper-go/internal/domain/attachment"
)

// BlobStore is an attachment.Store for local runs without Supabase Storage.
type BlobStore struct {
	mu      sync.RWMutex
	baseURL string
	buckets map[string]map[string][]byte
}

func NewBlobStore(baseURL string) *BlobStore {
	if baseURL == "" {
		baseURL = "memory://storage"
	}
	return &BlobStore{baseURL: baseURL, buckets: make(map[string]map[string][]byte)}
}

func (b *BlobStore) EnsureBucket(ctx context.Context, name string, opts attachment.BucketOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.buckets[name]; !ok {
		b.buckets[name] = make(map[string][]byte)
	}
	return nil
}

func (b *BlobStore) Put(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	objects, ok := b.buckets[bucket]
	if !ok {
		objects = make(map[string][]byte)
		b.buckets[bucket] = objects
	}
	objects[path] = append([]byte(nil), data...)
	return b.baseURL + "/" + bucket + "/" + path, nil
}

func (b *BlobStore) Remove(ctx context.Context, bucket string, paths []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, path := range paths {
		delete(b.buckets[bucket], path)
	}
	return nil
}

func (b *BlobStore) Has(bucket, path string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.buckets[bucket][path]
	return ok
}
