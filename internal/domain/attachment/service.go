package attachment

import (
	"context"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"legacy-keeper-go/pkg/logger"
)

type Service struct {
	store   Store
	opts    BucketOptions
	log     logger.Logger
	ensured sync.Map
}

func NewService(store Store, opts BucketOptions, log logger.Logger) *Service {
	return &Service{store: store, opts: opts, log: log}
}

// UploadAll stores every file under {owner}/{kind}-{uuid}{ext}. A failing file is
// reported in the failures list and does not stop the others.
func (s *Service) UploadAll(ctx context.Context, bucket, ownerID string, files []File) (Uploads, []Failure) {
	uploads := make(Uploads, len(files))
	var failures []Failure

	for _, file := range files {
		uploaded, err := s.upload(ctx, bucket, ownerID, file)
		if err != nil {
			s.log.BusinessError("attachments.upload: upload failed", err, "bucket", bucket, "owner_id", ownerID, "kind", file.Kind)
			failures = append(failures, Failure{Field: file.Kind, Message: err.Error(), Err: err})
			continue
		}
		uploads[file.Kind] = uploaded
	}

	return uploads, failures
}

func (s *Service) upload(ctx context.Context, bucket, ownerID string, file File) (Uploaded, error) {
	if len(file.Data) == 0 {
		return Uploaded{}, ErrEmptyFile
	}
	if s.opts.SizeLimit > 0 && int64(len(file.Data)) > s.opts.SizeLimit {
		return Uploaded{}, ErrFileTooLarge
	}
	if err := s.ensureBucket(ctx, bucket); err != nil {
		return Uploaded{}, fmt.Errorf("ensure bucket: %w", err)
	}

	objectPath := ownerID + "/" + string(file.Kind) + "-" + uuid.NewString() + strings.ToLower(path.Ext(file.Filename))
	contentType := file.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := s.store.Put(ctx, bucket, objectPath, file.Data, contentType)
	if err != nil {
		return Uploaded{}, fmt.Errorf("put object: %w", err)
	}
	return Uploaded{Kind: file.Kind, Path: objectPath, URL: url}, nil
}

// ensureBucket creates the bucket on first use; later calls are free.
func (s *Service) ensureBucket(ctx context.Context, bucket string) error {
	if _, ok := s.ensured.Load(bucket); ok {
		return nil
	}
	if err := s.store.EnsureBucket(ctx, bucket, s.opts); err != nil {
		return err
	}
	s.ensured.Store(bucket, struct{}{})
	return nil
}

// Discard removes uploaded objects, logging instead of failing.
func (s *Service) Discard(ctx context.Context, bucket string, uploads []Uploaded) {
	paths := make([]string, 0, len(uploads))
	for _, uploaded := range uploads {
		if uploaded.Path != "" {
			paths = append(paths, uploaded.Path)
		}
	}
	s.remove(ctx, bucket, paths)
}

// DiscardURLs removes objects by their public URL, skipping URLs outside the bucket.
func (s *Service) DiscardURLs(ctx context.Context, bucket string, urls ...*string) {
	paths := make([]string, 0, len(urls))
	for _, url := range urls {
		if url == nil {
			continue
		}
		if objectPath, ok := ObjectPath(bucket, *url); ok {
			paths = append(paths, objectPath)
		}
	}
	s.remove(ctx, bucket, paths)
}

func (s *Service) remove(ctx context.Context, bucket string, paths []string) {
	if len(paths) == 0 {
		return
	}
	if err := s.store.Remove(ctx, bucket, paths); err != nil {
		s.log.InternalError("attachments.remove: cleanup failed", err, "bucket", bucket, "paths", paths)
	}
}

// ObjectPath extracts the object path that follows "/{bucket}/" in url.
func ObjectPath(bucket, url string) (string, bool) {
	marker := "/" + bucket + "/"
	idx := strings.Index(url, marker)
	if idx == -1 {
		return "", false
	}
	objectPath := url[idx+len(marker):]
	if q := strings.IndexAny(objectPath, "?#"); q != -1 {
		objectPath = objectPath[:q]
	}
	if objectPath == "" {
		return "", false
	}
	return objectPath, true
}
