package attachment

import (
	"context"
	"errors"
)

type Kind string

const (
	KindProfilePhoto Kind = "profile_photo"
	KindGovernmentID Kind = "government_id"
)

var (
	ErrEmptyFile    = errors.New("file is empty")
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

type File struct {
	Kind        Kind
	Filename    string
	ContentType string
	Data        []byte
}

type BucketOptions struct {
	Public    bool
	SizeLimit int64
}

// Store is the blob store collaborator. It has no multi-object transactions.
type Store interface {
	EnsureBucket(ctx context.Context, name string, opts BucketOptions) error
	Put(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, bucket string, paths []string) error
}

type Uploaded struct {
	Kind Kind
	Path string
	URL  string
}

// Failure is an attachment that could not be stored. The owning record is still written.
type Failure struct {
	Field   Kind   `json:"field"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

type Uploads map[Kind]Uploaded

func (u Uploads) URL(kind Kind) *string {
	uploaded, ok := u[kind]
	if !ok || uploaded.URL == "" {
		return nil
	}
	url := uploaded.URL
	return &url
}

func (u Uploads) List() []Uploaded {
	result := make([]Uploaded, 0, len(u))
	for _, uploaded := range u {
		result = append(result, uploaded)
	}
	return result
}
