// Package asset opens static documents, such as the letterhead, from the
// local filesystem or Google Cloud Storage.
package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// ErrNotFound is returned when the asset does not exist at its location.
var ErrNotFound = errors.New("asset: not found")

// Source is a read-only location an asset can be opened from.
type Source interface {
	// Open returns a reader over the asset's bytes. Callers must close it.
	Open(ctx context.Context) (io.ReadCloser, error)
	// Location describes where the asset lives, for logs and errors.
	Location() string
}

// ReadAll opens src and reads it fully.
func ReadAll(ctx context.Context, src Source) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("asset: read %s: %w", src.Location(), err)
	}
	return b, nil
}

// --- File source (local path, e.g. ./assets/letterhead.pdf) ---

type fileSource struct {
	path string
}

// NewFileSource creates a source reading a local file.
func NewFileSource(path string) Source {
	return &fileSource{path: path}
}

func (s *fileSource) Open(ctx context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path)
		}
		return nil, fmt.Errorf("asset: open %s: %w", s.path, err)
	}
	return f, nil
}

func (s *fileSource) Location() string {
	return s.path
}

// --- GCS source (gs://bucket/object) ---

type gcsSource struct {
	client *storage.Client
	bucket string
	object string
}

// NewGCSSource creates a source reading bucket/object through client.
func NewGCSSource(client *storage.Client, bucket, object string) Source {
	return &gcsSource{client: client, bucket: bucket, object: object}
}

func (s *gcsSource) Open(ctx context.Context) (io.ReadCloser, error) {
	r, err := s.client.Bucket(s.bucket).Object(s.object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Location())
		}
		return nil, fmt.Errorf("asset: open %s: %w", s.Location(), err)
	}
	return r, nil
}

func (s *gcsSource) Location() string {
	return "gs://" + s.bucket + "/" + s.object
}

// --- In-memory source (tests and embedded assets) ---

type memorySource struct {
	name string
	data []byte
}

// NewMemorySource serves data as an asset called name.
func NewMemorySource(name string, data []byte) Source {
	return &memorySource{name: name, data: data}
}

func (s *memorySource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.data == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, s.name)
	}
	return io.NopCloser(bytes.NewReader(s.data)), nil
}

func (s *memorySource) Location() string {
	return "memory://" + s.name
}

// ParseGCSLocation splits gs://bucket/object. ok is false for any other form.
func ParseGCSLocation(location string) (bucket, object string, ok bool) {
	rest, found := strings.CutPrefix(location, "gs://")
	if !found {
		return "", "", false
	}
	bucket, object, found = strings.Cut(rest, "/")
	if !found || bucket == "" || object == "" {
		return "", "", false
	}
	return bucket, object, true
}

// NewSourceFromLocation picks the source kind from the location string. A GCS
// client is created only for gs:// locations; opts are passed to it, and with no
// opts application default credentials are used.
func NewSourceFromLocation(ctx context.Context, location string, opts ...option.ClientOption) (Source, error) {
	switch {
	case location == "":
		return nil, fmt.Errorf("asset: location is required")
	case strings.HasPrefix(location, "gs://"):
		bucket, object, ok := ParseGCSLocation(location)
		if !ok {
			return nil, fmt.Errorf("asset: malformed GCS location %q (use gs://bucket/object)", location)
		}
		client, err := storage.NewClient(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("asset: create storage client: %w", err)
		}
		return NewGCSSource(client, bucket, object), nil
	default:
		return NewFileSource(location), nil
	}
}
