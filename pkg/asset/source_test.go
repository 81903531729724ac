package asset

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "letterhead.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0o600))

	src, err := NewSourceFromLocation(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, src.Location())

	b, err := ReadAll(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(b))
}

func TestFileSourceMissing(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "missing.pdf"))
	_, err := ReadAll(context.Background(), src)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemorySource(t *testing.T) {
	b, err := ReadAll(context.Background(), NewMemorySource("lh", []byte("abc")))
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))

	_, err = ReadAll(context.Background(), NewMemorySource("lh", nil))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestParseGCSLocation(t *testing.T) {
	tests := []struct {
		location string
		bucket   string
		object   string
		ok       bool
	}{
		{location: "gs://assets/letterheads/main.pdf", bucket: "assets", object: "letterheads/main.pdf", ok: true},
		{location: "gs://assets", ok: false},
		{location: "gs:///object.pdf", ok: false},
		{location: "/srv/letterhead.pdf", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.location, func(t *testing.T) {
			bucket, object, ok := ParseGCSLocation(tt.location)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bucket, bucket)
			assert.Equal(t, tt.object, object)
		})
	}
}

func TestNewSourceFromLocationErrors(t *testing.T) {
	_, err := NewSourceFromLocation(context.Background(), "")
	assert.Error(t, err)

	_, err = NewSourceFromLocation(context.Background(), "gs://bucket-only")
	assert.Error(t, err)
}
