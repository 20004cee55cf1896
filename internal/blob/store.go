package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"
)

// Driver identifies a blob storage backend.
type Driver string

const (
	DriverFilesystem Driver = "fs"
	DriverS3         Driver = "s3"
	DriverMemory     Driver = "memory"
)

// ErrNotFound is returned by Get and Head for missing keys.
// It matches fs.ErrNotExist with errors.Is.
var ErrNotFound = fmt.Errorf("blob not found: %w", fs.ErrNotExist)

// ErrExists is returned by Put when the key is already taken.
var ErrExists = errors.New("blob already exists")

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string
	Metadata    map[string]string
}

// Info describes a stored blob. ETag is the hex SHA-256 of the content for
// the memory and fs drivers and the backend's ETag for s3.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size"`
	ContentType  string            `json:"contentType,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"lastModified"`
}

// Store is a flat key to blob store.
type Store interface {
	// Put stores a new blob at key. Fails with ErrExists if key is taken.
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)

	// Get returns blob metadata and a reader the caller must close.
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)

	// Head returns metadata only.
	Head(ctx context.Context, key string) (Info, error)

	// Delete removes a blob. Returns false if it did not exist.
	Delete(ctx context.Context, key string) (bool, error)

	// List returns blobs whose key has prefix, ordered by key.
	List(ctx context.Context, prefix string) ([]Info, error)

	Driver() Driver
}

// CleanKey rejects empty, absolute and escaping keys and normalizes
// separators.
func CleanKey(key string) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("empty blob key")
	}
	if strings.HasPrefix(key, "/") {
		return "", fmt.Errorf("blob key %q is absolute", key)
	}
	for _, part := range strings.Split(filepath.ToSlash(key), "/") {
		if part == ".." {
			return "", fmt.Errorf("blob key %q escapes the store root", key)
		}
	}
	return filepath.ToSlash(filepath.Clean(key)), nil
}

func cloneMetadata(in map[string]string) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
