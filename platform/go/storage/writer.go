package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
)

// ObjectWriter opens blobs for writing in an object store.
type ObjectWriter interface {
	// Check verifies the bucket/prefix is reachable before a long export starts.
	Check(ctx context.Context, bucket, prefix string) error
	// Create opens the object for writing.
	Create(ctx context.Context, loc ObjectLocation, contentType string) (Upload, error)
}

// Upload is an object being written. Close commits it; Abort discards everything written so
// far and leaves no object behind. Calling either after the other is a no-op.
type Upload interface {
	io.Writer
	Close() error
	Abort() error
}

// GCSWriter writes objects to Google Cloud Storage.
type GCSWriter struct {
	Client *gcs.Client
}

func NewGCSWriter(client *gcs.Client) *GCSWriter {
	if client == nil {
		panic("gcs writer requires client")
	}
	return &GCSWriter{Client: client}
}

func (w *GCSWriter) Check(ctx context.Context, bucket, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("storage prefix is required")
	}

	bkt := w.Client.Bucket(bucket)
	if _, err := bkt.Attrs(ctx); err != nil {
		return fmt.Errorf("bucket attrs: %w", err)
	}

	// List at most one object to validate access to the prefix; empty is fine.
	it := bkt.Objects(ctx, &gcs.Query{Prefix: prefix})
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		return fmt.Errorf("list prefix: %w", err)
	}
	return nil
}

func (w *GCSWriter) Create(ctx context.Context, loc ObjectLocation, contentType string) (Upload, error) {
	ctx, cancel := context.WithCancel(ctx)
	ow := w.Client.Bucket(loc.Bucket).Object(loc.FullPath).NewWriter(ctx)
	ow.ContentType = contentType
	return &gcsUpload{Writer: ow, cancel: cancel}, nil
}

// gcsUpload aborts by cancelling the writer context, which makes GCS drop the upload.
type gcsUpload struct {
	*gcs.Writer
	cancel context.CancelFunc
	done   bool
}

func (u *gcsUpload) Close() error {
	if u.done {
		return nil
	}
	u.done = true
	defer u.cancel()
	return u.Writer.Close()
}

func (u *gcsUpload) Abort() error {
	if u.done {
		return nil
	}
	u.done = true
	u.cancel()
	if err := u.Writer.Close(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("abort upload: %w", err)
	}
	return nil
}

// LocalWriter writes objects below BasePath as <BasePath>/<bucket>/<fullPath>. Used for local
// development and tests.
type LocalWriter struct {
	BasePath string
}

func NewLocalWriter(basePath string) *LocalWriter {
	if basePath == "" {
		panic("local writer requires basePath")
	}
	return &LocalWriter{BasePath: basePath}
}

func (w *LocalWriter) Check(_ context.Context, bucket, prefix string) error {
	if prefix == "" {
		return fmt.Errorf("storage prefix is required")
	}
	if err := os.MkdirAll(filepath.Join(w.BasePath, bucket, filepath.FromSlash(prefix)), 0o755); err != nil {
		return fmt.Errorf("create prefix path: %w", err)
	}
	return nil
}

// Create writes to a temporary sibling file that is renamed into place on Close.
func (w *LocalWriter) Create(_ context.Context, loc ObjectLocation, _ string) (Upload, error) {
	fullPath := w.Path(loc)
	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return nil, fmt.Errorf("create object dir: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(fullPath), "."+filepath.Base(fullPath)+".*.part")
	if err != nil {
		return nil, fmt.Errorf("create object: %w", err)
	}
	return &localUpload{File: f, target: fullPath}, nil
}

type localUpload struct {
	*os.File
	target string
	done   bool
}

func (u *localUpload) Close() error {
	if u.done {
		return nil
	}
	u.done = true
	if err := u.File.Close(); err != nil {
		_ = os.Remove(u.File.Name())
		return fmt.Errorf("close object: %w", err)
	}
	if err := os.Rename(u.File.Name(), u.target); err != nil {
		_ = os.Remove(u.File.Name())
		return fmt.Errorf("commit object: %w", err)
	}
	return nil
}

func (u *localUpload) Abort() error {
	if u.done {
		return nil
	}
	u.done = true
	_ = u.File.Close()
	if err := os.Remove(u.File.Name()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("abort object: %w", err)
	}
	return nil
}

// Path returns the filesystem path backing loc.
func (w *LocalWriter) Path(loc ObjectLocation) string {
	return filepath.Join(w.BasePath, loc.Bucket, filepath.FromSlash(loc.FullPath))
}

var (
	_ ObjectWriter = (*GCSWriter)(nil)
	_ ObjectWriter = (*LocalWriter)(nil)
)
