package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
)

// NewLocalFactory returns a Factory whose uploaders write artefacts under
// baseDir instead of GCS. Used for dry runs against environments without
// cloud access; the project argument is ignored.
func NewLocalFactory(baseDir string) Factory {
	return func(_ context.Context, _ string) (Uploader, error) {
		return NewLocalUploader(baseDir)
	}
}

// LocalUploader writes artefacts to a directory on the local filesystem,
// mirroring the bucket/object layout GCS would use. The returned URI is a
// file:// URL.
type LocalUploader struct {
	baseDir string
}

// NewLocalUploader creates a LocalUploader that writes artefacts under
// baseDir. The directory is created if it does not already exist.
func NewLocalUploader(baseDir string) (*LocalUploader, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create local base directory %q: %w", baseDir, err)
	}
	abs, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to resolve absolute path for %q: %w", baseDir, err)
	}
	return &LocalUploader{baseDir: abs}, nil
}

// Upload writes content to baseDir/bucket/objectName, creating any
// intermediate directories as needed.
func (u *LocalUploader) Upload(_ context.Context, req *UploadRequest) (*UploadResult, error) {
	dest := filepath.Join(u.baseDir, req.Bucket, filepath.FromSlash(req.ObjectName))

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return nil, fmt.Errorf("storage: failed to create directory for %q: %w", req.ObjectName, err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return nil, fmt.Errorf("storage: failed to create file %q: %w", dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, req.Content); err != nil {
		return nil, fmt.Errorf("storage: failed to write file %q: %w", dest, err)
	}

	fileURL := &url.URL{Scheme: "file", Path: filepath.ToSlash(dest)}

	return &UploadResult{
		Bucket:     req.Bucket,
		ObjectName: req.ObjectName,
		URI:        fileURL.String(),
	}, nil
}
