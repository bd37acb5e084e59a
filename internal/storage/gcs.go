// Package storage provides an abstraction for uploading invoice artefacts to
// a landing bucket. The GCS implementation is the production backend; the
// interface allows alternative implementations for testing and local runs.
package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSFactory returns a Factory producing GCS-backed uploaders. opts are
// passed through to the underlying client, allowing credential injection; by
// default the client resolves application default credentials.
func NewGCSFactory(opts ...option.ClientOption) Factory {
	return func(ctx context.Context, project string) (Uploader, error) {
		// Object writes do not take a project, so the environment's project
		// rides along as the quota project to keep billing attributable.
		clientOpts := opts
		if project != "" {
			clientOpts = append(clientOpts, option.WithQuotaProject(project))
		}
		client, err := storage.NewClient(ctx, clientOpts...)
		if err != nil {
			return nil, fmt.Errorf("storage: failed to create GCS client: %w", err)
		}
		return &GCSUploader{client: client}, nil
	}
}

// GCSUploader uploads objects to Google Cloud Storage.
type GCSUploader struct {
	client *storage.Client
}

// Upload writes content to gs://{bucket}/{objectName}.
func (u *GCSUploader) Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error) {
	obj := u.client.Bucket(req.Bucket).Object(req.ObjectName)
	w := obj.NewWriter(ctx)
	w.ContentType = req.ContentType

	if _, err := io.Copy(w, req.Content); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("storage: upload write failed for %q: %w", req.ObjectName, err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("storage: upload close failed for %q: %w", req.ObjectName, err)
	}

	return &UploadResult{
		Bucket:     req.Bucket,
		ObjectName: req.ObjectName,
		URI:        fmt.Sprintf("gs://%s/%s", req.Bucket, req.ObjectName),
	}, nil
}
