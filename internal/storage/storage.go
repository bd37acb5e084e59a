package storage

import (
	"context"
	"io"
)

// Uploader persists invoice artefacts to a storage backend.
type Uploader interface {
	Upload(ctx context.Context, req *UploadRequest) (*UploadResult, error)
}

// Factory returns an Uploader authenticated against the given cloud
// project. The upload stage holds a Factory rather than a client so that a
// nil value can stand in for "storage support not available" and tests can
// substitute a double without real credentials.
type Factory func(ctx context.Context, project string) (Uploader, error)

type UploadRequest struct {
	// Bucket is the destination bucket name.
	Bucket string

	// ObjectName is the object path within the bucket.
	ObjectName string

	// Content is the data to be uploaded.
	Content io.Reader

	// ContentType is the MIME type of the content, e.g. "image/tiff".
	ContentType string
}

// UploadResult is the outcome of a successful upload.
type UploadResult struct {
	// Bucket echoes the destination bucket name.
	Bucket string

	// ObjectName echoes the object path within the bucket.
	ObjectName string

	// URI locates the uploaded object, e.g. "gs://bucket/landing/invoice.tiff".
	URI string
}
