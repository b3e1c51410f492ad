// Package gcs fetches input files from Google Cloud Storage so the loader
// can ingest a table straight from a gs:// URI. It assumes Application
// Default Credentials are configured (gcloud auth application-default login).
package gcs

import (
	"context"
	"fmt"
	"io"
	"strings"

	"cloud.google.com/go/storage"
)

// Fetcher retrieves file bytes from object storage.
type Fetcher interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// IsGCSURI reports whether the given input path is a gs:// URI.
func IsGCSURI(uri string) bool {
	return strings.HasPrefix(uri, "gs://")
}

// ParseURI splits a gs:// URI into bucket and object path.
func ParseURI(uri string) (bucket, object string, err error) {
	if !IsGCSURI(uri) {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}

	trimmed := strings.TrimPrefix(uri, "gs://")
	parts := strings.SplitN(trimmed, "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}

	return parts[0], parts[1], nil
}

// Service is the concrete Fetcher backed by Google Cloud Storage.
type Service struct{}

// NewService creates a new Service.
func NewService() *Service {
	return &Service{}
}

// Fetch downloads the file bytes at the given gs:// URI.
func (s *Service) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}

	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: create storage client: %w", err)
	}
	defer client.Close()

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("gcs: open object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("gcs: read object: %w", err)
	}

	return data, nil
}
