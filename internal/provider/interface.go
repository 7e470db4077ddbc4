package provider

import (
	"context"
	"io"
	"net/http"

	"github.com/savevault/savevault/internal/models"
)

// DownloadResult carries the provider's raw response for one stored object so
// the proxy can re-emit it verbatim. Callers own Body and must close it.
type DownloadResult struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// Storage defines the minimal surface the proxy needs from an object storage
// provider. Implementations obtain their own credentials per operation; no
// provider token ever crosses this boundary except the one-shot upload target.
type Storage interface {
	// GetUploadTarget fetches a fresh single-use upload URL and token.
	GetUploadTarget(ctx context.Context) (models.UploadTarget, error)

	// ListObjects pages through the provider's listing until max items are
	// collected or the cursor is exhausted, returning items sorted by
	// uploadedAt descending.
	ListObjects(ctx context.Context, max int) ([]models.BackupItem, error)

	// DownloadObject streams one stored object by name.
	DownloadObject(ctx context.Context, name string) (*DownloadResult, error)
}
