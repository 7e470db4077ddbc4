package mock

import (
	"context"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/savevault/savevault/internal/models"
	"github.com/savevault/savevault/internal/provider"
)

// Storage implements provider.Storage for testing
type Storage struct {
	items   []models.BackupItem
	content map[string]string // name -> body
	target  models.UploadTarget

	// Error simulation
	ListError     error
	TargetError   error
	DownloadError error

	// Call tracking
	ListCalls       []int
	DownloadedNames []string
	TargetCalls     int
}

// NewStorage creates a new mock storage for testing
func NewStorage() *Storage {
	return &Storage{
		content: make(map[string]string),
		target: models.UploadTarget{
			UploadURL:       "https://upload.example/pod-1",
			UploadAuthToken: "upload-token",
		},
	}
}

// SetItems sets the listing returned by ListObjects
func (s *Storage) SetItems(items []models.BackupItem) {
	s.items = items
}

// SetContent sets the body returned when downloading name
func (s *Storage) SetContent(name, body string) {
	s.content[name] = body
}

// SetTarget sets the upload target returned by GetUploadTarget
func (s *Storage) SetTarget(target models.UploadTarget) {
	s.target = target
}

func (s *Storage) GetUploadTarget(ctx context.Context) (models.UploadTarget, error) {
	s.TargetCalls++
	if s.TargetError != nil {
		return models.UploadTarget{}, s.TargetError
	}
	return s.target, nil
}

func (s *Storage) ListObjects(ctx context.Context, max int) ([]models.BackupItem, error) {
	s.ListCalls = append(s.ListCalls, max)
	if s.ListError != nil {
		return nil, s.ListError
	}
	items := make([]models.BackupItem, 0, len(s.items))
	items = append(items, s.items...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].UploadedAt > items[j].UploadedAt
	})
	if len(items) > max {
		items = items[:max]
	}
	return items, nil
}

func (s *Storage) DownloadObject(ctx context.Context, name string) (*provider.DownloadResult, error) {
	s.DownloadedNames = append(s.DownloadedNames, name)
	if s.DownloadError != nil {
		return nil, s.DownloadError
	}
	body, ok := s.content[name]
	if !ok {
		return nil, &provider.RequestError{Op: "b2_download_file_by_name", Status: http.StatusNotFound, Body: "not found"}
	}
	header := http.Header{}
	header.Set("Content-Type", "application/zip")
	return &provider.DownloadResult{
		Status: http.StatusOK,
		Header: header,
		Body:   io.NopCloser(strings.NewReader(body)),
	}, nil
}
