// Package b2 implements the storage gateway against the Backblaze B2 native
// HTTP API. All operations first obtain a session from the in-process auth
// cache; provider credentials never leave this package except as the one-shot
// upload target.
package b2

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/savevault/savevault/internal/models"
	"github.com/savevault/savevault/internal/provider"
)

// pageSize is the provider-side cap on a single listing page.
const pageSize = 1000

// Config holds the provider credentials and bucket scope. Fields are
// validated lazily: each operation checks only what it needs.
type Config struct {
	KeyID          string
	ApplicationKey string
	BucketID       string
	BucketName     string

	// AuthURL overrides the account authorize endpoint, for tests.
	AuthURL string
}

// Client implements provider.Storage against the B2 API.
type Client struct {
	cfg        Config
	httpClient *http.Client
	now        func() time.Time

	sessionMu sync.Mutex
	session   *session
}

func New(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: http.DefaultClient,
		now:        time.Now,
	}
}

// GetUploadTarget fetches a fresh single-use upload URL and token scoped to
// the configured bucket. Targets are intentionally not cached: a target's
// token may be rejected after a lease timeout or after one use.
func (c *Client) GetUploadTarget(ctx context.Context) (models.UploadTarget, error) {
	s, err := c.getSession(ctx)
	if err != nil {
		return models.UploadTarget{}, err
	}
	if c.cfg.BucketID == "" {
		return models.UploadTarget{}, &provider.ConfigError{Setting: "B2_BUCKET_ID"}
	}

	reqBody := struct {
		BucketID string `json:"bucketId"`
	}{BucketID: c.cfg.BucketID}

	var target struct {
		UploadURL          string `json:"uploadUrl"`
		AuthorizationToken string `json:"authorizationToken"`
	}
	if err := c.postJSON(ctx, s, "b2_get_upload_url", reqBody, &target); err != nil {
		return models.UploadTarget{}, err
	}

	return models.UploadTarget{
		UploadURL:       target.UploadURL,
		UploadAuthToken: target.AuthorizationToken,
	}, nil
}

// ListObjects pages through the bucket listing until max items are collected
// or the provider stops returning a cursor. Pages are fetched sequentially;
// each page's cursor depends on the previous response. A failure on any page
// aborts the whole call with no partial result.
func (c *Client) ListObjects(ctx context.Context, max int) ([]models.BackupItem, error) {
	s, err := c.getSession(ctx)
	if err != nil {
		return nil, err
	}
	if c.cfg.BucketID == "" {
		return nil, &provider.ConfigError{Setting: "B2_BUCKET_ID"}
	}

	items := make([]models.BackupItem, 0, max)
	startFileName := ""

	for len(items) < max {
		remaining := max - len(items)
		if remaining > pageSize {
			remaining = pageSize
		}

		reqBody := struct {
			BucketID      string `json:"bucketId"`
			MaxFileCount  int    `json:"maxFileCount"`
			StartFileName string `json:"startFileName,omitempty"`
		}{BucketID: c.cfg.BucketID, MaxFileCount: remaining, StartFileName: startFileName}

		var page struct {
			Files []struct {
				FileName        string `json:"fileName"`
				ContentLength   int64  `json:"contentLength"`
				UploadTimestamp int64  `json:"uploadTimestamp"`
			} `json:"files"`
			NextFileName string `json:"nextFileName"`
		}
		if err := c.postJSON(ctx, s, "b2_list_file_names", reqBody, &page); err != nil {
			return nil, err
		}

		for _, f := range page.Files {
			items = append(items, models.BackupItem{
				Name:       f.FileName,
				SizeBytes:  f.ContentLength,
				UploadedAt: isoMillis(f.UploadTimestamp),
			})
			if len(items) >= max {
				break
			}
		}

		if page.NextFileName == "" {
			break
		}
		startFileName = page.NextFileName
	}

	// Most recent first, regardless of the provider's pagination order.
	sort.Slice(items, func(i, j int) bool {
		return items[i].UploadedAt > items[j].UploadedAt
	})
	return items, nil
}

// DownloadObject streams one stored object by name with the cached session
// token. The raw response is handed back so the caller can re-emit status,
// headers and body verbatim.
func (c *Client) DownloadObject(ctx context.Context, name string) (*provider.DownloadResult, error) {
	s, err := c.getSession(ctx)
	if err != nil {
		return nil, err
	}
	if c.cfg.BucketName == "" {
		return nil, &provider.ConfigError{Setting: "B2_BUCKET_NAME"}
	}

	downloadURL := fmt.Sprintf("%s/file/%s/%s",
		s.downloadURL, url.PathEscape(c.cfg.BucketName), encodePath(name))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}
	req.Header.Set("Authorization", s.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, &provider.RequestError{Op: "b2_download_file_by_name", Status: resp.StatusCode, Body: string(body)}
	}

	return &provider.DownloadResult{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   resp.Body,
	}, nil
}

// postJSON issues one API call against the session's base URL and decodes the
// 200 response into out.
func (c *Client) postJSON(ctx context.Context, s *session, op string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode %s request: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.apiURL+"/b2api/v2/"+op, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create %s request: %w", op, err)
	}
	req.Header.Set("Authorization", s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s request failed: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &provider.RequestError{Op: op, Status: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", op, err)
	}
	return nil
}

// encodePath percent-encodes each path segment independently, preserving the
// separators.
func encodePath(name string) string {
	segs := strings.Split(name, "/")
	for i, seg := range segs {
		segs[i] = url.PathEscape(seg)
	}
	return strings.Join(segs, "/")
}

// isoMillis converts a provider epoch-millisecond timestamp to ISO-8601 UTC.
func isoMillis(ts int64) string {
	return time.UnixMilli(ts).UTC().Format("2006-01-02T15:04:05.000") + "Z"
}
