// Package api is the client side of the backend proxy: it talks to the proxy
// for upload targets, listings and downloads, and pushes archive bytes
// directly to the storage provider's one-shot upload URL.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/savevault/savevault/internal/middleware"
	"github.com/savevault/savevault/internal/models"
)

// UploadError reports a non-2xx response from the provider's upload URL.
type UploadError struct {
	Status int
	Body   string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed with status %d: %s", e.Status, e.Body)
}

// Client defines the operations the archive pipeline and the CLI need.
type Client interface {
	// ListBackups fetches up to max stored archives, most recent first.
	ListBackups(ctx context.Context, max int) ([]models.BackupItem, error)
	// GetUploadTarget requests a fresh one-shot upload URL from the proxy.
	GetUploadTarget(ctx context.Context) (models.UploadTarget, error)
	// UploadArchive pushes the archive bytes directly to the provider.
	UploadArchive(ctx context.Context, target models.UploadTarget, fileName, sha1Hex string, data []byte) error
	// Download streams one stored archive through the proxy.
	Download(ctx context.Context, name string) (io.ReadCloser, error)
}

type httpClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a proxy client. token may be empty when the backend
// runs unguarded.
func NewHTTPClient(baseURL, token string) Client {
	return &httpClient{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: http.DefaultClient,
	}
}

func (c *httpClient) ListBackups(ctx context.Context, max int) ([]models.BackupItem, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/backups?max="+strconv.Itoa(max), nil)
	if err != nil {
		return nil, err
	}

	var resp models.ListResponse
	if err := c.doJSON(req, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *httpClient) GetUploadTarget(ctx context.Context) (models.UploadTarget, error) {
	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload-url", bytes.NewReader([]byte("{}")))
	if err != nil {
		return models.UploadTarget{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	var target models.UploadTarget
	if err := c.doJSON(req, &target); err != nil {
		return models.UploadTarget{}, err
	}
	return target, nil
}

func (c *httpClient) UploadArchive(ctx context.Context, target models.UploadTarget, fileName, sha1Hex string, data []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.UploadURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", target.UploadAuthToken)
	// The provider requires the percent-encoded form; QueryEscape uses "+"
	// for spaces, which it does not accept.
	req.Header.Set("X-Bz-File-Name", strings.ReplaceAll(url.QueryEscape(fileName), "+", "%20"))
	req.Header.Set("Content-Type", "application/zip")
	req.Header.Set("X-Bz-Content-Sha1", sha1Hex)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("upload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(resp.Body)
		return &UploadError{Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

func (c *httpClient) Download(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := c.newRequest(ctx, http.MethodGet, "/api/download/"+url.PathEscape(name), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, decodeError(resp)
	}
	return resp.Body, nil
}

func (c *httpClient) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.token != "" {
		req.Header.Set(middleware.TokenHeader, c.token)
	}
	return req, nil
}

func (c *httpClient) doJSON(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decodeError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var errResp models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Error != "" {
		if errResp.Detail != "" {
			return fmt.Errorf("server returned %d: %s (%s)", resp.StatusCode, errResp.Error, errResp.Detail)
		}
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, errResp.Error)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode)
}
