package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/savevault/savevault/internal/middleware"
	"github.com/savevault/savevault/internal/models"
)

func TestListBackups(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/backups", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("max"))
		assert.Equal(t, "secret", r.Header.Get(middleware.TokenHeader))
		json.NewEncoder(w).Encode(models.ListResponse{Items: []models.BackupItem{
			{Name: "a.zip", SizeBytes: 100, UploadedAt: "2026-01-01T00:00:00.000Z"},
		}})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "secret")
	items, err := c.ListBackups(context.Background(), 25)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "a.zip", items[0].Name)
}

func TestListBackups_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Failed to list backups", Detail: "boom"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	_, err := c.ListBackups(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to list backups")
	assert.Contains(t, err.Error(), "boom")
}

func TestGetUploadTarget(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/upload-url", r.URL.Path)
		json.NewEncoder(w).Encode(models.UploadTarget{
			UploadURL:       "https://pod.example/upload",
			UploadAuthToken: "upload-token",
		})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	target, err := c.GetUploadTarget(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://pod.example/upload", target.UploadURL)
	assert.Equal(t, "upload-token", target.UploadAuthToken)
}

func TestUploadArchive_SetsProviderHeaders(t *testing.T) {
	var got *http.Request
	var body []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		body, _ = io.ReadAll(r.Body)
		fmt.Fprint(w, `{"fileName":"x"}`)
	}))
	defer srv.Close()

	c := NewHTTPClient("http://unused.example", "")
	target := models.UploadTarget{UploadURL: srv.URL + "/upload", UploadAuthToken: "upload-token"}

	err := c.UploadArchive(context.Background(), target,
		"2026-01-01T00-00-00-000Z_My_Save_Saves_01.zip", "da39a3ee5e6b4b0d3255bfef95601890afd80709", []byte("zip"))
	require.NoError(t, err)

	assert.Equal(t, "upload-token", got.Header.Get("Authorization"))
	assert.Equal(t, "2026-01-01T00-00-00-000Z_My_Save_Saves_01.zip", got.Header.Get("X-Bz-File-Name"))
	assert.Equal(t, "application/zip", got.Header.Get("Content-Type"))
	assert.Equal(t, "da39a3ee5e6b4b0d3255bfef95601890afd80709", got.Header.Get("X-Bz-Content-Sha1"))
	assert.Equal(t, "zip", string(body))
}

func TestUploadArchive_EncodesFileName(t *testing.T) {
	var header string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header = r.Header.Get("X-Bz-File-Name")
		fmt.Fprint(w, `{}`)
	}))
	defer srv.Close()

	c := NewHTTPClient("http://unused.example", "")
	target := models.UploadTarget{UploadURL: srv.URL, UploadAuthToken: "t"}

	require.NoError(t, c.UploadArchive(context.Background(), target, "with space.zip", "00", nil))
	assert.Equal(t, "with%20space.zip", header)
}

func TestUploadArchive_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "pod busy")
	}))
	defer srv.Close()

	c := NewHTTPClient("http://unused.example", "")
	target := models.UploadTarget{UploadURL: srv.URL, UploadAuthToken: "t"}

	err := c.UploadArchive(context.Background(), target, "a.zip", "00", []byte("zip"))
	var upErr *UploadError
	require.ErrorAs(t, err, &upErr)
	assert.Equal(t, http.StatusServiceUnavailable, upErr.Status)
	assert.Equal(t, "pod busy", upErr.Body)
}

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/download/a.zip", r.URL.Path)
		fmt.Fprint(w, "zip bytes")
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	body, err := c.Download(context.Background(), "a.zip")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "zip bytes", string(data))
}

func TestDownload_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(models.ErrorResponse{Error: "Download failed"})
	}))
	defer srv.Close()

	c := NewHTTPClient(srv.URL, "")
	_, err := c.Download(context.Background(), "a.zip")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Download failed")
}
