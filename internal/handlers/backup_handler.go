package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/savevault/savevault/internal/models"
	"github.com/savevault/savevault/internal/provider"
)

const (
	defaultListMax = 100
	maxListMax     = 200
)

type BackupHandler struct {
	storage provider.Storage
	logger  *zap.Logger
}

func NewBackupHandler(storage provider.Storage, logger *zap.Logger) *BackupHandler {
	return &BackupHandler{
		storage: storage,
		logger:  logger,
	}
}

// List responds with the stored archives, most recent first.
// GET /api/backups?max=N with N clamped to [1,200], default 100.
func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	max := defaultListMax
	if raw := r.URL.Query().Get("max"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			max = n
		}
	}
	if max < 1 {
		max = 1
	}
	if max > maxListMax {
		max = maxListMax
	}

	items, err := h.storage.ListObjects(r.Context(), max)
	if err != nil {
		h.logger.Error("listing backups failed", zap.Error(err))
		h.respondError(w, "Failed to list backups", err, http.StatusInternalServerError)
		return
	}
	if items == nil {
		items = []models.BackupItem{}
	}

	h.respondJSON(w, models.ListResponse{Items: items}, http.StatusOK)
}

// UploadURL responds with a fresh one-shot upload target.
// POST /api/upload-url, body ignored.
func (h *BackupHandler) UploadURL(w http.ResponseWriter, r *http.Request) {
	target, err := h.storage.GetUploadTarget(r.Context())
	if err != nil {
		h.logger.Error("getting upload target failed", zap.Error(err))
		h.respondError(w, "Failed to get upload URL", err, http.StatusInternalServerError)
		return
	}

	h.respondJSON(w, target, http.StatusOK)
}

// Download re-emits one stored archive verbatim with the provider's status
// code, adding only a Content-Disposition attachment header.
// GET /api/download/{name}.
func (h *BackupHandler) Download(w http.ResponseWriter, r *http.Request) {
	raw := chi.URLParam(r, "name")
	if raw == "" {
		h.respondError(w, "Not found", nil, http.StatusNotFound)
		return
	}
	name, err := url.PathUnescape(raw)
	if err != nil {
		name = raw
	}

	safeName, ok := sanitizeName(name)
	if !ok {
		h.respondError(w, "Invalid name", nil, http.StatusBadRequest)
		return
	}

	res, err := h.storage.DownloadObject(r.Context(), safeName)
	if err != nil {
		h.logger.Error("download failed", zap.String("name", safeName), zap.Error(err))
		h.respondError(w, "Download failed", err, http.StatusInternalServerError)
		return
	}
	defer res.Body.Close()

	for key, values := range res.Header {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}
	w.Header().Set("Content-Disposition", `attachment; filename="`+url.PathEscape(safeName)+`"`)
	w.WriteHeader(res.Status)

	if _, err := io.Copy(w, res.Body); err != nil {
		h.logger.Warn("streaming download interrupted", zap.String("name", safeName), zap.Error(err))
	}
}

// sanitizeName normalizes backslashes, strips literal ".." sequences and
// empty segments, then rejects any remaining segment outside a safe charset.
// Stripping alone is bypassable by equivalent encodings; the charset check is
// the actual gate.
func sanitizeName(name string) (string, bool) {
	name = strings.ReplaceAll(name, `\`, "/")
	name = strings.ReplaceAll(name, "..", "")

	var segs []string
	for _, seg := range strings.Split(name, "/") {
		if seg == "" {
			continue
		}
		if !safeSegment(seg) {
			return "", false
		}
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		return "", false
	}
	return strings.Join(segs, "/"), true
}

func safeSegment(seg string) bool {
	for _, r := range seg {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-' || r == ' ':
		default:
			return false
		}
	}
	return true
}

func (h *BackupHandler) respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *BackupHandler) respondError(w http.ResponseWriter, message string, cause error, status int) {
	resp := models.ErrorResponse{Error: message}
	if cause != nil {
		resp.Detail = cause.Error()
	}
	h.respondJSON(w, resp, status)
}
