package export

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/rpattn/landtitles/internal/httpx"
)

type Handler struct {
	service *Service
}

// NewHTTPHandler serves GET /exports/files/{id}?token=...
func NewHTTPHandler(service *Service) http.Handler {
	return &Handler{service: service}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet || !strings.Contains(r.URL.Path, "/files/") {
		httpx.WriteError(w, r, http.StatusNotFound, httpx.CodeNotFound, "not found")
		return
	}
	h.handleDownload(w, r)
}

func (h *Handler) handleDownload(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimSuffix(r.URL.Path, "/")
	idx := strings.LastIndex(path, "/")
	if idx == -1 || idx == len(path)-1 {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "missing export identifier")
		return
	}
	id, err := uuid.Parse(path[idx+1:])
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, fmt.Sprintf("invalid export identifier: %v", err))
		return
	}
	token := strings.TrimSpace(r.URL.Query().Get("token"))
	if err := h.service.ValidateDownloadToken(id, token); err != nil {
		httpx.WriteError(w, r, http.StatusForbidden, httpx.CodeForbidden, err.Error())
		return
	}
	payload, entry, err := h.service.Render(id)
	if err != nil {
		if errors.Is(err, ErrResultNotFound) {
			httpx.WriteError(w, r, http.StatusNotFound, httpx.CodeNotFound, err.Error())
			return
		}
		httpx.WriteError(w, r, http.StatusInternalServerError, httpx.CodeInternal, err.Error())
		return
	}

	w.Header().Set("Content-Type", MimeType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(payload)))
	http.ServeContent(w, r, FileName, entry.CreatedAt, bytes.NewReader(payload))
}
