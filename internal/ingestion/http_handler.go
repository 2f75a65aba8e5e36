package ingestion

import (
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/rpattn/landtitles/internal/export"
	"github.com/rpattn/landtitles/internal/httpx"
	"github.com/rpattn/landtitles/internal/logger"
	"github.com/rpattn/landtitles/internal/table"
	"github.com/rpattn/landtitles/internal/titles"
)

// DefaultPreviewRows is how many rows of each view the JSON response carries.
const DefaultPreviewRows = 50

// multipart overhead allowed on top of the upload limit
const formOverheadBytes = 1 << 20

type Handler struct {
	service     *Service
	exports     *export.Service
	previewRows int
	log         *logger.Logger
}

// HandlerOption configures the upload handler.
type HandlerOption func(*Handler)

// WithPreviewRows sets the preview size; values below one keep the default.
func WithPreviewRows(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.previewRows = n
		}
	}
}

// WithHandlerLogger sets the handler logger.
func WithHandlerLogger(log *logger.Logger) HandlerOption {
	return func(h *Handler) {
		if log != nil {
			h.log = log
		}
	}
}

// NewHTTPHandler serves POST /process: load the upload, join it and keep the
// result for download.
func NewHTTPHandler(service *Service, exports *export.Service, opts ...HandlerOption) http.Handler {
	h := &Handler{
		service:     service,
		exports:     exports,
		previewRows: DefaultPreviewRows,
		log:         logger.Nop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// TablePreview is the first rows of a table plus its full row count.
type TablePreview struct {
	Columns   []string `json:"columns"`
	Rows      [][]any  `json:"rows"`
	TotalRows int      `json:"totalRows"`
}

// ProcessResponse is returned by a successful upload.
type ProcessResponse struct {
	ID           string       `json:"id"`
	Source       string       `json:"source"`
	FullTable    TablePreview `json:"fullTable"`
	CompactTable TablePreview `json:"compactTable"`
	DownloadURL  string       `json:"downloadUrl"`
	ExpiresAt    time.Time    `json:"expiresAt"`
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		httpx.WriteError(w, r, http.StatusMethodNotAllowed, httpx.CodeBadRequest, "method not allowed")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.service.maxUploadBytes+formOverheadBytes)
	if err := r.ParseMultipartForm(h.service.maxUploadBytes); err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, fmt.Sprintf("failed to parse upload: %v", err))
		return
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeBadRequest, "file field is required")
		return
	}
	defer file.Close()

	log := h.log
	if id, ok := httpx.RequestIDFromContext(r.Context()); ok {
		log = log.WithRequestID(id)
	}

	set, err := h.service.Load(r.Context(), Request{FileName: header.Filename, Data: file})
	if err != nil {
		h.writeLoadError(w, r, log, header.Filename, err)
		return
	}

	result, err := titles.Process(set)
	if err != nil {
		var missing *titles.MissingTablesError
		if errors.As(err, &missing) {
			log.Warn("upload missing required tables", map[string]interface{}{
				"file":    header.Filename,
				"missing": missing.Missing,
			})
			httpx.WriteErrorBody(w, r, http.StatusUnprocessableEntity, httpx.ErrorBody{
				Code:    httpx.CodeMissingTables,
				Message: err.Error(),
				Missing: missing.Missing,
			})
			return
		}
		log.Error("processing failed", err, map[string]interface{}{"file": header.Filename})
		httpx.WriteError(w, r, http.StatusInternalServerError, httpx.CodeInternal, err.Error())
		return
	}

	entry, err := h.exports.Put(header.Filename, result)
	if err != nil {
		log.Error("storing result failed", err, nil)
		httpx.WriteError(w, r, http.StatusInternalServerError, httpx.CodeInternal, err.Error())
		return
	}

	log.Info("upload processed", map[string]interface{}{
		"file":         header.Filename,
		"result_id":    entry.ID.String(),
		"full_rows":    result.Full.Len(),
		"compact_rows": result.Compact.Len(),
	})

	httpx.WriteJSON(w, http.StatusOK, ProcessResponse{
		ID:           entry.ID.String(),
		Source:       header.Filename,
		FullTable:    preview(result.Full, h.previewRows),
		CompactTable: preview(result.Compact, h.previewRows),
		DownloadURL:  h.exports.BuildDownloadURL(entry.ID),
		ExpiresAt:    entry.ExpiresAt,
	})
}

func (h *Handler) writeLoadError(w http.ResponseWriter, r *http.Request, log *logger.Logger, fileName string, err error) {
	fields := map[string]interface{}{"file": fileName}
	switch {
	case errors.Is(err, ErrUnsupportedFormat):
		log.Warn("unsupported upload format", fields)
		httpx.WriteError(w, r, http.StatusBadRequest, httpx.CodeUnsupportedFormat, err.Error())
	case errors.Is(err, ErrUnsupportedEnvironment):
		log.Warn("upload format unavailable", fields)
		httpx.WriteError(w, r, http.StatusUnprocessableEntity, httpx.CodeUnsupportedEnvironment, err.Error())
	default:
		log.Error("loading upload failed", err, fields)
		httpx.WriteError(w, r, http.StatusInternalServerError, httpx.CodeLoadFailed, err.Error())
	}
}

func preview(tbl *table.Table, n int) TablePreview {
	head := tbl.Head(n)
	rows := make([][]any, len(head.Rows))
	for i, row := range head.Rows {
		values := make([]any, len(row))
		for j, value := range row {
			values[j] = previewValue(value)
		}
		rows[i] = values
	}
	return TablePreview{
		Columns:   append([]string(nil), tbl.Columns...),
		Rows:      rows,
		TotalRows: tbl.Len(),
	}
}

// previewValue keeps values JSON-encodable.
func previewValue(value any) any {
	switch v := value.(type) {
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil
		}
		return v
	case []byte:
		return string(v)
	default:
		return v
	}
}
