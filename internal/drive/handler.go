package drive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gorilla/mux"
	"github.com/hirase-art/inventory-risk/internal/domain"
	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/rs/zerolog/log"
)

// Files is the Drive browsing surface the handler exposes.
type Files interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	FindFolderByPath(ctx context.Context, path string) (string, error)
	GetFile(ctx context.Context, fileID string) (*File, error)
	Download(ctx context.Context, f *File, w io.Writer) error
}

type Ingester interface {
	Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error)
}

type Handler struct {
	files         Files
	ingester      Ingester
	defaultFolder string
}

func NewHandler(files Files, ingester Ingester, defaultFolder string) *Handler {
	return &Handler{
		files:         files,
		ingester:      ingester,
		defaultFolder: defaultFolder,
	}
}

func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/drive/files", h.ListFiles).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/files/download", h.DownloadFile).Methods(http.MethodGet)
	router.HandleFunc("/api/drive/ingest", h.IngestFile).Methods(http.MethodPost)
}

func (h *Handler) ListFiles(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	folderID := query.Get("folderId")
	if folderID == "" {
		folderID = h.defaultFolder
	}

	if folderPath := query.Get("path"); folderPath != "" {
		var err error
		folderID, err = h.files.FindFolderByPath(r.Context(), folderPath)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, ErrFolderNotFound) {
				status = http.StatusNotFound
			}
			writeError(w, status, err)
			return
		}
	}

	files, err := h.files.ListFiles(r.Context(), folderID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if files == nil {
		files = []*File{}
	}

	writeJSON(w, http.StatusOK, files)
}

func (h *Handler) DownloadFile(w http.ResponseWriter, r *http.Request) {
	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("fileId parameter is required"))
		return
	}

	file, err := h.files.GetFile(r.Context(), fileID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	contentType := mime.TypeByExtension(strings.ToLower(filepath.Ext(file.LocalName())))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": file.LocalName()}))

	if err := h.files.Download(r.Context(), file, w); err != nil {
		log.Error().Err(err).Str("file_id", fileID).Msg("drive: download failed")
	}
}

// IngestFile accepts a JSON body, or fileId/kind/unit/replace query
// parameters when the body is empty.
func (h *Handler) IngestFile(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if r.ContentLength != 0 && r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}
	}
	query := r.URL.Query()
	if req.FileID == "" {
		req.FileID = query.Get("fileId")
	}
	if req.Kind == "" {
		req.Kind = query.Get("kind")
	}
	if req.Unit == "" {
		req.Unit = domain.Unit(strings.TrimSpace(query.Get("unit")))
	}
	if !req.Replace {
		req.Replace = query.Get("replace") == "true"
	}

	result, err := h.ingester.Ingest(r.Context(), req)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ErrInvalidRequest):
			status = http.StatusBadRequest
		case forecast.IsInputShapeError(err):
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, fmt.Errorf("ingestion failed: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"result": result,
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("drive: failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Msg("drive: request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
