// src/handlers/import_handler.go
package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
	"github.com/username/perfsnap/src/security/validation"
	"github.com/username/perfsnap/src/services"
	"github.com/username/perfsnap/src/utils"
)

type ImportHandler struct {
	importService  services.ImportService
	maxUploadBytes int64
}

func NewImportHandler(service services.ImportService, maxUploadBytes int64) *ImportHandler {
	return &ImportHandler{
		importService:  service,
		maxUploadBytes: maxUploadBytes,
	}
}

// importResponse is the outcome plus the aggregate error on partial failure.
type importResponse struct {
	*models.ImportOutcome
	Error string `json:"error,omitempty"`
}

// HandleImport accepts either a multipart upload in the "file" field or a
// raw CSV/JSON body. The format comes from ?format=, the content type or the
// file name.
func (h *ImportHandler) HandleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(strings.ToLower(contentType), "multipart/form-data") {
		h.handleMultipart(w, r)
		return
	}

	format, err := validation.DetectFormat(r.URL.Query().Get("format"), contentType, "")
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}
	logger.L.Info("Processing import request", "format", format, "contentType", contentType)
	outcome, err := h.importService.ImportFile(r.Context(), r.Body, format)
	h.writeOutcome(w, outcome, err)
}

func (h *ImportHandler) handleMultipart(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		logger.L.Warn("Failed to parse multipart form or request too large", "error", err, "limit", h.maxUploadBytes)
		utils.SendJSONError(w, fmt.Sprintf("Failed to parse form or request too large (max %d MB)", h.maxUploadBytes/(1024*1024)), http.StatusBadRequest)
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		logger.L.Warn("Failed to retrieve file from request", "error", err)
		utils.SendJSONError(w, "Failed to retrieve file from request. Ensure 'file' field is used.", http.StatusBadRequest)
		return
	}
	defer file.Close()

	clientContentType := fileHeader.Header.Get("Content-Type")
	if clientContentType != "" {
		if err := validation.ValidateClientContentType(clientContentType); err != nil {
			utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if _, err := validation.ValidateFileContentByMagicBytes(file); err != nil {
		logger.L.Warn("Server-side file content validation failed", "filename", fileHeader.Filename, "error", err)
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	format, err := validation.DetectFormat(r.FormValue("format"), clientContentType, fileHeader.Filename)
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	logger.L.Info("Processing upload request", "filename", fileHeader.Filename, "format", format)
	outcome, err := h.importService.ImportFile(r.Context(), file, format)
	h.writeOutcome(w, outcome, err)
}

func (h *ImportHandler) writeOutcome(w http.ResponseWriter, outcome *models.ImportOutcome, err error) {
	switch {
	case err == nil:
		utils.SendJSON(w, http.StatusOK, importResponse{ImportOutcome: outcome})
	case errors.Is(err, services.ErrChunkWriteFailed) && outcome != nil:
		logger.L.Warn("Import finished with failed chunks", "importID", outcome.ImportID, "error", err)
		utils.SendJSON(w, http.StatusMultiStatus, importResponse{ImportOutcome: outcome, Error: err.Error()})
	case errors.Is(err, services.ErrParsingFailed), errors.Is(err, validation.ErrValidationFailed):
		utils.SendJSONError(w, fmt.Sprintf("Error parsing import file: %v", err), http.StatusBadRequest)
	case errors.Is(err, services.ErrStoreUnavailable):
		logger.L.Error("Import rejected, store unavailable", "error", err)
		utils.SendJSONError(w, "Destination store unavailable", http.StatusServiceUnavailable)
	default:
		logger.L.Error("Unexpected error during import", "error", err)
		utils.SendJSONError(w, "An unexpected error occurred during import.", http.StatusInternalServerError)
	}
}
