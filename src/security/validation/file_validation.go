package validation

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/username/perfsnap/src/logger"
)

var ErrValidationFailed = errors.New("upload validation failed")

// AllowedClientContentTypes maps client-declared MIME types to the import
// format they imply. An empty format means "decide from the file name".
var AllowedClientContentTypes = map[string]string{
	"text/csv":                 "csv",
	"application/csv":          "csv",
	"application/vnd.ms-excel": "csv", // Excel's CSV export
	"application/json":         "json",
	"text/json":                "json",
	"text/plain":               "",
	"application/octet-stream": "",
}

// ValidateClientContentType checks the Content-Type header of an uploaded part.
func ValidateClientContentType(contentType string) error {
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if _, ok := AllowedClientContentTypes[ct]; !ok {
		logger.L.Warn("Disallowed client-declared Content-Type", "contentType", contentType)
		return fmt.Errorf("%w: client-declared file type '%s' is not allowed", ErrValidationFailed, contentType)
	}
	return nil
}

// DetectFormat picks "csv" or "json" from an explicit format, the declared
// content type and the file extension, in that order.
func DetectFormat(explicit, contentType, filename string) (string, error) {
	if f := strings.ToLower(strings.TrimSpace(explicit)); f != "" {
		if f != "csv" && f != "json" {
			return "", fmt.Errorf("%w: unsupported format '%s'", ErrValidationFailed, explicit)
		}
		return f, nil
	}
	ct := strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	if f := AllowedClientContentTypes[ct]; f != "" {
		return f, nil
	}
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".json":
		return "json", nil
	case ".csv", ".txt", "":
		return "csv", nil
	}
	return "", fmt.Errorf("%w: cannot tell the format of '%s'", ErrValidationFailed, filename)
}

// ValidateFileContentByMagicBytes sniffs the first bytes of file and rejects
// anything that is not text. The read position is reset afterwards.
func ValidateFileContentByMagicBytes(file io.ReadSeeker) (string, error) {
	if file == nil {
		return "", fmt.Errorf("%w: file is nil", ErrValidationFailed)
	}

	buffer := make([]byte, 512)
	n, err := file.Read(buffer)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read file for content type checking: %w", err)
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("failed to reset file read pointer: %w", err)
	}

	detected := http.DetectContentType(buffer[:n])
	detected = strings.ToLower(strings.Split(detected, ";")[0])

	allowedDetectedTypes := map[string]bool{
		"text/plain":               true,
		"text/csv":                 true,
		"application/json":         true,
		"application/octet-stream": true, // strict parsing rejects it later if it is not text
	}
	if !allowedDetectedTypes[detected] {
		logger.L.Warn("Disallowed detected file content type (magic bytes)", "detectedContentType", detected)
		return detected, fmt.Errorf("%w: detected file content type '%s' is not a text table", ErrValidationFailed, detected)
	}
	logger.L.Debug("File content type (magic bytes) validated", "detectedContentType", detected)
	return detected, nil
}
