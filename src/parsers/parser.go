// src/parsers/parser.go
package parsers

import (
	"io"

	"github.com/username/perfsnap/src/models"
)

// Parser turns an uploaded table into raw rows. Parsers only map columns to
// fields; every value is left for the pipeline to normalize.
type Parser interface {
	Parse(file io.Reader) ([]models.PerformanceRow, error)
}
