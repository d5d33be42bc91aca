// src/parsers/csvrows/parser.go
package csvrows

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
	"github.com/username/perfsnap/src/security/validation"
)

var ErrMissingColumn = errors.New("required column missing")

type CSVParser struct {
	aliases config.ColumnAliases
}

func NewParser(aliases config.ColumnAliases) *CSVParser {
	return &CSVParser{aliases: aliases}
}

// Parse reads a header line followed by data rows. Columns are matched to
// row fields by header; unknown columns are ignored and blank lines skipped.
func (p *CSVParser) Parse(file io.Reader) ([]models.PerformanceRow, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	columns := make(map[int]string, len(header))
	seen := make(map[string]bool)
	for i, h := range header {
		field, ok := p.aliases.Resolve(validation.CleanCell(h), models.IsRowField)
		if !ok {
			logger.L.Debug("Ignoring unknown CSV column", "header", h)
			continue
		}
		if seen[field] {
			logger.L.Warn("Duplicate CSV column, keeping the first", "header", h, "field", field)
			continue
		}
		seen[field] = true
		columns[i] = field
	}
	for _, required := range []string{"ticker", "date"} {
		if !seen[required] {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	var rows []models.PerformanceRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV line %d: %w", line, err)
		}

		fields := make(map[string]any, len(columns))
		blank := true
		for i, cell := range record {
			field, ok := columns[i]
			if !ok {
				continue
			}
			cell = validation.CleanCell(cell)
			if cell != "" {
				blank = false
			}
			fields[field] = cell
		}
		if blank {
			continue
		}
		rows = append(rows, models.NewPerformanceRow(fields))
	}
	return rows, nil
}
