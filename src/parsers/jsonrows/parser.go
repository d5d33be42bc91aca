// src/parsers/jsonrows/parser.go
package jsonrows

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/logger"
	"github.com/username/perfsnap/src/models"
)

var ErrUnexpectedShape = errors.New("expected an array of row objects or an object with a \"rows\" array")

// UseNumber keeps numeric cells as json.Number so the normalizer sees the
// source digits rather than a rounded float64.
var json = jsoniter.Config{UseNumber: true, EscapeHTML: false}.Froze()

type JSONParser struct {
	aliases config.ColumnAliases
}

func NewParser(aliases config.ColumnAliases) *JSONParser {
	return &JSONParser{aliases: aliases}
}

// Parse accepts either [{...}, ...] or {"rows": [{...}, ...]}.
func (p *JSONParser) Parse(file io.Reader) ([]models.PerformanceRow, error) {
	var doc any
	if err := json.NewDecoder(file).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}

	items, ok := doc.([]any)
	if !ok {
		obj, isObj := doc.(map[string]any)
		if !isObj {
			return nil, ErrUnexpectedShape
		}
		if items, ok = obj["rows"].([]any); !ok {
			return nil, ErrUnexpectedShape
		}
	}

	rows := make([]models.PerformanceRow, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("row %d: %w", i, ErrUnexpectedShape)
		}
		rows = append(rows, models.NewPerformanceRow(p.resolveKeys(obj)))
	}
	return rows, nil
}

// resolveKeys maps object keys to row fields. A key naming a field directly
// wins over an alias of the same field.
func (p *JSONParser) resolveKeys(obj map[string]any) map[string]any {
	fields := make(map[string]any, len(obj))
	aliased := make(map[string]any)
	for key, value := range obj {
		field, ok := p.aliases.Resolve(key, models.IsRowField)
		if !ok {
			logger.L.Debug("Ignoring unknown JSON field", "field", key)
			continue
		}
		if config.CanonicalHeader(key) == field {
			fields[field] = value
		} else {
			aliased[field] = value
		}
	}
	for field, value := range aliased {
		if _, ok := fields[field]; !ok {
			fields[field] = value
		}
	}
	return fields
}
