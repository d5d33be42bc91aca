// src/parsers/factory.go
package parsers

import (
	"fmt"
	"strings"

	"github.com/username/perfsnap/src/config"
	"github.com/username/perfsnap/src/parsers/csvrows"
	"github.com/username/perfsnap/src/parsers/jsonrows"
)

func GetParser(format string, aliases config.ColumnAliases) (Parser, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "csv", "":
		return csvrows.NewParser(aliases), nil
	case "json":
		return jsonrows.NewParser(aliases), nil
	default:
		return nil, fmt.Errorf("no parser available for format: %s", format)
	}
}
