package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ColumnAliases maps a canonical row field (ticker, date, kind or a metric
// name) to the extra spreadsheet headers that should be read as that field.
//
//	ytd_return:
//	  - "YTD %"
//	  - "Return YTD"
type ColumnAliases map[string][]string

// LoadColumnAliases reads an alias file. An empty path yields no aliases.
func LoadColumnAliases(path string) (ColumnAliases, error) {
	if path == "" {
		return ColumnAliases{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading column aliases %q: %w", path, err)
	}
	var aliases ColumnAliases
	if err := yaml.Unmarshal(raw, &aliases); err != nil {
		return nil, fmt.Errorf("parsing column aliases %q: %w", path, err)
	}
	out := make(ColumnAliases, len(aliases))
	for field, headers := range aliases {
		field = strings.ToLower(strings.TrimSpace(field))
		if field == "" {
			continue
		}
		out[field] = append(out[field], headers...)
	}
	return out, nil
}

// builtinAliases are header spellings accepted without an alias file.
var builtinAliases = ColumnAliases{
	"ticker": {"symbol", "fund_ticker", "benchmark_ticker", "instrument"},
	"date":   {"as_of_date", "asof_date", "asofdate", "snapshot_date"},
	"kind":   {"type", "instrument_type"},
}

// CanonicalHeader lower-cases h, trims it and turns runs of spaces, hyphens
// and dots into single underscores.
func CanonicalHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	var b strings.Builder
	pendingSep := false
	for _, r := range h {
		switch r {
		case ' ', '-', '.', '_', '\t':
			pendingSep = b.Len() > 0
			continue
		}
		if pendingSep {
			b.WriteByte('_')
			pendingSep = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Resolve maps a source header to its row field. Headers already naming a
// field pass through; otherwise configured aliases win over built-in ones.
// ok is false when the header is unknown.
func (a ColumnAliases) Resolve(header string, isField func(string) bool) (string, bool) {
	h := CanonicalHeader(header)
	if h == "" {
		return "", false
	}
	if isField(h) {
		return h, true
	}
	for _, set := range []ColumnAliases{a, builtinAliases} {
		for field, names := range set {
			for _, name := range names {
				if CanonicalHeader(name) == h {
					return field, true
				}
			}
		}
	}
	return "", false
}
