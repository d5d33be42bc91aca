package jsonrows

import (
	stdjson "encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/username/perfsnap/src/config"
)

func TestJSONParser_Parse(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"array", `[{"ticker":"CWB","kind":"benchmark","date":"2025-07-31","ytd_return":5.10}]`},
		{"rows object", `{"rows":[{"Ticker":"CWB","Kind":"benchmark","Date":"2025-07-31","YTD Return":5.10}]}`},
		{"aliases", `[{"symbol":"CWB","type":"benchmark","as_of_date":"2025-07-31","ytd_return":5.10}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows, err := NewParser(nil).Parse(strings.NewReader(tt.input))
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			if len(rows) != 1 {
				t.Fatalf("Parse() returned %d rows, want 1", len(rows))
			}
			r := rows[0]
			if r.Ticker != "CWB" || r.Kind != "benchmark" || r.Date != "2025-07-31" {
				t.Errorf("Parse() = %+v", r)
			}
			if n, ok := r.Values["ytd_return"].(stdjson.Number); !ok || n.String() != "5.10" {
				t.Errorf("ytd_return = %#v, want json.Number 5.10", r.Values["ytd_return"])
			}
		})
	}
}

func TestJSONParser_DirectFieldBeatsAlias(t *testing.T) {
	rows, err := NewParser(config.ColumnAliases{}).Parse(strings.NewReader(`[{"symbol":"OLD","ticker":"NEW","date":"2025-07-31"}]`))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if rows[0].Ticker != "NEW" {
		t.Errorf("Ticker = %q, want NEW", rows[0].Ticker)
	}
}

func TestJSONParser_Errors(t *testing.T) {
	for _, input := range []string{`{"data":[]}`, `"text"`, `[1,2]`, `[{"ticker":`} {
		if _, err := NewParser(nil).Parse(strings.NewReader(input)); err == nil {
			t.Errorf("Parse(%s) error = nil", input)
		}
	}
	_, err := NewParser(nil).Parse(strings.NewReader(`[1]`))
	if !errors.Is(err, ErrUnexpectedShape) {
		t.Errorf("Parse([1]) error = %v, want ErrUnexpectedShape", err)
	}
}
