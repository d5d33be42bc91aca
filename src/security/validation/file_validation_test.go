package validation

import (
	"bytes"
	"errors"
	"io"
	"testing"
)

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		explicit, contentType, filename string
		want                            string
		wantErr                         bool
	}{
		{"JSON", "", "", "json", false},
		{"", "application/json; charset=utf-8", "", "json", false},
		{"", "text/csv", "x.json", "csv", false},
		{"", "application/octet-stream", "july.json", "json", false},
		{"", "", "july.CSV", "csv", false},
		{"", "", "", "csv", false},
		{"xlsx", "", "", "", true},
		{"", "", "july.xlsx", "", true},
	}
	for _, tt := range tests {
		got, err := DetectFormat(tt.explicit, tt.contentType, tt.filename)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("DetectFormat(%q, %q, %q) = %q, %v; want %q", tt.explicit, tt.contentType, tt.filename, got, err, tt.want)
		}
	}
}

func TestValidateClientContentType(t *testing.T) {
	if err := ValidateClientContentType("text/csv; charset=utf-8"); err != nil {
		t.Errorf("ValidateClientContentType(text/csv) error = %v", err)
	}
	if err := ValidateClientContentType("image/png"); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("ValidateClientContentType(image/png) error = %v, want ErrValidationFailed", err)
	}
}

func TestValidateFileContentByMagicBytes(t *testing.T) {
	r := bytes.NewReader([]byte("ticker,date\nAAA,2025-07-31\n"))
	if _, err := ValidateFileContentByMagicBytes(r); err != nil {
		t.Fatalf("ValidateFileContentByMagicBytes(csv) error = %v", err)
	}
	rest, _ := io.ReadAll(r)
	if !bytes.HasPrefix(rest, []byte("ticker")) {
		t.Error("read position was not reset")
	}

	png := bytes.NewReader([]byte("\x89PNG\r\n\x1a\n0000"))
	if _, err := ValidateFileContentByMagicBytes(png); !errors.Is(err, ErrValidationFailed) {
		t.Errorf("ValidateFileContentByMagicBytes(png) error = %v, want ErrValidationFailed", err)
	}
}

func TestCleanCell(t *testing.T) {
	if got := CleanCell("\ufeff  Fund\u00a0Name \x00"); got != "Fund Name" {
		t.Errorf("CleanCell() = %q, want %q", got, "Fund Name")
	}
}
