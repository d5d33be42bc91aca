package validation

import (
	"strings"
	"unicode"
)

// StripUnprintable removes non-printable characters (including a UTF-8 BOM),
// keeping space, tab, newline and carriage return.
func StripUnprintable(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsPrint(r) || r == '\t' || r == '\n' || r == '\r' {
			return r
		}
		return -1
	}, s)
}

// CleanCell trims a spreadsheet cell and drops invisible characters that
// spreadsheet exports like to leave behind.
func CleanCell(s string) string {
	return strings.TrimSpace(StripUnprintable(strings.ReplaceAll(s, "\u00a0", " ")))
}
