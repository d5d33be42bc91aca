package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const DefaultDateFormat = "2006-01-02"

// snapshotDateLayouts are tried in order. ISO forms come first so that
// ambiguous day/month strings resolve the way spreadsheets export them.
var snapshotDateLayouts = []string{
	"2006-01-02",
	"2006-1-2",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006/01/02",
	"01/02/2006",
	"1/2/2006",
	"02-01-2006",
	"20060102",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
}

// spreadsheetEpoch is day zero of the 1900 date system as exported by
// spreadsheet tools (which count the phantom 1900-02-29).
var spreadsheetEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

const (
	maxSpreadsheetSerial = 2958465 // 9999-12-31
	// minTextSerial keeps bare years such as "2025" from being read as serials.
	minTextSerial = 10000
)

// ParseSnapshotDate resolves a date-like cell to a UTC calendar day.
func ParseSnapshotDate(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case nil:
		return time.Time{}, fmt.Errorf("date is empty")
	case time.Time:
		if v.IsZero() {
			return time.Time{}, fmt.Errorf("date is zero")
		}
		y, m, d := v.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
	case *time.Time:
		if v == nil {
			return time.Time{}, fmt.Errorf("date is empty")
		}
		return ParseSnapshotDate(*v)
	case string:
		return parseDateText(v)
	case json.Number:
		return parseDateText(string(v))
	case float64:
		return fromSerial(v)
	case float32:
		return fromSerial(float64(v))
	case int:
		return fromSerial(float64(v))
	case int64:
		return fromSerial(float64(v))
	case int32:
		return fromSerial(float64(v))
	default:
		return time.Time{}, fmt.Errorf("unsupported date value of type %T", raw)
	}
}

// NormalizeDate returns raw as a YYYY-MM-DD string.
func NormalizeDate(raw any) (string, error) {
	t, err := ParseSnapshotDate(raw)
	if err != nil {
		return "", err
	}
	return t.Format(DefaultDateFormat), nil
}

func parseDateText(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range snapshotDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			y, m, d := t.Date()
			return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), nil
		}
	}
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial >= minTextSerial {
		return fromSerial(serial)
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func fromSerial(serial float64) (time.Time, error) {
	if math.IsNaN(serial) || serial < 1 || serial > maxSpreadsheetSerial {
		return time.Time{}, fmt.Errorf("spreadsheet date serial %v out of range", serial)
	}
	return spreadsheetEpoch.AddDate(0, 0, int(math.Floor(serial))), nil
}

// EndOfMonth returns the last calendar day of t's month.
func EndOfMonth(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m+1, 0, 0, 0, 0, 0, time.UTC)
}

// IsEndOfMonth reports whether t falls on the last day of its month.
func IsEndOfMonth(t time.Time) bool {
	return t.Day() == EndOfMonth(t).Day()
}

// EndOfMonthString maps a YYYY-MM-DD date to its month-end date.
func EndOfMonthString(date string) (string, error) {
	t, err := time.Parse(DefaultDateFormat, date)
	if err != nil {
		return "", fmt.Errorf("invalid date %q want format %q: %w", date, DefaultDateFormat, err)
	}
	return EndOfMonth(t).Format(DefaultDateFormat), nil
}
