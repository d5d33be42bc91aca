package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
)

// Codes reported for failures that do not come from the database engine.
const (
	CodeCancelled = "cancelled"
	CodeTimeout   = "timeout"
	CodeUnknown   = "unknown"
)

// ErrorCode extracts a short machine-readable code from a store error.
func ErrorCode(err error) string {
	if err == nil {
		return ""
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		return sqliteCode(liteErr.Code())
	}
	var coded interface{ ErrorCode() string }
	if errors.As(err, &coded) {
		return coded.ErrorCode()
	}
	switch {
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	case errors.Is(err, context.DeadlineExceeded):
		return CodeTimeout
	}
	return CodeUnknown
}

// CodedError lets a store (or a test double) attach its own code to an error.
type CodedError struct {
	Code string
	Err  error
}

func (e *CodedError) Error() string     { return e.Err.Error() }
func (e *CodedError) Unwrap() error     { return e.Err }
func (e *CodedError) ErrorCode() string { return e.Code }
