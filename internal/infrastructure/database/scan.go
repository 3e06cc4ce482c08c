package database

import (
	"database/sql"
	"time"
)

// TimeFormat is how timestamps are stored in TEXT columns.
const TimeFormat = time.RFC3339

// Scanner is satisfied by *sql.Row and *sql.Rows.
type Scanner interface {
	Scan(dest ...any) error
}

// Now returns the current UTC time truncated to the stored precision,
// along with its text form.
func Now() (time.Time, string) {
	s := time.Now().UTC().Format(TimeFormat)
	t, _ := time.Parse(TimeFormat, s) //nolint:errcheck // format is controlled
	return t, s
}

// ParseTime parses a stored timestamp. SQLite's own datetime() format is
// accepted as a fallback for rows written by hand.
func ParseTime(s string) time.Time {
	if t, err := time.Parse(TimeFormat, s); err == nil {
		return t
	}
	t, _ := time.Parse("2006-01-02 15:04:05", s) //nolint:errcheck // zero time on garbage
	return t
}

// NullString maps "" to NULL.
func NullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// NullStringPtr maps nil or "" to NULL.
func NullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return NullString(*s)
}

// StringPtr converts a scanned nullable column into *string.
func StringPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}
