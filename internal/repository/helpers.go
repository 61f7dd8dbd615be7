package repository

import (
	"database/sql"
	"strings"
)

// nullableString converts an empty string to SQL NULL so absent optional
// fields round-trip as absent.
func nullableString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// fromNullable converts a nullable column to a string, treating NULL and
// whitespace-only values as absent.
func fromNullable(s sql.NullString) string {
	if !s.Valid {
		return ""
	}
	if strings.TrimSpace(s.String) == "" {
		return ""
	}
	return s.String
}
