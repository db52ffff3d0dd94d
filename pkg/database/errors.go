package database

import (
	"errors"
	"time"

	"github.com/mattn/go-sqlite3"
)

// IsUniqueViolation reports whether err came from a UNIQUE or PRIMARY KEY constraint.
func IsUniqueViolation(err error) bool {
	var se sqlite3.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.ExtendedCode == sqlite3.ErrConstraintUnique || se.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
}

// FromNanos converts a stored unix-nanosecond column back to UTC time.
func FromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
