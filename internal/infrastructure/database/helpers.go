package database

import (
	"database/sql"
	"errors"
)

// isNoRows reports whether a QueryRow scan matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
