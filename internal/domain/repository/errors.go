package repository

import "errors"

// ErrNotFound is returned when a keyed lookup matches nothing.
var ErrNotFound = errors.New("record not found")
