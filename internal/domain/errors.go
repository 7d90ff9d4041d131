package domain

import "errors"

// ErrNotFound is returned by persistence for absent or soft-deleted rows.
var ErrNotFound = errors.New("not found")
