package store

import "errors"

var (
	// ErrUnavailable wraps every failure of the underlying database:
	// locked or missing file, full disk, closed handle.
	ErrUnavailable = errors.New("calculation store unavailable")
)
