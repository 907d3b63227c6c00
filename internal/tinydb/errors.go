package tinydb

import (
	"errors"
)

var (
	// ErrIO wraps any failure of the underlying file (open, read, write, seek, close).
	ErrIO = errors.New("i/o error")
	// ErrCorruptFile means the database file cannot be interpreted as a sequence of nodes.
	ErrCorruptFile = errors.New("corrupt database file")
	// ErrOutOfBounds means a page, cell or child index exceeded a fixed capacity.
	// It always indicates a broken invariant inside the engine.
	ErrOutOfBounds = errors.New("index out of bounds")
	// ErrTableFull is returned by Insert when the page capacity ceiling would be exceeded.
	ErrTableFull = errors.New("table full")
	// ErrDuplicateKey is returned by Insert when the key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrInvalidRecord is returned when a record field does not fit its fixed width.
	ErrInvalidRecord = errors.New("invalid record")
)

// IsFatal reports whether err is an invariant violation after which the
// tree can no longer be trusted.
func IsFatal(err error) bool {
	return errors.Is(err, ErrOutOfBounds) || errors.Is(err, ErrCorruptFile)
}
