package softioc

import "errors"

// Database errors.
var (
	ErrNoRecord   = errors.New("no such record")
	ErrReadOnly   = errors.New("record is read-only")
	ErrBadValue   = errors.New("value not accepted")
	ErrOutOfRange = errors.New("value out of range")
	ErrBadIndex   = errors.New("element index out of range")
	ErrDuplicate  = errors.New("duplicate record name")
)
