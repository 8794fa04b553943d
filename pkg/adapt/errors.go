package adapt

import (
	"errors"

	"github.com/cpswtree/catree/pkg/tree"
)

// Adapter errors.
var (
	// ErrNotImplemented is matched by every *UnsupportedError.
	ErrNotImplemented = errors.New("not implemented")

	// ErrReadOnly is returned when writing a read-only variable.
	ErrReadOnly = errors.New("variable is read-only")
)

// UnsupportedError reports an operation this binding does not provide.
type UnsupportedError struct {
	// Op names the operation, e.g. "CreateStream".
	Op string

	// Path is the string form of the path the operation was invoked on,
	// empty when not applicable.
	Path string
}

func (e *UnsupportedError) Error() string {
	if e.Path == "" {
		return e.Op + ": not implemented for channel access"
	}
	return e.Op + " " + e.Path + ": not implemented for channel access"
}

// Is matches ErrNotImplemented. Stream creation also matches
// tree.ErrInterfaceNotImplemented.
func (e *UnsupportedError) Is(target error) bool {
	switch target {
	case ErrNotImplemented:
		return true
	case tree.ErrInterfaceNotImplemented:
		return e.Op == opCreateStream || e.Op == opNewStream
	}
	return false
}

const (
	opCreateStream           = "CreateStream"
	opNewStream              = "NewStream"
	opGetValAsync            = "GetValAsync"
	opLoadConfigFromYAMLFile = "LoadConfigFromYAMLFile"
)
