package wire

import "fmt"

// Status represents a response status code.
type Status uint8

const (
	// StatusSuccess indicates the operation completed successfully.
	StatusSuccess Status = 0

	// StatusNoSuchChannel indicates the channel name is not served.
	StatusNoSuchChannel Status = 1

	// StatusReadOnly indicates a put to a read channel.
	StatusReadOnly Status = 2

	// StatusInvalidValue indicates a value the channel does not accept.
	StatusInvalidValue Status = 3

	// StatusOutOfRange indicates a value outside the channel's range.
	StatusOutOfRange Status = 4

	// StatusBadIndex indicates an element range outside the channel.
	StatusBadIndex Status = 5

	// StatusUnsupported indicates the operation is not supported.
	StatusUnsupported Status = 6

	// StatusIncompatible indicates a protocol version mismatch.
	StatusIncompatible Status = 7

	// StatusNoSuchMonitor indicates a cancel for an unknown monitor.
	StatusNoSuchMonitor Status = 8

	// StatusInternal indicates a server-side failure.
	StatusInternal Status = 9
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "SUCCESS"
	case StatusNoSuchChannel:
		return "NO_SUCH_CHANNEL"
	case StatusReadOnly:
		return "READ_ONLY"
	case StatusInvalidValue:
		return "INVALID_VALUE"
	case StatusOutOfRange:
		return "OUT_OF_RANGE"
	case StatusBadIndex:
		return "BAD_INDEX"
	case StatusUnsupported:
		return "UNSUPPORTED"
	case StatusIncompatible:
		return "INCOMPATIBLE"
	case StatusNoSuchMonitor:
		return "NO_SUCH_MONITOR"
	case StatusInternal:
		return "INTERNAL"
	default:
		return "UNKNOWN"
	}
}

// IsSuccess returns true if the status indicates success.
func (s Status) IsSuccess() bool {
	return s == StatusSuccess
}

// IsError returns true if the status indicates an error.
func (s Status) IsError() bool {
	return s != StatusSuccess
}

// StatusError is a non-success response turned into an error.
type StatusError struct {
	Status  Status
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("status %s", e.Status)
	}
	return fmt.Sprintf("status %s: %s", e.Status, e.Message)
}
