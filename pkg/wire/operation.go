package wire

// Operation is a request operation.
type Operation uint8

const (
	// OpHello opens a session and exchanges protocol versions.
	OpHello Operation = 1

	// OpSearch resolves a channel name to its metadata.
	OpSearch Operation = 2

	// OpGet reads the current value of a channel.
	OpGet Operation = 3

	// OpPut writes a value, optionally to an element range.
	OpPut Operation = 4

	// OpMonitor subscribes to value changes of a channel.
	OpMonitor Operation = 5

	// OpCancel ends a monitor.
	OpCancel Operation = 6
)

// String returns the operation name.
func (o Operation) String() string {
	switch o {
	case OpHello:
		return "Hello"
	case OpSearch:
		return "Search"
	case OpGet:
		return "Get"
	case OpPut:
		return "Put"
	case OpMonitor:
		return "Monitor"
	case OpCancel:
		return "Cancel"
	default:
		return "Unknown"
	}
}

// IsValid returns true if the operation is known.
func (o Operation) IsValid() bool {
	return o >= OpHello && o <= OpCancel
}

// NeedsName reports whether requests of this operation address a channel.
func (o Operation) NeedsName() bool {
	switch o {
	case OpSearch, OpGet, OpPut, OpMonitor:
		return true
	}
	return false
}
