package tree

import (
	"fmt"
	"strings"
)

// Kind identifies the role of a node.
type Kind uint8

const (
	// KindDev is a hub node that only groups children.
	KindDev Kind = iota

	// KindVar is a scalar (or array) variable.
	KindVar

	// KindCmd is an executable command.
	KindCmd

	// KindStream is a byte stream.
	KindStream
)

// String returns the kind name as used in YAML.
func (k Kind) String() string {
	switch k {
	case KindDev:
		return "dev"
	case KindVar:
		return "var"
	case KindCmd:
		return "cmd"
	case KindStream:
		return "stream"
	default:
		return "unknown"
	}
}

// ParseKind parses a kind name.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dev", "hub":
		return KindDev, nil
	case "var", "field":
		return KindVar, nil
	case "cmd", "command":
		return KindCmd, nil
	case "stream":
		return KindStream, nil
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidSpec, s)
}

// Mode is the access mode of a variable.
type Mode uint8

const (
	ModeRW Mode = iota
	ModeRO
	ModeWO
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeRW:
		return "RW"
	case ModeRO:
		return "RO"
	case ModeWO:
		return "WO"
	default:
		return "??"
	}
}

// ParseMode parses "RW", "RO" or "WO" (case-insensitive). Empty means RW.
func ParseMode(s string) (Mode, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "RW":
		return ModeRW, nil
	case "RO":
		return ModeRO, nil
	case "WO":
		return ModeWO, nil
	}
	return 0, fmt.Errorf("%w: unknown mode %q", ErrInvalidSpec, s)
}

// Encoding describes how the bits of a variable are interpreted.
type Encoding string

const (
	// EncodingNone is a plain integer.
	EncodingNone Encoding = ""

	// EncodingASCII is a character string of at most NElms bytes.
	EncodingASCII Encoding = "ascii"

	// EncodingIEEE754 is a 32 or 64 bit float.
	EncodingIEEE754 Encoding = "ieee754"
)

// Repr is the preferred display representation of a variable.
type Repr uint8

const (
	// ReprNone means no opinion.
	ReprNone Repr = iota
	ReprInt
	ReprHex
	ReprFloat
	ReprString
	ReprEnum
)

// String returns the representation name.
func (r Repr) String() string {
	switch r {
	case ReprNone:
		return "none"
	case ReprInt:
		return "int"
	case ReprHex:
		return "hex"
	case ReprFloat:
		return "float"
	case ReprString:
		return "string"
	case ReprEnum:
		return "enum"
	default:
		return "unknown"
	}
}

// ParseRepr parses a representation name. Empty yields ReprNone.
func ParseRepr(s string) (Repr, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return ReprNone, nil
	case "int", "dec":
		return ReprInt, nil
	case "hex":
		return ReprHex, nil
	case "float":
		return ReprFloat, nil
	case "string":
		return ReprString, nil
	case "enum":
		return ReprEnum, nil
	}
	return 0, fmt.Errorf("%w: unknown repr %q", ErrInvalidSpec, s)
}
