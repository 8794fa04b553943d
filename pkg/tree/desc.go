package tree

import (
	"fmt"
	"math/bits"
)

// Defaults applied by VarSpec normalization.
const (
	DefaultSizeBits  = 32
	DefaultStringLen = 40
)

// VarSpec describes a variable leaf.
type VarSpec struct {
	// SizeBits is the width of one element. Integers: 1..64 (default 32).
	// Floats: 32 or 64 (default 64). Strings: always 8.
	SizeBits int

	// Signed marks two's-complement integers. Floats are always signed.
	Signed bool

	// Encoding selects integer, string or float interpretation.
	Encoding Encoding

	// Enums lists the symbolic names of the values 0..len-1.
	Enums []string

	// NElms is the element count for arrays, or the maximum length of a
	// string. Default 1 (40 for strings).
	NElms int

	// Mode is the access mode.
	Mode Mode

	// Repr is an explicit display hint.
	Repr Repr

	// Init is the initial value a server assigns to the variable.
	Init any
}

func (s VarSpec) normalize() (VarSpec, error) {
	switch s.Encoding {
	case EncodingASCII:
		if len(s.Enums) > 0 {
			return s, fmt.Errorf("%w: string variable cannot have enums", ErrInvalidSpec)
		}
		s.SizeBits = 8
		s.Signed = false
		if s.NElms == 0 {
			s.NElms = DefaultStringLen
		}
	case EncodingIEEE754:
		if len(s.Enums) > 0 {
			return s, fmt.Errorf("%w: float variable cannot have enums", ErrInvalidSpec)
		}
		if s.SizeBits == 0 {
			s.SizeBits = 64
		}
		if s.SizeBits != 32 && s.SizeBits != 64 {
			return s, fmt.Errorf("%w: float width must be 32 or 64, got %d", ErrInvalidSpec, s.SizeBits)
		}
		s.Signed = true
	case EncodingNone:
		if len(s.Enums) > 0 {
			if s.Signed {
				return s, fmt.Errorf("%w: enum variable cannot be signed", ErrInvalidSpec)
			}
			if s.SizeBits == 0 {
				s.SizeBits = max(1, bits.Len(uint(len(s.Enums)-1)))
			}
		}
		if s.SizeBits == 0 {
			s.SizeBits = DefaultSizeBits
		}
		if s.SizeBits < 1 || s.SizeBits > 64 {
			return s, fmt.Errorf("%w: integer width must be 1..64, got %d", ErrInvalidSpec, s.SizeBits)
		}
		if len(s.Enums) > 0 && s.SizeBits < 64 && uint64(len(s.Enums)) > uint64(1)<<s.SizeBits {
			return s, fmt.Errorf("%w: %d enums do not fit %d bits", ErrInvalidSpec, len(s.Enums), s.SizeBits)
		}
	default:
		return s, fmt.Errorf("%w: unknown encoding %q", ErrInvalidSpec, s.Encoding)
	}
	if s.NElms == 0 {
		s.NElms = 1
	}
	if s.NElms < 0 {
		return s, fmt.Errorf("%w: negative element count", ErrInvalidSpec)
	}
	return s, nil
}

// ScalVal is the value interface of a variable leaf.
type ScalVal struct {
	path Path
	spec VarSpec
}

// Path returns the variable's path.
func (v *ScalVal) Path() Path { return v.path }

// SizeBits returns the element width in bits.
func (v *ScalVal) SizeBits() int { return v.spec.SizeBits }

// IsSigned reports two's-complement interpretation.
func (v *ScalVal) IsSigned() bool { return v.spec.Signed }

// Encoding returns the element encoding.
func (v *ScalVal) Encoding() Encoding { return v.spec.Encoding }

// Enums returns the enum names, nil when the variable is not enumerated.
func (v *ScalVal) Enums() []string { return v.spec.Enums }

// HasEnums reports whether the variable is enumerated.
func (v *ScalVal) HasEnums() bool { return len(v.spec.Enums) > 0 }

// IsString reports whether the variable is a character string.
func (v *ScalVal) IsString() bool { return v.spec.Encoding == EncodingASCII }

// IsFloat reports whether the variable is a float.
func (v *ScalVal) IsFloat() bool { return v.spec.Encoding == EncodingIEEE754 }

// NElms returns the element count.
func (v *ScalVal) NElms() int { return v.spec.NElms }

// Mode returns the access mode.
func (v *ScalVal) Mode() Mode { return v.spec.Mode }

// Init returns the configured initial value.
func (v *ScalVal) Init() any { return v.spec.Init }

// VarDesc is what CreateVar produces: the value interface plus the access
// mode and representation the tree chose for it.
type VarDesc struct {
	Val      *ScalVal
	ReadOnly bool
	Repr     Repr
}

// SeqStep is one write performed by a sequence command.
type SeqStep struct {
	// Path is resolved relative to the command's parent.
	Path string `yaml:"path"`

	// Value is written to the variable at Path.
	Value any `yaml:"value"`
}

// CmdDesc is what CreateCmd produces.
type CmdDesc struct {
	path     Path
	sequence []SeqStep
}

// Path returns the command's path.
func (c *CmdDesc) Path() Path { return c.path }

// Sequence returns the writes the command performs.
func (c *CmdDesc) Sequence() []SeqStep { return c.sequence }

// StreamDesc is what CreateStream produces.
type StreamDesc struct {
	path Path
}

// Path returns the stream's path.
func (s *StreamDesc) Path() Path { return s.path }
