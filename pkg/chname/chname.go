// Package chname derives protocol channel names from hierarchical tree paths.
//
// A channel name is the wire-level identifier other systems use to find a
// tree node, so the derivation must be reproduced bit-exactly:
//
//	name = RecordPrefix + upper(hex(SHA1(HashPrefix + path + suffix)))
//
// truncated to MaxLen characters.
package chname

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"strings"
)

// Role suffixes appended to a path before hashing.
const (
	// SuffixRead marks the read/monitor channel of a variable.
	SuffixRead = "Rd"

	// SuffixWrite marks the write channel of a writable variable.
	SuffixWrite = "St"

	// SuffixExec marks the trigger channel of a command.
	SuffixExec = "Ex"
)

// Defaults used by DefaultNamer.
const (
	DefaultHashPrefix   = ""
	DefaultRecordPrefix = "CPSW:"

	// DefaultMaxLen keeps the whole 40-character digest behind the default prefix.
	DefaultMaxLen = len(DefaultRecordPrefix) + 2*sha1.Size
)

// Namer holds the naming parameters shared by every channel of a deployment.
type Namer struct {
	// HashPrefix is prepended to the path before hashing. It is part of the
	// externally visible "full" name.
	HashPrefix string

	// RecordPrefix is prepended to the hex digest.
	RecordPrefix string

	// MaxLen bounds the length of the derived name. Zero or negative disables
	// truncation.
	MaxLen int
}

// DefaultNamer returns a Namer with the package defaults.
func DefaultNamer() Namer {
	return Namer{
		HashPrefix:   DefaultHashPrefix,
		RecordPrefix: DefaultRecordPrefix,
		MaxLen:       DefaultMaxLen,
	}
}

// Full returns HashPrefix + path + suffix, the canonical externally visible
// name of a path in a given role.
func (n Namer) Full(path fmt.Stringer, suffix string) string {
	return n.HashPrefix + path.String() + suffix
}

// Hash returns the channel name for path in the role given by suffix.
func (n Namer) Hash(path fmt.Stringer, suffix string) string {
	return n.HashString(n.Full(path, suffix))
}

// HashString derives a channel name from an already assembled full name.
func (n Namer) HashString(full string) string {
	sum := sha1.Sum([]byte(full))
	name := n.RecordPrefix + strings.ToUpper(hex.EncodeToString(sum[:]))
	if n.MaxLen > 0 && len(name) > n.MaxLen {
		name = name[:n.MaxLen]
	}
	return name
}

// String is a convenience fmt.Stringer for plain path strings.
type String string

// String returns s.
func (s String) String() string { return string(s) }
