// Package softioc serves a device tree as a database of channel records.
//
// NewDatabase walks a tree and creates, for every variable, a read record
// (suffix "Rd") and, unless the variable is read-only, a write record
// (suffix "St") sharing the same storage. Every command gets a trigger record
// (suffix "Ex"). Record names are derived with a chname.Namer, so a client
// using the same naming parameters finds them by hashing tree paths.
//
// # Storage
//
// Integer variables are stored as the two's-complement reading of their
// width: an unsigned 16-bit variable holding 0xffff reads back as -1, the
// way an unsigned register arrives through a signed native channel type.
// Readers reinterpret negative values with the sign offset 1<<SizeBits.
// Integers of up to 16 bits are served as TypeShort, up to 32 bits as
// TypeLong, wider ones as TypeInt64.
//
// Enumerated variables accept an index or one of their enum strings.
// String variables accept ASCII text of at most NElms bytes. Array variables
// accept element ranges (ca.WithRange).
//
// # Commands
//
// Writing "Run" (or a non-zero integer) to a trigger record executes the
// command's sequence: each step writes a value to a variable named relative
// to the command's parent. A step whose path is "usleep" pauses for the
// given number of microseconds instead.
//
// # Local client
//
// Local is an in-process ca.Client on top of a Database, used by tests and by
// tools that serve and browse a tree in one process.
package softioc
