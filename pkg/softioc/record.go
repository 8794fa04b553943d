package softioc

import (
	"fmt"
	"strings"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/tree"
)

// RecordKind is the role of a record.
type RecordKind uint8

const (
	// RecordRead is the read/monitor record of a variable.
	RecordRead RecordKind = iota

	// RecordWrite is the write record of a writable variable.
	RecordWrite

	// RecordExec is the trigger record of a command.
	RecordExec
)

// String returns the kind name.
func (k RecordKind) String() string {
	switch k {
	case RecordRead:
		return "read"
	case RecordWrite:
		return "write"
	case RecordExec:
		return "exec"
	default:
		return "unknown"
	}
}

// Record is one named channel of the database.
type Record struct {
	name  string
	kind  RecordKind
	node  *tree.Node
	store *store
	db    *Database
}

// Name returns the record name.
func (r *Record) Name() string { return r.name }

// Kind returns the record role.
func (r *Record) Kind() RecordKind { return r.kind }

// Node returns the tree node the record serves.
func (r *Record) Node() *tree.Node { return r.node }

// Info returns the channel metadata.
func (r *Record) Info() ca.Info {
	info := r.store.info
	info.EnumStrs = append([]string(nil), info.EnumStrs...)
	return info
}

// Snapshot returns the current value in the given form.
func (r *Record) Snapshot(form ca.Form) Snapshot {
	return r.store.snapshot(form)
}

// Monitor calls fn with the current value before it returns, then with every
// change until cancel is called. fn runs on the writer's goroutine and must
// neither block nor write the record.
func (r *Record) Monitor(form ca.Form, fn func(Snapshot)) (cancel func()) {
	return r.store.monitor(form, fn)
}

// Put writes value. Read records reject writes; trigger records run their
// command.
func (r *Record) Put(value any, opts ca.PutOptions) error {
	switch r.kind {
	case RecordRead:
		return fmt.Errorf("%w: %s", ErrReadOnly, r.name)
	case RecordExec:
		if !isRun(value) {
			return fmt.Errorf("%w: %v does not trigger %s", ErrBadValue, value, r.node)
		}
		if err := r.db.run(r.node); err != nil {
			return err
		}
		r.store.touch("Run")
		return nil
	}
	return r.store.put(value, opts)
}

// Suffix returns the channel name suffix of the record's kind.
func (r *Record) Suffix() string {
	switch r.kind {
	case RecordRead:
		return chname.SuffixRead
	case RecordWrite:
		return chname.SuffixWrite
	default:
		return chname.SuffixExec
	}
}

func isRun(value any) bool {
	switch x := value.(type) {
	case string:
		return strings.EqualFold(strings.TrimSpace(x), "run")
	case []byte:
		return isRun(string(x))
	}
	neg, mag, err := integer(value)
	return err == nil && (neg || mag != 0)
}
