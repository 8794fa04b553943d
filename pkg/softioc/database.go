package softioc

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/tree"
)

// Config configures a Database.
type Config struct {
	// Namer derives record names from tree paths.
	Namer chname.Namer

	// Now supplies record timestamps. Defaults to time.Now.
	Now func() time.Time

	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger
}

// Database is a set of records served from one tree. The set of records is
// fixed at construction; record values are safe for concurrent use.
type Database struct {
	namer   chname.Namer
	logger  *slog.Logger
	records map[string]*Record
	stores  map[*tree.Node]*store
}

// NewDatabase creates the records of every variable and command under root.
// Variables are initialized with their configured initial value.
func NewDatabase(root *tree.Node, cfg Config) (*Database, error) {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	db := &Database{
		namer:   cfg.Namer,
		logger:  cfg.Logger,
		records: make(map[string]*Record),
		stores:  make(map[*tree.Node]*store),
	}

	err := root.Walk(func(n *tree.Node) error {
		switch n.Kind() {
		case tree.KindVar:
			spec := n.VarSpec()
			st := newStore(spec, now)
			if spec.Init != nil {
				if err := st.assignLocked(spec.Init, ca.NewPutOptions()); err != nil {
					return fmt.Errorf("%s: init: %w", n, err)
				}
			}
			db.stores[n] = st
			if err := db.add(n, chname.SuffixRead, RecordRead, st); err != nil {
				return err
			}
			if spec.Mode != tree.ModeRO {
				return db.add(n, chname.SuffixWrite, RecordWrite, st)
			}
		case tree.KindCmd:
			st := newStore(tree.VarSpec{
				Encoding: tree.EncodingASCII,
				SizeBits: 8,
				NElms:    tree.DefaultStringLen,
			}, now)
			return db.add(n, chname.SuffixExec, RecordExec, st)
		case tree.KindStream:
			db.debug("stream not served", "path", n.String())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (db *Database) add(n *tree.Node, suffix string, kind RecordKind, st *store) error {
	name := db.namer.Hash(n, suffix)
	if prev, dup := db.records[name]; dup {
		return fmt.Errorf("%w: %s for %s%s and %s%s", ErrDuplicate, name,
			prev.node, prev.Suffix(), n, suffix)
	}
	db.records[name] = &Record{name: name, kind: kind, node: n, store: st, db: db}
	db.debug("record", "name", name, "path", n.String(), "suffix", suffix)
	return nil
}

// Namer returns the naming parameters.
func (db *Database) Namer() chname.Namer {
	return db.namer
}

// Lookup returns the record called name.
func (db *Database) Lookup(name string) (*Record, error) {
	r, ok := db.records[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoRecord, name)
	}
	return r, nil
}

// LookupPath returns the record of the node at path in the role of suffix.
func (db *Database) LookupPath(path fmt.Stringer, suffix string) (*Record, error) {
	return db.Lookup(db.namer.Hash(path, suffix))
}

// Records returns all records sorted by name.
func (db *Database) Records() []*Record {
	out := make([]*Record, 0, len(db.records))
	for _, r := range db.records {
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b *Record) int { return strings.Compare(a.name, b.name) })
	return out
}

// Len returns the number of records.
func (db *Database) Len() int {
	return len(db.records)
}

// run executes the sequence of a command.
func (db *Database) run(cmd *tree.Node) error {
	desc, err := cmd.CreateCmd()
	if err != nil {
		return err
	}
	base := cmd
	if parent, perr := cmd.Lookup(".."); perr == nil {
		base = parent
	}
	for i, step := range desc.Sequence() {
		if step.Path == "usleep" {
			neg, us, err := integer(step.Value)
			if err != nil || neg {
				return fmt.Errorf("%s step %d: bad usleep %v", cmd, i, step.Value)
			}
			time.Sleep(time.Duration(us) * time.Microsecond)
			continue
		}
		target, err := base.Lookup(step.Path)
		if err != nil {
			return fmt.Errorf("%s step %d: %w", cmd, i, err)
		}
		st, ok := db.stores[target]
		if !ok {
			return fmt.Errorf("%s step %d: %s is a %s: %w", cmd, i, target, target.Kind(), tree.ErrInterfaceNotImplemented)
		}
		if err := st.put(step.Value, ca.NewPutOptions()); err != nil {
			return fmt.Errorf("%s step %d (%s): %w", cmd, i, target, err)
		}
	}
	return nil
}

func (db *Database) debug(msg string, args ...any) {
	if db.logger != nil {
		db.logger.Debug(msg, args...)
	}
}
