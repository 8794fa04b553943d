package softioc

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/tree"
)

// Snapshot is the state of a record as delivered to readers and monitors.
type Snapshot struct {
	Value     any
	CharValue []byte
	Status    int
	Severity  int
	Timestamp time.Time
}

type monitor struct {
	form ca.Form
	fn   func(Snapshot)
}

// store holds the value shared by the records of one variable.
type store struct {
	// notifyMu serializes changes so monitors see them in order.
	notifyMu sync.Mutex

	mu       sync.Mutex
	spec     tree.VarSpec
	info     ca.Info
	ints     []int64
	floats   []float64
	str      string
	ts       time.Time
	monitors map[int]monitor
	nextMon  int
	now      func() time.Time
}

func newStore(spec tree.VarSpec, now func() time.Time) *store {
	s := &store{
		spec:     spec,
		monitors: make(map[int]monitor),
		now:      now,
		ts:       now(),
	}
	switch {
	case spec.Encoding == tree.EncodingASCII:
		s.info = ca.Info{Type: ca.TypeString, Count: 1}
	case spec.Encoding == tree.EncodingIEEE754:
		s.info = ca.Info{Type: ca.TypeDouble, Count: spec.NElms}
		s.floats = make([]float64, spec.NElms)
	default:
		s.info = ca.Info{Type: intType(spec), Count: spec.NElms}
		if len(spec.Enums) > 0 {
			s.info.EnumStrs = slices.Clone(spec.Enums)
		}
		s.ints = make([]int64, spec.NElms)
	}
	return s
}

func intType(spec tree.VarSpec) ca.Type {
	switch {
	case len(spec.Enums) > 0:
		return ca.TypeEnum
	case spec.SizeBits <= 16:
		return ca.TypeShort
	case spec.SizeBits <= 32:
		return ca.TypeLong
	default:
		return ca.TypeInt64
	}
}

// assignLocked converts value and stores it. Nothing changes on error.
func (s *store) assignLocked(value any, opts ca.PutOptions) error {
	spec := s.spec
	switch {
	case spec.Encoding == tree.EncodingASCII:
		if opts.HasRange() {
			return fmt.Errorf("%w: string records take no element range", ErrBadIndex)
		}
		str, err := toText(value, spec.NElms)
		if err != nil {
			return err
		}
		s.str = str
		return nil

	case spec.Encoding == tree.EncodingIEEE754:
		elems := elements(value)
		vals := make([]float64, len(elems))
		for i, e := range elems {
			f, err := toFloat(e, spec.SizeBits)
			if err != nil {
				return err
			}
			vals[i] = f
		}
		return assign(s.floats, vals, opts)

	default:
		elems := elements(value)
		vals := make([]int64, len(elems))
		for i, e := range elems {
			var n int64
			var err error
			if len(spec.Enums) > 0 {
				n, err = enumIndex(e, spec.Enums)
			} else {
				var neg bool
				var mag uint64
				neg, mag, err = integer(e)
				if err == nil {
					n, err = fitInteger(neg, mag, spec.SizeBits, spec.Signed)
				}
			}
			if err != nil {
				return err
			}
			vals[i] = n
		}
		return assign(s.ints, vals, opts)
	}
}

// put stores value and notifies monitors.
func (s *store) put(value any, opts ca.PutOptions) error {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if err := s.assignLocked(value, opts); err != nil {
		s.mu.Unlock()
		return err
	}
	s.ts = s.now()
	s.mu.Unlock()

	s.notify()
	return nil
}

// touch refreshes the timestamp and notifies monitors without a value change.
func (s *store) touch(value string) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.str = value
	s.ts = s.now()
	s.mu.Unlock()

	s.notify()
}

// notify must be called with notifyMu held.
func (s *store) notify() {
	s.mu.Lock()
	ids := make([]int, 0, len(s.monitors))
	for id := range s.monitors {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	mons := make([]monitor, len(ids))
	for i, id := range ids {
		mons[i] = s.monitors[id]
	}
	native := s.snapshotLocked(ca.FormNative)
	ctrl := s.snapshotLocked(ca.FormCtrl)
	s.mu.Unlock()

	for _, m := range mons {
		if m.form == ca.FormCtrl {
			m.fn(ctrl)
		} else {
			m.fn(native)
		}
	}
}

func (s *store) monitor(form ca.Form, fn func(Snapshot)) (cancel func()) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	id := s.nextMon
	s.nextMon++
	s.monitors[id] = monitor{form: form, fn: fn}
	snap := s.snapshotLocked(form)
	s.mu.Unlock()

	fn(snap)

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.monitors, id)
	}
}

func (s *store) snapshot(form ca.Form) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(form)
}

func (s *store) snapshotLocked(form ca.Form) Snapshot {
	snap := Snapshot{Timestamp: s.ts}
	switch s.info.Type {
	case ca.TypeString:
		snap.Value = s.str
		snap.CharValue = []byte(s.str)
	case ca.TypeDouble:
		if len(s.floats) == 1 {
			snap.Value = s.floats[0]
		} else {
			snap.Value = slices.Clone(s.floats)
		}
		snap.CharValue = []byte(joinFormatted(s.floats, func(f float64) string {
			return strconv.FormatFloat(f, 'g', -1, 64)
		}))
	case ca.TypeEnum:
		if len(s.ints) == 1 {
			snap.Value = s.ints[0]
		} else {
			snap.Value = slices.Clone(s.ints)
		}
		snap.CharValue = []byte(joinFormatted(s.ints, func(n int64) string {
			if form == ca.FormCtrl && n >= 0 && n < int64(len(s.info.EnumStrs)) {
				return s.info.EnumStrs[n]
			}
			return strconv.FormatInt(n, 10)
		}))
	default:
		if len(s.ints) == 1 {
			snap.Value = s.ints[0]
		} else {
			snap.Value = slices.Clone(s.ints)
		}
		snap.CharValue = []byte(joinFormatted(s.ints, func(n int64) string {
			return strconv.FormatInt(n, 10)
		}))
	}
	return snap
}

func joinFormatted[T any](xs []T, format func(T) string) string {
	parts := make([]string, len(xs))
	for i, x := range xs {
		parts[i] = format(x)
	}
	return strings.Join(parts, " ")
}
