package adapt

import (
	"time"
	"unicode/utf8"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/tree"
)

// Var is a variable leaf bound to a read channel and, unless read-only, a
// separate write channel.
type Var struct {
	binding

	val      *tree.ScalVal
	readOnly bool
	repr     tree.Repr

	// signOffset is 1<<SizeBits for unsigned non-enum variables narrower
	// than 64 bits. correct is set for every unsigned non-enum variable.
	signOffset uint64
	correct    bool

	write  *binding
	widget Widget
}

// Compile-time interface satisfaction check.
var _ ca.Callback = (*Var)(nil)

func newVar(p *Path, desc *tree.VarDesc) *Var {
	val := desc.Val
	v := &Var{
		binding:  newBinding(p, chname.SuffixRead, val.HasEnums()),
		val:      val,
		readOnly: desc.ReadOnly,
		repr:     desc.Repr,
	}
	if !val.IsSigned() && !val.HasEnums() {
		v.correct = true
		if val.SizeBits() < 64 {
			v.signOffset = uint64(1) << val.SizeBits()
		}
	}
	if !v.readOnly {
		w := newBinding(p, chname.SuffixWrite, false)
		v.write = &w
	}
	return v
}

// Val returns the tree's value interface.
func (v *Var) Val() *tree.ScalVal {
	return v.val
}

// HasEnums reports whether the variable is enumerated; widgets display such
// variables by enum string.
func (v *Var) HasEnums() bool {
	return v.val.HasEnums()
}

// Enums returns the enum strings.
func (v *Var) Enums() []string {
	return v.val.Enums()
}

// IsString reports whether the variable is a character string.
func (v *Var) IsString() bool {
	return v.val.IsString()
}

// ReadOnly reports whether the variable has no write channel.
func (v *Var) ReadOnly() bool {
	return v.readOnly
}

// Repr returns the display representation.
func (v *Var) Repr() tree.Repr {
	return v.repr
}

// SignOffset returns the correction added to negative raw readings. It is
// zero for signed and enumerated variables, and for 64-bit unsigned
// variables whose correction is a plain reinterpretation.
func (v *Var) SignOffset() uint64 {
	return v.signOffset
}

// CorrectsSign reports whether negative raw readings are reinterpreted as
// unsigned.
func (v *Var) CorrectsSign() bool {
	return v.correct
}

// WriteName returns the write channel name, "" for read-only variables.
func (v *Var) WriteName() string {
	if v.write == nil {
		return ""
	}
	return v.write.name
}

// WritePV returns the write channel, nil for read-only variables.
func (v *Var) WritePV() ca.PV {
	if v.write == nil {
		return nil
	}
	return v.write.pv
}

// SetVal writes value to the write channel.
func (v *Var) SetVal(value any) error {
	if v.write == nil {
		return ErrReadOnly
	}
	return v.write.pv.Put(value)
}

// SetValRange writes value to the elements fromIdx..toIdx of an array
// variable. Negative indices mean "not given". The indices are checked by
// the server, not here.
func (v *Var) SetValRange(value any, fromIdx, toIdx int) error {
	if v.write == nil {
		return ErrReadOnly
	}
	return v.write.pv.Put(value, ca.WithRange(fromIdx, toIdx))
}

// SetWidget attaches w, registers v as the read channel's callback and
// pre-populates w with the current value if the channel already has one.
// The pre-populated value is decoded exactly like a monitor event, so w sees
// the same type on both paths.
func (v *Var) SetWidget(w Widget) {
	v.widget = w
	v.pv.AddCallback(v, false)
	if raw, ok := v.pv.Get(0, v.HasEnums()); ok {
		v.Callback(v.decode(raw))
	}
}

// Callback delivers one decoded value to the widget.
func (v *Var) Callback(value any) {
	if v.widget != nil {
		v.widget.AsyncUpdateWidget(value)
	}
}

// OnEvent decodes a monitor update and delivers it.
func (v *Var) OnEvent(ev ca.Event) {
	if v.HasEnums() {
		v.Callback(asciiString(ev.CharValue))
		return
	}
	v.Callback(v.decode(ev.Value))
}

// Get reads the latest value of the read channel, waiting at most timeout
// for one, and decodes it the way callbacks do. ok is false when no value is
// available.
func (v *Var) Get(timeout time.Duration) (value any, ok bool) {
	raw, ok := v.pv.Get(timeout, v.HasEnums())
	if !ok {
		return nil, false
	}
	return v.decode(raw), true
}

// GetValAsync always fails: values are pushed through callbacks.
func (v *Var) GetValAsync() error {
	return &UnsupportedError{Op: opGetValAsync, Path: v.path.String()}
}

// decode turns a raw read into the value handed to widgets.
func (v *Var) decode(raw any) any {
	switch x := raw.(type) {
	case []byte:
		return asciiString(x)
	case string:
		return x
	}
	if v.IsString() || !v.correct {
		return raw
	}
	return v.correctSign(raw)
}

func (v *Var) correctSign(raw any) any {
	if n, ok := asInt64(raw); ok {
		if n < 0 {
			return uint64(n) + v.signOffset
		}
		return raw
	}
	switch xs := raw.(type) {
	case []int64:
		return correctSlice(xs, v.signOffset)
	case []int32:
		return correctSlice(xs, v.signOffset)
	case []int16:
		return correctSlice(xs, v.signOffset)
	case []int:
		return correctSlice(xs, v.signOffset)
	}
	return raw
}

func correctSlice[T int | int16 | int32 | int64](xs []T, offset uint64) any {
	neg := false
	for _, x := range xs {
		if x < 0 {
			neg = true
			break
		}
	}
	if !neg {
		return xs
	}
	out := make([]uint64, len(xs))
	for i, x := range xs {
		out[i] = uint64(int64(x))
		if x < 0 {
			out[i] += offset
		}
	}
	return out
}

func asInt64(raw any) (int64, bool) {
	switch x := raw.(type) {
	case int64:
		return x, true
	case int32:
		return int64(x), true
	case int16:
		return int64(x), true
	case int8:
		return int64(x), true
	case int:
		return int64(x), true
	}
	return 0, false
}

// asciiString decodes a NUL-terminated character array. Bytes outside the
// ASCII range are replaced with utf8.RuneError.
func asciiString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			b = b[:i]
			break
		}
	}
	ascii := true
	for _, c := range b {
		if c >= utf8.RuneSelf {
			ascii = false
			break
		}
	}
	if ascii {
		return string(b)
	}
	out := make([]rune, len(b))
	for i, c := range b {
		if c >= utf8.RuneSelf {
			out[i] = utf8.RuneError
		} else {
			out[i] = rune(c)
		}
	}
	return string(out)
}
