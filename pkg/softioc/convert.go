package softioc

import (
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/cpswtree/catree/pkg/ca"
)

// elements flattens a put value into its elements. Scalars yield one element;
// []byte is a scalar (character data).
func elements(value any) []any {
	if value == nil {
		return []any{nil}
	}
	if _, ok := value.([]byte); ok {
		return []any{value}
	}
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// integer parses v as a sign and magnitude.
func integer(v any) (neg bool, mag uint64, err error) {
	switch x := v.(type) {
	case int:
		return signMag(int64(x))
	case int8:
		return signMag(int64(x))
	case int16:
		return signMag(int64(x))
	case int32:
		return signMag(int64(x))
	case int64:
		return signMag(x)
	case uint:
		return false, uint64(x), nil
	case uint8:
		return false, uint64(x), nil
	case uint16:
		return false, uint64(x), nil
	case uint32:
		return false, uint64(x), nil
	case uint64:
		return false, x, nil
	case bool:
		if x {
			return false, 1, nil
		}
		return false, 0, nil
	case float32:
		return floatInteger(float64(x))
	case float64:
		return floatInteger(x)
	case string:
		s := strings.TrimSpace(x)
		if strings.HasPrefix(s, "-") {
			n, perr := strconv.ParseInt(s, 0, 64)
			if perr != nil {
				return false, 0, fmt.Errorf("%w: %q is not an integer", ErrBadValue, x)
			}
			return signMag(n)
		}
		u, perr := strconv.ParseUint(strings.TrimPrefix(s, "+"), 0, 64)
		if perr != nil {
			return false, 0, fmt.Errorf("%w: %q is not an integer", ErrBadValue, x)
		}
		return false, u, nil
	}
	return false, 0, fmt.Errorf("%w: %T is not an integer", ErrBadValue, v)
}

func signMag(n int64) (bool, uint64, error) {
	if n < 0 {
		return true, ^uint64(n) + 1, nil
	}
	return false, uint64(n), nil
}

func floatInteger(f float64) (bool, uint64, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Trunc(f) != f {
		return false, 0, fmt.Errorf("%w: %v is not an integer", ErrBadValue, f)
	}
	if f < 0 {
		if f < math.MinInt64 {
			return false, 0, fmt.Errorf("%w: %v", ErrOutOfRange, f)
		}
		return signMag(int64(f))
	}
	if f >= math.MaxUint64 {
		return false, 0, fmt.Errorf("%w: %v", ErrOutOfRange, f)
	}
	return false, uint64(f), nil
}

// signExtend reads the low bits of x as a two's-complement number.
func signExtend(x uint64, bits int) int64 {
	shift := 64 - bits
	return int64(x<<shift) >> shift
}

// fitInteger checks that a value fits a variable of the given width and
// returns its stored form. Unsigned variables also accept the negative
// two's-complement reading of a value.
func fitInteger(neg bool, mag uint64, bits int, signed bool) (int64, error) {
	half := uint64(1) << (bits - 1)
	if neg {
		if mag > half {
			return 0, fmt.Errorf("%w: -%d does not fit %d bits", ErrOutOfRange, mag, bits)
		}
		return int64(^mag + 1), nil
	}
	if signed {
		if mag > half-1 {
			return 0, fmt.Errorf("%w: %d does not fit %d signed bits", ErrOutOfRange, mag, bits)
		}
		return int64(mag), nil
	}
	if bits < 64 && mag >= uint64(1)<<bits {
		return 0, fmt.Errorf("%w: %d does not fit %d bits", ErrOutOfRange, mag, bits)
	}
	return signExtend(mag, bits), nil
}

func enumIndex(v any, enums []string) (int64, error) {
	switch x := v.(type) {
	case string:
		for i, e := range enums {
			if e == x {
				return int64(i), nil
			}
		}
		// Fall through to numeric input like "2".
		if _, err := strconv.ParseUint(strings.TrimSpace(x), 0, 64); err != nil {
			return 0, fmt.Errorf("%w: %q is not one of %v", ErrBadValue, x, enums)
		}
	case []byte:
		return enumIndex(string(x), enums)
	}
	neg, mag, err := integer(v)
	if err != nil {
		return 0, err
	}
	if neg || mag >= uint64(len(enums)) {
		return 0, fmt.Errorf("%w: enum index %v not in 0..%d", ErrOutOfRange, v, len(enums)-1)
	}
	return int64(mag), nil
}

func toFloat(v any, bits int) (float64, error) {
	var f float64
	switch x := v.(type) {
	case float64:
		f = x
	case float32:
		f = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrBadValue, x)
		}
		f = p
	default:
		neg, mag, err := integer(v)
		if err != nil {
			return 0, err
		}
		f = float64(mag)
		if neg {
			f = -f
		}
	}
	if bits == 32 {
		f = float64(float32(f))
	}
	return f, nil
}

func toText(v any, maxLen int) (string, error) {
	var s string
	switch x := v.(type) {
	case string:
		s = x
	case []byte:
		s = string(x)
	default:
		return "", fmt.Errorf("%w: %T is not a string", ErrBadValue, v)
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return "", fmt.Errorf("%w: non-ASCII byte at offset %d", ErrBadValue, i)
		}
	}
	if len(s) > maxLen {
		return "", fmt.Errorf("%w: %d characters exceed the limit of %d", ErrOutOfRange, len(s), maxLen)
	}
	return s, nil
}

// assign writes vals into dst honoring the element range of opts. Nothing is
// written when an error is returned.
func assign[T any](dst, vals []T, opts ca.PutOptions) error {
	if !opts.HasRange() {
		if len(vals) > len(dst) {
			return fmt.Errorf("%w: %d elements for a record of %d", ErrBadIndex, len(vals), len(dst))
		}
		copy(dst, vals)
		return nil
	}
	from, to := opts.From, opts.To
	if from < 0 {
		from = 0
	}
	if to < 0 {
		to = from + len(vals) - 1
	}
	if from > to || to >= len(dst) {
		return fmt.Errorf("%w: range %d..%d for a record of %d", ErrBadIndex, from, to, len(dst))
	}
	n := to - from + 1
	switch len(vals) {
	case 1:
		for i := from; i <= to; i++ {
			dst[i] = vals[0]
		}
	case n:
		copy(dst[from:], vals)
	default:
		return fmt.Errorf("%w: %d elements for range %d..%d", ErrBadValue, len(vals), from, to)
	}
	return nil
}
