package wire

import (
	"reflect"
	"testing"

	"github.com/cpswtree/catree/pkg/ca"
)

func TestNativeValue(t *testing.T) {
	tests := []struct {
		name string
		typ  ca.Type
		in   any
		want any
	}{
		{"short from uint", ca.TypeShort, uint64(5), int64(5)},
		{"long negative", ca.TypeLong, int64(-7), int64(-7)},
		{"int64 nil", ca.TypeInt64, nil, int64(0)},
		{"enum", ca.TypeEnum, uint64(2), int64(2)},
		{"long array", ca.TypeLong, []any{uint64(1), int64(-1)}, []int64{1, -1}},
		{"double", ca.TypeDouble, 1.5, 1.5},
		{"double from int", ca.TypeDouble, uint64(3), 3.0},
		{"double array", ca.TypeDouble, []any{1.5, uint64(2)}, []float64{1.5, 2}},
		{"string", ca.TypeString, "abc", "abc"},
		{"string bytes", ca.TypeString, []byte("abc"), "abc"},
		{"string nil", ca.TypeString, nil, ""},
		{"mixed array unchanged", ca.TypeLong, []any{uint64(1), "x"}, []any{uint64(1), "x"}},
		{"unknown type unchanged", ca.TypeUnknown, uint64(1), uint64(1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NativeValue(tt.typ, tt.in)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NativeValue(%v, %#v) = %#v, want %#v", tt.typ, tt.in, got, tt.want)
			}
		})
	}
}

func TestOperationString(t *testing.T) {
	for op := OpHello; op <= OpCancel; op++ {
		if !op.IsValid() {
			t.Errorf("%d should be valid", op)
		}
		if op.String() == "Unknown" {
			t.Errorf("%d has no name", op)
		}
	}
	if Operation(0).IsValid() || Operation(7).IsValid() {
		t.Errorf("out-of-range operations should be invalid")
	}
}

func TestStatusString(t *testing.T) {
	for s := StatusSuccess; s <= StatusInternal; s++ {
		if s.String() == "UNKNOWN" {
			t.Errorf("status %d has no name", s)
		}
	}
	if !StatusSuccess.IsSuccess() || StatusSuccess.IsError() {
		t.Errorf("StatusSuccess misclassified")
	}
	if !StatusReadOnly.IsError() {
		t.Errorf("StatusReadOnly misclassified")
	}
}
