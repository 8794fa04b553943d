package adapt

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/cpswtree/catree/pkg/ca"
	"github.com/cpswtree/catree/pkg/ca/mocks"
	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/tree"
)

var testNamer = chname.Namer{HashPrefix: "X", RecordPrefix: "REC:", MaxLen: 20}

func testTree(t *testing.T) *tree.Node {
	t.Helper()
	root := tree.NewRoot()
	dev := tree.NewDev("dev")
	require.NoError(t, root.Add(dev, tree.NewStream("fifo")))
	require.NoError(t, dev.Add(
		tree.NewVar("u16", tree.VarSpec{SizeBits: 16}),
		tree.NewVar("s8", tree.VarSpec{SizeBits: 8, Signed: true}),
		tree.NewVar("mode", tree.VarSpec{Enums: []string{"Off", "On", "Auto"}}),
		tree.NewVar("name", tree.VarSpec{Encoding: tree.EncodingASCII}),
		tree.NewVar("gain", tree.VarSpec{Encoding: tree.EncodingIEEE754}),
		tree.NewVar("arr", tree.VarSpec{SizeBits: 8, NElms: 3}),
		tree.NewVar("ro", tree.VarSpec{Mode: tree.ModeRO}),
		tree.NewVar("u64", tree.VarSpec{SizeBits: 64}),
		tree.NewCmd("reset"),
	))
	return root
}

// expectPV registers a GetPV expectation for path/suffix and returns the PV mock.
func expectPV(t *testing.T, client *mocks.MockClient, path, suffix string, form ca.Form) *mocks.MockPV {
	t.Helper()
	pv := mocks.NewMockPV(t)
	name := testNamer.Hash(chname.String(path), suffix)
	client.EXPECT().GetPV(name, form, time.Duration(0)).Return(pv).Once()
	return pv
}

func mockAdapter(t *testing.T) (*Adapter, *mocks.MockClient, *Path) {
	t.Helper()
	client := mocks.NewMockClient(t)
	a := New(Config{Client: client, Namer: testNamer})
	return a, client, a.Wrap(testTree(t))
}

func find(t *testing.T, p *Path, name string) *Path {
	t.Helper()
	found, err := p.FindByName(name)
	require.NoError(t, err)
	return found
}

func TestPathNaming(t *testing.T) {
	_, _, root := mockAdapter(t)
	p := find(t, root, "dev/u16")

	assert.Equal(t, "/dev/u16", p.String())
	assert.Equal(t, "u16", p.Name())
	assert.Equal(t, "X/dev/u16Rd", p.GetFull(chname.SuffixRead))
	assert.Equal(t, testNamer.HashString("X/dev/u16Rd"), p.Hash(chname.SuffixRead))
	assert.Len(t, p.Hash(chname.SuffixRead), 20)

	assert.NotEqual(t, p.Hash(chname.SuffixRead), p.Hash(chname.SuffixWrite))
	assert.NotEqual(t, p.Hash(chname.SuffixRead), p.Hash(chname.SuffixExec))
	assert.NotEqual(t, p.Hash(chname.SuffixWrite), p.Hash(chname.SuffixExec))
	assert.Equal(t, p.Hash(chname.SuffixRead), find(t, root, "/dev/u16").Hash(chname.SuffixRead))
}

func TestPathFindByName(t *testing.T) {
	_, _, root := mockAdapter(t)

	dev := find(t, root, "dev")
	assert.Equal(t, tree.KindDev, dev.Kind())

	u16 := find(t, dev, "u16")
	assert.Equal(t, "/dev/u16", u16.String())
	assert.Equal(t, "/dev", find(t, u16, "..").String())

	parent, ok := u16.Parent()
	require.True(t, ok)
	assert.Equal(t, "/dev", parent.String())
	_, ok = root.Parent()
	assert.False(t, ok)

	_, err := dev.FindByName("nope")
	assert.ErrorIs(t, err, tree.ErrNotFound)
}

func TestChildren(t *testing.T) {
	_, _, root := mockAdapter(t)

	children := root.Children()
	require.Len(t, children, 2)
	assert.Equal(t, "dev", children[0].Name())
	assert.True(t, children[0].IsHub())
	assert.Equal(t, "fifo", children[1].Name())
	assert.False(t, children[1].IsHub())

	p, err := children[0].FindByName("mode")
	require.NoError(t, err)
	assert.Equal(t, "/dev/mode", p.String())

	_, err = children[1].FindByName("x")
	assert.ErrorIs(t, err, tree.ErrNotFound)
}

func TestGuessRepr(t *testing.T) {
	_, _, root := mockAdapter(t)

	tests := []struct {
		path string
		want tree.Repr
	}{
		{"/dev/u16", tree.ReprInt},
		{"/dev/mode", tree.ReprEnum},
		{"/dev/name", tree.ReprString},
		{"/dev/gain", tree.ReprFloat},
		{"/dev", tree.ReprInt},
		{"/dev/reset", tree.ReprInt},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, find(t, root, tt.path).GuessRepr())
		})
	}
}

func TestUnsupportedOperations(t *testing.T) {
	_, client, root := mockAdapter(t)

	for _, path := range []string{"/fifo", "/dev/u16"} {
		p := find(t, root, path)

		s, err := p.CreateStream()
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrNotImplemented)
		assert.ErrorIs(t, err, tree.ErrInterfaceNotImplemented)
		var ue *UnsupportedError
		require.ErrorAs(t, err, &ue)
		assert.Equal(t, "CreateStream", ue.Op)
		assert.Equal(t, path, ue.Path)

		s, err = NewStream(p)
		assert.Nil(t, s)
		assert.ErrorIs(t, err, ErrNotImplemented)

		err = p.LoadConfigFromYAMLFile("config.yaml")
		assert.ErrorIs(t, err, ErrNotImplemented)
		assert.NotErrorIs(t, err, tree.ErrInterfaceNotImplemented)
	}

	expectPV(t, client, "/dev/ro", chname.SuffixRead, ca.FormNative)
	v, err := find(t, root, "/dev/ro").CreateVar()
	require.NoError(t, err)
	for range 3 {
		err := v.GetValAsync()
		assert.ErrorIs(t, err, ErrNotImplemented)
		assert.Contains(t, err.Error(), "GetValAsync /dev/ro")
	}
}

func TestCreateWrongKind(t *testing.T) {
	_, _, root := mockAdapter(t)

	_, err := find(t, root, "/dev/reset").CreateVar()
	assert.ErrorIs(t, err, tree.ErrInterfaceNotImplemented)

	_, err = find(t, root, "/dev/u16").CreateCmd()
	assert.ErrorIs(t, err, tree.ErrInterfaceNotImplemented)
}

func TestCmdExecute(t *testing.T) {
	_, client, root := mockAdapter(t)
	pv := expectPV(t, client, "/dev/reset", chname.SuffixExec, ca.FormNative)

	cmd, err := find(t, root, "/dev/reset").CreateCmd()
	require.NoError(t, err)
	assert.Equal(t, testNamer.Hash(chname.String("/dev/reset"), "Ex"), cmd.Name())
	assert.Equal(t, "X/dev/resetEx", cmd.ConnectionName())
	assert.Equal(t, "/dev/reset", cmd.Path().String())
	assert.Same(t, pv, cmd.PV())
	assert.Equal(t, "/dev/reset", cmd.Desc().Path().String())

	pv.EXPECT().Put("Run").Return(nil).Once()
	assert.NoError(t, cmd.Execute())

	putErr := errors.New("boom")
	pv.EXPECT().Put("Run").Return(putErr).Once()
	assert.ErrorIs(t, cmd.Execute(), putErr)
}

func TestVarChannels(t *testing.T) {
	_, client, root := mockAdapter(t)

	rd := expectPV(t, client, "/dev/mode", chname.SuffixRead, ca.FormCtrl)
	st := expectPV(t, client, "/dev/mode", chname.SuffixWrite, ca.FormNative)
	v, err := find(t, root, "/dev/mode").CreateVar()
	require.NoError(t, err)

	assert.Same(t, rd, v.PV())
	assert.Same(t, st, v.WritePV())
	assert.Equal(t, testNamer.Hash(chname.String("/dev/mode"), "Rd"), v.Name())
	assert.Equal(t, testNamer.Hash(chname.String("/dev/mode"), "St"), v.WriteName())
	assert.Equal(t, "X/dev/modeRd", v.ConnectionName())
	assert.True(t, v.HasEnums())
	assert.Equal(t, []string{"Off", "On", "Auto"}, v.Enums())
	assert.False(t, v.ReadOnly())
	assert.Equal(t, tree.ReprEnum, v.Repr())

	expectPV(t, client, "/dev/ro", chname.SuffixRead, ca.FormNative)
	ro, err := find(t, root, "/dev/ro").CreateVar()
	require.NoError(t, err)
	assert.True(t, ro.ReadOnly())
	assert.Nil(t, ro.WritePV())
	assert.Empty(t, ro.WriteName())
	assert.ErrorIs(t, ro.SetVal(1), ErrReadOnly)
	assert.ErrorIs(t, ro.SetValRange(1, 0, 0), ErrReadOnly)
}

func TestSignOffset(t *testing.T) {
	tests := []struct {
		path    string
		offset  uint64
		correct bool
	}{
		{"/dev/u16", 1 << 16, true},
		{"/dev/arr", 1 << 8, true},
		{"/dev/ro", 1 << 32, true},
		{"/dev/s8", 0, false},
		{"/dev/mode", 0, false},
		{"/dev/gain", 0, false},
		{"/dev/u64", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			_, client, root := mockAdapter(t)
			client.EXPECT().GetPV(mock.Anything, mock.Anything, time.Duration(0)).Return(mocks.NewMockPV(t))

			v, err := find(t, root, tt.path).CreateVar()
			require.NoError(t, err)
			assert.Equal(t, tt.offset, v.SignOffset())
			assert.Equal(t, tt.correct, v.CorrectsSign())
		})
	}
}

func TestVarSetVal(t *testing.T) {
	_, client, root := mockAdapter(t)
	expectPV(t, client, "/dev/arr", chname.SuffixRead, ca.FormNative)
	st := expectPV(t, client, "/dev/arr", chname.SuffixWrite, ca.FormNative)

	v, err := find(t, root, "/dev/arr").CreateVar()
	require.NoError(t, err)

	st.EXPECT().Put(42).Return(nil).Once()
	assert.NoError(t, v.SetVal(42))

	// Indices are forwarded unchecked.
	st.EXPECT().Put([]int{1, 2}, mock.Anything).
		RunAndReturn(func(value any, opts ...ca.PutOption) error {
			o := ca.NewPutOptions(opts...)
			assert.Equal(t, 1, o.From)
			assert.Equal(t, 7, o.To)
			return ca.ErrNotConnected
		}).Once()
	assert.ErrorIs(t, v.SetValRange([]int{1, 2}, 1, 7), ca.ErrNotConnected)
}

type recorder struct {
	values []any
}

func (r *recorder) AsyncUpdateWidget(value any) {
	r.values = append(r.values, value)
}

func TestVarOnEvent(t *testing.T) {
	tests := []struct {
		name string
		path string
		ev   ca.Event
		want any
	}{
		{"unsigned negative", "/dev/u16", ca.Event{Value: int64(-1)}, uint64(65535)},
		{"unsigned min", "/dev/u16", ca.Event{Value: int64(-32768)}, uint64(32768)},
		{"unsigned positive", "/dev/u16", ca.Event{Value: int64(5)}, int64(5)},
		{"unsigned int32 raw", "/dev/ro", ca.Event{Value: int32(-2)}, uint64(1<<32 - 2)},
		{"unsigned 64 bit", "/dev/u64", ca.Event{Value: int64(-1)}, uint64(1<<64 - 1)},
		{"signed", "/dev/s8", ca.Event{Value: int64(-5)}, int64(-5)},
		{"float", "/dev/gain", ca.Event{Value: -1.5}, -1.5},
		{"enum", "/dev/mode", ca.Event{Value: int64(1), CharValue: []byte("On")}, "On"},
		{"enum with NUL", "/dev/mode", ca.Event{Value: int64(2), CharValue: []byte("Auto\x00\x00")}, "Auto"},
		{"string", "/dev/name", ca.Event{Value: "hello", CharValue: []byte("hello")}, "hello"},
		{"array", "/dev/arr", ca.Event{Value: []int64{1, -1, -128}}, []uint64{1, 255, 128}},
		{"array positive", "/dev/arr", ca.Event{Value: []int64{1, 2}}, []int64{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client, root := mockAdapter(t)
			client.EXPECT().GetPV(mock.Anything, mock.Anything, time.Duration(0)).Return(mocks.NewMockPV(t))

			v, err := find(t, root, tt.path).CreateVar()
			require.NoError(t, err)

			w := &recorder{}
			v.widget = w
			v.OnEvent(tt.ev)
			assert.Equal(t, []any{tt.want}, w.values)
		})
	}
}

func TestVarSetWidget(t *testing.T) {
	t.Run("pre-populates with corrected value", func(t *testing.T) {
		_, client, root := mockAdapter(t)
		rd := expectPV(t, client, "/dev/u16", chname.SuffixRead, ca.FormNative)
		expectPV(t, client, "/dev/u16", chname.SuffixWrite, ca.FormNative)

		v, err := find(t, root, "/dev/u16").CreateVar()
		require.NoError(t, err)

		rd.EXPECT().AddCallback(v, false).Return(0).Once()
		rd.EXPECT().Get(time.Duration(0), false).Return(int64(-2), true).Once()

		w := &recorder{}
		v.SetWidget(w)
		assert.Equal(t, []any{uint64(65534)}, w.values)
	})

	t.Run("pre-populated and monitored values share a type", func(t *testing.T) {
		_, client, root := mockAdapter(t)
		rd := expectPV(t, client, "/dev/u16", chname.SuffixRead, ca.FormNative)
		expectPV(t, client, "/dev/u16", chname.SuffixWrite, ca.FormNative)

		v, err := find(t, root, "/dev/u16").CreateVar()
		require.NoError(t, err)

		rd.EXPECT().AddCallback(v, false).Return(0).Once()
		rd.EXPECT().Get(time.Duration(0), false).Return(int64(-3), true).Once()

		w := &recorder{}
		v.SetWidget(w)
		v.OnEvent(ca.Event{Value: int64(-3)})
		require.Len(t, w.values, 2)
		assert.IsType(t, w.values[1], w.values[0])
		assert.Equal(t, w.values[1], w.values[0])
	})

	t.Run("pre-populates enum as string", func(t *testing.T) {
		_, client, root := mockAdapter(t)
		rd := expectPV(t, client, "/dev/mode", chname.SuffixRead, ca.FormCtrl)
		expectPV(t, client, "/dev/mode", chname.SuffixWrite, ca.FormNative)

		v, err := find(t, root, "/dev/mode").CreateVar()
		require.NoError(t, err)

		rd.EXPECT().AddCallback(v, false).Return(3).Once()
		rd.EXPECT().Get(time.Duration(0), true).Return([]byte("Auto"), true).Once()

		w := &recorder{}
		v.SetWidget(w)
		assert.Equal(t, []any{"Auto"}, w.values)
	})

	t.Run("no value yet", func(t *testing.T) {
		_, client, root := mockAdapter(t)
		rd := expectPV(t, client, "/dev/ro", chname.SuffixRead, ca.FormNative)

		v, err := find(t, root, "/dev/ro").CreateVar()
		require.NoError(t, err)

		rd.EXPECT().AddCallback(v, false).Return(0).Once()
		rd.EXPECT().Get(time.Duration(0), false).Return(nil, false).Once()

		w := &recorder{}
		v.SetWidget(w)
		assert.Empty(t, w.values)

		v.OnEvent(ca.Event{Value: int64(3)})
		assert.Equal(t, []any{int64(3)}, w.values)
	})
}

func TestCallbackWithoutWidget(t *testing.T) {
	_, client, root := mockAdapter(t)
	expectPV(t, client, "/dev/ro", chname.SuffixRead, ca.FormNative)

	v, err := find(t, root, "/dev/ro").CreateVar()
	require.NoError(t, err)
	assert.NotPanics(t, func() { v.Callback(1) })
}

func TestDebugLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client := mocks.NewMockClient(t)
	client.EXPECT().GetPV(mock.Anything, ca.FormNative, time.Duration(0)).Return(mocks.NewMockPV(t)).Once()
	a := New(Config{Client: client, Namer: testNamer, Logger: logger})

	_, err := find(t, a.Wrap(testTree(t)), "/dev/reset").CreateCmd()
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "made PV")
	assert.Contains(t, buf.String(), "path=/dev/reset")
}

func TestASCIIString(t *testing.T) {
	assert.Equal(t, "", asciiString(nil))
	assert.Equal(t, "On", asciiString([]byte("On")))
	assert.Equal(t, "On", asciiString([]byte("On\x00junk")))
	assert.Equal(t, "a�b", asciiString([]byte{'a', 0xe9, 'b'}))
}

func TestSerialize(t *testing.T) {
	w := &recorder{}
	s := Serialize(w)

	done := make(chan struct{})
	for range 4 {
		go func() {
			for i := range 100 {
				s.AsyncUpdateWidget(i)
			}
			done <- struct{}{}
		}()
	}
	for range 4 {
		<-done
	}
	assert.Len(t, w.values, 400)
}

func TestWidgetFunc(t *testing.T) {
	var got any
	WidgetFunc(func(v any) { got = v }).AsyncUpdateWidget("x")
	assert.Equal(t, "x", got)
}
