package chname

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashExample(t *testing.T) {
	n := Namer{HashPrefix: "X", RecordPrefix: "REC:", MaxLen: 20}

	// SHA1("XRoot.SubRd") = fa496c34d12dfd9e...
	got := n.Hash(String("Root.Sub"), SuffixRead)
	assert.Equal(t, "REC:FA496C34D12DFD9E", got)
	assert.Len(t, got, 20)
}

func TestHashKnownDigest(t *testing.T) {
	// SHA1("abc") = a9993e364706816aba3e25717850c26c9cd0d89d
	n := Namer{}
	assert.Equal(t, "A9993E364706816ABA3E25717850C26C9CD0D89D", n.HashString("abc"))
}

func TestHashDeterministic(t *testing.T) {
	n := DefaultNamer()
	paths := []string{"/", "/mmio", "/mmio/AxiVersion/UpTimeCnt", "/a/b/c/d/e/f"}

	for _, p := range paths {
		first := n.Hash(String(p), SuffixRead)
		for i := 0; i < 3; i++ {
			assert.Equal(t, first, n.Hash(String(p), SuffixRead), "path %q", p)
		}
		assert.LessOrEqual(t, len(first), n.MaxLen)
	}
}

func TestHashSuffixesDiffer(t *testing.T) {
	n := DefaultNamer()
	paths := []string{"/", "/mmio", "/mmio/AxiVersion/UpTimeCnt", "/x/Rd", "/x/St"}
	suffixes := []string{SuffixRead, SuffixWrite, SuffixExec}

	seen := make(map[string]string)
	for _, p := range paths {
		for _, s := range suffixes {
			name := n.Hash(String(p), s)
			key := p + "|" + s
			if prev, dup := seen[name]; dup {
				t.Fatalf("collision between %s and %s: %s", prev, key, name)
			}
			seen[name] = key
		}
	}
}

func TestTruncation(t *testing.T) {
	tests := []struct {
		name   string
		maxLen int
		want   int
	}{
		{"no limit", 0, len("P:") + 40},
		{"negative is no limit", -1, len("P:") + 40},
		{"shorter than name", 10, 10},
		{"longer than name", 100, len("P:") + 40},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := Namer{RecordPrefix: "P:", MaxLen: tt.maxLen}
			got := n.Hash(String("/a"), SuffixRead)
			require.Len(t, got, tt.want)
			assert.True(t, strings.HasPrefix(got, "P:"))
		})
	}
}

func TestFull(t *testing.T) {
	n := Namer{HashPrefix: "IOC1"}
	assert.Equal(t, "IOC1/mmio/ValSt", n.Full(String("/mmio/Val"), SuffixWrite))
}

func TestDefaultNamer(t *testing.T) {
	n := DefaultNamer()
	assert.Equal(t, DefaultRecordPrefix, n.RecordPrefix)
	name := n.Hash(String("/a"), SuffixExec)
	assert.Len(t, name, DefaultMaxLen)
}
