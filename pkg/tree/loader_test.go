package tree

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const boardYAML = `
root:
  description: test board
  children:
    - name: mmio
      children:
        - name: Scratch
          sizeBits: 32
          mode: RW
          init: 7
        - name: Mode
          enums: [Off, On]
          mode: RW
        - name: Clear
          sequence:
            - {path: Scratch, value: 0}
        - include: axi.yaml
    - name: Fifo
      class: stream
`

const axiYAML = `
name: AxiVersion
children:
  - name: UpTimeCnt
    mode: RO
  - name: BuildStamp
    encoding: ascii
    nelms: 80
    mode: RO
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	file := writeFile(t, dir, "board.yaml", boardYAML)
	writeFile(t, dir, "axi.yaml", axiYAML)

	root, err := LoadYAMLFile(file, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, "test board", root.Description())

	n, err := root.Lookup("mmio/AxiVersion/BuildStamp")
	require.NoError(t, err)
	assert.Equal(t, KindVar, n.Kind())
	assert.Equal(t, EncodingASCII, n.VarSpec().Encoding)
	assert.Equal(t, 80, n.VarSpec().NElms)
	assert.Equal(t, ModeRO, n.VarSpec().Mode)

	n, err = root.Lookup("mmio/Clear")
	require.NoError(t, err)
	assert.Equal(t, KindCmd, n.Kind())

	n, err = root.Lookup("mmio/Scratch")
	require.NoError(t, err)
	assert.Equal(t, 7, n.VarSpec().Init)

	n, err = root.Lookup("Fifo")
	require.NoError(t, err)
	assert.Equal(t, KindStream, n.Kind())
}

func TestLoadYAMLIncludeOverride(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "axi.yaml", axiYAML)

	data := []byte(`
root:
  children:
    - include: axi.yaml
      name: Axi0
    - include: axi.yaml
      name: Axi1
`)
	root, err := LoadYAML(data, "", dir, nil)
	require.NoError(t, err)

	_, err = root.Lookup("Axi0/UpTimeCnt")
	assert.NoError(t, err)
	_, err = root.Lookup("Axi1/UpTimeCnt")
	assert.NoError(t, err)
}

func TestLoadYAMLCustomRootAndFix(t *testing.T) {
	data := []byte(`
other:
  children:
    - name: A
`)
	fix := func(doc *yaml.Node) error {
		a := mappingValue(doc.Content[0], "other")
		children := mappingValue(a, "children")
		children.Content[0].Content = append(children.Content[0].Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: "mode"},
			&yaml.Node{Kind: yaml.ScalarNode, Value: "RO"},
		)
		return nil
	}

	root, err := LoadYAML(data, "other", "", fix)
	require.NoError(t, err)
	n, err := root.Lookup("A")
	require.NoError(t, err)
	assert.Equal(t, ModeRO, n.VarSpec().Mode)
}

func TestLoadYAMLErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		root string
	}{
		{"bad yaml", "root: [", ""},
		{"missing root", "other: {}", ""},
		{"bad mode", "root:\n  children:\n    - name: A\n      mode: XX\n", ""},
		{"leaf with children", "root:\n  children:\n    - name: A\n      class: var\n      children: [{name: B}]\n", ""},
		{"duplicate", "root:\n  children:\n    - name: A\n    - name: A\n", ""},
		{"missing include", "root:\n  children:\n    - include: nope.yaml\n", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadYAML([]byte(tt.data), tt.root, t.TempDir(), nil)
			require.Error(t, err)
			var le *LoadError
			assert.ErrorAs(t, err, &le)
		})
	}
}

func TestLoadYAMLFileMissing(t *testing.T) {
	_, err := LoadYAMLFile(filepath.Join(t.TempDir(), "nope.yaml"), "", "", nil)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Contains(t, le.File, "nope.yaml")
}

func TestLoadYAMLIncludeCycle(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "loop.yaml", "include: loop.yaml\n")

	_, err := LoadYAML([]byte("root:\n  children:\n    - include: loop.yaml\n"), "", dir, nil)
	require.Error(t, err)
}
