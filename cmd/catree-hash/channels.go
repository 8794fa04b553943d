package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"unicode"

	"golang.org/x/tools/imports"
	"gopkg.in/yaml.v3"

	"github.com/cpswtree/catree/pkg/chname"
	"github.com/cpswtree/catree/pkg/softioc"
	"github.com/cpswtree/catree/pkg/tree"
)

// channel is one derived channel name.
type channel struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind,omitempty"`
	Path   string `yaml:"path"`
	Suffix string `yaml:"suffix"`
}

var suffixKinds = map[string]string{
	chname.SuffixRead:  softioc.RecordRead.String(),
	chname.SuffixWrite: softioc.RecordWrite.String(),
	chname.SuffixExec:  softioc.RecordExec.String(),
}

func pathChannels(namer chname.Namer, paths, suffixes []string) []channel {
	var out []channel
	for _, p := range paths {
		for _, s := range suffixes {
			out = append(out, channel{
				Name:   namer.Hash(chname.String(p), s),
				Kind:   suffixKinds[s],
				Path:   p,
				Suffix: s,
			})
		}
	}
	return out
}

func treeChannels(namer chname.Namer, file, root, incDir string) ([]channel, error) {
	top, err := tree.LoadYAMLFile(file, root, incDir, nil)
	if err != nil {
		return nil, err
	}
	db, err := softioc.NewDatabase(top, softioc.Config{Namer: namer})
	if err != nil {
		return nil, err
	}

	records := db.Records()
	out := make([]channel, 0, len(records))
	for _, r := range records {
		out = append(out, channel{
			Name:   r.Name(),
			Kind:   r.Kind().String(),
			Path:   r.Node().String(),
			Suffix: r.Suffix(),
		})
	}
	return out, nil
}

func writeText(w io.Writer, channels []channel) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range channels {
		kind := c.Kind
		if kind == "" {
			kind = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s%s\n", c.Name, kind, c.Path, c.Suffix)
	}
	return tw.Flush()
}

type yamlDoc struct {
	HashPrefix   string    `yaml:"hashPrefix"`
	RecordPrefix string    `yaml:"recordPrefix"`
	MaxLen       int       `yaml:"maxLen"`
	Channels     []channel `yaml:"channels"`
}

func writeYAML(w io.Writer, namer chname.Namer, channels []channel) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(yamlDoc{
		HashPrefix:   namer.HashPrefix,
		RecordPrefix: namer.RecordPrefix,
		MaxLen:       namer.MaxLen,
		Channels:     channels,
	}); err != nil {
		return err
	}
	return enc.Close()
}

// generateGo renders the channel list as a formatted Go source file.
func generateGo(pkg string, namer chname.Namer, channels []channel) (string, error) {
	var b strings.Builder
	if err := goTemplate.Execute(&b, goFileData{
		Package:  pkg,
		Namer:    namer,
		Channels: constants(channels),
	}); err != nil {
		return "", fmt.Errorf("template: %w", err)
	}

	formatted, err := imports.Process(pkg+".go", []byte(b.String()), nil)
	if err != nil {
		return "", fmt.Errorf("goimports: %w", err)
	}
	return string(formatted), nil
}

func writeGoFile(path, pkg string, namer chname.Namer, channels []channel) error {
	code, err := generateGo(pkg, namer, channels)
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return os.WriteFile(path, []byte(code), 0o644)
}

type goConst struct {
	Ident  string
	Name   string
	Path   string
	Suffix string
}

type goFileData struct {
	Package  string
	Namer    chname.Namer
	Channels []goConst
}

// constants assigns a unique Go identifier to each channel.
func constants(channels []channel) []goConst {
	seen := map[string]int{"HashPrefix": 1, "RecordPrefix": 1, "MaxLen": 1}
	out := make([]goConst, 0, len(channels))
	for _, c := range channels {
		id := identifier(c.Path, c.Suffix)
		seen[id]++
		if n := seen[id]; n > 1 {
			id = fmt.Sprintf("%s_%d", id, n)
		}
		out = append(out, goConst{Ident: id, Name: c.Name, Path: c.Path, Suffix: c.Suffix})
	}
	return out
}

// identifier converts "/mmio/axi-ver/BuildStamp" and "Rd" to
// "MmioAxiVerBuildStampRd".
func identifier(path, suffix string) string {
	var b strings.Builder
	upper := true
	for _, r := range path + "/" + suffix {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) || r > unicode.MaxASCII {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	id := b.String()
	if id == "" || unicode.IsDigit(rune(id[0])) {
		id = "Ch" + id
	}
	return id
}
