package main

import (
	"fmt"
	"text/template"
)

var goTemplate = template.Must(template.New("go").Funcs(template.FuncMap{
	"quote": func(s string) string { return fmt.Sprintf("%q", s) },
}).Parse(goTmpl))

const goTmpl = `// Code generated by catree-hash. DO NOT EDIT.

package {{.Package}}

// Naming parameters the constants were derived with.
const (
	HashPrefix   = {{quote .Namer.HashPrefix}}
	RecordPrefix = {{quote .Namer.RecordPrefix}}
	MaxLen       = {{.Namer.MaxLen}}
)

{{if .Channels -}}
const (
{{- range .Channels}}
	// {{.Ident}} is {{.Path}} ({{.Suffix}}).
	{{.Ident}} = {{quote .Name}}
{{- end}}
)
{{- end}}
`
