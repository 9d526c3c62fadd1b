// Package render builds reply bodies from a text template.
//
// Templates see two fields: {{.TargetAccount}}, the author of the post being
// curated, and {{.AuthorAccount}}, the account that issued the command.
package render

import (
	"bytes"
	"fmt"
	"os"
	"text/template"
)

// DefaultTemplate is used when no template file is configured.
const DefaultTemplate = `Congratulations @{{.TargetAccount}}! Your post has been selected for curation by @{{.AuthorAccount}}.

Keep up the good work!
`

// Data holds the substitution values for a reply.
type Data struct {
	TargetAccount string
	AuthorAccount string
}

// Renderer renders reply bodies.
type Renderer interface {
	Render(d Data) (string, error)
}

// Template is a Renderer backed by text/template.
type Template struct {
	tmpl *template.Template
}

// Parse compiles text. Referencing a field other than those in Data only fails
// at execution time, so templates are checked once against sample data here.
func Parse(name, text string) (*Template, error) {
	tmpl, err := template.New(name).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse template %s: %w", name, err)
	}
	t := &Template{tmpl: tmpl}
	if _, err := t.Render(Data{TargetAccount: "target", AuthorAccount: "author"}); err != nil {
		return nil, err
	}
	return t, nil
}

// Load reads and compiles the template file at path.
func Load(path string) (*Template, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return Parse(path, string(b))
}

// Default returns the built-in template.
func Default() *Template {
	t, err := Parse("default", DefaultTemplate)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Template) Render(d Data) (string, error) {
	var buf bytes.Buffer
	if err := t.tmpl.Execute(&buf, d); err != nil {
		return "", fmt.Errorf("render template %s: %w", t.tmpl.Name(), err)
	}
	return buf.String(), nil
}

var _ Renderer = (*Template)(nil)
