package server

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/pkg/errors"
)

//go:embed templates/*.html
var templateFiles embed.FS

var templateFuncs = template.FuncMap{
	"plural": func(n int, one, many string) string {
		if n == 1 {
			return one
		}
		return many
	},
}

// ParseTemplate parses one of the embedded page templates. Values are escaped
// when the template is executed, never before.
func ParseTemplate(name string) (*template.Template, error) {
	pages, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		return nil, errors.Wrap(err, "[ParseTemplate] templates")
	}
	tmpl, err := template.New(name).Funcs(templateFuncs).ParseFS(pages, name)
	if err != nil {
		return nil, errors.Wrapf(err, "[ParseTemplate] %s", name)
	}
	return tmpl, nil
}
