package notifications

import (
	"embed"
	"fmt"
	"path/filepath"
	"text/template"
)

//go:embed templates/*.tmpl
var builtin embed.FS

// DefaultTemplates parses the templates compiled into the binary.
func DefaultTemplates() (*template.Template, error) {
	tmpl, err := template.ParseFS(builtin, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to parse builtin email templates: %w", err)
	}
	return tmpl, nil
}

// LoadTemplates parses every .tmpl file in dir. Each file must define
// {{define "name:subject"}} and {{define "name:body"}} blocks.
func LoadTemplates(dir string) (*template.Template, error) {
	pattern := filepath.Join(dir, "*.tmpl")
	tmpl, err := template.ParseGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates from %s: %w", dir, err)
	}
	return tmpl, nil
}
