// Package prompt substitutes rendered data into prompt templates and manages
// a small on-disk library of named templates.
package prompt

import (
	"fmt"
	"os"
	"strings"
)

// Placeholder is the token replaced with rendered data by default.
const Placeholder = "[formatted_data]"

// Template is prompt text with zero or more placeholder tokens.
type Template struct {
	Text  string
	Token string
}

// New returns a template using the default placeholder. An empty text
// yields a template that passes data through unchanged.
func New(text string) Template {
	return Template{Text: text, Token: Placeholder}
}

// LoadFile reads template text from path.
func LoadFile(path, token string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Template{}, fmt.Errorf("template file not found: %s", path)
		}
		return Template{}, fmt.Errorf("could not read template %s: %w", path, err)
	}
	return Template{Text: string(data), Token: token}, nil
}

func (t Template) token() string {
	if t.Token == "" {
		return Placeholder
	}
	return t.Token
}

// Render replaces every placeholder occurrence with data. A template without
// the placeholder is returned verbatim and the data is dropped.
func (t Template) Render(data string) string {
	if t.Text == "" {
		return data
	}
	return strings.ReplaceAll(t.Text, t.token(), data)
}

// Occurrences counts the placeholders in the template.
func (t Template) Occurrences() int {
	if t.Text == "" {
		return 1
	}
	return strings.Count(t.Text, t.token())
}

// Render substitutes data into tmpl using the default placeholder.
func Render(data, tmpl string) string {
	return New(tmpl).Render(data)
}
