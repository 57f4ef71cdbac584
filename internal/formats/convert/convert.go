// Package convert renders tables as prompt-ready text.
// Rendering is deterministic: the same table always yields the same bytes.
package convert

import (
	"strings"

	"github.com/klytics/xlprompt/internal/errs"
	"github.com/klytics/xlprompt/internal/table"
)

// Format is a text encoding for a table.
type Format string

const (
	// CSV is comma-separated values with a header row.
	CSV Format = "csv"
	// JSON is an indented array of row objects in column order.
	JSON Format = "json"
	// Markdown is a GFM pipe table.
	Markdown Format = "markdown"
)

// SupportedFormats lists the canonical format names.
var SupportedFormats = []Format{CSV, JSON, Markdown}

var aliases = map[string]Format{
	"csv":            CSV,
	"delimited":      CSV,
	"json":           JSON,
	"records":        JSON,
	"markdown":       Markdown,
	"md":             Markdown,
	"tabular-markup": Markdown,
}

// ParseFormat resolves a format name or alias, case-insensitively.
func ParseFormat(name string) (Format, error) {
	if f, ok := aliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return f, nil
	}
	return "", errs.New(errs.UnsupportedFormat, "unsupported format %q (supported: %v)", name, SupportedFormats)
}

// Extension returns the file extension conventionally used for f.
func (f Format) Extension() string {
	switch f {
	case JSON:
		return ".json"
	case Markdown:
		return ".md"
	}
	return ".csv"
}

// Render encodes t in the given format.
func Render(t *table.Table, format Format) (string, error) {
	switch format {
	case CSV:
		return toCSV(t)
	case JSON:
		return toJSON(t)
	case Markdown:
		return toMarkdown(t), nil
	}
	return "", errs.New(errs.UnsupportedFormat, "unsupported format %q (supported: %v)", format, SupportedFormats)
}
