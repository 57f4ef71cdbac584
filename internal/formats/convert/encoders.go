package convert

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/klytics/xlprompt/internal/table"
)

// toCSV writes the header row followed by one line per data row.
func toCSV(t *table.Table) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(t.Names()); err != nil {
		return "", fmt.Errorf("could not write CSV header: %w", err)
	}

	record := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, cell := range t.Row(i) {
			record[j] = cell.String()
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("could not write CSV row %d: %w", i+1, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("could not write CSV: %w", err)
	}
	return buf.String(), nil
}

// record is one row whose keys marshal in column order.
type record struct {
	names []string
	cells []table.Cell
}

func (r record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.names {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalNoEscape(name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')

		val, err := marshalNoEscape(jsonValue(r.cells[i]))
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func jsonValue(c table.Cell) any {
	switch c.Kind {
	case table.Integer:
		return c.Int
	case table.Float:
		return c.Float
	case table.Boolean:
		return c.Bool
	}
	return c.String()
}

func marshalNoEscape(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// toJSON renders rows as an indented array of objects. An empty table is "[]".
func toJSON(t *table.Table) (string, error) {
	records := make([]record, t.NumRows())
	names := t.Names()
	for i := range records {
		records[i] = record{names: names, cells: t.Row(i)}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return "", fmt.Errorf("could not encode records: %w", err)
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// toMarkdown renders a GFM table. First row is the column names.
func toMarkdown(t *table.Table) string {
	var b strings.Builder

	// Header row
	b.WriteString("| ")
	headers := t.Names()
	for i, h := range headers {
		headers[i] = markdownCell(h)
	}
	b.WriteString(strings.Join(headers, " | "))
	b.WriteString(" |\n")

	// Separator row
	b.WriteString("|")
	for range headers {
		b.WriteString(" --- |")
	}
	b.WriteString("\n")

	cells := make([]string, t.NumCols())
	for i := 0; i < t.NumRows(); i++ {
		for j, cell := range t.Row(i) {
			cells[j] = markdownCell(cell.String())
		}
		b.WriteString("| ")
		b.WriteString(strings.Join(cells, " | "))
		b.WriteString(" |\n")
	}

	return b.String()
}

var markdownEscaper = strings.NewReplacer("|", `\|`, "\r\n", " ", "\n", " ", "\r", " ")

func markdownCell(s string) string {
	return markdownEscaper.Replace(s)
}
