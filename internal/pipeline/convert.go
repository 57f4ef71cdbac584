// Package pipeline turns workbooks into prompt text and runs YAML job files
// that batch those conversions.
package pipeline

import (
	"fmt"
	"strings"

	"github.com/klytics/xlprompt/internal/chunk"
	"github.com/klytics/xlprompt/internal/errs"
	"github.com/klytics/xlprompt/internal/formats/convert"
	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/prompt"
	"github.com/klytics/xlprompt/internal/summary"
	"github.com/klytics/xlprompt/internal/table"
)

// Options controls a single conversion.
type Options struct {
	Sheets         []string
	Format         string
	Template       prompt.Template
	IncludeSummary bool
	MaxRows        int
}

// Result is the output of a conversion. Text is set by Convert and Segments
// by ConvertChunked.
type Result struct {
	Text     string         `json:"text,omitempty"`
	Segments []string       `json:"segments,omitempty"`
	Format   convert.Format `json:"format"`
	Sheets   []string       `json:"sheets"`
	Skipped  []xlsx.Skip    `json:"skipped,omitempty"`
	Summary  *summary.Stats `json:"summary,omitempty"`
}

// SheetHeader returns the delimiter placed before a sheet's rendered body.
func SheetHeader(name string) string {
	return fmt.Sprintf("=== SHEET: %s ===", name)
}

// ChunkHeader returns the delimiter placed before a chunk's rendered body.
func ChunkHeader(name string, index, total int) string {
	return fmt.Sprintf("=== SHEET: %s - CHUNK %d/%d ===", name, index, total)
}

// Convert loads the selected sheets from src and renders them into a single
// prompt.
func Convert(src xlsx.Source, opts Options) (*Result, error) {
	format, err := ResolveFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	loaded, err := xlsx.Load(src, opts.Sheets)
	if err != nil {
		return nil, err
	}

	res, err := ConvertSheets(loaded.Sheets, format, opts)
	if err != nil {
		return nil, err
	}
	res.Skipped = loaded.Skipped
	return res, nil
}

// ConvertChunked loads the selected sheets from src and renders every sheet
// in chunks of at most opts.MaxRows rows, one templated segment per chunk.
func ConvertChunked(src xlsx.Source, opts Options) (*Result, error) {
	format, err := ResolveFormat(opts.Format)
	if err != nil {
		return nil, err
	}
	if opts.MaxRows <= 0 {
		return nil, errs.New(errs.InvalidChunkSize, "chunk size must be positive, got %d", opts.MaxRows)
	}

	loaded, err := xlsx.Load(src, opts.Sheets)
	if err != nil {
		return nil, err
	}

	res, err := ConvertSheetsChunked(loaded.Sheets, format, opts)
	if err != nil {
		return nil, err
	}
	res.Skipped = loaded.Skipped
	return res, nil
}

// ConvertSheets renders an already loaded set. Sheets without rows are left
// out of the output.
func ConvertSheets(set *table.SheetSet, format convert.Format, opts Options) (*Result, error) {
	if set == nil || set.Len() == 0 {
		return nil, errs.New(errs.NoSheetsLoaded, "no sheets were loaded")
	}

	res := &Result{Format: format, Sheets: set.Names()}

	var blocks []string
	for _, sh := range set.Sheets() {
		if sh.Table.NumRows() == 0 {
			continue
		}
		body, err := convert.Render(sh.Table, format)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, SheetHeader(sh.Name)+"\n"+body)
	}
	data := strings.Join(blocks, "\n\n")

	if opts.IncludeSummary {
		if sh, ok := set.FirstNonEmpty(); ok {
			res.Summary = summary.Summarize(sh.Table)
			data = summary.Render(res.Summary) + "\n\n" + data
		}
	}

	res.Text = opts.Template.Render(data)
	return res, nil
}

// ConvertSheetsChunked renders an already loaded set chunk by chunk. When a
// summary is requested it is the first segment.
func ConvertSheetsChunked(set *table.SheetSet, format convert.Format, opts Options) (*Result, error) {
	if opts.MaxRows <= 0 {
		return nil, errs.New(errs.InvalidChunkSize, "chunk size must be positive, got %d", opts.MaxRows)
	}
	if set == nil || set.Len() == 0 {
		return nil, errs.New(errs.NoSheetsLoaded, "no sheets were loaded")
	}

	res := &Result{Format: format, Sheets: set.Names()}

	if opts.IncludeSummary {
		if sh, ok := set.FirstNonEmpty(); ok {
			res.Summary = summary.Summarize(sh.Table)
			res.Segments = append(res.Segments, opts.Template.Render(summary.Render(res.Summary)))
		}
	}

	for _, sh := range set.Sheets() {
		if sh.Table.NumRows() == 0 {
			continue
		}
		chunks, err := chunk.Split(sh.Table, opts.MaxRows)
		if err != nil {
			return nil, err
		}
		for _, c := range chunks {
			body, err := convert.Render(c.Table, format)
			if err != nil {
				return nil, err
			}
			text := ChunkHeader(sh.Name, c.Index, c.Total) + "\n" + body
			res.Segments = append(res.Segments, opts.Template.Render(text))
		}
	}

	return res, nil
}

// ResolveFormat parses a format name; an empty name means CSV.
func ResolveFormat(name string) (convert.Format, error) {
	if strings.TrimSpace(name) == "" {
		return convert.CSV, nil
	}
	return convert.ParseFormat(name)
}
