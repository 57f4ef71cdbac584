// Package xlsx loads workbook sheets into typed tables and writes workbooks.
package xlsx

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/klytics/xlprompt/internal/errs"
	"github.com/klytics/xlprompt/internal/table"
)

// Source is anything a workbook can be opened from.
type Source interface {
	Open() (*excelize.File, error)
}

// Path is a workbook on disk.
type Path string

// Open opens the workbook at p.
func (p Path) Open() (*excelize.File, error) {
	path := string(p)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, errs.New(errs.SourceUnreadable, "file not found: %s (check that the path is correct)", path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, errs.Wrap(errs.SourceUnreadable, err, "could not open %s (is this a valid .xlsx file?)", path)
	}
	return f, nil
}

// Bytes is a workbook held in memory, e.g. read from stdin.
type Bytes []byte

// Open parses the in-memory workbook.
func (b Bytes) Open() (*excelize.File, error) {
	if len(b) == 0 {
		return nil, errs.New(errs.SourceUnreadable, "no workbook data provided")
	}
	f, err := excelize.OpenReader(bytes.NewReader(b))
	if err != nil {
		return nil, errs.Wrap(errs.SourceUnreadable, err, "could not read Excel data")
	}
	return f, nil
}

// Skip records a requested sheet that could not be loaded.
type Skip struct {
	Sheet  string `json:"sheet"`
	Reason string `json:"reason"`
}

// LoadResult holds the loaded sheets and the ones that were skipped.
type LoadResult struct {
	Sheets  *table.SheetSet
	Skipped []Skip
}

// SheetInfo describes one sheet without converting it.
type SheetInfo struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
	Cols int    `json:"cols"`
}

// LoadFile loads the named sheets (all sheets when names is empty) from path.
func LoadFile(path string, names []string) (*LoadResult, error) {
	return Load(Path(path), names)
}

// Load opens src and loads the named sheets into tables. With no names every
// sheet is loaded in workbook order. A sheet that fails to load is recorded
// in Skipped and the rest are still loaded; the call fails only when nothing
// could be loaded.
func Load(src Source, names []string) (*LoadResult, error) {
	f, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	available := f.GetSheetList()
	if len(names) == 0 {
		names = available
	}

	r := &reader{f: f, date1904: uses1904(f), dateStyles: make(map[int]bool)}
	res := &LoadResult{Sheets: table.NewSheetSet()}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		// A repeated name keeps its first position and is read once.
		if seen[name] {
			continue
		}
		seen[name] = true

		if !contains(available, name) {
			res.Skipped = append(res.Skipped, Skip{
				Sheet:  name,
				Reason: fmt.Sprintf("sheet %q not found; available sheets: %v", name, available),
			})
			continue
		}
		t, err := r.readSheet(name)
		if err != nil {
			res.Skipped = append(res.Skipped, Skip{Sheet: name, Reason: err.Error()})
			continue
		}
		res.Sheets.Add(name, t)
	}

	if res.Sheets.Len() == 0 {
		if len(res.Skipped) == 0 {
			return nil, errs.New(errs.NoReadableSheets, "workbook contains no sheets")
		}
		reasons := make([]string, len(res.Skipped))
		for i, s := range res.Skipped {
			reasons[i] = s.Reason
		}
		return nil, errs.New(errs.NoReadableSheets, "no sheets could be loaded: %s", strings.Join(reasons, "; "))
	}

	return res, nil
}

// Inspect lists every sheet in src with its populated dimensions.
func Inspect(src Source) ([]SheetInfo, error) {
	f, err := src.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var infos []SheetInfo
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name)
		if err != nil {
			return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
		}
		info := SheetInfo{Name: name}
		for _, row := range rows {
			if len(row) > info.Cols {
				info.Cols = len(row)
			}
			if !blank(row) {
				info.Rows++
			}
		}
		infos = append(infos, info)
	}
	return infos, nil
}

type reader struct {
	f          *excelize.File
	date1904   bool
	dateStyles map[int]bool
}

// readSheet uses the first non-blank row as the header and types every
// following cell.
func (r *reader) readSheet(name string) (*table.Table, error) {
	display, err := r.f.GetRows(name)
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
	}
	raw, err := r.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("could not read sheet %q: %w", name, err)
	}

	headerIdx := -1
	for i, row := range display {
		if !blank(row) {
			headerIdx = i
			break
		}
	}
	if headerIdx < 0 {
		return table.New(nil, nil), nil
	}

	var rows [][]table.Cell
	for i := headerIdx + 1; i < len(display); i++ {
		row := make([]table.Cell, len(display[i]))
		for j, shown := range display[i] {
			rawVal := shown
			if i < len(raw) && j < len(raw[i]) {
				rawVal = raw[i][j]
			}
			row[j] = r.cell(name, j+1, i+1, shown, rawVal)
		}
		rows = append(rows, row)
	}

	return table.New(display[headerIdx], rows), nil
}

func (r *reader) cell(sheet string, col, row int, shown, raw string) table.Cell {
	if shown == "" && raw == "" {
		return table.EmptyCell()
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return table.TextCell(shown)
	}

	cellType, _ := r.f.GetCellType(sheet, ref)
	switch cellType {
	case excelize.CellTypeBool:
		return table.BoolCell(raw == "1" || strings.EqualFold(raw, "true"))
	case excelize.CellTypeDate:
		if t, err := time.Parse(time.RFC3339, raw); err == nil {
			return table.DateCell(t)
		}
		if t, ok := table.ParseDate(raw); ok {
			return table.DateCell(t)
		}
		return table.TextCell(shown)
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString,
		excelize.CellTypeFormula, excelize.CellTypeError:
		return table.TextCell(shown)
	}

	n, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return table.TextCell(shown)
	}
	if r.isDateStyle(sheet, ref) {
		if t, err := excelize.ExcelDateToTime(n, r.date1904); err == nil {
			return table.DateCell(t)
		}
	}
	if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return table.IntCell(i)
	}
	return table.FloatCell(n)
}

func (r *reader) isDateStyle(sheet, ref string) bool {
	id, err := r.f.GetCellStyle(sheet, ref)
	if err != nil || id == 0 {
		return false
	}
	if isDate, ok := r.dateStyles[id]; ok {
		return isDate
	}
	style, err := r.f.GetStyle(id)
	isDate := err == nil && style != nil && dateNumFmt(style)
	r.dateStyles[id] = isDate
	return isDate
}

// dateNumFmt reports whether a style formats numbers as calendar dates.
// Built-in ids 14-17 and 22 are dates; 18-21 and 45-47 are clock-only and
// stay numeric.
func dateNumFmt(s *excelize.Style) bool {
	if s.CustomNumFmt != nil {
		return customDateFormat(*s.CustomNumFmt)
	}
	return (s.NumFmt >= 14 && s.NumFmt <= 17) || s.NumFmt == 22
}

func customDateFormat(code string) bool {
	var b strings.Builder
	inQuote, inBracket, escaped := false, false, false
	for _, c := range code {
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		default:
			b.WriteRune(c)
		}
	}
	stripped := strings.ToLower(b.String())
	return strings.ContainsAny(stripped, "yd")
}

func uses1904(f *excelize.File) bool {
	props, err := f.GetWorkbookProps()
	if err != nil || props.Date1904 == nil {
		return false
	}
	return *props.Date1904
}

func blank(row []string) bool {
	for _, cell := range row {
		if cell != "" {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
