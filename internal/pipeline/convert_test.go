package pipeline

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klytics/xlprompt/internal/errs"
	"github.com/klytics/xlprompt/internal/formats/convert"
	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/prompt"
	"github.com/klytics/xlprompt/internal/summary"
	"github.com/klytics/xlprompt/internal/table"
)

func writeWorkbook(t *testing.T, sheets ...xlsx.Sheet) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := xlsx.WriteFile(&xlsx.Workbook{Sheets: sheets}, path); err != nil {
		t.Fatalf("could not write workbook: %v", err)
	}
	return path
}

var (
	sheet1 = xlsx.Sheet{Name: "Sheet1", Rows: [][]string{
		{"Name", "Age", "City", "Salary"},
		{"Alice", "30", "New York", "85000"},
		{"Bob", "25", "", "62000.5"},
		{"Carol", "41", "Boston", "91000"},
		{"Dan", "35", "Denver", "70000"},
	}}
	sheet2 = xlsx.Sheet{Name: "Sheet2", Rows: [][]string{
		{"Region", "Units"},
		{"North", "12"},
		{"South", "7"},
	}}
)

func TestConvertTwoSheetsInOrder(t *testing.T) {
	path := writeWorkbook(t, sheet1, sheet2)

	res, err := Convert(xlsx.Path(path), Options{
		Sheets: []string{"Sheet2", "Sheet1"},
		Format: "delimited",
	})
	if err != nil {
		t.Fatal(err)
	}

	if n := strings.Count(res.Text, "=== SHEET: "); n != 2 {
		t.Fatalf("expected 2 sheet markers, got %d", n)
	}
	i2 := strings.Index(res.Text, SheetHeader("Sheet2"))
	i1 := strings.Index(res.Text, SheetHeader("Sheet1"))
	if i2 < 0 || i1 < 0 || i2 > i1 {
		t.Errorf("expected Sheet2 before Sheet1, got positions %d and %d", i2, i1)
	}

	loaded, err := xlsx.LoadFile(path, nil)
	if err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"Sheet1", "Sheet2"} {
		tbl, _ := loaded.Sheets.Get(name)
		body, err := convert.Render(tbl, convert.CSV)
		if err != nil {
			t.Fatal(err)
		}
		if !strings.Contains(res.Text, SheetHeader(name)+"\n"+body) {
			t.Errorf("body of %s differs from a direct render", name)
		}
	}

	want := SheetHeader("Sheet2") + "\n"
	if !strings.HasPrefix(res.Text, want) {
		t.Errorf("expected output to start with %q", want)
	}
	if !strings.Contains(res.Text, "\n\n"+SheetHeader("Sheet1")) {
		t.Error("expected sheet blocks to be separated by a blank line")
	}
}

func TestConvertWithSummaryAndTemplate(t *testing.T) {
	path := writeWorkbook(t, sheet1)

	res, err := Convert(xlsx.Path(path), Options{
		Format:         "markdown",
		Template:       prompt.New("Analyze this data: [formatted_data]"),
		IncludeSummary: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if !strings.HasPrefix(res.Text, "Analyze this data: "+summary.Header) {
		t.Errorf("unexpected prefix: %q", res.Text[:60])
	}
	if !strings.Contains(res.Text, "\n\n"+SheetHeader("Sheet1")+"\n| Name | Age | City | Salary |") {
		t.Error("expected the sheet block after the summary")
	}
	if res.Summary == nil || res.Summary.Rows != 4 || res.Summary.Columns != 4 {
		t.Errorf("unexpected summary %+v", res.Summary)
	}
}

func TestConvertChunkedWithSummary(t *testing.T) {
	path := writeWorkbook(t, sheet1)

	res, err := ConvertChunked(xlsx.Path(path), Options{
		Format:         "csv",
		MaxRows:        2,
		Template:       prompt.New("Review: [formatted_data]"),
		IncludeSummary: true,
	})
	if err != nil {
		t.Fatal(err)
	}

	if len(res.Segments) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(res.Segments))
	}
	if !strings.HasPrefix(res.Segments[0], "Review: "+summary.Header) {
		t.Errorf("segment 0 should be the templated summary, got %q", res.Segments[0])
	}
	if !strings.HasPrefix(res.Segments[1], "Review: "+ChunkHeader("Sheet1", 1, 2)+"\nName,Age,City,Salary\nAlice,") {
		t.Errorf("segment 1 = %q", res.Segments[1])
	}
	if !strings.HasPrefix(res.Segments[2], "Review: "+ChunkHeader("Sheet1", 2, 2)+"\nName,Age,City,Salary\nCarol,") {
		t.Errorf("segment 2 = %q", res.Segments[2])
	}
}

func TestConvertChunkedSheetOrder(t *testing.T) {
	path := writeWorkbook(t, sheet1, sheet2)

	res, err := ConvertChunked(xlsx.Path(path), Options{MaxRows: 3})
	if err != nil {
		t.Fatal(err)
	}

	want := []string{
		ChunkHeader("Sheet1", 1, 2),
		ChunkHeader("Sheet1", 2, 2),
		ChunkHeader("Sheet2", 1, 1),
	}
	if len(res.Segments) != len(want) {
		t.Fatalf("expected %d segments, got %d", len(want), len(res.Segments))
	}
	for i, w := range want {
		if !strings.HasPrefix(res.Segments[i], w+"\n") {
			t.Errorf("segment %d should start with %q, got %q", i, w, res.Segments[i])
		}
	}
}

func TestUnsupportedFormatFailsBeforeLoading(t *testing.T) {
	missing := xlsx.Path(filepath.Join(t.TempDir(), "missing.xlsx"))

	res, err := Convert(missing, Options{Format: "xml"})
	if !errors.Is(err, errs.ErrUnsupportedFormat) {
		t.Fatalf("expected UnsupportedFormat, got %v", err)
	}
	if res != nil {
		t.Error("expected no output")
	}

	_, err = ConvertChunked(missing, Options{Format: "yaml", MaxRows: 5})
	if !errors.Is(err, errs.ErrUnsupportedFormat) {
		t.Errorf("expected UnsupportedFormat, got %v", err)
	}
}

func TestConvertChunkedInvalidSize(t *testing.T) {
	path := writeWorkbook(t, sheet1)
	for _, size := range []int{0, -3} {
		_, err := ConvertChunked(xlsx.Path(path), Options{MaxRows: size})
		if !errors.Is(err, errs.ErrInvalidChunkSize) {
			t.Errorf("size %d: expected InvalidChunkSize, got %v", size, err)
		}
	}
}

func TestConvertValidAndMissingSheet(t *testing.T) {
	path := writeWorkbook(t, sheet1, sheet2)

	res, err := Convert(xlsx.Path(path), Options{Sheets: []string{"Sheet1", "Nope"}})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Count(res.Text, "=== SHEET: ") != 1 {
		t.Errorf("expected only Sheet1 in output:\n%s", res.Text)
	}
	if len(res.Skipped) != 1 || res.Skipped[0].Sheet != "Nope" {
		t.Errorf("expected Nope to be skipped, got %+v", res.Skipped)
	}
}

func TestConvertOnlyMissingSheets(t *testing.T) {
	path := writeWorkbook(t, sheet1)

	_, err := Convert(xlsx.Path(path), Options{Sheets: []string{"Nope"}})
	if !errors.Is(err, errs.ErrNoReadableSheets) {
		t.Errorf("expected NoReadableSheets, got %v", err)
	}
}

func TestConvertSheetsEmptySet(t *testing.T) {
	_, err := ConvertSheets(table.NewSheetSet(), convert.CSV, Options{})
	if !errors.Is(err, errs.ErrNoSheetsLoaded) {
		t.Errorf("expected NoSheetsLoaded, got %v", err)
	}
	_, err = ConvertSheetsChunked(table.NewSheetSet(), convert.CSV, Options{MaxRows: 10})
	if !errors.Is(err, errs.ErrNoSheetsLoaded) {
		t.Errorf("expected NoSheetsLoaded, got %v", err)
	}
}

func TestZeroRowSheetsAreSkipped(t *testing.T) {
	set := table.NewSheetSet()
	set.Add("Blank", table.FromStrings([]string{"A"}, nil))
	set.Add("Data", table.FromStrings([]string{"A"}, [][]string{{"1"}}))

	res, err := ConvertSheets(set, convert.CSV, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != SheetHeader("Data")+"\nA\n1\n" {
		t.Errorf("unexpected text %q", res.Text)
	}

	empty := table.NewSheetSet()
	empty.Add("Blank", table.FromStrings([]string{"A"}, nil))
	res, err = ConvertSheets(empty, convert.CSV, Options{Template: prompt.New("Data: [formatted_data]"), IncludeSummary: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Text != "Data: " {
		t.Errorf("expected empty data in the template, got %q", res.Text)
	}
}

func TestConvertFromBytes(t *testing.T) {
	data, err := xlsx.WriteBytes(&xlsx.Workbook{Sheets: []xlsx.Sheet{sheet2}})
	if err != nil {
		t.Fatal(err)
	}

	res, err := Convert(xlsx.Bytes(data), Options{Format: "json"})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(res.Text, `"Units": 12`) {
		t.Errorf("expected numeric units in JSON:\n%s", res.Text)
	}
}

func TestConvertFileWritesNamedOutputs(t *testing.T) {
	path := writeWorkbook(t, sheet1)
	outDir := filepath.Join(t.TempDir(), "prompts")

	res, err := ConvertFile(path, outDir, Options{Format: "markdown"})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Outputs) != 1 || res.Outputs[0] != filepath.Join(outDir, "book.md") {
		t.Fatalf("unexpected outputs %v", res.Outputs)
	}

	res, err = ConvertFile(path, outDir, Options{MaxRows: 3})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(outDir, "book_1.csv"), filepath.Join(outDir, "book_2.csv")}
	if len(res.Outputs) != 2 || res.Outputs[0] != want[0] || res.Outputs[1] != want[1] {
		t.Errorf("unexpected chunk outputs %v", res.Outputs)
	}
}
