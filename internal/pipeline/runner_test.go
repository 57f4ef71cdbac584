package pipeline

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseJob(t *testing.T) {
	job, err := ParseJob([]byte(`
name: quarterly
steps:
  - id: revenue
    input: data.xlsx
    sheets: [Revenue]
    format: markdown
    template: "Analyze: [formatted_data]"
    summary: true
    chunk_size: 50
    output: out/revenue.txt
    on_failure: skip
`))
	if err != nil {
		t.Fatal(err)
	}
	if job.Name != "quarterly" || len(job.Steps) != 1 {
		t.Fatalf("unexpected job %+v", job)
	}
	s := job.Steps[0]
	if s.Format != "markdown" || s.ChunkSize != 50 || s.Summary == nil || !*s.Summary || s.Sheets[0] != "Revenue" {
		t.Errorf("unexpected step %+v", s)
	}
}

func TestParseJobValidation(t *testing.T) {
	tests := map[string]string{
		"missing name":   "steps:\n  - id: a\n    input: a.xlsx\n",
		"no steps":       "name: x\n",
		"missing id":     "name: x\nsteps:\n  - input: a.xlsx\n",
		"duplicate id":   "name: x\nsteps:\n  - id: a\n    input: a.xlsx\n  - id: a\n    input: b.xlsx\n",
		"missing input":  "name: x\nsteps:\n  - id: a\n",
		"bad format":     "name: x\nsteps:\n  - id: a\n    input: a.xlsx\n    format: xml\n",
		"negative chunk": "name: x\nsteps:\n  - id: a\n    input: a.xlsx\n    chunk_size: -1\n",
		"bad on_failure": "name: x\nsteps:\n  - id: a\n    input: a.xlsx\n    on_failure: retry\n",
		"invalid yaml":   "name: [x\n",
	}
	for name, src := range tests {
		src := src
		t.Run(name, func(t *testing.T) {
			if _, err := ParseJob([]byte(src)); err == nil {
				t.Error("expected a validation error")
			}
		})
	}
}

func TestLoadJobMissingFile(t *testing.T) {
	_, err := LoadJob(filepath.Join(t.TempDir(), "job.yaml"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestRunWritesOutputs(t *testing.T) {
	book := writeWorkbook(t, sheet1, sheet2)
	dir := filepath.Dir(book)

	jobFile := filepath.Join(dir, "job.yaml")
	yaml := `
name: nightly
steps:
  - id: people
    input: book.xlsx
    sheets: [Sheet1]
    format: markdown
    template: "Data for ${{ env.XLPROMPT_TEST_TEAM }}: [formatted_data]"
    output: out/people.md
  - id: regions
    input: book.xlsx
    sheets: [Sheet1]
    chunk_size: 2
    output: out/regions.csv
`
	if err := os.WriteFile(jobFile, []byte(yaml), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("XLPROMPT_TEST_TEAM", "finance")

	job, err := LoadJob(jobFile)
	if err != nil {
		t.Fatal(err)
	}

	var log bytes.Buffer
	r := NewRunner(Defaults{Format: "csv"}, true)
	r.SetLog(&log)

	report, err := r.Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if report.RunID == "" || report.Failed != 0 || len(report.Results) != 2 {
		t.Fatalf("unexpected report %+v", report)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "people.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "Data for finance: === SHEET: Sheet1 ===\n| Name |") {
		t.Errorf("unexpected people.md:\n%s", data)
	}

	chunked := report.Results[1]
	if chunked.Segments != 2 || len(chunked.Outputs) != 2 {
		t.Fatalf("expected 2 chunk files, got %+v", chunked)
	}
	if chunked.Outputs[0] != filepath.Join(dir, "out", "regions_1.csv") {
		t.Errorf("unexpected chunk path %s", chunked.Outputs[0])
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "regions_2.csv")); err != nil {
		t.Error(err)
	}

	if !strings.Contains(log.String(), "[2/2] Running step: regions") {
		t.Errorf("expected verbose progress lines, got:\n%s", log.String())
	}
}

func TestRunOnFailureSkip(t *testing.T) {
	book := writeWorkbook(t, sheet2)

	job := &Job{
		Name: "partial",
		Steps: []Step{
			{ID: "broken", Input: filepath.Join(t.TempDir(), "missing.xlsx"), OnFailure: "skip"},
			{ID: "ok", Input: book},
		},
	}

	report, err := NewRunner(Defaults{}, false).Run(context.Background(), job)
	if err != nil {
		t.Fatal(err)
	}
	if report.Failed != 1 {
		t.Errorf("expected 1 failed step, got %d", report.Failed)
	}
	if report.Results[0].Message == "" {
		t.Error("expected the failure message to be recorded")
	}
	if !strings.HasPrefix(report.Results[1].Text, "=== SHEET: Sheet2 ===\nRegion,Units\n") {
		t.Errorf("unexpected text %q", report.Results[1].Text)
	}
}

func TestRunStopsOnFailure(t *testing.T) {
	book := writeWorkbook(t, sheet2)

	job := &Job{
		Name: "strict",
		Steps: []Step{
			{ID: "broken", Input: book, Sheets: []string{"Nope"}},
			{ID: "never", Input: book},
		},
	}

	report, err := NewRunner(Defaults{}, false).Run(context.Background(), job)
	if err == nil {
		t.Fatal("expected the run to fail")
	}
	if len(report.Results) != 1 {
		t.Errorf("expected the run to stop after the first step, got %d results", len(report.Results))
	}
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	job := &Job{Name: "cancelled", Steps: []Step{{ID: "a", Input: "a.xlsx"}}}
	if _, err := NewRunner(Defaults{}, false).Run(ctx, job); err != context.Canceled {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestInterpolate(t *testing.T) {
	r := NewRunner(Defaults{}, false)
	r.results["first"] = &StepResult{StepID: "first", Outputs: []string{"out/first.csv"}}
	t.Setenv("XLPROMPT_TEST_VAR", "hello_world")

	tests := []struct {
		in, want string
	}{
		{"Today is ${{ date.today }}", "Today is " + time.Now().Format("2006-01-02")},
		{"Value: ${{ env.XLPROMPT_TEST_VAR }}", "Value: hello_world"},
		{"Value: ${{ env.XLPROMPT_MISSING_VAR }}", "Value: "},
		{"Prev: ${{ steps.first.output }}", "Prev: out/first.csv"},
		{"Keep: ${{ unknown.expr }}", "Keep: ${{ unknown.expr }}"},
	}
	for _, tt := range tests {
		if got := r.interpolate(tt.in); got != tt.want {
			t.Errorf("interpolate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDefaultsApply(t *testing.T) {
	r := NewRunner(Defaults{Format: "json", ChunkSize: 10, Summary: true, Template: "T: [formatted_data]"}, false)
	off := false
	step := r.resolveStep(Step{ID: "a", Input: "a.xlsx", Summary: &off}, "jobs")

	if step.Format != "json" || step.ChunkSize != 10 || step.Template != "T: [formatted_data]" {
		t.Errorf("defaults not applied: %+v", step)
	}
	if *step.Summary {
		t.Error("an explicit summary: false must win over the default")
	}
	if step.Input != filepath.Join("jobs", "a.xlsx") {
		t.Errorf("expected input relative to the job directory, got %s", step.Input)
	}
	if FormatFor(step) != "json" {
		t.Errorf("FormatFor = %q", FormatFor(step))
	}
}
