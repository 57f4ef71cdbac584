package shell

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// recordingRunner echoes the arguments it was called with.
func recordingRunner(calls *[][]string) CommandRunner {
	return func(ctx context.Context, args []string, stdout, stderr io.Writer) error {
		*calls = append(*calls, args)
		switch args[0] {
		case "version":
			fmt.Fprintln(stdout, "xlprompt v1.2.0-test")
			return nil
		case "broken":
			fmt.Fprintln(stderr, "workbook is corrupt")
			return fmt.Errorf("exit status 1")
		}
		fmt.Fprintln(stdout, strings.Join(args, " "))
		return nil
	}
}

func newTestSession(t *testing.T) *Session {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	s, err := NewSession()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func withRunner(t *testing.T) *[][]string {
	t.Helper()
	var calls [][]string
	DefaultRunner = recordingRunner(&calls)
	t.Cleanup(func() { DefaultRunner = nil })
	return &calls
}

func TestNewSession(t *testing.T) {
	s := newTestSession(t)
	if s.HistoryFile == "" || !strings.Contains(s.HistoryFile, ".xlprompt") {
		t.Errorf("unexpected history file %q", s.HistoryFile)
	}
	if len(s.KnownCommands) == 0 {
		t.Error("expected known commands to be populated")
	}
}

func TestHandleVersion(t *testing.T) {
	withRunner(t)
	s := newTestSession(t)

	out, err := s.Handle(context.Background(), "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "v1.2.0-test") {
		t.Errorf("expected version output, got %q", out)
	}
	if s.LastOutput != out {
		t.Error("expected LastOutput to be updated")
	}
}

func TestHandleQuotedArguments(t *testing.T) {
	calls := withRunner(t)
	s := newTestSession(t)

	if _, err := s.Handle(context.Background(), `convert book.xlsx --template "Analyze: [formatted_data]"`); err != nil {
		t.Fatal(err)
	}
	got := (*calls)[0]
	if len(got) != 4 || got[3] != "Analyze: [formatted_data]" {
		t.Errorf("unexpected args %q", got)
	}
}

func TestUseFillsWorkbook(t *testing.T) {
	calls := withRunner(t)
	s := newTestSession(t)

	book := filepath.Join(t.TempDir(), "sales.xlsx")
	if err := os.WriteFile(book, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Handle(context.Background(), "use "+book); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Handle(context.Background(), "set format md"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Handle(context.Background(), "set sheet Q1 Q2"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Handle(context.Background(), "convert --summary"); err != nil {
		t.Fatal(err)
	}

	want := []string{"convert", "--summary", book, "--format", "md", "--sheet", "Q1", "--sheet", "Q2"}
	if got := (*calls)[0]; strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("args = %q, want %q", got, want)
	}
	if !strings.Contains(s.prompt(), "sales.xlsx") {
		t.Errorf("prompt should show the workbook, got %q", s.prompt())
	}
}

func TestExplicitArgumentsWin(t *testing.T) {
	calls := withRunner(t)
	s := newTestSession(t)
	s.Workbook = "default.xlsx"
	s.Format = "json"

	if _, err := s.Handle(context.Background(), "convert other.xlsx --format csv"); err != nil {
		t.Fatal(err)
	}
	want := "convert|other.xlsx|--format|csv"
	if got := strings.Join((*calls)[0], "|"); got != want {
		t.Errorf("args = %q, want %q", got, want)
	}

	if _, err := s.Handle(context.Background(), "sheets --json"); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join((*calls)[1], "|"); got != "sheets|--json|default.xlsx" {
		t.Errorf("args = %q", got)
	}

	if _, err := s.Handle(context.Background(), "template list"); err != nil {
		t.Fatal(err)
	}
	if got := strings.Join((*calls)[2], "|"); got != "template|list" {
		t.Errorf("non-workbook commands must not change, got %q", got)
	}
}

func TestUseMissingFile(t *testing.T) {
	s := newTestSession(t)
	if _, err := s.Handle(context.Background(), "use /nonexistent/book.xlsx"); err == nil {
		t.Error("expected error for a missing workbook")
	}
}

func TestUnset(t *testing.T) {
	s := newTestSession(t)
	s.Workbook, s.Format, s.Sheets = "a.xlsx", "json", []string{"S"}

	for _, line := range []string{"unset format", "unset sheet"} {
		if _, err := s.Handle(context.Background(), line); err != nil {
			t.Fatal(err)
		}
	}
	if s.Format != "" || s.Sheets != nil || s.Workbook != "a.xlsx" {
		t.Errorf("unexpected session %+v", s)
	}
	if _, err := s.Handle(context.Background(), "unset workbook"); err != nil {
		t.Fatal(err)
	}
	if s.Workbook != "" {
		t.Error("expected workbook to be cleared")
	}
}

func TestSaveLastOutput(t *testing.T) {
	withRunner(t)
	s := newTestSession(t)
	path := filepath.Join(t.TempDir(), "prompt.txt")

	if _, err := s.Handle(context.Background(), "save "+path); err == nil {
		t.Error("expected error when nothing has been produced")
	}
	if _, err := s.Handle(context.Background(), "version"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Handle(context.Background(), "save "+path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "v1.2.0-test") {
		t.Errorf("unexpected saved output %q", data)
	}
}

func TestEvalErrorUsesStderr(t *testing.T) {
	withRunner(t)
	s := newTestSession(t)

	_, err := s.Handle(context.Background(), "broken")
	if err == nil || err.Error() != "workbook is corrupt" {
		t.Errorf("expected stderr text as error, got %v", err)
	}
}

func TestEvalNoRunner(t *testing.T) {
	DefaultRunner = nil
	s := newTestSession(t)
	if _, err := s.Eval(context.Background(), []string{"version"}); err == nil {
		t.Error("expected error when runner is nil")
	}
}

func TestHandleUnbalancedQuotes(t *testing.T) {
	withRunner(t)
	s := newTestSession(t)
	if _, err := s.Handle(context.Background(), `convert "book.xlsx`); err == nil {
		t.Error("expected a parse error")
	}
}

func TestComplete(t *testing.T) {
	s := newTestSession(t)

	tests := []struct {
		input string
		want  []string
	}{
		{"conv", []string{"convert"}},
		{"s", []string{"save", "set", "sheets", "summary"}},
		{"template re", []string{"remove"}},
		{"convert --chunk", []string{"--chunk-size"}},
		{"zzz ", nil},
	}
	for _, tt := range tests {
		got := s.Complete(tt.input)
		if strings.Join(got, ",") != strings.Join(tt.want, ",") {
			t.Errorf("Complete(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}

	if len(s.Complete("")) != len(s.KnownCommands) {
		t.Error("expected all commands for empty input")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		30 * time.Second: "30s",
		90 * time.Second: "1m 30s",
		5 * time.Minute:  "5m 0s",
	}
	for d, want := range tests {
		if got := formatDuration(d); got != want {
			t.Errorf("formatDuration(%s) = %q, want %q", d, got, want)
		}
	}
}
