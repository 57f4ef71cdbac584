package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/pipeline"
)

func newTestWatcher(t *testing.T, config Config, handler Handler) *Watcher {
	t.Helper()
	w, err := New(config, handler)
	if err != nil {
		t.Fatal(err)
	}
	return w
}

func TestIsWorkbook(t *testing.T) {
	tests := map[string]bool{
		"/tmp/sales.xlsx":      true,
		"/tmp/Macro.XLSM":      true,
		"/tmp/~$sales.xlsx":    false,
		"/tmp/.~lock.xlsx":     false,
		"/tmp/report.docx":     false,
		"/tmp/data.csv":        false,
		"/tmp/no_extension":    false,
		"/tmp/archive.xlsx.gz": false,
	}
	for path, want := range tests {
		if got := IsWorkbook(path); got != want {
			t.Errorf("IsWorkbook(%q) = %v, want %v", path, got, want)
		}
	}
}

func TestMatchesPatterns(t *testing.T) {
	w := newTestWatcher(t, Config{Patterns: []string{"sales_*", "q?.xlsx"}}, nil)
	defer w.watcher.Close()

	if !w.matches("/in/sales_2024.xlsx") || !w.matches("/in/q3.xlsx") {
		t.Error("expected pattern matches")
	}
	if w.matches("/in/inventory.xlsx") {
		t.Error("inventory.xlsx should not match")
	}

	all := newTestWatcher(t, Config{}, nil)
	defer all.watcher.Close()
	if !all.matches("/in/anything.xlsx") {
		t.Error("no patterns should match every workbook")
	}
}

func TestDefaultDebounce(t *testing.T) {
	w := newTestWatcher(t, Config{}, nil)
	defer w.watcher.Close()

	if w.Config.Debounce != 500 {
		t.Errorf("expected default debounce 500, got %d", w.Config.Debounce)
	}
}

func TestProcessRecordsEvents(t *testing.T) {
	calls := 0
	w := newTestWatcher(t, Config{Patterns: []string{"keep*"}}, func(path string) ([]string, error) {
		calls++
		if strings.Contains(path, "bad") {
			return nil, errors.New("corrupt workbook")
		}
		return []string{"/out/keep.csv"}, nil
	})
	defer w.watcher.Close()

	w.process("/in/keep.xlsx", "CREATE")
	w.process("/in/keep_bad.xlsx", "WRITE")
	w.process("/in/other.xlsx", "CREATE")

	events := w.Events()
	if len(events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(events))
	}
	if events[0].Status != "processed" || events[0].Outputs[0] != "/out/keep.csv" {
		t.Errorf("unexpected event %+v", events[0])
	}
	if events[1].Status != "error" || events[1].Error != "corrupt workbook" {
		t.Errorf("unexpected event %+v", events[1])
	}
	if events[2].Status != "skipped" {
		t.Errorf("unexpected event %+v", events[2])
	}
	if calls != 2 {
		t.Errorf("handler called %d times, want 2", calls)
	}
}

func TestSupersededDebounceKeepsNewerTimer(t *testing.T) {
	w := newTestWatcher(t, Config{}, nil)
	defer w.watcher.Close()

	stale := time.NewTimer(time.Hour)
	stale.Stop()
	newer := time.NewTimer(time.Hour)
	defer newer.Stop()

	w.mu.Lock()
	w.debounce["/in/sales.xlsx"] = newer
	w.mu.Unlock()

	w.fire("/in/sales.xlsx", "WRITE", stale)
	w.mu.Lock()
	got := w.debounce["/in/sales.xlsx"]
	w.mu.Unlock()
	if got != newer {
		t.Fatal("stale callback removed the newer timer")
	}
	if n := len(w.Events()); n != 0 {
		t.Fatalf("stale callback recorded %d events", n)
	}

	w.fire("/in/sales.xlsx", "WRITE", newer)
	w.mu.Lock()
	_, pending := w.debounce["/in/sales.xlsx"]
	w.mu.Unlock()
	if pending {
		t.Error("expected entry removed after its own timer fired")
	}
	if events := w.Events(); len(events) != 1 || events[0].Status != "processed" {
		t.Errorf("unexpected events %+v", events)
	}
}

func TestWatcherConvertsNewWorkbook(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()

	converted := make(chan []string, 1)
	handler := ConvertHandler(out, pipeline.Options{Format: "markdown"})
	w := newTestWatcher(t, Config{Directories: []string{in}, Debounce: 50}, func(path string) ([]string, error) {
		paths, err := handler(path)
		if err == nil {
			converted <- paths
		}
		return paths, err
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	// Write to a temporary name first so the watcher sees a complete file.
	tmp := filepath.Join(t.TempDir(), "sales.xlsx")
	wb := &xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: "Sales", Rows: [][]string{{"Item", "Qty"}, {"Pens", "4"}}}}}
	if err := xlsx.WriteFile(wb, tmp); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "sales.xlsx"), data, 0644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-converted:
		if len(paths) != 1 || paths[0] != filepath.Join(out, "sales.md") {
			t.Fatalf("unexpected outputs %v", paths)
		}
		text, err := os.ReadFile(paths[0])
		if err != nil {
			t.Fatal(err)
		}
		if !strings.HasPrefix(string(text), "=== SHEET: Sales ===\n| Item | Qty |") {
			t.Errorf("unexpected output:\n%s", text)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("timeout waiting for conversion")
	}
}

func TestWatcherIgnoresLockFiles(t *testing.T) {
	dir := t.TempDir()

	called := make(chan string, 1)
	w := newTestWatcher(t, Config{Directories: []string{dir}, Debounce: 50}, func(path string) ([]string, error) {
		called <- path
		return nil, nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Start(ctx)
	time.Sleep(100 * time.Millisecond)

	os.WriteFile(filepath.Join(dir, "~$sales.xlsx"), []byte("lock"), 0644)
	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("text"), 0644)

	select {
	case path := <-called:
		t.Errorf("handler should not run for %s", path)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestConvertHandlerChunked(t *testing.T) {
	in := filepath.Join(t.TempDir(), "big.xlsx")
	rows := [][]string{{"N"}}
	for i := 0; i < 5; i++ {
		rows = append(rows, []string{"1"})
	}
	if err := xlsx.WriteFile(&xlsx.Workbook{Sheets: []xlsx.Sheet{{Name: "Data", Rows: rows}}}, in); err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	paths, err := ConvertHandler(out, pipeline.Options{MaxRows: 2})(in)
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) != 3 || paths[2] != filepath.Join(out, "big_3.csv") {
		t.Errorf("unexpected paths %v", paths)
	}
}
