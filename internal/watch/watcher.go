// Package watch monitors directories for new or modified workbooks and
// converts each one into prompt text as soon as it settles.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Config holds the watcher configuration.
type Config struct {
	Directories []string `json:"directories"`
	Patterns    []string `json:"patterns,omitempty"` // glob patterns on the base name, e.g. "sales_*"
	Recursive   bool     `json:"recursive"`
	Debounce    int      `json:"debounceMs"` // Milliseconds to wait for writes to settle
}

// Event records one workbook that was picked up.
type Event struct {
	Time      time.Time `json:"time"`
	Path      string    `json:"path"`
	Operation string    `json:"operation"`
	Outputs   []string  `json:"outputs,omitempty"`
	Status    string    `json:"status"` // "processed", "error", "skipped"
	Error     string    `json:"error,omitempty"`
}

// Handler converts a workbook and returns the files it wrote.
type Handler func(path string) ([]string, error)

// Watcher monitors directories for workbook changes.
type Watcher struct {
	Config  Config
	Logger  *log.Logger
	Handler Handler

	mu       sync.Mutex
	events   []Event
	watcher  *fsnotify.Watcher
	debounce map[string]*time.Timer
}

var workbookExtensions = map[string]bool{
	".xlsx": true,
	".xlsm": true,
}

// New creates a new Watcher with the given configuration.
func New(config Config, handler Handler) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("could not create file watcher: %w", err)
	}

	if config.Debounce <= 0 {
		config.Debounce = 500
	}

	return &Watcher{
		Config:   config,
		Logger:   log.New(os.Stderr, "[watch] ", log.LstdFlags),
		Handler:  handler,
		watcher:  fsw,
		debounce: make(map[string]*time.Timer),
	}, nil
}

// Start begins watching the configured directories. It blocks until the
// context is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.Config.Directories {
		absDir, err := filepath.Abs(dir)
		if err != nil {
			return fmt.Errorf("could not resolve %s: %w", dir, err)
		}

		if w.Config.Recursive {
			if err := w.addRecursive(absDir); err != nil {
				return err
			}
		} else if err := w.watcher.Add(absDir); err != nil {
			return fmt.Errorf("could not watch %s: %w", absDir, err)
		}
	}

	w.Logger.Printf("Watching %d directory(ies) for workbooks", len(w.Config.Directories))

	for {
		select {
		case <-ctx.Done():
			w.Logger.Println("Stopping watcher")
			w.stopTimers()
			return w.watcher.Close()
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Printf("Error: %v", err)
		}
	}
}

func (w *Watcher) addRecursive(dir string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if strings.HasPrefix(filepath.Base(path), ".") && path != dir {
				return filepath.SkipDir
			}
			return w.watcher.Add(path)
		}
		return nil
	})
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}

	// New subdirectories join a recursive watch.
	if event.Has(fsnotify.Create) && w.Config.Recursive {
		if fi, err := os.Stat(event.Name); err == nil && fi.IsDir() {
			if err := w.addRecursive(event.Name); err != nil {
				w.Logger.Printf("Error: could not watch %s: %v", event.Name, err)
			}
			return
		}
	}

	if !IsWorkbook(event.Name) {
		return
	}

	path := event.Name
	op := event.Op.String()

	w.mu.Lock()
	if timer, ok := w.debounce[path]; ok {
		timer.Stop()
	}
	var timer *time.Timer
	timer = time.AfterFunc(time.Duration(w.Config.Debounce)*time.Millisecond, func() {
		w.fire(path, op, timer)
	})
	w.debounce[path] = timer
	w.mu.Unlock()
}

// fire runs a debounced event unless a later event for the same path has
// already replaced its timer.
func (w *Watcher) fire(path, op string, timer *time.Timer) {
	w.mu.Lock()
	if w.debounce[path] != timer {
		w.mu.Unlock()
		return
	}
	delete(w.debounce, path)
	w.mu.Unlock()
	w.process(path, op)
}

func (w *Watcher) process(path, operation string) {
	evt := Event{Time: time.Now(), Path: path, Operation: operation}

	switch {
	case !w.matches(path):
		evt.Status = "skipped"
	case w.Handler == nil:
		evt.Status = "processed"
		w.Logger.Printf("Matched %s [no handler]", path)
	default:
		outputs, err := w.Handler(path)
		evt.Outputs = outputs
		if err != nil {
			evt.Status = "error"
			evt.Error = err.Error()
			w.Logger.Printf("Error converting %s: %v", path, err)
		} else {
			evt.Status = "processed"
			w.Logger.Printf("Converted %s -> %s", path, strings.Join(outputs, ", "))
		}
	}

	w.mu.Lock()
	w.events = append(w.events, evt)
	w.mu.Unlock()
}

func (w *Watcher) matches(path string) bool {
	if len(w.Config.Patterns) == 0 {
		return true
	}
	base := filepath.Base(path)
	for _, p := range w.Config.Patterns {
		if ok, _ := filepath.Match(p, base); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, t := range w.debounce {
		t.Stop()
		delete(w.debounce, path)
	}
}

// Events returns all recorded events.
func (w *Watcher) Events() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	events := make([]Event, len(w.events))
	copy(events, w.events)
	return events
}

// IsWorkbook reports whether path names a workbook the loader can read.
// Office lock files such as ~$book.xlsx are ignored.
func IsWorkbook(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "~$") || strings.HasPrefix(base, ".~") {
		return false
	}
	return workbookExtensions[strings.ToLower(filepath.Ext(base))]
}
