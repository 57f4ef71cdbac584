// Package progress draws batch progress and a loading spinner on stderr so
// stdout stays clean for prompt text.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Bar renders an ASCII progress bar.
type Bar struct {
	Total   int
	Current int
	Failed  int
	Label   string
	Width   int
	Enabled bool

	out     io.Writer
	started time.Time
	mu      sync.Mutex
}

// New creates a progress bar over total workbooks.
// Disabled when stderr is not a TTY, under --json, or with XLPROMPT_NO_PROGRESS=1.
func New(label string, total int) *Bar {
	return &Bar{
		Total:   total,
		Label:   label,
		Width:   30,
		Enabled: shouldEnable(),
		out:     os.Stderr,
		started: time.Now(),
	}
}

// Done records one finished item and redraws.
func (b *Bar) Done(name string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.Current < b.Total {
		b.Current++
	}
	if err != nil {
		b.Failed++
	}
	b.render(name)
}

// Finish clears the bar and prints a completion line with the elapsed time.
func (b *Bar) Finish(summary string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.Enabled {
		return
	}
	elapsed := time.Since(b.started).Round(time.Millisecond)
	fmt.Fprintf(b.writer(), "\r\033[K✓ %s (%s)\n", summary, elapsed)
}

func (b *Bar) render(name string) {
	if !b.Enabled {
		return
	}
	fmt.Fprintf(b.writer(), "\r\033[K%s", b.line(name))
}

// line formats the bar without terminal control codes.
func (b *Bar) line(name string) string {
	filled := 0
	if b.Total > 0 {
		filled = b.Current * b.Width / b.Total
	}
	bar := strings.Repeat("#", filled) + strings.Repeat(".", b.Width-filled)

	s := fmt.Sprintf("%s [%s] %d/%d", b.Label, bar, b.Current, b.Total)
	if b.Failed > 0 {
		s += fmt.Sprintf(" (%d failed)", b.Failed)
	}
	if name != "" {
		s += "  " + name
	}
	return s
}

func (b *Bar) writer() io.Writer {
	if b.out == nil {
		return os.Stderr
	}
	return b.out
}

// Pct returns the current percentage (0-100) of the bar.
func (b *Bar) Pct() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.Total == 0 {
		return 0
	}
	return float64(b.Current) / float64(b.Total) * 100
}

// Spinner shows activity while a single large workbook loads.
type Spinner struct {
	Label   string
	Enabled bool

	out  io.Writer
	mu   sync.Mutex
	done chan struct{}
	wg   sync.WaitGroup
}

// NewSpinner creates a spinner.
func NewSpinner(label string) *Spinner {
	return &Spinner{
		Label:   label,
		Enabled: shouldEnable(),
		out:     os.Stderr,
	}
}

// Start begins the spinner animation.
func (s *Spinner) Start() {
	if !s.Enabled {
		return
	}

	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return
	}
	s.done = make(chan struct{})
	done := s.done
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		frames := []rune{'|', '/', '-', '\\'}
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()

		for i := 0; ; i++ {
			select {
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.writer(), "\r\033[K%c %s", frames[i%len(frames)], s.Label)
				s.mu.Unlock()
			}
		}
	}()
}

// Stop ends the animation and prints result when non-empty.
func (s *Spinner) Stop(result string) {
	s.mu.Lock()
	done := s.done
	s.done = nil
	s.mu.Unlock()

	if done != nil {
		close(done)
		s.wg.Wait()
	}

	if s.Enabled {
		if result == "" {
			fmt.Fprint(s.writer(), "\r\033[K")
			return
		}
		fmt.Fprintf(s.writer(), "\r\033[K✓ %s\n", result)
	}
}

// Update changes the spinner label while it's running.
func (s *Spinner) Update(label string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Label = label
}

func (s *Spinner) writer() io.Writer {
	if s.out == nil {
		return os.Stderr
	}
	return s.out
}

func shouldEnable() bool {
	if os.Getenv("XLPROMPT_NO_PROGRESS") == "1" {
		return false
	}
	// Set by the root command for --json.
	if os.Getenv("XLPROMPT_JSON") == "true" {
		return false
	}
	return isTTY()
}

func isTTY() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
