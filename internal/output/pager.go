package output

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"github.com/mattn/go-isatty"
)

const defaultTermHeight = 40

// ShouldPage returns true if output should be piped through a pager.
// This checks if stdout is a terminal and the content exceeds terminal height.
func ShouldPage(content string, termHeight int) bool {
	if os.Getenv("XLPROMPT_NO_PAGER") != "" || !isTerminal() {
		return false
	}
	lines := strings.Count(content, "\n")
	return lines > termHeight
}

// Page pipes content through the user's preferred pager (PAGER env, or "less").
func Page(content string) error {
	args := strings.Fields(os.Getenv("PAGER"))
	if len(args) == 0 {
		args = []string{"less"}
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Stdin = strings.NewReader(content)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	return cmd.Run()
}

// Print writes content to w. Output bound for the process's stdout is paged
// when it would not fit the terminal; a failing pager falls back to plain
// output.
func Print(w io.Writer, content string) error {
	if !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if f, ok := w.(*os.File); ok && f == os.Stdout && ShouldPage(content, termHeight()) {
		if err := Page(content); err == nil {
			return nil
		}
	}
	_, err := fmt.Fprint(w, content)
	return err
}

func termHeight() int {
	if n, err := strconv.Atoi(os.Getenv("LINES")); err == nil && n > 0 {
		return n
	}
	return defaultTermHeight
}

func isTerminal() bool {
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
