// Package shell provides the interactive xlprompt REPL.
package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/google/shlex"

	"github.com/klytics/xlprompt/internal/output"
)

// CommandRunner executes an xlprompt command and writes its output.
// This is set by the cmd/shell package to avoid import cycles.
type CommandRunner func(ctx context.Context, args []string, stdout, stderr io.Writer) error

// DefaultRunner is the command runner used by the shell session.
var DefaultRunner CommandRunner

// Session manages an interactive shell session. A workbook chosen with
// "use" is passed to commands that take one when none is given.
type Session struct {
	Workbook       string
	Format         string
	Sheets         []string
	LastOutput     string
	CommandHistory []string
	HistoryFile    string
	StartTime      time.Time

	// KnownCommands is the list of top-level commands for completion.
	KnownCommands []string
}

// workbookCommands take a workbook as their first positional argument.
var workbookCommands = map[string]bool{
	"convert": true,
	"summary": true,
	"sheets":  true,
}

// NewSession creates a new interactive session.
func NewSession() (*Session, error) {
	home, _ := os.UserHomeDir()
	histFile := filepath.Join(home, ".xlprompt", "shell_history")

	if err := os.MkdirAll(filepath.Dir(histFile), 0755); err != nil {
		return nil, fmt.Errorf("could not create history directory: %w", err)
	}

	return &Session{
		HistoryFile: histFile,
		StartTime:   time.Now(),
		KnownCommands: []string{
			"convert", "summary", "sheets", "batch", "run", "watch",
			"template", "config", "completion", "version",
			"use", "set", "unset", "save",
			"help", "exit", "quit", "history",
		},
	}, nil
}

// Run starts the REPL loop. Blocks until 'exit' or Ctrl+D.
func (s *Session) Run(ctx context.Context) error {
	if DefaultRunner == nil {
		return fmt.Errorf("shell runner not configured")
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          s.prompt(),
		HistoryFile:     s.HistoryFile,
		AutoComplete:    readline.NewPrefixCompleter(s.buildCompleter()...),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return err
	}
	defer rl.Close()

	out := rl.Stdout()
	errOut := rl.Stderr()
	red := color.New(color.FgRed)

	fmt.Fprintln(out, "xlprompt interactive shell")
	fmt.Fprintln(out, "Type 'help' for commands, 'exit' to quit.")
	fmt.Fprintln(out)

	for {
		line, err := rl.Readline()
		if err != nil { // io.EOF or interrupt
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		s.CommandHistory = append(s.CommandHistory, line)

		if line == "exit" || line == "quit" {
			fmt.Fprintf(out, "\nSession ended. %d commands run in %s.\n",
				len(s.CommandHistory)-1, formatDuration(time.Since(s.StartTime)))
			return nil
		}

		result, err := s.Handle(ctx, line)
		if err != nil {
			red.Fprintf(errOut, "Error: %s\n", err)
			continue
		}
		if result != "" {
			fmt.Fprint(out, result)
			if !strings.HasSuffix(result, "\n") {
				fmt.Fprintln(out)
			}
		}
		rl.SetPrompt(s.prompt())
	}

	return nil
}

// Handle runs one line of input: a built-in session command or an xlprompt
// command.
func (s *Session) Handle(ctx context.Context, line string) (string, error) {
	args, err := shlex.Split(line)
	if err != nil {
		return "", fmt.Errorf("could not parse %q: %w", line, err)
	}
	if len(args) == 0 {
		return "", nil
	}

	switch args[0] {
	case "help":
		return helpText, nil
	case "history":
		var b strings.Builder
		for i, cmd := range s.CommandHistory {
			fmt.Fprintf(&b, "  %d  %s\n", i+1, cmd)
		}
		return b.String(), nil
	case "use":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: use <file.xlsx>")
		}
		if _, err := os.Stat(args[1]); err != nil {
			return "", fmt.Errorf("file not found: %s", args[1])
		}
		s.Workbook = args[1]
		s.Sheets = nil
		return fmt.Sprintf("Using workbook: %s", s.Workbook), nil
	case "set":
		return s.set(args[1:])
	case "unset":
		return s.unset(args[1:])
	case "save":
		if len(args) != 2 {
			return "", fmt.Errorf("usage: save <path>")
		}
		if s.LastOutput == "" {
			return "", fmt.Errorf("nothing to save yet")
		}
		if err := output.WriteText(args[1], s.LastOutput); err != nil {
			return "", err
		}
		return fmt.Sprintf("Saved %d bytes to %s", len(s.LastOutput), args[1]), nil
	}

	return s.Eval(ctx, args)
}

func (s *Session) set(args []string) (string, error) {
	if len(args) < 2 {
		return "", fmt.Errorf("usage: set format <name> | set sheet <name> [name...]")
	}
	switch args[0] {
	case "format":
		s.Format = args[1]
		return fmt.Sprintf("Default format: %s", s.Format), nil
	case "sheet", "sheets":
		s.Sheets = args[1:]
		return fmt.Sprintf("Default sheets: %s", strings.Join(s.Sheets, ", ")), nil
	}
	return "", fmt.Errorf("unknown setting %q (use 'format' or 'sheet')", args[0])
}

func (s *Session) unset(args []string) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("usage: unset format|sheet|workbook")
	}
	switch args[0] {
	case "format":
		s.Format = ""
	case "sheet", "sheets":
		s.Sheets = nil
	case "workbook":
		s.Workbook = ""
		s.Sheets = nil
	default:
		return "", fmt.Errorf("unknown setting %q", args[0])
	}
	return fmt.Sprintf("Cleared %s", args[0]), nil
}

// Eval runs a single xlprompt command and returns its output.
func (s *Session) Eval(ctx context.Context, args []string) (string, error) {
	if DefaultRunner == nil {
		return "", fmt.Errorf("shell runner not configured")
	}
	if len(args) == 0 {
		return "", nil
	}

	args = s.expand(args)

	var stdout, stderr bytes.Buffer
	err := DefaultRunner(ctx, args, &stdout, &stderr)

	out := stdout.String()
	if out != "" {
		s.LastOutput = out
	}

	if errOut := strings.TrimSpace(stderr.String()); errOut != "" && err != nil {
		return out, fmt.Errorf("%s", errOut)
	}

	return out, err
}

// expand fills in the session workbook, format and sheets for commands that
// were not given them explicitly.
func (s *Session) expand(args []string) []string {
	if !workbookCommands[args[0]] {
		return args
	}

	out := append([]string{}, args...)
	if s.Workbook != "" && !hasPositional(args[1:]) {
		out = append(out, s.Workbook)
	}
	if args[0] == "convert" && s.Format != "" && !hasFlag(args, "--format", "-f") {
		out = append(out, "--format", s.Format)
	}
	if args[0] != "sheets" && len(s.Sheets) > 0 && !hasFlag(args, "--sheet", "-s") {
		for _, name := range s.Sheets {
			out = append(out, "--sheet", name)
		}
	}
	return out
}

func hasPositional(args []string) bool {
	for i := 0; i < len(args); i++ {
		a := args[i]
		if !strings.HasPrefix(a, "-") {
			return true
		}
		// Flags with a separate value consume the next argument.
		if !strings.Contains(a, "=") && takesValue(a) {
			i++
		}
	}
	return false
}

func takesValue(flag string) bool {
	switch flag {
	case "--format", "-f", "--sheet", "-s", "--template", "-t", "--template-file",
		"--template-name", "--placeholder", "--chunk-size", "-c", "--output", "-o", "--out-dir":
		return true
	}
	return false
}

func hasFlag(args []string, names ...string) bool {
	for _, a := range args {
		for _, n := range names {
			if a == n || strings.HasPrefix(a, n+"=") {
				return true
			}
		}
	}
	return false
}

// Complete returns tab-completion candidates for the given input.
func (s *Session) Complete(input string) []string {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return s.KnownCommands
	}

	if len(parts) == 1 && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, cmd := range s.KnownCommands {
			if strings.HasPrefix(cmd, parts[0]) {
				matches = append(matches, cmd)
			}
		}
		sort.Strings(matches)
		return matches
	}

	last := parts[len(parts)-1]
	if strings.HasPrefix(last, "-") && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, f := range flagsFor(parts[0]) {
			if strings.HasPrefix(f, last) {
				matches = append(matches, f)
			}
		}
		return matches
	}

	if len(parts) == 2 && !strings.HasSuffix(input, " ") {
		var matches []string
		for _, sub := range subcommandsFor(parts[0]) {
			if strings.HasPrefix(sub, parts[1]) {
				matches = append(matches, sub)
			}
		}
		return matches
	}

	if len(parts) == 1 {
		return subcommandsFor(parts[0])
	}
	return nil
}

func subcommandsFor(parent string) []string {
	subs := map[string][]string{
		"template": {"list", "show", "add", "remove"},
		"config":   {"init", "show", "get", "set", "path", "reset", "validate", "env"},
		"set":      {"format", "sheet"},
		"unset":    {"format", "sheet", "workbook"},
	}
	return subs[parent]
}

func flagsFor(cmd string) []string {
	common := []string{"--json", "--verbose", "--help"}
	switch cmd {
	case "convert":
		return append([]string{"--sheet", "--format", "--template", "--template-file",
			"--template-name", "--placeholder", "--summary", "--chunk-size", "--output", "--out-dir"}, common...)
	case "summary":
		return append([]string{"--sheet"}, common...)
	case "batch":
		return append([]string{"--format", "--summary", "--chunk-size", "--out-dir", "--concurrency"}, common...)
	}
	return common
}

const helpText = `Commands:
  convert [file] [flags]   convert a workbook into prompt text
  summary [file]           show descriptive statistics
  sheets [file]            list sheets and their dimensions
  batch, run, watch, template, config, version

Session:
  use <file.xlsx>          set the workbook used when none is given
  set format <name>        default format for convert
  set sheet <name>...      default sheet selection
  unset format|sheet|workbook
  save <path>              write the last output to a file
  history                  show command history
  exit                     leave the shell
`

func (s *Session) prompt() string {
	if s.Workbook == "" {
		return "xlprompt> "
	}
	return fmt.Sprintf("xlprompt(%s)> ", filepath.Base(s.Workbook))
}

func (s *Session) buildCompleter() []readline.PrefixCompleterInterface {
	var items []readline.PrefixCompleterInterface
	for _, cmd := range s.KnownCommands {
		var children []readline.PrefixCompleterInterface
		for _, sub := range subcommandsFor(cmd) {
			children = append(children, readline.PcItem(sub))
		}
		for _, f := range flagsFor(cmd) {
			if cmd == "convert" || cmd == "summary" || cmd == "batch" {
				children = append(children, readline.PcItem(f))
			}
		}
		items = append(items, readline.PcItem(cmd, children...))
	}
	return items
}

func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.0fs", d.Seconds())
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", m, s)
}
