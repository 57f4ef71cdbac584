package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/klytics/xlprompt/internal/formats/convert"
	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/output"
	"github.com/klytics/xlprompt/internal/prompt"
)

// StepResult holds the outcome of a completed job step.
type StepResult struct {
	StepID   string        `json:"stepId"`
	Outputs  []string      `json:"outputs,omitempty"`
	Segments int           `json:"segments"`
	Skipped  []xlsx.Skip   `json:"skipped,omitempty"`
	Text     string        `json:"-"`
	Error    error         `json:"-"`
	Message  string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Report summarizes a job run.
type Report struct {
	RunID   string       `json:"runId"`
	Job     string       `json:"job"`
	Started time.Time    `json:"started"`
	Results []StepResult `json:"results"`
	Failed  int          `json:"failed"`
}

// Defaults fill in step fields left empty in the job file.
type Defaults struct {
	Format      string
	Placeholder string
	Template    string
	Summary     bool
	ChunkSize   int
}

// Runner executes job steps sequentially, resolving interpolation between
// steps.
type Runner struct {
	defaults Defaults
	results  map[string]*StepResult
	verbose  bool
	log      io.Writer
}

// NewRunner creates a runner. Verbose progress lines go to stderr.
func NewRunner(defaults Defaults, verbose bool) *Runner {
	return &Runner{
		defaults: defaults,
		results:  make(map[string]*StepResult),
		verbose:  verbose,
		log:      os.Stderr,
	}
}

// SetLog redirects verbose progress lines.
func (r *Runner) SetLog(w io.Writer) {
	r.log = w
}

// Run executes all steps in the job. A failing step stops the run unless it
// is marked on_failure: skip.
func (r *Runner) Run(ctx context.Context, job *Job) (*Report, error) {
	report := &Report{
		RunID:   uuid.NewString(),
		Job:     job.Name,
		Started: time.Now(),
	}

	r.logf("Running job: %s (run %s)\n", job.Name, report.RunID)

	for i, step := range job.Steps {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		r.logf("[%d/%d] Running step: %s (%s)\n", i+1, len(job.Steps), step.ID, step.Input)

		resolved := r.resolveStep(step, job.Dir)

		start := time.Now()
		result := r.runStep(resolved)
		result.Duration = time.Since(start)

		report.Results = append(report.Results, result)
		r.results[resolved.ID] = &report.Results[len(report.Results)-1]

		r.logf("  Completed in %s\n", result.Duration.Round(time.Millisecond))
		for _, s := range result.Skipped {
			r.logf("  Skipped sheet %s: %s\n", s.Sheet, s.Reason)
		}

		if result.Error != nil {
			report.Failed++
			if resolved.OnFailure == "skip" {
				r.logf("  Step %s failed (skipping): %s\n", resolved.ID, result.Error)
				continue
			}
			return report, fmt.Errorf("step %q failed: %w", resolved.ID, result.Error)
		}
	}

	return report, nil
}

func (r *Runner) runStep(step Step) StepResult {
	result := StepResult{StepID: step.ID}
	fail := func(err error) StepResult {
		result.Error = err
		result.Message = err.Error()
		return result
	}

	format, err := ResolveFormat(step.Format)
	if err != nil {
		return fail(err)
	}

	tmpl, err := r.stepTemplate(step)
	if err != nil {
		return fail(err)
	}

	opts := Options{
		Sheets:         step.Sheets,
		Format:         string(format),
		Template:       tmpl,
		IncludeSummary: step.Summary != nil && *step.Summary,
		MaxRows:        step.ChunkSize,
	}
	src := xlsx.Path(step.Input)

	if step.ChunkSize > 0 {
		res, err := ConvertChunked(src, opts)
		if err != nil {
			return fail(err)
		}
		result.Skipped = res.Skipped
		result.Segments = len(res.Segments)
		if step.Output == "" {
			result.Text = output.JoinSegments(res.Segments)
			return result
		}
		dir, base, ext := output.SplitOutputPath(step.Output, format.Extension())
		paths, err := output.WriteSegments(dir, base, ext, res.Segments)
		result.Outputs = paths
		if err != nil {
			return fail(err)
		}
		return result
	}

	res, err := Convert(src, opts)
	if err != nil {
		return fail(err)
	}
	result.Skipped = res.Skipped
	result.Segments = 1
	result.Text = res.Text
	if step.Output != "" {
		if err := output.WriteText(step.Output, res.Text); err != nil {
			return fail(err)
		}
		result.Outputs = []string{step.Output}
	}
	return result
}

func (r *Runner) stepTemplate(step Step) (prompt.Template, error) {
	if step.TemplateFile != "" {
		return prompt.LoadFile(step.TemplateFile, step.Placeholder)
	}
	return prompt.Template{Text: step.Template, Token: step.Placeholder}, nil
}

// resolveStep applies defaults, interpolation and the job directory to step.
func (r *Runner) resolveStep(step Step, dir string) Step {
	resolved := step
	if resolved.Format == "" {
		resolved.Format = r.defaults.Format
	}
	if resolved.Placeholder == "" {
		resolved.Placeholder = r.defaults.Placeholder
	}
	if resolved.Template == "" && resolved.TemplateFile == "" {
		resolved.Template = r.defaults.Template
	}
	if resolved.Summary == nil {
		summary := r.defaults.Summary
		resolved.Summary = &summary
	}
	if resolved.ChunkSize == 0 {
		resolved.ChunkSize = r.defaults.ChunkSize
	}

	resolved.Input = resolvePath(dir, r.interpolate(step.Input))
	resolved.Template = r.interpolate(resolved.Template)
	if step.TemplateFile != "" {
		resolved.TemplateFile = resolvePath(dir, r.interpolate(step.TemplateFile))
	}
	if step.Output != "" {
		resolved.Output = resolvePath(dir, r.interpolate(step.Output))
	}
	return resolved
}

func resolvePath(dir, path string) string {
	if dir == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

var interpolationPattern = regexp.MustCompile(`\$\{\{\s*([^}]+)\s*\}\}`)

func (r *Runner) interpolate(s string) string {
	return interpolationPattern.ReplaceAllStringFunc(s, func(match string) string {
		inner := interpolationPattern.FindStringSubmatch(match)
		if len(inner) < 2 {
			return match
		}
		expr := strings.TrimSpace(inner[1])

		// steps.<id>.output is the first file a step wrote.
		if strings.HasPrefix(expr, "steps.") {
			parts := strings.Split(expr, ".")
			if len(parts) >= 3 && parts[2] == "output" {
				if result, ok := r.results[parts[1]]; ok && len(result.Outputs) > 0 {
					return result.Outputs[0]
				}
			}
		}

		switch expr {
		case "date.today":
			return time.Now().Format("2006-01-02")
		case "date.now", "date.timestamp":
			return time.Now().Format(time.RFC3339)
		}

		if strings.HasPrefix(expr, "env.") {
			return os.Getenv(strings.TrimPrefix(expr, "env."))
		}

		return match
	})
}

func (r *Runner) logf(format string, args ...any) {
	if r.verbose {
		fmt.Fprintf(r.log, format, args...)
	}
}

// FormatFor returns the format a step resolves to, for display.
func FormatFor(step Step) convert.Format {
	f, err := ResolveFormat(step.Format)
	if err != nil {
		return ""
	}
	return f
}
