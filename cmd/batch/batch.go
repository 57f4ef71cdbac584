// Package batch provides the "xlprompt batch" command.
package batch

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"

	"github.com/klytics/xlprompt/cmd/convert"
	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/output"
	"github.com/klytics/xlprompt/internal/pipeline"
	"github.com/klytics/xlprompt/internal/progress"
)

const manifestFile = "manifest.json"

type batchResultItem struct {
	File    string      `json:"file"`
	Status  string      `json:"status"`
	Outputs []string    `json:"outputs,omitempty"`
	Skipped []xlsx.Skip `json:"skipped,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Manifest records one batch run in the output directory.
type Manifest struct {
	RunID     string            `json:"runId"`
	Started   time.Time         `json:"started"`
	Finished  time.Time         `json:"finished"`
	Format    string            `json:"format"`
	ChunkSize int               `json:"chunkSize,omitempty"`
	Succeeded int               `json:"succeeded"`
	Failed    int               `json:"failed"`
	Files     []batchResultItem `json:"files"`
}

// NewCommand returns the batch subcommand.
func NewCommand() *cobra.Command {
	var (
		flags       convert.Flags
		outDir      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "batch <glob-pattern> [glob-pattern...]",
		Short: "Convert many workbooks into prompt files",
		Long: `Converts every workbook matching the glob patterns into --out-dir, one
prompt file per workbook (or one per chunk with --chunk-size), and writes a
manifest.json describing the run.

A failing workbook is recorded in the manifest and the batch continues.

Example:
  xlprompt batch 'reports/*.xlsx' --out-dir ./prompts --format markdown --concurrency 4`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if outDir == "" {
				return fmt.Errorf("--out-dir is required\n\nExample: xlprompt batch '*.xlsx' --out-dir ./prompts")
			}

			files, err := expand(args)
			if err != nil {
				return err
			}

			opts, err := flags.Options(cmd)
			if err != nil {
				return err
			}
			format, err := pipeline.ResolveFormat(opts.Format)
			if err != nil {
				return err
			}
			opts.Format = string(format)

			if err := os.MkdirAll(outDir, 0755); err != nil {
				return fmt.Errorf("could not create output directory %s: %w", outDir, err)
			}

			m := Manifest{
				RunID:     uuid.NewString(),
				Started:   time.Now(),
				Format:    string(format),
				ChunkSize: opts.MaxRows,
				Files:     make([]batchResultItem, len(files)),
			}

			bar := progress.New("Converting", len(files))
			if concurrency < 1 {
				concurrency = 1
			}
			p := pool.New().WithMaxGoroutines(concurrency)
			for i, file := range files {
				i, file := i, file
				p.Go(func() {
					item := process(file, outDir, opts)
					m.Files[i] = item
					var ferr error
					if item.Error != "" {
						ferr = fmt.Errorf("%s", item.Error)
					}
					bar.Done(filepath.Base(file), ferr)
				})
			}
			p.Wait()

			for _, item := range m.Files {
				if item.Status == "ok" {
					m.Succeeded++
				} else {
					m.Failed++
				}
			}
			m.Finished = time.Now()
			bar.Finish(fmt.Sprintf("%d converted, %d failed", m.Succeeded, m.Failed))

			if err := writeManifest(outDir, &m); err != nil {
				return err
			}

			if jsonFlag {
				if err := output.WriteJSON(cmd.OutOrStdout(), "batch", m); err != nil {
					return err
				}
			} else {
				report(cmd, &m, verbose)
			}

			if m.Failed > 0 {
				return fmt.Errorf("%d of %d workbooks failed", m.Failed, len(files))
			}
			return nil
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for prompt files and manifest.json (required)")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of workbooks converted in parallel")

	return cmd
}

// expand resolves glob patterns to a sorted, de-duplicated file list. Two
// workbooks that would write the same output name are rejected.
func expand(patterns []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid glob pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			m = filepath.Clean(m)
			if !seen[m] {
				seen[m] = true
				files = append(files, m)
			}
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no files matched %v", patterns)
	}
	sort.Strings(files)
	if err := checkOutputNames(files); err != nil {
		return nil, err
	}
	return files, nil
}

// checkOutputNames fails when workbooks share a base name, since their
// prompts would overwrite each other in the output directory.
func checkOutputNames(files []string) error {
	owner := make(map[string]string, len(files))
	for _, f := range files {
		base := convert.BaseName(f)
		if prev, ok := owner[base]; ok {
			return fmt.Errorf("%s and %s would both write %q outputs; convert them in separate batches", prev, f, base)
		}
		owner[base] = f
	}
	return nil
}

func process(file, outDir string, opts pipeline.Options) batchResultItem {
	item := batchResultItem{File: file, Status: "ok"}
	res, err := pipeline.ConvertFile(file, outDir, opts)
	if res != nil {
		item.Outputs = res.Outputs
		item.Skipped = res.Skipped
	}
	if err != nil {
		item.Status = "error"
		item.Error = err.Error()
	}
	return item
}

func writeManifest(dir string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode manifest: %w", err)
	}
	return output.WriteText(filepath.Join(dir, manifestFile), string(data)+"\n")
}

func report(cmd *cobra.Command, m *Manifest, verbose bool) {
	out := cmd.OutOrStdout()
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	for _, item := range m.Files {
		if item.Status == "ok" {
			green.Fprintf(out, "  OK     %s", item.File)
			fmt.Fprintf(out, " -> %d file(s)\n", len(item.Outputs))
			if verbose {
				for _, o := range item.Outputs {
					fmt.Fprintf(out, "           %s\n", o)
				}
			}
		} else {
			red.Fprintf(out, "  FAILED %s: %s\n", item.File, item.Error)
		}
		for _, s := range item.Skipped {
			color.New(color.FgYellow).Fprintf(out, "         skipped sheet %q: %s\n", s.Sheet, s.Reason)
		}
	}

	fmt.Fprintf(out, "\nBatch %s: %d succeeded, %d failed (%s)\n",
		m.RunID, m.Succeeded, m.Failed, m.Finished.Sub(m.Started).Round(time.Millisecond))
}
