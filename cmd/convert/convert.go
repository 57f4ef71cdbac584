// Package convert provides the "xlprompt convert" command.
package convert

import (
	"fmt"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/output"
	"github.com/klytics/xlprompt/internal/pipeline"
	"github.com/klytics/xlprompt/internal/progress"
)

type convertResult struct {
	*pipeline.Result
	Input   string   `json:"input"`
	Outputs []string `json:"outputs,omitempty"`
}

// NewCommand creates the "convert" command.
func NewCommand() *cobra.Command {
	var (
		flags   Flags
		outPath string
		outDir  string
	)

	cmd := &cobra.Command{
		Use:   "convert <file.xlsx|->",
		Short: "Convert a workbook into prompt text",
		Long: `Convert the sheets of a workbook into CSV, JSON or Markdown and
substitute the result into a prompt template.

Every sheet is introduced by "=== SHEET: <name> ===". With --chunk-size each
sheet is split into row-bounded chunks, every chunk rendered as its own
prompt.

Examples:
  xlprompt convert sales.xlsx
  xlprompt convert sales.xlsx --sheet Q3 --format markdown --summary
  xlprompt convert sales.xlsx -t "Find anomalies in: [formatted_data]"
  xlprompt convert big.xlsx --chunk-size 500 --out-dir ./prompts
  cat sales.xlsx | xlprompt convert - --format json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")

			if outPath != "" && outDir != "" {
				return fmt.Errorf("use either --output or --out-dir, not both")
			}

			opts, err := flags.Options(cmd)
			if err != nil {
				return err
			}
			format, err := pipeline.ResolveFormat(opts.Format)
			if err != nil {
				return err
			}

			src, err := Source(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			start := time.Now()
			spin := progress.NewSpinner(fmt.Sprintf("Converting %s", args[0]))
			spin.Start()

			var res *pipeline.Result
			if opts.MaxRows > 0 {
				res, err = pipeline.ConvertChunked(src, opts)
			} else {
				res, err = pipeline.Convert(src, opts)
			}
			spin.Stop("")
			if err != nil {
				return err
			}

			out := convertResult{Result: res, Input: args[0]}

			if outPath != "" || outDir != "" {
				dir, base, ext := outDir, BaseName(args[0]), format.Extension()
				if outPath != "" {
					dir, base, ext = output.SplitOutputPath(outPath, ext)
				}
				if res.Segments != nil {
					out.Outputs, err = output.WriteSegments(dir, base, ext, res.Segments)
				} else {
					target := outPath
					if target == "" {
						target = filepath.Join(dir, base+ext)
					}
					err = output.WriteText(target, res.Text)
					out.Outputs = []string{target}
				}
				if err != nil {
					return err
				}
			}

			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), "convert", out)
			}

			warnSkipped(cmd, res.Skipped)

			text := res.Text
			if res.Segments != nil {
				text = output.JoinSegments(res.Segments)
			}
			if out.Outputs != nil {
				for _, p := range out.Outputs {
					fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", p)
				}
			} else {
				if err := output.Print(cmd.OutOrStdout(), text); err != nil {
					return err
				}
			}

			if verbose {
				size := "stdin"
				if n := FileSize(args[0]); n >= 0 {
					size = humanize.Bytes(uint64(n))
				}
				color.New(color.Faint).Fprintf(cmd.ErrOrStderr(),
					"%d sheet(s), %s, %s, prompt %s chars, %s\n",
					len(res.Sheets), format, size,
					humanize.Comma(int64(utf8.RuneCountInString(text))),
					time.Since(start).Round(time.Millisecond))
			}
			return nil
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVarP(&outPath, "output", "o", "", "Write the prompt to a file (chunks get numbered files)")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Write the prompt into a directory, named after the workbook")

	return cmd
}

func warnSkipped(cmd *cobra.Command, skipped []xlsx.Skip) {
	yellow := color.New(color.FgYellow)
	for _, s := range skipped {
		yellow.Fprintf(cmd.ErrOrStderr(), "Warning: skipped sheet %q: %s\n", s.Sheet, s.Reason)
	}
}
