// Package run provides the "xlprompt run" command for YAML job files.
package run

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/xlprompt/internal/output"
	"github.com/klytics/xlprompt/internal/pipeline"
)

// NewCommand creates the "run" command.
func NewCommand() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "run <job.yaml>",
		Short: "Execute a conversion job from a YAML file",
		Long: `Runs the steps of a job file in order. Each step converts one workbook
and writes the prompt to its output (chunked steps write numbered files).

Paths are relative to the job file. ${{ env.NAME }}, ${{ date.today }} and
${{ steps.<id>.output }} are interpolated in input, output and template.
Steps inherit format, placeholder, template, summary and chunk size from the
configuration when they leave them unset.

Use --dry-run to validate the job and list its steps without converting.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonFlag, _ := cmd.Flags().GetBool("json")
			verbose, _ := cmd.Flags().GetBool("verbose")

			job, err := pipeline.LoadJob(args[0])
			if err != nil {
				return err
			}

			if dryRun {
				return plan(cmd, job, jsonFlag)
			}

			runner := pipeline.NewRunner(pipeline.Defaults{
				Format:      viper.GetString("format"),
				Placeholder: viper.GetString("placeholder"),
				Template:    viper.GetString("template"),
				Summary:     viper.GetBool("include_summary"),
				ChunkSize:   viper.GetInt("chunk_size"),
			}, verbose)
			runner.SetLog(cmd.ErrOrStderr())

			report, runErr := runner.Run(cmd.Context(), job)

			if jsonFlag {
				if err := output.WriteJSON(cmd.OutOrStdout(), "run", report); err != nil {
					return err
				}
				return runErr
			}

			out := cmd.OutOrStdout()
			for _, r := range report.Results {
				if r.Error != nil {
					color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Step %s: FAILED: %s\n", r.StepID, r.Error)
					continue
				}
				fmt.Fprintf(out, "Step %s: OK", r.StepID)
				if len(r.Outputs) > 0 {
					fmt.Fprintf(out, " -> %s", strings.Join(r.Outputs, ", "))
				}
				fmt.Fprintln(out)
				if len(r.Outputs) == 0 && r.Text != "" {
					if err := output.Print(out, r.Text); err != nil {
						return err
					}
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Validate the job and list its steps without converting")

	return cmd
}

func plan(cmd *cobra.Command, job *pipeline.Job, jsonFlag bool) error {
	type planStep struct {
		ID        string   `json:"id"`
		Input     string   `json:"input"`
		Sheets    []string `json:"sheets,omitempty"`
		Format    string   `json:"format"`
		ChunkSize int      `json:"chunkSize,omitempty"`
		Output    string   `json:"output,omitempty"`
	}

	steps := make([]planStep, len(job.Steps))
	for i, s := range job.Steps {
		if s.Format == "" {
			s.Format = viper.GetString("format")
		}
		steps[i] = planStep{
			ID:        s.ID,
			Input:     s.Input,
			Sheets:    s.Sheets,
			Format:    string(pipeline.FormatFor(s)),
			ChunkSize: s.ChunkSize,
			Output:    s.Output,
		}
	}

	if jsonFlag {
		return output.WriteJSON(cmd.OutOrStdout(), "run", map[string]any{
			"job":    job.Name,
			"dryRun": true,
			"steps":  steps,
		})
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Job %s: %d step(s)\n", job.Name, len(steps))
	for i, s := range steps {
		dest := s.Output
		if dest == "" {
			dest = "stdout"
		}
		fmt.Fprintf(out, "  %d. %s: %s -> %s (%s", i+1, s.ID, s.Input, dest, s.Format)
		if s.ChunkSize > 0 {
			fmt.Fprintf(out, ", chunks of %d", s.ChunkSize)
		}
		fmt.Fprintln(out, ")")
	}
	return nil
}
