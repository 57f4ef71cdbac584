// Package watch provides the "xlprompt watch" command.
package watch

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/klytics/xlprompt/cmd/convert"
	"github.com/klytics/xlprompt/internal/output"
	"github.com/klytics/xlprompt/internal/pipeline"
	w "github.com/klytics/xlprompt/internal/watch"
)

// NewCommand creates the "watch" command.
func NewCommand() *cobra.Command {
	var (
		flags     convert.Flags
		outDir    string
		patterns  []string
		recursive bool
		debounce  int
	)

	cmd := &cobra.Command{
		Use:   "watch <directory> [directory...]",
		Short: "Convert workbooks whenever they change",
		Long: `Watch directories for new or modified .xlsx/.xlsm workbooks and convert
each one into --out-dir with the given conversion flags. Office lock files
are ignored and bursts of writes to one file are debounced.

Example:
  xlprompt watch ./inbox --out-dir ./prompts --format markdown --summary
  xlprompt watch ./reports -r --pattern 'sales_*' --chunk-size 200`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			opts, err := flags.Options(cmd)
			if err != nil {
				return err
			}
			if _, err := pipeline.ResolveFormat(opts.Format); err != nil {
				return err
			}

			watcher, err := w.New(w.Config{
				Directories: args,
				Patterns:    patterns,
				Recursive:   recursive,
				Debounce:    debounce,
			}, w.ConvertHandler(outDir, opts))
			if err != nil {
				return err
			}
			watcher.Logger = log.New(cmd.ErrOrStderr(), "[watch] ", log.LstdFlags)

			fmt.Fprintf(cmd.ErrOrStderr(), "Writing prompts to %s. Press Ctrl+C to stop\n", outDir)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			if err := watcher.Start(ctx); err != nil && err != context.Canceled {
				return err
			}

			events := watcher.Events()
			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), "watch", events)
			}

			processed, failed := 0, 0
			for _, e := range events {
				switch e.Status {
				case "processed":
					processed++
				case "error":
					failed++
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Converted %d workbook(s), %d failed, in %s\n",
				processed, failed, time.Since(start).Round(time.Second))
			return nil
		},
	}

	flags.Register(cmd)
	cmd.Flags().StringVar(&outDir, "out-dir", "prompts", "Directory for converted prompts")
	cmd.Flags().StringSliceVar(&patterns, "pattern", nil, "Only convert workbooks whose name matches a glob")
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "Watch directories recursively")
	cmd.Flags().IntVar(&debounce, "debounce", 500, "Debounce interval in milliseconds")

	return cmd
}
