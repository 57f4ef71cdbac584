// Package cmd contains all CLI commands for the xlprompt binary.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/xlprompt/cmd/batch"
	"github.com/klytics/xlprompt/cmd/completion"
	cmdconfig "github.com/klytics/xlprompt/cmd/config"
	"github.com/klytics/xlprompt/cmd/convert"
	"github.com/klytics/xlprompt/cmd/run"
	"github.com/klytics/xlprompt/cmd/sheets"
	"github.com/klytics/xlprompt/cmd/shell"
	"github.com/klytics/xlprompt/cmd/summary"
	cmdtemplate "github.com/klytics/xlprompt/cmd/template"
	"github.com/klytics/xlprompt/cmd/version"
	cmdwatch "github.com/klytics/xlprompt/cmd/watch"
	"github.com/klytics/xlprompt/internal/config"
	"github.com/klytics/xlprompt/internal/output"
)

// NewRootCommand creates and returns the root cobra command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xlprompt",
		Short: "Turn spreadsheets into LLM-ready prompts",
		Long: `xlprompt reads Excel workbooks and renders their sheets as CSV, JSON or
Markdown, optionally prefixed with a statistical summary, split into
row-bounded chunks and substituted into a prompt template.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if _, err := config.Load(); err != nil {
				return fmt.Errorf("could not load configuration: %w", err)
			}
			noColor, _ := cmd.Flags().GetBool("no-color")
			if noColor || !viper.GetBool("output.color") {
				color.NoColor = true
			}
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				// Progress output stays off while JSON goes to stdout.
				os.Setenv("XLPROMPT_JSON", "true")
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().Bool("json", false, "Output as machine-readable JSON")
	rootCmd.PersistentFlags().Bool("verbose", false, "Print timing and skipped-sheet details")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable ANSI color output")

	rootCmd.AddCommand(convert.NewCommand())
	rootCmd.AddCommand(summary.NewCommand())
	rootCmd.AddCommand(sheets.NewCommand())
	rootCmd.AddCommand(batch.NewCommand())
	rootCmd.AddCommand(run.NewCommand())
	rootCmd.AddCommand(cmdwatch.NewCommand())
	rootCmd.AddCommand(cmdtemplate.NewCommand())
	rootCmd.AddCommand(cmdconfig.NewCommand())
	rootCmd.AddCommand(shell.NewCommand(runNested))
	rootCmd.AddCommand(completion.NewCommand(rootCmd))
	rootCmd.AddCommand(version.NewCommand())

	return rootCmd
}

// runNested executes args on a fresh command tree. The interactive shell
// uses it so every line gets clean flag state; process-wide settings a line
// changes are restored when it returns.
func runNested(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	prevJSON, hadJSON := os.LookupEnv("XLPROMPT_JSON")
	prevNoColor := color.NoColor
	defer func() {
		color.NoColor = prevNoColor
		if hadJSON {
			os.Setenv("XLPROMPT_JSON", prevJSON)
		} else {
			os.Unsetenv("XLPROMPT_JSON")
		}
	}()

	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

// Execute runs the root command and handles any returned errors.
func Execute() {
	rootCmd := NewRootCommand()
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return
	}
	os.Exit(reportError(cmd, err))
}

// reportError prints err in the form the failing command's flags ask for and
// returns the exit code.
func reportError(cmd *cobra.Command, err error) int {
	code := output.ExitCode(err)
	if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
		_ = output.WriteJSONError(cmd.OutOrStdout(), cmd.Name(), err, code)
	} else {
		color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "Error: %s\n", err)
	}
	return code
}
