// Package shell provides the "xlprompt shell" interactive REPL command.
package shell

import (
	"fmt"

	"github.com/google/shlex"
	"github.com/spf13/cobra"

	shellpkg "github.com/klytics/xlprompt/internal/shell"
)

// NewCommand creates the "shell" command. runner executes the xlprompt
// commands typed into the session.
func NewCommand(runner shellpkg.CommandRunner) *cobra.Command {
	var (
		evalCmd  string
		workbook string
	)

	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Start an interactive xlprompt shell",
		Long: `Start an interactive REPL with history and tab completion.

Pick a workbook once with "use <file.xlsx>" (or --workbook) and run
convert, summary and sheets against it without repeating the path.
"set format" and "set sheet" fix defaults for the session.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			shellpkg.DefaultRunner = runner

			session, err := shellpkg.NewSession()
			if err != nil {
				return err
			}
			session.Workbook = workbook

			if evalCmd != "" {
				argv, err := shlex.Split(evalCmd)
				if err != nil {
					return fmt.Errorf("could not parse --eval: %w", err)
				}
				out, err := session.Eval(cmd.Context(), argv)
				if err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), out)
				return nil
			}
			return session.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&evalCmd, "eval", "", "Run a single command and exit")
	cmd.Flags().StringVar(&workbook, "workbook", "", "Workbook used when a command names none")
	return cmd
}
