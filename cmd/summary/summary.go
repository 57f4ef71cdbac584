// Package summary provides the "xlprompt summary" command.
package summary

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/klytics/xlprompt/cmd/convert"
	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/output"
	stats "github.com/klytics/xlprompt/internal/summary"
	"github.com/klytics/xlprompt/internal/table"
)

// NewCommand creates the "summary" command.
func NewCommand() *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "summary <file.xlsx|->",
		Short: "Show descriptive statistics for a sheet",
		Long: `Print the data summary that convert --summary would prefix to a prompt:
row and column counts, column types, missing values and numeric statistics.

Without --sheet the first sheet that has data rows is summarized.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			src, err := convert.Source(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}

			var names []string
			if sheet != "" {
				names = []string{sheet}
			}
			loaded, err := xlsx.Load(src, names)
			if err != nil {
				return err
			}

			picked := pick(loaded.Sheets)
			s := stats.Summarize(picked.Table)

			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), "summary", map[string]any{
					"sheet":   picked.Name,
					"summary": s,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Sheet: %s\n", picked.Name)
			return output.Print(cmd.OutOrStdout(), stats.Render(s))
		},
	}

	cmd.Flags().StringVarP(&sheet, "sheet", "s", "", "Sheet to summarize")
	return cmd
}

// pick returns the first sheet with rows, or the first sheet when all are
// empty.
func pick(set *table.SheetSet) table.Sheet {
	if sh, ok := set.FirstNonEmpty(); ok {
		return sh
	}
	return set.Sheets()[0]
}
