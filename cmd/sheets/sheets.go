// Package sheets provides the "xlprompt sheets" command.
package sheets

import (
	"fmt"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/klytics/xlprompt/cmd/convert"
	"github.com/klytics/xlprompt/internal/formats/xlsx"
	"github.com/klytics/xlprompt/internal/output"
)

// NewCommand creates the "sheets" command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sheets <file.xlsx|->",
		Short: "List the sheets of a workbook",
		Long:  "List every sheet in workbook order with its data row and column counts.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			src, err := convert.Source(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			infos, err := xlsx.Inspect(src)
			if err != nil {
				return err
			}

			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), "sheets", infos)
			}

			out := cmd.OutOrStdout()
			if n := convert.FileSize(args[0]); n >= 0 {
				fmt.Fprintf(out, "%s (%s, %d sheets)\n\n", args[0], humanize.Bytes(uint64(n)), len(infos))
			}

			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "SHEET\tROWS\tCOLUMNS\n")
			for _, info := range infos {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", info.Name, humanize.Comma(int64(info.Rows)), info.Cols)
			}
			return tw.Flush()
		},
	}
}
