// Package template provides the "xlprompt template" commands for the prompt
// template library.
package template

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/klytics/xlprompt/internal/output"
	"github.com/klytics/xlprompt/internal/prompt"
)

// NewCommand creates the "template" command with all subcommands.
func NewCommand() *cobra.Command {
	var libraryDir string

	cmd := &cobra.Command{
		Use:     "template",
		Aliases: []string{"tmpl"},
		Short:   "Manage named prompt templates",
		Long: `Store prompt templates by name and use them with
"xlprompt convert --template-name <name>". A template contains the
placeholder (default [formatted_data]) where the data is inserted.`,
	}
	cmd.PersistentFlags().StringVar(&libraryDir, "dir", "", "Template library directory (default: templates_dir from config)")

	open := func() (*prompt.Library, error) {
		dir := libraryDir
		if dir == "" {
			dir = viper.GetString("templates_dir")
		}
		if dir == "" {
			dir = prompt.DefaultLibraryDir()
		}
		return prompt.LoadLibrary(dir)
	}

	cmd.AddCommand(newListCmd(open))
	cmd.AddCommand(newShowCmd(open))
	cmd.AddCommand(newAddCmd(open))
	cmd.AddCommand(newRemoveCmd(open))

	return cmd
}

type opener func() (*prompt.Library, error)

func newListCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all stored templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := open()
			if err != nil {
				return err
			}

			entries := lib.List()
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), "template list", entries)
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No templates stored. Use 'xlprompt template add' to store one.")
				return nil
			}

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "NAME\tUPDATED\tDESCRIPTION\n")
			for _, e := range entries {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, humanize.Time(e.UpdatedAt), e.Description)
			}
			return tw.Flush()
		},
	}
}

func newShowCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "show <name>",
		Short: "Print a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := open()
			if err != nil {
				return err
			}
			e, err := lib.Get(args[0])
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), "template show", e)
			}
			return output.Print(cmd.OutOrStdout(), e.Text)
		},
	}
}

func newAddCmd(open opener) *cobra.Command {
	var (
		file        string
		text        string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Store a template from --file or --text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (file == "") == (text == "") {
				return fmt.Errorf("exactly one of --file or --text is required")
			}
			if file != "" {
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("could not read template %s: %w", file, err)
				}
				text = string(data)
			}

			lib, err := open()
			if err != nil {
				return err
			}
			e, err := lib.Add(args[0], description, text)
			if err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), "template add", e)
			}

			token := viper.GetString("placeholder")
			if n := (prompt.Template{Text: e.Text, Token: token}).Occurrences(); n == 0 {
				color.New(color.FgYellow).Fprintf(cmd.ErrOrStderr(),
					"Warning: template %q does not contain %s; the data will not appear in the prompt\n", e.Name, token)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Stored template %q\n", e.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Read the template text from a file")
	cmd.Flags().StringVar(&text, "text", "", "Template text")
	cmd.Flags().StringVar(&description, "description", "", "Template description")
	return cmd
}

func newRemoveCmd(open opener) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			lib, err := open()
			if err != nil {
				return err
			}
			if err := lib.Remove(args[0]); err != nil {
				return err
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				return output.WriteJSON(cmd.OutOrStdout(), "template remove", map[string]string{"removed": args[0]})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed template %q\n", args[0])
			return nil
		},
	}
}
