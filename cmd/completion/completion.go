// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var installHints = map[string][]string{
	"bash": {
		"xlprompt completion bash > /etc/bash_completion.d/xlprompt",
		"echo 'source <(xlprompt completion bash)' >> ~/.bashrc",
	},
	"zsh":        {"xlprompt completion zsh > ~/.zsh/completions/_xlprompt"},
	"fish":       {"xlprompt completion fish > ~/.config/fish/completions/xlprompt.fish"},
	"powershell": {"xlprompt completion powershell >> $PROFILE"},
}

// NewCommand returns the completion command.
func NewCommand(rootCmd *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completions",
		Long: `Generate shell completion scripts for xlprompt.

Install instructions:
  Bash:       xlprompt completion bash > /etc/bash_completion.d/xlprompt
  Zsh:        xlprompt completion zsh > ~/.zsh/completions/_xlprompt
  Fish:       xlprompt completion fish > ~/.config/fish/completions/xlprompt.fish
  PowerShell: xlprompt completion powershell >> $PROFILE`,
		ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
		Args:      cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hints, ok := installHints[args[0]]
			if !ok {
				return fmt.Errorf("unsupported shell: %s (supported: bash, zsh, fish, powershell)", args[0])
			}

			out := cmd.OutOrStdout()
			writeHeader(out, args[0], hints)

			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(out)
			case "zsh":
				return rootCmd.GenZshCompletion(out)
			case "fish":
				return rootCmd.GenFishCompletion(out, true)
			default:
				return rootCmd.GenPowerShellCompletionWithDesc(out)
			}
		},
	}
}

func writeHeader(w io.Writer, shell string, hints []string) {
	fmt.Fprintf(w, "# xlprompt %s completion\n", shell)
	for i, h := range hints {
		label := "Install:"
		if i > 0 {
			label = "Or:     "
		}
		fmt.Fprintf(w, "# %s %s\n", label, h)
	}
	fmt.Fprintln(w)
}
