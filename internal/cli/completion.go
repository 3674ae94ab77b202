package cli

import "github.com/spf13/cobra"

// completionCommand writes shell completion scripts.
func (c *CLI) completionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for towerpath.

To load completions:

Bash:
  $ source <(towerpath completion bash)

  # Persist for every session (Linux):
  $ towerpath completion bash > /etc/bash_completion.d/towerpath

Zsh:
  $ towerpath completion zsh > "${fpath[1]}/_towerpath"

Fish:
  $ towerpath completion fish | source
  $ towerpath completion fish > ~/.config/fish/completions/towerpath.fish

PowerShell:
  PS> towerpath completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletion(cmd.OutOrStdout())
			case "zsh":
				return cmd.Root().GenZshCompletion(cmd.OutOrStdout())
			case "fish":
				return cmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(cmd.OutOrStdout())
			}
			return nil
		},
	}

	return cmd
}
