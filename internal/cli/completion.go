package cli

import (
	"github.com/spf13/cobra"
)

// traceExtensions are offered when completing a <logfile> argument.
var traceExtensions = []string{"qlog", "json", "gz", "zst"}

// completeTrace completes the first positional argument with trace files and
// leaves the rest (output names, scheme names) to the shell.
func completeTrace(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) == 0 {
		return traceExtensions, cobra.ShellCompDirectiveFilterFileExt
	}
	return nil, cobra.ShellCompDirectiveDefault
}

// completionCommand creates the completion command for generating shell completions.
func (c *CLI) completionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for qlogtree.

Bash:
  $ source <(qlogtree completion bash)

Zsh:
  $ qlogtree completion zsh > "${fpath[1]}/_qlogtree"

Fish:
  $ qlogtree completion fish > ~/.config/fish/completions/qlogtree.fish

PowerShell:
  PS> qlogtree completion powershell | Out-String | Invoke-Expression

Log file arguments complete to .qlog, .json, .gz and .zst files.
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(w, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(w)
			case "fish":
				return cmd.Root().GenFishCompletion(w, true)
			default:
				return cmd.Root().GenPowerShellCompletionWithDesc(w)
			}
		},
	}
}
