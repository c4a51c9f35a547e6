package main

import (
	"os"

	"github.com/daedaleanai/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion bash|zsh|fish",
	Short: "Generate a shell completion script",
	Long: `To load completions:
Bash:
  $ source <(cxxindex completion bash)
  # To load completions for each session, execute once:
  $ cxxindex completion bash > /etc/bash_completion.d/cxxindex
Zsh:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc
  $ cxxindex completion zsh > "${fpath[1]}/_cxxindex"
fish:
  $ cxxindex completion fish | source
  $ cxxindex completion fish > ~/.config/fish/completions/cxxindex.fish
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish"},
	Args:                  cobra.ExactValidArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		switch args[0] {
		case "bash":
			cmd.Root().GenBashCompletion(os.Stdout)
		case "zsh":
			cmd.Root().GenZshCompletion(os.Stdout)
		case "fish":
			cmd.Root().GenFishCompletion(os.Stdout, true)
		}
	},
	Hidden: true,
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
