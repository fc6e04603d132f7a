package cli

import (
	"fmt"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // parent help is enriched once per process
var enrichOnce sync.Once

// walkCommands visits every command in the tree depth-first.
func walkCommands(cmd *cobra.Command, fn func(*cobra.Command)) {
	fn(cmd)
	for _, sub := range cmd.Commands() {
		walkCommands(sub, fn)
	}
}

// enrichParentLong appends a generated subcommand list to a parent command's
// Long description so parent help tracks the registered subcommands.
func enrichParentLong(cmd *cobra.Command) {
	if !cmd.HasSubCommands() {
		return
	}

	var sb strings.Builder
	sb.WriteString(cmd.Long)
	sb.WriteString("\n\nSubcommands:\n")

	for _, sub := range cmd.Commands() {
		if sub.IsAvailableCommand() {
			sb.WriteString(fmt.Sprintf("  %-16s %s\n", sub.Name(), sub.Short))
		}
	}

	cmd.Long = sb.String()
}

// enrichHelp enriches every parent below the root. The root lists its
// children through command groups instead.
func enrichHelp() {
	enrichOnce.Do(func() {
		for _, sub := range rootCmd.Commands() {
			walkCommands(sub, enrichParentLong)
		}
	})
}
