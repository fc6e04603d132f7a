package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/walletgate/internal/output"
)

// statusSlack is added to the computed startup budget before status gives up.
const statusSlack = time.Second

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var statusWait bool

// statusCmd reports the current session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var statusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the wallet session",
	GroupID: groupSession,
	Long: `Restore a session from a wallet that already granted permission and show
the result. No wallet is ever prompted.

With --wait the configured startup delay is observed first, the same way an
application waits for wallet extensions to finish loading.`,
	Example: `  walletgate status
  walletgate status --wait -o json`,
	RunE: runStatus,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVar(&statusWait, "wait", false, "wait for the startup delay before checking wallets")
}

func runStatus(cmd *cobra.Command, _ []string) error {
	n, err := cmdCtx.Negotiator(0)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, statusBudget(statusWait))
	defer cancel()

	if statusWait {
		<-n.Start(ctx)
	} else {
		n.Reconnect(ctx)
	}

	return output.WriteView(cmd.OutOrStdout(), formatter.Format(), n.View())
}

// statusBudget is the longest a passive scan can take: the startup delay plus
// two bounded calls per passive provider.
func statusBudget(wait bool) time.Duration {
	passive, _ := cmdCtx.Cfg.Descriptors()
	budget := cmdCtx.Cfg.CallTimeout() * time.Duration(2*len(passive))
	if wait {
		budget += cmdCtx.Cfg.StartupDelay()
	}
	return budget + statusSlack
}
