package cli

import (
	"github.com/spf13/cobra"

	gateerr "github.com/mrz1836/walletgate/pkg/errors"
)

// disconnectCmd ends the wallet session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var disconnectCmd = &cobra.Command{
	Use:     "disconnect",
	Short:   "Disconnect from the wallet",
	GroupID: groupSession,
	Long: `End the current wallet session.

The choice is remembered: walletgate stops restoring the session silently on
startup until the next successful "walletgate connect". Permissions held by
the wallet itself are not revoked.`,
	Example: `  walletgate disconnect`,
	RunE:    runDisconnect,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(disconnectCmd)
}

// disconnectResult is the JSON shape of a disconnect.
type disconnectResult struct {
	Disconnected bool   `json:"disconnected"`
	Binding      string `json:"binding"`
	Account      string `json:"account"`
}

func runDisconnect(cmd *cobra.Command, _ []string) error {
	n, err := cmdCtx.Negotiator(0)
	if err != nil {
		return err
	}

	ctx, cancel := contextWithTimeout(cmd, statusBudget(false))
	defer cancel()

	// A CLI process starts without a session; restore it first so there is
	// something to end.
	n.Reconnect(ctx)
	s := n.Session()

	if err := n.Disconnect(); err != nil {
		if gateerr.Is(err, gateerr.ErrNotConnected) {
			return gateerr.WithSuggestion(err, "there is no wallet session to end; run 'walletgate status' to check")
		}
		return err
	}

	if formatter.IsJSON() {
		return formatter.Print(disconnectResult{
			Disconnected: true,
			Binding:      s.Binding,
			Account:      s.Account.String(),
		})
	}

	w := cmd.OutOrStdout()
	out(w, "Disconnected from %s.\n", s.Binding)
	outln(w, "Run 'walletgate connect' to reconnect.")
	return nil
}
