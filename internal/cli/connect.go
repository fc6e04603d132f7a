package cli

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrz1836/walletgate/internal/negotiator"
	"github.com/mrz1836/walletgate/internal/output"
	"github.com/mrz1836/walletgate/internal/session"
)

//nolint:gochecknoglobals // Cobra CLI pattern requires package-level flag variables
var (
	// connectTimeout bounds the wallet prompt; zero uses the configured value.
	connectTimeout time.Duration
	// connectNoReconnect skips restoring an already-permitted session.
	connectNoReconnect bool
)

// connectCmd establishes a wallet session.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var connectCmd = &cobra.Command{
	Use:     "connect",
	Short:   "Connect to a wallet",
	GroupID: groupSession,
	Long: `Connect to the first available supported wallet.

A wallet that already granted permission is reused without prompting. Otherwise
the first available wallet in priority order is asked for permission once, and
the outcome is reported:

  connected          the wallet approved and shared an account
  user rejected      the prompt was declined (exit code 3)
  connection failed  the wallet errored, timed out, or shared no account (exit code 1)
  no wallet found    no supported wallet is available (exit code 4)

Only the first available wallet is ever prompted.`,
	Example: `  walletgate connect
  walletgate connect --timeout 30s
  walletgate connect --no-reconnect -o json`,
	RunE: runConnect,
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(connectCmd)

	connectCmd.Flags().DurationVar(&connectTimeout, "timeout", 0,
		"how long to wait for the wallet prompt (default from negotiation.prompt_timeout_seconds)")
	connectCmd.Flags().BoolVar(&connectNoReconnect, "no-reconnect", false,
		"skip restoring a session from a wallet that already granted permission")
}

func runConnect(cmd *cobra.Command, _ []string) error {
	n, err := cmdCtx.Negotiator(connectTimeout)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	if !connectNoReconnect {
		if s, ok := n.Reconnect(ctx); ok {
			cmdCtx.Logger.Debug("reusing session from %s", s.Binding)
		}
	}

	var stopProgress func()
	if !formatter.IsJSON() {
		stopProgress = showProgress(n, cmd.ErrOrStderr())
	}

	res, err := n.Connect(ctx)
	if stopProgress != nil {
		stopProgress()
	}
	if err != nil {
		return err
	}

	if err := output.Notify(cmd.OutOrStdout(), formatter.Format(), output.NoticeFor(res)); err != nil {
		return err
	}
	return reported(res.Err)
}

// showProgress prints a waiting line while the negotiator is prompting. The
// returned func stops watching and returns once nothing more will be written.
func showProgress(n *negotiator.Negotiator, w io.Writer) func() {
	views, cancel := n.Subscribe(1)
	done := make(chan struct{})

	go func() {
		defer close(done)
		announced := false
		for v := range views {
			if v.State == session.Connecting && !announced {
				announced = true
				outln(w, "Waiting for wallet approval...")
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}
