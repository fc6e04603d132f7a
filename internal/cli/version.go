package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// devVersionString is the version reported by builds without ldflags.
const devVersionString = "dev"

// BuildInfo holds version information injected at build time.
type BuildInfo struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
}

//nolint:gochecknoglobals // Set once from main before Execute
var buildInfo BuildInfo

// SetVersion records build information and exposes it through --version.
func SetVersion(info BuildInfo) {
	buildInfo = info
	rootCmd.Version = formatVersion(info)
}

// formatVersion renders info, filling unknown fields.
func formatVersion(info BuildInfo) string {
	v, commit, date := info.Version, info.Commit, info.Date
	if v == "" {
		v = devVersionString
	}
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", v, commit, date)
}

// versionCmd prints build information.
//
//nolint:gochecknoglobals // Cobra CLI pattern requires package-level command variables
var versionCmd = &cobra.Command{
	Use:     "version",
	Short:   "Print version information",
	GroupID: groupConfig,
	Long:    `Print the walletgate version, commit, and build date.`,
	Example: `  walletgate version
  walletgate version -o json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if formatter.IsJSON() {
			return formatter.Print(struct {
				BuildInfo

				GoVersion string `json:"go_version"`
				Platform  string `json:"platform"`
			}{buildInfo, runtime.Version(), runtime.GOOS + "/" + runtime.GOARCH})
		}
		out(cmd.OutOrStdout(), "walletgate %s\n", formatVersion(buildInfo))
		return nil
	},
}

//nolint:gochecknoinits // Cobra CLI pattern requires init for command registration
func init() {
	rootCmd.AddCommand(versionCmd)
}
