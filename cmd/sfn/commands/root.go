package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  string
	date    string

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "sfn",
	Short: "Signal from Noise - production request wizard",
	Long: `sfn narrows a file catalog down to the documents a production request
asks for: pick a request, pick categories, review the matching files and zip
them up.

The catalog lives in sqlite. The wizard can read it in-process or through the
HTTP API started by "sfn serve".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configPath != "" {
			return os.Setenv("SFN_CONFIG", configPath)
		}
		return nil
	},
	FParseErrWhitelist: cobra.FParseErrWhitelist{},
}

// Execute runs the command tree. Errors are printed by the printer package,
// so cobra's own error output is silenced.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	return rootCmd.Execute()
}

// SetVersionInfo sets the version reported by --version and /health.
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default ~/.config/signalfromnoise/config.toml, or $SFN_CONFIG)")
}
