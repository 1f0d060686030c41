package cmd

import (
	"fmt"
	"os"

	"github.com/jamiemulcahy/pa-pedia-sub001/core/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "pa-pedia",
	Short: "PA Pedia Service",
	Long: `PA Pedia serves browsable faction and unit data for Planetary
Annihilation, with unit comparison, commander deduplication, and support
for user-uploaded faction bundles.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		// Console format and debug level so CLI errors read like a CLI,
		// not like server JSON output.
		cfg := &logger.Config{
			Level:  "debug",
			Format: "console",
		}

		l, logErr := logger.New(cfg)
		if logErr == nil {
			l.Error("command failed", zap.Error(err))
			_ = l.Sync()
		} else {
			fmt.Println(err)
		}
		os.Exit(1)
	}
}
