package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/earthwork/internal/config"
	"github.com/sells-group/earthwork/internal/earthwork"
)

var (
	cfg *config.Config

	// version is set at build time with -ldflags "-X main.version=...".
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:          "earthwork",
	Short:        "Cut/fill volume calculator for earthwork planning",
	Long:         "Computes cut and fill volumes over a boundary polygon from a uniform height change, a TIN surface or a grid of sampled heights, and serves the same calculations over HTTP.",
	Version:      version,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// exitCode maps a command error to a process exit status: 2 for bad input,
// 1 for everything else.
func exitCode(err error) int {
	if earthwork.IsInputError(err) {
		return 2
	}
	return 1
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCode(err))
	}
}
