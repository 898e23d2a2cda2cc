package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/monteirok/popmart-tracker/internal/config"
	"github.com/monteirok/popmart-tracker/internal/support/logging"
)

// Build info - injected via ldflags
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "tracker",
	Short:        "Popmart order tracker",
	Long:         `Track Popmart orders from the terminal, a JSON API or scripts.`,
	Version:      fmt.Sprintf("%s (commit %s, built %s)", Version, Commit, BuildTime),
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		logger = logging.New(logging.Options{
			Level:     cfg.Log.SlogLevel(),
			Format:    cfg.Log.Format,
			AddSource: cfg.Log.AddSource,
			Output:    os.Stderr,
		})
		if cfg.Source != "" {
			logger.Debug("config loaded", "file", cfg.Source)
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default ./config.yaml or /etc/popmart-tracker/config.yaml)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
