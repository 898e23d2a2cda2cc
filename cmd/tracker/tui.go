package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/monteirok/popmart-tracker/internal/bootstrap"
	"github.com/monteirok/popmart-tracker/internal/state"
	"github.com/monteirok/popmart-tracker/internal/support/logging"
	"github.com/monteirok/popmart-tracker/internal/tui"
)

var tuiLogFile string

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch the interactive order tracker",
	Long:  "Launch an interactive terminal UI to browse, add and update orders.",
	RunE:  runTUI,
}

func init() {
	tuiCmd.Flags().StringVar(&tuiLogFile, "log-file", "", "write logs to this file instead of discarding them")
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Log lines would paint over the screen.
	var out io.Writer = io.Discard
	if tuiLogFile != "" {
		f, err := os.OpenFile(tuiLogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		defer f.Close()
		out = f
	}
	tuiLogger := logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
		Output:    out,
	})

	infra, err := bootstrap.BuildInfrastructure(cfg)
	if err != nil {
		return err
	}

	store, err := bootstrap.OpenStore(ctx, cfg, tuiLogger, nil)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	orders := state.NewManager(store.Orders, state.WithLogger(tuiLogger))
	if err := tui.Run(ctx, orders, infra.Formatter); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}
