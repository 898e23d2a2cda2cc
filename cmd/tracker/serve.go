package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/monteirok/popmart-tracker/internal/api"
	"github.com/monteirok/popmart-tracker/internal/bootstrap"
	"github.com/monteirok/popmart-tracker/internal/job"
	"github.com/monteirok/popmart-tracker/internal/state"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the order API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.BuildInfrastructure(cfg)
	if err != nil {
		return err
	}

	store, err := bootstrap.OpenStore(ctx, cfg, logger, infra.Registry)
	if err != nil {
		return err
	}
	defer store.Close()

	orders := state.NewManager(store.Orders, state.WithLogger(logger))
	if err := orders.Load(ctx); err != nil {
		// The API still starts; the list carries the error until a refresh succeeds.
		logger.Warn("initial order load failed", "error", err)
	}

	scheduler := job.NewScheduler(logger, cfg.Refresh.Timeout)
	if cfg.Refresh.Schedule != "" {
		if _, err := scheduler.Register(cfg.Refresh.Schedule, job.NewRefreshJob(orders)); err != nil {
			return err
		}
	}
	scheduler.Start()

	router := api.NewRouter(logger, api.Deps{
		Orders:    orders,
		Formatter: infra.Formatter,
		Cache:     infra.Cache,
		Registry:  infra.Registry,
		Ready: func(r *http.Request) error {
			return store.Ping(r.Context())
		},
	}, *cfg)

	server := bootstrap.NewHTTPServer(cfg.HTTP, router)

	go func() {
		logger.Info("http server starting", "addr", cfg.HTTP.Addr, "driver", store.Driver, "version", Version)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	logger.Info("shutting down http server")
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	logger.Info("server exited cleanly")
	return nil
}
