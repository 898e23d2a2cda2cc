package main

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/spf13/cobra"

	"github.com/monteirok/popmart-tracker/internal/bootstrap"
	"github.com/monteirok/popmart-tracker/internal/repository"
)

// PingOptions bound the readiness probe.
type PingOptions struct {
	InitialInterval time.Duration
	MaxInterval     time.Duration
	MaxElapsed      time.Duration
}

// waitReady probes ping with exponential backoff until it succeeds, the
// error is permanent or the elapsed budget runs out.
func waitReady(ctx context.Context, opts PingOptions, ping func(context.Context) error, notify backoff.Notify) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.InitialInterval
	b.MaxInterval = opts.MaxInterval
	b.MaxElapsedTime = opts.MaxElapsed

	op := func() error {
		err := ping(ctx)
		if err == nil {
			return nil
		}
		if repository.KindOf(err) == repository.KindRejected {
			// A rejected request will not succeed on retry.
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify)
}

func init() {
	opts := PingOptions{}
	var pingCmd = &cobra.Command{
		Use:   "ping",
		Short: "Wait until the order store is reachable",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := bootstrap.OpenStore(cmd.Context(), cfg, logger, nil)
			if err != nil {
				return err
			}
			defer store.Close()

			start := time.Now()
			err = waitReady(cmd.Context(), opts, store.Ping, func(err error, wait time.Duration) {
				logger.Warn("store not ready", "driver", store.Driver, "error", err, "retry_in", wait)
			})
			if err != nil {
				return fmt.Errorf("store %s not ready: %w", store.Driver, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "store %s ready in %s\n", store.Driver, time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	pingCmd.Flags().DurationVar(&opts.InitialInterval, "initial-interval", 500*time.Millisecond, "first retry delay")
	pingCmd.Flags().DurationVar(&opts.MaxInterval, "max-interval", 5*time.Second, "longest retry delay")
	pingCmd.Flags().DurationVar(&opts.MaxElapsed, "timeout", 30*time.Second, "give up after this long")
	rootCmd.AddCommand(pingCmd)
}
