package bootstrap

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/monteirok/popmart-tracker/internal/cache"
	"github.com/monteirok/popmart-tracker/internal/config"
	"github.com/monteirok/popmart-tracker/internal/view"
)

// Infrastructure bundles the shared helpers every front end uses.
type Infrastructure struct {
	Cache     cache.Store
	Formatter *view.Formatter
	Registry  *prometheus.Registry
}

// BuildInfrastructure wires the cache, card formatter and metrics registry.
func BuildInfrastructure(cfg *config.Config) (*Infrastructure, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required / 配置不能为空")
	}

	formatter, err := view.NewFormatter(view.FormatOptions{
		Currency:    cfg.UI.Currency,
		Locale:      cfg.UI.Locale,
		TrackingURL: cfg.UI.TrackingURL,
	})
	if err != nil {
		return nil, fmt.Errorf("ui format: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Infrastructure{
		Cache: cache.NewStore(cache.Options{
			Prefix:          "tracker",
			DefaultTTL:      5 * time.Minute,
			CleanupInterval: time.Minute,
		}),
		Formatter: formatter,
		Registry:  registry,
	}, nil
}
