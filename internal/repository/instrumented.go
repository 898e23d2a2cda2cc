package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/monteirok/popmart-tracker/internal/order"
)

// StoreMetrics holds the Prometheus collectors for store calls.
type StoreMetrics struct {
	callsTotal   *prometheus.CounterVec
	callDuration *prometheus.HistogramVec
}

// NewStoreMetrics registers store collectors on reg. A nil reg uses the
// default registerer.
func NewStoreMetrics(reg prometheus.Registerer, namespace string) *StoreMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	if namespace == "" {
		namespace = "tracker"
	}
	factory := promauto.With(reg)
	return &StoreMetrics{
		callsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "calls_total",
				Help:      "Total number of order store calls.",
			},
			[]string{"driver", "op", "result"},
		),
		callDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "call_duration_seconds",
				Help:      "Order store call latency in seconds.",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"driver", "op"},
		),
	}
}

// Instrumented decorates an OrderRepository with metrics and debug logs.
type Instrumented struct {
	next    OrderRepository
	driver  string
	metrics *StoreMetrics
	logger  *slog.Logger
}

// NewInstrumented wraps next. metrics may be nil to only log.
func NewInstrumented(next OrderRepository, driver string, metrics *StoreMetrics, logger *slog.Logger) *Instrumented {
	if logger == nil {
		logger = slog.Default()
	}
	return &Instrumented{next: next, driver: driver, metrics: metrics, logger: logger}
}

func (r *Instrumented) ListAll(ctx context.Context) ([]order.Order, error) {
	start := time.Now()
	orders, err := r.next.ListAll(ctx)
	r.observe(ctx, OpList, start, err, slog.Int("count", len(orders)))
	return orders, err
}

func (r *Instrumented) Create(ctx context.Context, draft order.Draft) (order.Order, error) {
	start := time.Now()
	created, err := r.next.Create(ctx, draft)
	r.observe(ctx, OpCreate, start, err, slog.String("id", created.ID))
	return created, err
}

func (r *Instrumented) Replace(ctx context.Context, id string, draft order.Draft) (order.Order, error) {
	start := time.Now()
	updated, err := r.next.Replace(ctx, id, draft)
	r.observe(ctx, OpReplace, start, err, slog.String("id", id))
	return updated, err
}

func (r *Instrumented) SetStatus(ctx context.Context, id string, status order.Status) (order.Order, error) {
	start := time.Now()
	updated, err := r.next.SetStatus(ctx, id, status)
	r.observe(ctx, OpSetStatus, start, err, slog.String("id", id), slog.String("status", string(status)))
	return updated, err
}

func (r *Instrumented) Remove(ctx context.Context, id string) error {
	start := time.Now()
	err := r.next.Remove(ctx, id)
	r.observe(ctx, OpRemove, start, err, slog.String("id", id))
	return err
}

// Ping forwards to the wrapped store when it supports probing.
func (r *Instrumented) Ping(ctx context.Context) error {
	p, ok := r.next.(Pinger)
	if !ok {
		return nil
	}
	start := time.Now()
	err := p.Ping(ctx)
	r.observe(ctx, OpPing, start, err)
	return err
}

func (r *Instrumented) observe(ctx context.Context, op string, start time.Time, err error, attrs ...slog.Attr) {
	elapsed := time.Since(start)
	result := "ok"
	if err != nil {
		result = KindOf(err).String()
	}
	if r.metrics != nil {
		r.metrics.callsTotal.WithLabelValues(r.driver, op, result).Inc()
		r.metrics.callDuration.WithLabelValues(r.driver, op).Observe(elapsed.Seconds())
	}

	attrs = append(attrs,
		slog.String("driver", r.driver),
		slog.String("op", op),
		slog.Duration("elapsed", elapsed),
	)
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
		r.logger.LogAttrs(ctx, slog.LevelWarn, "store call failed", attrs...)
		return
	}
	r.logger.LogAttrs(ctx, slog.LevelDebug, "store call", attrs...)
}
