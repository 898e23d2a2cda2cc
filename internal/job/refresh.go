package job

import (
	"context"
	"fmt"
)

// Loader reloads the order list from its store.
type Loader interface {
	Load(ctx context.Context) error
}

// RefreshJob reloads the shared order state so writes made by other clients
// of the store show up. Failures are left to the next tick.
type RefreshJob struct {
	Orders Loader
}

// NewRefreshJob creates a refresh job over orders.
func NewRefreshJob(orders Loader) *RefreshJob {
	return &RefreshJob{Orders: orders}
}

// Name implements Runnable interface.
func (j *RefreshJob) Name() string {
	return "orders.refresh"
}

// Run implements Runnable interface.
func (j *RefreshJob) Run(ctx context.Context) error {
	if j == nil || j.Orders == nil {
		return fmt.Errorf("refresh job dependencies not configured / 刷新任务依赖未配置")
	}
	if err := j.Orders.Load(ctx); err != nil {
		return fmt.Errorf("refresh job: %w", err)
	}
	return nil
}
