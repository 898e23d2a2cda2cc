package repository

import (
	"context"

	"github.com/monteirok/popmart-tracker/internal/order"
)

// OrderRepository 定义订单表的数据访问方法。
//
// 只有实现方可以访问持久化存储，所有失败都以 *StoreError 返回。
type OrderRepository interface {
	// ListAll returns every order, newest created first.
	ListAll(ctx context.Context) ([]order.Order, error)
	// Create persists a draft and returns the stored record with its id and
	// timestamps assigned.
	Create(ctx context.Context, draft order.Draft) (order.Order, error)
	// Replace overwrites all mutable fields of id. Fails with KindNotFound
	// when id does not exist.
	Replace(ctx context.Context, id string, draft order.Draft) (order.Order, error)
	// SetStatus changes only the status (and modification time) of id.
	SetStatus(ctx context.Context, id string, status order.Status) (order.Order, error)
	// Remove hard-deletes id. Removing a missing record succeeds.
	Remove(ctx context.Context, id string) error
}

// Pinger is implemented by stores that can probe their backend.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Operation names used in StoreError.Op and metrics labels.
const (
	OpList      = "list"
	OpCreate    = "create"
	OpReplace   = "replace"
	OpSetStatus = "set_status"
	OpRemove    = "remove"
	OpPing      = "ping"
)
