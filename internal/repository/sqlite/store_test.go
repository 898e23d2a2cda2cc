package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monteirok/popmart-tracker/internal/migrations"
	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/repository"
	"github.com/monteirok/popmart-tracker/internal/repository/sqlstore"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracker.db")
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(5000)")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(db, migrations.DialectSQLite))
	return db
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	return NewStore(openTestDB(t), sqlstore.WithClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Second)
	}))
}

func labubu() order.Draft {
	return order.Draft{
		OrderNumber: "PM001",
		ProductName: "Labubu",
		Status:      order.StatusPending,
		OrderDate:   order.MustParseDate("2024-01-01"),
		Price:       decimal.RequireFromString("12.99"),
	}
}

func TestCreateListNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.Create(ctx, labubu())
	require.NoError(t, err)
	require.NotEmpty(t, first.ID)
	assert.Equal(t, "Labubu", first.ProductName)
	assert.True(t, first.Price.Equal(decimal.RequireFromString("12.99")))
	assert.Equal(t, "2024-01-01", first.OrderDate.String())
	assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 1, 0, time.UTC), first.CreatedAt)

	d := labubu()
	d.OrderNumber = "PM002"
	second, err := store.Create(ctx, d)
	require.NoError(t, err)

	list, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestOptionalFieldsKeepEmptyDistinctFromAbsent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	d := labubu()
	d.TrackingNumber = order.String("")
	d.ProductImage = order.String("https://img.example/labubu.png")
	d.EstimatedDelivery = order.DatePtr(order.MustParseDate("2024-01-15"))
	_, err := store.Create(ctx, d)
	require.NoError(t, err)
	_, err = store.Create(ctx, labubu())
	require.NoError(t, err)

	list, err := store.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)

	plain, full := list[0], list[1]
	assert.Nil(t, plain.TrackingNumber)
	assert.Nil(t, plain.ProductImage)
	assert.Nil(t, plain.EstimatedDelivery)

	require.NotNil(t, full.TrackingNumber)
	assert.Equal(t, "", *full.TrackingNumber)
	require.NotNil(t, full.EstimatedDelivery)
	assert.Equal(t, "2024-01-15", full.EstimatedDelivery.String())
	assert.True(t, d.Equal(full.Draft))
}

func TestReplaceAndSetStatus(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.Create(ctx, labubu())
	require.NoError(t, err)

	d := labubu()
	d.ProductName = "Skullpanda"
	d.Price = decimal.RequireFromString("19.50")
	replaced, err := store.Replace(ctx, created.ID, d)
	require.NoError(t, err)
	assert.Equal(t, created.ID, replaced.ID)
	assert.Equal(t, "Skullpanda", replaced.ProductName)
	assert.True(t, replaced.Price.Equal(decimal.RequireFromString("19.5")))
	assert.Equal(t, created.CreatedAt, replaced.CreatedAt)
	assert.True(t, replaced.UpdatedAt.After(created.UpdatedAt))

	shipped, err := store.SetStatus(ctx, created.ID, order.StatusShipping)
	require.NoError(t, err)
	assert.Equal(t, order.StatusShipping, shipped.Status)
	assert.Equal(t, "Skullpanda", shipped.ProductName)
}

func TestMissingIDs(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	_, err := store.Replace(ctx, "missing", labubu())
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = store.SetStatus(ctx, "missing", order.StatusDelivered)
	assert.True(t, repository.IsNotFound(err))

	assert.NoError(t, store.Remove(ctx, "missing"))
}

func TestRemove(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	created, err := store.Create(ctx, labubu())
	require.NoError(t, err)
	require.NoError(t, store.Remove(ctx, created.ID))

	list, err := store.ListAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestConstraintViolationIsRejected(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bad := labubu()
	bad.ProductName = ""
	_, err := store.Create(ctx, bad)
	require.Error(t, err)
	assert.ErrorIs(t, err, repository.ErrRejected)

	bad = labubu()
	bad.Status = order.Status("lost")
	_, err = store.Create(ctx, bad)
	assert.Equal(t, repository.KindRejected, repository.KindOf(err))
}

func TestClosedDatabaseIsUnavailable(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	require.NoError(t, store.Ping(context.Background()))
	require.NoError(t, db.Close())

	_, err := store.ListAll(context.Background())
	require.Error(t, err)
	assert.Equal(t, repository.KindUnavailable, repository.KindOf(err))
}
