package tui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/repository"
	"github.com/monteirok/popmart-tracker/internal/repository/memory"
	"github.com/monteirok/popmart-tracker/internal/state"
	"github.com/monteirok/popmart-tracker/internal/view"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends msg and runs the state commands it produces. Other commands
// (blinks, quit) are not executed.
func press(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drain(t, next.(Model), cmd)
}

func drain(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		switch msg := msg.(type) {
		case opDoneMsg, formDoneMsg:
			next, c := m.Update(msg)
			m = next.(Model)
			cmd = c
		case tea.BatchMsg:
			for _, c := range msg {
				m = drain(t, m, c)
			}
			return m
		default:
			return m
		}
	}
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, runes(string(r)))
	}
	return m
}

func draft(number, product string, status order.Status) order.Draft {
	return order.Draft{
		OrderNumber: number,
		ProductName: product,
		Status:      status,
		OrderDate:   order.MustParseDate("2024-01-01"),
		Price:       decimal.RequireFromString("12.99"),
	}
}

func newTestModel(t *testing.T, repo repository.OrderRepository, seed ...order.Draft) (Model, *state.Manager) {
	t.Helper()
	ctx := context.Background()
	for _, d := range seed {
		_, err := repo.Create(ctx, d)
		require.NoError(t, err)
	}
	mgr := state.NewManager(repo)
	m := NewModel(ctx, mgr, nil, nil)
	m = drain(t, m, m.Init())
	m = press(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	return m, mgr
}

func TestInitLoadsOrders(t *testing.T) {
	m, _ := newTestModel(t, memory.New(), draft("PM001", "Labubu", order.StatusPending))

	require.Len(t, m.snap.Orders, 1)
	out := m.View()
	assert.Contains(t, out, "Popmart Order Tracker")
	assert.Contains(t, out, "All Orders (1)")
	assert.Contains(t, out, "PM001")
	assert.Contains(t, out, "Labubu")
	assert.Contains(t, out, "CAD 12.99")
}

func TestEmptyListMessage(t *testing.T) {
	m, _ := newTestModel(t, memory.New())

	assert.Contains(t, m.View(), "No orders found")
}

func TestFilterChipsCycle(t *testing.T) {
	m, _ := newTestModel(t, memory.New(),
		draft("PM001", "Labubu", order.StatusPending),
		draft("PM002", "Skullpanda", order.StatusDelivered),
	)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, view.ByStatus(order.StatusPending), m.filter)
	require.Len(t, m.visible(), 1)
	assert.Equal(t, "PM001", m.visible()[0].OrderNumber)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, view.ByStatus(order.StatusDelivered), m.filter)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.True(t, m.filter.IsAll())

	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, view.ByStatus(order.StatusDelivered), m.filter)
}

func TestNavigationWraps(t *testing.T) {
	m, _ := newTestModel(t, memory.New(),
		draft("PM001", "Labubu", order.StatusPending),
		draft("PM002", "Skullpanda", order.StatusPending),
	)

	assert.Equal(t, 0, m.selected)
	m = press(t, m, runes("j"))
	assert.Equal(t, 1, m.selected)
	m = press(t, m, runes("j"))
	assert.Equal(t, 0, m.selected)
	m = press(t, m, runes("k"))
	assert.Equal(t, 1, m.selected)
}

func TestDetailView(t *testing.T) {
	d := draft("PM001", "Labubu", order.StatusShipping)
	d.TrackingNumber = order.String("1Z999")
	m, _ := newTestModel(t, memory.New(), d)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	require.Equal(t, ViewDetail, m.view)
	out := m.View()
	assert.Contains(t, out, "Order #PM001")
	assert.Contains(t, out, "Shipping")
	assert.Contains(t, out, "1Z999")
	assert.Contains(t, out, "aftership.com/track/1Z999")

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, m.view)
}

func TestAdvanceAndCancelStatus(t *testing.T) {
	m, mgr := newTestModel(t, memory.New(), draft("PM001", "Labubu", order.StatusPending))

	m = press(t, m, runes("s"))
	assert.Equal(t, order.StatusConfirmed, mgr.Snapshot().Orders[0].Status)
	assert.Equal(t, order.StatusConfirmed, m.snap.Orders[0].Status)

	m = press(t, m, runes("x"))
	assert.Equal(t, order.StatusCancelled, m.snap.Orders[0].Status)

	// Terminal statuses do not advance.
	m = press(t, m, runes("s"))
	assert.Equal(t, order.StatusCancelled, m.snap.Orders[0].Status)
}

func TestAddOrderThroughForm(t *testing.T) {
	m, mgr := newTestModel(t, memory.New())

	m = press(t, m, runes("a"))
	require.Equal(t, ViewForm, m.view)
	assert.Contains(t, m.View(), "Add New Order")

	m = typeText(t, m, "PM777")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "Hirono")
	for m.form.focusedField().name != view.FieldPrice {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	m = typeText(t, m, "24.50")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.Equal(t, ViewList, m.view)
	assert.Nil(t, m.form)
	snap := mgr.Snapshot()
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "PM777", snap.Orders[0].OrderNumber)
	assert.Equal(t, "Hirono", snap.Orders[0].ProductName)
	assert.Equal(t, order.StatusPending, snap.Orders[0].Status)
	assert.True(t, decimal.RequireFromString("24.50").Equal(snap.Orders[0].Price))
	assert.Nil(t, snap.Orders[0].TrackingNumber)
}

func TestFormValidationKeepsFormOpen(t *testing.T) {
	m, mgr := newTestModel(t, memory.New())

	m = press(t, m, runes("a"))
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	require.Equal(t, ViewForm, m.view)
	assert.Contains(t, m.form.errs, view.FieldOrderNumber)
	assert.Contains(t, m.form.errs, view.FieldProductName)
	assert.Contains(t, m.form.errs, view.FieldPrice)
	assert.Empty(t, mgr.Snapshot().Orders)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewList, m.view)
	assert.Nil(t, m.form)
}

func TestFormStatusCycles(t *testing.T) {
	m, _ := newTestModel(t, memory.New())

	m = press(t, m, runes("a"))
	for m.form.focusedField().name != view.FieldStatus {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyRight})
	assert.Equal(t, string(order.StatusConfirmed), m.form.value().Status)
	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	m = press(t, m, tea.KeyMsg{Type: tea.KeyLeft})
	assert.Equal(t, string(order.StatusCancelled), m.form.value().Status)
}

func TestEditOrder(t *testing.T) {
	m, mgr := newTestModel(t, memory.New(), draft("PM001", "Labubu", order.StatusPending))

	m = press(t, m, runes("e"))
	require.Equal(t, ViewForm, m.view)
	assert.Contains(t, m.View(), "Edit Order")
	assert.Equal(t, "PM001", m.form.value().OrderNumber)
	assert.Equal(t, "12.99", m.form.value().Price)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, " Big")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	assert.Equal(t, ViewList, m.view)
	snap := mgr.Snapshot()
	require.Len(t, snap.Orders, 1)
	assert.Equal(t, "Labubu Big", snap.Orders[0].ProductName)
}

func TestDeleteNeedsConfirmation(t *testing.T) {
	m, mgr := newTestModel(t, memory.New(), draft("PM001", "Labubu", order.StatusPending))

	m = press(t, m, runes("d"))
	require.Equal(t, ViewConfirm, m.view)
	assert.Contains(t, m.View(), "Delete order #PM001")

	m = press(t, m, runes("n"))
	assert.Equal(t, ViewList, m.view)
	assert.Len(t, mgr.Snapshot().Orders, 1)

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	m = press(t, m, runes("d"))
	m = press(t, m, runes("y"))
	assert.Equal(t, ViewList, m.view)
	assert.Empty(t, mgr.Snapshot().Orders)
	assert.Empty(t, m.snap.Orders)
}

// failingCreate rejects every insert as if the database were down.
type failingCreate struct {
	*memory.Repository
}

func (f *failingCreate) Create(context.Context, order.Draft) (order.Order, error) {
	return order.Order{}, repository.NewStoreError(repository.OpCreate, repository.KindUnavailable, errors.New("connection refused"))
}

func TestFailedSubmitShowsManagerError(t *testing.T) {
	m, _ := newTestModel(t, &failingCreate{memory.New()})

	m = press(t, m, runes("a"))
	m = typeText(t, m, "PM001")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	m = typeText(t, m, "Labubu")
	for m.form.focusedField().name != view.FieldPrice {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	}
	m = typeText(t, m, "9.99")
	m = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlS})

	require.Equal(t, ViewForm, m.view)
	assert.False(t, m.form.submitting)
	assert.True(t, strings.HasPrefix(m.form.err, "failed to add order"))
	assert.Contains(t, m.View(), "failed to add order")
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t, memory.New())

	_, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())

	// In the form "q" is text, ctrl+c still quits.
	m = press(t, m, runes("a"))
	next, _ := m.Update(runes("q"))
	assert.Equal(t, ViewForm, next.(Model).view)
	assert.Equal(t, "q", next.(Model).form.value().OrderNumber)
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestSubscribeKeepsLatestSnapshot(t *testing.T) {
	mgr := state.NewManager(memory.New())
	updates, unsubscribe := Subscribe(mgr)
	defer unsubscribe()

	ctx := context.Background()
	_, err := mgr.Add(ctx, draft("PM001", "Labubu", order.StatusPending))
	require.NoError(t, err)
	_, err = mgr.Add(ctx, draft("PM002", "Skullpanda", order.StatusPending))
	require.NoError(t, err)

	snap := <-updates
	assert.Len(t, snap.Orders, 2)
	select {
	case extra := <-updates:
		t.Fatalf("unexpected extra snapshot with %d orders", len(extra.Orders))
	default:
	}
}
