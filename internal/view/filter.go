// Package view turns manager state into rendering-agnostic view models: the
// filtered list with its status chips, order cards and the create/edit form.
// Both the TUI and the HTTP API render from these.
package view

import (
	"fmt"
	"strings"

	"github.com/monteirok/popmart-tracker/internal/order"
)

// Filter selects orders by status. The zero value is All.
type Filter struct {
	status order.Status
}

// All matches every order.
var All = Filter{}

// ByStatus matches orders whose status is s.
func ByStatus(s order.Status) Filter {
	return Filter{status: s}
}

// ParseFilter accepts "", "all" or anything order.ParseStatus accepts.
func ParseFilter(raw string) (Filter, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || strings.EqualFold(trimmed, "all") {
		return All, nil
	}
	s, err := order.ParseStatus(trimmed)
	if err != nil {
		return All, fmt.Errorf("invalid filter: %w", err)
	}
	return ByStatus(s), nil
}

// IsAll reports whether f is the "all" pseudo-filter.
func (f Filter) IsAll() bool {
	return f.status == ""
}

// Status returns the filtered status, empty for All.
func (f Filter) Status() order.Status {
	return f.status
}

func (f Filter) String() string {
	if f.IsAll() {
		return "all"
	}
	return string(f.status)
}

// Matches reports whether o passes f.
func (f Filter) Matches(o order.Order) bool {
	return f.IsAll() || o.Status == f.status
}

// Apply returns the orders passing f, keeping their order.
func Apply(orders []order.Order, f Filter) []order.Order {
	if f.IsAll() {
		out := make([]order.Order, len(orders))
		copy(out, orders)
		return out
	}
	out := make([]order.Order, 0, len(orders))
	for _, o := range orders {
		if f.Matches(o) {
			out = append(out, o)
		}
	}
	return out
}

// CountByStatus counts orders per status. Statuses with no orders are absent.
func CountByStatus(orders []order.Order) map[order.Status]int {
	counts := make(map[order.Status]int)
	for _, o := range orders {
		counts[o.Status]++
	}
	return counts
}

// Chip is one status filter button.
type Chip struct {
	Filter Filter `json:"-"`
	Key    string `json:"key"`
	Label  string `json:"label"`
	Count  int    `json:"count"`
	Active bool   `json:"active"`
}

// Chips returns "All Orders (n)" followed by one chip per status that has at
// least one order, in lifecycle order.
func Chips(orders []order.Order, active Filter) []Chip {
	counts := CountByStatus(orders)
	chips := []Chip{{
		Filter: All,
		Key:    All.String(),
		Label:  fmt.Sprintf("All Orders (%d)", len(orders)),
		Count:  len(orders),
		Active: active.IsAll(),
	}}
	for _, s := range order.Statuses() {
		n := counts[s]
		if n == 0 {
			continue
		}
		chips = append(chips, Chip{
			Filter: ByStatus(s),
			Key:    string(s),
			Label:  fmt.Sprintf("%s (%d)", s.Label(), n),
			Count:  n,
			Active: active.status == s,
		})
	}
	return chips
}

// Empty is the placeholder shown when a filter matches nothing.
type Empty struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// EmptyMessage returns the placeholder for f.
func EmptyMessage(f Filter) Empty {
	if f.IsAll() {
		return Empty{
			Title: "No orders found",
			Body:  "You haven't placed any orders yet.",
		}
	}
	label := strings.ToLower(f.status.Label())
	return Empty{
		Title: fmt.Sprintf("No %s orders", label),
		Body:  fmt.Sprintf("You don't have any %s orders.", label),
	}
}
