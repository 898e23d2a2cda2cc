package view

import (
	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/state"
)

// List is the filtered order list as a page renders it.
type List struct {
	Filter  Filter               `json:"-"`
	Orders  []order.Order        `json:"orders"`
	Chips   []Chip               `json:"chips"`
	Counts  map[order.Status]int `json:"counts"`
	Total   int                  `json:"total"`
	Empty   *Empty               `json:"empty,omitempty"`
	Loading bool                 `json:"loading"`
	Error   string               `json:"error,omitempty"`
}

// NewList builds the page model of snap under filter. Chips and counts are
// always computed over the unfiltered list.
func NewList(snap state.Snapshot, filter Filter) List {
	l := List{
		Filter:  filter,
		Orders:  Apply(snap.Orders, filter),
		Chips:   Chips(snap.Orders, filter),
		Counts:  CountByStatus(snap.Orders),
		Total:   len(snap.Orders),
		Loading: snap.Loading,
		Error:   snap.Error,
	}
	if len(l.Orders) == 0 {
		empty := EmptyMessage(filter)
		l.Empty = &empty
	}
	return l
}
