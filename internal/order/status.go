package order

import (
	"fmt"
	"strings"
)

// Status is the lifecycle stage of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusProcessing     Status = "processing"
	StatusShipping       Status = "shipping"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// statuses lists every status in typical lifecycle order, cancelled last.
var statuses = []Status{
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipping,
	StatusOutForDelivery,
	StatusDelivered,
	StatusCancelled,
}

var statusLabels = map[Status]string{
	StatusPending:        "Pending",
	StatusConfirmed:      "Confirmed",
	StatusProcessing:     "Processing",
	StatusShipping:       "Shipping",
	StatusOutForDelivery: "Out for Delivery",
	StatusDelivered:      "Delivered",
	StatusCancelled:      "Cancelled",
}

// Statuses returns all statuses in lifecycle order. The slice is a copy.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// Valid reports whether s belongs to the closed status set.
func (s Status) Valid() bool {
	_, ok := statusLabels[s]
	return ok
}

// Label returns the human readable name of s. Unknown values are echoed back.
func (s Status) Label() string {
	if label, ok := statusLabels[s]; ok {
		return label
	}
	return string(s)
}

func (s Status) String() string {
	return string(s)
}

// Terminal reports whether no further lifecycle step follows s.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next returns the following lifecycle status. Terminal statuses return
// themselves. Transitions are never enforced; this only drives shortcuts.
func (s Status) Next() Status {
	switch s {
	case StatusPending:
		return StatusConfirmed
	case StatusConfirmed:
		return StatusProcessing
	case StatusProcessing:
		return StatusShipping
	case StatusShipping:
		return StatusOutForDelivery
	case StatusOutForDelivery:
		return StatusDelivered
	default:
		return s
	}
}

// ParseStatus accepts a status value or its label, case-insensitively.
func ParseStatus(raw string) (Status, error) {
	trimmed := strings.ToLower(strings.TrimSpace(raw))
	if trimmed == "" {
		return "", fmt.Errorf("status is required")
	}
	candidate := Status(strings.NewReplacer(" ", "_", "-", "_").Replace(trimmed))
	if candidate.Valid() {
		return candidate, nil
	}
	for _, s := range statuses {
		if strings.EqualFold(statusLabels[s], trimmed) {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", raw)
}
