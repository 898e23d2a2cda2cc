// Package order defines the tracked purchase record and its status set.
package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Draft carries every user-editable field of an order. It is what forms
// submit and what stores accept for create and replace; it never has an id.
//
// Optional text fields are pointers: nil means absent, a pointer to "" is a
// present but empty value. The two must not be conflated.
type Draft struct {
	OrderNumber       string          `json:"orderNumber" yaml:"order_number"`
	ProductName       string          `json:"productName" yaml:"product_name"`
	ProductImage      *string         `json:"productImage,omitempty" yaml:"product_image,omitempty"`
	Status            Status          `json:"status" yaml:"status"`
	OrderDate         Date            `json:"orderDate" yaml:"order_date"`
	TrackingNumber    *string         `json:"trackingNumber,omitempty" yaml:"tracking_number,omitempty"`
	EstimatedDelivery *Date           `json:"estimatedDelivery,omitempty" yaml:"estimated_delivery,omitempty"`
	Price             decimal.Decimal `json:"price" yaml:"price"`
}

// Order is a persisted Draft. ID and the timestamps are assigned by the store.
type Order struct {
	ID string `json:"id" yaml:"id"`
	Draft     `yaml:",inline"`
	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Clone returns a deep copy of o so callers cannot alias optional fields.
func (o Order) Clone() Order {
	o.Draft = o.Draft.Clone()
	return o
}

// Clone returns a deep copy of d.
func (d Draft) Clone() Draft {
	d.ProductImage = cloneString(d.ProductImage)
	d.TrackingNumber = cloneString(d.TrackingNumber)
	if d.EstimatedDelivery != nil {
		eta := *d.EstimatedDelivery
		d.EstimatedDelivery = &eta
	}
	return d
}

// Equal reports whether two drafts carry the same values, keeping the
// absent/empty distinction of optional fields.
func (d Draft) Equal(other Draft) bool {
	return d.OrderNumber == other.OrderNumber &&
		d.ProductName == other.ProductName &&
		equalString(d.ProductImage, other.ProductImage) &&
		d.Status == other.Status &&
		d.OrderDate.Equal(other.OrderDate) &&
		equalString(d.TrackingNumber, other.TrackingNumber) &&
		equalDate(d.EstimatedDelivery, other.EstimatedDelivery) &&
		d.Price.Equal(other.Price)
}

// String returns a pointer to v. Handy for optional fields.
func String(v string) *string {
	return &v
}

// DatePtr returns a pointer to d.
func DatePtr(d Date) *Date {
	return &d
}

// Value dereferences an optional string, returning "" when absent.
func Value(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func equalString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalDate(a, b *Date) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
