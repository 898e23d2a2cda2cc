package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/monteirok/popmart-tracker/internal/order"
)

// Form field names, used as keys of ValidationErrors.
const (
	FieldOrderNumber       = "orderNumber"
	FieldProductName       = "productName"
	FieldProductImage      = "productImage"
	FieldStatus            = "status"
	FieldOrderDate         = "orderDate"
	FieldTrackingNumber    = "trackingNumber"
	FieldEstimatedDelivery = "estimatedDelivery"
	FieldPrice             = "price"
)

// ValidationErrors maps a form field to its problem.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for field := range v {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+v[field])
	}
	return "invalid order: " + strings.Join(parts, "; ")
}

// Form is the create/edit order form. Every field holds raw user input.
type Form struct {
	// ID is set when editing an existing order.
	ID                string `json:"id,omitempty"`
	OrderNumber       string `json:"orderNumber"`
	ProductName       string `json:"productName"`
	ProductImage      string `json:"productImage"`
	Status            string `json:"status"`
	OrderDate         string `json:"orderDate"`
	TrackingNumber    string `json:"trackingNumber"`
	EstimatedDelivery string `json:"estimatedDelivery"`
	Price             string `json:"price"`
}

// NewForm returns an empty add form: status pending, order date today.
func NewForm() Form {
	return Form{
		Status:    string(order.StatusPending),
		OrderDate: order.Today().String(),
	}
}

// FormFromOrder pre-fills an edit form from o.
func FormFromOrder(o order.Order) Form {
	f := Form{
		ID:             o.ID,
		OrderNumber:    o.OrderNumber,
		ProductName:    o.ProductName,
		ProductImage:   order.Value(o.ProductImage),
		Status:         string(o.Status),
		OrderDate:      o.OrderDate.String(),
		TrackingNumber: order.Value(o.TrackingNumber),
		Price:          o.Price.StringFixed(2),
	}
	if o.EstimatedDelivery != nil {
		f.EstimatedDelivery = o.EstimatedDelivery.String()
	}
	return f
}

// Editing reports whether f edits an existing order.
func (f Form) Editing() bool {
	return f.ID != ""
}

// Title is the form heading.
func (f Form) Title() string {
	if f.Editing() {
		return "Edit Order"
	}
	return "Add New Order"
}

// SubmitLabel is the text of the submit action.
func (f Form) SubmitLabel() string {
	if f.Editing() {
		return "Update Order"
	}
	return "Add Order"
}

// Validate checks required fields, a non-negative price and that dates,
// price and status parse. It returns nil or ValidationErrors.
func (f Form) Validate() error {
	_, errs := f.parse()
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// Draft converts f into an order draft. Empty optional inputs become absent
// fields, never present-empty ones.
func (f Form) Draft() (order.Draft, error) {
	d, errs := f.parse()
	if len(errs) > 0 {
		return order.Draft{}, errs
	}
	return d, nil
}

func (f Form) parse() (order.Draft, ValidationErrors) {
	errs := ValidationErrors{}
	d := order.Draft{
		OrderNumber:    strings.TrimSpace(f.OrderNumber),
		ProductName:    strings.TrimSpace(f.ProductName),
		ProductImage:   optional(f.ProductImage),
		TrackingNumber: optional(f.TrackingNumber),
	}

	if d.OrderNumber == "" {
		errs[FieldOrderNumber] = "order number is required"
	}
	if d.ProductName == "" {
		errs[FieldProductName] = "product name is required"
	}

	if strings.TrimSpace(f.Status) == "" {
		errs[FieldStatus] = "status is required"
	} else if s, err := order.ParseStatus(f.Status); err != nil {
		errs[FieldStatus] = err.Error()
	} else {
		d.Status = s
	}

	if strings.TrimSpace(f.OrderDate) == "" {
		errs[FieldOrderDate] = "order date is required"
	} else if date, err := order.ParseDate(f.OrderDate); err != nil {
		errs[FieldOrderDate] = err.Error()
	} else {
		d.OrderDate = date
	}

	if raw := strings.TrimSpace(f.EstimatedDelivery); raw != "" {
		eta, err := order.ParseDate(raw)
		if err != nil {
			errs[FieldEstimatedDelivery] = err.Error()
		} else {
			d.EstimatedDelivery = &eta
		}
	}

	raw := strings.TrimSpace(f.Price)
	switch price, err := decimal.NewFromString(raw); {
	case raw == "":
		errs[FieldPrice] = "price is required"
	case err != nil:
		errs[FieldPrice] = fmt.Sprintf("invalid price %q", f.Price)
	case price.IsNegative():
		errs[FieldPrice] = "price must be zero or more"
	default:
		d.Price = price
	}
	return d, errs
}

func optional(raw string) *string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
