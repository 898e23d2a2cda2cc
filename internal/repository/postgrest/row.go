package postgrest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monteirok/popmart-tracker/internal/order"
)

// row is the persisted shape of an order as PostgREST exchanges it.
//
// Optional columns are pointers without omitempty so that an absent value is
// written as JSON null, clearing the column on replace, while a pointer to ""
// is written as "". Reading maps null back to nil and "" to a pointer to "".
type row struct {
	ID                string      `json:"id,omitempty"`
	OrderNumber       string      `json:"order_number"`
	ProductName       string      `json:"product_name"`
	ProductImage      *string     `json:"product_image"`
	Status            string      `json:"status"`
	OrderDate         string      `json:"order_date"`
	TrackingNumber    *string     `json:"tracking_number"`
	EstimatedDelivery *string     `json:"estimated_delivery"`
	Price             json.Number `json:"price"`
	CreatedAt         *time.Time  `json:"created_at,omitempty"`
	UpdatedAt         *time.Time  `json:"updated_at,omitempty"`
}

// statusPatch is the body of a status-only update.
type statusPatch struct {
	Status    string    `json:"status"`
	UpdatedAt time.Time `json:"updated_at"`
}

func rowFromDraft(d order.Draft) row {
	r := row{
		OrderNumber:    d.OrderNumber,
		ProductName:    d.ProductName,
		ProductImage:   copyString(d.ProductImage),
		Status:         string(d.Status),
		OrderDate:      d.OrderDate.String(),
		TrackingNumber: copyString(d.TrackingNumber),
		Price:          json.Number(d.Price.String()),
	}
	if d.EstimatedDelivery != nil {
		eta := d.EstimatedDelivery.String()
		r.EstimatedDelivery = &eta
	}
	return r
}

func (r row) toOrder() (order.Order, error) {
	orderDate, err := order.ParseDate(r.OrderDate)
	if err != nil {
		return order.Order{}, fmt.Errorf("row %s: order_date: %w", r.ID, err)
	}
	price, err := decimal.NewFromString(r.Price.String())
	if err != nil {
		return order.Order{}, fmt.Errorf("row %s: price: %w", r.ID, err)
	}

	o := order.Order{
		ID: r.ID,
		Draft: order.Draft{
			OrderNumber:    r.OrderNumber,
			ProductName:    r.ProductName,
			ProductImage:   copyString(r.ProductImage),
			Status:         order.Status(r.Status),
			OrderDate:      orderDate,
			TrackingNumber: copyString(r.TrackingNumber),
			Price:          price,
		},
	}
	if r.EstimatedDelivery != nil && *r.EstimatedDelivery != "" {
		eta, err := order.ParseDate(*r.EstimatedDelivery)
		if err != nil {
			return order.Order{}, fmt.Errorf("row %s: estimated_delivery: %w", r.ID, err)
		}
		o.EstimatedDelivery = &eta
	}
	if r.CreatedAt != nil {
		o.CreatedAt = r.CreatedAt.UTC()
	}
	if r.UpdatedAt != nil {
		o.UpdatedAt = r.UpdatedAt.UTC()
	}
	return o, nil
}

func rowsToOrders(rows []row) ([]order.Order, error) {
	orders := make([]order.Order, 0, len(rows))
	for _, r := range rows {
		o, err := r.toOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func copyString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}
