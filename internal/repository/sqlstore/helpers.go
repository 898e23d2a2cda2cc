package sqlstore

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/monteirok/popmart-tracker/internal/order"
)

var errCorruptRow = errors.New("corrupt order row")

// nullableText keeps absent and empty apart: nil becomes NULL, "" stays "".
func nullableText(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullableTextPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	value := v.String
	return &value
}

func dateValue(d order.Date) string {
	return d.String()
}

func nullableDate(d *order.Date) sql.NullString {
	if d == nil || d.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

// dateColumn scans DATE columns stored as text (SQLite) or time (Postgres).
type dateColumn struct {
	Date  order.Date
	Valid bool
}

func (c *dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*c = dateColumn{}
		return nil
	case time.Time:
		*c = dateColumn{Date: order.NewDate(v.Year(), v.Month(), v.Day()), Valid: true}
		return nil
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("%w: unsupported date type %T", errCorruptRow, src)
	}
}

func (c *dateColumn) parse(raw string) error {
	if raw == "" {
		*c = dateColumn{}
		return nil
	}
	d, err := order.ParseDate(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", errCorruptRow, err)
	}
	*c = dateColumn{Date: d, Valid: true}
	return nil
}

// timestampColumn scans unix microseconds (SQLite) or timestamptz (Postgres).
type timestampColumn struct {
	Time time.Time
}

func (c *timestampColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		c.Time = time.Time{}
	case int64:
		c.Time = time.UnixMicro(v).UTC()
	case time.Time:
		c.Time = v.UTC()
	case string:
		return c.parse(v)
	case []byte:
		return c.parse(string(v))
	default:
		return fmt.Errorf("%w: unsupported timestamp type %T", errCorruptRow, src)
	}
	return nil
}

func (c *timestampColumn) parse(raw string) error {
	if micros, err := strconv.ParseInt(raw, 10, 64); err == nil {
		c.Time = time.UnixMicro(micros).UTC()
		return nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return fmt.Errorf("%w: %v", errCorruptRow, err)
	}
	c.Time = t.UTC()
	return nil
}

type orderScanner interface {
	Scan(dest ...any) error
}

func scanOrder(scanner orderScanner) (order.Order, error) {
	var (
		id             string
		orderNumber    string
		productName    string
		productImage   sql.NullString
		status         string
		orderDate      dateColumn
		trackingNumber sql.NullString
		eta            dateColumn
		price          decimal.Decimal
		createdAt      timestampColumn
		updatedAt      timestampColumn
	)
	if err := scanner.Scan(&id, &orderNumber, &productName, &productImage, &status, &orderDate,
		&trackingNumber, &eta, &price, &createdAt, &updatedAt); err != nil {
		return order.Order{}, err
	}
	o := order.Order{
		ID: id,
		Draft: order.Draft{
			OrderNumber:    orderNumber,
			ProductName:    productName,
			ProductImage:   nullableTextPtr(productImage),
			Status:         order.Status(status),
			OrderDate:      orderDate.Date,
			TrackingNumber: nullableTextPtr(trackingNumber),
			Price:          price,
		},
		CreatedAt: createdAt.Time,
		UpdatedAt: updatedAt.Time,
	}
	if eta.Valid {
		d := eta.Date
		o.EstimatedDelivery = &d
	}
	return o, nil
}
