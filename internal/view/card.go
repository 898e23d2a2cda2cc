package view

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"

	"github.com/monteirok/popmart-tracker/internal/order"
)

const (
	defaultCurrency    = "CAD"
	defaultTrackingURL = "https://www.aftership.com/track/%s"
	defaultDateLayout  = "Jan 2, 2006"
)

// colorKeys maps statuses to a palette name; renderers pick the actual colour.
var colorKeys = map[order.Status]string{
	order.StatusPending:        "yellow",
	order.StatusConfirmed:      "blue",
	order.StatusProcessing:     "purple",
	order.StatusShipping:       "indigo",
	order.StatusOutForDelivery: "orange",
	order.StatusDelivered:      "green",
	order.StatusCancelled:      "red",
}

// ColorKey returns the palette name of s, "gray" for unknown values.
func ColorKey(s order.Status) string {
	if key, ok := colorKeys[s]; ok {
		return key
	}
	return "gray"
}

// FormatOptions controls how cards render prices, dates and tracking links.
type FormatOptions struct {
	Currency string
	// Locale is a BCP 47 tag used for number grouping.
	Locale string
	// TrackingURL is a format string with one %s for the tracking number.
	TrackingURL string
	DateLayout  string
}

// Formatter renders cards.
type Formatter struct {
	currency    string
	trackingURL string
	dateLayout  string
	printer     *message.Printer
}

// NewFormatter builds a Formatter; empty options fall back to CAD, en-CA and
// AfterShip links. An unparseable locale is an error.
func NewFormatter(opts FormatOptions) (*Formatter, error) {
	tag := language.MustParse("en-CA")
	if strings.TrimSpace(opts.Locale) != "" {
		parsed, err := language.Parse(opts.Locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale %q: %w", opts.Locale, err)
		}
		tag = parsed
	}
	f := &Formatter{
		currency:    strings.TrimSpace(opts.Currency),
		trackingURL: strings.TrimSpace(opts.TrackingURL),
		dateLayout:  strings.TrimSpace(opts.DateLayout),
		printer:     message.NewPrinter(tag),
	}
	if f.currency == "" {
		f.currency = defaultCurrency
	}
	if f.trackingURL == "" {
		f.trackingURL = defaultTrackingURL
	}
	if !strings.Contains(f.trackingURL, "%s") {
		return nil, fmt.Errorf("tracking url %q needs a %%s placeholder", opts.TrackingURL)
	}
	if f.dateLayout == "" {
		f.dateLayout = defaultDateLayout
	}
	return f, nil
}

var defaultFormatter, _ = NewFormatter(FormatOptions{})

// DefaultFormatter returns the CAD/en-CA formatter.
func DefaultFormatter() *Formatter {
	return defaultFormatter
}

// Tracking is a tracking number with its carrier lookup link.
type Tracking struct {
	Number string `json:"number"`
	URL    string `json:"url"`
}

// Row is one label/value line of a card body.
type Row struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Card is the display model of one order. Optional parts are empty or nil
// when the order does not carry them.
type Card struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Subtitle          string    `json:"subtitle"`
	Status            string    `json:"status"`
	StatusLabel       string    `json:"statusLabel"`
	ColorKey          string    `json:"colorKey"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	OrderDate         string    `json:"orderDate"`
	Price             string    `json:"price"`
	Tracking          *Tracking `json:"tracking,omitempty"`
	EstimatedDelivery string    `json:"estimatedDelivery,omitempty"`
}

// NewCard renders o with the default formatter.
func NewCard(o order.Order) Card {
	return defaultFormatter.Card(o)
}

// Card renders o.
func (f *Formatter) Card(o order.Order) Card {
	c := Card{
		ID:          o.ID,
		Title:       o.ProductName,
		Subtitle:    "Order #" + o.OrderNumber,
		Status:      string(o.Status),
		StatusLabel: o.Status.Label(),
		ColorKey:    ColorKey(o.Status),
		ImageURL:    order.Value(o.ProductImage),
		OrderDate:   o.OrderDate.Format(f.dateLayout),
		Price:       f.Price(o),
	}
	if tn := order.Value(o.TrackingNumber); tn != "" {
		c.Tracking = &Tracking{Number: tn, URL: f.TrackingLink(tn)}
	}
	if o.EstimatedDelivery != nil {
		c.EstimatedDelivery = o.EstimatedDelivery.Format(f.dateLayout)
	}
	return c
}

// Price renders the order price as "CAD 12.99", two decimals and no grouping.
func (f *Formatter) Price(o order.Order) string {
	amount := number.Decimal(o.Price.Round(2).InexactFloat64(), number.Scale(2), number.NoSeparator())
	return f.currency + " " + f.printer.Sprint(amount)
}

// TrackingLink returns the lookup URL of a tracking number.
func (f *Formatter) TrackingLink(trackingNumber string) string {
	return fmt.Sprintf(f.trackingURL, url.PathEscape(trackingNumber))
}

// Rows returns the body lines of c in display order, skipping absent ones.
func (c Card) Rows() []Row {
	rows := []Row{
		{Label: "Order Date:", Value: c.OrderDate},
		{Label: "Price:", Value: c.Price},
	}
	if c.Tracking != nil {
		rows = append(rows, Row{Label: "Tracking:", Value: c.Tracking.Number})
	}
	if c.EstimatedDelivery != "" {
		rows = append(rows, Row{Label: "Est. Delivery:", Value: c.EstimatedDelivery})
	}
	return rows
}
