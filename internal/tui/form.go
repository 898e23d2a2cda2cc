package tui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/view"
)

type formField struct {
	name        string
	label       string
	placeholder string
	required    bool
}

var formFields = []formField{
	{name: view.FieldOrderNumber, label: "Order Number", placeholder: "PM001", required: true},
	{name: view.FieldProductName, label: "Product Name", placeholder: "Labubu", required: true},
	{name: view.FieldProductImage, label: "Product Image URL", placeholder: "https://..."},
	{name: view.FieldStatus, label: "Status", placeholder: "←/→ to change", required: true},
	{name: view.FieldOrderDate, label: "Order Date", placeholder: order.DateLayout, required: true},
	{name: view.FieldTrackingNumber, label: "Tracking Number", placeholder: "optional"},
	{name: view.FieldEstimatedDelivery, label: "Estimated Delivery", placeholder: order.DateLayout},
	{name: view.FieldPrice, label: "Price", placeholder: "0.00", required: true},
}

// formModel is the add/edit modal.
type formModel struct {
	id     string
	inputs []textinput.Model
	focus  int
	// errs holds local validation problems, err the manager's error after a
	// failed submit.
	errs       view.ValidationErrors
	err        string
	submitting bool
}

func newFormModel(f view.Form) *formModel {
	values := map[string]string{
		view.FieldOrderNumber:       f.OrderNumber,
		view.FieldProductName:       f.ProductName,
		view.FieldProductImage:      f.ProductImage,
		view.FieldStatus:            f.Status,
		view.FieldOrderDate:         f.OrderDate,
		view.FieldTrackingNumber:    f.TrackingNumber,
		view.FieldEstimatedDelivery: f.EstimatedDelivery,
		view.FieldPrice:             f.Price,
	}
	fm := &formModel{id: f.ID, inputs: make([]textinput.Model, len(formFields))}
	for i, field := range formFields {
		ti := textinput.New()
		ti.Prompt = ""
		ti.Placeholder = field.placeholder
		ti.CharLimit = 256
		ti.Width = 40
		ti.SetValue(values[field.name])
		fm.inputs[i] = ti
	}
	fm.inputs[0].Focus()
	return fm
}

// value collects the inputs back into a form.
func (fm *formModel) value() view.Form {
	get := func(name string) string {
		for i, field := range formFields {
			if field.name == name {
				return fm.inputs[i].Value()
			}
		}
		return ""
	}
	return view.Form{
		ID:                fm.id,
		OrderNumber:       get(view.FieldOrderNumber),
		ProductName:       get(view.FieldProductName),
		ProductImage:      get(view.FieldProductImage),
		Status:            get(view.FieldStatus),
		OrderDate:         get(view.FieldOrderDate),
		TrackingNumber:    get(view.FieldTrackingNumber),
		EstimatedDelivery: get(view.FieldEstimatedDelivery),
		Price:             get(view.FieldPrice),
	}
}

func (fm *formModel) focusField(i int) {
	n := len(fm.inputs)
	i = ((i % n) + n) % n
	fm.inputs[fm.focus].Blur()
	fm.focus = i
	fm.inputs[i].Focus()
}

func (fm *formModel) onLastField() bool {
	return fm.focus == len(fm.inputs)-1
}

// cycleStatus moves the status input through the lifecycle list.
func (fm *formModel) cycleStatus(delta int) {
	idx := -1
	for i, field := range formFields {
		if field.name == view.FieldStatus {
			idx = i
		}
	}
	all := order.Statuses()
	pos := 0
	if s, err := order.ParseStatus(fm.inputs[idx].Value()); err == nil {
		for i, candidate := range all {
			if candidate == s {
				pos = i
			}
		}
		pos += delta
	}
	pos = ((pos % len(all)) + len(all)) % len(all)
	fm.inputs[idx].SetValue(string(all[pos]))
}

func (fm *formModel) focusedField() formField {
	return formFields[fm.focus]
}

func (fm *formModel) updateInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	fm.inputs[fm.focus], cmd = fm.inputs[fm.focus].Update(msg)
	return cmd
}
