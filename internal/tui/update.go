package tui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/view"
)

// Update implements tea.Model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.ForceQuit) {
			return m, tea.Quit
		}
		switch m.view {
		case ViewForm:
			return m.handleFormKey(msg)
		case ViewConfirm:
			return m.handleConfirmKey(msg)
		default:
			return m.handleKey(msg)
		}

	case snapshotMsg:
		m.apply()
		return m, waitForSnapshot(m.updates)

	case opDoneMsg:
		m.apply()
		return m, nil

	case formDoneMsg:
		m.apply()
		if m.form == nil {
			return m, nil
		}
		m.form.submitting = false
		if msg.err != nil {
			// The form stays open with the manager's message.
			m.form.err = m.snap.Error
			if m.form.err == "" {
				m.form.err = msg.err.Error()
			}
			return m, nil
		}
		m.form = nil
		m.view = m.returnTo
		return m, nil
	}

	if m.view == ViewForm && m.form != nil {
		return m, m.form.updateInput(msg)
	}
	return m, nil
}

// apply pulls the latest snapshot from the manager.
func (m *Model) apply() {
	m.snap = m.orders.Snapshot()
	m.clampSelection()
	if m.view == ViewDetail {
		if _, ok := m.current(); !ok {
			m.view = ViewList
			m.detailID = ""
		}
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		return m.handleUp()

	case key.Matches(msg, m.keys.Down):
		return m.handleDown()

	case key.Matches(msg, m.keys.NextChip):
		return m.moveFilter(1)

	case key.Matches(msg, m.keys.PrevChip):
		return m.moveFilter(-1)

	case key.Matches(msg, m.keys.Enter):
		return m.handleEnter()

	case key.Matches(msg, m.keys.Back):
		return m.handleBack()

	case key.Matches(msg, m.keys.Refresh):
		return m, m.load()

	case key.Matches(msg, m.keys.Add):
		return m.openForm(view.NewForm())

	case key.Matches(msg, m.keys.Edit):
		if o, ok := m.current(); ok {
			return m.openForm(view.FormFromOrder(o))
		}

	case key.Matches(msg, m.keys.Advance):
		if o, ok := m.current(); ok && !o.Status.Terminal() {
			return m, m.setStatus(o.ID, o.Status.Next())
		}

	case key.Matches(msg, m.keys.Cancel):
		if o, ok := m.current(); ok && o.Status != order.StatusCancelled {
			return m, m.setStatus(o.ID, order.StatusCancelled)
		}

	case key.Matches(msg, m.keys.Delete):
		if o, ok := m.current(); ok {
			m.confirm = &o
			m.returnTo = m.view
			m.view = ViewConfirm
		}
	}

	return m, nil
}

func (m Model) handleUp() (tea.Model, tea.Cmd) {
	if m.view != ViewList {
		return m, nil
	}
	if n := len(m.visible()); n > 0 {
		m.selected--
		if m.selected < 0 {
			m.selected = n - 1
		}
	}
	return m, nil
}

func (m Model) handleDown() (tea.Model, tea.Cmd) {
	if m.view != ViewList {
		return m, nil
	}
	if n := len(m.visible()); n > 0 {
		m.selected++
		if m.selected >= n {
			m.selected = 0
		}
	}
	return m, nil
}

// moveFilter cycles the active chip. A filter whose chip disappeared
// counts as "All".
func (m Model) moveFilter(delta int) (tea.Model, tea.Cmd) {
	if m.view != ViewList {
		return m, nil
	}
	chips := view.Chips(m.snap.Orders, m.filter)
	idx := 0
	for i, c := range chips {
		if c.Active {
			idx = i
		}
	}
	idx = ((idx+delta)%len(chips) + len(chips)) % len(chips)
	m.filter = chips[idx].Filter
	m.selected = 0
	return m, nil
}

func (m Model) handleEnter() (tea.Model, tea.Cmd) {
	if m.view != ViewList {
		return m, nil
	}
	if o, ok := m.current(); ok {
		m.detailID = o.ID
		m.view = ViewDetail
	}
	return m, nil
}

func (m Model) handleBack() (tea.Model, tea.Cmd) {
	if m.view == ViewDetail {
		m.view = ViewList
		m.detailID = ""
	}
	return m, nil
}

func (m Model) openForm(f view.Form) (tea.Model, tea.Cmd) {
	m.form = newFormModel(f)
	m.returnTo = m.view
	m.view = ViewForm
	return m, textinput.Blink
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	fm := m.form
	if fm.submitting {
		return m, nil
	}
	switch msg.String() {
	case "esc":
		m.form = nil
		m.view = m.returnTo
		return m, nil
	case "tab", "down":
		fm.focusField(fm.focus + 1)
		return m, nil
	case "shift+tab", "up":
		fm.focusField(fm.focus - 1)
		return m, nil
	case "left", "right":
		if fm.focusedField().name == view.FieldStatus {
			delta := 1
			if msg.String() == "left" {
				delta = -1
			}
			fm.cycleStatus(delta)
			return m, nil
		}
	case "enter":
		if !fm.onLastField() {
			fm.focusField(fm.focus + 1)
			return m, nil
		}
		return m.submitForm()
	}
	if key.Matches(msg, m.keys.Submit) {
		return m.submitForm()
	}
	return m, fm.updateInput(msg)
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	fm := m.form
	f := fm.value()
	draft, err := f.Draft()
	if err != nil {
		var verrs view.ValidationErrors
		if errors.As(err, &verrs) {
			fm.errs = verrs
		}
		fm.err = err.Error()
		return m, nil
	}
	fm.errs = nil
	fm.err = ""
	fm.submitting = true
	return m, m.submit(f, draft)
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	target := m.confirm
	m.view = m.returnTo
	m.confirm = nil
	if key.Matches(msg, m.keys.Confirm) && target != nil {
		if m.view == ViewDetail {
			m.view = ViewList
			m.detailID = ""
		}
		return m, m.remove(target.ID)
	}
	return m, nil
}
