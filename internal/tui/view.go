package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/monteirok/popmart-tracker/internal/view"
)

// View 实现 tea.Model
func (m Model) View() string {
	switch m.view {
	case ViewDetail:
		return m.renderDetailView()
	case ViewForm:
		return m.renderFormView()
	case ViewConfirm:
		return m.renderConfirmView()
	default:
		return m.renderListView()
	}
}

func (m Model) headerWidth() int {
	if m.width > 0 {
		return m.width
	}
	return 80
}

func (m Model) renderListView() string {
	var b strings.Builder

	b.WriteString(styleHeader.Width(m.headerWidth()).Render("  Popmart Order Tracker"))
	b.WriteString("\n\n")

	if m.snap.Loading {
		b.WriteString(styleMuted.Render("  Loading orders..."))
		b.WriteString("\n")
		return b.String()
	}

	if m.snap.Error != "" {
		b.WriteString(styleError.Render("  Error: " + m.snap.Error))
		b.WriteString("\n\n")
	}

	list := view.NewList(m.snap, m.filter)

	// 状态筛选
	chips := make([]string, 0, len(list.Chips))
	for _, c := range list.Chips {
		if c.Active {
			chips = append(chips, styleChipActive.Render(c.Label))
		} else {
			chips = append(chips, styleChip.Render(c.Label))
		}
	}
	b.WriteString("  " + strings.Join(chips, " "))
	b.WriteString("\n\n")

	if list.Empty != nil {
		b.WriteString("  " + list.Empty.Title + "\n")
		b.WriteString(styleMuted.Render("  " + list.Empty.Body))
		b.WriteString("\n\n")
		b.WriteString(styleHelp.Render("  [a] Add  [tab] Filter  [r] Refresh  [q] Quit"))
		return b.String()
	}

	tableHeader := fmt.Sprintf("  %-12s │ %-24s │ %-20s │ %-12s │ %s",
		"Order #", "Product", "Status", "Ordered", "Price")
	b.WriteString(styleTableHeader.Width(m.headerWidth()).Render(tableHeader))
	b.WriteString("\n")

	// 按终端高度计算可见行数
	visibleRows := m.height - 12
	if visibleRows < 5 {
		visibleRows = 5
	}
	startIdx := 0
	if m.selected >= visibleRows {
		startIdx = m.selected - visibleRows + 1
	}
	endIdx := startIdx + visibleRows
	if endIdx > len(list.Orders) {
		endIdx = len(list.Orders)
	}

	for i := startIdx; i < endIdx; i++ {
		card := m.formatter.Card(list.Orders[i])
		row := fmt.Sprintf("  %-12s │ %s │ %s │ %-12s │ %s",
			truncate(list.Orders[i].OrderNumber, 12),
			pad(truncate(card.Title, 24), 24),
			pad(StatusBadge(card.ColorKey, card.StatusLabel), 20),
			card.OrderDate,
			card.Price,
		)
		if i == m.selected {
			b.WriteString(styleTableRowSelected.Width(m.headerWidth()).Render("▶" + row[1:]))
		} else {
			b.WriteString(styleTableRow.Render(row))
		}
		b.WriteString("\n")
	}

	if len(list.Orders) > visibleRows {
		b.WriteString(styleMuted.Render(fmt.Sprintf("  Showing %d-%d of %d orders", startIdx+1, endIdx, len(list.Orders))))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(styleHelp.Render("  [↑/↓] Navigate  [tab] Filter  [Enter] Details  [a] Add  [e] Edit  [s] Next status  [x] Cancel  [d] Delete  [r] Refresh  [q] Quit"))
	return b.String()
}

func (m Model) renderDetailView() string {
	o, ok := m.current()
	if !ok {
		return "No order selected"
	}
	card := m.formatter.Card(o)

	var body strings.Builder
	body.WriteString(styleValue.Bold(true).Render(card.Title))
	body.WriteString("\n")
	body.WriteString(styleMuted.Render(card.Subtitle))
	body.WriteString("\n")
	body.WriteString(StatusBadge(card.ColorKey, card.StatusLabel))
	body.WriteString("\n\n")
	if card.ImageURL != "" {
		body.WriteString(styleLabel.Render("Image:") + styleValue.Render(card.ImageURL) + "\n")
	}
	for _, row := range card.Rows() {
		body.WriteString(styleLabel.Render(row.Label) + styleValue.Render(row.Value) + "\n")
	}
	if card.Tracking != nil {
		body.WriteString(styleLabel.Render("Track at:") + styleMuted.Render(card.Tracking.URL) + "\n")
	}

	var b strings.Builder
	b.WriteString(styleHeader.Width(m.headerWidth()).Render("  " + card.Subtitle))
	b.WriteString("\n\n")
	if m.snap.Error != "" {
		b.WriteString(styleError.Render("  Error: " + m.snap.Error))
		b.WriteString("\n\n")
	}
	b.WriteString(styleDetailBox.Render(strings.TrimRight(body.String(), "\n")))
	b.WriteString("\n\n")
	b.WriteString(styleHelp.Render("  [e] Edit  [s] Next status  [x] Cancel  [d] Delete  [Esc] Back  [q] Quit"))
	return b.String()
}

func (m Model) renderFormView() string {
	fm := m.form
	if fm == nil {
		return ""
	}
	f := fm.value()

	var body strings.Builder
	body.WriteString(styleValue.Bold(true).Render(f.Title()))
	body.WriteString("\n\n")
	for i, field := range formFields {
		label := field.label
		if field.required {
			label += " *"
		}
		if i == fm.focus {
			body.WriteString(styleLabelFocused.Render(label))
		} else {
			body.WriteString(styleLabel.Render(label))
		}
		body.WriteString(fm.inputs[i].View())
		if msg, ok := fm.errs[field.name]; ok {
			body.WriteString("  " + styleError.Render(msg))
		}
		body.WriteString("\n")
	}
	body.WriteString("\n")
	switch {
	case fm.submitting:
		body.WriteString(styleMuted.Render("Saving..."))
	case fm.err != "" && len(fm.errs) == 0:
		body.WriteString(styleError.Render(fm.err))
	default:
		body.WriteString(styleMuted.Render("[" + f.SubmitLabel() + ": ctrl+s]"))
	}

	var b strings.Builder
	b.WriteString(styleModal.Render(body.String()))
	b.WriteString("\n\n")
	b.WriteString(styleHelp.Render("  [tab/↑/↓] Field  [←/→] Status  [Enter] Next/Submit  [Esc] Cancel"))
	return b.String()
}

func (m Model) renderConfirmView() string {
	if m.confirm == nil {
		return ""
	}
	msg := fmt.Sprintf("Delete order #%s (%s)?\n\n%s",
		m.confirm.OrderNumber, m.confirm.ProductName,
		styleMuted.Render("[y] Delete  [any other key] Keep"))
	return styleDangerBox.Render(msg)
}

// truncate 按显示宽度截断字符串
func truncate(s string, width int) string {
	if runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}

// pad right-fills s to width display cells, ignoring ANSI styling.
func pad(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
