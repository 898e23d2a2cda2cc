// Package tui is the interactive terminal front end of the order tracker.
package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/monteirok/popmart-tracker/internal/order"
	"github.com/monteirok/popmart-tracker/internal/state"
	"github.com/monteirok/popmart-tracker/internal/view"
)

// ViewType 表示当前视图
type ViewType int

const (
	ViewList    ViewType = iota // 订单列表
	ViewDetail                  // 订单卡片详情
	ViewForm                    // 新增/编辑表单
	ViewConfirm                 // 删除确认
)

// Orders is the state the TUI renders and mutates. *state.Manager
// implements it.
type Orders interface {
	Snapshot() state.Snapshot
	Load(ctx context.Context) error
	Add(ctx context.Context, draft order.Draft) (order.Order, error)
	Update(ctx context.Context, id string, draft order.Draft) (order.Order, error)
	UpdateStatus(ctx context.Context, id string, status order.Status) (order.Order, error)
	Delete(ctx context.Context, id string) error
	Subscribe(fn state.Observer) func()
}

// Model 是主 TUI 模型
type Model struct {
	ctx       context.Context
	orders    Orders
	formatter *view.Formatter
	updates   <-chan state.Snapshot

	// 数据
	snap     state.Snapshot
	filter   view.Filter
	selected int

	// 视图状态
	view     ViewType
	detailID string
	confirm  *order.Order
	form     *formModel
	// returnTo is the view restored when the form or confirm closes.
	returnTo ViewType

	// 终端尺寸
	width  int
	height int

	keys keyMap
}

// keyMap 定义全部按键绑定
type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	NextChip  key.Binding
	PrevChip  key.Binding
	Enter     key.Binding
	Back      key.Binding
	Add       key.Binding
	Edit      key.Binding
	Advance   key.Binding
	Cancel    key.Binding
	Delete    key.Binding
	Confirm   key.Binding
	Refresh   key.Binding
	Submit    key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		NextChip: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next filter"),
		),
		PrevChip: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous filter"),
		),
		Enter: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "backspace"),
			key.WithHelp("esc", "back"),
		),
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "edit"),
		),
		Advance: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "next status"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "cancel order"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "confirm"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Submit: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
		),
	}
}

// NewModel 创建新的 TUI 模型。updates 可以为 nil，此时由调用方自行刷新模型。
func NewModel(ctx context.Context, orders Orders, formatter *view.Formatter, updates <-chan state.Snapshot) Model {
	if ctx == nil {
		ctx = context.Background()
	}
	if formatter == nil {
		formatter = view.DefaultFormatter()
	}
	return Model{
		ctx:       ctx,
		orders:    orders,
		formatter: formatter,
		updates:   updates,
		snap:      orders.Snapshot(),
		filter:    view.All,
		view:      ViewList,
		keys:      defaultKeyMap(),
	}
}

// Init 实现 tea.Model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.load(), waitForSnapshot(m.updates))
}

// Run subscribes to orders and drives the program until the user quits or
// ctx ends.
func Run(ctx context.Context, orders Orders, formatter *view.Formatter, opts ...tea.ProgramOption) error {
	updates, unsubscribe := Subscribe(orders)
	defer unsubscribe()

	opts = append([]tea.ProgramOption{tea.WithAltScreen(), tea.WithContext(ctx)}, opts...)
	p := tea.NewProgram(NewModel(ctx, orders, formatter, updates), opts...)
	_, err := p.Run()
	return err
}

// Subscribe forwards manager notifications to a channel that holds only
// the newest snapshot, so a slow renderer never blocks the manager.
func Subscribe(orders Orders) (<-chan state.Snapshot, func()) {
	ch := make(chan state.Snapshot, 1)
	unsubscribe := orders.Subscribe(func(s state.Snapshot) {
		for {
			select {
			case ch <- s:
				return
			default:
			}
			select {
			case <-ch:
			default:
			}
		}
	})
	return ch, unsubscribe
}

// 消息类型

type snapshotMsg state.Snapshot

// opDoneMsg reports the end of a state operation started from the UI.
type opDoneMsg struct {
	action string
	err    error
}

// formDoneMsg reports a form submission.
type formDoneMsg struct {
	err error
}

// 命令

func waitForSnapshot(updates <-chan state.Snapshot) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return snapshotMsg(s)
	}
}

func (m Model) load() tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{action: "refresh", err: m.orders.Load(m.ctx)}
	}
}

func (m Model) setStatus(id string, status order.Status) tea.Cmd {
	return func() tea.Msg {
		_, err := m.orders.UpdateStatus(m.ctx, id, status)
		return opDoneMsg{action: "status", err: err}
	}
}

func (m Model) remove(id string) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{action: "delete", err: m.orders.Delete(m.ctx, id)}
	}
}

func (m Model) submit(f view.Form, draft order.Draft) tea.Cmd {
	return func() tea.Msg {
		var err error
		if f.Editing() {
			_, err = m.orders.Update(m.ctx, f.ID, draft)
		} else {
			_, err = m.orders.Add(m.ctx, draft)
		}
		return formDoneMsg{err: err}
	}
}

// 辅助函数

// visible returns the orders passing the active filter.
func (m Model) visible() []order.Order {
	return view.Apply(m.snap.Orders, m.filter)
}

// current returns the order under the cursor, or the one shown in detail.
func (m Model) current() (order.Order, bool) {
	if m.view == ViewDetail {
		for _, o := range m.snap.Orders {
			if o.ID == m.detailID {
				return o, true
			}
		}
		return order.Order{}, false
	}
	list := m.visible()
	if m.selected < 0 || m.selected >= len(list) {
		return order.Order{}, false
	}
	return list[m.selected], true
}

func (m *Model) clampSelection() {
	n := len(m.visible())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}
