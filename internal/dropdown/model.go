package dropdown

import (
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/medentry/internal/ui"
)

// ClickOutsideDelay is how long after opening a click outside the list is
// ignored, so the click that opened it does not close it again.
const ClickOutsideDelay = 100 * time.Millisecond

// DefaultMaxVisible is the number of options shown at once
const DefaultMaxVisible = 6

// SelectedMsg is emitted when an option (or custom value) is chosen
type SelectedMsg struct {
	ID        string
	Selection Selection
}

// MoveFocusMsg asks the form to move focus away from the dropdown
type MoveFocusMsg struct {
	ID      string
	Reverse bool
}

// KeyMap defines the dropdown's key bindings
type KeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Home   key.Binding
	End    key.Binding
	Select key.Binding
	Close  key.Binding
	Next   key.Binding
	Prev   key.Binding
}

// ShortHelp returns the bindings shown in the compact help line
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Close}
}

// FullHelp returns every binding, grouped
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Home, k.End},
		{k.Select, k.Close, k.Next, k.Prev},
	}
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous option"),
		),
		Down: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next option"),
		),
		Home: key.NewBinding(
			key.WithKeys("home"),
			key.WithHelp("home", "first option"),
		),
		End: key.NewBinding(
			key.WithKeys("end"),
			key.WithHelp("end", "last option"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "close list"),
		),
		Next: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "previous"),
		),
	}
}

var (
	optionStyle = lipgloss.NewStyle().
			Foreground(ui.TextColor).
			PaddingLeft(2)

	optionTypedStyle = lipgloss.NewStyle().
				Foreground(ui.SuccessColor).
				PaddingLeft(2)

	optionCursorStyle = lipgloss.NewStyle().
				Foreground(ui.TextColor).
				Background(ui.PrimaryColor).
				PaddingLeft(2)

	optionBothStyle = lipgloss.NewStyle().
			Foreground(ui.SuccessColor).
			Background(ui.PrimaryColor).
			Bold(true).
			PaddingLeft(2)

	emptyStyle = lipgloss.NewStyle().
			Foreground(ui.MutedColor).
			Italic(true).
			PaddingLeft(2)
)

// Model is a searchable dropdown widget
type Model struct {
	ID         string
	KeyMap     KeyMap
	MaxVisible int

	machine  *Machine
	input    textinput.Model
	selected *Selection
	focused  bool
	openedAt time.Time
	now      func() time.Time
}

// New creates a dropdown with the given options
func New(id, placeholder string, items []Item, cfg Config) Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = ""
	ti.CharLimit = 64

	return Model{
		ID:         id,
		KeyMap:     DefaultKeyMap(),
		MaxVisible: DefaultMaxVisible,
		machine:    NewMachine(items, cfg),
		input:      ti,
		now:        time.Now,
	}
}

// WithClock replaces time.Now, used by tests of the click-outside delay
func (m Model) WithClock(now func() time.Time) Model {
	m.now = now
	return m
}

// Machine exposes the highlighting state machine
func (m Model) Machine() *Machine { return m.machine }

// Focus gives the text input the cursor
func (m *Model) Focus() tea.Cmd {
	m.focused = true
	return m.input.Focus()
}

// Blur removes the cursor and closes the list
func (m *Model) Blur() {
	m.focused = false
	m.input.Blur()
	m.machine.Close()
}

// Focused reports whether the widget has the cursor
func (m Model) Focused() bool { return m.focused }

// IsOpen reports whether the option list is showing
func (m Model) IsOpen() bool { return m.machine.IsOpen() }

// Value returns the chosen option, if any
func (m Model) Value() (Selection, bool) {
	if m.selected == nil {
		return Selection{}, false
	}
	return *m.selected, true
}

// Text returns the raw text in the input
func (m Model) Text() string { return m.input.Value() }

// Wants reports whether the dropdown consumes msg rather than leaving it to
// the form. A closed dropdown lets Tab and Esc through.
func (m Model) Wants(msg tea.KeyMsg) bool {
	if !m.focused {
		return false
	}
	if m.machine.IsOpen() {
		return true
	}
	return !key.Matches(msg, m.KeyMap.Next, m.KeyMap.Prev, m.KeyMap.Close)
}

func (m *Model) open() {
	if !m.machine.IsOpen() {
		m.machine.Open()
		m.openedAt = m.now()
	}
}

// Update handles key messages while focused
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	var canonical string
	switch {
	case key.Matches(keyMsg, m.KeyMap.Down):
		canonical = "down"
	case key.Matches(keyMsg, m.KeyMap.Up):
		canonical = "up"
	case key.Matches(keyMsg, m.KeyMap.Home):
		canonical = "home"
	case key.Matches(keyMsg, m.KeyMap.End):
		canonical = "end"
	case key.Matches(keyMsg, m.KeyMap.Select):
		canonical = "enter"
	case key.Matches(keyMsg, m.KeyMap.Close):
		canonical = "esc"
	case key.Matches(keyMsg, m.KeyMap.Next):
		canonical = "tab"
	case key.Matches(keyMsg, m.KeyMap.Prev):
		canonical = "shift+tab"
	}

	if canonical == "" {
		before := m.input.Value()
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		if after := m.input.Value(); after != before {
			m.open()
			m.selected = nil
			m.machine.Type(after)
		}
		return m, cmd
	}

	if !m.machine.IsOpen() {
		switch canonical {
		case "down", "up":
			m.open()
		case "enter":
			m.open()
			return m, nil
		}
	}

	act, sel, ok := m.machine.Key(canonical)
	switch act {
	case ActionSelect:
		return m, m.choose(sel)
	case ActionFocusNext, ActionFocusPrevious:
		move := MoveFocusMsg{ID: m.ID, Reverse: act == ActionFocusPrevious}
		if ok {
			return m, tea.Sequence(m.choose(sel), func() tea.Msg { return move })
		}
		return m, func() tea.Msg { return move }
	}
	return m, nil
}

func (m *Model) choose(sel Selection) tea.Cmd {
	m.selected = &sel
	m.input.SetValue(sel.Item.Label)
	m.input.CursorEnd()
	id := m.ID
	return func() tea.Msg { return SelectedMsg{ID: id, Selection: sel} }
}

// Toggle opens or closes the list, as a click on the input does
func (m *Model) Toggle() {
	if m.machine.IsOpen() {
		m.machine.Close()
		return
	}
	m.open()
}

// HoverOption moves the cursor to visible option row
func (m *Model) HoverOption(row int) {
	if i, ok := m.optionAt(row); ok {
		m.machine.Hover(i)
	}
}

// ClickOption selects visible option row
func (m *Model) ClickOption(row int) tea.Cmd {
	i, ok := m.optionAt(row)
	if !ok {
		return nil
	}
	sel := Selection{Item: m.machine.filtered[i]}
	m.machine.Close()
	return m.choose(sel)
}

// ClickOutside closes the list unless it opened less than
// ClickOutsideDelay ago. Returns whether it closed.
func (m *Model) ClickOutside() bool {
	if !m.machine.IsOpen() {
		return false
	}
	if m.now().Sub(m.openedAt) < ClickOutsideDelay {
		return false
	}
	m.machine.Close()
	return true
}

// window returns the first visible option index
func (m Model) window() int {
	limit := m.MaxVisible
	if limit <= 0 {
		limit = DefaultMaxVisible
	}
	idx := m.machine.Index()
	if idx < limit {
		return 0
	}
	return idx - limit + 1
}

func (m Model) optionAt(row int) (int, bool) {
	if !m.machine.IsOpen() || row < 0 {
		return 0, false
	}
	i := m.window() + row
	if i >= len(m.machine.filtered) || row >= m.visibleRows() {
		return 0, false
	}
	return i, true
}

func (m Model) visibleRows() int {
	limit := m.MaxVisible
	if limit <= 0 {
		limit = DefaultMaxVisible
	}
	if n := len(m.machine.filtered); n < limit {
		return n
	}
	return limit
}

// View renders the input line and, when open, the option list
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	if !m.machine.IsOpen() {
		return b.String()
	}

	if len(m.machine.filtered) == 0 {
		b.WriteString("\n")
		b.WriteString(emptyStyle.Render("no matches"))
		return b.String()
	}

	start := m.window()
	for row := 0; row < m.visibleRows(); row++ {
		i := start + row
		label := m.machine.filtered[i].Label
		b.WriteString("\n")
		switch m.machine.HighlightOf(i) {
		case HighlightBoth:
			b.WriteString(optionBothStyle.Render("› " + label))
		case HighlightNavigation:
			b.WriteString(optionCursorStyle.Render("› " + label))
		case HighlightTyped:
			b.WriteString(optionTypedStyle.Render("  " + label))
		default:
			b.WriteString(optionStyle.Render("  " + label))
		}
	}
	return b.String()
}
