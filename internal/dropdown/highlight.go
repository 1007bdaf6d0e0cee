package dropdown

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Phase is the interaction phase of an open dropdown
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseTyping
	PhaseNavigating
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseTyping:
		return "typing"
	case PhaseNavigating:
		return "navigating"
	default:
		return "unknown"
	}
}

// Highlight is how an option is rendered
type Highlight int

const (
	HighlightNone       Highlight = iota
	HighlightTyped                // label starts with the typed prefix
	HighlightNavigation           // option under the navigation cursor
	HighlightBoth
)

// Item is one option
type Item struct {
	Value string
	Label string
}

// Selection is the result of resolving the dropdown
type Selection struct {
	Item   Item
	Custom bool // free text accepted through AllowCustomValue
}

// Config toggles dropdown behaviour
type Config struct {
	Wrap              bool // arrow navigation wraps at the ends instead of clamping
	AllowCustomValue  bool // Enter accepts the typed text when nothing matches
	EnableTabAsArrows bool // Tab/Shift+Tab move the highlight (searchable dropdowns)
	SelectOnTab       bool // Tab resolves the selection before moving focus (autocomplete)
	Fuzzy             bool // fuzzy filter instead of substring
}

// Action tells the owner of the dropdown what to do after a key
type Action int

const (
	ActionNone Action = iota
	ActionSelect
	ActionFocusNext
	ActionFocusPrevious
	ActionClose
)

// Machine is the highlighting state machine: idle → typing → navigating → idle.
// The typed-match highlight and the navigation highlight are independent.
type Machine struct {
	cfg      Config
	items    []Item
	filtered []Item
	phase    Phase
	query    string
	index    int
	open     bool
}

// NewMachine creates a closed dropdown over items
func NewMachine(items []Item, cfg Config) *Machine {
	m := &Machine{cfg: cfg, items: append([]Item(nil), items...)}
	m.reset()
	return m
}

func (m *Machine) reset() {
	m.phase = PhaseIdle
	m.query = ""
	m.index = -1
	m.filtered = append([]Item(nil), m.items...)
}

// SetItems replaces the options and re-applies the current query
func (m *Machine) SetItems(items []Item) {
	m.items = append([]Item(nil), items...)
	m.refilter()
}

// Open shows the list with fresh state
func (m *Machine) Open() {
	m.reset()
	m.open = true
}

// Close hides the list and clears state
func (m *Machine) Close() {
	m.reset()
	m.open = false
}

func (m *Machine) IsOpen() bool     { return m.open }
func (m *Machine) Phase() Phase     { return m.phase }
func (m *Machine) Query() string    { return m.query }
func (m *Machine) Index() int       { return m.index }
func (m *Machine) Config() Config   { return m.cfg }
func (m *Machine) Filtered() []Item { return append([]Item(nil), m.filtered...) }

// SetConfig replaces the behaviour flags and re-applies the current query
func (m *Machine) SetConfig(cfg Config) {
	m.cfg = cfg
	m.refilter()
}

// Type sets the query. Typing clears the navigation cursor.
func (m *Machine) Type(query string) {
	if !m.open {
		m.open = true
	}
	m.query = query
	m.index = -1
	if query == "" {
		m.phase = PhaseIdle
	} else {
		m.phase = PhaseTyping
	}
	m.refilter()
}

func (m *Machine) refilter() {
	if m.query == "" {
		m.filtered = append([]Item(nil), m.items...)
	} else if m.cfg.Fuzzy {
		labels := make([]string, len(m.items))
		for i, it := range m.items {
			labels[i] = it.Label
		}
		matches := fuzzy.Find(m.query, labels)
		m.filtered = make([]Item, 0, len(matches))
		for _, match := range matches {
			m.filtered = append(m.filtered, m.items[match.Index])
		}
	} else {
		q := strings.ToLower(m.query)
		m.filtered = m.filtered[:0]
		for _, it := range m.items {
			if strings.Contains(strings.ToLower(it.Label), q) {
				m.filtered = append(m.filtered, it)
			}
		}
	}
	if m.index >= len(m.filtered) {
		m.index = len(m.filtered) - 1
	}
}

func (m *Machine) move(to int) {
	n := len(m.filtered)
	if n == 0 {
		m.index = -1
		return
	}
	switch {
	case to < 0 && m.cfg.Wrap:
		to = n - 1
	case to < 0:
		to = 0
	case to >= n && m.cfg.Wrap:
		to = 0
	case to >= n:
		to = n - 1
	}
	m.open = true
	m.index = to
	m.phase = PhaseNavigating
}

// Next moves the navigation cursor down
func (m *Machine) Next() { m.move(m.index + 1) }

// Previous moves the navigation cursor up. From no cursor it starts at the end.
func (m *Machine) Previous() {
	if m.index < 0 {
		m.move(len(m.filtered) - 1)
		return
	}
	m.move(m.index - 1)
}

// First moves the cursor to the first option
func (m *Machine) First() { m.move(0) }

// Last moves the cursor to the last option
func (m *Machine) Last() { m.move(len(m.filtered) - 1) }

// Hover places the cursor on i without entering typing mode
func (m *Machine) Hover(i int) {
	if i < 0 || i >= len(m.filtered) {
		return
	}
	m.index = i
	if m.phase == PhaseIdle {
		m.phase = PhaseNavigating
	}
}

// typedMatch reports whether label starts with the query, case-insensitively
func (m *Machine) typedMatch(label string) bool {
	return m.query != "" && strings.HasPrefix(strings.ToLower(label), strings.ToLower(m.query))
}

// HighlightOf returns the highlight of filtered option i
func (m *Machine) HighlightOf(i int) Highlight {
	if i < 0 || i >= len(m.filtered) {
		return HighlightNone
	}
	typed := m.typedMatch(m.filtered[i].Label)
	nav := i == m.index
	switch {
	case typed && nav:
		return HighlightBoth
	case nav:
		return HighlightNavigation
	case typed:
		return HighlightTyped
	default:
		return HighlightNone
	}
}

// TypedMatches returns the filtered indexes whose label starts with the query
func (m *Machine) TypedMatches() []int {
	var out []int
	for i, it := range m.filtered {
		if m.typedMatch(it.Label) {
			out = append(out, i)
		}
	}
	return out
}

// Resolve picks the option Enter would select:
// the navigation cursor, else a single prefix match, else a single filtered
// option, else the typed text when custom values are allowed.
func (m *Machine) Resolve() (Selection, bool) {
	if m.index >= 0 && m.index < len(m.filtered) {
		return Selection{Item: m.filtered[m.index]}, true
	}
	if typed := m.TypedMatches(); len(typed) == 1 {
		return Selection{Item: m.filtered[typed[0]]}, true
	}
	if len(m.filtered) == 1 {
		return Selection{Item: m.filtered[0]}, true
	}
	if m.cfg.AllowCustomValue && strings.TrimSpace(m.query) != "" {
		q := strings.TrimSpace(m.query)
		return Selection{Item: Item{Value: q, Label: q}, Custom: true}, true
	}
	return Selection{}, false
}

// Key applies a key (bubbletea KeyMsg.String() form) and reports what the
// owner should do next. sel is set when the action carries a selection.
func (m *Machine) Key(k string) (act Action, sel Selection, ok bool) {
	switch k {
	case "down":
		m.Next()
	case "up":
		m.Previous()
	case "home":
		m.First()
	case "end":
		m.Last()
	case "enter":
		if sel, ok = m.Resolve(); ok {
			m.Close()
			return ActionSelect, sel, true
		}
	case "esc":
		m.Close()
		return ActionClose, Selection{}, false
	case "tab", "shift+tab":
		reverse := k == "shift+tab"
		if m.cfg.EnableTabAsArrows && m.open {
			if reverse {
				m.Previous()
			} else {
				m.Next()
			}
			return ActionNone, Selection{}, false
		}
		if m.cfg.SelectOnTab && m.open {
			sel, ok = m.Resolve()
		}
		m.Close()
		if reverse {
			return ActionFocusPrevious, sel, ok
		}
		return ActionFocusNext, sel, ok
	}
	return ActionNone, Selection{}, false
}
