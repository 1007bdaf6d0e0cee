package focus

import (
	"fmt"
	"sync"
	"time"
)

// DefaultScope is the scope used for elements registered without one
const DefaultScope = "default"

// DefaultHistoryLimit bounds the focus history kept for back-navigation
const DefaultHistoryLimit = 50

// ModalEntry is one open dialog on the modal stack
type ModalEntry struct {
	Scope     string    // Scope the dialog's elements are registered in
	Parent    string    // Active scope when the dialog opened
	TriggerID string    // Element focused when the dialog opened
	RestoreID string    // Explicit restoration target, overrides TriggerID
	OpenedAt  time.Time // When the dialog opened
}

// restoreTarget returns where focus goes after the dialog closes
func (e ModalEntry) restoreTarget() string {
	if e.RestoreID != "" {
		return e.RestoreID
	}
	return e.TriggerID
}

// State is the single source of truth for focus
type State struct {
	CurrentID    string
	ActiveScope  string
	BaseScope    string
	ModalStack   []ModalEntry
	History      []string
	Mode         Mode
	MouseHistory []Interaction
	Enabled      bool
}

// TopModal returns the topmost modal entry, if any
func (s State) TopModal() (ModalEntry, bool) {
	if len(s.ModalStack) == 0 {
		return ModalEntry{}, false
	}
	return s.ModalStack[len(s.ModalStack)-1], true
}

// ScopeAllowed reports whether scope is the active scope or one of its
// ancestors (the scopes beneath it on the modal stack, then the base scope).
func (s State) ScopeAllowed(scope string) bool {
	if scope == s.ActiveScope || scope == s.BaseScope {
		return true
	}
	for _, m := range s.ModalStack {
		if m.Scope == scope {
			return true
		}
	}
	return false
}

// clone returns a deep copy
func (s State) clone() State {
	out := s
	out.ModalStack = append([]ModalEntry(nil), s.ModalStack...)
	out.History = append([]string(nil), s.History...)
	out.MouseHistory = append([]Interaction(nil), s.MouseHistory...)
	return out
}

// Listener receives the committed state after every change
type Listener func(State)

// Store holds State and notifies subscribers. Writes go through the
// unexported update method, reachable only from the Manager.
type Store struct {
	mu           sync.Mutex
	state        State
	listeners    map[int]Listener
	nextListener int
	historyLimit int
}

// NewStore creates a store rooted at baseScope
func NewStore(baseScope string, historyLimit int) *Store {
	if baseScope == "" {
		baseScope = DefaultScope
	}
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}
	return &Store{
		state: State{
			ActiveScope: baseScope,
			BaseScope:   baseScope,
			Mode:        ModeAuto,
			Enabled:     true,
		},
		listeners:    make(map[int]Listener),
		historyLimit: historyLimit,
	}
}

// Snapshot returns a deep copy of the current state
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// Subscribe registers fn and returns a function that removes it
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextListener
	s.nextListener++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// update applies fn and synchronously notifies listeners with the
// committed copy.
func (s *Store) update(fn func(*State)) State {
	committed := s.mutate(fn)
	s.notify(committed)
	return committed
}

// mutate applies fn without notifying. Callers that serialize commits under
// their own lock call notify after releasing it, so listeners may re-enter.
func (s *Store) mutate(fn func(*State)) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	return s.state.clone()
}

// notify delivers committed to every listener outside the store lock
func (s *Store) notify(committed State) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(committed)
	}
}

// pushHistory appends id to the bounded history, skipping repeats
func (s *Store) pushHistory(st *State, id string) {
	if id == "" {
		return
	}
	if n := len(st.History); n > 0 && st.History[n-1] == id {
		return
	}
	st.History = append(st.History, id)
	if len(st.History) > s.historyLimit {
		st.History = st.History[len(st.History)-s.historyLimit:]
	}
}

// ValidateInvariant checks that CurrentID, if set, is registered and lives
// in the active scope or an ancestor of it.
func ValidateInvariant(st State, reg *Registry) error {
	if st.CurrentID == "" {
		return nil
	}
	el, ok := reg.Get(st.CurrentID)
	if !ok {
		return fmt.Errorf("current focus %q is not registered", st.CurrentID)
	}
	if !st.ScopeAllowed(el.Scope) {
		return fmt.Errorf("current focus %q is in scope %q, outside active scope %q", st.CurrentID, el.Scope, st.ActiveScope)
	}
	return nil
}
