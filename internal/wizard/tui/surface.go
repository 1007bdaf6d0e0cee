package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
)

// formSurface is where the focus manager places real focus. Only mounted
// elements accept it. Focus is placed from command goroutines, so every
// placement also wakes the update loop through changed.
type formSurface struct {
	mu      sync.Mutex
	mounted map[string]bool
	active  string
	changed chan struct{}
}

func newFormSurface() *formSurface {
	return &formSurface{
		mounted: make(map[string]bool),
		changed: make(chan struct{}, 1),
	}
}

// Mount marks ids as rendered
func (s *formSurface) Mount(ids ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.mounted[id] = true
	}
}

// Unmount removes ids; focus on a removed element falls to the root
func (s *formSurface) Unmount(ids ...string) {
	s.mu.Lock()
	lost := false
	for _, id := range ids {
		delete(s.mounted, id)
		if s.active == id {
			s.active = ""
			lost = true
		}
	}
	s.mu.Unlock()
	if lost {
		s.signal()
	}
}

// Mounted reports whether id is rendered
func (s *formSurface) Mounted(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted[id]
}

func (s *formSurface) Focus(id string) bool {
	s.mu.Lock()
	ok := s.mounted[id]
	if ok {
		s.active = id
	}
	s.mu.Unlock()
	if ok {
		s.signal()
	}
	return ok
}

func (s *formSurface) FocusRoot() {
	s.mu.Lock()
	s.active = ""
	s.mu.Unlock()
	s.signal()
}

func (s *formSurface) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *formSurface) signal() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// focusChangedMsg is sent after real focus moved
type focusChangedMsg struct{}

// waitForFocus returns a command that waits for the next placement
func waitForFocus(s *formSurface) tea.Cmd {
	return func() tea.Msg {
		<-s.changed
		return focusChangedMsg{}
	}
}
