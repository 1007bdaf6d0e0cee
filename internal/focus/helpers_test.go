package focus

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeSurface is an in-memory form. Only mounted ids accept focus.
type fakeSurface struct {
	mu      sync.Mutex
	mounted map[string]bool
	active  string
	focuses []string
	roots   int
}

func newFakeSurface(ids ...string) *fakeSurface {
	s := &fakeSurface{mounted: make(map[string]bool)}
	for _, id := range ids {
		s.mounted[id] = true
	}
	return s
}

func (s *fakeSurface) mount(id string) {
	s.mu.Lock()
	s.mounted[id] = true
	s.mu.Unlock()
}

func (s *fakeSurface) Focus(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.focuses = append(s.focuses, id)
	if !s.mounted[id] {
		return false
	}
	s.active = id
	return true
}

func (s *fakeSurface) FocusRoot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.roots++
	s.active = ""
}

func (s *fakeSurface) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// memModeStore records every save
type memModeStore struct {
	mu    sync.Mutex
	snap  ModeSnapshot
	saves int
}

func (s *memModeStore) LoadMode() (ModeSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap, nil
}

func (s *memModeStore) SaveMode(snap ModeSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snap = snap
	s.saves++
	return nil
}

type harness struct {
	mgr     *Manager
	surface *fakeSurface
	sched   *ImmediateScheduler
}

// newHarness builds a manager over a fresh surface with every given id mounted
func newHarness(t *testing.T, base string, ids ...string) *harness {
	t.Helper()
	surface := newFakeSurface(ids...)
	sched := &ImmediateScheduler{}
	mgr := New(
		WithBaseScope(base),
		WithSurface(surface),
		WithScheduler(sched),
		WithClock(fixedClock{t: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}),
		WithLogger(zap.NewNop()),
	)
	return &harness{mgr: mgr, surface: surface, sched: sched}
}

func (h *harness) register(t *testing.T, els ...Element) {
	t.Helper()
	for _, el := range els {
		if err := h.mgr.RegisterElement(el); err != nil {
			t.Fatalf("RegisterElement(%q) error = %v", el.ID, err)
		}
		h.surface.mount(el.ID)
	}
}

func field(id, scope string, order int) Element {
	return Element{ID: id, Scope: scope, TabOrder: order, Type: TypeInput}
}

func refuse(context.Context) (bool, error) { return false, nil }
