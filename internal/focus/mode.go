package focus

import (
	"sync"
	"time"
)

// Mode classifies how the user is currently driving the form
type Mode string

const (
	ModeKeyboard Mode = "keyboard"
	ModeMouse    Mode = "mouse"
	ModeHybrid   Mode = "hybrid"
	ModeAuto     Mode = "auto"
)

// ParseMode converts a persisted string into a Mode, defaulting to auto
func ParseMode(s string) Mode {
	switch Mode(s) {
	case ModeKeyboard, ModeMouse, ModeHybrid, ModeAuto:
		return Mode(s)
	default:
		return ModeAuto
	}
}

// InteractionKind is the gesture that produced an interaction
type InteractionKind string

const (
	InteractionKey        InteractionKind = "key"
	InteractionClick      InteractionKind = "click"
	InteractionDirectJump InteractionKind = "direct-jump" // Ctrl/Cmd+Click
	InteractionHover      InteractionKind = "hover"
)

// isMouse reports whether the gesture came from the pointer
func (k InteractionKind) isMouse() bool {
	return k == InteractionClick || k == InteractionDirectJump || k == InteractionHover
}

// Interaction is one timestamped user gesture
type Interaction struct {
	Kind   InteractionKind `yaml:"kind" json:"kind"`
	Target string          `yaml:"target,omitempty" json:"target,omitempty"`
	Key    string          `yaml:"key,omitempty" json:"key,omitempty"`
	At     time.Time       `yaml:"at" json:"at"`
}

// MaxInteractionHistory bounds the tracker's interaction history
const MaxInteractionHistory = 10

// ModeSnapshot is the persisted form of the tracker
type ModeSnapshot struct {
	Mode    Mode          `yaml:"mode"`
	History []Interaction `yaml:"history,omitempty"`
}

// ModeStore persists the navigation mode between runs
type ModeStore interface {
	LoadMode() (ModeSnapshot, error)
	SaveMode(ModeSnapshot) error
}

// Modifiers carries the keyboard modifiers held during a click
type Modifiers struct {
	Ctrl  bool
	Meta  bool // Cmd on macOS
	Shift bool
	Alt   bool
}

// DirectJump reports whether a click with these modifiers is a direct-jump gesture
func (m Modifiers) DirectJump() bool {
	return m.Ctrl || m.Meta
}

// ModeTracker classifies ongoing interaction as keyboard, mouse, hybrid or auto
type ModeTracker struct {
	mu      sync.Mutex
	mode    Mode
	history []Interaction
	clock   Clock
	store   ModeStore
}

// NewModeTracker creates a tracker in auto mode
func NewModeTracker(clock Clock, store ModeStore) *ModeTracker {
	if clock == nil {
		clock = SystemClock{}
	}
	return &ModeTracker{
		mode:  ModeAuto,
		clock: clock,
		store: store,
	}
}

// Mode returns the current navigation mode
func (t *ModeTracker) Mode() Mode {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mode
}

// SetMode overrides the classification explicitly
func (t *ModeTracker) SetMode(m Mode) {
	t.mu.Lock()
	t.mode = m
	t.mu.Unlock()
	t.persist()
}

// Record appends an interaction and applies the transition rules:
// auto adopts the first gesture's kind, a keyboard gesture while in mouse
// mode (or the reverse) moves to hybrid, and hybrid is sticky.
func (t *ModeTracker) Record(kind InteractionKind, target, key string) Mode {
	t.mu.Lock()
	in := Interaction{Kind: kind, Target: target, Key: key, At: t.clock.Now()}
	t.history = append(t.history, in)
	if len(t.history) > MaxInteractionHistory {
		t.history = t.history[len(t.history)-MaxInteractionHistory:]
	}

	gesture := ModeKeyboard
	if kind.isMouse() {
		gesture = ModeMouse
	}

	prev := t.mode
	switch t.mode {
	case ModeAuto:
		t.mode = gesture
	case ModeKeyboard, ModeMouse:
		if t.mode != gesture {
			t.mode = ModeHybrid
		}
	}
	mode := t.mode
	t.mu.Unlock()

	// Only mode changes are written through; Save flushes history on demand.
	if mode != prev {
		t.persist()
	}
	return mode
}

// History returns a copy of the recent interactions, oldest first
func (t *ModeTracker) History() []Interaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Interaction, len(t.history))
	copy(out, t.history)
	return out
}

// MouseHistory returns only pointer interactions, oldest first
func (t *ModeTracker) MouseHistory() []Interaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Interaction, 0, len(t.history))
	for _, in := range t.history {
		if in.Kind.isMouse() {
			out = append(out, in)
		}
	}
	return out
}

// LastAction describes the most recent interaction for diagnostics
func (t *ModeTracker) LastAction() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.history) == 0 {
		return "none"
	}
	last := t.history[len(t.history)-1]
	switch {
	case last.Key != "":
		return string(last.Kind) + ":" + last.Key
	case last.Target != "":
		return string(last.Kind) + ":" + last.Target
	default:
		return string(last.Kind)
	}
}

// Snapshot returns the persistable state
func (t *ModeTracker) Snapshot() ModeSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	h := make([]Interaction, len(t.history))
	copy(h, t.history)
	return ModeSnapshot{Mode: t.mode, History: h}
}

// Restore loads state from the configured store, if any. A missing or
// unreadable store leaves the tracker in auto mode.
func (t *ModeTracker) Restore() error {
	if t.store == nil {
		return nil
	}
	snap, err := t.store.LoadMode()
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.mode = ParseMode(string(snap.Mode))
	t.history = snap.History
	if len(t.history) > MaxInteractionHistory {
		t.history = t.history[len(t.history)-MaxInteractionHistory:]
	}
	return nil
}

// Reset returns the tracker to auto mode with empty history
func (t *ModeTracker) Reset() {
	t.mu.Lock()
	t.mode = ModeAuto
	t.history = nil
	t.mu.Unlock()
}

// Save writes the current snapshot to the store
func (t *ModeTracker) Save() error {
	if t.store == nil {
		return nil
	}
	return t.store.SaveMode(t.Snapshot())
}

// persist writes the snapshot; persistence is best effort.
func (t *ModeTracker) persist() {
	_ = t.Save()
}
