package focus

import (
	"testing"
	"time"
)

func TestModeTransitions(t *testing.T) {
	tests := []struct {
		name  string
		start Mode
		kinds []InteractionKind
		want  Mode
	}{
		{"auto adopts keyboard", ModeAuto, []InteractionKind{InteractionKey}, ModeKeyboard},
		{"auto adopts mouse", ModeAuto, []InteractionKind{InteractionClick}, ModeMouse},
		{"keyboard then click is hybrid", ModeKeyboard, []InteractionKind{InteractionClick}, ModeHybrid},
		{"mouse then key is hybrid", ModeMouse, []InteractionKind{InteractionKey}, ModeHybrid},
		{"hybrid is sticky", ModeAuto, []InteractionKind{InteractionKey, InteractionHover, InteractionKey}, ModeHybrid},
		{"keyboard stays keyboard", ModeKeyboard, []InteractionKind{InteractionKey, InteractionKey}, ModeKeyboard},
		{"direct jump counts as mouse", ModeKeyboard, []InteractionKind{InteractionDirectJump}, ModeHybrid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewModeTracker(fixedClock{t: time.Unix(0, 0)}, nil)
			tr.SetMode(tt.start)
			for _, k := range tt.kinds {
				tr.Record(k, "", "")
			}
			if got := tr.Mode(); got != tt.want {
				t.Errorf("Mode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestModeHistoryBounded(t *testing.T) {
	tr := NewModeTracker(nil, nil)
	for i := 0; i < MaxInteractionHistory+5; i++ {
		tr.Record(InteractionKey, "", "tab")
	}
	tr.Record(InteractionClick, "dose", "")

	if got := len(tr.History()); got != MaxInteractionHistory {
		t.Errorf("len(History()) = %d, want %d", got, MaxInteractionHistory)
	}
	if got := len(tr.MouseHistory()); got != 1 {
		t.Errorf("len(MouseHistory()) = %d, want 1", got)
	}
	if got := tr.LastAction(); got != "click:dose" {
		t.Errorf("LastAction() = %q, want click:dose", got)
	}
}

func TestModePersistence(t *testing.T) {
	store := &memModeStore{}
	tr := NewModeTracker(nil, store)

	tr.Record(InteractionKey, "", "tab") // auto -> keyboard
	tr.Record(InteractionKey, "", "tab") // unchanged
	tr.Record(InteractionKey, "", "tab")
	if store.saves != 1 {
		t.Errorf("saves = %d, want 1 (only mode changes are written)", store.saves)
	}

	restored := NewModeTracker(nil, store)
	if err := restored.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	if restored.Mode() != ModeKeyboard {
		t.Errorf("restored Mode() = %v, want keyboard", restored.Mode())
	}

	if got := ParseMode("bogus"); got != ModeAuto {
		t.Errorf("ParseMode(bogus) = %v, want auto", got)
	}
}
