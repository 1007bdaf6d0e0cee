package focus

import (
	"context"
	"testing"
)

func TestGetVisibleSteps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "form")

	drug := field("drug", "form", 1)
	drug.Indicator = Indicator{Label: "Medication", ShowInSteps: true}
	dose := field("dose", "form", 2)
	dose.Indicator = Indicator{Label: "Dose", Icon: "💊", ShowInSteps: true}
	notes := field("notes", "form", 3)
	locked := field("review", "form", 4)
	locked.Indicator = Indicator{ShowInSteps: true}
	locked.Validators.CanReceiveFocus = refuse
	h.register(t, drug, dose, notes, locked)

	h.mgr.FocusField(ctx, "drug")
	h.mgr.FocusField(ctx, "dose")

	steps := h.mgr.GetVisibleSteps(ctx)
	if len(steps) != 3 {
		t.Fatalf("len(steps) = %d, want 3", len(steps))
	}

	tests := []struct {
		id                         string
		label                      string
		current, visited, enabled bool
	}{
		{"drug", "Medication", false, true, true},
		{"dose", "Dose", true, false, true},
		{"review", "review", false, false, false},
	}
	for i, tt := range tests {
		s := steps[i]
		if s.ID != tt.id || s.Label != tt.label || s.Index != i {
			t.Errorf("step %d = %+v, want id %q label %q", i, s, tt.id, tt.label)
		}
		if s.Current != tt.current || s.Visited != tt.visited || s.Enabled != tt.enabled {
			t.Errorf("step %q flags = current:%v visited:%v enabled:%v", s.ID, s.Current, s.Visited, s.Enabled)
		}
	}

	if h.mgr.JumpToStep(ctx, "review") {
		t.Error("JumpToStep(review) = true for a refusing element")
	}
	if !h.mgr.JumpToStep(ctx, "drug") {
		t.Error("JumpToStep(drug) = false")
	}
}
