package focus

import "testing"

func ids(els []Element) []string {
	out := make([]string, len(els))
	for i, el := range els {
		out[i] = el.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegistryOrdering(t *testing.T) {
	reg := NewRegistry()
	for _, el := range []Element{
		field("notes", "form", 5),
		field("drug", "form", 1),
		field("dose", "form", 2),
		field("unit", "form", 2), // same tab order as dose, registered later
		field("ok", "dialog", 1),
	} {
		if err := reg.Register(el); err != nil {
			t.Fatalf("Register(%q) error = %v", el.ID, err)
		}
	}

	got := ids(reg.ElementsInScope("form"))
	want := []string{"drug", "dose", "unit", "notes"}
	if !equalIDs(got, want) {
		t.Errorf("ElementsInScope(form) = %v, want %v", got, want)
	}

	if reg.Len() != 5 {
		t.Errorf("Len() = %d, want 5", reg.Len())
	}
	if got := ids(reg.ElementsInScope("dialog")); len(got) != 1 {
		t.Errorf("ElementsInScope(dialog) = %v, want one element", got)
	}
}

func TestRegistryReplaceKeepsPosition(t *testing.T) {
	reg := NewRegistry()
	_ = reg.Register(field("a", "form", 1))
	_ = reg.Register(field("b", "form", 1))

	replaced := field("a", "form", 1)
	replaced.Disabled = true
	if err := reg.Register(replaced); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if got := ids(reg.ElementsInScope("form")); !equalIDs(got, []string{"a", "b"}) {
		t.Errorf("order after replace = %v, want [a b]", got)
	}
	if got := ids(reg.FocusableInScope("form")); !equalIDs(got, []string{"b"}) {
		t.Errorf("FocusableInScope() = %v, want [b]", got)
	}
}

func TestRegistryValidation(t *testing.T) {
	reg := NewRegistry()
	err := reg.Register(Element{Scope: "form"})
	if TypeOf(err) != ErrTypeValidation {
		t.Errorf("Register(empty id) error = %v, want validation error", err)
	}

	_ = reg.Register(Element{ID: "x"})
	el, _ := reg.Get("x")
	if el.Type != TypeCustom {
		t.Errorf("default Type = %q, want custom", el.Type)
	}

	if !reg.Unregister("x") {
		t.Error("Unregister(x) = false, want true")
	}
	if reg.Unregister("x") {
		t.Error("second Unregister(x) = true, want false")
	}
}
