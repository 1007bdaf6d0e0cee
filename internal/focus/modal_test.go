package focus

import (
	"context"
	"testing"
)

func formWithDialogs(t *testing.T) *harness {
	t.Helper()
	h := threeFields(t)
	h.register(t,
		field("confirm-ok", "confirm", 1),
		field("confirm-cancel", "confirm", 2),
		field("help-close", "help", 1),
	)
	return h
}

func TestModalTrapsFocus(t *testing.T) {
	ctx := context.Background()
	h := formWithDialogs(t)
	h.mgr.FocusField(ctx, "field2")

	if err := h.mgr.OpenModal(ctx, "confirm", ModalOptions{}); err != nil {
		t.Fatalf("OpenModal() error = %v", err)
	}
	if got := h.mgr.CurrentID(); got != "confirm-ok" {
		t.Errorf("current after open = %q, want confirm-ok", got)
	}

	res := h.mgr.TryFocus(ctx, "field1")
	if TypeOf(res.Err) != ErrTypeOutsideModal {
		t.Errorf("TryFocus outside modal err = %v", res.Err)
	}

	h.mgr.FocusNext(ctx)
	h.mgr.FocusNext(ctx)
	if got := h.mgr.CurrentID(); got != "confirm-ok" {
		t.Errorf("tab cycling escaped the modal: current = %q", got)
	}
	if err := ValidateInvariant(h.mgr.Snapshot(), h.mgr.Registry()); err != nil {
		t.Error(err)
	}
}

func TestModalLIFO(t *testing.T) {
	ctx := context.Background()
	h := formWithDialogs(t)
	h.mgr.FocusField(ctx, "field2")

	_ = h.mgr.OpenModal(ctx, "confirm", ModalOptions{})
	_ = h.mgr.OpenModal(ctx, "help", ModalOptions{})

	if err := h.mgr.OpenModal(ctx, "help", ModalOptions{}); TypeOf(err) != ErrTypeModalOpen {
		t.Errorf("reopening help err = %v, want modal open", err)
	}

	err := h.mgr.CloseModal(ctx, "confirm")
	if TypeOf(err) != ErrTypeModalOrder {
		t.Errorf("closing non-top err = %v, want modal order", err)
	}
	if h.mgr.ModalDepth() != 2 {
		t.Fatalf("depth = %d, want 2", h.mgr.ModalDepth())
	}

	if err := h.mgr.CloseModal(ctx, "help"); err != nil {
		t.Fatalf("CloseModal(help) error = %v", err)
	}
	if got := h.mgr.CurrentID(); got != "confirm-ok" {
		t.Errorf("after closing help current = %q, want confirm-ok", got)
	}

	if err := h.mgr.CloseModal(ctx, ""); err != nil {
		t.Fatalf("CloseModal(top) error = %v", err)
	}
	if got := h.mgr.CurrentID(); got != "field2" {
		t.Errorf("after closing confirm current = %q, want field2 (trigger)", got)
	}
	if got := h.surface.ActiveID(); got != "field2" {
		t.Errorf("surface active = %q, want field2", got)
	}

	st := h.mgr.Snapshot()
	if st.ActiveScope != "form" || len(st.ModalStack) != 0 {
		t.Errorf("state after closing all = %+v", st)
	}
	if sleeps := h.sched.Sleeps(); len(sleeps) != 2 || sleeps[0] != DefaultModalRestoreDelay {
		t.Errorf("restore delays = %v", sleeps)
	}
}

func TestModalRestoreID(t *testing.T) {
	ctx := context.Background()
	h := formWithDialogs(t)
	h.mgr.FocusField(ctx, "field1")

	_ = h.mgr.OpenModal(ctx, "confirm", ModalOptions{RestoreID: "field3"})
	_ = h.mgr.CloseModal(ctx, "confirm")

	if got := h.mgr.CurrentID(); got != "field3" {
		t.Errorf("current = %q, want field3", got)
	}
}

func TestModalRestoreTargetGone(t *testing.T) {
	ctx := context.Background()
	h := formWithDialogs(t)
	h.mgr.FocusField(ctx, "field2")
	_ = h.mgr.OpenModal(ctx, "confirm", ModalOptions{})
	h.mgr.UnregisterElement("field2")

	_ = h.mgr.CloseModal(ctx, "")
	if got := h.mgr.CurrentID(); got != "field1" {
		t.Errorf("current = %q, want field1 fallback", got)
	}
}

func TestHandleEscapeClosesOnlyTop(t *testing.T) {
	ctx := context.Background()
	h := formWithDialogs(t)
	h.mgr.FocusField(ctx, "field1")

	if h.mgr.HandleEscape(ctx) {
		t.Error("HandleEscape with no modal = true")
	}

	_ = h.mgr.OpenModal(ctx, "confirm", ModalOptions{})
	_ = h.mgr.OpenModal(ctx, "help", ModalOptions{})
	if !h.mgr.HandleEscape(ctx) {
		t.Fatal("HandleEscape() = false")
	}
	if h.mgr.ModalDepth() != 1 {
		t.Errorf("depth = %d, want 1", h.mgr.ModalDepth())
	}
}

func TestCloseWithoutModal(t *testing.T) {
	h := threeFields(t)
	if err := h.mgr.CloseModal(context.Background(), ""); TypeOf(err) != ErrTypeModalOrder {
		t.Errorf("CloseModal() err = %v, want modal order", err)
	}
}
