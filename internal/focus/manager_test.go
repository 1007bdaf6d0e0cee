package focus

import (
	"context"
	"errors"
	"testing"
	"time"
)

func threeFields(t *testing.T) *harness {
	t.Helper()
	h := newHarness(t, "form")
	h.register(t, field("field1", "form", 1), field("field2", "form", 2), field("field3", "form", 3))
	return h
}

// TestEndToEndScenario walks the canonical form: focus, tab, wrap, refusal.
func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	h := threeFields(t)

	if !h.mgr.FocusField(ctx, "field1") {
		t.Fatal("FocusField(field1) = false")
	}
	if h.surface.ActiveID() != "field1" {
		t.Errorf("surface active = %q, want field1", h.surface.ActiveID())
	}

	h.mgr.FocusNext(ctx)
	if got := h.mgr.CurrentID(); got != "field2" {
		t.Fatalf("after FocusNext current = %q, want field2", got)
	}
	h.mgr.FocusNext(ctx)
	h.mgr.FocusNext(ctx)
	if got := h.mgr.CurrentID(); got != "field1" {
		t.Fatalf("after wrap current = %q, want field1", got)
	}

	blocked := field("field2", "form", 2)
	blocked.Validators.CanReceiveFocus = refuse
	h.register(t, blocked)

	before := h.mgr.Snapshot()
	if h.mgr.FocusField(ctx, "field2") {
		t.Error("FocusField(field2) = true with refusing validator")
	}
	after := h.mgr.Snapshot()
	if after.CurrentID != before.CurrentID || len(after.History) != len(before.History) {
		t.Errorf("state changed on refusal: before=%+v after=%+v", before, after)
	}

	if h.sched.Frames() == 0 {
		t.Error("placement did not wait for a frame")
	}
}

func TestFocusNextPreviousSymmetry(t *testing.T) {
	ctx := context.Background()
	h := threeFields(t)

	for _, start := range []string{"field1", "field2", "field3"} {
		h.mgr.FocusField(ctx, start)
		h.mgr.FocusNext(ctx)
		h.mgr.FocusPrevious(ctx)
		if got := h.mgr.CurrentID(); got != start {
			t.Errorf("next then previous from %q landed on %q", start, got)
		}
	}
}

func TestFocusNextWithoutCurrent(t *testing.T) {
	ctx := context.Background()

	h := threeFields(t)
	h.mgr.FocusNext(ctx)
	if got := h.mgr.CurrentID(); got != "field1" {
		t.Errorf("FocusNext from nothing = %q, want field1", got)
	}

	h = threeFields(t)
	h.mgr.FocusPrevious(ctx)
	if got := h.mgr.CurrentID(); got != "field3" {
		t.Errorf("FocusPrevious from nothing = %q, want field3", got)
	}
}

func TestSkipDisabled(t *testing.T) {
	ctx := context.Background()
	h := threeFields(t)
	disabled := field("field2", "form", 2)
	disabled.Disabled = true
	h.register(t, disabled)

	h.mgr.FocusField(ctx, "field1")
	h.mgr.FocusNext(ctx)
	if got := h.mgr.CurrentID(); got != "field3" {
		t.Errorf("FocusNext skipped to %q, want field3", got)
	}
	h.mgr.FocusPrevious(ctx)
	if got := h.mgr.CurrentID(); got != "field1" {
		t.Errorf("FocusPrevious skipped to %q, want field1", got)
	}

	res := h.mgr.TryFocus(ctx, "field2")
	if TypeOf(res.Err) != ErrTypeNotFocusable {
		t.Errorf("TryFocus(disabled) err = %v, want not focusable", res.Err)
	}
}

func TestSingleElementAndEmptyScope(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "form")

	if h.mgr.FocusNext(ctx) {
		t.Error("FocusNext on empty scope = true")
	}
	if h.mgr.CurrentID() != "" {
		t.Error("empty scope changed focus")
	}

	h.register(t, field("only", "form", 1))
	h.mgr.FocusField(ctx, "only")
	if !h.mgr.FocusNext(ctx) || h.mgr.CurrentID() != "only" {
		t.Errorf("single element did not wrap to itself, current = %q", h.mgr.CurrentID())
	}
}

func TestValidatorGating(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("lookup failed")

	tests := []struct {
		name    string
		leave   Validator
		receive Validator
		want    ErrorType
	}{
		{"leave refused", refuse, nil, ErrTypeLeaveRefused},
		{"receive refused", nil, refuse, ErrTypeReceiveRefused},
		{"receive error is refusal", nil, func(context.Context) (bool, error) { return true, boom }, ErrTypeReceiveRefused},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "form")
			a := field("a", "form", 1)
			a.Validators.CanLeaveFocus = tt.leave
			b := field("b", "form", 2)
			b.Validators.CanReceiveFocus = tt.receive
			h.register(t, a, b)
			h.mgr.FocusField(ctx, "a")

			res := h.mgr.TryFocus(ctx, "b")
			if res.Focused || res.Committed {
				t.Errorf("TryFocus(b) = %+v, want refusal", res)
			}
			if TypeOf(res.Err) != tt.want {
				t.Errorf("TryFocus(b) err type = %v, want %v", TypeOf(res.Err), tt.want)
			}
			if !IsRefusal(res.Err) {
				t.Errorf("IsRefusal(%v) = false", res.Err)
			}
			if h.mgr.CurrentID() != "a" {
				t.Errorf("current = %q, want a", h.mgr.CurrentID())
			}
			if h.mgr.CanJumpToNode(ctx, "b") {
				t.Error("CanJumpToNode(b) = true")
			}
		})
	}
}

func TestValidatorOrder(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "form")

	var calls []string
	a := field("a", "form", 1)
	a.Validators.CanLeaveFocus = func(context.Context) (bool, error) {
		calls = append(calls, "leave:a")
		return true, nil
	}
	b := field("b", "form", 2)
	b.Validators.CanReceiveFocus = func(context.Context) (bool, error) {
		calls = append(calls, "receive:b")
		return true, nil
	}
	h.register(t, a, b)
	h.mgr.FocusField(ctx, "a")
	calls = nil

	h.mgr.FocusField(ctx, "b")
	if !equalIDs(calls, []string{"leave:a", "receive:b"}) {
		t.Errorf("validator calls = %v", calls)
	}
}

func TestCanJumpToNodeIsReadOnly(t *testing.T) {
	ctx := context.Background()
	h := threeFields(t)
	h.mgr.FocusField(ctx, "field1")
	before := h.mgr.Snapshot()

	if !h.mgr.CanJumpToNode(ctx, "field3") {
		t.Error("CanJumpToNode(field3) = false")
	}
	if h.mgr.CanJumpToNode(ctx, "missing") {
		t.Error("CanJumpToNode(missing) = true")
	}
	if h.mgr.CurrentID() != before.CurrentID || len(h.mgr.Snapshot().History) != len(before.History) {
		t.Error("CanJumpToNode changed state")
	}
}

func TestHistoryBounded(t *testing.T) {
	ctx := context.Background()
	surface := newFakeSurface("a", "b")
	mgr := New(WithBaseScope("form"), WithSurface(surface), WithScheduler(&ImmediateScheduler{}), WithHistoryLimit(3))
	_ = mgr.RegisterElement(field("a", "form", 1))
	_ = mgr.RegisterElement(field("b", "form", 2))

	for i := 0; i < 10; i++ {
		mgr.FocusNext(ctx)
	}
	if got := len(mgr.Snapshot().History); got != 3 {
		t.Errorf("len(History) = %d, want 3", got)
	}
}

func TestPlacementRefused(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "form")
	// registered but never mounted on the surface
	if err := h.mgr.RegisterElement(field("ghost", "form", 1)); err != nil {
		t.Fatal(err)
	}

	res := h.mgr.TryFocus(ctx, "ghost")
	if !res.Committed || res.Focused {
		t.Errorf("TryFocus(ghost) = %+v, want committed but not focused", res)
	}
	if TypeOf(res.Err) != ErrTypePlacement {
		t.Errorf("err type = %v, want placement", TypeOf(res.Err))
	}
}

func TestLastRequestWins(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "form")

	entered := make(chan struct{})
	release := make(chan struct{})
	slow := field("slow", "form", 1)
	slow.Validators.CanReceiveFocus = func(context.Context) (bool, error) {
		close(entered)
		<-release
		return true, nil
	}
	h.register(t, slow, field("fast", "form", 2))

	done := make(chan Result, 1)
	go func() { done <- h.mgr.TryFocus(ctx, "slow") }()

	<-entered
	if !h.mgr.FocusField(ctx, "fast") {
		t.Fatal("FocusField(fast) = false")
	}
	close(release)

	select {
	case res := <-done:
		if TypeOf(res.Err) != ErrTypeSuperseded {
			t.Errorf("slow request err = %v, want superseded", res.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("slow request did not return")
	}

	if got := h.mgr.CurrentID(); got != "fast" {
		t.Errorf("current = %q, want fast", got)
	}
	if got := h.surface.ActiveID(); got != "fast" {
		t.Errorf("surface active = %q, want fast", got)
	}
}

func TestUnregisterDuringValidation(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "form")

	entered := make(chan struct{})
	release := make(chan struct{})
	target := field("field2", "form", 2)
	target.Validators.CanReceiveFocus = func(context.Context) (bool, error) {
		close(entered)
		<-release
		return true, nil
	}
	h.register(t, field("field1", "form", 1), target)
	if !h.mgr.FocusField(ctx, "field1") {
		t.Fatal("FocusField(field1) = false")
	}

	done := make(chan Result, 1)
	go func() { done <- h.mgr.TryFocus(ctx, "field2") }()

	<-entered
	if !h.mgr.UnregisterElement("field2") {
		t.Fatal("UnregisterElement(field2) = false")
	}
	close(release)

	select {
	case res := <-done:
		if res.Committed || res.Focused {
			t.Errorf("result = %+v, want neither committed nor focused", res)
		}
		if TypeOf(res.Err) != ErrTypeNotRegistered {
			t.Errorf("err = %v, want not registered", res.Err)
		}
	case <-time.After(time.Second):
		t.Fatal("request did not return")
	}

	if got := h.mgr.CurrentID(); got != "field1" {
		t.Errorf("current = %q, want field1", got)
	}
	if err := ValidateInvariant(h.mgr.Snapshot(), h.mgr.Registry()); err != nil {
		t.Errorf("ValidateInvariant() = %v", err)
	}
}

func TestPendingRegistrationResolves(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "form")

	res := h.mgr.TryFocus(ctx, "late")
	if !IsRegistryInconsistency(res.Err) {
		t.Fatalf("TryFocus(late) err = %v, want not registered", res.Err)
	}

	focused := make(chan struct{})
	unsubscribe := h.mgr.Subscribe(func(st State) {
		if st.CurrentID == "late" {
			select {
			case <-focused:
			default:
				close(focused)
			}
		}
	})
	defer unsubscribe()

	h.register(t, field("late", "form", 1))

	select {
	case <-focused:
	case <-time.After(time.Second):
		t.Fatal("pending focus was not resolved after registration")
	}
}

func TestPendingRegistrationSuperseded(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "form")
	h.register(t, field("a", "form", 1))

	h.mgr.FocusField(ctx, "late")
	h.mgr.FocusField(ctx, "a")
	h.register(t, field("late", "form", 2))

	if got := h.mgr.CurrentID(); got != "a" {
		t.Errorf("current = %q, want a (stale pending request must not win)", got)
	}
}

func TestUnregisterCurrentFallsBack(t *testing.T) {
	ctx := context.Background()
	h := threeFields(t)
	h.mgr.FocusField(ctx, "field2")

	h.mgr.UnregisterElement("field2")
	if got := h.mgr.CurrentID(); got != "field1" {
		t.Errorf("current after unregister = %q, want field1", got)
	}
	if err := ValidateInvariant(h.mgr.Snapshot(), h.mgr.Registry()); err != nil {
		t.Errorf("invariant broken: %v", err)
	}

	h.mgr.UnregisterElement("field1")
	h.mgr.UnregisterElement("field3")
	if got := h.mgr.CurrentID(); got != "" {
		t.Errorf("current with empty scope = %q, want none", got)
	}
	if h.surface.ActiveID() != "" {
		t.Error("surface did not fall back to root")
	}
}

func TestSetEnabled(t *testing.T) {
	ctx := context.Background()
	h := threeFields(t)
	h.mgr.SetEnabled(false)

	res := h.mgr.TryFocus(ctx, "field1")
	if TypeOf(res.Err) != ErrTypeDisabled {
		t.Errorf("TryFocus while disabled err = %v", res.Err)
	}

	h.mgr.SetEnabled(true)
	if !h.mgr.FocusField(ctx, "field1") {
		t.Error("FocusField after re-enable = false")
	}
}

func TestSubscribeNotifiesSynchronously(t *testing.T) {
	ctx := context.Background()
	h := threeFields(t)

	var seen []string
	unsubscribe := h.mgr.Subscribe(func(st State) { seen = append(seen, st.CurrentID) })
	h.mgr.FocusField(ctx, "field3")
	unsubscribe()
	h.mgr.FocusField(ctx, "field1")

	if len(seen) != 1 || seen[0] != "field3" {
		t.Errorf("notifications = %v, want [field3]", seen)
	}
}
