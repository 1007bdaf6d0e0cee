// Package focus implements the focus manager of the medication-entry form.
//
// A Manager owns three pieces of state:
//
//   - Registry: metadata for every focusable element (scope, tab order,
//     validators, mouse policy, step indicator metadata)
//   - Store: the single source of truth for which element holds focus,
//     the modal stack and a bounded focus history
//   - ModeTracker: whether the user is driving the form by keyboard,
//     mouse, or both
//
// All writes go through the Manager. Navigation requests run the leave and
// receive validators in sequence, commit the new state, wait one frame and
// then place focus on the Surface. A newer request supersedes an older one
// still in flight.
//
// Example:
//
//	mgr := focus.New(focus.WithSurface(form))
//	_ = mgr.RegisterElement(focus.Element{ID: "dose", Scope: "form", TabOrder: 2})
//	if !mgr.FocusField(ctx, "dose") {
//	    // refused or not yet mounted
//	}
package focus
