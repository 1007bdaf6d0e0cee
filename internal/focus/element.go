package focus

import "context"

// ElementType is the kind of form control an element represents
type ElementType string

const (
	TypeInput    ElementType = "input"
	TypeButton   ElementType = "button"
	TypeSelect   ElementType = "select"
	TypeTextarea ElementType = "textarea"
	TypeCheckbox ElementType = "checkbox"
	TypeDate     ElementType = "date"
	TypeCustom   ElementType = "custom"
)

// ClickBehavior describes what happens to focus after an element is clicked
type ClickBehavior string

const (
	ClickNone     ClickBehavior = "none"     // Focus stays on the clicked element
	ClickNext     ClickBehavior = "next"     // Focus advances to the next element in tab order
	ClickSpecific ClickBehavior = "specific" // Focus moves to MousePolicy.TargetID
)

// Validator decides whether a focus transition may happen. A validator may
// block (for example on a lookup); returning an error is treated as a refusal.
type Validator func(ctx context.Context) (bool, error)

// Validators is the optional capability set an element may supply.
// A nil field means "always allowed".
type Validators struct {
	CanReceiveFocus Validator
	CanLeaveFocus   Validator
}

// MousePolicy describes how mouse clicks on the element drive navigation
type MousePolicy struct {
	ClickAdvances   ClickBehavior
	TargetID        string // Used when ClickAdvances is ClickSpecific
	AllowDirectJump bool   // Ctrl/Cmd+Click may jump here
}

// Indicator is the visual metadata used by step indicators
type Indicator struct {
	Label       string
	Icon        string
	ShowInSteps bool
}

// Element describes one focusable UI node.
type Element struct {
	ID       string
	Scope    string
	TabOrder int
	Type     ElementType

	// Disabled elements stay registered but are never chosen by navigation.
	Disabled bool

	Validators Validators
	Mouse      MousePolicy
	Indicator  Indicator
}

// Focusable reports whether navigation may select the element at all.
func (e Element) Focusable() bool {
	return !e.Disabled
}

// label returns the indicator label, falling back to the id
func (e Element) label() string {
	if e.Indicator.Label != "" {
		return e.Indicator.Label
	}
	return e.ID
}

// runValidator normalizes a validator call: nil passes, an error or a
// canceled context refuses.
func runValidator(ctx context.Context, v Validator) (bool, error) {
	if v == nil {
		return true, nil
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	ok, err := v(ctx)
	if err != nil {
		return false, err
	}
	return ok, nil
}
