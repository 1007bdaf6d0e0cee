package recovery

import "fmt"

// FallbackAction is an action offered by the fallback view
type FallbackAction int

const (
	ActionTryAgain FallbackAction = iota
	ActionReload
	ActionDismiss
)

func (a FallbackAction) String() string {
	switch a {
	case ActionTryAgain:
		return "Try again"
	case ActionReload:
		return "Reload form"
	case ActionDismiss:
		return "Dismiss"
	default:
		return fmt.Sprintf("action(%d)", int(a))
	}
}

// FallbackView is the accessible alert shown for a caught error. It is
// rendered without the focus manager and is operated with plain keys.
type FallbackView struct {
	Title     string
	Message   string
	Hint      string
	Details   string // technical details, collapsed by default
	Severity  Severity
	Terminal  bool
	Recovered bool // focus was already restored; the alert only reports
	Actions   []FallbackAction
}

// Fallback describes what to show for the current phase. ok is false
// while the boundary is healthy and no caught error awaits dismissal.
func (b *Boundary) Fallback() (view FallbackView, ok bool) {
	phase := b.Phase()
	if phase == PhaseHealthy {
		b.mu.Lock()
		pending := b.notice
		b.mu.Unlock()
		if !pending {
			return FallbackView{}, false
		}
	}
	ec, have := b.LastError()
	if !have {
		return FallbackView{}, false
	}

	view = FallbackView{
		Severity: ec.Severity,
		Message:  ec.Err.Error(),
		Hint:     Hint(ec.Severity),
		Details: fmt.Sprintf("component: %s\nseverity: %s\nattempt: %d of %d\nlast action: %s\nfocused: %q\nat: %s",
			ec.Component, ec.Severity, ec.Attempt, b.opts.MaxAttempts, ec.LastAction,
			ec.Snapshot.CurrentID, ec.Timestamp.Format("15:04:05.000")),
	}
	if ec.Stack != "" {
		view.Details += "\n\n" + ec.Stack
	}

	switch phase {
	case PhaseRecoveryFailed:
		view.Title = "Form needs to be reloaded"
		view.Terminal = true
		view.Actions = []FallbackAction{ActionReload, ActionTryAgain}
	case PhaseRecovering:
		view.Title = "Restoring the form…"
	case PhaseHealthy:
		view.Title = title(ec.Severity) + " (recovered)"
		view.Hint = "Focus was restored automatically. Press Enter to continue."
		view.Recovered = true
		view.Actions = []FallbackAction{ActionDismiss, ActionReload}
	default:
		view.Title = title(ec.Severity)
		view.Actions = []FallbackAction{ActionTryAgain, ActionReload, ActionDismiss}
	}
	return view, true
}

func title(sev Severity) string {
	switch sev {
	case SeverityCritical:
		return "Critical error"
	case SeverityHigh:
		return "Something went wrong"
	case SeverityMedium:
		return "Focus was lost"
	default:
		return "Minor problem"
	}
}
