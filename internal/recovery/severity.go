package recovery

import (
	"fmt"
	"strings"
	"unicode"
)

// Severity ranks how badly a caught error affects the form
type Severity int

const (
	SeverityLow Severity = iota
	SeverityMedium
	SeverityHigh
	SeverityCritical
)

// String returns the lower-case name used in logs
func (s Severity) String() string {
	switch s {
	case SeverityLow:
		return "low"
	case SeverityMedium:
		return "medium"
	case SeverityHigh:
		return "high"
	case SeverityCritical:
		return "critical"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Strategy is a recovery action
type Strategy int

const (
	StrategyFocusFirst Strategy = iota
	StrategyResetFocus
	StrategyRestorePrevious
	StrategyClearModals
	StrategyReinitialize
)

// String returns the strategy name used in logs and attempt history
func (s Strategy) String() string {
	switch s {
	case StrategyFocusFirst:
		return "focus-first"
	case StrategyResetFocus:
		return "reset-focus"
	case StrategyRestorePrevious:
		return "restore-previous"
	case StrategyClearModals:
		return "clear-modals"
	case StrategyReinitialize:
		return "reinitialize"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

var (
	criticalMarkers = []string{
		"stack overflow",
		"maximum call stack",
		"stack exceeds",
		"out of memory",
		"syntaxerror",
		"syntax error",
		"referenceerror",
		"reference error",
	}
	highMarkers = []string{
		"cannot read",
		"cannot access",
		"undefined is not",
		"nil pointer dereference",
		"invalid memory address",
		"index out of range",
	}
	mediumMarkers = []string{
		"focus",
		"element",
		"dom",
	}
	modalMarkers   = []string{"modal", "dialog"}
	missingMarkers = []string{"null", "undefined", "nil"}
)

// containsAny reports whether s contains one of markers. Phrases match as
// substrings; single words match whole words only, with an optional
// "s", "ed" or "ing" suffix, so "dom" does not match "random".
func containsAny(s string, markers []string) bool {
	var words []string
	for _, m := range markers {
		if strings.ContainsRune(m, ' ') {
			if strings.Contains(s, m) {
				return true
			}
			continue
		}
		if words == nil {
			words = strings.FieldsFunc(s, func(r rune) bool {
				return !unicode.IsLetter(r) && !unicode.IsDigit(r)
			})
		}
		for _, w := range words {
			if matchesWord(w, m) {
				return true
			}
		}
	}
	return false
}

func matchesWord(w, marker string) bool {
	rest, ok := strings.CutPrefix(w, marker)
	if !ok {
		return false
	}
	switch rest {
	case "", "s", "ed", "ing":
		return true
	}
	return false
}

// ClassifySeverity inspects the error text. Stack exhaustion, memory and
// syntax/reference errors are critical; nil access is high; anything
// mentioning focus or elements is medium; the rest is low.
func ClassifySeverity(err error) Severity {
	if err == nil {
		return SeverityLow
	}
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, criticalMarkers):
		return SeverityCritical
	case containsAny(msg, highMarkers):
		return SeverityHigh
	case containsAny(msg, mediumMarkers):
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// SelectStrategy picks the first matching rule:
//
//	modal or dialog in the message   -> clear modals
//	null, undefined or nil           -> reset focus
//	critical, or stack exhaustion    -> reinitialize
//	low severity with a good state   -> restore previous
//	otherwise                        -> focus first
func SelectStrategy(err error, sev Severity, haveGoodState bool) Strategy {
	msg := ""
	if err != nil {
		msg = strings.ToLower(err.Error())
	}

	switch {
	case containsAny(msg, modalMarkers):
		return StrategyClearModals
	case containsAny(msg, missingMarkers):
		return StrategyResetFocus
	case sev == SeverityCritical || strings.Contains(msg, "maximum call stack"):
		return StrategyReinitialize
	case haveGoodState && sev == SeverityLow:
		return StrategyRestorePrevious
	default:
		return StrategyFocusFirst
	}
}

// Hint returns user-facing advice for a severity
func Hint(sev Severity) string {
	switch sev {
	case SeverityCritical:
		return strings.Join([]string{
			"The form hit an unrecoverable error.",
			"What you can do:",
			"  • Reload the form; entered values may be lost",
			"  • Export diagnostics and report the problem",
		}, "\n")
	case SeverityHigh:
		return strings.Join([]string{
			"Part of the form stopped responding.",
			"What you can do:",
			"  • Try again to reset keyboard focus",
			"  • Reload the form if the problem repeats",
		}, "\n")
	case SeverityMedium:
		return "Keyboard focus was lost. Press Enter to return to the first field."
	default:
		return "A minor problem occurred and was handled."
	}
}
