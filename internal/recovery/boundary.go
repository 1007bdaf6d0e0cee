package recovery

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/medentry/internal/focus"
	"github.com/muurk/medentry/internal/logging"
)

// Defaults for Options
const (
	DefaultMaxAttempts  = 3
	DefaultStableWindow = 30 * time.Second
)

// Phase is the boundary's lifecycle state
type Phase int

const (
	PhaseHealthy Phase = iota
	PhaseErrorCaught
	PhaseRecovering
	PhaseRecoveryFailed
)

func (p Phase) String() string {
	switch p {
	case PhaseHealthy:
		return "healthy"
	case PhaseErrorCaught:
		return "error-caught"
	case PhaseRecovering:
		return "recovering"
	case PhaseRecoveryFailed:
		return "recovery-failed"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// ErrorContext describes one caught error
type ErrorContext struct {
	Timestamp  time.Time
	Severity   Severity
	Component  string
	Snapshot   focus.State
	LastAction string
	Attempt    int
	Err        error
	Stack      string
}

// PanicError wraps a value recovered from a panic
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

func (e *PanicError) Unwrap() error {
	err, _ := e.Value.(error)
	return err
}

// Options configures a Boundary
type Options struct {
	MaxAttempts  int
	StableWindow time.Duration
	Now          func() time.Time
	Logger       *zap.Logger
	// Reload rebuilds the protected view from scratch
	Reload func()
	// OnPhase is called after every phase change
	OnPhase func(Phase)
}

// Boundary catches errors from a protected view and drives recovery.
// After MaxAttempts failed attempts within a streak it enters the terminal
// recovery-failed phase, which only ManualReset or Reload leave.
type Boundary struct {
	svc        *Service
	snapshot   func() focus.State
	lastAction func() string
	opts       Options
	log        *zap.Logger

	mu          sync.Mutex
	phase       Phase
	attempts    int
	lastErr     *ErrorContext
	lastErrorAt time.Time
	notice      bool // a caught error the user has not dismissed yet
}

// NewBoundary creates a boundary. snapshot and lastAction supply the
// diagnostic context captured with each error; either may be nil.
func NewBoundary(svc *Service, snapshot func() focus.State, lastAction func() string, opts Options) *Boundary {
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = DefaultMaxAttempts
	}
	if opts.StableWindow <= 0 {
		opts.StableWindow = DefaultStableWindow
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = logging.GetLogger()
	}
	if snapshot == nil {
		snapshot = func() focus.State { return focus.State{} }
	}
	if lastAction == nil {
		lastAction = func() string { return "none" }
	}
	return &Boundary{
		svc:        svc,
		snapshot:   snapshot,
		lastAction: lastAction,
		opts:       opts,
		log:        opts.Logger.Named("boundary"),
	}
}

// Phase returns the current phase
func (b *Boundary) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Attempts returns the number of recovery attempts in the current streak
func (b *Boundary) Attempts() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.attempts
}

// LastError returns the most recently caught error
func (b *Boundary) LastError() (ErrorContext, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.lastErr == nil {
		return ErrorContext{}, false
	}
	return *b.lastErr, true
}

func (b *Boundary) setPhase(p Phase) {
	b.mu.Lock()
	changed := b.phase != p
	b.phase = p
	b.mu.Unlock()
	if changed && b.opts.OnPhase != nil {
		b.opts.OnPhase(p)
	}
}

// Guard runs fn, converting a panic or returned error into Catch. While
// the boundary is healthy a clean run refreshes the restore point.
func (b *Boundary) Guard(ctx context.Context, component string, fn func() error) (err error) {
	if b.Phase() == PhaseRecoveryFailed {
		return fmt.Errorf("%s: recovery failed, manual reset required", component)
	}

	var stack string
	defer func() {
		if r := recover(); r != nil {
			stack = string(debug.Stack())
			err = &PanicError{Value: r}
		}
		if err != nil {
			b.catch(ctx, component, err, stack)
			return
		}
		if b.Phase() == PhaseHealthy {
			b.svc.CaptureGoodState()
		}
	}()

	return fn()
}

// Catch reports an error that happened outside Guard
func (b *Boundary) Catch(ctx context.Context, component string, err error) Phase {
	if err == nil {
		return b.Phase()
	}
	b.catch(ctx, component, err, "")
	return b.Phase()
}

func (b *Boundary) catch(ctx context.Context, component string, err error, stack string) {
	now := b.opts.Now()

	b.mu.Lock()
	if b.phase == PhaseRecoveryFailed {
		b.mu.Unlock()
		b.log.Warn("error after recovery failed", zap.String("component", component), zap.Error(err))
		return
	}
	if !b.lastErrorAt.IsZero() && now.Sub(b.lastErrorAt) >= b.opts.StableWindow {
		b.attempts = 0
	}
	b.lastErrorAt = now
	b.notice = true
	b.mu.Unlock()

	sev := ClassifySeverity(err)
	ec := ErrorContext{
		Timestamp:  now,
		Severity:   sev,
		Component:  component,
		Snapshot:   b.snapshot(),
		LastAction: b.lastAction(),
		Err:        err,
		Stack:      stack,
	}

	b.setPhase(PhaseErrorCaught)
	b.log.Error("focus error caught",
		zap.String("component", component),
		zap.Stringer("severity", sev),
		zap.String("last_action", ec.LastAction),
		zap.String("focused", ec.Snapshot.CurrentID),
		zap.Error(err),
	)

	for {
		b.mu.Lock()
		if b.attempts >= b.opts.MaxAttempts {
			b.lastErr = &ec
			b.mu.Unlock()
			b.fail(ec)
			return
		}
		b.attempts++
		ec.Attempt = b.attempts
		b.lastErr = &ec
		b.mu.Unlock()

		b.setPhase(PhaseRecovering)
		if att := b.svc.Recover(ctx, ec); att.Success {
			b.setPhase(PhaseHealthy)
			return
		}
		b.setPhase(PhaseErrorCaught)
	}
}

func (b *Boundary) fail(ec ErrorContext) {
	b.setPhase(PhaseRecoveryFailed)
	b.log.Error("focus recovery failed",
		zap.String("component", ec.Component),
		zap.Int("attempts", ec.Attempt),
		zap.Stringer("severity", ec.Severity),
		zap.Error(ec.Err),
		logging.Critical(),
	)
}

// ManualReset leaves any phase, including recovery-failed, by
// reinitializing focus and clearing the attempt streak.
func (b *Boundary) ManualReset(ctx context.Context) Attempt {
	b.mu.Lock()
	b.attempts = 0
	b.lastErr = nil
	b.lastErrorAt = time.Time{}
	b.notice = false
	b.mu.Unlock()

	att := b.svc.Run(ctx, StrategyReinitialize, 0, focus.State{})
	b.setPhase(PhaseHealthy)
	b.log.Info("manual reset", zap.Bool("success", att.Success))
	return att
}

// Reload invokes the reload callback and returns the boundary to healthy
func (b *Boundary) Reload() {
	b.mu.Lock()
	b.attempts = 0
	b.lastErr = nil
	b.lastErrorAt = time.Time{}
	b.notice = false
	b.mu.Unlock()

	b.svc.ClearHistory()
	if b.opts.Reload != nil {
		b.opts.Reload()
	}
	b.setPhase(PhaseHealthy)
	b.log.Info("reloaded")
}

// Dismiss acknowledges the last caught error. A recovered error stays
// reportable through Fallback until it is dismissed.
func (b *Boundary) Dismiss() {
	b.mu.Lock()
	b.notice = false
	b.mu.Unlock()
}
