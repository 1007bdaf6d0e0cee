package recovery

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/muurk/medentry/internal/focus"
	"github.com/muurk/medentry/internal/logging"
)

// maxAttemptHistory bounds the recorded recovery attempts
const maxAttemptHistory = 10

// Controller is the focus write path the service drives. *focus.Manager
// implements it.
type Controller interface {
	Snapshot() focus.State
	ResetFocus(ctx context.Context) error
	RestoreState(ctx context.Context, good focus.State) error
	ClearModals(ctx context.Context) error
	Reinitialize(ctx context.Context) error
	RecoverFocusFirst(ctx context.Context) error
	FocusRoot()
}

// Attempt records one recovery run
type Attempt struct {
	ID       string
	Strategy Strategy
	Success  bool
	Duration time.Duration
	Message  string
	At       time.Time
	Number   int // 1-based attempt within the current error streak
}

// Service runs recovery strategies against a Controller and keeps a
// bounded history of attempts.
type Service struct {
	ctrl Controller
	log  *zap.Logger
	now  func() time.Time

	mutex   sync.RWMutex
	history []Attempt
	good    *focus.State
	goodAt  time.Time
}

// ServiceOption configures a Service
type ServiceOption func(*Service)

// WithLogger sets the zap logger
func WithLogger(l *zap.Logger) ServiceOption {
	return func(s *Service) { s.log = l }
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a recovery service for ctrl
func NewService(ctrl Controller, opts ...ServiceOption) *Service {
	s := &Service{
		ctrl:    ctrl,
		log:     logging.GetLogger(),
		now:     time.Now,
		history: make([]Attempt, 0, maxAttemptHistory),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("recovery")
	return s
}

// CaptureGoodState remembers the current focus state as a restore point
func (s *Service) CaptureGoodState() {
	st := s.ctrl.Snapshot()
	s.mutex.Lock()
	s.good = &st
	s.goodAt = s.now()
	s.mutex.Unlock()
}

// GoodState returns the last captured restore point
func (s *Service) GoodState() (focus.State, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	if s.good == nil {
		return focus.State{}, false
	}
	return *s.good, true
}

// Recover runs the first strategy SelectStrategy matches for ec. A failing
// or panicking strategy falls back to focusing the root.
func (s *Service) Recover(ctx context.Context, ec ErrorContext) Attempt {
	good, haveGood := s.GoodState()
	strategy := SelectStrategy(ec.Err, ec.Severity, haveGood)
	return s.Run(ctx, strategy, ec.Attempt, good)
}

// Run executes strategy directly
func (s *Service) Run(ctx context.Context, strategy Strategy, number int, good focus.State) Attempt {
	start := s.now()
	err := s.execute(ctx, strategy, good)

	att := Attempt{
		ID:       uuid.NewString(),
		Strategy: strategy,
		Success:  err == nil,
		Duration: s.now().Sub(start),
		At:       start,
		Number:   number,
	}
	if err != nil {
		att.Message = err.Error()
		s.ctrl.FocusRoot()
		s.log.Warn("recovery strategy failed, focused root",
			zap.String("attempt_id", att.ID),
			zap.Stringer("strategy", strategy),
			zap.Int("attempt", number),
			zap.Error(err),
		)
	} else {
		att.Message = fmt.Sprintf("%s succeeded", strategy)
		s.log.Info("recovery strategy succeeded",
			zap.String("attempt_id", att.ID),
			zap.Stringer("strategy", strategy),
			zap.Int("attempt", number),
			zap.Duration("duration", att.Duration),
		)
	}

	s.mutex.Lock()
	s.history = append(s.history, att)
	if len(s.history) > maxAttemptHistory {
		s.history = s.history[1:]
	}
	s.mutex.Unlock()
	return att
}

func (s *Service) execute(ctx context.Context, strategy Strategy, good focus.State) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("strategy %s panicked: %v", strategy, r)
		}
	}()

	switch strategy {
	case StrategyResetFocus:
		return s.ctrl.ResetFocus(ctx)
	case StrategyRestorePrevious:
		return s.ctrl.RestoreState(ctx, good)
	case StrategyClearModals:
		return s.ctrl.ClearModals(ctx)
	case StrategyReinitialize:
		return s.ctrl.Reinitialize(ctx)
	case StrategyFocusFirst:
		return s.ctrl.RecoverFocusFirst(ctx)
	default:
		return fmt.Errorf("unknown strategy %d", int(strategy))
	}
}

// Attempts returns the recorded attempts, oldest first
func (s *Service) Attempts() []Attempt {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	result := make([]Attempt, len(s.history))
	copy(result, s.history)
	return result
}

// ClearHistory drops recorded attempts and the restore point
func (s *Service) ClearHistory() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.history = make([]Attempt, 0, maxAttemptHistory)
	s.good = nil
}
