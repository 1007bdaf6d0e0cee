package focus

import (
	"context"
	"sync"
	"time"
)

// Clock supplies timestamps. Tests inject a fixed or stepping clock.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock
type SystemClock struct{}

// Now returns time.Now()
func (SystemClock) Now() time.Time { return time.Now() }

// Scheduler provides the two suspension points of the focus pipeline:
// waiting for the next rendered frame before placing focus, and short
// fixed delays (modal close restore, click-outside arming).
type Scheduler interface {
	NextFrame(ctx context.Context) error
	Sleep(ctx context.Context, d time.Duration) error
}

// DefaultFrameInterval approximates one render frame
const DefaultFrameInterval = 16 * time.Millisecond

// FrameScheduler waits on real timers
type FrameScheduler struct {
	Interval time.Duration
}

// NewFrameScheduler creates a scheduler with the default frame interval
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{Interval: DefaultFrameInterval}
}

// NextFrame blocks for one frame interval or until ctx is done
func (s *FrameScheduler) NextFrame(ctx context.Context) error {
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultFrameInterval
	}
	return s.Sleep(ctx, interval)
}

// Sleep blocks for d or until ctx is done
func (s *FrameScheduler) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// ImmediateScheduler never waits. It counts calls so tests can assert that
// a deferral happened.
type ImmediateScheduler struct {
	mu     sync.Mutex
	frames int
	sleeps []time.Duration
}

// NextFrame returns immediately
func (s *ImmediateScheduler) NextFrame(ctx context.Context) error {
	s.mu.Lock()
	s.frames++
	s.mu.Unlock()
	return ctx.Err()
}

// Sleep records d and returns immediately
func (s *ImmediateScheduler) Sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.sleeps = append(s.sleeps, d)
	s.mu.Unlock()
	return ctx.Err()
}

// Frames returns how many frame waits were requested
func (s *ImmediateScheduler) Frames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}

// Sleeps returns the requested delays in call order
func (s *ImmediateScheduler) Sleeps() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.sleeps))
	copy(out, s.sleeps)
	return out
}

// Surface is where focus is actually placed: the rendered form.
type Surface interface {
	// Focus moves real focus to the element and reports whether it landed
	// (the element is mounted, visible and enabled).
	Focus(id string) bool
	// FocusRoot moves focus to the always-present root container.
	FocusRoot()
	// ActiveID returns the element holding real focus, "" for the root.
	ActiveID() string
}

// nopSurface accepts every placement. Used until a real surface is attached.
type nopSurface struct {
	mu     sync.Mutex
	active string
}

func (s *nopSurface) Focus(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = id
	return true
}

func (s *nopSurface) FocusRoot() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = ""
}

func (s *nopSurface) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}
