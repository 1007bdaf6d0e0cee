package logging

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBufferSize is the number of entries a Recorder keeps
const DefaultBufferSize = 1000

// Level is the severity of a diagnostic entry
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	case LevelCritical:
		return "critical"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel converts a name into a Level
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "critical":
		return LevelCritical, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

// MarshalText encodes the level by name
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText decodes a level name
func (l *Level) UnmarshalText(b []byte) error {
	parsed, err := ParseLevel(string(b))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// Performance carries timing for an entry produced by Measure
type Performance struct {
	Operation string        `json:"operation"`
	Duration  time.Duration `json:"duration_ns"`
}

// Entry is one diagnostic record. Entries are values; the Recorder hands
// out copies.
type Entry struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Error     string         `json:"error,omitempty"`
	Context   map[string]any `json:"context,omitempty"`
	Metrics   *Performance   `json:"metrics,omitempty"`
}

func (e Entry) clone() Entry {
	if e.Context != nil {
		ctx := make(map[string]any, len(e.Context))
		for k, v := range e.Context {
			ctx[k] = v
		}
		e.Context = ctx
	}
	if e.Metrics != nil {
		m := *e.Metrics
		e.Metrics = &m
	}
	return e
}

// Sink receives every recorded entry
type Sink interface {
	Write(Entry) error
	Close() error
}

// Recorder is a bounded ring buffer of diagnostic entries that fans out to
// sinks. The oldest entry is evicted when the buffer is full. Sink failures
// are counted, never returned to the caller.
type Recorder struct {
	mu         sync.Mutex
	buf        []Entry
	next       int
	full       bool
	minLevel   Level
	sinks      []Sink
	sinkErrors int
	now        func() time.Time
}

// NewRecorder creates a recorder holding at most size entries
func NewRecorder(size int, sinks ...Sink) *Recorder {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return &Recorder{
		buf:   make([]Entry, size),
		sinks: sinks,
		now:   time.Now,
	}
}

// SetMinLevel drops entries below lvl
func (r *Recorder) SetMinLevel(lvl Level) {
	r.mu.Lock()
	r.minLevel = lvl
	r.mu.Unlock()
}

// AddSink attaches another sink
func (r *Recorder) AddSink(s Sink) {
	r.mu.Lock()
	r.sinks = append(r.sinks, s)
	r.mu.Unlock()
}

// Record stores e, filling ID and Timestamp when empty, and forwards it
// to every sink. Returns the stored copy.
func (r *Recorder) Record(e Entry) Entry {
	e = e.clone()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}

	r.mu.Lock()
	if e.Level < r.minLevel {
		r.mu.Unlock()
		return e
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}
	r.buf[r.next] = e
	r.next = (r.next + 1) % len(r.buf)
	if r.next == 0 {
		r.full = true
	}
	sinks := append([]Sink(nil), r.sinks...)
	r.mu.Unlock()

	for _, s := range sinks {
		if err := s.Write(e.clone()); err != nil {
			r.mu.Lock()
			r.sinkErrors++
			r.mu.Unlock()
		}
	}
	return e
}

// Log records a message with an optional error and context
func (r *Recorder) Log(lvl Level, msg string, err error, ctx map[string]any) Entry {
	e := Entry{Level: lvl, Message: msg, Context: ctx}
	if err != nil {
		e.Error = err.Error()
	}
	return r.Record(e)
}

func (r *Recorder) Debug(msg string, ctx map[string]any) Entry {
	return r.Log(LevelDebug, msg, nil, ctx)
}

func (r *Recorder) Info(msg string, ctx map[string]any) Entry {
	return r.Log(LevelInfo, msg, nil, ctx)
}

func (r *Recorder) Warn(msg string, ctx map[string]any) Entry {
	return r.Log(LevelWarn, msg, nil, ctx)
}

func (r *Recorder) Error(msg string, err error, ctx map[string]any) Entry {
	return r.Log(LevelError, msg, err, ctx)
}

func (r *Recorder) Critical(msg string, err error, ctx map[string]any) Entry {
	return r.Log(LevelCritical, msg, err, ctx)
}

// Measure records how long op took since start
func (r *Recorder) Measure(op string, start time.Time, ctx map[string]any) Entry {
	return r.Record(Entry{
		Level:   LevelDebug,
		Message: op,
		Context: ctx,
		Metrics: &Performance{Operation: op, Duration: r.now().Sub(start)},
	})
}

// Entries returns copies of the buffered entries, oldest first
func (r *Recorder) Entries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ordered []Entry
	if r.full {
		ordered = append(ordered, r.buf[r.next:]...)
	}
	ordered = append(ordered, r.buf[:r.next]...)

	out := make([]Entry, len(ordered))
	for i, e := range ordered {
		out[i] = e.clone()
	}
	return out
}

// Filter returns buffered entries at or above lvl
func (r *Recorder) Filter(lvl Level) []Entry {
	var out []Entry
	for _, e := range r.Entries() {
		if e.Level >= lvl {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of buffered entries
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return len(r.buf)
	}
	return r.next
}

// Cap returns the buffer capacity
func (r *Recorder) Cap() int {
	return len(r.buf)
}

// SinkErrors returns how many sink writes failed
func (r *Recorder) SinkErrors() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sinkErrors
}

// Clear empties the buffer
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf = make([]Entry, len(r.buf))
	r.next = 0
	r.full = false
}

// Close closes every sink
func (r *Recorder) Close() error {
	r.mu.Lock()
	sinks := r.sinks
	r.sinks = nil
	r.mu.Unlock()

	var firstErr error
	for _, s := range sinks {
		if err := s.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
