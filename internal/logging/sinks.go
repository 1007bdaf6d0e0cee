package logging

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// ConsoleSink echoes entries to a zap logger. Give it a logger that is not
// itself attached to the same Recorder.
type ConsoleSink struct {
	log *zap.Logger
}

// NewConsoleSink creates a console sink
func NewConsoleSink(l *zap.Logger) *ConsoleSink {
	return &ConsoleSink{log: l}
}

func (s *ConsoleSink) Write(e Entry) error {
	fields := []zap.Field{zap.String("id", e.ID), zap.Time("at", e.Timestamp)}
	if e.Error != "" {
		fields = append(fields, zap.String("error", e.Error))
	}
	for k, v := range e.Context {
		fields = append(fields, zap.Any(k, v))
	}
	if e.Metrics != nil {
		fields = append(fields, zap.Duration("duration", e.Metrics.Duration))
	}

	switch e.Level {
	case LevelDebug:
		s.log.Debug(e.Message, fields...)
	case LevelInfo:
		s.log.Info(e.Message, fields...)
	case LevelWarn:
		s.log.Warn(e.Message, fields...)
	default:
		fields = append(fields, zap.Stringer("level", e.Level))
		s.log.Error(e.Message, fields...)
	}
	return nil
}

func (s *ConsoleSink) Close() error {
	_ = s.log.Sync()
	return nil
}

// FileSink appends entries as JSON lines
type FileSink struct {
	mu   sync.Mutex
	f    *os.File
	enc  *json.Encoder
	path string
}

// OpenFileSink opens (or creates) path for appending
func OpenFileSink(path string) (*FileSink, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return &FileSink{f: f, enc: json.NewEncoder(f), path: path}, nil
}

// Path returns the file being written
func (s *FileSink) Path() string { return s.path }

func (s *FileSink) Write(e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return os.ErrClosed
	}
	return s.enc.Encode(e)
}

func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.f == nil {
		return nil
	}
	err := s.f.Close()
	s.f = nil
	return err
}

// ReadEntries decodes a JSON lines stream. Malformed lines are skipped
// and counted.
func ReadEntries(r io.Reader) (entries []Entry, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if json.Unmarshal(line, &e) != nil {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	return entries, skipped, scanner.Err()
}

// ReadFile reads every entry from a JSON lines file
func ReadFile(path string) ([]Entry, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return ReadEntries(f)
}
