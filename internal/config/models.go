package config

import (
	"sync"
	"time"

	"github.com/muurk/medentry/internal/focus"
)

// Settings represents the entire user configuration file.
type Settings struct {
	Version    int              `yaml:"version"`
	Navigation *NavigationPrefs `yaml:"navigation,omitempty"`
	Recovery   *RecoveryPrefs   `yaml:"recovery,omitempty"`
	Logging    *LoggingPrefs    `yaml:"logging,omitempty"`
	Dropdown   *DropdownPrefs   `yaml:"dropdown,omitempty"`

	path string
	mu   sync.Mutex
}

// NavigationPrefs holds the persisted navigation mode.
// Written by the form as the user switches between keyboard and mouse.
type NavigationPrefs struct {
	Mode    string              `yaml:"mode"`              // keyboard, mouse, hybrid or auto
	History []focus.Interaction `yaml:"history,omitempty"` // Recent interactions, newest last
}

// RecoveryPrefs tunes the focus error boundary
type RecoveryPrefs struct {
	MaxAttempts         int `yaml:"max_attempts"`          // Recovery attempts before giving up
	StableWindowSeconds int `yaml:"stable_window_seconds"` // Healthy time that resets the attempt counter
}

// LoggingPrefs configures the diagnostic log
type LoggingPrefs struct {
	Level      string `yaml:"level,omitempty"`      // Console level; empty keeps console logging off
	BufferSize int    `yaml:"buffer_size"`          // Entries kept in memory
	File       string `yaml:"file,omitempty"`       // JSON lines file; empty uses the config directory
	RemoteURL  string `yaml:"remote_url,omitempty"` // ws:// collector URL or "auto" for mDNS; empty disables shipping
}

// DropdownPrefs sets defaults for the form's dropdowns
type DropdownPrefs struct {
	Wrap  bool `yaml:"wrap"`  // Arrow keys wrap around the option list
	Fuzzy bool `yaml:"fuzzy"` // Fuzzy matching instead of substring
}

func defaultNavigation() *NavigationPrefs {
	return &NavigationPrefs{Mode: string(focus.ModeAuto)}
}

func defaultRecovery() *RecoveryPrefs {
	return &RecoveryPrefs{MaxAttempts: 3, StableWindowSeconds: 30}
}

func defaultLogging() *LoggingPrefs {
	return &LoggingPrefs{BufferSize: 1000}
}

func defaultDropdown() *DropdownPrefs {
	return &DropdownPrefs{Wrap: true}
}

// NewSettings creates Settings with default values.
func NewSettings() *Settings {
	return &Settings{
		Version:    1,
		Navigation: defaultNavigation(),
		Recovery:   defaultRecovery(),
		Logging:    defaultLogging(),
		Dropdown:   defaultDropdown(),
	}
}

// fillDefaults initializes missing sections and out-of-range values
func (s *Settings) fillDefaults() {
	if s.Navigation == nil {
		s.Navigation = defaultNavigation()
	}
	s.Navigation.Mode = string(focus.ParseMode(s.Navigation.Mode))
	if s.Recovery == nil {
		s.Recovery = defaultRecovery()
	}
	if s.Recovery.MaxAttempts <= 0 {
		s.Recovery.MaxAttempts = 3
	}
	if s.Recovery.StableWindowSeconds <= 0 {
		s.Recovery.StableWindowSeconds = 30
	}
	if s.Logging == nil {
		s.Logging = defaultLogging()
	}
	if s.Logging.BufferSize <= 0 {
		s.Logging.BufferSize = 1000
	}
	if s.Dropdown == nil {
		s.Dropdown = defaultDropdown()
	}
}

// StableWindow returns the recovery stable window as a duration
func (s *Settings) StableWindow() time.Duration {
	return time.Duration(s.Recovery.StableWindowSeconds) * time.Second
}

// Path returns the file the settings were loaded from or will be saved to
func (s *Settings) Path() string {
	return s.path
}

// LoadMode implements focus.ModeStore
func (s *Settings) LoadMode() (focus.ModeSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return focus.ModeSnapshot{
		Mode:    focus.ParseMode(s.Navigation.Mode),
		History: append([]focus.Interaction(nil), s.Navigation.History...),
	}, nil
}

// SaveMode implements focus.ModeStore by writing the settings file
func (s *Settings) SaveMode(snap focus.ModeSnapshot) error {
	s.mu.Lock()
	s.Navigation.Mode = string(snap.Mode)
	s.Navigation.History = append([]focus.Interaction(nil), snap.History...)
	s.mu.Unlock()
	return s.Save()
}
