package focus

import (
	"context"

	"go.uber.org/zap"
)

// Key names understood by HandleKey, matching bubbletea's KeyMsg.String()
const (
	KeyTab      = "tab"
	KeyShiftTab = "shift+tab"
	KeyEscape   = "esc"
	KeyHome     = "ctrl+home"
	KeyEnd      = "ctrl+end"
)

// HandleKey records a keyboard interaction and runs the navigation bound
// to key. Returns true when the key was consumed.
func (m *Manager) HandleKey(ctx context.Context, key string) bool {
	m.modes.Record(InteractionKey, m.CurrentID(), key)
	m.syncMode()

	switch key {
	case KeyTab:
		m.FocusNext(ctx)
	case KeyShiftTab:
		m.FocusPrevious(ctx)
	case KeyEscape:
		return m.HandleEscape(ctx)
	case KeyHome:
		m.FocusFirst(ctx)
	case KeyEnd:
		m.FocusLast(ctx)
	default:
		return false
	}
	return true
}

// HandleClick records a pointer interaction on id and applies the
// element's mouse policy. Ctrl/Cmd+Click is a direct jump and only
// succeeds on elements that allow it and pass jump validation.
func (m *Manager) HandleClick(ctx context.Context, id string, mods Modifiers) bool {
	kind := InteractionClick
	if mods.DirectJump() {
		kind = InteractionDirectJump
	}
	m.modes.Record(kind, id, "")
	m.syncMode()

	el, ok := m.registry.Get(id)
	if !ok {
		return false
	}

	if kind == InteractionDirectJump {
		if !el.Mouse.AllowDirectJump {
			m.log.Debug("direct jump not allowed", zap.String("id", id))
			return false
		}
		return m.JumpToStep(ctx, id)
	}

	if !m.FocusField(ctx, id) {
		return false
	}
	switch el.Mouse.ClickAdvances {
	case ClickNext:
		m.FocusNext(ctx)
	case ClickSpecific:
		if el.Mouse.TargetID != "" {
			m.FocusField(ctx, el.Mouse.TargetID)
		}
	}
	return true
}

// HandleHover records a hover; it never moves focus.
func (m *Manager) HandleHover(id string) {
	m.modes.Record(InteractionHover, id, "")
	m.syncMode()
}
