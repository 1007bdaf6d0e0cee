package focus

import (
	"context"

	"go.uber.org/zap"
)

// The operations below are the recovery write path. They skip validators,
// ignore the enabled switch and are safe to repeat.

// ResetFocus clears focus and history, then focuses the first element of
// the active scope (or the root when there is none).
func (m *Manager) ResetFocus(ctx context.Context) error {
	seq := m.nextRequest()
	first := m.firstFocusable(m.store.Snapshot().ActiveScope)
	m.log.Info("recovery: reset focus", zap.String("target", first))
	return m.recoverTo(ctx, first, seq, func(s *State) {
		s.CurrentID = ""
		s.History = nil
	})
}

// RestoreState reinstates a previously captured state. Modals whose scopes
// no longer have elements are dropped and a stale CurrentID is replaced by
// the first element of the resulting active scope.
func (m *Manager) RestoreState(ctx context.Context, good State) error {
	seq := m.nextRequest()

	var stack []ModalEntry
	for _, e := range good.ModalStack {
		if len(m.registry.ElementsInScope(e.Scope)) == 0 {
			break
		}
		stack = append(stack, e)
	}

	base := m.store.Snapshot().BaseScope
	active := base
	if len(stack) > 0 {
		active = stack[len(stack)-1].Scope
	}
	restored := State{BaseScope: base, ActiveScope: active, ModalStack: stack}

	target := good.CurrentID
	if el, ok := m.registry.Get(target); !ok || !el.Focusable() || !restored.ScopeAllowed(el.Scope) {
		target = m.firstFocusable(active)
	}

	m.log.Info("recovery: restore state", zap.String("target", target), zap.Int("modals", len(stack)))
	history := append([]string(nil), good.History...)
	return m.recoverTo(ctx, target, seq, func(s *State) {
		s.ModalStack = stack
		s.ActiveScope = active
		s.History = history
		s.CurrentID = ""
	})
}

// ClearModals closes every modal and returns focus to the base scope,
// preferring the bottom modal's restore target.
func (m *Manager) ClearModals(ctx context.Context) error {
	seq := m.nextRequest()
	st := m.store.Snapshot()

	target := st.CurrentID
	if len(st.ModalStack) > 0 {
		target = st.ModalStack[0].restoreTarget()
	}
	if el, ok := m.registry.Get(target); !ok || !el.Focusable() || el.Scope != st.BaseScope {
		target = m.firstFocusable(st.BaseScope)
	}

	m.log.Info("recovery: clear modals", zap.Int("closed", len(st.ModalStack)), zap.String("target", target))
	return m.recoverTo(ctx, target, seq, func(s *State) {
		s.ModalStack = nil
		s.ActiveScope = s.BaseScope
	})
}

// Reinitialize discards all focus state and mode history and starts over
// from the first element of the base scope.
func (m *Manager) Reinitialize(ctx context.Context) error {
	seq := m.nextRequest()
	m.mu.Lock()
	m.waiting = nil
	m.mu.Unlock()
	m.modes.Reset()

	base := m.store.Snapshot().BaseScope
	target := m.firstFocusable(base)
	m.log.Info("recovery: reinitialize", zap.String("target", target))
	return m.recoverTo(ctx, target, seq, func(s *State) {
		*s = State{
			ActiveScope: base,
			BaseScope:   base,
			Mode:        ModeAuto,
			Enabled:     true,
		}
	})
}

// RecoverFocusFirst focuses the first element of the active scope,
// bypassing validators.
func (m *Manager) RecoverFocusFirst(ctx context.Context) error {
	seq := m.nextRequest()
	target := m.firstFocusable(m.store.Snapshot().ActiveScope)
	m.log.Info("recovery: focus first", zap.String("target", target))
	return m.recoverTo(ctx, target, seq, nil)
}

// FocusRoot drops logical focus and moves real focus to the root. This is
// the last resort and cannot fail.
func (m *Manager) FocusRoot() {
	m.nextRequest()
	m.commitMu.Lock()
	committed := m.store.mutate(func(s *State) {
		m.store.pushHistory(s, s.CurrentID)
		s.CurrentID = ""
	})
	m.commitMu.Unlock()
	m.store.notify(committed)
	m.surfaceRef().FocusRoot()
}

// recoverTo commits mutate plus CurrentID=target and places focus
// synchronously, falling back to the root when the surface refuses.
func (m *Manager) recoverTo(ctx context.Context, target string, seq uint64, mutate func(*State)) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.commitMu.Lock()
	if m.superseded(seq) {
		m.commitMu.Unlock()
		return newError(ErrTypeSuperseded, target, "recovery superseded")
	}
	committed := m.store.mutate(func(s *State) {
		if mutate != nil {
			mutate(s)
		}
		s.Enabled = true
		s.CurrentID = target
	})
	m.commitMu.Unlock()
	m.store.notify(committed)

	if !m.place(target) && target != "" {
		m.log.Warn("recovery placement refused, focused root", zap.String("target", target))
	}
	return nil
}
