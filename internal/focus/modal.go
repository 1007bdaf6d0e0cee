package focus

import (
	"context"

	"go.uber.org/zap"
)

// ModalOptions customizes how a modal scope is opened
type ModalOptions struct {
	// RestoreID is focused when the modal closes. Defaults to the element
	// that held focus when the modal opened.
	RestoreID string
}

// OpenModal pushes scope onto the modal stack, makes it the active scope
// and focuses its first element. Focus cannot leave the modal until it is
// closed.
func (m *Manager) OpenModal(ctx context.Context, scope string, opts ModalOptions) error {
	st := m.store.Snapshot()
	if scope == "" || scope == st.BaseScope {
		return newError(ErrTypeValidation, scope, "invalid modal scope %q", scope)
	}
	for _, e := range st.ModalStack {
		if e.Scope == scope {
			return newError(ErrTypeModalOpen, scope, "modal %q is already open", scope)
		}
	}

	seq := m.nextRequest()
	entry := ModalEntry{
		Scope:     scope,
		Parent:    st.ActiveScope,
		TriggerID: st.CurrentID,
		RestoreID: opts.RestoreID,
		OpenedAt:  m.clock.Now(),
	}

	first := m.firstFocusable(scope)
	open := func(s *State) {
		entry.Parent = s.ActiveScope
		entry.TriggerID = s.CurrentID
		s.ModalStack = append(s.ModalStack, entry)
		s.ActiveScope = scope
	}

	m.log.Debug("modal opened",
		zap.String("scope", scope),
		zap.String("trigger", entry.TriggerID),
		zap.Int("depth", len(st.ModalStack)+1),
	)

	if first == "" {
		// Nothing mounted yet; keep logical focus on the trigger, which
		// stays valid as an ancestor-scope element.
		m.commitMu.Lock()
		committed := m.store.mutate(open)
		m.commitMu.Unlock()
		m.store.notify(committed)
		return nil
	}

	res := m.force(ctx, first, seq, open)
	if res.Err != nil && TypeOf(res.Err) == ErrTypeSuperseded && !res.Committed {
		// A newer request won before the push; apply the push alone so the
		// stack still reflects the open dialog.
		m.commitMu.Lock()
		committed := m.store.mutate(open)
		m.commitMu.Unlock()
		m.store.notify(committed)
	}
	return nil
}

// CloseModal pops the topmost modal. scope may be empty to mean "the top";
// closing any other scope is rejected. Focus is restored to the modal's
// RestoreID or trigger after the restore delay.
func (m *Manager) CloseModal(ctx context.Context, scope string) error {
	st := m.store.Snapshot()
	top, open := st.TopModal()
	if !open {
		return newError(ErrTypeModalOrder, scope, "no modal is open")
	}
	if scope != "" && scope != top.Scope {
		return newError(ErrTypeModalOrder, scope, "modal %q is not the topmost (top is %q)", scope, top.Scope)
	}

	seq := m.nextRequest()

	m.commitMu.Lock()
	if m.superseded(seq) {
		m.commitMu.Unlock()
		return newError(ErrTypeSuperseded, scope, "close of %q superseded", top.Scope)
	}
	var target string
	committed := m.store.mutate(func(s *State) {
		s.ModalStack = s.ModalStack[:len(s.ModalStack)-1]
		s.ActiveScope = s.BaseScope
		if t, ok := s.TopModal(); ok {
			s.ActiveScope = t.Scope
		}

		target = top.restoreTarget()
		if el, ok := m.registry.Get(target); !ok || !el.Focusable() || !s.ScopeAllowed(el.Scope) {
			target = m.firstFocusable(s.ActiveScope)
		}
		if s.CurrentID != target {
			m.store.pushHistory(s, s.CurrentID)
		}
		s.CurrentID = target
	})
	m.commitMu.Unlock()
	m.store.notify(committed)

	m.log.Debug("modal closed", zap.String("scope", top.Scope), zap.String("restore", target))

	if err := m.sched.Sleep(ctx, m.restoreDelay); err != nil {
		return nil
	}
	if target == "" {
		m.surfaceRef().FocusRoot()
		return nil
	}
	m.settle(ctx, target, seq)
	return nil
}

// HandleEscape closes the topmost modal only. Returns false when no modal is open.
func (m *Manager) HandleEscape(ctx context.Context) bool {
	if _, open := m.store.Snapshot().TopModal(); !open {
		return false
	}
	return m.CloseModal(ctx, "") == nil
}

// ModalDepth returns the number of open modals
func (m *Manager) ModalDepth() int {
	return len(m.store.Snapshot().ModalStack)
}
