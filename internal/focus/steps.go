package focus

import "context"

// Step is one entry of a step indicator
type Step struct {
	ID      string
	Label   string
	Icon    string
	Index   int
	Current bool
	Visited bool
	Enabled bool // CanJumpToNode at the time of the call
}

// GetVisibleSteps lists the elements flagged ShowInSteps in the base scope,
// in tab order.
func (m *Manager) GetVisibleSteps(ctx context.Context) []Step {
	st := m.store.Snapshot()

	visited := make(map[string]bool, len(st.History))
	for _, id := range st.History {
		visited[id] = true
	}

	var steps []Step
	for _, el := range m.registry.ElementsInScope(st.BaseScope) {
		if !el.Indicator.ShowInSteps {
			continue
		}
		steps = append(steps, Step{
			ID:      el.ID,
			Label:   el.label(),
			Icon:    el.Indicator.Icon,
			Index:   len(steps),
			Current: el.ID == st.CurrentID,
			Visited: visited[el.ID],
			Enabled: m.CanJumpToNode(ctx, el.ID),
		})
	}
	return steps
}

// JumpToStep focuses a step's element if jump validation allows it
func (m *Manager) JumpToStep(ctx context.Context, id string) bool {
	if !m.CanJumpToNode(ctx, id) {
		return false
	}
	return m.FocusField(ctx, id)
}
