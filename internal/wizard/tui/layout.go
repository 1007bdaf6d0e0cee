package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/muurk/medentry/internal/focus"
	"github.com/muurk/medentry/internal/recovery"
	"github.com/muurk/medentry/internal/ui"
)

type regionKind int

const (
	regionField regionKind = iota
	regionStep
	regionOption
)

// region is a clickable rectangle in content coordinates
type region struct {
	id   string
	kind regionKind
	row  int // option row for regionOption
	x, y int
	w, h int
}

func (r region) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

func hitTest(regions []region, x, y int) (region, bool) {
	// Options are drawn over later rows, so they win.
	for _, r := range regions {
		if r.kind == regionOption && r.contains(x, y) {
			return r, true
		}
	}
	for _, r := range regions {
		if r.contains(x, y) {
			return r, true
		}
	}
	return region{}, false
}

// renderSteps draws the step indicator and returns its cells
func (m FormModel) renderSteps() (string, []region) {
	var (
		parts   []string
		regions []region
	)
	x := fieldIndent
	for i, s := range m.mgr.GetVisibleSteps(m.ctx) {
		marker, style := ui.StepMarkerPending, ui.StepPendingStyle
		switch {
		case s.Current:
			marker, style = ui.StepMarkerRunning, ui.StepRunningStyle
		case s.Visited:
			marker, style = ui.StepMarkerComplete, ui.StepCompleteStyle
		}
		text := marker + " " + s.Label
		if s.Icon != "" {
			text = marker + " " + s.Icon + " " + s.Label
		}
		if !s.Enabled && !s.Current {
			style = ui.DisabledStyle
		}
		cell := style.Render(text)
		if i > 0 {
			parts = append(parts, stepSeparator)
			x += len(stepSeparator)
		}
		w := lipgloss.Width(cell)
		regions = append(regions, region{id: s.ID, kind: regionStep, x: x, y: 0, w: w, h: 1})
		parts = append(parts, cell)
		x += w
	}
	return strings.Repeat(" ", fieldIndent) + strings.Join(parts, ""), regions
}

// renderForm draws the base scope and returns the clickable regions
func (m FormModel) renderForm() (string, []region) {
	steps, regions := m.renderSteps()
	lines := []string{steps, ""}
	active := m.surface.ActiveID()
	width := m.Width - 4

	var buttons []fieldSpec
	for _, spec := range m.specs {
		if spec.Kind == kindButton {
			buttons = append(buttons, spec)
			continue
		}
		y := len(lines)

		labelStyle := ui.LabelStyle
		if spec.ID == active {
			labelStyle = ui.FocusedLabelStyle
		}
		if el, ok := m.mgr.Registry().Get(spec.ID); ok && el.Disabled {
			labelStyle = labelStyle.Inherit(ui.DisabledStyle)
		}

		var widget string
		switch spec.Kind {
		case kindText:
			widget = m.inputs[spec.ID].View()
		case kindDropdown:
			dd := m.dropdowns[spec.ID]
			widget = dd.View()
			if dd.IsOpen() {
				for row := 1; row < lipgloss.Height(widget); row++ {
					regions = append(regions, region{
						id: spec.ID, kind: regionOption, row: row - 1,
						x: optionIndent, y: y + row, w: width - optionIndent, h: 1,
					})
				}
			}
		case kindCheckbox:
			widget = "[ ]"
			if m.values.isChecked(spec.ID) {
				widget = CheckedStyle.Render("[x]")
			}
		}

		row := lipgloss.JoinHorizontal(lipgloss.Top,
			strings.Repeat(" ", fieldIndent),
			labelStyle.Render(spec.Label),
			widget,
		)
		regions = append(regions, region{id: spec.ID, kind: regionField, x: 0, y: y, w: width, h: 1})
		lines = append(lines, strings.Split(row, "\n")...)
	}

	lines = append(lines, "")
	bar, barRegions := m.renderButtons(buttons, fieldIndent, len(lines))
	regions = append(regions, barRegions...)
	lines = append(lines, strings.Split(bar, "\n")...)

	if m.status != "" {
		lines = append(lines, "", StatusStyle.Render(ui.WarningMarker+" "+m.status))
	}
	return strings.Join(lines, "\n"), regions
}

// renderButtons lays out a row of buttons at column indent, content row y
func (m FormModel) renderButtons(specs []fieldSpec, indent, y int) (string, []region) {
	active := m.surface.ActiveID()
	var (
		cells   []string
		regions []region
	)
	x := indent
	if indent > 0 {
		cells = append(cells, strings.Repeat(" ", indent))
	}
	for i, spec := range specs {
		style := ui.ButtonStyle
		if spec.ID == active {
			style = ui.FocusedButtonStyle
		}
		if i > 0 {
			cells = append(cells, strings.Repeat(" ", buttonGap))
			x += buttonGap
		}
		cell := style.Render(spec.Label)
		w, h := lipgloss.Width(cell), lipgloss.Height(cell)
		regions = append(regions, region{id: spec.ID, kind: regionField, x: x, y: y, w: w, h: h})
		cells = append(cells, cell)
		x += w
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cells...), regions
}

// renderModal draws the dialog for scope. Regions are relative to the
// dialog's content area.
func (m FormModel) renderModal(scope string) (string, []region) {
	var lines []string
	switch scope {
	case ScopeConfirm:
		lines = append(lines, TitleStyle.Render("Save this medication?"))
		if m.pending != nil {
			lines = append(lines, ui.ResultValueStyle.Render(m.pending.String()))
			if m.pending.Custom {
				lines = append(lines, ui.StepNoteStyle.Render("(not in the catalog)"))
			}
			if m.pending.Notes != "" {
				lines = append(lines, ui.StepNoteStyle.Render(m.pending.Notes))
			}
		}
	case ScopeHelp:
		lines = append(lines,
			TitleStyle.Render("Keyboard and mouse"),
			m.help.FullHelpView(m.keys.FullHelp()),
			"",
			ui.StepNoteStyle.Render("click a field to focus it, ctrl+click a step to jump to it"),
		)
	}
	head := strings.Join(lines, "\n")
	body := strings.Split(head, "\n")
	body = append(body, "")

	bar, regions := m.renderButtons(m.buttonsIn(scope), 0, len(body))
	body = append(body, strings.Split(bar, "\n")...)
	return strings.Join(body, "\n"), regions
}

func (m FormModel) buttonsIn(scope string) []fieldSpec {
	var out []fieldSpec
	for _, s := range m.buttons {
		if s.Scope == scope {
			out = append(out, s)
		}
	}
	return out
}

// modalBox wraps dialog content; returns the box and its content origin
// on screen.
func (m FormModel) modalBox(content string) (string, int, int) {
	box := ui.ModalBoxStyle(SafeModalWidth(ModalWidth, m.Width)).Render(content)
	x, y := modalOrigin(box, m.Width, m.Height)
	// Border plus padding
	return box, x + 3, y + 2
}

func (m FormModel) fallbackAlert(view recovery.FallbackView) ui.Alert {
	kind := ui.AlertWarning
	switch view.Severity {
	case recovery.SeverityHigh:
		kind = ui.AlertError
	case recovery.SeverityCritical:
		kind = ui.AlertCritical
	}
	if view.Terminal {
		kind = ui.AlertCritical
	}
	if view.Recovered {
		kind = ui.AlertWarning
	}
	actions := make([]string, len(view.Actions))
	for i, a := range view.Actions {
		actions[i] = a.String()
	}
	return ui.Alert{
		Kind:    kind,
		Title:   view.Title,
		Message: view.Message,
		Hint:    view.Hint,
		Extra:   view.Details,
		Expand:  m.showDetails,
		Actions: actions,
		Focused: m.fallbackSel,
		Width:   SafeModalWidth(ModalWidth+16, m.Width),
	}
}

// View renders the form, the topmost dialog or the error fallback
func (m FormModel) View() string {
	if view, ok := m.fallback(); ok {
		return RenderModal(m.fallbackAlert(view).Render(), m.Width, m.Height)
	}
	if top, open := m.mgr.Snapshot().TopModal(); open {
		content, _ := m.renderModal(top.Scope)
		box, _, _ := m.modalBox(content)
		return RenderModal(box, m.Width, m.Height)
	}
	content, _ := m.renderForm()
	mode := string(m.mgr.GetNavigationMode())
	return RenderApplicationContainer(content, mode, m.help.View(m.keys), m.Width, m.Height)
}

// updateMouse routes pointer events through the focus manager
func (m FormModel) updateMouse(msg tea.MouseMsg) (FormModel, tea.Cmd) {
	if _, ok := m.fallback(); ok {
		return m, nil
	}

	if top, open := m.mgr.Snapshot().TopModal(); open {
		content, regions := m.renderModal(top.Scope)
		_, ox, oy := m.modalBox(content)
		r, hit := hitTest(regions, msg.X-ox, msg.Y-oy)
		if hit && msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			return m, m.click(r.id, focus.Modifiers{})
		}
		return m, nil
	}

	_, regions := m.renderForm()
	r, hit := hitTest(regions, msg.X-contentLeft, msg.Y-contentTop)

	switch {
	case msg.Action == tea.MouseActionMotion:
		if !hit {
			m.hovered = ""
			return m, nil
		}
		if r.kind == regionOption {
			dd := m.dropdowns[r.id]
			dd.HoverOption(r.row)
			m.dropdowns[r.id] = dd
		}
		if r.id != m.hovered {
			m.hovered = r.id
			m.mgr.HandleHover(r.id)
		}
		return m, nil

	case msg.Action != tea.MouseActionPress || msg.Button != tea.MouseButtonLeft:
		return m, nil
	}

	for id, dd := range m.dropdowns {
		if hit && r.id == id {
			continue
		}
		if dd.ClickOutside() {
			m.dropdowns[id] = dd
		}
	}
	if !hit {
		return m, nil
	}

	mods := focus.Modifiers{Ctrl: msg.Ctrl, Alt: msg.Alt, Shift: msg.Shift}
	switch r.kind {
	case regionOption:
		dd := m.dropdowns[r.id]
		cmd := dd.ClickOption(r.row)
		m.dropdowns[r.id] = dd
		return m, cmd
	case regionStep:
		mods.Ctrl = true
	}
	return m, m.click(r.id, mods)
}
