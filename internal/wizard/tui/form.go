package tui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/medentry/internal/config"
	"github.com/muurk/medentry/internal/dropdown"
	"github.com/muurk/medentry/internal/focus"
	"github.com/muurk/medentry/internal/logging"
	"github.com/muurk/medentry/internal/recovery"
)

// Message types for async operations
type navDoneMsg struct {
	component string
	err       error
}

type clickDoneMsg struct {
	id      string
	jump    bool
	focused bool
	err     error
}

// SavedMsg is sent once the confirm dialog accepted the record
type SavedMsg struct {
	Medication Medication
}

// CancelledMsg is sent when the user abandons the form
type CancelledMsg struct{}

// SettingsChangedMsg carries settings reloaded from disk
type SettingsChangedMsg struct {
	Settings *config.Settings
}

// formKeyMap defines key bindings for the medication form
type formKeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	First    key.Binding
	Last     key.Binding
	Close    key.Binding
	Activate key.Binding
	Toggle   key.Binding
	Save     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k formKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Prev, k.Save, k.Help, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k formKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.First, k.Last},
		{k.Activate, k.Toggle, k.Close},
		{k.Save, k.Help, k.Quit},
	}
}

func defaultFormKeyMap() formKeyMap {
	return formKeyMap{
		Next: key.NewBinding(
			key.WithKeys(focus.KeyTab),
			key.WithHelp("tab", "next field"),
		),
		Prev: key.NewBinding(
			key.WithKeys(focus.KeyShiftTab),
			key.WithHelp("shift+tab", "previous field"),
		),
		First: key.NewBinding(
			key.WithKeys(focus.KeyHome),
			key.WithHelp("ctrl+home", "first field"),
		),
		Last: key.NewBinding(
			key.WithKeys(focus.KeyEnd),
			key.WithHelp("ctrl+end", "last field"),
		),
		Close: key.NewBinding(
			key.WithKeys(focus.KeyEscape),
			key.WithHelp("esc", "close dialog"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "next / press"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "space"),
			key.WithHelp("space", "toggle / press"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Help: key.NewBinding(
			key.WithKeys("f1"),
			key.WithHelp("f1", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "quit"),
		),
	}
}

// FormOptions configures a FormModel
type FormOptions struct {
	// Settings supplies dropdown and recovery tuning and persists the
	// navigation mode. Nil uses defaults without persistence.
	Settings  *config.Settings
	Scheduler focus.Scheduler
	Clock     focus.Clock
	Logger    *zap.Logger
	Context   context.Context
}

// FormModel is the medication-entry form. Every control is registered with
// a focus.Manager, which decides where focus goes; the model only mirrors
// the manager's placements onto its widgets.
type FormModel struct {
	Width  int
	Height int

	ctx      context.Context
	mgr      *focus.Manager
	surface  *formSurface
	service  *recovery.Service
	boundary *recovery.Boundary
	values   *fieldValues
	log      *zap.Logger

	specs     []fieldSpec
	buttons   []fieldSpec
	inputs    map[string]textinput.Model
	dropdowns map[string]dropdown.Model

	keys formKeyMap
	help help.Model

	status      string
	hovered     string
	pending     *Medication
	fallbackSel int
	showDetails bool
	dismissed   bool
}

// NewFormModel builds the form and registers its controls
func NewFormModel(opts FormOptions) (FormModel, error) {
	settings := opts.Settings
	if settings == nil {
		settings = config.NewSettings()
	}
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	base := opts.Logger
	if base == nil {
		base = logging.GetLogger()
	}
	log := base.Named("form")

	surface := newFormSurface()
	mopts := []focus.Option{
		focus.WithBaseScope(ScopeForm),
		focus.WithSurface(surface),
		focus.WithLogger(base),
	}
	if opts.Settings != nil {
		mopts = append(mopts, focus.WithModeStore(opts.Settings))
	}
	if opts.Scheduler != nil {
		mopts = append(mopts, focus.WithScheduler(opts.Scheduler))
	}
	if opts.Clock != nil {
		mopts = append(mopts, focus.WithClock(opts.Clock))
	}
	mgr := focus.New(mopts...)
	if err := mgr.RestoreMode(); err != nil {
		log.Warn("could not restore navigation mode", zap.Error(err))
	}

	m := FormModel{
		Width:     80,
		Height:    24,
		ctx:       ctx,
		mgr:       mgr,
		surface:   surface,
		values:    newFieldValues(),
		log:       log,
		specs:     formFields(),
		buttons:   modalButtons(),
		inputs:    make(map[string]textinput.Model),
		dropdowns: make(map[string]dropdown.Model),
		keys:      defaultFormKeyMap(),
		help:      help.New(),
	}

	for i, spec := range m.specs {
		if err := mgr.RegisterElement(m.element(spec, ScopeForm, i+1)); err != nil {
			return FormModel{}, err
		}
		surface.Mount(spec.ID)
		switch spec.Kind {
		case kindText:
			m.inputs[spec.ID] = newTextInput(spec)
		case kindDropdown:
			m.dropdowns[spec.ID] = newDropdown(spec, settings)
		}
	}
	order := make(map[string]int)
	for _, spec := range m.buttons {
		order[spec.Scope]++
		if err := mgr.RegisterElement(m.element(spec, spec.Scope, order[spec.Scope])); err != nil {
			return FormModel{}, err
		}
	}

	m.service = recovery.NewService(mgr, recovery.WithLogger(base))
	m.boundary = recovery.NewBoundary(m.service, mgr.Snapshot, mgr.Modes().LastAction, recovery.Options{
		MaxAttempts:  settings.Recovery.MaxAttempts,
		StableWindow: settings.StableWindow(),
		Logger:       base,
		Reload: func() {
			if err := mgr.Reinitialize(ctx); err != nil {
				log.Error("reload failed", zap.Error(err))
			}
		},
		OnPhase: func(p recovery.Phase) {
			log.Info("boundary phase changed", zap.Stringer("phase", p))
		},
	})
	return m, nil
}

func (m FormModel) element(spec fieldSpec, scope string, order int) focus.Element {
	return focus.Element{
		ID:         spec.ID,
		Scope:      scope,
		TabOrder:   order,
		Type:       spec.Type,
		Validators: m.values.validators(spec),
		Mouse:      spec.Mouse,
		Indicator: focus.Indicator{
			Label:       spec.Label,
			Icon:        spec.Icon,
			ShowInSteps: spec.Step,
		},
	}
}

func newTextInput(spec fieldSpec) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = spec.Placeholder
	ti.Prompt = ""
	ti.CharLimit = 40
	if spec.Type == focus.TypeTextarea {
		ti.CharLimit = 200
	}
	return ti
}

func newDropdown(spec fieldSpec, settings *config.Settings) dropdown.Model {
	cfg := spec.Dropdown
	cfg.Wrap = settings.Dropdown.Wrap
	cfg.Fuzzy = settings.Dropdown.Fuzzy
	return dropdown.New(spec.ID, spec.Placeholder, spec.Items, cfg)
}

// Manager exposes the focus manager driving the form
func (m FormModel) Manager() *focus.Manager { return m.mgr }

// Boundary exposes the error boundary guarding navigation
func (m FormModel) Boundary() *recovery.Boundary { return m.boundary }

// ActiveID returns the control holding real focus
func (m FormModel) ActiveID() string { return m.surface.ActiveID() }

// Status returns the message shown under the form
func (m FormModel) Status() string { return m.status }

// Init focuses the first field and starts listening for placements
func (m FormModel) Init() tea.Cmd {
	return tea.Batch(waitForFocus(m.surface), textinput.Blink, m.focusFirst())
}

func (m FormModel) focusFirst() tea.Cmd {
	mgr := m.mgr
	return m.guard("form", func(ctx context.Context) error {
		mgr.FocusFirst(ctx)
		return nil
	})
}

// guard runs fn on a command goroutine inside the error boundary and
// checks the focus invariant afterwards.
func (m FormModel) guard(component string, fn func(ctx context.Context) error) tea.Cmd {
	ctx, mgr, b := m.ctx, m.mgr, m.boundary
	return func() tea.Msg {
		err := b.Guard(ctx, component, func() error {
			if err := fn(ctx); err != nil {
				return err
			}
			return focus.ValidateInvariant(mgr.Snapshot(), mgr.Registry())
		})
		return navDoneMsg{component: component, err: err}
	}
}

// placementError keeps the failures the boundary should handle. Ordinary
// refusals and registry inconsistencies are local no-ops.
func placementError(res focus.Result) error {
	if focus.TypeOf(res.Err) == focus.ErrTypePlacement {
		return res.Err
	}
	return nil
}

func (m FormModel) navKey(k string) tea.Cmd {
	mgr := m.mgr
	return m.guard("keyboard", func(ctx context.Context) error {
		mgr.HandleKey(ctx, k)
		return nil
	})
}

func (m FormModel) focusField(id string) tea.Cmd {
	mgr := m.mgr
	return m.guard("form", func(ctx context.Context) error {
		return placementError(mgr.TryFocus(ctx, id))
	})
}

func (m FormModel) click(id string, mods focus.Modifiers) tea.Cmd {
	ctx, mgr, b := m.ctx, m.mgr, m.boundary
	return func() tea.Msg {
		var focused bool
		err := b.Guard(ctx, "click", func() error {
			focused = mgr.HandleClick(ctx, id, mods)
			return focus.ValidateInvariant(mgr.Snapshot(), mgr.Registry())
		})
		return clickDoneMsg{id: id, jump: mods.DirectJump(), focused: focused, err: err}
	}
}

// Update handles all messages for the form
func (m FormModel) Update(msg tea.Msg) (FormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case focusChangedMsg:
		return m, tea.Batch(waitForFocus(m.surface), m.syncFocus())

	case navDoneMsg:
		m.afterNav(msg.err)
		return m, m.syncFocus()

	case clickDoneMsg:
		m.afterNav(msg.err)
		cmd := m.syncFocus()
		if msg.focused && !msg.jump {
			var act tea.Cmd
			m, act = m.activateClicked(msg.id)
			cmd = tea.Batch(cmd, act)
		}
		return m, cmd

	case dropdown.SelectedMsg:
		m.values.set(msg.ID, msg.Selection.Item.Label)
		m.status = ""
		return m, nil

	case dropdown.MoveFocusMsg:
		k := focus.KeyTab
		if msg.Reverse {
			k = focus.KeyShiftTab
		}
		return m, m.navKey(k)

	case SettingsChangedMsg:
		m.applySettings(msg.Settings)
		return m, nil

	case tea.MouseMsg:
		return m.updateMouse(msg)

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

// afterNav updates the status line once a navigation finished
func (m *FormModel) afterNav(err error) {
	if err != nil {
		m.dismissed = false
		if m.boundary.Phase() == recovery.PhaseHealthy {
			m.status = "Recovered from a focus problem"
		}
		return
	}
	if ferr := m.values.fieldError(m.mgr.CurrentID()); ferr != nil {
		m.status = capitalize(ferr.Error())
	}
}

// syncFocus mirrors the surface's active element onto the widgets
func (m *FormModel) syncFocus() tea.Cmd {
	active := m.surface.ActiveID()
	var cmds []tea.Cmd
	for id, ti := range m.inputs {
		if id == active {
			if !ti.Focused() {
				cmds = append(cmds, ti.Focus())
			}
		} else if ti.Focused() {
			ti.Blur()
		}
		m.inputs[id] = ti
	}
	for id, dd := range m.dropdowns {
		if id == active {
			if !dd.Focused() {
				cmds = append(cmds, dd.Focus())
			}
		} else if dd.Focused() {
			dd.Blur()
		}
		m.dropdowns[id] = dd
	}
	return tea.Batch(cmds...)
}

func (m FormModel) updateKey(msg tea.KeyMsg) (FormModel, tea.Cmd) {
	if view, ok := m.fallback(); ok {
		return m.updateFallback(msg, view)
	}
	m.status = ""

	if top, open := m.mgr.Snapshot().TopModal(); open {
		return m.updateModal(msg, top.Scope)
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		return m.openModal(ScopeHelp, "")
	case key.Matches(msg, m.keys.Save):
		return m.trySave()
	}

	active := m.surface.ActiveID()
	if dd, ok := m.dropdowns[active]; ok && dd.Wants(msg) {
		var cmd tea.Cmd
		dd, cmd = dd.Update(msg)
		m.dropdowns[active] = dd
		m.values.set(active, dd.Text())
		return m, cmd
	}

	if key.Matches(msg, m.keys.Next, m.keys.Prev, m.keys.First, m.keys.Last, m.keys.Close) {
		return m, m.navKey(msg.String())
	}

	spec, ok := m.spec(active)
	if !ok {
		return m, nil
	}
	switch spec.Kind {
	case kindText:
		if key.Matches(msg, m.keys.Activate) {
			return m, m.navKey(focus.KeyTab)
		}
		ti := m.inputs[active]
		var cmd tea.Cmd
		ti, cmd = ti.Update(msg)
		m.inputs[active] = ti
		m.values.set(active, ti.Value())
		return m, cmd
	case kindCheckbox:
		if key.Matches(msg, m.keys.Activate, m.keys.Toggle) {
			m.values.toggle(active)
		}
	case kindButton:
		if key.Matches(msg, m.keys.Activate, m.keys.Toggle) {
			return m.activate(active)
		}
	}
	return m, nil
}

func (m FormModel) updateModal(msg tea.KeyMsg, scope string) (FormModel, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Close):
		mgr, s, ids := m.mgr, m.surface, m.scopeIDs(scope)
		return m, m.guard("modal", func(ctx context.Context) error {
			mgr.HandleKey(ctx, focus.KeyEscape)
			s.Unmount(ids...)
			return nil
		})
	case key.Matches(msg, m.keys.Next, m.keys.Prev, m.keys.First, m.keys.Last):
		return m, m.navKey(msg.String())
	case key.Matches(msg, m.keys.Activate, m.keys.Toggle):
		if active := m.surface.ActiveID(); active != "" {
			return m.activate(active)
		}
	}
	return m, nil
}

// activate presses a button
func (m FormModel) activate(id string) (FormModel, tea.Cmd) {
	switch id {
	case FieldSave:
		return m.trySave()
	case FieldCancel:
		return m, func() tea.Msg { return CancelledMsg{} }
	case ButtonConfirmSave:
		return m.confirm()
	case ButtonConfirmBack:
		return m, m.closeModal(ScopeConfirm)
	case ButtonHelpClose:
		return m, m.closeModal(ScopeHelp)
	}
	return m, nil
}

// activateClicked applies a click after the manager focused id
func (m FormModel) activateClicked(id string) (FormModel, tea.Cmd) {
	spec, ok := m.spec(id)
	if !ok {
		return m, nil
	}
	switch spec.Kind {
	case kindButton:
		return m.activate(id)
	case kindCheckbox:
		m.values.toggle(id)
	case kindDropdown:
		dd := m.dropdowns[id]
		dd.Toggle()
		m.dropdowns[id] = dd
	}
	return m, nil
}

func (m FormModel) openModal(scope, restoreID string) (FormModel, tea.Cmd) {
	ids := m.scopeIDs(scope)
	m.surface.Mount(ids...)
	mgr := m.mgr
	return m, m.guard("modal", func(ctx context.Context) error {
		err := mgr.OpenModal(ctx, scope, focus.ModalOptions{RestoreID: restoreID})
		if focus.TypeOf(err) == focus.ErrTypeModalOpen {
			return nil
		}
		return err
	})
}

func (m FormModel) closeModal(scope string) tea.Cmd {
	mgr, s, ids, log := m.mgr, m.surface, m.scopeIDs(scope), m.log
	return m.guard("modal", func(ctx context.Context) error {
		if err := mgr.CloseModal(ctx, scope); err != nil {
			log.Debug("close dialog ignored", zap.String("scope", scope), zap.Error(err))
		}
		s.Unmount(ids...)
		return nil
	})
}

// trySave checks the form and opens the confirm dialog, or focuses the
// first missing field.
func (m FormModel) trySave() (FormModel, tea.Cmd) {
	med, missing, err := m.collect()
	if len(missing) > 0 {
		labels := make([]string, len(missing))
		for i, id := range missing {
			spec, _ := m.spec(id)
			labels[i] = spec.Label
		}
		m.status = "Required: " + strings.Join(labels, ", ")
		return m, m.focusField(missing[0])
	}
	if err != nil {
		m.status = capitalize(err.Error())
		return m, nil
	}
	m.pending = &med
	return m.openModal(ScopeConfirm, FieldSave)
}

// confirm closes the dialog and reports the saved record
func (m FormModel) confirm() (FormModel, tea.Cmd) {
	if m.pending == nil {
		return m, m.closeModal(ScopeConfirm)
	}
	med := *m.pending
	closeCmd := m.closeModal(ScopeConfirm)
	m.log.Info("medication saved", zap.String("drug", med.Drug), zap.Bool("custom", med.Custom))
	return m, func() tea.Msg {
		closeCmd()
		return SavedMsg{Medication: med}
	}
}

// collect builds the record from the widgets. missing lists required
// fields without a value, in tab order.
func (m FormModel) collect() (Medication, []string, error) {
	var med Medication
	var missing []string

	if sel, ok := m.dropdowns[FieldDrug].Value(); ok {
		med.Drug = sel.Item.Label
		med.Custom = sel.Custom
	} else {
		missing = append(missing, FieldDrug)
	}

	if text := strings.TrimSpace(m.values.get(FieldDose)); text == "" {
		missing = append(missing, FieldDose)
	} else if d, err := parseDose(text); err == nil {
		med.Dose = d
	}

	for _, id := range []string{FieldUnit, FieldFrequency} {
		sel, ok := m.dropdowns[id].Value()
		if !ok {
			missing = append(missing, id)
			continue
		}
		if id == FieldUnit {
			med.Unit = sel.Item.Label
		} else {
			med.Frequency = sel.Item.Label
		}
	}

	if len(missing) > 0 {
		return med, missing, nil
	}
	for _, id := range []string{FieldDose, FieldStart} {
		if err := m.values.fieldError(id); err != nil {
			return med, nil, err
		}
	}
	med.Start, _ = parseStart(m.values.get(FieldStart))
	med.Notes = strings.TrimSpace(m.values.get(FieldNotes))
	med.AsNeeded = m.values.isChecked(FieldAsNeeded)
	return med, nil, nil
}

// Reset clears every control and focuses the first field
func (m FormModel) Reset() (FormModel, tea.Cmd) {
	m.resetValues()
	return m, m.focusFirst()
}

func (m *FormModel) resetValues() {
	m.values.reset()
	m.pending = nil
	m.status = ""
	for id, ti := range m.inputs {
		ti.SetValue("")
		m.inputs[id] = ti
	}
	settings := config.NewSettings()
	for id, dd := range m.dropdowns {
		spec, _ := m.spec(id)
		fresh := newDropdown(spec, settings)
		fresh.Machine().SetConfig(dd.Machine().Config())
		m.dropdowns[id] = fresh
	}
}

func (m *FormModel) applySettings(s *config.Settings) {
	for id, dd := range m.dropdowns {
		cfg := dd.Machine().Config()
		cfg.Wrap = s.Dropdown.Wrap
		cfg.Fuzzy = s.Dropdown.Fuzzy
		dd.Machine().SetConfig(cfg)
		m.dropdowns[id] = dd
	}
	m.log.Info("settings reloaded", zap.Bool("wrap", s.Dropdown.Wrap), zap.Bool("fuzzy", s.Dropdown.Fuzzy))
}

// fallback returns the boundary's alert unless the user dismissed it
func (m FormModel) fallback() (recovery.FallbackView, bool) {
	if m.dismissed {
		return recovery.FallbackView{}, false
	}
	return m.boundary.Fallback()
}

// updateFallback operates the alert with plain keys; the focus manager is
// not involved while it shows.
func (m FormModel) updateFallback(msg tea.KeyMsg, view recovery.FallbackView) (FormModel, tea.Cmd) {
	n := len(view.Actions)
	switch msg.String() {
	case "left", "shift+tab":
		if n > 0 {
			m.fallbackSel = (m.fallbackSel - 1 + n) % n
		}
	case "right", "tab":
		if n > 0 {
			m.fallbackSel = (m.fallbackSel + 1) % n
		}
	case "d":
		m.showDetails = !m.showDetails
	case "enter", " ":
		if n > 0 {
			return m.runFallback(view.Actions[m.fallbackSel%n])
		}
	}
	return m, nil
}

func (m FormModel) runFallback(a recovery.FallbackAction) (FormModel, tea.Cmd) {
	m.fallbackSel = 0
	m.showDetails = false
	switch a {
	case recovery.ActionTryAgain:
		if att := m.boundary.ManualReset(m.ctx); !att.Success {
			m.status = "Reset failed: " + att.Message
		}
	case recovery.ActionReload:
		m.boundary.Reload()
		m.resetValues()
		m.surface.Unmount(m.scopeIDs(ScopeConfirm)...)
		m.surface.Unmount(m.scopeIDs(ScopeHelp)...)
	case recovery.ActionDismiss:
		if m.boundary.Phase() == recovery.PhaseHealthy {
			m.boundary.Dismiss()
		} else {
			m.dismissed = true
		}
	}
	return m, m.syncFocus()
}

func (m FormModel) spec(id string) (fieldSpec, bool) {
	for _, s := range m.specs {
		if s.ID == id {
			return s, true
		}
	}
	for _, s := range m.buttons {
		if s.ID == id {
			return s, true
		}
	}
	return fieldSpec{}, false
}

func (m FormModel) scopeIDs(scope string) []string {
	var ids []string
	for _, s := range m.buttons {
		if s.Scope == scope {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
