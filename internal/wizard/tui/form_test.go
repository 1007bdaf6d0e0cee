package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/medentry/internal/config"
	"github.com/muurk/medentry/internal/focus"
	"github.com/muurk/medentry/internal/recovery"
)

// cmdTimeout skips commands that only wait, such as cursor blinks
const cmdTimeout = 100 * time.Millisecond

type harness struct {
	t         *testing.T
	m         FormModel
	saved     []Medication
	cancelled bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	settings, err := config.Load(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	m, err := NewFormModel(FormOptions{
		Settings:  settings,
		Scheduler: &focus.ImmediateScheduler{},
		Logger:    zap.NewNop(),
		Context:   context.Background(),
	})
	if err != nil {
		t.Fatalf("NewFormModel() error = %v", err)
	}
	h := &harness{t: t, m: m}
	h.do(m.focusFirst())
	return h
}

func execCmd(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(cmdTimeout):
		return nil, false
	}
}

// do runs cmd and feeds its messages back into the form until it settles
func (h *harness) do(cmd tea.Cmd) {
	h.t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		if steps > 200 {
			h.t.Fatal("form did not settle")
		}
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := execCmd(c)
		if !ok || msg == nil {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
		case focusChangedMsg:
			// widgets are synced when the navigation reports back
		case SavedMsg:
			h.saved = append(h.saved, msg.Medication)
		case CancelledMsg:
			h.cancelled = true
		default:
			var next tea.Cmd
			h.m, next = h.m.Update(msg)
			queue = append(queue, next)
		}
	}
}

var namedKeys = map[string]tea.KeyType{
	"tab":       tea.KeyTab,
	"shift+tab": tea.KeyShiftTab,
	"esc":       tea.KeyEsc,
	"enter":     tea.KeyEnter,
	"space":     tea.KeySpace,
	"backspace": tea.KeyBackspace,
	"ctrl+s":    tea.KeyCtrlS,
	"ctrl+home": tea.KeyCtrlHome,
	"ctrl+end":  tea.KeyCtrlEnd,
	"f1":        tea.KeyF1,
	"down":      tea.KeyDown,
	"left":      tea.KeyLeft,
	"right":     tea.KeyRight,
}

func (h *harness) key(name string) {
	h.t.Helper()
	var msg tea.KeyMsg
	if kt, ok := namedKeys[name]; ok {
		msg = tea.KeyMsg{Type: kt}
	} else {
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(name)}
	}
	var cmd tea.Cmd
	h.m, cmd = h.m.Update(msg)
	h.do(cmd)
}

// typeText sends runes one at a time; widget commands are blinks only
func (h *harness) typeText(s string) {
	for _, r := range s {
		h.m, _ = h.m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
}

func (h *harness) clickAt(x, y int, ctrl bool) {
	h.t.Helper()
	var cmd tea.Cmd
	h.m, cmd = h.m.Update(tea.MouseMsg{
		X: x, Y: y, Ctrl: ctrl,
		Action: tea.MouseActionPress,
		Button: tea.MouseButtonLeft,
	})
	h.do(cmd)
}

func (h *harness) regionOf(id string, kind regionKind) region {
	h.t.Helper()
	_, regions := h.m.renderForm()
	for _, r := range regions {
		if r.id == id && r.kind == kind {
			return r
		}
	}
	h.t.Fatalf("no region for %q", id)
	return region{}
}

func (h *harness) wantActive(id string) {
	h.t.Helper()
	if got := h.m.ActiveID(); got != id {
		h.t.Fatalf("ActiveID() = %q, want %q", got, id)
	}
	if got := h.m.Manager().CurrentID(); got != id {
		h.t.Fatalf("CurrentID() = %q, want %q", got, id)
	}
}

// fillRequired completes every required field starting from the drug field
func (h *harness) fillRequired() {
	h.t.Helper()
	h.typeText("Ibup")
	h.key("enter")
	h.key("tab")
	h.typeText("200")
	h.key("tab")
	h.typeText("mg")
	h.key("enter")
	h.key("tab")
	h.typeText("Once")
	h.key("enter")
}

func TestFirstFocusLandsOnMedication(t *testing.T) {
	h := newHarness(t)
	h.wantActive(FieldDrug)
	if !h.m.dropdowns[FieldDrug].Focused() {
		t.Error("drug dropdown not focused")
	}
}

func TestTabOrder(t *testing.T) {
	h := newHarness(t)
	want := []string{FieldDose, FieldUnit, FieldFrequency, FieldStart, FieldNotes, FieldAsNeeded, FieldSave, FieldCancel}
	for _, id := range want {
		h.key("tab")
		h.wantActive(id)
	}

	h.key("shift+tab")
	h.wantActive(FieldSave)

	h.key("ctrl+home")
	h.wantActive(FieldDrug)
	h.key("ctrl+end")
	h.wantActive(FieldCancel)

	if mode := h.m.Manager().GetNavigationMode(); mode != focus.ModeKeyboard {
		t.Errorf("GetNavigationMode() = %q, want keyboard", mode)
	}
}

func TestInvalidFieldKeepsFocus(t *testing.T) {
	tests := []struct {
		name  string
		field string
		bad   string
		good  string
		next  string
		msg   string
	}{
		{"dose", FieldDose, "abc", "2.5", FieldUnit, "positive number"},
		{"negative dose", FieldDose, "-1", "10", FieldUnit, "positive number"},
		{"start date", FieldStart, "next week", "2026-01-31", FieldNotes, DateLayout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			for h.m.ActiveID() != tt.field {
				h.key("tab")
			}

			h.typeText(tt.bad)
			h.key("tab")
			h.wantActive(tt.field)
			if !strings.Contains(h.m.Status(), tt.msg) {
				t.Errorf("Status() = %q, want it to mention %q", h.m.Status(), tt.msg)
			}

			for range tt.bad {
				h.key("backspace")
			}
			h.typeText(tt.good)
			h.key("tab")
			h.wantActive(tt.next)
		})
	}
}

func TestSaveReportsMissingFields(t *testing.T) {
	h := newHarness(t)
	h.key("tab")
	h.key("ctrl+s")

	if got := h.m.Status(); got != "Required: Medication, Dose, Unit, Frequency" {
		t.Errorf("Status() = %q", got)
	}
	h.wantActive(FieldDrug)
	if h.m.Manager().ModalDepth() != 0 {
		t.Error("confirm dialog opened with missing fields")
	}
}

func TestConfirmSave(t *testing.T) {
	h := newHarness(t)
	h.fillRequired()
	h.key("ctrl+s")

	h.wantActive(ButtonConfirmSave)
	if d := h.m.Manager().ModalDepth(); d != 1 {
		t.Fatalf("ModalDepth() = %d, want 1", d)
	}
	if view := h.m.View(); !strings.Contains(view, "Save this medication?") {
		t.Error("confirm dialog not rendered")
	}

	// Tab stays inside the dialog
	h.key("tab")
	h.wantActive(ButtonConfirmBack)
	h.key("tab")
	h.wantActive(ButtonConfirmSave)

	h.key("enter")
	if len(h.saved) != 1 {
		t.Fatalf("saved %d records, want 1", len(h.saved))
	}
	got := h.saved[0]
	if got.Drug != "Ibuprofen" || got.Custom || got.Dose != 200 || got.Unit != "mg" || got.Frequency != "Once daily" {
		t.Errorf("saved %+v", got)
	}
	if d := h.m.Manager().ModalDepth(); d != 0 {
		t.Errorf("ModalDepth() = %d after save, want 0", d)
	}
	h.wantActive(FieldSave)
}

func TestConfirmEscapeRestoresSave(t *testing.T) {
	h := newHarness(t)
	h.fillRequired()
	h.key("ctrl+s")
	h.wantActive(ButtonConfirmSave)

	h.key("esc")
	if d := h.m.Manager().ModalDepth(); d != 0 {
		t.Fatalf("ModalDepth() = %d, want 0", d)
	}
	h.wantActive(FieldSave)
	if len(h.saved) != 0 {
		t.Error("escape saved the record")
	}
}

func TestCustomMedication(t *testing.T) {
	h := newHarness(t)
	h.typeText("Zz custom")
	h.key("enter")

	sel, ok := h.m.dropdowns[FieldDrug].Value()
	if !ok || !sel.Custom || sel.Item.Label != "Zz custom" {
		t.Fatalf("Value() = %+v, %v", sel, ok)
	}
}

func TestHelpDialog(t *testing.T) {
	h := newHarness(t)
	h.key("tab")
	h.key("f1")
	h.wantActive(ButtonHelpClose)

	h.key("tab")
	h.wantActive(ButtonHelpClose)

	h.key("esc")
	h.wantActive(FieldDose)
	if h.m.surface.Mounted(ButtonHelpClose) {
		t.Error("help button still mounted after close")
	}
}

func TestCheckboxToggle(t *testing.T) {
	h := newHarness(t)
	for h.m.ActiveID() != FieldAsNeeded {
		h.key("tab")
	}
	h.key("space")
	if !h.m.values.isChecked(FieldAsNeeded) {
		t.Fatal("space did not check the box")
	}
	h.key("enter")
	if h.m.values.isChecked(FieldAsNeeded) {
		t.Fatal("enter did not uncheck the box")
	}
}

func TestCancelButton(t *testing.T) {
	h := newHarness(t)
	h.key("ctrl+end")
	h.key("enter")
	if !h.cancelled {
		t.Error("cancel button did not cancel")
	}
}

func TestMouseClickFocusesField(t *testing.T) {
	h := newHarness(t)
	r := h.regionOf(FieldStart, regionField)
	h.clickAt(r.x+contentLeft+fieldIndent, r.y+contentTop, false)

	h.wantActive(FieldStart)
	if mode := h.m.Manager().GetNavigationMode(); mode != focus.ModeMouse {
		t.Errorf("GetNavigationMode() = %q, want mouse", mode)
	}

	h.key("tab")
	if mode := h.m.Manager().GetNavigationMode(); mode != focus.ModeHybrid {
		t.Errorf("GetNavigationMode() = %q, want hybrid", mode)
	}
}

func TestMouseClickButton(t *testing.T) {
	h := newHarness(t)
	r := h.regionOf(FieldCancel, regionField)
	h.clickAt(r.x+contentLeft+1, r.y+contentTop+1, false)
	if !h.cancelled {
		t.Error("clicking cancel did not cancel")
	}
}

func TestStepJump(t *testing.T) {
	h := newHarness(t)
	r := h.regionOf(FieldFrequency, regionStep)
	h.clickAt(r.x+contentLeft, r.y+contentTop, false)
	h.wantActive(FieldFrequency)

	// An invalid dose blocks jumping away
	h.key("shift+tab")
	h.key("shift+tab")
	h.wantActive(FieldDose)
	h.typeText("x")
	r = h.regionOf(FieldStart, regionStep)
	h.clickAt(r.x+contentLeft, r.y+contentTop, false)
	h.wantActive(FieldDose)
}

func TestDropdownOptionClick(t *testing.T) {
	h := newHarness(t)
	h.key("tab")
	h.key("tab")
	h.wantActive(FieldUnit)
	h.key("down")
	if !h.m.dropdowns[FieldUnit].IsOpen() {
		t.Fatal("down did not open the unit list")
	}

	var opt region
	_, regions := h.m.renderForm()
	for _, r := range regions {
		if r.id == FieldUnit && r.kind == regionOption && r.row == 1 {
			opt = r
		}
	}
	if opt.w == 0 {
		t.Fatal("no option regions")
	}
	h.clickAt(opt.x+contentLeft+2, opt.y+contentTop, false)

	sel, ok := h.m.dropdowns[FieldUnit].Value()
	if !ok || sel.Item.Label != "mcg" {
		t.Errorf("Value() = %+v, %v, want mcg", sel, ok)
	}
	if h.m.values.get(FieldUnit) != "mcg" {
		t.Errorf("field value = %q", h.m.values.get(FieldUnit))
	}
}

func TestSettingsChangeUpdatesDropdowns(t *testing.T) {
	h := newHarness(t)
	s := config.NewSettings()
	s.Dropdown.Fuzzy = true
	s.Dropdown.Wrap = false
	h.m, _ = h.m.Update(SettingsChangedMsg{Settings: s})

	for id, dd := range h.m.dropdowns {
		cfg := dd.Machine().Config()
		if !cfg.Fuzzy || cfg.Wrap {
			t.Errorf("%s config = %+v", id, cfg)
		}
	}
	if !h.m.dropdowns[FieldDrug].Machine().Config().AllowCustomValue {
		t.Error("per-field flags lost on reload")
	}
}

func TestFallbackAfterRepeatedErrors(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	for i := 0; i < 4; i++ {
		h.m.Boundary().Catch(ctx, "test", errors.New("surface lost focus"))
	}
	if p := h.m.Boundary().Phase(); p != recovery.PhaseRecoveryFailed {
		t.Fatalf("Phase() = %s, want recovery-failed", p)
	}

	view := h.m.View()
	if !strings.Contains(view, "Form needs to be reloaded") {
		t.Fatal("fallback not rendered")
	}
	if !strings.Contains(view, "Press d for technical details") {
		t.Error("details not collapsed")
	}
	h.key("d")
	if !strings.Contains(h.m.View(), "Details:") {
		t.Error("d did not expand details")
	}

	// Keys drive the alert, not the form
	before := h.m.ActiveID()
	h.key("tab")
	if h.m.ActiveID() != before {
		t.Error("tab navigated the form behind the alert")
	}
	h.key("shift+tab")

	h.key("enter") // Reload
	if p := h.m.Boundary().Phase(); p != recovery.PhaseHealthy {
		t.Fatalf("Phase() = %s after reload, want healthy", p)
	}
	if strings.Contains(h.m.View(), "Form needs to be reloaded") {
		t.Error("fallback still rendered after reload")
	}
}

func TestRecoveredErrorShowsAlert(t *testing.T) {
	h := newHarness(t)
	h.m.Boundary().Catch(context.Background(), "form", errors.New("Cannot read properties of undefined"))
	if p := h.m.Boundary().Phase(); p != recovery.PhaseHealthy {
		t.Fatalf("Phase() = %s, want healthy", p)
	}

	view := h.m.View()
	if !strings.Contains(view, "(recovered)") {
		t.Fatal("recovered alert not rendered")
	}
	if !strings.Contains(view, "Press d for technical details") {
		t.Error("details not collapsed")
	}
	h.key("d")
	if !strings.Contains(h.m.View(), "Details:") {
		t.Error("d did not expand details")
	}

	h.key("enter") // Dismiss
	if _, ok := h.m.Boundary().Fallback(); ok {
		t.Error("alert still pending after dismiss")
	}
	if strings.Contains(h.m.View(), "(recovered)") {
		t.Error("alert still rendered after dismiss")
	}
	if p := h.m.Boundary().Phase(); p != recovery.PhaseHealthy {
		t.Errorf("Phase() = %s after dismiss, want healthy", p)
	}

	// The form takes keys again
	before := h.m.ActiveID()
	h.key("tab")
	if h.m.ActiveID() == before {
		t.Error("tab did not move focus after dismiss")
	}
}

func TestUnmountedTargetIsLocalNoOp(t *testing.T) {
	h := newHarness(t)
	h.do(h.m.focusField("not-mounted"))

	h.wantActive(FieldDrug)
	if n := h.m.Boundary().Attempts(); n != 0 {
		t.Errorf("Attempts() = %d, want 0", n)
	}
	if _, ok := h.m.Boundary().Fallback(); ok {
		t.Error("registry miss reached the error boundary")
	}
	if strings.Contains(h.m.View(), "(recovered)") {
		t.Error("alert rendered for a registry miss")
	}
}
