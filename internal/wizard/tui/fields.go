package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/muurk/medentry/internal/dropdown"
	"github.com/muurk/medentry/internal/focus"
)

// Focus scopes
const (
	ScopeForm    = "form"
	ScopeConfirm = "confirm"
	ScopeHelp    = "help"
)

// Element ids
const (
	FieldDrug      = "drug"
	FieldDose      = "dose"
	FieldUnit      = "unit"
	FieldFrequency = "frequency"
	FieldStart     = "start"
	FieldNotes     = "notes"
	FieldAsNeeded  = "as-needed"
	FieldSave      = "save"
	FieldCancel    = "cancel"

	ButtonConfirmSave = "confirm-save"
	ButtonConfirmBack = "confirm-back"
	ButtonHelpClose   = "help-close"
)

// DateLayout is the accepted start date format
const DateLayout = "2006-01-02"

type fieldKind int

const (
	kindText fieldKind = iota
	kindDropdown
	kindCheckbox
	kindButton
)

// fieldSpec describes one control of the medication form
type fieldSpec struct {
	ID          string
	Label       string
	Icon        string
	Kind        fieldKind
	Type        focus.ElementType
	Scope       string
	Placeholder string
	Items       []dropdown.Item
	Dropdown    dropdown.Config
	Step        bool
	Mouse       focus.MousePolicy
}

func items(labels ...string) []dropdown.Item {
	out := make([]dropdown.Item, len(labels))
	for i, l := range labels {
		out[i] = dropdown.Item{Value: strings.ToLower(strings.ReplaceAll(l, " ", "-")), Label: l}
	}
	return out
}

// DrugCatalog is the list offered by the medication dropdown
var DrugCatalog = items(
	"Amoxicillin", "Aspirin", "Atorvastatin", "Cetirizine", "Ibuprofen",
	"Levothyroxine", "Lisinopril", "Metformin", "Omeprazole", "Paracetamol",
	"Salbutamol", "Sertraline", "Simvastatin", "Warfarin",
)

var (
	doseUnits   = items("mg", "mcg", "g", "mL", "units", "puffs", "tablets")
	frequencies = items("Once daily", "Twice daily", "Three times daily", "Four times daily",
		"Every 4 hours", "Every 8 hours", "At night", "Weekly")
)

// formFields returns the controls of the base scope in tab order
func formFields() []fieldSpec {
	jump := focus.MousePolicy{AllowDirectJump: true}
	return []fieldSpec{
		{ID: FieldDrug, Label: "Medication", Icon: "℞", Kind: kindDropdown, Type: focus.TypeSelect,
			Placeholder: "start typing a drug name", Items: DrugCatalog, Step: true, Mouse: jump,
			Dropdown: dropdown.Config{AllowCustomValue: true, SelectOnTab: true}},
		{ID: FieldDose, Label: "Dose", Icon: "#", Kind: kindText, Type: focus.TypeInput,
			Placeholder: "e.g. 500", Step: true, Mouse: jump},
		{ID: FieldUnit, Label: "Unit", Icon: "⚖", Kind: kindDropdown, Type: focus.TypeSelect,
			Placeholder: "mg", Items: doseUnits, Step: true, Mouse: jump,
			Dropdown: dropdown.Config{EnableTabAsArrows: true}},
		{ID: FieldFrequency, Label: "Frequency", Icon: "↻", Kind: kindDropdown, Type: focus.TypeSelect,
			Placeholder: "how often", Items: frequencies, Step: true, Mouse: jump,
			Dropdown: dropdown.Config{SelectOnTab: true}},
		{ID: FieldStart, Label: "Start date", Icon: "▦", Kind: kindText, Type: focus.TypeDate,
			Placeholder: DateLayout, Step: true, Mouse: jump},
		{ID: FieldNotes, Label: "Notes", Kind: kindText, Type: focus.TypeTextarea,
			Placeholder: "optional"},
		{ID: FieldAsNeeded, Label: "As needed", Kind: kindCheckbox, Type: focus.TypeCheckbox},
		{ID: FieldSave, Label: "Save", Kind: kindButton, Type: focus.TypeButton},
		{ID: FieldCancel, Label: "Cancel", Kind: kindButton, Type: focus.TypeButton},
	}
}

// modalButtons returns the buttons of each dialog scope in tab order
func modalButtons() []fieldSpec {
	return []fieldSpec{
		{ID: ButtonConfirmSave, Label: "Save medication", Kind: kindButton, Type: focus.TypeButton, Scope: ScopeConfirm},
		{ID: ButtonConfirmBack, Label: "Keep editing", Kind: kindButton, Type: focus.TypeButton, Scope: ScopeConfirm},
		{ID: ButtonHelpClose, Label: "Close", Kind: kindButton, Type: focus.TypeButton, Scope: ScopeHelp},
	}
}

// fieldValues mirrors the text of each control. Validators run on command
// goroutines and read it instead of the widgets.
type fieldValues struct {
	mu      sync.Mutex
	text    map[string]string
	checked map[string]bool
}

func newFieldValues() *fieldValues {
	return &fieldValues{text: make(map[string]string), checked: make(map[string]bool)}
}

func (v *fieldValues) set(id, text string) {
	v.mu.Lock()
	v.text[id] = text
	v.mu.Unlock()
}

func (v *fieldValues) get(id string) string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.text[id]
}

func (v *fieldValues) toggle(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.checked[id] = !v.checked[id]
	return v.checked[id]
}

func (v *fieldValues) isChecked(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.checked[id]
}

func (v *fieldValues) reset() {
	v.mu.Lock()
	v.text = make(map[string]string)
	v.checked = make(map[string]bool)
	v.mu.Unlock()
}

// parseDose accepts a positive decimal number
func parseDose(s string) (float64, error) {
	d, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("dose must be a positive number")
	}
	return d, nil
}

// parseStart accepts an empty string or a date in DateLayout
func parseStart(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("start date must look like %s", DateLayout)
	}
	return t, nil
}

// fieldError reports why the text of id does not parse. Empty text is
// never an error here; required fields are checked on save.
func (v *fieldValues) fieldError(id string) error {
	text := strings.TrimSpace(v.get(id))
	if text == "" {
		return nil
	}
	var err error
	switch id {
	case FieldDose:
		_, err = parseDose(text)
	case FieldStart:
		_, err = parseStart(text)
	}
	return err
}

// validators returns the focus validators for spec. Fields with a parse
// rule keep focus until their text is valid.
func (v *fieldValues) validators(spec fieldSpec) focus.Validators {
	switch spec.ID {
	case FieldDose, FieldStart:
		id := spec.ID
		return focus.Validators{CanLeaveFocus: func(ctx context.Context) (bool, error) {
			return v.fieldError(id) == nil, nil
		}}
	}
	return focus.Validators{}
}

// Medication is the record produced by a confirmed save
type Medication struct {
	Drug      string
	Custom    bool // Drug typed by the user rather than picked from the catalog
	Dose      float64
	Unit      string
	Frequency string
	Start     time.Time
	Notes     string
	AsNeeded  bool
}

// String formats the record on one line
func (m Medication) String() string {
	s := fmt.Sprintf("%s %g %s, %s", m.Drug, m.Dose, m.Unit, strings.ToLower(m.Frequency))
	if m.AsNeeded {
		s += " as needed"
	}
	if !m.Start.IsZero() {
		s += " from " + m.Start.Format(DateLayout)
	}
	return s
}
