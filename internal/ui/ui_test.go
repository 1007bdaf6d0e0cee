package ui

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestHeaderRender(t *testing.T) {
	h := NewHeader("new medication", "medentry", Param{"Mode", "keyboard"}, Param{"Step", "2 of 6"}).SetWidth(70)
	out := h.Render()

	for _, want := range []string{"NEW MEDICATION", "medentry", "Mode:", "keyboard", "Step:"} {
		if !strings.Contains(out, want) {
			t.Errorf("header missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "Mode:") > strings.Index(out, "Step:") {
		t.Error("params should render in order")
	}
}

func TestAlertRender(t *testing.T) {
	a := Alert{
		Kind:    AlertCritical,
		Title:   "Form needs to be reloaded",
		Message: "focus target vanished",
		Extra:   "component: form\nattempt: 3 of 3",
		Actions: []string{"Reload form", "Try again"},
		Width:   80,
	}

	collapsed := a.Render()
	if !strings.Contains(collapsed, "CRITICAL") || !strings.Contains(collapsed, "Reload form") {
		t.Errorf("unexpected render:\n%s", collapsed)
	}
	if strings.Contains(collapsed, "attempt: 3 of 3") {
		t.Error("details should be collapsed by default")
	}

	a.Expand = true
	if !strings.Contains(a.Render(), "attempt: 3 of 3") {
		t.Error("expanded alert should show details")
	}
}

func TestClampWidth(t *testing.T) {
	tests := []struct{ in, want int }{
		{10, MinTerminalWidth},
		{80, 80},
		{500, MaxContentWidth},
	}
	for _, tt := range tests {
		if got := ClampWidth(tt.in); got != tt.want {
			t.Errorf("ClampWidth(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestPrinterConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"\n", false},
		{"", false},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		p := NewPrinter(&buf)
		if got := p.Confirm(strings.NewReader(tt.input), "Overwrite config", "existing settings are replaced"); got != tt.want {
			t.Errorf("Confirm(%q) = %v, want %v", tt.input, got, tt.want)
		}
		if !strings.Contains(buf.String(), "Overwrite config") {
			t.Error("confirm should print the warning box")
		}
	}
}

func TestPrinterError(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintError("Load failed", errors.New("bad yaml"), "run medentry config init")
	out := buf.String()
	if !strings.Contains(out, "bad yaml") || !strings.Contains(out, "config init") {
		t.Errorf("unexpected output:\n%s", out)
	}
}
