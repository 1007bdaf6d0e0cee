package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/muurk/medentry/internal/config"
	"github.com/muurk/medentry/internal/ui"
)

// Screen represents the current active screen in the application
type Screen string

const (
	ScreenForm  Screen = "form"
	ScreenSaved Screen = "saved"
)

// savedKeyMap defines key bindings for the saved screen
type savedKeyMap struct {
	Another key.Binding
	Quit    key.Binding
}

// ShortHelp returns keybindings to be shown in the mini help view
func (k savedKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Another, k.Quit}
}

// FullHelp returns keybindings for the expanded help view
func (k savedKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Another, k.Quit}}
}

// AppModel is the top-level model: the form, then a confirmation screen
// for each saved record.
type AppModel struct {
	CurrentScreen Screen
	Form          FormModel
	Saved         []Medication

	Width  int
	Height int

	Help      help.Model
	SavedKeys savedKeyMap

	watcher *config.Watcher
}

// NewAppModel creates the application starting on the form. watcher may be
// nil; when set, reloaded settings are applied to the running form.
func NewAppModel(opts FormOptions, watcher *config.Watcher) (AppModel, error) {
	form, err := NewFormModel(opts)
	if err != nil {
		return AppModel{}, err
	}
	return AppModel{
		CurrentScreen: ScreenForm,
		Form:          form,
		Width:         form.Width,
		Height:        form.Height,
		Help:          help.New(),
		SavedKeys: savedKeyMap{
			Another: key.NewBinding(
				key.WithKeys("n", "enter"),
				key.WithHelp("n", "add another"),
			),
			Quit: key.NewBinding(
				key.WithKeys("q", "esc"),
				key.WithHelp("q", "quit"),
			),
		},
		watcher: watcher,
	}, nil
}

// watchSettingsCmd waits for the next reloaded settings file
func watchSettingsCmd(w *config.Watcher) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-w.Changed()
		if !ok {
			return nil
		}
		return SettingsChangedMsg{Settings: s}
	}
}

// Init initializes the application
func (m AppModel) Init() tea.Cmd {
	cmds := []tea.Cmd{m.Form.Init()}
	if m.watcher != nil {
		cmds = append(cmds, watchSettingsCmd(m.watcher))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages and routes them to the appropriate screen
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Help.Width = msg.Width

	case tea.KeyMsg:
		// Global quit handler
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.CurrentScreen == ScreenSaved {
			return m.handleSavedScreen(msg)
		}

	case SavedMsg:
		m.Saved = append(m.Saved, msg.Medication)
		m.CurrentScreen = ScreenSaved
		return m, nil

	case CancelledMsg:
		return m, tea.Quit

	case SettingsChangedMsg:
		var cmd tea.Cmd
		m.Form, cmd = m.Form.Update(msg)
		return m, tea.Batch(cmd, watchSettingsCmd(m.watcher))
	}

	var cmd tea.Cmd
	m.Form, cmd = m.Form.Update(msg)
	return m, cmd
}

// handleSavedScreen handles user input on the saved screen
func (m AppModel) handleSavedScreen(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.SavedKeys.Another):
		m.CurrentScreen = ScreenForm
		var cmd tea.Cmd
		m.Form, cmd = m.Form.Reset()
		return m, cmd
	case key.Matches(msg, m.SavedKeys.Quit):
		return m, tea.Quit
	}
	return m, nil
}

// View renders the current screen
func (m AppModel) View() string {
	if m.CurrentScreen == ScreenSaved {
		return m.renderSavedScreen()
	}
	return m.Form.View()
}

// renderSavedScreen lists everything saved this session
func (m AppModel) renderSavedScreen() string {
	last := m.Saved[len(m.Saved)-1]
	details := []ui.Param{
		{Key: "Medication", Value: last.Drug},
		{Key: "Dose", Value: fmt.Sprintf("%g %s", last.Dose, last.Unit)},
		{Key: "Frequency", Value: last.Frequency},
	}
	if !last.Start.IsZero() {
		details = append(details, ui.Param{Key: "Start", Value: last.Start.Format(DateLayout)})
	}
	if last.AsNeeded {
		details = append(details, ui.Param{Key: "As needed", Value: "yes"})
	}

	var b strings.Builder
	b.WriteString(ui.Alert{
		Kind:    ui.AlertSuccess,
		Title:   "Medication saved",
		Details: details,
		Width:   m.Width - 4,
	}.Render())

	if len(m.Saved) > 1 {
		b.WriteString("\n\n")
		b.WriteString(ui.TroubleshootingTitleStyle.Render("  This session:"))
		for _, med := range m.Saved {
			b.WriteString("\n")
			b.WriteString(ui.TroubleshootingItemStyle.Render("    " + ui.SuccessMarker + " " + med.String()))
		}
	}

	mode := string(m.Form.Manager().GetNavigationMode())
	return RenderApplicationContainer(b.String(), mode, m.Help.View(m.SavedKeys), m.Width, m.Height)
}

// Run starts the full-screen program and returns the records saved before
// the user quit.
func Run(ctx context.Context, opts FormOptions, watcher *config.Watcher) ([]Medication, error) {
	if opts.Context == nil {
		opts.Context = ctx
	}
	app, err := NewAppModel(opts, watcher)
	if err != nil {
		return nil, err
	}

	program := tea.NewProgram(app,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)
	final, err := program.Run()

	if serr := app.Form.Manager().Modes().Save(); serr != nil {
		app.Form.log.Warn("could not save navigation history", zap.Error(serr))
	}
	if err != nil {
		return nil, err
	}
	return final.(AppModel).Saved, nil
}
