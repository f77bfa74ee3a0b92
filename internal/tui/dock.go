// internal/tui/dock.go
//
// This is the focus-dock TUI for ember: a fullscreen countdown for one
// focus block. It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: Your application state
// 2. Update: A function that updates state based on messages
// 3. View: A function that renders state to a string
//
// The flow is: User Input -> Message -> Update -> New Model -> View -> Screen

package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/timer"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/emberfocus/ember/internal/schema"
)

// Outcome is what the user did with the session when the dock closed.
type Outcome int

const (
	OutcomeQuit Outcome = iota
	OutcomeFinished
	OutcomeAbandoned
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Padding(1, 0)

	briefStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	actionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			PaddingLeft(2)

	pausedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			PaddingTop(1)
)

// Dock is the bubbletea model for one focus session.
type Dock struct {
	block   schema.Block
	brief   string
	actions []schema.SessionAction

	timer  timer.Model
	paused bool
	done   bool

	outcome Outcome
}

// NewDock builds the dock for a started session.
func NewDock(block schema.Block, brief string, actions []schema.SessionAction) Dock {
	minutes := block.PlannedDurationMinutes
	if minutes <= 0 {
		minutes = 25
	}
	return Dock{
		block:   block,
		brief:   brief,
		actions: actions,
		timer:   timer.New(time.Duration(minutes) * time.Minute),
	}
}

// Outcome reports how the session ended once the program exits.
func (d Dock) Outcome() Outcome {
	return d.outcome
}

// Init starts the countdown immediately.
func (d Dock) Init() tea.Cmd {
	return d.timer.Init()
}

// Update handles timer ticks and key presses.
func (d Dock) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case timer.TickMsg:
		var cmd tea.Cmd
		d.timer, cmd = d.timer.Update(msg)
		return d, cmd

	case timer.StartStopMsg:
		var cmd tea.Cmd
		d.timer, cmd = d.timer.Update(msg)
		return d, cmd

	case timer.TimeoutMsg:
		d.done = true
		d.outcome = OutcomeFinished
		return d, tea.Quit

	case tea.KeyMsg:
		switch msg.String() {
		case "p", " ":
			d.paused = !d.paused
			return d, d.timer.Toggle()
		case "f":
			// Finish early; the block still counts as completed.
			d.done = true
			d.outcome = OutcomeFinished
			return d, tea.Quit
		case "q", "ctrl+c", "esc":
			d.outcome = OutcomeQuit
			return d, tea.Quit
		case "a":
			d.outcome = OutcomeAbandoned
			return d, tea.Quit
		}
	}
	return d, nil
}

// View renders the dock.
func (d Dock) View() string {
	var b strings.Builder

	title := d.block.Title
	if title == "" {
		title = "Focus session"
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")

	if d.done {
		b.WriteString(timerStyle.Render("Done. Nice work."))
	} else {
		remaining := d.timer.Timeout.Round(time.Second)
		display := fmt.Sprintf("%02d:%02d", int(remaining.Minutes()), int(remaining.Seconds())%60)
		if d.paused {
			b.WriteString(timerStyle.Render(display) + " " + pausedStyle.Render("paused"))
		} else {
			b.WriteString(timerStyle.Render(display))
		}
	}
	b.WriteString("\n")

	if d.brief != "" {
		b.WriteString(briefStyle.Render(d.brief))
		b.WriteString("\n")
	}
	for _, action := range d.actions {
		line := "• " + action.Description
		if action.IsStretchGoal {
			line += " (stretch)"
		}
		b.WriteString(actionStyle.Render(line))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("p pause · f finish · a abandon · q quit"))
	b.WriteString("\n")
	return b.String()
}

// Run blocks until the session ends and reports the outcome.
func Run(block schema.Block, brief string, actions []schema.SessionAction) (Outcome, error) {
	program := tea.NewProgram(NewDock(block, brief, actions), tea.WithAltScreen())
	final, err := program.Run()
	if err != nil {
		return OutcomeQuit, fmt.Errorf("tui: run focus dock: %w", err)
	}
	dock, ok := final.(Dock)
	if !ok {
		return OutcomeQuit, fmt.Errorf("tui: unexpected final model %T", final)
	}
	return dock.Outcome(), nil
}
