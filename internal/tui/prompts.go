package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// ErrInteractiveDisabled is returned when prompts are disabled via SMARTPICK_NON_INTERACTIVE
var ErrInteractiveDisabled = errors.New("interactive prompts are disabled (SMARTPICK_NON_INTERACTIVE is set)")

// ErrCanceled is returned when the user backs out of a prompt
var ErrCanceled = errors.New("canceled")

func checkInteractiveAllowed() error {
	if os.Getenv("SMARTPICK_NON_INTERACTIVE") != "" {
		return ErrInteractiveDisabled
	}
	return nil
}

// confirmModel is a yes/no confirmation prompt
type confirmModel struct {
	prompt string
	choice bool
	done   bool
	err    error
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyEnter:
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.err = ErrCanceled
			m.done = true
			return m, tea.Quit
		case tea.KeyRunes:
			switch strings.ToLower(string(msg.Runes)) {
			case "y":
				m.choice = true
				m.done = true
				return m, tea.Quit
			case "n":
				m.choice = false
				m.done = true
				return m, tea.Quit
			}
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	yesNo := "[y/N]"
	if m.choice {
		yesNo = "[Y/n]"
	}
	return lipgloss.NewStyle().Margin(1, 0).
		Render(fmt.Sprintf("%s %s\n\n(Press y or n, Enter to accept the default, Ctrl+C to cancel)", m.prompt, yesNo))
}

// PromptConfirm asks a yes/no question
func PromptConfirm(prompt string, defaultValue bool) (bool, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return false, err
	}

	p := tea.NewProgram(confirmModel{prompt: prompt, choice: defaultValue}, tea.WithInput(os.Stdin), tea.WithOutput(os.Stdout))
	model, err := p.Run()
	if err != nil {
		return false, err
	}
	finalModel, ok := model.(confirmModel)
	if !ok {
		return false, fmt.Errorf("unexpected model type")
	}
	if finalModel.err != nil {
		return false, finalModel.err
	}
	return finalModel.choice, nil
}

// ConflictAction is what the user wants to do with a paused conflict
type ConflictAction string

const (
	ActionResolve ConflictAction = "resolve"
	ActionSkip    ConflictAction = "skip"
	ActionAbort   ConflictAction = "abort"
)

var conflictOptions = []struct {
	label  string
	action ConflictAction
}{
	{"Resolve it myself, then run smartpick resume", ActionResolve},
	{"Skip this commit and continue", ActionSkip},
	{"Abort the whole run", ActionAbort},
}

// PromptConflictAction asks how to proceed with a commit that needs manual resolution
func PromptConflictAction(commit string) (ConflictAction, error) {
	if err := checkInteractiveAllowed(); err != nil {
		return "", err
	}

	labels := make([]string, len(conflictOptions))
	for i, o := range conflictOptions {
		labels[i] = o.label
	}
	var choice string
	prompt := &survey.Select{
		Message: fmt.Sprintf("Commit %s needs manual resolution. What now?", commit),
		Options: labels,
	}
	if err := survey.AskOne(prompt, &choice); err != nil {
		return "", ErrCanceled
	}
	return conflictActionFor(choice)
}

func conflictActionFor(label string) (ConflictAction, error) {
	for _, o := range conflictOptions {
		if o.label == label {
			return o.action, nil
		}
	}
	return "", fmt.Errorf("unknown choice %q", label)
}
