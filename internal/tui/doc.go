// Package tui provides the terminal user interface for smartpick.
//
// It handles:
//   - Console output and the rotating log file (Splog)
//   - Confirmation and conflict prompts (using bubbletea and survey)
//   - Terminal styling and colors (using lipgloss)
//   - The run progress bar (using mpb)
package tui
