package tui

import (
	"os"
	"path/filepath"
)

// LogFilePath returns the log file for a repository.
// SMARTPICK_LOG_FILE overrides the default of <gitDir>/smartpick/smartpick.log.
func LogFilePath(gitDir string) string {
	if customPath := os.Getenv("SMARTPICK_LOG_FILE"); customPath != "" {
		return customPath
	}
	return filepath.Join(gitDir, "smartpick", "smartpick.log")
}
