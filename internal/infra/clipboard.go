// Package infra implements infrastructure concerns (clipboard, app
// lookup, prompting, history persistence).
package infra

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// SystemClipboard implements domain.Clipboard using atotto/clipboard
// for cross-platform support.
type SystemClipboard struct{}

// NewSystemClipboard creates the system clipboard adapter.
func NewSystemClipboard() domain.Clipboard {
	return &SystemClipboard{}
}

// Read returns the current clipboard text.
func (c *SystemClipboard) Read() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to read clipboard: %w", err)
	}
	return text, nil
}

// Write replaces the clipboard content.
func (c *SystemClipboard) Write(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("failed to write clipboard: %w", err)
	}
	return nil
}

// Clear overwrites the clipboard with an empty string.
func (c *SystemClipboard) Clear() error {
	return c.Write("")
}

// Ensure SystemClipboard implements domain.Clipboard.
var _ domain.Clipboard = (*SystemClipboard)(nil)
