package infra

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// DesktopNotifier emits notifications via osascript on macOS and
// notify-send elsewhere. Best effort: failures are logged at debug
// and swallowed, per the fire-and-forget contract.
type DesktopNotifier struct {
	runner CommandRunner
	logger *zap.Logger
}

// NewDesktopNotifier creates the notifier.
func NewDesktopNotifier(logger *zap.Logger) *DesktopNotifier {
	return &DesktopNotifier{runner: &RealCommandRunner{}, logger: logger}
}

// NewDesktopNotifierWithRunner creates a notifier with an injected
// command runner (for testing).
func NewDesktopNotifierWithRunner(runner CommandRunner, logger *zap.Logger) *DesktopNotifier {
	return &DesktopNotifier{runner: runner, logger: logger}
}

// Notify shows a transient desktop notification.
func (n *DesktopNotifier) Notify(title, message string) {
	script := fmt.Sprintf(`display notification %q with title %q`, message, title)
	if err := n.runner.Run("osascript", "-e", script); err == nil {
		return
	}
	if err := n.runner.Run("notify-send", title, message); err != nil {
		n.logger.Debug("notification failed", zap.String("title", title), zap.Error(err))
	}
}

// Ensure DesktopNotifier implements domain.Notifier.
var _ domain.Notifier = (*DesktopNotifier)(nil)
