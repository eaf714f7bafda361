package infra

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// DialogPrompter shows the recovery prompt as a native dialog via
// osascript. Show never blocks the caller: the dialog runs on its own
// goroutine and the outcome is delivered on the request's channel.
// On platforms without osascript the dialog call fails and the
// outcome defaults to clear, the fail-safe choice.
type DialogPrompter struct {
	runner CommandRunner
	logger *zap.Logger
}

// NewDialogPrompter creates the osascript-backed prompter.
func NewDialogPrompter(logger *zap.Logger) *DialogPrompter {
	return &DialogPrompter{runner: &RealCommandRunner{}, logger: logger}
}

// NewDialogPrompterWithRunner creates a prompter with an injected
// command runner (for testing).
func NewDialogPrompterWithRunner(runner CommandRunner, logger *zap.Logger) *DialogPrompter {
	return &DialogPrompter{runner: runner, logger: logger}
}

// Show opens the recovery dialog asynchronously.
func (p *DialogPrompter) Show(req domain.PromptRequest) {
	go func() {
		action := p.ask(req)
		req.Result <- domain.PromptOutcome{Seq: req.Seq, Action: action}
	}()
}

// Cancel is best effort: an open osascript dialog cannot be closed
// from outside, but its eventual outcome carries a stale seq and is
// dropped by the state machine.
func (p *DialogPrompter) Cancel(seq uint64) {}

func (p *DialogPrompter) ask(req domain.PromptRequest) domain.RecoveryAction {
	message := fmt.Sprintf("A %s was copied in %s:\n%s\n\nWhat should happen to it?",
		req.Kind, req.AppName, req.Preview)
	script := fmt.Sprintf(
		`display dialog %q with title "Clipboard Guard" buttons {"Clear", "Allow 60s", "Encrypt"} default button "Clear" with icon caution`,
		message)

	out, err := p.runner.Output("osascript", "-e", script)
	if err != nil {
		// Dialog dismissed or unavailable: fail safe toward clearing.
		p.logger.Debug("recovery dialog failed", zap.Error(err))
		return domain.ActionClear
	}

	answer := strings.ToLower(string(out))
	switch {
	case strings.Contains(answer, "allow"):
		return domain.ActionAllow
	case strings.Contains(answer, "encrypt"):
		return domain.ActionEncrypt
	default:
		return domain.ActionClear
	}
}

// Ensure DialogPrompter implements domain.Prompter.
var _ domain.Prompter = (*DialogPrompter)(nil)
