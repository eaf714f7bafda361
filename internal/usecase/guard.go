// Package usecase contains application business logic.
package usecase

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eliteGoblin/clipguard/internal/codec"
	"github.com/eliteGoblin/clipguard/internal/detect"
	"github.com/eliteGoblin/clipguard/internal/domain"
	"github.com/eliteGoblin/clipguard/internal/policy"
)

// bulkLineLimit is the caller-side guard: text with more newline-
// delimited lines than this is treated as bulk/log paste and skipped
// before classification is even attempted.
const bulkLineLimit = 50

// GuardConfig holds the tunables of the state machine.
type GuardConfig struct {
	Policy            domain.AppPolicy
	AllowWindow       time.Duration // default 60s
	PromptCooldown    time.Duration // minimum gap between prompts
	ClearDelay        time.Duration // gap between the two defensive clears
	AutoClearHighRisk bool          // clear high-confidence hits without prompting
}

// DefaultGuardConfig returns the standard guard tunables.
func DefaultGuardConfig() GuardConfig {
	return GuardConfig{
		Policy:         domain.AppPolicy{SafeCopyMode: true},
		AllowWindow:    60 * time.Second,
		PromptCooldown: 1500 * time.Millisecond,
		ClearDelay:     100 * time.Millisecond,
	}
}

// Effects tells the poll loop what timer work a transition requires.
// Arming a new allow timer must replace any pending one, so the two
// flags are applied cancel-first.
type Effects struct {
	CancelAllow bool
	ArmAllow    bool
	Window      time.Duration
	Seq         uint64
}

// Guard is the clipboard guard state machine. All mutable state (the
// single live secret slot, the last observed sample, the prompt-open
// bookkeeping) is owned by the poll loop goroutine; methods must only
// be called from it.
type Guard struct {
	cfg       GuardConfig
	detector  *detect.Detector
	sharing   *codec.Sharing
	evaluator *policy.Evaluator
	clipboard domain.Clipboard
	resolver  domain.AppResolver
	history   domain.HistoryStore
	prompter  domain.Prompter
	notifier  domain.Notifier
	logger    *zap.Logger

	current      *domain.GuardedSecret
	lastSample   string
	lastPromptAt time.Time
	seq          uint64
	promptCh     chan domain.PromptOutcome
}

// NewGuard creates the state machine with its collaborators.
func NewGuard(
	cfg GuardConfig,
	detector *detect.Detector,
	sharing *codec.Sharing,
	clipboard domain.Clipboard,
	resolver domain.AppResolver,
	history domain.HistoryStore,
	prompter domain.Prompter,
	notifier domain.Notifier,
	logger *zap.Logger,
) *Guard {
	return &Guard{
		cfg:       cfg,
		detector:  detector,
		sharing:   sharing,
		evaluator: policy.NewEvaluator(),
		clipboard: clipboard,
		resolver:  resolver,
		history:   history,
		prompter:  prompter,
		notifier:  notifier,
		logger:    logger,
		promptCh:  make(chan domain.PromptOutcome, 4),
	}
}

// PromptResults is the channel the poll loop selects on for
// asynchronous prompt outcomes.
func (g *Guard) PromptResults() <-chan domain.PromptOutcome {
	return g.promptCh
}

// SetPolicy swaps the policy fields on configuration reload. Called
// from the poll loop goroutine only.
func (g *Guard) SetPolicy(p domain.AppPolicy) {
	g.cfg.Policy = p
}

// PrimeBaseline seeds the last-observed sample. Content already on
// the clipboard when the guard starts is not a copy event and must
// not be classified or prompted for.
func (g *Guard) PrimeBaseline(text string) {
	g.lastSample = text
}

// State returns the lifecycle state of the live instance, or
// StateNone when the slot is empty.
func (g *Guard) State() domain.GuardState {
	if g.current == nil {
		return domain.StateNone
	}
	return g.current.State
}

// HandleSample processes one poll tick's clipboard observation.
// Content change since the last tick is unconditionally a copy event;
// copy and paste are disambiguated purely by that change, never by
// which shortcut fired.
func (g *Guard) HandleSample(ctx context.Context, sample domain.ClipboardSample) Effects {
	var effects Effects

	text := sample.Text
	if text == g.lastSample {
		// Unchanged content is an idempotent no-op. While prompting,
		// this covers re-detection of the same secret. The exception
		// is an instance whose prompt was deferred by the cooldown:
		// it gets its prompt on the first tick after the cooldown
		// elapses.
		if g.current != nil && g.current.State == domain.StateDetected &&
			text == g.current.Content &&
			sample.ObservedAt.Sub(g.lastPromptAt) >= g.cfg.PromptCooldown {
			g.promptCurrent(sample.ObservedAt)
		}
		return effects
	}
	g.lastSample = text

	if text == "" {
		// Cleared by us or by another process; nothing to classify.
		return effects
	}

	// A distinct new value supersedes any live instance: its pending
	// prompt closes and its allow timer dies with it.
	if g.current != nil {
		if g.current.State == domain.StatePrompting {
			g.prompter.Cancel(g.current.Seq)
		}
		if g.current.State == domain.StateAllowed {
			effects.CancelAllow = true
		}
		g.current = nil
	}

	trimmed := strings.TrimSpace(text)

	if codec.IsEncryptedShared(trimmed) {
		g.record(ctx, false, "", trimmed, "")
		return effects
	}

	if g.matchesIgnorePattern(trimmed) {
		g.logger.Debug("clipboard value matches ignore pattern")
		g.record(ctx, false, "", trimmed, "")
		return effects
	}

	if strings.Count(text, "\n")+1 > bulkLineLimit {
		g.logger.Debug("skipping bulk paste", zap.Int("bytes", len(text)))
		return effects
	}

	match := g.detector.Classify(text)
	if !match.Detected {
		// Stored whole: non-secret entries back the restore path, so
		// truncation would silently corrupt the restored value.
		g.record(ctx, false, "", trimmed, "")
		return effects
	}

	appName := g.resolver.ActiveAppName()
	preview := codec.Preview(trimmed)

	g.logger.Info("secret detected in clipboard",
		zap.String("kind", match.Kind),
		zap.String("confidence", string(match.Confidence)),
		zap.String("app", appName),
		zap.String("preview", preview))

	if !g.cfg.Policy.SafeCopyMode || g.evaluator.IsAllowed(appName, g.cfg.Policy) {
		// Guard disabled or trusted app: record silently, no prompt.
		g.record(ctx, true, match.Kind, preview, appName)
		return effects
	}

	g.record(ctx, true, match.Kind, preview, appName)

	if g.cfg.AutoClearHighRisk && match.Confidence == domain.ConfidenceHigh {
		g.doubleClear()
		g.lastSample = ""
		g.notifier.Notify("Clipboard cleared", "A high-risk secret was removed from the clipboard")
		return effects
	}

	g.seq++
	g.current = &domain.GuardedSecret{
		Content:      text,
		Kind:         match.Kind,
		DiscoveredAt: sample.ObservedAt,
		State:        domain.StateDetected,
		Seq:          g.seq,
	}

	if !g.lastPromptAt.IsZero() && sample.ObservedAt.Sub(g.lastPromptAt) < g.cfg.PromptCooldown {
		// Cooldown against prompt storms from polling jitter around a
		// single real copy event. The instance stays pending in the
		// detected state; a later tick issues its prompt once the
		// cooldown has elapsed.
		g.logger.Debug("prompt deferred by cooldown", zap.Uint64("seq", g.seq))
		return effects
	}

	g.promptCurrent(sample.ObservedAt)
	return effects
}

// promptCurrent opens the recovery prompt for the pending instance.
// The app name is resolved at prompt time so a deferred prompt names
// the app actually in front of the user.
func (g *Guard) promptCurrent(at time.Time) {
	g.current.State = domain.StatePrompting
	g.lastPromptAt = at

	g.prompter.Show(domain.PromptRequest{
		Seq:     g.current.Seq,
		Preview: codec.Preview(strings.TrimSpace(g.current.Content)),
		Kind:    g.current.Kind,
		AppName: g.resolver.ActiveAppName(),
		Result:  g.promptCh,
	})
}

// HandlePromptChoice applies the user's recovery action. Outcomes for
// a superseded instance (stale seq) are dropped.
func (g *Guard) HandlePromptChoice(ctx context.Context, outcome domain.PromptOutcome) Effects {
	var effects Effects

	if g.current == nil || g.current.State != domain.StatePrompting || g.current.Seq != outcome.Seq {
		g.logger.Debug("dropping stale prompt outcome", zap.Uint64("seq", outcome.Seq))
		return effects
	}

	switch outcome.Action {
	case domain.ActionAllow:
		// Restore-to-clipboard variant: the secret may have been
		// cleared while the dialog was open, so write it back before
		// arming the expiry timer.
		if err := g.clipboard.Write(g.current.Content); err != nil {
			g.logger.Warn("failed to restore secret to clipboard", zap.Error(err))
		}
		g.lastSample = g.current.Content
		g.current.State = domain.StateAllowed
		g.current.AllowUntil = time.Now().Add(g.cfg.AllowWindow)
		effects.CancelAllow = true // replace any still-pending timer
		effects.ArmAllow = true
		effects.Window = g.cfg.AllowWindow
		effects.Seq = g.current.Seq
		g.logger.Info("secret allowed temporarily",
			zap.Duration("window", g.cfg.AllowWindow),
			zap.Uint64("seq", g.current.Seq))

	case domain.ActionEncrypt:
		token, err := g.sharing.EncryptForSharing(g.current.Content)
		if err != nil {
			g.logger.Error("failed to encrypt secret for sharing", zap.Error(err))
			g.clearCurrent()
			return effects
		}
		if err := g.clipboard.Write(token); err != nil {
			g.logger.Warn("failed to write encrypted token", zap.Error(err))
		}
		g.lastSample = token
		g.current.State = domain.StateEncrypted
		g.record(ctx, false, "", token, "")
		g.notifier.Notify("Encrypted and copied", "The clipboard now holds a safe shareable token")
		g.current = nil

	case domain.ActionClear, domain.ActionDismiss:
		g.clearCurrent()
		g.notifier.Notify("Clipboard cleared", "The detected secret was removed")

	default:
		g.logger.Warn("unknown recovery action", zap.String("action", string(outcome.Action)))
		g.clearCurrent()
	}

	return effects
}

// HandleAllowExpiry fires when an allow window ends. Stale seqs (a
// newer instance already replaced the timer) are dropped.
func (g *Guard) HandleAllowExpiry(ctx context.Context, seq uint64) {
	if g.current == nil || g.current.State != domain.StateAllowed || g.current.Seq != seq {
		return
	}

	g.logger.Info("allow window expired, clearing clipboard", zap.Uint64("seq", seq))
	g.current.AllowUntil = time.Time{}
	g.clearCurrent()
}

// RestoreLastNonSecret writes the most recent non-secret history item
// back to the clipboard. Used by the restore recovery path.
func (g *Guard) RestoreLastNonSecret(ctx context.Context) (bool, error) {
	entry, err := g.history.RecentNonSecret(ctx)
	if err != nil || entry == nil {
		return false, err
	}
	if err := g.clipboard.Write(entry.RedactedPreview); err != nil {
		return false, err
	}
	g.lastSample = entry.RedactedPreview
	return true, nil
}

// clearCurrent wipes the clipboard twice with a short delay between
// clears, as defense against a second process re-populating it from
// an in-flight paste buffer, then releases the slot.
func (g *Guard) clearCurrent() {
	g.doubleClear()
	if g.current != nil {
		g.current.State = domain.StateCleared
		g.current = nil
	}
	g.lastSample = ""
}

func (g *Guard) doubleClear() {
	if err := g.clipboard.Clear(); err != nil {
		g.logger.Warn("clipboard clear failed", zap.Error(err))
	}
	time.Sleep(g.cfg.ClearDelay)
	if err := g.clipboard.Clear(); err != nil {
		g.logger.Warn("clipboard clear failed", zap.Error(err))
	}
}

func (g *Guard) matchesIgnorePattern(text string) bool {
	for _, pattern := range g.cfg.Policy.IgnorePatterns {
		if ok, err := filepath.Match(pattern, text); err == nil && ok {
			return true
		}
	}
	return false
}

// record appends a history entry. History failures are logged and
// swallowed: persistence must never stall the poll loop.
func (g *Guard) record(ctx context.Context, isSecret bool, kind, preview, appName string) {
	entry := domain.HistoryEntry{
		ID:              uuid.NewString(),
		Timestamp:       time.Now(),
		IsSecret:        isSecret,
		Kind:            kind,
		RedactedPreview: preview,
		AppName:         appName,
	}
	if err := g.history.Append(ctx, entry); err != nil {
		g.logger.Warn("failed to append history entry", zap.Error(err))
	}
}
