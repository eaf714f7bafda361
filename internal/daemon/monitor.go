// Package daemon implements the clipboard monitor poll loop.
package daemon

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/eliteGoblin/clipguard/internal/domain"
	"github.com/eliteGoblin/clipguard/internal/usecase"
)

// MonitorConfig holds monitor loop configuration.
type MonitorConfig struct {
	PollInterval  time.Duration // How often to read the clipboard (default 200ms)
	EvictInterval time.Duration // How often to sweep expired history
	HistoryTTL    time.Duration // How long history entries live
}

// DefaultMonitorConfig returns default monitor configuration.
func DefaultMonitorConfig() MonitorConfig {
	return MonitorConfig{
		PollInterval:  200 * time.Millisecond,
		EvictInterval: time.Minute,
		HistoryTTL:    24 * time.Hour,
	}
}

// Monitor is the main guard daemon. It polls the clipboard on a fixed
// short interval, feeds samples to the guard state machine, and owns
// the per-secret allow-window timer and the history eviction sweep.
// All guard state mutation happens on this goroutine: within one tick,
// detection, policy evaluation, and state transition complete as one
// step before the next tick reads the clipboard again.
type Monitor struct {
	config    MonitorConfig
	guard     *usecase.Guard
	clipboard domain.Clipboard
	history   domain.HistoryStore
	logger    *zap.Logger

	allowTimer *time.Timer
	allowSeq   uint64
	allowC     chan uint64
	policyC    <-chan domain.AppPolicy
}

// NewMonitor creates a new monitor daemon.
func NewMonitor(
	config MonitorConfig,
	guard *usecase.Guard,
	clipboard domain.Clipboard,
	history domain.HistoryStore,
	logger *zap.Logger,
) *Monitor {
	return &Monitor{
		config:    config,
		guard:     guard,
		clipboard: clipboard,
		history:   history,
		logger:    logger,
		allowC:    make(chan uint64, 1),
	}
}

// PolicyUpdates registers the channel configuration reloads arrive on.
// The guard's policy is only ever swapped from the loop goroutine, so
// the updates are consumed inside Run's select. Must be called before
// Run; a nil channel (never registered) is simply never ready.
func (m *Monitor) PolicyUpdates(ch <-chan domain.AppPolicy) {
	m.policyC = ch
}

// Run starts the monitor loop. This blocks until context is canceled.
// No single tick's failure ever terminates the loop: every external
// call degrades to "no detection this tick".
func (m *Monitor) Run(ctx context.Context) error {
	m.logger.Info("clipboard monitor started",
		zap.Duration("poll_interval", m.config.PollInterval),
		zap.Duration("history_ttl", m.config.HistoryTTL))

	pollTicker := time.NewTicker(m.config.PollInterval)
	evictTicker := time.NewTicker(m.config.EvictInterval)

	defer func() {
		pollTicker.Stop()
		evictTicker.Stop()
		m.cancelAllowTimer()
	}()

	// Seed the last-sample baseline so pre-existing clipboard content
	// is not treated as a fresh copy event on startup.
	if text, err := m.clipboard.Read(); err == nil {
		m.guard.PrimeBaseline(text)
	}

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("clipboard monitor stopping")
			return ctx.Err()

		case <-pollTicker.C:
			m.tick(ctx)

		case outcome := <-m.guard.PromptResults():
			m.applyEffects(m.guard.HandlePromptChoice(ctx, outcome))

		case seq := <-m.allowC:
			m.guard.HandleAllowExpiry(ctx, seq)

		case policy := <-m.policyC:
			m.guard.SetPolicy(policy)
			m.logger.Info("policy configuration reloaded")

		case <-evictTicker.C:
			m.evictHistory(ctx)
		}
	}
}

// tick reads the clipboard once and feeds the sample to the guard.
// Read failures are transient: the tick is skipped and previous state
// retained.
func (m *Monitor) tick(ctx context.Context) {
	text, err := m.clipboard.Read()
	if err != nil {
		m.logger.Debug("clipboard unreadable, skipping tick", zap.Error(err))
		return
	}

	effects := m.guard.HandleSample(ctx, domain.ClipboardSample{
		Text:       text,
		ObservedAt: time.Now(),
	})
	m.applyEffects(effects)
}

// applyEffects performs the timer work a transition requires.
// Cancellation runs before arming so two timers never race to
// clear/restore the clipboard.
func (m *Monitor) applyEffects(effects usecase.Effects) {
	if effects.CancelAllow {
		m.cancelAllowTimer()
	}
	if effects.ArmAllow {
		seq := effects.Seq
		m.allowSeq = seq
		m.allowTimer = time.AfterFunc(effects.Window, func() {
			// Delivered through the channel so expiry handling runs on
			// the loop goroutine like every other state mutation.
			select {
			case m.allowC <- seq:
			default:
			}
		})
	}
}

func (m *Monitor) cancelAllowTimer() {
	if m.allowTimer != nil {
		m.allowTimer.Stop()
		m.allowTimer = nil
	}
	// Drain a fire that slipped in before Stop.
	select {
	case <-m.allowC:
	default:
	}
}

func (m *Monitor) evictHistory(ctx context.Context) {
	removed, err := m.history.EvictExpired(ctx, m.config.HistoryTTL)
	if err != nil {
		m.logger.Warn("history eviction failed", zap.Error(err))
		return
	}
	if removed > 0 {
		m.logger.Debug("evicted expired history entries", zap.Int("removed", removed))
	}
}
