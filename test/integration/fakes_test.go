//go:build integration

package integration

import (
	"context"
	"sync"
	"time"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// fakeClipboard is a thread-safe in-memory clipboard. The monitor
// goroutine and the test goroutine both touch it.
type fakeClipboard struct {
	mu      sync.Mutex
	content string
}

func (c *fakeClipboard) Read() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content, nil
}

func (c *fakeClipboard) Write(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.content = text
	return nil
}

func (c *fakeClipboard) Clear() error { return c.Write("") }

func (c *fakeClipboard) get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.content
}

type fakeResolver struct {
	mu   sync.Mutex
	name string
}

func (r *fakeResolver) ActiveAppName() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

func (r *fakeResolver) set(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
}

// fakePrompter records prompt requests and answers them with the
// scripted action, mimicking the async dialog. A nil respond leaves
// the prompt open.
type fakePrompter struct {
	mu       sync.Mutex
	requests []domain.PromptRequest
	canceled []uint64
	respond  func(req domain.PromptRequest)
}

func (p *fakePrompter) Show(req domain.PromptRequest) {
	p.mu.Lock()
	respond := p.respond
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if respond != nil {
		go respond(req)
	}
}

func (p *fakePrompter) Cancel(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.canceled = append(p.canceled, seq)
}

func (p *fakePrompter) shownCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

func (p *fakePrompter) canceledSeqs() []uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint64(nil), p.canceled...)
}

func (p *fakePrompter) lastRequest() domain.PromptRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

// answerWith scripts the action every future prompt is answered with.
func (p *fakePrompter) answerWith(action domain.RecoveryAction) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.respond = func(req domain.PromptRequest) {
		req.Result <- domain.PromptOutcome{Seq: req.Seq, Action: action}
	}
}

type fakeNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (n *fakeNotifier) Notify(title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.titles = append(n.titles, title)
}

// memHistory is a thread-safe in-memory store standing in for the
// encrypted SQLite history.
type memHistory struct {
	mu      sync.Mutex
	entries []domain.HistoryEntry
}

func (h *memHistory) Append(ctx context.Context, entry domain.HistoryEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry)
	return nil
}

func (h *memHistory) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]domain.HistoryEntry(nil), h.entries...), nil
}

func (h *memHistory) RecentNonSecret(ctx context.Context) (*domain.HistoryEntry, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := len(h.entries) - 1; i >= 0; i-- {
		if !h.entries[i].IsSecret {
			entry := h.entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

func (h *memHistory) EvictExpired(ctx context.Context, ttl time.Duration) (int, error) {
	return 0, nil
}

func (h *memHistory) Close() error { return nil }

func (h *memHistory) secretEntries() []domain.HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []domain.HistoryEntry
	for _, e := range h.entries {
		if e.IsSecret {
			out = append(out, e)
		}
	}
	return out
}
