package domain

import (
	"context"
	"time"
)

// Clipboard handles system clipboard operations.
// Implementation: atotto/clipboard for cross-platform support.
type Clipboard interface {
	// Read returns the current clipboard text.
	Read() (string, error)

	// Write replaces the clipboard content.
	Write(text string) error

	// Clear overwrites the clipboard with an empty string.
	Clear() error
}

// AppResolver looks up the current foreground application.
type AppResolver interface {
	// ActiveAppName returns the foreground application name,
	// or "Unknown" on any platform/permission failure. Never errors.
	ActiveAppName() string
}

// HistoryStore provides persistent clipboard history.
// Implementation: SQLCipher encrypted SQLite database.
// Only redacted previews are ever stored for secret entries.
type HistoryStore interface {
	// Append records a new history entry.
	Append(ctx context.Context, entry HistoryEntry) error

	// Recent returns the newest entries, most recent first.
	Recent(ctx context.Context, limit int) ([]HistoryEntry, error)

	// RecentNonSecret returns the most recent non-secret entry,
	// or nil if there is none. Used by the restore recovery action.
	RecentNonSecret(ctx context.Context) (*HistoryEntry, error)

	// EvictExpired deletes entries older than ttl. Returns rows removed.
	EvictExpired(ctx context.Context, ttl time.Duration) (int, error)

	// Close releases the database connection.
	Close() error
}

// Prompter shows the recovery prompt for a detected secret.
// Show must not block: the outcome arrives on req.Result.
type Prompter interface {
	Show(req PromptRequest)

	// Cancel closes any open prompt for the given instance. Best
	// effort; outcomes for a canceled instance are dropped anyway.
	Cancel(seq uint64)
}

// Notifier emits a user-facing notification. Best effort: failures
// are swallowed by implementations.
type Notifier interface {
	Notify(title, message string)
}

// KeyProvider abstracts the source of the history database key.
// Phase 1: file-based key. Phase 2: OS keychain-backed provider.
type KeyProvider interface {
	// GetKey returns the encryption key bytes.
	GetKey() ([]byte, error)

	// StoreKey persists a new encryption key.
	StoreKey(key []byte) error

	// KeyExists checks if a key has been generated.
	KeyExists() bool

	// EnsureKey returns the stored key, generating and persisting a
	// fresh one on first run.
	EnsureKey() ([]byte, error)
}
