package infra

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sqlcipher "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// Ensure sqlcipher driver is registered.
var _ sqlcipher.SQLiteDriver

const historyDBName = "history.db"

// EncryptedHistory implements domain.HistoryStore using a SQLCipher
// encrypted SQLite database. Secret entries only ever contain the
// redacted preview; the clear value never reaches disk.
type EncryptedHistory struct {
	db     *sql.DB
	dbPath string
}

// NewEncryptedHistory opens (or creates) the encrypted history
// database. The key is used as the SQLCipher passphrase via PRAGMA key.
func NewEncryptedHistory(dataDir string, key []byte) (*EncryptedHistory, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, historyDBName)
	keyHex := hex.EncodeToString(key)

	dsn := fmt.Sprintf("%s?_pragma_key=x'%s'&_pragma_cipher_page_size=4096", dbPath, keyHex)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open encrypted database: %w", err)
	}

	// Verify encryption works by running a query.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to encrypted database: %w", err)
	}

	store := &EncryptedHistory{db: db, dbPath: dbPath}
	if err := store.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return store, nil
}

func (h *EncryptedHistory) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS history (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		is_secret INTEGER NOT NULL,
		kind TEXT NOT NULL DEFAULT '',
		preview TEXT NOT NULL,
		app_name TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_history_created_at ON history(created_at);
	`
	_, err := h.db.Exec(schema)
	return err
}

// Append records a new history entry.
func (h *EncryptedHistory) Append(ctx context.Context, entry domain.HistoryEntry) error {
	isSecret := 0
	if entry.IsSecret {
		isSecret = 1
	}
	_, err := h.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO history (id, created_at, is_secret, kind, preview, app_name)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.Timestamp.Unix(), isSecret, entry.Kind, entry.RedactedPreview, entry.AppName,
	)
	return err
}

// Recent returns the newest entries, most recent first.
func (h *EncryptedHistory) Recent(ctx context.Context, limit int) ([]domain.HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, created_at, is_secret, kind, preview, app_name
		FROM history ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// RecentNonSecret returns the most recent non-secret entry, or nil if
// there is none.
func (h *EncryptedHistory) RecentNonSecret(ctx context.Context) (*domain.HistoryEntry, error) {
	row := h.db.QueryRowContext(ctx, `
		SELECT id, created_at, is_secret, kind, preview, app_name
		FROM history WHERE is_secret = 0 ORDER BY created_at DESC LIMIT 1`)

	entry, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

// EvictExpired deletes entries older than ttl. Returns rows removed.
func (h *EncryptedHistory) EvictExpired(ctx context.Context, ttl time.Duration) (int, error) {
	cutoff := time.Now().Add(-ttl).Unix()
	res, err := h.db.ExecContext(ctx, `DELETE FROM history WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}

// Close releases the database connection.
func (h *EncryptedHistory) Close() error {
	return h.db.Close()
}

// GetDBPath returns the database file path (for tests).
func (h *EncryptedHistory) GetDBPath() string {
	return h.dbPath
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (domain.HistoryEntry, error) {
	var entry domain.HistoryEntry
	var createdAt int64
	var isSecret int
	if err := row.Scan(&entry.ID, &createdAt, &isSecret, &entry.Kind, &entry.RedactedPreview, &entry.AppName); err != nil {
		return domain.HistoryEntry{}, err
	}
	entry.Timestamp = time.Unix(createdAt, 0)
	entry.IsSecret = isSecret == 1
	return entry, nil
}

// Ensure EncryptedHistory implements domain.HistoryStore.
var _ domain.HistoryStore = (*EncryptedHistory)(nil)
