package infra

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// newTestHistory creates an encrypted history store in a temp
// directory for testing.
func newTestHistory(t *testing.T) (*EncryptedHistory, string) {
	t.Helper()
	dataDir := t.TempDir()
	key, err := GenerateKey()
	require.NoError(t, err)

	store, err := NewEncryptedHistory(dataDir, key)
	require.NoError(t, err)

	t.Cleanup(func() { store.Close() })
	return store, dataDir
}

func historyEntry(id string, isSecret bool, ts time.Time) domain.HistoryEntry {
	kind := ""
	preview := "plain text " + id
	if isSecret {
		kind = "aws access key"
		preview = "AKIA************MPLE"
	}
	return domain.HistoryEntry{
		ID:              id,
		Timestamp:       ts,
		IsSecret:        isSecret,
		Kind:            kind,
		RedactedPreview: preview,
		AppName:         "Terminal",
	}
}

func TestEncryptedHistory_AppendAndRecent(t *testing.T) {
	store, _ := newTestHistory(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		entry := historyEntry(fmt.Sprintf("id-%d", i), i%2 == 0, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, store.Append(ctx, entry))
	}

	entries, err := store.Recent(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	// Most recent first.
	assert.Equal(t, "id-4", entries[0].ID)
	assert.Equal(t, "id-3", entries[1].ID)
	assert.Equal(t, "id-2", entries[2].ID)
	assert.True(t, entries[0].IsSecret)
	assert.Equal(t, "aws access key", entries[0].Kind)
	assert.Equal(t, "Terminal", entries[0].AppName)
}

func TestEncryptedHistory_RecentEmpty(t *testing.T) {
	store, _ := newTestHistory(t)

	entries, err := store.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestEncryptedHistory_RecentNonSecret(t *testing.T) {
	tests := []struct {
		name    string
		seed    []domain.HistoryEntry
		wantID  string
		wantNil bool
	}{
		{
			name:    "nil when store is empty",
			wantNil: true,
		},
		{
			name: "nil when only secrets recorded",
			seed: []domain.HistoryEntry{
				historyEntry("s1", true, time.Now()),
			},
			wantNil: true,
		},
		{
			name: "skips newer secret entries",
			seed: []domain.HistoryEntry{
				historyEntry("n1", false, time.Now().Add(-2*time.Minute)),
				historyEntry("s1", true, time.Now().Add(-time.Minute)),
				historyEntry("s2", true, time.Now()),
			},
			wantID: "n1",
		},
		{
			name: "returns newest of several non-secrets",
			seed: []domain.HistoryEntry{
				historyEntry("n1", false, time.Now().Add(-2*time.Minute)),
				historyEntry("n2", false, time.Now().Add(-time.Minute)),
			},
			wantID: "n2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, _ := newTestHistory(t)
			ctx := context.Background()

			for _, entry := range tt.seed {
				require.NoError(t, store.Append(ctx, entry))
			}

			entry, err := store.RecentNonSecret(ctx)
			require.NoError(t, err)

			if tt.wantNil {
				assert.Nil(t, entry)
				return
			}
			require.NotNil(t, entry)
			assert.Equal(t, tt.wantID, entry.ID)
		})
	}
}

func TestEncryptedHistory_EvictExpired(t *testing.T) {
	store, _ := newTestHistory(t)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, historyEntry("old", false, time.Now().Add(-48*time.Hour))))
	require.NoError(t, store.Append(ctx, historyEntry("fresh", false, time.Now())))

	removed, err := store.EvictExpired(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	entries, err := store.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].ID)
}

func TestEncryptedHistory_PersistsAcrossReopen(t *testing.T) {
	dataDir := t.TempDir()
	key, err := GenerateKey()
	require.NoError(t, err)
	ctx := context.Background()

	store1, err := NewEncryptedHistory(dataDir, key)
	require.NoError(t, err)
	require.NoError(t, store1.Append(ctx, historyEntry("persisted", false, time.Now())))
	require.NoError(t, store1.Close())

	store2, err := NewEncryptedHistory(dataDir, key)
	require.NoError(t, err)
	defer store2.Close()

	entries, err := store2.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "persisted", entries[0].ID)
}

func TestEncryptedHistory_Encryption(t *testing.T) {
	t.Run("database file does not contain plaintext", func(t *testing.T) {
		dataDir := t.TempDir()
		key, err := GenerateKey()
		require.NoError(t, err)

		store, err := NewEncryptedHistory(dataDir, key)
		require.NoError(t, err)
		require.NoError(t, store.Append(context.Background(),
			historyEntry("marker-entry", false, time.Now())))
		require.NoError(t, store.Close())

		raw, err := os.ReadFile(filepath.Join(dataDir, historyDBName))
		require.NoError(t, err)
		assert.NotContains(t, string(raw), "marker-entry")
		assert.NotContains(t, string(raw), "plain text")
	})

	t.Run("wrong key fails to open", func(t *testing.T) {
		dataDir := t.TempDir()
		key1, _ := GenerateKey()
		key2, _ := GenerateKey()

		store1, err := NewEncryptedHistory(dataDir, key1)
		require.NoError(t, err)
		require.NoError(t, store1.Append(context.Background(),
			historyEntry("x", false, time.Now())))
		require.NoError(t, store1.Close())

		_, err = NewEncryptedHistory(dataDir, key2)
		assert.Error(t, err)
	})
}

func TestEncryptedHistory_GetDBPath(t *testing.T) {
	store, dataDir := newTestHistory(t)
	assert.Equal(t, filepath.Join(dataDir, historyDBName), store.GetDBPath())
}
