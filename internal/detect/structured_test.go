package detect

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanStructuredEnvShape(t *testing.T) {
	text := "DB_HOST=localhost\nAPI_KEY=abcdef1234567890abcdef\nDB_PORT=5432"

	preview, ok := ScanStructured(text)
	require.True(t, ok)
	assert.Contains(t, preview, "abcdef1234567890")
}

func TestScanStructuredYAMLShape(t *testing.T) {
	text := "host: localhost\nsecret_token: Xy9KpQ2mNv8RtW4sZb7c\nport: 5432"

	_, ok := ScanStructured(text)
	assert.True(t, ok)
}

// TestScanStructuredNeedsSeparator verifies the config-shape heuristic
func TestScanStructuredNeedsSeparator(t *testing.T) {
	_, ok := ScanStructured("just a plain sentence with the word password in it")
	assert.False(t, ok)
}

func TestScanStructuredNeedsKeyword(t *testing.T) {
	_, ok := ScanStructured("host=somelongvaluewithoutmeaning123")
	assert.False(t, ok)
}

func TestScanStructuredShortValueIgnored(t *testing.T) {
	// Value under 16 characters does not qualify
	_, ok := ScanStructured("api_key=short123")
	assert.False(t, ok)
}

// TestScanStructuredLineCap verifies only the first 10 lines are
// scanned: a qualifying line buried deeper is not reported
func TestScanStructuredLineCap(t *testing.T) {
	var lines []string
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("line_%d=value", i))
	}
	lines = append(lines, "api_key=abcdef1234567890abcdef")

	_, ok := ScanStructured(strings.Join(lines, "\n"))
	assert.False(t, ok)
}
