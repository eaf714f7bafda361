package detect

import (
	"regexp"
	"strings"
)

// Structured scanning is a recall booster for multi-line config/env
// paste, not a precise detector: it caps at the first 10 lines and
// only ever reports medium confidence so it cannot crowd out pattern
// or entropy results.
const structuredLineCap = 10

var structuredKeywords = []string{"key", "token", "secret", "password", "api", "auth"}

// kvValueRe captures the value token of a `key: value` / `key=value`
// line. The value must be at least 16 word characters to count.
var kvValueRe = regexp.MustCompile(`[:=]\s*['"]?([A-Za-z0-9_\-]{16,})`)

// ScanStructured sniffs config-shaped text for secret-looking
// key/value lines. Returns ok=false when the text lacks the `:` / `=`
// shape heuristic or no line qualifies.
func ScanStructured(text string) (preview string, ok bool) {
	if !strings.ContainsAny(text, ":=") {
		return "", false
	}

	lines := strings.Split(text, "\n")
	if len(lines) > structuredLineCap {
		lines = lines[:structuredLineCap]
	}

	for _, line := range lines {
		lower := strings.ToLower(line)

		keyworded := false
		for _, kw := range structuredKeywords {
			if strings.Contains(lower, kw) {
				keyworded = true
				break
			}
		}
		if !keyworded {
			continue
		}

		m := kvValueRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}

		value := m[1]
		if len(value) > previewLen {
			value = value[:previewLen] + "..."
		}
		return value, true
	}

	return "", false
}
