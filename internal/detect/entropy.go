// Package detect implements the secret detection engine: entropy
// analysis, pattern matching, structured scanning, and the
// classification orchestrator composing them.
package detect

import (
	"math"
	"regexp"
	"strings"
)

// Entropy tier thresholds. A string above EntropyStrong is a secret
// signal on its own; between EntropyMedium and EntropyStrong it needs
// one corroborating signal; between EntropyWeak and EntropyMedium it
// needs both a keyword and a shape signal.
const (
	EntropyStrong = 3.5
	EntropyMedium = 3.2
	EntropyWeak   = 2.8

	// encodingEntropyFloor gates the base64-like and hex-like shapes.
	encodingEntropyFloor = 3.0
)

var secretKeywords = []string{
	"key", "token", "secret", "auth", "bearer", "password", "passwd",
	"pwd", "credential", "cred", "api", "access", "private",
	"signature", "sign",
}

// contextMarkers are known secret-prefix substrings. Presence anywhere
// in the text counts as corroboration even when no full pattern matches.
var contextMarkers = []string{
	"sk_", "pk_", "xox", "ghp", "gho_", "glpat-", "AKIA", "eyJ",
	"-----BEGIN", "mongodb", "postgres", "mysql", "redis", "amqp",
	"AIza", "npm_",
}

var (
	secretCharsetRe = regexp.MustCompile(`^[A-Za-z0-9_\-+=/.]{12,}$`)
	base64Re        = regexp.MustCompile(`^[A-Za-z0-9+/]+={0,2}$`)
	hexRe           = regexp.MustCompile(`^[0-9a-fA-F]+$`)
	emailRe         = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// Entropy computes the Shannon entropy of s over its rune-frequency
// distribution. Deterministic, O(n). Empty string yields 0.
func Entropy(s string) float64 {
	if s == "" {
		return 0
	}

	counts := make(map[rune]int)
	total := 0
	for _, r := range s {
		counts[r]++
		total++
	}

	var entropy float64
	n := float64(total)
	for _, count := range counts {
		p := float64(count) / n
		entropy -= p * math.Log2(p)
	}

	return entropy
}

// LooksLikeSecret reports whether s has the character shape of an
// opaque credential: secret charset, no whitespace, and not a URL or
// email address.
func LooksLikeSecret(s string) bool {
	if strings.ContainsAny(s, " \t\n\r") {
		return false
	}
	if !secretCharsetRe.MatchString(s) {
		return false
	}
	if IsURL(s) || emailRe.MatchString(s) {
		return false
	}
	return true
}

// IsURL reports whether s is a plain web/file URL (not a credential URI).
func IsURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "ftp://") ||
		strings.HasPrefix(lower, "file://") ||
		strings.HasPrefix(lower, "www.")
}

// Base64Like reports whether s looks like base64-encoded random data.
func Base64Like(s string) bool {
	if len(s) < 12 || len(s)%4 != 0 {
		return false
	}
	return base64Re.MatchString(s) && Entropy(s) > encodingEntropyFloor
}

// HexLike reports whether s looks like a long hex-encoded value.
func HexLike(s string) bool {
	if len(s) < 24 {
		return false
	}
	return hexRe.MatchString(s) && Entropy(s) > encodingEntropyFloor
}

// HasSecretKeyword reports case-insensitive presence of any
// secret-suggestive keyword.
func HasSecretKeyword(s string) bool {
	lower := strings.ToLower(s)
	for _, kw := range secretKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// HasContextMarker reports presence of a known secret-prefix substring.
func HasContextMarker(s string) bool {
	for _, marker := range contextMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// hasShapeSignal is the corroboration combination used by the tiering
// policy: any encoding shape, secret-like charset, or context marker.
func hasShapeSignal(s string) bool {
	return LooksLikeSecret(s) || Base64Like(s) || HexLike(s) || HasContextMarker(s)
}
