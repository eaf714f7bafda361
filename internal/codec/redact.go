// Package codec implements partial-mask redaction and the reversible
// shared-encryption transform for clipboard secrets.
package codec

import "strings"

const maskRune = "*"

// DefaultShowFirst and DefaultShowLast are the standard preview widths.
const (
	DefaultShowFirst = 4
	DefaultShowLast  = 4
)

// Redact renders a partial-mask preview of secret: the first showFirst
// and last showLast characters with a masked middle. Purely cosmetic
// and never reversible; the unredacted value must never be logged or
// persisted in clear form. Secrets too short to split are fully masked
// at their original length.
func Redact(secret string, showFirst, showLast int) string {
	if len(secret) <= showFirst+showLast {
		return strings.Repeat(maskRune, len(secret))
	}

	middle := len(secret) - showFirst - showLast
	if middle < 8 {
		middle = 8
	}

	return secret[:showFirst] + strings.Repeat(maskRune, middle) + secret[len(secret)-showLast:]
}

// Preview is Redact with the default widths, flattened to a single
// line so it is safe for log fields and prompt text.
func Preview(secret string) string {
	flat := strings.ReplaceAll(secret, "\n", " ")
	return Redact(flat, DefaultShowFirst, DefaultShowLast)
}
