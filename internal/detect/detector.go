package detect

import (
	"fmt"
	"strings"

	"github.com/eliteGoblin/clipguard/internal/codec"
	"github.com/eliteGoblin/clipguard/internal/domain"
)

// minClassifyLen is the floor below which text is never classified:
// anything shorter cannot be a meaningful secret.
const minClassifyLen = 8

// minEntropyLen gates the entropy tiering step; short strings have too
// few samples for the frequency distribution to mean anything.
const minEntropyLen = 12

// Detector composes the pattern matcher, entropy analyzer, and
// structured scanner into one classification call.
type Detector struct {
	matcher *Matcher
}

// NewDetector creates a detector over the built-in pattern table.
func NewDetector() *Detector {
	return &Detector{matcher: NewMatcher()}
}

// NewDetectorWithMatcher creates a detector with a custom-augmented
// pattern table (built from validated configuration).
func NewDetectorWithMatcher(m *Matcher) *Detector {
	return &Detector{matcher: m}
}

// Classify runs the detection pipeline over text, short-circuiting on
// the first hit:
//  1. too-short text is never classified
//  2. shared-encrypted payloads are always safe
//  3. pattern table (high confidence)
//  4. entropy tiering with shape/keyword corroboration
//  5. structured key/value scan (medium confidence)
func (d *Detector) Classify(text string) domain.SecretMatch {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < minClassifyLen {
		return domain.NotDetected()
	}

	if codec.IsEncryptedShared(trimmed) {
		return domain.NotDetected()
	}

	if label, preview, ok := d.matcher.Match(text); ok {
		return domain.SecretMatch{
			Detected:    true,
			Kind:        label,
			Confidence:  domain.ConfidenceHigh,
			Explanation: fmt.Sprintf("matched %s pattern: %s", label, preview),
		}
	}

	// Entropy tiering only applies to a single copied token: prose has
	// a character entropy around 4 bits and would always trip the
	// strong tier. Multi-word text falls through to the structured
	// scanner instead.
	if len(trimmed) >= minEntropyLen && !strings.ContainsAny(trimmed, " \t\n\r") {
		if match, ok := classifyByEntropy(trimmed); ok {
			return match
		}
	}

	if preview, ok := ScanStructured(text); ok {
		return domain.SecretMatch{
			Detected:    true,
			Kind:        "secret in configuration",
			Confidence:  domain.ConfidenceMedium,
			Explanation: fmt.Sprintf("config-shaped line with long value: %s", preview),
		}
	}

	return domain.NotDetected()
}

// classifyByEntropy applies the tiering policy: strong entropy stands
// alone, medium entropy needs one corroborating signal, weak entropy
// needs both a keyword and a shape signal.
func classifyByEntropy(text string) (domain.SecretMatch, bool) {
	entropy := Entropy(text)
	if entropy <= EntropyWeak {
		return domain.NotDetected(), false
	}

	keyword := HasSecretKeyword(text)
	shape := hasShapeSignal(text)

	switch {
	case entropy > EntropyStrong:
		return domain.SecretMatch{
			Detected:    true,
			Kind:        "high-entropy string",
			Confidence:  domain.ConfidenceHigh,
			Explanation: fmt.Sprintf("entropy %.2f exceeds strong threshold", entropy),
		}, true

	case entropy > EntropyMedium && (keyword || shape):
		return domain.SecretMatch{
			Detected:    true,
			Kind:        "probable secret",
			Confidence:  domain.ConfidenceMedium,
			Explanation: fmt.Sprintf("entropy %.2f with corroborating signal", entropy),
		}, true

	case keyword && shape:
		return domain.SecretMatch{
			Detected:    true,
			Kind:        "possible secret",
			Confidence:  domain.ConfidenceLow,
			Explanation: fmt.Sprintf("entropy %.2f with keyword and shape signals", entropy),
		}, true
	}

	return domain.NotDetected(), false
}
