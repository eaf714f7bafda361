package detect

import (
	"fmt"
	"regexp"
)

// rule pairs a human-readable label with a compiled expression.
// Table order encodes priority: provider-prefixed, least-ambiguous
// patterns come first so they win over generic assignment shapes.
type rule struct {
	label string
	re    *regexp.Regexp
}

// previewLen bounds how much of a matched secret may appear in an
// explanation. The full match is never surfaced: the preview is always
// a strict prefix of the match.
const previewLen = 20

var builtinRules = []rule{
	{"AWS access key ID", regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`)},
	{"AWS secret access key", regexp.MustCompile(`(?i)aws.{0,20}?(secret|key).{0,20}?['"=:\s]([A-Za-z0-9/+=]{40})\b`)},
	{"GitHub personal access token", regexp.MustCompile(`\bghp_[A-Za-z0-9]{36}\b`)},
	{"GitHub token", regexp.MustCompile(`\bgh[osur]_[A-Za-z0-9]{36}\b`)},
	{"GitHub fine-grained token", regexp.MustCompile(`\bgithub_pat_[A-Za-z0-9_]{36,255}\b`)},
	{"GitLab personal access token", regexp.MustCompile(`\bglpat-[A-Za-z0-9\-_]{20,}\b`)},
	{"Slack token", regexp.MustCompile(`\bxox[baprs]-[A-Za-z0-9\-]{10,}\b`)},
	{"Stripe secret key", regexp.MustCompile(`\bsk_(live|test)_[A-Za-z0-9]{20,}\b`)},
	{"Stripe publishable key", regexp.MustCompile(`\bpk_(live|test)_[A-Za-z0-9]{20,}\b`)},
	{"Google API key", regexp.MustCompile(`\bAIza[0-9A-Za-z\-_]{35}\b`)},
	{"SendGrid API key", regexp.MustCompile(`\bSG\.[A-Za-z0-9_\-]{22}\.[A-Za-z0-9_\-]{43}\b`)},
	{"Twilio API key", regexp.MustCompile(`\bSK[0-9a-fA-F]{32}\b`)},
	{"npm access token", regexp.MustCompile(`\bnpm_[A-Za-z0-9]{36}\b`)},
	{"JSON web token", regexp.MustCompile(`\beyJ[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\.[A-Za-z0-9_\-]+\b`)},
	{"private key", regexp.MustCompile(`-----BEGIN (RSA |EC |DSA |OPENSSH |PGP |ENCRYPTED )?PRIVATE KEY( BLOCK)?-----`)},
	{"database connection string", regexp.MustCompile(`\b(postgres|postgresql|mysql|mongodb(\+srv)?|redis|amqp)://[^:\s]+:[^@\s]+@[^\s]+`)},
	{"authorization header", regexp.MustCompile(`(?i)\bauthorization:\s*(bearer|basic)\s+[A-Za-z0-9_\-+=/.]{8,}`)},
	{"password assignment", regexp.MustCompile(`(?i)\b(password|passwd|pwd)\s*[=:]\s*['"]?[^'"\s]{8,}`)},
	{"secret assignment", regexp.MustCompile(`(?i)\b(api[_-]?key|secret|token|access[_-]?key)\s*[=:]\s*['"]?[A-Za-z0-9_\-+=/.]{16,}`)},
}

// Matcher holds the ordered rule table: built-ins first, then any
// validated custom rules from configuration.
type Matcher struct {
	rules []rule
}

// NewMatcher creates a matcher over the built-in rule table.
func NewMatcher() *Matcher {
	return &Matcher{rules: builtinRules}
}

// CustomRule is a user-configured detection rule. Rules keep their
// configured order: position in the table encodes priority.
type CustomRule struct {
	Label   string
	Pattern string
}

// NewMatcherWithCustom appends user-configured patterns after the
// built-ins, preserving their configured order. A malformed expression
// is a configuration error and is rejected here, never silently
// ignored.
func NewMatcherWithCustom(custom []CustomRule) (*Matcher, error) {
	rules := make([]rule, len(builtinRules), len(builtinRules)+len(custom))
	copy(rules, builtinRules)

	for _, c := range custom {
		re, err := regexp.Compile(c.Pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid custom pattern %q: %w", c.Label, err)
		}
		rules = append(rules, rule{label: c.Label, re: re})
	}

	return &Matcher{rules: rules}, nil
}

// Match runs the rule table in order and returns the first hit, or
// ok=false if nothing matched. Confidence is always high for a rule
// match; the explanation carries the label and a truncated preview.
func (m *Matcher) Match(text string) (label, preview string, ok bool) {
	for _, r := range m.rules {
		loc := r.re.FindString(text)
		if loc == "" {
			continue
		}
		return r.label, previewOf(loc), true
	}
	return "", "", false
}

// previewOf elides the tail of a match. A match at or under the
// preview width shows only its first half, so the preview can never
// reproduce the whole secret.
func previewOf(match string) string {
	cut := previewLen
	if len(match) <= cut {
		cut = len(match) / 2
	}
	return match[:cut] + "..."
}
