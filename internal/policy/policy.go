// Package policy decides whether a foreground application may receive
// a detected secret, based on configured allow/block lists.
package policy

import (
	"strings"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

// aliases maps alternate spellings of well-known applications to one
// canonical name so policy entries match regardless of which the user
// wrote down.
var aliases = map[string]string{
	"vscode":             "code",
	"visual studio code": "code",
	"code - insiders":    "code",
	"msteams":            "teams",
	"microsoft teams":    "teams",
	"google chrome":      "chrome",
	"iterm2":             "iterm",
	"intellij idea":      "intellij",
	"goland":             "intellij",
	"pycharm":            "intellij",
}

// bundle/executable suffixes stripped before comparison.
var appSuffixes = []string{".app", ".exe", ".desktop"}

// Evaluator implements the allow/block decision. Stateless; the
// policy is passed per call so configuration reloads take effect
// immediately.
type Evaluator struct{}

// NewEvaluator creates a policy evaluator.
func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Normalize canonicalizes an application name: strips a trailing
// bundle suffix, lowercases, collapses whitespace, and maps known
// aliases to their canonical name.
func Normalize(appName string) string {
	name := strings.ToLower(strings.TrimSpace(appName))
	for _, suffix := range appSuffixes {
		name = strings.TrimSuffix(name, suffix)
	}
	name = strings.Join(strings.Fields(name), " ")

	if canonical, ok := aliases[name]; ok {
		return canonical
	}
	return name
}

// matches compares two normalized names substring-symmetrically:
// equal, or either contains the other. "Code" therefore matches a
// policy entry of "Visual Studio Code" and vice versa.
func matches(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return a == b || strings.Contains(a, b) || strings.Contains(b, a)
}

// IsAllowed decides whether the foreground app may keep the secret.
// Block list is evaluated first (block wins ties). If neither list
// matches, the default is the inverse of safe copy mode: unknown apps
// are untrusted while the guard is active.
func (e *Evaluator) IsAllowed(appName string, p domain.AppPolicy) bool {
	name := Normalize(appName)

	for _, blocked := range p.BlockedApps {
		if matches(name, Normalize(blocked)) {
			return false
		}
	}

	for _, allowed := range p.AllowedApps {
		if matches(name, Normalize(allowed)) {
			return true
		}
	}

	return !p.SafeCopyMode
}
