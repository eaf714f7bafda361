package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/eliteGoblin/clipguard/internal/domain"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Slack.app", "slack"},
		{"Visual Studio Code", "code"},
		{"vscode", "code"},
		{"  Google   Chrome  ", "chrome"},
		{"MSTeams", "teams"},
		{"iTerm2", "iterm"},
		{"notepad.exe", "notepad"},
		{"RandomApp", "randomapp"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), "Normalize(%q)", tt.in)
	}
}

// TestIsAllowedDecisionTable verifies the core decision table:
// blocked Slack, allowed VS Code (via alias), default-block for
// unknown apps while safe copy mode is on
func TestIsAllowedDecisionTable(t *testing.T) {
	e := NewEvaluator()
	p := domain.AppPolicy{
		BlockedApps:  []string{"Slack"},
		AllowedApps:  []string{"Visual Studio Code"},
		SafeCopyMode: true,
	}

	assert.False(t, e.IsAllowed("Slack", p))
	assert.True(t, e.IsAllowed("Code", p))
	assert.False(t, e.IsAllowed("RandomApp", p))
}

// TestIsAllowedBlockWinsTies verifies block-list evaluation order
func TestIsAllowedBlockWinsTies(t *testing.T) {
	e := NewEvaluator()
	p := domain.AppPolicy{
		BlockedApps:  []string{"Slack"},
		AllowedApps:  []string{"Slack"},
		SafeCopyMode: true,
	}

	assert.False(t, e.IsAllowed("Slack", p))
}

// TestIsAllowedSubstringSymmetric verifies either side containing the
// other counts as a match
func TestIsAllowedSubstringSymmetric(t *testing.T) {
	e := NewEvaluator()
	p := domain.AppPolicy{
		AllowedApps:  []string{"term"},
		SafeCopyMode: true,
	}

	assert.True(t, e.IsAllowed("iTerm2", p))

	p = domain.AppPolicy{
		AllowedApps:  []string{"Google Chrome Canary"},
		SafeCopyMode: true,
	}
	assert.True(t, e.IsAllowed("chrome canary", p))
}

// TestIsAllowedDefaultFollowsSafeCopyMode verifies guard off means
// default allow, guard on means default block
func TestIsAllowedDefaultFollowsSafeCopyMode(t *testing.T) {
	e := NewEvaluator()

	assert.True(t, e.IsAllowed("AnyApp", domain.AppPolicy{SafeCopyMode: false}))
	assert.False(t, e.IsAllowed("AnyApp", domain.AppPolicy{SafeCopyMode: true}))
}

func TestIsAllowedUnknownApp(t *testing.T) {
	e := NewEvaluator()
	p := domain.AppPolicy{
		AllowedApps:  []string{"Code"},
		SafeCopyMode: true,
	}

	// Unresolvable foreground app is untrusted while the guard is on.
	assert.False(t, e.IsAllowed("Unknown", p))
}
