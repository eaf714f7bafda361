// Package domain contains core business entities and interfaces.
// This is the innermost layer in Clean Architecture - no external dependencies.
package domain

import "time"

// Confidence is the rough certainty of a classification result.
// It drives default blocking behavior: high-confidence detections
// always prompt, medium/low only when safe copy mode is on.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// SecretMatch is the result of classifying a text blob.
// Produced fresh per classification call; immutable; never persisted
// directly (only derived fields end up in history).
type SecretMatch struct {
	Detected    bool
	Kind        string
	Confidence  Confidence
	Explanation string
}

// NotDetected is the zero classification result.
func NotDetected() SecretMatch {
	return SecretMatch{}
}

// ClipboardSample is one observation of the clipboard.
// Created each poll tick; superseded by the next sample; never mutated.
type ClipboardSample struct {
	Text       string
	ObservedAt time.Time
}

// GuardState identifies where a guarded secret is in its lifecycle.
type GuardState string

const (
	// StateNone means no live secret (idle).
	StateNone GuardState = "none"
	// StateDetected is the entry state. It normally moves on to
	// prompting within the same tick; an instance rests here only
	// while its prompt is deferred by the inter-prompt cooldown.
	StateDetected GuardState = "detected"
	// StatePrompting means a recovery prompt is open for this instance.
	StatePrompting GuardState = "prompting"
	// StateAllowed means the user granted a bounded allow window.
	StateAllowed GuardState = "allowed"
	// StateEncrypted means the clipboard holds the encrypted shareable
	// form. Terminal: no auto-clear applies.
	StateEncrypted GuardState = "encrypted"
	// StateCleared means the clipboard was wiped. Terminal for this
	// instance.
	StateCleared GuardState = "cleared"
)

// GuardedSecret is the single live dangerous clipboard value.
// At most one instance is live at a time; a new distinct clipboard
// value supersedes and invalidates the prior instance.
type GuardedSecret struct {
	Content      string
	Kind         string
	DiscoveredAt time.Time
	State        GuardState
	AllowUntil   time.Time // zero means no allow window
	Seq          uint64    // instance counter for timer/prompt reconciliation
}

// AppPolicy holds the configured allow/block decision inputs.
// Owned by configuration; read on every decision.
type AppPolicy struct {
	AllowedApps    []string
	BlockedApps    []string
	IgnorePatterns []string // glob-style known-safe shapes, e.g. "AKIA_TEST_*"
	SafeCopyMode   bool
}

// HistoryEntry is one row of the clipboard history.
// The guard only ever stores the redacted preview, never the raw secret.
type HistoryEntry struct {
	ID              string
	Timestamp       time.Time
	IsSecret        bool
	Kind            string
	RedactedPreview string
	AppName         string
}

// RecoveryAction is the user's choice on the recovery prompt.
type RecoveryAction string

const (
	ActionDismiss RecoveryAction = "dismiss"
	ActionClear   RecoveryAction = "clear"
	ActionAllow   RecoveryAction = "allow"
	ActionEncrypt RecoveryAction = "encrypt"
)

// PromptRequest asks the UI layer to show a recovery prompt.
// The state machine does not block on it: the outcome is delivered
// asynchronously on Result, tagged with the instance Seq.
type PromptRequest struct {
	Seq     uint64
	Preview string // redacted, never the raw secret
	Kind    string
	AppName string
	Result  chan<- PromptOutcome
}

// PromptOutcome is the asynchronous answer to a PromptRequest.
type PromptOutcome struct {
	Seq    uint64
	Action RecoveryAction
}
