package agents

import (
	"context"
	"strings"

	"github.com/streamops/modsentry/internal/ledger"
	"github.com/streamops/modsentry/internal/memory"
)

// #region confidence

// Confidence is the decision's self-reported certainty band.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ParseConfidence normalizes a free-form confidence label. Anything
// unrecognized becomes medium.
func ParseConfidence(s string) Confidence {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ConfidenceLow
	case "high":
		return ConfidenceHigh
	default:
		return ConfidenceMedium
	}
}

// #endregion confidence

// #region decision

// Decision is one agent's moderation verdict for a single comment.
type Decision struct {
	Reasoning  string     `json:"reasoning"`
	Plan       string     `json:"plan"`
	Actions    []string   `json:"actions"`
	Confidence Confidence `json:"confidence"`
}

// Review is the reviewer's verdict on a proposed decision. When Agrees
// is true the embedded decision is empty and the proposal stands; when
// false the embedded decision replaces it.
type Review struct {
	Agrees bool `json:"agrees"`
	Decision
}

// ConservativeDefault is the decision substituted when no proposal can
// be obtained: log the incident for a human, touch nothing else.
func ConservativeDefault() Decision {
	return Decision{
		Reasoning:  "proposal unavailable; logging incident for manual review",
		Plan:       "log incident for manual review",
		Actions:    []string{"log_incident"},
		Confidence: ConfidenceMedium,
	}
}

// #endregion decision

// #region request

// Request carries everything an agent may consider for one comment.
// Persona tags the channel's moderation style; it travels with memory
// records rather than prompts.
type Request struct {
	Comment     string
	Persona     string
	State       ledger.View
	StateString string
	Retrieved   []memory.SearchResult
}

// Options toggles the reduced proposer modes used for baselines.
type Options struct {
	UseState     bool
	UseRetrieval bool
}

// FullContext enables both state and retrieval.
func FullContext() Options {
	return Options{UseState: true, UseRetrieval: true}
}

// #endregion request

// #region interfaces

// Proposer produces the first-pass decision for a comment.
type Proposer interface {
	Propose(ctx context.Context, req Request, opts Options) (Decision, error)
}

// Reviewer audits a proposal and either endorses or replaces it.
type Reviewer interface {
	Review(ctx context.Context, req Request, proposal Decision) (Review, error)
}

// #endregion interfaces
