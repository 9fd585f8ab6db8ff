package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/streamops/modsentry/internal/llm"
)

// #region wire

type decisionWire struct {
	Reasoning  string   `json:"reasoning"`
	Plan       string   `json:"plan"`
	Actions    []string `json:"actions"`
	Confidence string   `json:"confidence"`
}

type reviewWire struct {
	Agrees     *bool    `json:"agrees"`
	Reasoning  string   `json:"reasoning"`
	Plan       string   `json:"plan"`
	Actions    []string `json:"actions"`
	Confidence string   `json:"confidence"`
}

// extractJSON trims anything around the outermost JSON object. Models
// occasionally wrap the object in prose or code fences even under a
// JSON response format.
func extractJSON(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start == -1 || end == -1 || end < start {
		return s
	}
	return s[start : end+1]
}

// #endregion wire

// #region proposer

// GenerativeProposer is the fast first-pass agent backed by a small
// chat model.
type GenerativeProposer struct {
	client *llm.Client
}

var _ Proposer = (*GenerativeProposer)(nil)

// NewGenerativeProposer wraps a model client as a proposer.
func NewGenerativeProposer(client *llm.Client) *GenerativeProposer {
	return &GenerativeProposer{client: client}
}

// Propose asks the model for a decision and parses its JSON reply.
// Transport and parse failures return an error; the caller substitutes
// the conservative default.
func (p *GenerativeProposer) Propose(ctx context.Context, req Request, opts Options) (Decision, error) {
	out, _, err := p.client.Complete(ctx, proposerSystem, proposerUser(req, opts))
	if err != nil {
		return Decision{}, fmt.Errorf("proposer: %w", err)
	}
	var wire decisionWire
	if err := json.Unmarshal([]byte(extractJSON(out)), &wire); err != nil {
		return Decision{}, fmt.Errorf("proposer returned invalid JSON: %w", err)
	}
	return SanitizeDecision(Decision{
		Reasoning:  wire.Reasoning,
		Plan:       wire.Plan,
		Actions:    wire.Actions,
		Confidence: Confidence(wire.Confidence),
	}), nil
}

// #endregion proposer

// #region reviewer

// GenerativeReviewer is the high-fidelity auditor backed by a larger
// chat model.
type GenerativeReviewer struct {
	client *llm.Client
}

var _ Reviewer = (*GenerativeReviewer)(nil)

// NewGenerativeReviewer wraps a model client as a reviewer.
func NewGenerativeReviewer(client *llm.Client) *GenerativeReviewer {
	return &GenerativeReviewer{client: client}
}

// Review asks the model to audit a proposal. A missing agrees field
// counts as disagreement, then sanitation applies: disagreeing with no
// replacement plan downgrades to agreement.
func (r *GenerativeReviewer) Review(ctx context.Context, req Request, proposal Decision) (Review, error) {
	out, _, err := r.client.Complete(ctx, reviewerSystem, reviewerUser(req, proposal))
	if err != nil {
		return Review{}, fmt.Errorf("reviewer: %w", err)
	}
	var wire reviewWire
	if err := json.Unmarshal([]byte(extractJSON(out)), &wire); err != nil {
		return Review{}, fmt.Errorf("reviewer returned invalid JSON: %w", err)
	}
	agrees := wire.Agrees != nil && *wire.Agrees
	return SanitizeReview(Review{
		Agrees: agrees,
		Decision: Decision{
			Reasoning:  wire.Reasoning,
			Plan:       wire.Plan,
			Actions:    wire.Actions,
			Confidence: Confidence(wire.Confidence),
		},
	}), nil
}

// #endregion reviewer
