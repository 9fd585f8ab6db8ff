package agents

import (
	"context"
	"strings"

	"github.com/streamops/modsentry/internal/ledger"
)

// #region keywords

var abuseKeywords = []string{
	"kys", "kill yourself", "end yourself", "hate you", "worthless",
	"nobody likes you", "garbage human", "waste of air",
}

var spamKeywords = []string{
	"buy followers", "free followers", "click my", "check out my channel",
	"subscribe to my", "promo code", "free gift card", "crypto pump",
	"http://", "https://",
}

var rudeKeywords = []string{
	"trash", "garbage", "sucks", "terrible", "worst", "idiot", "stupid",
	"boring", "pathetic", "awful", "clown",
}

var friendlyKeywords = []string{
	"love this", "great stream", "awesome", "amazing", "thank", "nice",
	"well played", "congrats", "gg",
}

// #endregion keywords

// #region classify

type severity int

const (
	severityNeutral severity = iota
	severityFriendly
	severityRude
	severitySpam
	severityAbuse
)

// classifySeverity buckets a comment by keyword match. Abuse outranks
// spam outranks rudeness, so "garbage human" lands on abuse even though
// "garbage" alone is merely rude. Friendliness only matters when
// nothing else fires.
func classifySeverity(comment string) severity {
	lower := strings.ToLower(comment)
	for _, kw := range abuseKeywords {
		if strings.Contains(lower, kw) {
			return severityAbuse
		}
	}
	for _, kw := range spamKeywords {
		if strings.Contains(lower, kw) {
			return severitySpam
		}
	}
	for _, kw := range rudeKeywords {
		if strings.Contains(lower, kw) {
			return severityRude
		}
	}
	for _, kw := range friendlyKeywords {
		if strings.Contains(lower, kw) {
			return severityFriendly
		}
	}
	return severityNeutral
}

// #endregion classify

// #region heuristic

// Heuristic is a deterministic keyword-table agent implementing both
// Proposer and Reviewer, so offline runs and tests need no network.
// Strict mode escalates one offense earlier on repeat offenders.
type Heuristic struct {
	strict bool
}

var (
	_ Proposer = (*Heuristic)(nil)
	_ Reviewer = (*Heuristic)(nil)
)

// NewHeuristic creates a keyword-table agent. Reviewers run strict.
func NewHeuristic(strict bool) *Heuristic {
	return &Heuristic{strict: strict}
}

// Propose classifies the comment and maps severity to a plan. State is
// only consulted when the caller enables it.
func (h *Heuristic) Propose(_ context.Context, req Request, opts Options) (Decision, error) {
	state := req.State
	if !opts.UseState {
		state = ledger.View{}
	}
	return h.decide(req.Comment, state), nil
}

// Review recomputes a decision over the same request and agrees iff the
// plans coincide textually.
func (h *Heuristic) Review(_ context.Context, req Request, proposal Decision) (Review, error) {
	own := h.decide(req.Comment, req.State)
	if own.Plan == proposal.Plan {
		return Review{Agrees: true}, nil
	}
	return Review{Agrees: false, Decision: own}, nil
}

func (h *Heuristic) decide(comment string, state ledger.View) Decision {
	threshold := 2
	if h.strict {
		threshold = 1
	}
	switch classifySeverity(comment) {
	case severityAbuse:
		return Decision{
			Reasoning:  "comment contains targeted abuse",
			Plan:       "ban user for severe abuse",
			Actions:    []string{"ban_user"},
			Confidence: ConfidenceHigh,
		}
	case severitySpam:
		if state.DeletedComments >= threshold {
			return Decision{
				Reasoning:  "repeat spam after prior deletions",
				Plan:       "delete spam and timeout repeat spammer",
				Actions:    []string{"delete_comment", "timeout_user_10m"},
				Confidence: ConfidenceHigh,
			}
		}
		return Decision{
			Reasoning:  "comment is promotional spam",
			Plan:       "delete spam and warn",
			Actions:    []string{"delete_comment", "warn_user"},
			Confidence: ConfidenceHigh,
		}
	case severityRude:
		if state.WarningCount >= threshold {
			return Decision{
				Reasoning:  "rude comment after prior warnings",
				Plan:       "timeout user after repeated warnings",
				Actions:    []string{"timeout_user_5m"},
				Confidence: ConfidenceMedium,
			}
		}
		return Decision{
			Reasoning:  "comment is rude but not abusive",
			Plan:       "warn user",
			Actions:    []string{"warn_user"},
			Confidence: ConfidenceMedium,
		}
	case severityFriendly:
		return Decision{
			Reasoning:  "comment is friendly",
			Plan:       "no action needed",
			Actions:    []string{"let_comment_stand"},
			Confidence: ConfidenceHigh,
		}
	default:
		return Decision{
			Reasoning:  "comment is unremarkable",
			Plan:       "no action needed",
			Actions:    []string{"let_comment_stand"},
			Confidence: ConfidenceMedium,
		}
	}
}

// #endregion heuristic
