package agents

import (
	"encoding/json"
	"fmt"
	"strings"
)

// #region vocabulary

// actionVocabulary is the action grammar spelled out to the models.
const actionVocabulary = "warn_user, delete_comment, timeout_user_5m, timeout_user_10m, ban_user, " +
	"reply(message), log_incident, let_comment_stand"

// maxExemplars caps how many retrieved cases reach the prompt.
const maxExemplars = 5

// #endregion vocabulary

// #region proposer-prompts

const proposerSystem = "You are a fast moderation assistant for a live streaming chat. " +
	"You will be given a user's state (their history: ban count, warning count, etc.), " +
	"the current comment, and similar past cases as examples. " +
	"Study the examples to understand how similar situations were handled. " +
	"Propose a brief reasoning and a concise action plan. " +
	"Actions can include: " + actionVocabulary + ". " +
	"You MUST respond with valid JSON only, with these exact keys: reasoning, plan, actions, confidence. " +
	"The 'plan' should be a string describing the action plan. " +
	"The 'actions' should be an array of action strings. " +
	"The 'confidence' should be one of: low, medium, high."

const decisionShape = "Respond with JSON only (no other text):\n" +
	"{\n" +
	"  \"reasoning\": \"your reasoning here\",\n" +
	"  \"plan\": \"your action plan description\",\n" +
	"  \"actions\": [\"action1\", \"action2\"],\n" +
	"  \"confidence\": \"low|medium|high\"\n" +
	"}"

// proposerUser assembles the user prompt for the enabled modes. With
// state off the exemplars are dropped too: the baseline sees only the
// comment.
func proposerUser(req Request, opts Options) string {
	switch {
	case opts.UseState && opts.UseRetrieval:
		return fmt.Sprintf(
			"User State (history and context):\n%s\n\nCurrent Comment: %s\n\nSimilar Past Cases (examples to learn from):\n%s\n\n%s",
			stateBlock(req, opts), req.Comment, exemplarBlock(req, opts), decisionShape)
	case opts.UseState:
		return fmt.Sprintf(
			"User State (history and context):\n%s\n\nCurrent Comment: %s\n\n%s",
			stateBlock(req, opts), req.Comment, decisionShape)
	default:
		return fmt.Sprintf("Current Comment: %s\n\n%s", req.Comment, decisionShape)
	}
}

// #endregion proposer-prompts

// #region reviewer-prompts

const reviewerSystem = "You are the authoritative expert moderator for a live streaming channel. " +
	"You will review a proposed moderation action plan. " +
	"You will be given the user's state (their history) and the current comment. " +
	"You must decide if the proposed plan is appropriate. " +
	"You MUST respond with valid JSON only, with these exact keys: agrees, reasoning, plan, actions, confidence. " +
	"If you agree (agrees=true), set reasoning, plan, actions, and confidence to null. " +
	"If you disagree (agrees=false), you must provide your own reasoning, plan, actions, and confidence. " +
	"Actions can include: " + actionVocabulary + ". " +
	"The 'plan' should be a string describing the action plan. " +
	"The 'actions' should be an array of action strings. " +
	"The 'confidence' should be one of: low, medium, high."

func reviewerUser(req Request, proposal Decision) string {
	return fmt.Sprintf(
		"User State (history and context):\n%s\n\nCurrent Comment: %s\n\n"+
			"Proposed Plan: %s\nProposer's Reasoning: %s\n\n"+
			"Do you agree with the proposed plan? Respond with JSON only (no other text):\n"+
			"If you AGREE:\n"+
			"{\n"+
			"  \"agrees\": true,\n"+
			"  \"reasoning\": null,\n"+
			"  \"plan\": null,\n"+
			"  \"actions\": null,\n"+
			"  \"confidence\": null\n"+
			"}\n\n"+
			"If you DISAGREE:\n"+
			"{\n"+
			"  \"agrees\": false,\n"+
			"  \"reasoning\": \"your reasoning here\",\n"+
			"  \"plan\": \"your action plan description\",\n"+
			"  \"actions\": [\"action1\", \"action2\"],\n"+
			"  \"confidence\": \"low|medium|high\"\n"+
			"}",
		stateBlock(req, Options{UseState: true}), req.Comment, proposal.Plan, proposal.Reasoning)
}

// #endregion reviewer-prompts

// #region blocks

// stateBlock renders the ledger view as indented JSON, or an empty
// object when state is off.
func stateBlock(req Request, opts Options) string {
	if !opts.UseState {
		return "{}"
	}
	data, err := json.MarshalIndent(req.State, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// exemplarBlock renders retrieved cases as worked examples, capped at
// maxExemplars. Fields absent from older records render as N/A.
func exemplarBlock(req Request, opts Options) string {
	if !opts.UseRetrieval || len(req.Retrieved) == 0 {
		return "No similar cases found."
	}
	retrieved := req.Retrieved
	if len(retrieved) > maxExemplars {
		retrieved = retrieved[:maxExemplars]
	}
	blocks := make([]string, 0, len(retrieved))
	for _, r := range retrieved {
		blocks = append(blocks, fmt.Sprintf(
			"Example Case:\n  Comment: %s\n  User State: %s\n  Reasoning: %s\n  Action Plan: %s\n",
			orNA(r.Record.Comment), orNA(r.Record.StateMetrics),
			orNA(r.Record.Reasoning), orNA(r.Record.Plan)))
	}
	return strings.Join(blocks, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// #endregion blocks
