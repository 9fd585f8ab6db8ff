package agents

import "strings"

// #region sanitize

// SanitizeDecision normalizes a parsed decision: trimmed fields, a
// recognized confidence label, and at least one action.
func SanitizeDecision(d Decision) Decision {
	d.Reasoning = strings.TrimSpace(d.Reasoning)
	d.Plan = strings.TrimSpace(d.Plan)
	d.Confidence = ParseConfidence(string(d.Confidence))

	actions := make([]string, 0, len(d.Actions))
	for _, a := range d.Actions {
		if a = strings.TrimSpace(a); a != "" {
			actions = append(actions, a)
		}
	}
	if len(actions) == 0 {
		actions = []string{"let_comment_stand"}
	}
	d.Actions = actions
	return d
}

// SanitizeReview normalizes a reviewer verdict. An agreeing review
// drops its decision fields; a disagreeing review with no usable
// replacement is downgraded to agreement, since there is nothing to
// learn from it.
func SanitizeReview(r Review) Review {
	if r.Agrees {
		return Review{Agrees: true}
	}
	if strings.TrimSpace(r.Plan) == "" && len(trimAll(r.Actions)) == 0 {
		return Review{Agrees: true}
	}
	r.Decision = SanitizeDecision(r.Decision)
	return r
}

func trimAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// #endregion sanitize
