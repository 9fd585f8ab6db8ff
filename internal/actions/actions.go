package actions

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/streamops/modsentry/internal/ledger"
)

// #region parse

var replyPattern = regexp.MustCompile(`reply\(['"]?([^'"]+)['"]?\)`)

// defaultReply is used when a reply token carries no extractable message.
const defaultReply = "Please follow community guidelines"

// Parse classifies one plan token by substring match, case-insensitive.
// Agents phrase tokens loosely ("timeout_user_10m", "Timeout for 10m"),
// so matching is permissive; anything unrecognized maps to KindUnknown
// rather than an error.
func Parse(token string) Parsed {
	lower := strings.ToLower(token)
	switch {
	case strings.Contains(lower, "ban_user"):
		return Parsed{Kind: KindBan}
	case strings.Contains(lower, "timeout"):
		dur := "5m"
		if strings.Contains(lower, "10m") {
			dur = "10m"
		}
		return Parsed{Kind: KindTimeout, Duration: dur}
	case strings.Contains(lower, "warn"):
		return Parsed{Kind: KindWarn}
	case strings.Contains(lower, "delete"):
		return Parsed{Kind: KindDelete}
	case strings.Contains(lower, "reply"):
		msg := defaultReply
		// Match against the original token: reply text keeps its case.
		if m := replyPattern.FindStringSubmatch(token); m != nil {
			msg = m[1]
		}
		return Parsed{Kind: KindReply, Message: msg}
	case strings.Contains(lower, "log_incident"):
		return Parsed{Kind: KindLogIncident}
	case strings.Contains(lower, "let_comment_stand"), strings.Contains(lower, "let_stand"):
		return Parsed{Kind: KindLetStand}
	default:
		return Parsed{Kind: KindUnknown}
	}
}

// #endregion parse

// #region applier

// Applier executes plan tokens against the user ledger.
type Applier struct {
	led *ledger.Ledger
}

// NewApplier creates an applier bound to the given ledger.
func NewApplier(led *ledger.Ledger) *Applier {
	return &Applier{led: led}
}

// Apply executes each token in order and returns one outcome per token.
// The comment is the event text the plan responds to. Unknown tokens
// produce a failed outcome and never stop the plan; every recognized
// token before and after them still runs.
func (a *Applier) Apply(tokens []string, userID, comment string) []Outcome {
	outcomes := make([]Outcome, 0, len(tokens))
	for _, tok := range tokens {
		outcomes = append(outcomes, a.applyOne(tok, userID))
	}
	return outcomes
}

func (a *Applier) applyOne(token, userID string) Outcome {
	p := Parse(token)
	out := Outcome{Action: token, Succeeded: true, UserID: userID}
	switch p.Kind {
	case KindBan:
		out.NewCount = a.led.Increment(userID, ledger.CounterBan)
		out.Message = fmt.Sprintf("User %s banned (total bans: %d)", userID, out.NewCount)
	case KindTimeout:
		out.NewCount = a.led.Increment(userID, ledger.CounterTimeout)
		out.Message = fmt.Sprintf("User %s timed out for %s (total timeouts: %d)", userID, p.Duration, out.NewCount)
	case KindWarn:
		out.NewCount = a.led.Increment(userID, ledger.CounterWarning)
		out.Message = fmt.Sprintf("User %s warned (total warnings: %d)", userID, out.NewCount)
	case KindDelete:
		out.NewCount = a.led.Increment(userID, ledger.CounterDeleted)
		out.Message = fmt.Sprintf("Comment deleted for user %s (total deleted: %d)", userID, out.NewCount)
	case KindReply:
		out.NewCount = a.led.Increment(userID, ledger.CounterReply)
		out.Message = fmt.Sprintf("Replied to user %s: %q (total replies: %d)", userID, p.Message, out.NewCount)
	case KindLogIncident:
		out.Message = fmt.Sprintf("Incident logged for user %s", userID)
	case KindLetStand:
		out.Message = fmt.Sprintf("No action taken for user %s", userID)
	default:
		out.Succeeded = false
		out.Message = fmt.Sprintf("unknown action: %s", token)
	}
	return out
}

// #endregion applier
