package actions

// Kind identifies a moderation action family.
type Kind string

const (
	KindBan         Kind = "ban_user"
	KindTimeout     Kind = "timeout_user"
	KindWarn        Kind = "warn_user"
	KindDelete      Kind = "delete_comment"
	KindReply       Kind = "reply"
	KindLogIncident Kind = "log_incident"
	KindLetStand    Kind = "let_comment_stand"
	KindUnknown     Kind = "unknown"
)

// Parsed is the structured form of one plan token.
type Parsed struct {
	Kind Kind
	// Duration is set for timeouts, "5m" or "10m".
	Duration string
	// Message is set for replies.
	Message string
}

// Outcome records the result of applying one token. The JSON shape is
// what the journal stores per action.
type Outcome struct {
	Action    string `json:"action"`
	Succeeded bool   `json:"success"`
	Message   string `json:"message"`
	UserID    string `json:"user_id"`
	// NewCount is the post-increment counter value, zero when the
	// action touches no counter.
	NewCount int `json:"new_count,omitempty"`
}
