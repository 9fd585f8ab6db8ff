package ledger

// #region counters

// Counter identifies one of the monotonic per-user counters.
type Counter string

const (
	CounterBan     Counter = "ban"
	CounterWarning Counter = "warning"
	CounterTimeout Counter = "timeout"
	CounterDeleted Counter = "deleted_comment"
	CounterReply   Counter = "reply"
)

// lastActionLabel maps a counter to the last_action label it stamps.
var lastActionLabel = map[Counter]string{
	CounterBan:     "ban",
	CounterWarning: "warn",
	CounterTimeout: "timeout",
	CounterDeleted: "delete_comment",
	CounterReply:   "reply",
}

// #endregion counters

// #region user-state

// UserState tracks one user's cumulative moderation history plus the
// ambient channel context last seen for them. Counters only ever grow;
// context fields are freely mutable.
type UserState struct {
	UserID          string `json:"user_id"`
	BanCount        int    `json:"ban_count"`
	WarningCount    int    `json:"warning_count"`
	TimeoutCount    int    `json:"timeout_count"`
	DeletedComments int    `json:"deleted_comments"`
	RepliesSent     int    `json:"replies_sent"`
	FollowerCount   int    `json:"follower_count"`
	ViewerCount     int    `json:"viewer_count"`
	CurrentTopic    string `json:"current_topic"`
	LastAction      string `json:"last_action"`
}

// View is the model-facing snapshot of a user's state; it carries no
// user identifier.
type View struct {
	BanCount        int    `json:"ban_count"`
	WarningCount    int    `json:"warning_count"`
	TimeoutCount    int    `json:"timeout_count"`
	DeletedComments int    `json:"deleted_comments"`
	RepliesSent     int    `json:"replies_sent"`
	FollowerCount   int    `json:"follower_count"`
	ViewerCount     int    `json:"viewer_count"`
	CurrentTopic    string `json:"current_topic"`
	LastAction      string `json:"last_action"`
}

// ContextUpdate carries optional context fields for a partial update.
// Nil fields are left untouched.
type ContextUpdate struct {
	FollowerCount *int
	ViewerCount   *int
	CurrentTopic  *string
}

// #endregion user-state
