package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// #region ledger

// Ledger owns all per-user moderation state for a run. The decision
// loop is single-threaded, so the ledger does no locking.
type Ledger struct {
	users map[string]*UserState
}

// New creates an empty ledger.
func New() *Ledger {
	return &Ledger{users: make(map[string]*UserState)}
}

// get returns the state for userID, creating it on first reference.
func (l *Ledger) get(userID string) *UserState {
	u, ok := l.users[userID]
	if !ok {
		u = &UserState{UserID: userID}
		l.users[userID] = u
	}
	return u
}

// #endregion ledger

// #region mutation

// Increment bumps one counter for userID, stamps last_action, and
// returns the post-increment value. Counters are strictly additive;
// nothing else in the package writes them.
func (l *Ledger) Increment(userID string, c Counter) int {
	u := l.get(userID)
	var n int
	switch c {
	case CounterBan:
		u.BanCount++
		n = u.BanCount
	case CounterWarning:
		u.WarningCount++
		n = u.WarningCount
	case CounterTimeout:
		u.TimeoutCount++
		n = u.TimeoutCount
	case CounterDeleted:
		u.DeletedComments++
		n = u.DeletedComments
	case CounterReply:
		u.RepliesSent++
		n = u.RepliesSent
	default:
		return 0
	}
	u.LastAction = lastActionLabel[c]
	return n
}

// UpdateContext applies the non-nil fields of upd to userID's state,
// creating the user on first reference.
func (l *Ledger) UpdateContext(userID string, upd ContextUpdate) {
	u := l.get(userID)
	if upd.FollowerCount != nil {
		u.FollowerCount = *upd.FollowerCount
	}
	if upd.ViewerCount != nil {
		u.ViewerCount = *upd.ViewerCount
	}
	if upd.CurrentTopic != nil {
		u.CurrentTopic = *upd.CurrentTopic
	}
}

// #endregion mutation

// #region views

// View returns the model-facing snapshot for userID (no user id).
func (l *Ledger) View(userID string) View {
	u := l.get(userID)
	return View{
		BanCount:        u.BanCount,
		WarningCount:    u.WarningCount,
		TimeoutCount:    u.TimeoutCount,
		DeletedComments: u.DeletedComments,
		RepliesSent:     u.RepliesSent,
		FollowerCount:   u.FollowerCount,
		ViewerCount:     u.ViewerCount,
		CurrentTopic:    u.CurrentTopic,
		LastAction:      u.LastAction,
	}
}

// FullStats returns the complete snapshot for userID, id included.
func (l *Ledger) FullStats(userID string) UserState {
	return *l.get(userID)
}

// StateString renders userID's state as a compact searchable summary,
// e.g. "bans:1, warnings:2, timeouts:0, deleted:0, replies:0,
// followers:120, viewers:800, topic:speedrun, last_action:warn".
func (l *Ledger) StateString(userID string) string {
	return l.get(userID).StateString()
}

// StateString renders the state without the user id. Topic and last
// action are omitted while empty.
func (u *UserState) StateString() string {
	parts := []string{
		fmt.Sprintf("bans:%d", u.BanCount),
		fmt.Sprintf("warnings:%d", u.WarningCount),
		fmt.Sprintf("timeouts:%d", u.TimeoutCount),
		fmt.Sprintf("deleted:%d", u.DeletedComments),
		fmt.Sprintf("replies:%d", u.RepliesSent),
		fmt.Sprintf("followers:%d", u.FollowerCount),
		fmt.Sprintf("viewers:%d", u.ViewerCount),
	}
	if u.CurrentTopic != "" {
		parts = append(parts, "topic:"+u.CurrentTopic)
	}
	if u.LastAction != "" {
		parts = append(parts, "last_action:"+u.LastAction)
	}
	return strings.Join(parts, ", ")
}

// Count returns the number of tracked users.
func (l *Ledger) Count() int {
	return len(l.users)
}

// UserIDs returns all tracked user ids, sorted.
func (l *Ledger) UserIDs() []string {
	ids := make([]string, 0, len(l.users))
	for id := range l.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// #endregion views

// #region persistence

// Save writes the full ledger as an indented JSON object keyed by user
// id, creating parent directories as needed.
func (l *Ledger) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(l.users, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state %s: %w", path, err)
	}
	return nil
}

// Load merges a snapshot into the ledger, overwriting entries for user
// ids present in the file and keeping the rest. A missing file is a
// no-op; a malformed file is an error. Fields absent from older
// snapshots default to their zero values.
func (l *Ledger) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read state %s: %w", path, err)
	}
	var users map[string]*UserState
	if err := json.Unmarshal(data, &users); err != nil {
		return fmt.Errorf("parse state %s: %w", path, err)
	}
	for id, u := range users {
		if u.UserID == "" {
			u.UserID = id
		}
		l.users[id] = u
	}
	return nil
}

// #endregion persistence
