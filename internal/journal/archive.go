package journal

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS moderation_events (
	run_id           TEXT NOT NULL,
	seq              INTEGER NOT NULL,
	user_id          TEXT NOT NULL,
	comment          TEXT NOT NULL,
	proposed_plan    TEXT NOT NULL,
	effective_plan   TEXT NOT NULL,
	agreed           INTEGER NOT NULL,
	actions_json     TEXT NOT NULL,
	results_json     TEXT NOT NULL,
	mem_added        INTEGER NOT NULL,
	retrieved_count  INTEGER NOT NULL,
	memory_size      INTEGER NOT NULL,
	cumulative_cost  REAL NOT NULL,
	cumulative_calls INTEGER NOT NULL,
	created_at       TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_moderation_events_user ON moderation_events(user_id);
`

// #endregion schema

// #region aggregates

// RunSummary aggregates one run's rows.
type RunSummary struct {
	RunID           string  `json:"run_id"`
	Events          int     `json:"events"`
	Agreements      int     `json:"agreements"`
	AgreementRate   float64 `json:"agreement_rate"`
	MemoryAdds      int     `json:"memory_adds"`
	FinalMemorySize int     `json:"final_memory_size"`
	TotalCost       float64 `json:"total_cost"`
	TotalCalls      int     `json:"total_calls"`
}

// UserActivity counts one user's events across all runs.
type UserActivity struct {
	UserID        string `json:"user_id"`
	Events        int    `json:"events"`
	Disagreements int    `json:"disagreements"`
}

// #endregion aggregates

// #region archive

// Archive persists journal entries to SQLite, keyed by run and
// sequence, and answers cross-run aggregate queries.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens a SQLite database and runs migrations.
func OpenArchive(path string) (*Archive, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Archive{db: db}, nil
}

// Close closes the underlying database connection.
func (a *Archive) Close() error {
	return a.db.Close()
}

// RecordEvent inserts one journal entry under the given run.
func (a *Archive) RecordEvent(runID string, e Entry) error {
	actionsJSON, err := json.Marshal(e.ActionsExecuted)
	if err != nil {
		return fmt.Errorf("marshal actions: %w", err)
	}
	resultsJSON, err := json.Marshal(e.ActionResults)
	if err != nil {
		return fmt.Errorf("marshal results: %w", err)
	}
	_, err = a.db.Exec(
		`INSERT INTO moderation_events (
			run_id, seq, user_id, comment, proposed_plan, effective_plan,
			agreed, actions_json, results_json, mem_added, retrieved_count,
			memory_size, cumulative_cost, cumulative_calls, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, e.Idx, e.User, e.Comment, e.ProposedPlan, e.EffectivePlan,
		boolToInt(e.Agreed), string(actionsJSON), string(resultsJSON),
		boolToInt(e.MemAdded), e.RetrievedCount, e.MemorySize,
		e.CumulativeCost, e.CumulativeCalls,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

// #endregion archive

// #region queries

// RunSummaries aggregates every run in the archive, oldest first.
// Cumulative columns are monotone within a run, so MAX reads the final
// value.
func (a *Archive) RunSummaries() ([]RunSummary, error) {
	rows, err := a.db.Query(
		`SELECT run_id, COUNT(*), SUM(agreed), SUM(mem_added),
		        MAX(memory_size), MAX(cumulative_cost), MAX(cumulative_calls)
		 FROM moderation_events
		 GROUP BY run_id
		 ORDER BY MIN(created_at)`,
	)
	if err != nil {
		return nil, fmt.Errorf("run summaries: %w", err)
	}
	defer rows.Close()

	var summaries []RunSummary
	for rows.Next() {
		var s RunSummary
		if err := rows.Scan(&s.RunID, &s.Events, &s.Agreements, &s.MemoryAdds,
			&s.FinalMemorySize, &s.TotalCost, &s.TotalCalls); err != nil {
			return nil, fmt.Errorf("scan summary: %w", err)
		}
		if s.Events > 0 {
			s.AgreementRate = float64(s.Agreements) / float64(s.Events)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// TopUsers returns the users with the most events across all runs.
func (a *Archive) TopUsers(limit int) ([]UserActivity, error) {
	rows, err := a.db.Query(
		`SELECT user_id, COUNT(*), SUM(1 - agreed)
		 FROM moderation_events
		 GROUP BY user_id
		 ORDER BY COUNT(*) DESC, user_id ASC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("top users: %w", err)
	}
	defer rows.Close()

	var users []UserActivity
	for rows.Next() {
		var u UserActivity
		if err := rows.Scan(&u.UserID, &u.Events, &u.Disagreements); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// ActionDistribution counts executed action tokens across all runs.
// Tokens live inside the actions_json arrays, so the tally happens here
// rather than in SQL.
func (a *Archive) ActionDistribution() (map[string]int, error) {
	rows, err := a.db.Query(`SELECT actions_json FROM moderation_events`)
	if err != nil {
		return nil, fmt.Errorf("action distribution: %w", err)
	}
	defer rows.Close()

	dist := make(map[string]int)
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan actions: %w", err)
		}
		var tokens []string
		if err := json.Unmarshal([]byte(raw), &tokens); err != nil {
			return nil, fmt.Errorf("parse actions %q: %w", raw, err)
		}
		for _, tok := range tokens {
			dist[tok]++
		}
	}
	return dist, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// #endregion queries
