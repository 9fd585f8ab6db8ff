package pipeline

import (
	"github.com/streamops/modsentry/internal/actions"
	"github.com/streamops/modsentry/internal/agents"
	"github.com/streamops/modsentry/internal/journal"
	"github.com/streamops/modsentry/internal/ledger"
	"github.com/streamops/modsentry/internal/memory"
	"github.com/streamops/modsentry/internal/session"
)

// #region event

// Event is one chat comment entering the loop, with the ambient channel
// context to apply before deciding.
type Event struct {
	User    string
	Comment string
	Persona string
	Context ledger.ContextUpdate
}

// #endregion event

// #region deps

// Deps wires the loop's collaborators. Journal, Archive and OnEvent are
// optional; everything else is required.
type Deps struct {
	Memory   *memory.Index
	Ledger   *ledger.Ledger
	Applier  *actions.Applier
	Proposer agents.Proposer
	Reviewer agents.Reviewer
	Session  *session.Session
	Journal  *journal.Writer
	Archive  *journal.Archive
	// OnEvent observes each journal entry as it is produced, for live
	// console reporting.
	OnEvent func(journal.Entry)
}

// Options tunes one run.
type Options struct {
	TopK                int
	MinSimilarity       float64
	IncludeStateInQuery bool
	MaxEvents           int
	Propose             agents.Options
}

// Result summarizes one run.
type Result struct {
	Processed     int
	Agreements    int
	Disagreements int
	MemoryAdds    int
}

// #endregion deps
