package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/streamops/modsentry/internal/agents"
	"github.com/streamops/modsentry/internal/journal"
	"github.com/streamops/modsentry/internal/memory"
)

// #region loop

// Loop runs the two-tier moderation protocol: a fast proposer decides,
// a high-fidelity reviewer audits, and every disagreement becomes a
// retrievable memory record keyed by the comment that caused it.
type Loop struct {
	deps Deps
	opts Options
}

// New validates the wiring and returns a ready loop.
func New(deps Deps, opts Options) (*Loop, error) {
	switch {
	case deps.Memory == nil:
		return nil, errors.New("pipeline: memory index required")
	case deps.Ledger == nil:
		return nil, errors.New("pipeline: ledger required")
	case deps.Applier == nil:
		return nil, errors.New("pipeline: applier required")
	case deps.Proposer == nil:
		return nil, errors.New("pipeline: proposer required")
	case deps.Reviewer == nil:
		return nil, errors.New("pipeline: reviewer required")
	case deps.Session == nil:
		return nil, errors.New("pipeline: session required")
	}
	return &Loop{deps: deps, opts: opts}, nil
}

// #endregion loop

// #region run

// Run processes events in order, up to MaxEvents. Per-event failures
// degrade and never abort the run; only context cancellation stops it
// early. Events are processed strictly one at a time, so retrieval for
// event n sees every record written by events before it.
func (l *Loop) Run(ctx context.Context, events []Event) (Result, error) {
	if l.opts.MaxEvents > 0 && len(events) > l.opts.MaxEvents {
		events = events[:l.opts.MaxEvents]
	}

	var res Result
	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("run interrupted at event %d: %w", i, err)
		}
		if strings.TrimSpace(ev.Comment) == "" {
			log.Printf("[LOOP] event %d: empty comment, skipped", i)
			continue
		}

		entry := l.step(ctx, i, ev)
		res.Processed++
		if entry.Agreed {
			res.Agreements++
		} else {
			res.Disagreements++
		}
		if entry.MemAdded {
			res.MemoryAdds++
		}

		if l.deps.Journal != nil {
			if err := l.deps.Journal.Append(entry); err != nil {
				log.Printf("[LOOP] event %d: journal write failed: %v", i, err)
			}
		}
		if l.deps.Archive != nil {
			if err := l.deps.Archive.RecordEvent(l.deps.Session.RunID, entry); err != nil {
				log.Printf("[LOOP] event %d: archive write failed: %v", i, err)
			}
		}
		if l.deps.OnEvent != nil {
			l.deps.OnEvent(entry)
		}
	}
	return res, nil
}

// #endregion run

// #region step

func (l *Loop) step(ctx context.Context, idx int, ev Event) journal.Entry {
	user := ev.User
	if user == "" {
		user = "unknown"
	}
	l.deps.Ledger.UpdateContext(user, ev.Context)

	// Decision-time state: composed into the query, shown to the
	// agents, and stamped on any memory record this event writes.
	stateStr := l.deps.Ledger.StateString(user)
	query := ev.Comment
	if l.opts.IncludeStateInQuery {
		query = ev.Comment + " | state: " + stateStr
	}

	var retrieved []memory.SearchResult
	if l.opts.Propose.UseRetrieval {
		var err error
		retrieved, err = l.deps.Memory.Search(ctx, query, l.opts.TopK, l.opts.MinSimilarity)
		if err != nil {
			log.Printf("[LOOP] event %d: retrieval failed: %v", idx, err)
			retrieved = nil
		}
	}

	req := agents.Request{
		Comment:     ev.Comment,
		Persona:     ev.Persona,
		State:       l.deps.Ledger.View(user),
		StateString: stateStr,
		Retrieved:   retrieved,
	}

	proposal, err := l.deps.Proposer.Propose(ctx, req, l.opts.Propose)
	if err != nil {
		log.Printf("[LOOP] event %d: proposer failed, using conservative default: %v", idx, err)
		proposal = agents.ConservativeDefault()
	}

	review, err := l.deps.Reviewer.Review(ctx, req, proposal)
	if err != nil {
		log.Printf("[LOOP] event %d: reviewer failed, treating as agreement: %v", idx, err)
		review = agents.Review{Agrees: true}
	}

	effective := proposal
	if !review.Agrees {
		effective = review.Decision
	}

	outcomes := l.deps.Applier.Apply(effective.Actions, user, ev.Comment)

	memAdded := false
	if !review.Agrees {
		before := l.deps.Memory.Size()
		rec := memory.Record{
			Key:          query,
			Comment:      ev.Comment,
			StateMetrics: stateStr,
			Reasoning:    effective.Reasoning,
			Plan:         effective.Plan,
			Persona:      ev.Persona,
		}
		if err := l.deps.Memory.Add(ctx, rec); err != nil {
			log.Printf("[LOOP] event %d: memory add failed: %v", idx, err)
		}
		memAdded = l.deps.Memory.Size() > before
	}

	costs := l.deps.Session.Costs.Stats()
	return journal.Entry{
		Idx:             idx,
		User:            user,
		Comment:         ev.Comment,
		ProposedPlan:    proposal.Plan,
		EffectivePlan:   effective.Plan,
		Agreed:          review.Agrees,
		ActionsExecuted: effective.Actions,
		ActionResults:   outcomes,
		MemAdded:        memAdded,
		RetrievedCount:  len(retrieved),
		MemorySize:      l.deps.Memory.Size(),
		CumulativeCost:  costs.TotalCost,
		CumulativeCalls: costs.TotalCalls,
	}
}

// #endregion step
