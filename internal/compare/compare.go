// Package compare runs the side-by-side evaluation protocol: the
// proposer alone, the proposer with retrieval memory, and a standalone
// reference decision over the same events. Unlike the moderation loop
// it executes no actions and keeps no state between runs, and
// disagreement is plain textual plan inequality against the reference.
package compare

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/streamops/modsentry/internal/agents"
	"github.com/streamops/modsentry/internal/dataset"
	"github.com/streamops/modsentry/internal/memory"
)

// #region types

// Config wires the harness. Memory starts empty unless the caller
// preloads the index; it is mutated by disagreements during Run.
type Config struct {
	Proposer      agents.Proposer
	Reference     agents.Proposer
	Memory        *memory.Index
	TopK          int
	MinSimilarity float64
	MaxEvents     int
}

// ModeCount is the tally for modes that only count decisions.
type ModeCount struct {
	Count int `json:"count"`
}

// RetrievalStats is the tally for the retrieval-augmented mode.
type RetrievalStats struct {
	Count         int     `json:"count"`
	Agreements    int     `json:"agreements"`
	MemoryAdds    int     `json:"memory_adds"`
	AgreementRate float64 `json:"agreement_rate"`
}

// Stats is the harness output, one block per mode.
type Stats struct {
	ProposerOnly       ModeCount      `json:"proposer_only"`
	ProposerPlusMemory RetrievalStats `json:"proposer_plus_memory"`
	ReferenceOnly      ModeCount      `json:"reference_only"`
}

// Harness evaluates all three modes in a single pass per event.
type Harness struct {
	cfg Config
}

// #endregion types

// New validates the wiring.
func New(cfg Config) (*Harness, error) {
	switch {
	case cfg.Proposer == nil:
		return nil, errors.New("compare: proposer required")
	case cfg.Reference == nil:
		return nil, errors.New("compare: reference proposer required")
	case cfg.Memory == nil:
		return nil, errors.New("compare: memory index required")
	}
	return &Harness{cfg: cfg}, nil
}

// #region run

// Run evaluates events, up to MaxEvents. Per event: the bare proposer
// decides without context, the reference decides from state options
// alone, and the retrieval-augmented proposer decides with exemplars
// from the index. When the augmented plan differs from the reference
// plan the reference decision is written to the index, so later events
// retrieve it. Backend failures abort the run.
func (h *Harness) Run(ctx context.Context, events []dataset.Event) (Stats, error) {
	if h.cfg.MaxEvents > 0 && len(events) > h.cfg.MaxEvents {
		events = events[:h.cfg.MaxEvents]
	}

	var stats Stats
	for i, ev := range events {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("compare interrupted at event %d: %w", i, err)
		}
		persona := ev.Persona
		if persona == "" {
			persona = dataset.DefaultPersona
		}
		base := agents.Request{Comment: ev.Comment, Persona: persona}

		if _, err := h.cfg.Proposer.Propose(ctx, base, agents.Options{}); err != nil {
			return stats, fmt.Errorf("event %d: proposer-only: %w", i, err)
		}
		stats.ProposerOnly.Count++

		ref, err := h.cfg.Reference.Propose(ctx, base, agents.Options{UseState: true})
		if err != nil {
			return stats, fmt.Errorf("event %d: reference: %w", i, err)
		}
		stats.ReferenceOnly.Count++

		retrieved, err := h.cfg.Memory.Search(ctx, ev.Comment, h.cfg.TopK, h.cfg.MinSimilarity)
		if err != nil {
			return stats, fmt.Errorf("event %d: retrieval: %w", i, err)
		}
		augmented := base
		augmented.Retrieved = retrieved

		out, err := h.cfg.Proposer.Propose(ctx, augmented, agents.FullContext())
		if err != nil {
			return stats, fmt.Errorf("event %d: proposer with memory: %w", i, err)
		}
		stats.ProposerPlusMemory.Count++

		if out.Plan == ref.Plan {
			stats.ProposerPlusMemory.Agreements++
			continue
		}
		rec := memory.Record{
			Key:       ev.Comment,
			Reasoning: ref.Reasoning,
			Plan:      ref.Plan,
			Persona:   persona,
		}
		if err := h.cfg.Memory.Add(ctx, rec); err != nil {
			return stats, fmt.Errorf("event %d: memory add: %w", i, err)
		}
		stats.ProposerPlusMemory.MemoryAdds++
	}

	if stats.ProposerPlusMemory.Count > 0 {
		rate := float64(stats.ProposerPlusMemory.Agreements) / float64(stats.ProposerPlusMemory.Count)
		stats.ProposerPlusMemory.AgreementRate = math.Round(rate*1000) / 1000
	}
	return stats, nil
}

// #endregion run
