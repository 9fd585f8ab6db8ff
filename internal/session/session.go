package session

import (
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
)

// #region session

// Session identifies one decision-loop run and owns its cost tracker.
type Session struct {
	RunID   string
	Started time.Time
	Costs   *CostTracker
}

// New creates a session with a fresh run ID.
func New() *Session {
	return &Session{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Costs:   NewCostTracker(),
	}
}

// #endregion session

// #region pricing

// priceTable holds combined input+output prices per 1K tokens for the
// Together.ai models the loop runs against. Estimates; the point is
// relative cost between tiers, not billing accuracy.
var priceTable = map[string]float64{
	"Qwen/Qwen2.5-7B-Instruct-Turbo":          0.0002,
	"meta-llama/Llama-3.3-70B-Instruct-Turbo": 0.0007,
}

const (
	smallTierPrice = 0.0002
	largeTierPrice = 0.0007
)

// pricePer1K resolves a model's price, falling back on the model family
// when the exact name is unknown.
func pricePer1K(model string) float64 {
	if p, ok := priceTable[model]; ok {
		return p
	}
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "7b"), strings.Contains(lower, "qwen"):
		return smallTierPrice
	case strings.Contains(lower, "70b"), strings.Contains(lower, "llama"):
		return largeTierPrice
	}
	return smallTierPrice
}

// #endregion pricing

// #region tracker

// CostTracker accumulates per-call token usage and estimated cost.
// The loop is single-threaded, so no locking.
type CostTracker struct {
	calls   []Call
	byModel map[string]ModelStats
}

// NewCostTracker creates an empty tracker.
func NewCostTracker() *CostTracker {
	return &CostTracker{byModel: make(map[string]ModelStats)}
}

// Record logs one API call and returns its estimated cost. A
// non-positive totalTokens is derived from prompt plus completion.
func (t *CostTracker) Record(model string, promptTokens, completionTokens, totalTokens int) float64 {
	if totalTokens <= 0 {
		totalTokens = promptTokens + completionTokens
	}
	cost := float64(totalTokens) / 1000.0 * pricePer1K(model)
	t.calls = append(t.calls, Call{
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		Cost:             cost,
	})
	ms := t.byModel[model]
	ms.Calls++
	ms.Tokens += totalTokens
	ms.Cost += cost
	t.byModel[model] = ms
	return cost
}

// TotalCost returns the summed cost of all recorded calls.
func (t *CostTracker) TotalCost() float64 {
	var total float64
	for _, c := range t.calls {
		total += c.Cost
	}
	return total
}

// TotalCalls returns the number of recorded calls.
func (t *CostTracker) TotalCalls() int {
	return len(t.calls)
}

// TotalTokens returns the summed token count of all recorded calls.
func (t *CostTracker) TotalTokens() int {
	var total int
	for _, c := range t.calls {
		total += c.TotalTokens
	}
	return total
}

// ModelCost returns the summed cost of calls to one model.
func (t *CostTracker) ModelCost(model string) float64 {
	return t.byModel[model].Cost
}

// Stats summarizes the tracker, with costs rounded for display.
func (t *CostTracker) Stats() Stats {
	s := Stats{
		TotalCalls:  len(t.calls),
		TotalTokens: t.TotalTokens(),
		TotalCost:   round(t.TotalCost(), 4),
		ByModel:     make(map[string]ModelStats, len(t.byModel)),
	}
	if s.TotalCalls > 0 {
		s.AvgCostPerCall = round(t.TotalCost()/float64(s.TotalCalls), 6)
	}
	for model, ms := range t.byModel {
		ms.Cost = round(ms.Cost, 4)
		s.ByModel[model] = ms
	}
	return s
}

// Reset drops all recorded calls.
func (t *CostTracker) Reset() {
	t.calls = nil
	t.byModel = make(map[string]ModelStats)
}

func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}

// #endregion tracker
