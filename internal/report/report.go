// Package report computes run metrics from a moderation journal:
// agreement rates, memory growth, costs, action distribution, and a
// set of named consistency checks.
package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/streamops/modsentry/internal/journal"
)

// #region types

// Check is a named pass/fail consistency verdict over a run.
type Check struct {
	Name   string `json:"name"`
	Pass   bool   `json:"pass"`
	Detail string `json:"detail"`
}

// Metrics summarizes one run log.
type Metrics struct {
	TotalEvents        int            `json:"total_events"`
	Disagreements      int            `json:"disagreements"`
	AgreementRate      float64        `json:"agreement_rate"`
	MemoryGrowth       int            `json:"memory_growth"`
	FinalMemorySize    int            `json:"final_memory_size"`
	InitialMemorySize  int            `json:"initial_memory_size"`
	TotalCost          float64        `json:"total_cost"`
	TotalCalls         int            `json:"total_api_calls"`
	AvgCostPerEvent    float64        `json:"avg_cost_per_event"`
	ActionDistribution map[string]int `json:"action_distribution"`
	AgreementOverTime  []float64      `json:"agreement_over_time"`
	FinalAgreementRate float64        `json:"final_agreement_rate"`
	Checks             []Check        `json:"checks"`
}

// #endregion types

// #region load

// LoadLog reads a JSONL journal. Blank lines are skipped; a malformed
// line is an error.
func LoadLog(path string) ([]journal.Entry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	var entries []journal.Entry
	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var e journal.Entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			return nil, fmt.Errorf("parse log line %d: %w", line, err)
		}
		entries = append(entries, e)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return entries, nil
}

// #endregion load

// #region analyze

// Analyze computes Metrics over journal entries in run order. An empty
// slice yields zero metrics with no checks.
func Analyze(entries []journal.Entry) Metrics {
	if len(entries) == 0 {
		return Metrics{}
	}

	m := Metrics{
		TotalEvents:        len(entries),
		ActionDistribution: map[string]int{},
	}
	for _, e := range entries {
		if !e.Agreed {
			m.Disagreements++
		}
		for _, a := range e.ActionsExecuted {
			m.ActionDistribution[a]++
		}
	}
	m.AgreementRate = round(1.0-float64(m.Disagreements)/float64(m.TotalEvents), 3)

	first, last := entries[0], entries[len(entries)-1]
	// Entries record the size after any write, so the pre-run size is
	// the first entry's size minus its own contribution.
	m.InitialMemorySize = first.MemorySize
	if first.MemAdded {
		m.InitialMemorySize--
	}
	m.FinalMemorySize = last.MemorySize
	m.MemoryGrowth = m.FinalMemorySize - m.InitialMemorySize

	m.TotalCost = round(last.CumulativeCost, 4)
	m.TotalCalls = last.CumulativeCalls
	m.AvgCostPerEvent = round(last.CumulativeCost/float64(m.TotalEvents), 6)

	window := m.TotalEvents / 10
	if window < 10 {
		window = 10
	}
	for i := window; i <= m.TotalEvents; i++ {
		agreed := 0
		for _, e := range entries[i-window : i] {
			if e.Agreed {
				agreed++
			}
		}
		m.AgreementOverTime = append(m.AgreementOverTime, float64(agreed)/float64(window))
	}
	if n := len(m.AgreementOverTime); n > 0 {
		m.FinalAgreementRate = m.AgreementOverTime[n-1]
	}

	m.Checks = runChecks(entries, m)
	return m
}

func runChecks(entries []journal.Entry, m Metrics) []Check {
	growth := Check{
		Name:   "memory_growth_equals_disagreements",
		Pass:   m.MemoryGrowth == m.Disagreements,
		Detail: fmt.Sprintf("growth %d, disagreements %d", m.MemoryGrowth, m.Disagreements),
	}

	monotone := Check{Name: "memory_size_never_shrinks", Pass: true, Detail: "ok"}
	for i := 1; i < len(entries); i++ {
		if entries[i].MemorySize < entries[i-1].MemorySize {
			monotone.Pass = false
			monotone.Detail = fmt.Sprintf("size shrank at event %d: %d -> %d",
				entries[i].Idx, entries[i-1].MemorySize, entries[i].MemorySize)
			break
		}
	}

	writes := Check{Name: "memory_writes_follow_disagreements", Pass: true, Detail: "ok"}
	for _, e := range entries {
		if e.MemAdded && e.Agreed {
			writes.Pass = false
			writes.Detail = fmt.Sprintf("event %d wrote memory while agreeing", e.Idx)
			break
		}
	}

	return []Check{growth, monotone, writes}
}

func round(x float64, places int) float64 {
	shift := math.Pow(10, float64(places))
	return math.Round(x*shift) / shift
}

// #endregion analyze
