package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// #region index

// Index stores correction records and answers top-k similarity queries
// over their keys. The decision loop is single-threaded, so the index
// does no locking; a concurrent deployment would need to serialize
// Add against Search.
type Index struct {
	vectorizer Vectorizer
	records    []Record
}

// New creates an empty index over the given similarity backend.
func New(v Vectorizer) *Index {
	return &Index{vectorizer: v}
}

// Size returns the number of stored records.
func (ix *Index) Size() int {
	return len(ix.records)
}

// Records returns a copy of all stored records in insertion order.
func (ix *Index) Records() []Record {
	out := make([]Record, len(ix.records))
	copy(out, ix.records)
	return out
}

// #endregion index

// #region add

// Add appends one record and refits the backend over the full corpus,
// so the next Search already sees it. The record stays stored even
// when the refit fails; a failed refit leaves the index unfitted and
// queries return empty until a later fit succeeds.
func (ix *Index) Add(ctx context.Context, rec Record) error {
	if rec.Key == "" {
		return errors.New("memory: record key is empty")
	}
	ix.records = append(ix.records, rec)
	if err := ix.refit(ctx); err != nil {
		return fmt.Errorf("refit after add: %w", err)
	}
	return nil
}

// BulkLoad appends many records and fits once. Records with empty keys
// are dropped; everything else is indexed.
func (ix *Index) BulkLoad(ctx context.Context, recs []Record) error {
	for _, rec := range recs {
		if rec.Key == "" {
			continue
		}
		ix.records = append(ix.records, rec)
	}
	if err := ix.refit(ctx); err != nil {
		return fmt.Errorf("fit after bulk load: %w", err)
	}
	return nil
}

func (ix *Index) refit(ctx context.Context) error {
	corpus := make([]string, len(ix.records))
	for i, rec := range ix.records {
		corpus[i] = rec.Key
	}
	return ix.vectorizer.Fit(ctx, corpus)
}

// #endregion add

// #region search

// Search returns at most topK records whose similarity to the query is
// at least minSimilarity, sorted by descending similarity. Ties keep
// insertion order, earliest first, so results are deterministic. An
// empty or unfitted index yields an empty result, never an error;
// errors surface only from a live backend failing to score the query.
func (ix *Index) Search(ctx context.Context, query string, topK int, minSimilarity float64) ([]SearchResult, error) {
	if len(ix.records) == 0 || topK <= 0 {
		return nil, nil
	}
	sims, err := ix.vectorizer.Scores(ctx, query)
	if err != nil {
		if errors.Is(err, errUnfitted) {
			return nil, nil
		}
		return nil, fmt.Errorf("score query: %w", err)
	}
	if len(sims) != len(ix.records) {
		return nil, fmt.Errorf("backend returned %d scores for %d records", len(sims), len(ix.records))
	}

	order := make([]int, len(sims))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return sims[order[a]] > sims[order[b]]
	})

	var results []SearchResult
	for _, idx := range order {
		if len(results) == topK {
			break
		}
		if sims[idx] < minSimilarity {
			// Sorted descending: everything after is below threshold too.
			break
		}
		results = append(results, SearchResult{Record: ix.records[idx], Similarity: sims[idx]})
	}
	return results, nil
}

// #endregion search

// #region persistence

// Save writes all records as an indented JSON array, creating parent
// directories as needed.
func (ix *Index) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create memory dir: %w", err)
		}
	}
	data, err := json.MarshalIndent(ix.records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode memory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write memory %s: %w", path, err)
	}
	return nil
}

// Load appends a snapshot into the index and fits once. A missing file
// is a no-op; a malformed file is an error. Snapshots written before
// the comment/state_metrics fields load with those fields empty.
func (ix *Index) Load(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read memory %s: %w", path, err)
	}
	var recs []Record
	if err := json.Unmarshal(data, &recs); err != nil {
		return fmt.Errorf("parse memory %s: %w", path, err)
	}
	return ix.BulkLoad(ctx, recs)
}

// #endregion persistence
