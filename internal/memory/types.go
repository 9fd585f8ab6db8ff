package memory

import "context"

// #region record

// Record is one stored correction. Key is the text the index matches
// queries against; its snapshot field is named "state" to stay readable
// by memory files written before the comment/state_metrics fields
// existed (those load with the new fields empty).
type Record struct {
	Key          string `json:"state"`
	Comment      string `json:"comment"`
	StateMetrics string `json:"state_metrics"`
	Reasoning    string `json:"reasoning"`
	Plan         string `json:"plan"`
	Persona      string `json:"persona"`
}

// #endregion record

// #region search-result

// SearchResult pairs a stored record with its similarity to the query.
type SearchResult struct {
	Record     Record  `json:"record"`
	Similarity float64 `json:"similarity"`
}

// #endregion search-result

// #region vectorizer

// Vectorizer turns a text corpus into a scoreable representation.
// Implementations must produce similarities in [0, 1] where an exact
// key match scores 1. Callers never observe which backend answered.
type Vectorizer interface {
	// Fit rebuilds the representation over the full corpus. A fit over
	// an empty corpus succeeds and leaves the vectorizer unfitted.
	Fit(ctx context.Context, corpus []string) error
	// Scores returns one similarity per corpus entry, in corpus order.
	Scores(ctx context.Context, query string) ([]float64, error)
}

// Embedder abstracts the embedding call so the dense backend can be
// tested without a live model service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// #endregion vectorizer
