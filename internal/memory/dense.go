package memory

import (
	"context"
	"fmt"
	"math"
)

// #region dense

// Dense is the embedding-backed vectorizer. Corpus and query vectors
// are L2-normalized at embed time so a plain dot product equals cosine
// similarity, keeping scores interchangeable with the lexical backend.
type Dense struct {
	embedder Embedder
	vectors  [][]float64 // normalized, one per corpus entry
	fitted   bool
}

// NewDense creates a dense vectorizer over the given embedder.
func NewDense(embedder Embedder) *Dense {
	return &Dense{embedder: embedder}
}

// Fit embeds and normalizes every corpus entry. A failed embedding
// leaves the vectorizer unfitted so stale vectors never answer queries.
func (d *Dense) Fit(ctx context.Context, corpus []string) error {
	d.vectors = nil
	d.fitted = false
	if len(corpus) == 0 {
		return nil
	}
	vectors := make([][]float64, len(corpus))
	for i, text := range corpus {
		emb, err := d.embedder.Embed(ctx, text)
		if err != nil {
			return fmt.Errorf("embed corpus entry %d: %w", i, err)
		}
		vectors[i] = normalize(emb)
	}
	d.vectors = vectors
	d.fitted = true
	return nil
}

// Scores embeds the query and dot-products it against every corpus
// vector. Similarities are clamped to [0, 1]; embedding spaces can
// produce small negative cosines, which rank below any real match.
func (d *Dense) Scores(ctx context.Context, query string) ([]float64, error) {
	if !d.fitted {
		return nil, errUnfitted
	}
	emb, err := d.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	qv := normalize(emb)
	sims := make([]float64, len(d.vectors))
	for i, dv := range d.vectors {
		sims[i] = clampUnit(dot(qv, dv))
	}
	return sims, nil
}

// #endregion dense

// #region helpers

// normalize converts an embedding to a unit-length float64 vector.
// A zero vector stays zero.
func normalize(emb []float32) []float64 {
	v := make([]float64, len(emb))
	var norm float64
	for i, x := range emb {
		v[i] = float64(x)
		norm += v[i] * v[i]
	}
	if norm == 0 {
		return v
	}
	norm = math.Sqrt(norm)
	for i := range v {
		v[i] /= norm
	}
	return v
}

// dot computes the dot product of two equal-length vectors. Returns 0
// on length mismatch rather than indexing past either vector.
func dot(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

// clampUnit restricts v to [0, 1].
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
