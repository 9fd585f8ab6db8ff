package memory

import (
	"context"
	"errors"
	"math"
	"strings"
	"unicode"
)

// errUnfitted is returned by Scores before a successful non-empty fit.
// The index translates it into an empty result set.
var errUnfitted = errors.New("vectorizer not fitted")

// #region stopwords

// stopwords contains common English words excluded from vectorization.
var stopwords = map[string]bool{
	"the": true, "a": true, "an": true, "is": true, "are": true,
	"was": true, "were": true, "do": true, "does": true, "did": true,
	"have": true, "has": true, "had": true, "be": true, "been": true,
	"being": true, "will": true, "would": true, "could": true, "should": true,
	"may": true, "might": true, "can": true, "shall": true, "not": true,
	"no": true, "and": true, "or": true, "but": true, "if": true,
	"then": true, "than": true, "so": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "into": true,
	"of": true, "on": true, "to": true, "with": true, "about": true,
	"up": true, "out": true, "it": true, "its": true, "this": true,
	"that": true, "what": true, "which": true, "who": true, "how": true,
	"when": true, "where": true, "why": true, "you": true, "me": true,
	"i": true, "my": true, "your": true, "we": true, "they": true,
	"he": true, "she": true, "her": true, "him": true, "us": true,
	"them": true,
}

// tokenize splits text into lowercase non-stopword tokens of length >= 2.
// Duplicates are kept: term frequency matters here.
func tokenize(text string) []string {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	var tokens []string
	for _, w := range words {
		if len(w) < 2 || stopwords[w] {
			continue
		}
		tokens = append(tokens, w)
	}
	return tokens
}

// #endregion stopwords

// #region lexical

// Lexical is the default sparse backend: TF-IDF term weighting with
// cosine similarity. Fitting is O(corpus); fine for the low thousands
// of records this index is expected to hold.
type Lexical struct {
	vocab   map[string]int
	idf     []float64
	docVecs []map[int]float64 // L2-normalized, one per corpus entry
	fitted  bool
}

// NewLexical creates an unfitted lexical vectorizer.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Fit rebuilds vocabulary, IDF weights, and normalized document
// vectors over the full corpus. Never fails; an empty corpus leaves
// the vectorizer unfitted.
func (l *Lexical) Fit(_ context.Context, corpus []string) error {
	l.vocab = make(map[string]int)
	l.idf = nil
	l.docVecs = nil
	l.fitted = false
	if len(corpus) == 0 {
		return nil
	}

	docs := make([][]string, len(corpus))
	df := make(map[string]int)
	for i, text := range corpus {
		docs[i] = tokenize(text)
		seen := make(map[string]bool, len(docs[i]))
		for _, tok := range docs[i] {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			df[tok]++
			if _, ok := l.vocab[tok]; !ok {
				l.vocab[tok] = len(l.vocab)
			}
		}
	}

	// Smoothed IDF: ln((1+n)/(1+df)) + 1, so terms present in every
	// document still carry weight and exact matches score 1.
	n := float64(len(corpus))
	l.idf = make([]float64, len(l.vocab))
	for tok, idx := range l.vocab {
		l.idf[idx] = math.Log((1+n)/(1+float64(df[tok]))) + 1
	}

	l.docVecs = make([]map[int]float64, len(docs))
	for i, toks := range docs {
		l.docVecs[i] = l.vectorize(toks)
	}
	l.fitted = true
	return nil
}

// Scores returns the cosine similarity between the query and every
// fitted corpus entry, in corpus order.
func (l *Lexical) Scores(_ context.Context, query string) ([]float64, error) {
	if !l.fitted {
		return nil, errUnfitted
	}
	qVec := l.vectorize(tokenize(query))
	sims := make([]float64, len(l.docVecs))
	for i, dv := range l.docVecs {
		sims[i] = sparseDot(qVec, dv)
	}
	return sims, nil
}

// vectorize builds an L2-normalized TF-IDF vector over the fitted
// vocabulary. Terms outside the vocabulary are ignored.
func (l *Lexical) vectorize(tokens []string) map[int]float64 {
	vec := make(map[int]float64)
	for _, tok := range tokens {
		if idx, ok := l.vocab[tok]; ok {
			vec[idx] += l.idf[idx]
		}
	}
	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for idx := range vec {
		vec[idx] /= norm
	}
	return vec
}

// sparseDot computes the dot product of two normalized sparse vectors,
// iterating the smaller map. Both vectors are unit length, so this is
// their cosine similarity.
func sparseDot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var dot float64
	for idx, w := range a {
		dot += w * b[idx]
	}
	return dot
}

// #endregion lexical
