// Package resolver maps free-text ingredient tokens onto a small known
// vocabulary and provides the query rewrites used by the search fallbacks.
package resolver

import "strings"

// DefaultThreshold is the minimum score a vocabulary entry needs to replace a token
const DefaultThreshold = 80

// Vocabulary is the default list of known pantry ingredients
var Vocabulary = []string{
	"broccoli", "lentils", "rice", "beans", "chicken",
	"tomatoes", "garlic", "olive oil", "onions", "beef",
	"carrots", "celery", "eggs", "fish", "turkey", "butter",
	"cheddar cheese", "milk", "parmesan", "yogurt",
}

// CommonVocabulary is the shorter list used to correct substitute lookups
var CommonVocabulary = Vocabulary[:8]

// Resolver matches tokens against a fixed vocabulary. It holds no state
// between calls and is safe for concurrent use.
type Resolver struct {
	vocab     []string
	threshold int
	metric    Metric
}

// Option configures a Resolver
type Option func(*Resolver)

// WithMetric swaps the similarity metric
func WithMetric(m Metric) Option {
	return func(r *Resolver) { r.metric = m }
}

// New creates a Resolver over vocab accepting matches scoring >= threshold
func New(vocab []string, threshold int, opts ...Option) *Resolver {
	r := &Resolver{
		vocab:     append([]string(nil), vocab...),
		threshold: threshold,
		metric:    Levenshtein{},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Threshold returns the acceptance threshold
func (r *Resolver) Threshold() int {
	return r.threshold
}

// Match returns the best vocabulary entry and its score. ok is false when
// the best score is below the threshold. Ties go to the earliest entry.
func (r *Resolver) Match(token string) (best string, score int, ok bool) {
	token = strings.ToLower(strings.TrimSpace(token))
	score = -1
	for _, v := range r.vocab {
		if v == token {
			return v, 100, true
		}
		if s := r.metric.Score(token, v); s > score {
			best, score = v, s
		}
	}
	if score < r.threshold || best == "" {
		return "", max(score, 0), false
	}
	return best, score, true
}

// Resolve returns the matching vocabulary entry, or the lowercased token
func (r *Resolver) Resolve(token string) string {
	if best, _, ok := r.Match(token); ok {
		return best
	}
	return strings.ToLower(strings.TrimSpace(token))
}

// ResolveAll resolves each token in order
func (r *Resolver) ResolveAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = r.Resolve(t)
	}
	return out
}
