package resolver

import (
	"math"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Metric scores how close two strings are on a 0-100 scale, 100 meaning identical
type Metric interface {
	Score(a, b string) int
}

// MetricFunc adapts a plain function to Metric
type MetricFunc func(a, b string) int

// Score calls f(a, b)
func (f MetricFunc) Score(a, b string) int {
	return f(a, b)
}

// Levenshtein is edit distance normalized by the longer string's rune length
type Levenshtein struct{}

// Score returns 100 * (1 - distance/maxLen), rounded
func (Levenshtein) Score(a, b string) int {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := max(la, lb)
	if longest == 0 {
		return 100
	}
	d := levenshtein.ComputeDistance(a, b)
	return int(math.Round(100 * (1 - float64(d)/float64(longest))))
}
