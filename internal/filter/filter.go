// Package filter keeps the recipes whose diet tags satisfy a user's restrictions.
package filter

import (
	"strings"

	"github.com/pbaille/pantry/internal/domain"
)

// FallbackNote is shown when no candidate survives filtering and the
// unfiltered list is returned instead
const FallbackNote = "No recipes matched restrictions. Showing all recipes instead."

// Rule is an extra admission path for recipes whose diet tags did not match
type Rule interface {
	Name() string
	Admit(r domain.RecipeSummary, restrictions domain.Restrictions) bool
}

// GlutenKeywords are substrings that mark an ingredient as containing gluten
var GlutenKeywords = []string{"wheat", "barley", "rye", "flour", "bread", "pasta"}

// GlutenKeywordRule admits a recipe for "gluten-free" when none of its
// ingredient names contain a gluten keyword
type GlutenKeywordRule struct{}

// Name identifies the rule in logs
func (GlutenKeywordRule) Name() string { return "gluten-keyword" }

// Admit implements Rule
func (GlutenKeywordRule) Admit(r domain.RecipeSummary, restrictions domain.Restrictions) bool {
	if !restrictions.Has("gluten-free") {
		return false
	}
	for _, name := range r.IngredientNames() {
		for _, g := range GlutenKeywords {
			if strings.Contains(name, g) {
				return false
			}
		}
	}
	return true
}

// Filter matches recipes against restrictions
type Filter struct {
	rules []Rule
}

// New creates a Filter. Without rules only diet-tag matching applies.
func New(rules ...Rule) *Filter {
	return &Filter{rules: rules}
}

// Apply returns the recipes with at least one diet tag in restrictions, in
// input order. Empty restrictions return the input unchanged.
func (f *Filter) Apply(recipes []domain.RecipeSummary, restrictions domain.Restrictions) []domain.RecipeSummary {
	restrictions = domain.NewRestrictions(restrictions...)
	if len(restrictions) == 0 {
		return recipes
	}

	filtered := make([]domain.RecipeSummary, 0, len(recipes))
	for _, r := range recipes {
		if f.admit(r, restrictions) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ApplyOrFallback is Apply, except that when filtering empties a non-empty
// list it returns the original list and FallbackNote
func (f *Filter) ApplyOrFallback(recipes []domain.RecipeSummary, restrictions domain.Restrictions) ([]domain.RecipeSummary, string) {
	filtered := f.Apply(recipes, restrictions)
	if len(filtered) == 0 && len(recipes) > 0 {
		return recipes, FallbackNote
	}
	return filtered, ""
}

func (f *Filter) admit(r domain.RecipeSummary, restrictions domain.Restrictions) bool {
	for _, d := range r.Diets {
		if restrictions.Has(d) {
			return true
		}
	}
	for _, rule := range f.rules {
		if rule.Admit(r, restrictions) {
			return true
		}
	}
	return false
}
