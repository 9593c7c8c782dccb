package spoonacular

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/pbaille/pantry/internal/resolver"
)

// Sentinel substitute lists. NoSubstitutesFound means every lookup succeeded
// and came back empty; SubstitutesUnavailable means a request failed.
const (
	NoSubstitutesFound     = "No substitutes found for this ingredient"
	SubstitutesUnavailable = "No substitutes available"
)

type substitutesResponse struct {
	Status      string   `json:"status"`
	Ingredient  string   `json:"ingredient"`
	Substitutes []string `json:"substitutes"`
	Message     string   `json:"message"`
}

// GetSubstitutes looks up substitutes for an ingredient, trying in turn the
// name as given, the name corrected against the known vocabulary, its plural,
// its normalized form and finally a broad category or synonym.
//
// A transport failure at any step, or a bad status on the last step, returns
// []string{SubstitutesUnavailable}. All steps empty returns
// []string{NoSubstitutesFound}.
func (c *Client) GetSubstitutes(ctx context.Context, ingredient string) []string {
	corrected := c.corrector.Resolve(ingredient)
	normalized := resolver.Normalize(corrected)

	ladder := []struct{ step, name string }{
		{"original", ingredient},
		{"corrected", corrected},
		{"plural", resolver.Pluralize(corrected)},
		{"normalized", normalized},
		{"broad", resolver.Substitute(normalized)},
	}

	for i, rung := range ladder {
		last := i == len(ladder)-1

		var resp substitutesResponse
		err := c.get(ctx, "substitutes", rung.step, "/food/ingredients/substitutes",
			map[string]string{"ingredientName": rung.name}, &resp)

		var se *StatusError
		switch {
		case err == nil:
		case errors.As(err, &se) && !last:
			continue
		default:
			c.rec.ObserveLadder("substitutes", LadderExhausted)
			return []string{SubstitutesUnavailable}
		}

		if len(resp.Substitutes) > 0 {
			c.log.Debug("substitutes found",
				zap.String("step", rung.step),
				zap.String("ingredient", rung.name),
				zap.Int("count", len(resp.Substitutes)),
			)
			c.rec.ObserveLadder("substitutes", rung.step)
			return resp.Substitutes
		}
		c.log.Debug("no substitutes", zap.String("step", rung.step), zap.String("ingredient", rung.name))
	}

	c.rec.ObserveLadder("substitutes", LadderExhausted)
	return []string{NoSubstitutesFound}
}
