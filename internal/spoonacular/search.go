package spoonacular

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pbaille/pantry/internal/domain"
	"github.com/pbaille/pantry/internal/resolver"
)

// LadderExhausted is the step name recorded when no rewrite produced results
const LadderExhausted = "none"

type rewrite struct {
	name string
	fn   func(string) string
}

// ingredientLadder is tried in order until a step returns recipes
var ingredientLadder = []rewrite{
	{"original", func(s string) string { return s }},
	{"plural", resolver.Pluralize},
	{"normalized", resolver.Normalize},
	{"broad", resolver.Broaden},
}

// SearchByIngredients finds recipes using the given ingredients, rewriting
// the ingredient list until a query returns something. A failed request
// counts as an empty step. Returns nil once every step is exhausted.
func (c *Client) SearchByIngredients(ctx context.Context, ingredients []string, restrictions domain.Restrictions) []domain.RecipeSummary {
	if len(ingredients) == 0 {
		return nil
	}

	params := map[string]string{
		"number": strconv.Itoa(c.cfg.Number),
	}
	if restrictions.Has("gluten-free") {
		params["intolerances"] = "gluten"
	}

	for _, step := range ingredientLadder {
		query := strings.Join(resolver.Map(ingredients, step.fn), ",")
		params["ingredients"] = query

		var recipes []domain.RecipeSummary
		if err := c.get(ctx, "findByIngredients", step.name, "/recipes/findByIngredients", params, &recipes); err != nil {
			continue
		}

		c.log.Debug("ingredient search",
			zap.String("step", step.name),
			zap.String("ingredients", query),
			zap.Int("results", len(recipes)),
		)
		if len(recipes) > 0 {
			c.rec.ObserveLadder("ingredients", step.name)
			return recipes
		}
	}

	c.rec.ObserveLadder("ingredients", LadderExhausted)
	return nil
}

type complexSearchResponse struct {
	Results      []domain.RecipeSummary `json:"results"`
	TotalResults int                    `json:"totalResults"`
}

// SearchRandom runs an unconstrained search filtered by diet. When that
// yields nothing and restrictions were given, it retries once without them.
func (c *Client) SearchRandom(ctx context.Context, restrictions domain.Restrictions) []domain.RecipeSummary {
	params := map[string]string{
		"number":               strconv.Itoa(c.cfg.RandomNumber),
		"addRecipeInformation": "true",
		"sort":                 "random",
	}
	if len(restrictions) > 0 {
		params["diet"] = restrictions.String()
		if restrictions.Has("gluten-free") {
			params["intolerances"] = "gluten"
		}
	}

	var resp complexSearchResponse
	if err := c.get(ctx, "complexSearch", "diet", "/recipes/complexSearch", params, &resp); err == nil {
		c.log.Debug("random search",
			zap.String("diet", params["diet"]),
			zap.Int("results", len(resp.Results)),
		)
		if len(resp.Results) > 0 {
			c.rec.ObserveLadder("random", "diet")
			return resp.Results
		}
	}

	if len(restrictions) == 0 {
		c.rec.ObserveLadder("random", LadderExhausted)
		return nil
	}

	delete(params, "diet")
	delete(params, "intolerances")

	resp = complexSearchResponse{}
	if err := c.get(ctx, "complexSearch", "unrestricted", "/recipes/complexSearch", params, &resp); err != nil {
		c.rec.ObserveLadder("random", LadderExhausted)
		return nil
	}
	c.log.Debug("random search without restrictions", zap.Int("results", len(resp.Results)))
	if len(resp.Results) == 0 {
		c.rec.ObserveLadder("random", LadderExhausted)
		return nil
	}
	c.rec.ObserveLadder("random", "unrestricted")
	return resp.Results
}

// GetSimilar returns recipes similar to the given one, or nil on failure
func (c *Client) GetSimilar(ctx context.Context, recipeID int) []domain.RecipeSummary {
	params := map[string]string{"number": strconv.Itoa(c.cfg.SimilarNumber)}

	var recipes []domain.RecipeSummary
	path := "/recipes/" + strconv.Itoa(recipeID) + "/similar"
	if err := c.get(ctx, "similar", "single", path, params, &recipes); err != nil {
		return nil
	}
	return recipes
}

// GetDetails fetches a recipe with nutrition. Returns nil on any failure.
func (c *Client) GetDetails(ctx context.Context, recipeID int) *domain.Recipe {
	params := map[string]string{"includeNutrition": "true"}

	var recipe domain.Recipe
	path := "/recipes/" + strconv.Itoa(recipeID) + "/information"
	if err := c.get(ctx, "information", "single", path, params, &recipe); err != nil {
		return nil
	}
	return &recipe
}
