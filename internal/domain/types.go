package domain

import (
	"strings"
	"time"
)

// RecipeSummary is a search hit as returned by the recipe API
type RecipeSummary struct {
	ID                    int             `json:"id"`
	Title                 string          `json:"title"`
	Image                 string          `json:"image,omitempty"`
	Diets                 []string        `json:"diets,omitempty"`
	UsedIngredients       []IngredientRef `json:"usedIngredients,omitempty"`
	MissedIngredients     []IngredientRef `json:"missedIngredients,omitempty"`
	UsedIngredientCount   int             `json:"usedIngredientCount,omitempty"`
	MissedIngredientCount int             `json:"missedIngredientCount,omitempty"`
}

// IngredientNames returns the lowercased names of used and missed ingredients
func (r RecipeSummary) IngredientNames() []string {
	names := make([]string, 0, len(r.UsedIngredients)+len(r.MissedIngredients))
	for _, i := range r.UsedIngredients {
		names = append(names, strings.ToLower(i.Name))
	}
	for _, i := range r.MissedIngredients {
		names = append(names, strings.ToLower(i.Name))
	}
	return names
}

// IngredientRef is one ingredient line attached to a recipe
type IngredientRef struct {
	ID       int     `json:"id,omitempty"`
	Name     string  `json:"name"`
	Original string  `json:"original,omitempty"`
	Amount   float64 `json:"amount,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// Nutrient is a named amount from the nutrition block
type Nutrient struct {
	Name   string  `json:"name"`
	Amount float64 `json:"amount"`
	Unit   string  `json:"unit"`
}

// Nutrition holds the per-serving nutrient list
type Nutrition struct {
	Nutrients []Nutrient `json:"nutrients"`
}

// Recipe is the full detail record for a single recipe
type Recipe struct {
	ID                  int             `json:"id"`
	Title               string          `json:"title"`
	Diets               []string        `json:"diets,omitempty"`
	ExtendedIngredients []IngredientRef `json:"extendedIngredients,omitempty"`
	Nutrition           Nutrition       `json:"nutrition"`
	Instructions        string          `json:"instructions"`
	ReadyInMinutes      int             `json:"readyInMinutes,omitempty"`
	Servings            int             `json:"servings,omitempty"`
	SourceURL           string          `json:"sourceUrl,omitempty"`
}

// NutrientAmount returns the amount of the named nutrient, or 0
func (r Recipe) NutrientAmount(name string) float64 {
	for _, n := range r.Nutrition.Nutrients {
		if n.Name == name {
			return n.Amount
		}
	}
	return 0
}

// Account is a stored user profile
type Account struct {
	ID           int64        `json:"id"`
	Username     string       `json:"username"`
	PasswordHash string       `json:"-"`
	Restrictions Restrictions `json:"restrictions,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ViewedRecipe is the snapshot written each time a recipe detail is opened
type ViewedRecipe struct {
	ID           string    `json:"id"`
	RecipeID     int       `json:"recipe_id"`
	Name         string    `json:"name"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	Calories     float64   `json:"calories"`
	Protein      float64   `json:"protein"`
	Fat          float64   `json:"fat"`
	Carbs        float64   `json:"carbs"`
	ViewedAt     time.Time `json:"viewed_at"`
}

// SubstituteResult pairs an ingredient with its substitute lines
type SubstituteResult struct {
	Ingredient  string   `json:"ingredient"`
	Substitutes []string `json:"substitutes"`
}
