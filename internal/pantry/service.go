// Package pantry ties ingredient resolution, recipe search, restriction
// filtering and the local store together into the user-facing operations.
package pantry

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pbaille/pantry/internal/domain"
	"github.com/pbaille/pantry/internal/filter"
	"github.com/pbaille/pantry/internal/resolver"
	"github.com/pbaille/pantry/internal/sanitize"
)

// RandomNote is shown when the ingredient search found nothing and random
// recipes are listed instead
const RandomNote = "No recipes matched your ingredients. Showing random recipes instead."

// DefaultSimilarLimit caps the similar recipes shown for a detail view
const DefaultSimilarLimit = 3

// RecipeSource is the remote recipe database
type RecipeSource interface {
	SearchByIngredients(ctx context.Context, ingredients []string, restrictions domain.Restrictions) []domain.RecipeSummary
	SearchRandom(ctx context.Context, restrictions domain.Restrictions) []domain.RecipeSummary
	GetDetails(ctx context.Context, recipeID int) *domain.Recipe
	GetSubstitutes(ctx context.Context, ingredient string) []string
	GetSimilar(ctx context.Context, recipeID int) []domain.RecipeSummary
}

// Store persists accounts and viewed recipes
type Store interface {
	CreateAccount(ctx context.Context, username, password string, restrictions domain.Restrictions) (*domain.Account, error)
	Authenticate(ctx context.Context, username, password string) (*domain.Account, error)
	AddViewed(ctx context.Context, v *domain.ViewedRecipe) error
	ListViewed(ctx context.Context, limit int) ([]domain.ViewedRecipe, error)
}

// AccountExporter receives each newly committed account
type AccountExporter interface {
	ExportAccount(a *domain.Account) error
}

// ViewCounter is told about every stored recipe view
type ViewCounter interface {
	RecipeViewed()
}

// Service implements the pantry operations
type Service struct {
	source       RecipeSource
	store        Store
	resolver     *resolver.Resolver
	filter       *filter.Filter
	exporter     AccountExporter
	views        ViewCounter
	log          *zap.Logger
	similarLimit int
}

// Option configures a Service
type Option func(*Service)

// WithResolver sets the ingredient resolver
func WithResolver(r *resolver.Resolver) Option {
	return func(s *Service) { s.resolver = r }
}

// WithFilter sets the restriction filter
func WithFilter(f *filter.Filter) Option {
	return func(s *Service) { s.filter = f }
}

// WithExporter enables the secondary account export
func WithExporter(e AccountExporter) Option {
	return func(s *Service) { s.exporter = e }
}

// WithViewCounter reports stored views, e.g. to metrics
func WithViewCounter(v ViewCounter) Option {
	return func(s *Service) { s.views = v }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithSimilarLimit caps Similar results
func WithSimilarLimit(n int) Option {
	return func(s *Service) { s.similarLimit = n }
}

// New creates a Service
func New(source RecipeSource, store Store, opts ...Option) *Service {
	s := &Service{
		source:       source,
		store:        store,
		resolver:     resolver.New(resolver.Vocabulary, resolver.DefaultThreshold),
		filter:       filter.New(),
		log:          zap.NewNop(),
		similarLimit: DefaultSimilarLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SearchResult is the outcome of FindRecipes
type SearchResult struct {
	// Ingredients are the tokens after resolution, as sent to the API
	Ingredients []string               `json:"ingredients"`
	Recipes     []domain.RecipeSummary `json:"recipes"`
	// Note is an advisory for the user, empty when results are as asked
	Note string `json:"note,omitempty"`
}

// FindRecipes resolves ingredients, searches with fallbacks and filters by
// restrictions. With no ingredients it lists random recipes for the diet.
func (s *Service) FindRecipes(ctx context.Context, ingredients []string, restrictions domain.Restrictions) SearchResult {
	tokens := CleanTokens(ingredients)
	if len(tokens) == 0 {
		return SearchResult{Recipes: s.source.SearchRandom(ctx, restrictions)}
	}

	resolved := s.resolver.ResolveAll(tokens)
	s.log.Debug("resolved ingredients",
		zap.Strings("input", tokens),
		zap.Strings("resolved", resolved),
	)

	candidates := s.source.SearchByIngredients(ctx, resolved, restrictions)
	if len(candidates) == 0 {
		return SearchResult{
			Ingredients: resolved,
			Recipes:     s.source.SearchRandom(ctx, restrictions),
			Note:        RandomNote,
		}
	}

	recipes, note := s.filter.ApplyOrFallback(candidates, restrictions)
	s.log.Debug("filtered recipes",
		zap.Int("candidates", len(candidates)),
		zap.Int("kept", len(recipes)),
		zap.String("restrictions", restrictions.String()),
	)
	return SearchResult{Ingredients: resolved, Recipes: recipes, Note: note}
}

// RecipeView is a fetched recipe plus the snapshot stored for it
type RecipeView struct {
	// Recipe is as returned by the API; Instructions still hold markup
	Recipe       domain.Recipe       `json:"recipe"`
	Instructions string              `json:"instructions"`
	Record       domain.ViewedRecipe `json:"record"`
}

// ViewRecipe fetches a recipe's details and appends a viewed-recipe record
func (s *Service) ViewRecipe(ctx context.Context, recipeID int) (*RecipeView, error) {
	recipe := s.source.GetDetails(ctx, recipeID)
	if recipe == nil {
		return nil, fmt.Errorf("recipe %d: %w", recipeID, domain.ErrNotFound)
	}

	view := &RecipeView{
		Recipe:       *recipe,
		Instructions: sanitize.Instructions(recipe.Instructions),
	}
	view.Record = Snapshot(*recipe, view.Instructions)

	if err := s.store.AddViewed(ctx, &view.Record); err != nil {
		return nil, fmt.Errorf("record view: %w", err)
	}
	if s.views != nil {
		s.views.RecipeViewed()
	}
	return view, nil
}

// Snapshot flattens a recipe into the record kept in history
func Snapshot(r domain.Recipe, instructions string) domain.ViewedRecipe {
	names := make([]string, 0, len(r.ExtendedIngredients))
	for _, i := range r.ExtendedIngredients {
		names = append(names, i.Name)
	}
	return domain.ViewedRecipe{
		RecipeID:     r.ID,
		Name:         r.Title,
		Ingredients:  strings.Join(names, ","),
		Instructions: instructions,
		Calories:     r.NutrientAmount("Calories"),
		Protein:      r.NutrientAmount("Protein"),
		Fat:          r.NutrientAmount("Fat"),
		Carbs:        r.NutrientAmount("Carbohydrates"),
	}
}

// Substitutes looks up substitutes for each ingredient, in input order
func (s *Service) Substitutes(ctx context.Context, ingredients []string) []domain.SubstituteResult {
	tokens := CleanTokens(ingredients)
	out := make([]domain.SubstituteResult, 0, len(tokens))
	for _, ing := range tokens {
		out = append(out, domain.SubstituteResult{
			Ingredient:  ing,
			Substitutes: s.source.GetSubstitutes(ctx, ing),
		})
	}
	return out
}

// Similar returns up to the configured number of similar recipes
func (s *Service) Similar(ctx context.Context, recipeID int) []domain.RecipeSummary {
	similar := s.source.GetSimilar(ctx, recipeID)
	if len(similar) > s.similarLimit {
		similar = similar[:s.similarLimit]
	}
	return similar
}

// Signup creates an account. The export copy is best effort.
func (s *Service) Signup(ctx context.Context, username, password string, restrictions domain.Restrictions) (*domain.Account, error) {
	account, err := s.store.CreateAccount(ctx, username, password, restrictions)
	if err != nil {
		return nil, err
	}
	s.log.Info("account created", zap.String("username", account.Username))

	if s.exporter != nil {
		if err := s.exporter.ExportAccount(account); err != nil {
			s.log.Warn("account export failed", zap.String("username", account.Username), zap.Error(err))
		}
	}
	return account, nil
}

// Login checks credentials and returns the account
func (s *Service) Login(ctx context.Context, username, password string) (*domain.Account, error) {
	account, err := s.store.Authenticate(ctx, username, password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		s.log.Debug("login rejected", zap.String("username", username))
	}
	return account, err
}

// History lists recently viewed recipes, newest first
func (s *Service) History(ctx context.Context, limit int) ([]domain.ViewedRecipe, error) {
	return s.store.ListViewed(ctx, limit)
}

// CleanTokens trims tokens and drops empty ones
func CleanTokens(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// SplitList splits a comma-separated list into clean tokens
func SplitList(s string) []string {
	return CleanTokens(strings.Split(s, ","))
}
