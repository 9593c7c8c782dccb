package pantry

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/pbaille/pantry/internal/domain"
	"github.com/pbaille/pantry/internal/filter"
	"github.com/pbaille/pantry/internal/store"
)

// stubSource answers from fixed data and records what it was asked
type stubSource struct {
	byIngredients map[string][]domain.RecipeSummary
	random        []domain.RecipeSummary
	details       map[int]*domain.Recipe
	substitutes   map[string][]string
	similar       []domain.RecipeSummary

	searched     [][]string
	randomCalled int
}

func (s *stubSource) SearchByIngredients(_ context.Context, ingredients []string, _ domain.Restrictions) []domain.RecipeSummary {
	s.searched = append(s.searched, ingredients)
	key := ""
	for i, ing := range ingredients {
		if i > 0 {
			key += ","
		}
		key += ing
	}
	return s.byIngredients[key]
}

func (s *stubSource) SearchRandom(context.Context, domain.Restrictions) []domain.RecipeSummary {
	s.randomCalled++
	return s.random
}

func (s *stubSource) GetDetails(_ context.Context, id int) *domain.Recipe {
	return s.details[id]
}

func (s *stubSource) GetSubstitutes(_ context.Context, ing string) []string {
	if subs, ok := s.substitutes[ing]; ok {
		return subs
	}
	return []string{"none"}
}

func (s *stubSource) GetSimilar(context.Context, int) []domain.RecipeSummary {
	return s.similar
}

func newStore(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "pantry.db"), store.WithHashCost(bcrypt.MinCost))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestFindRecipesResolvesAndFilters(t *testing.T) {
	src := &stubSource{byIngredients: map[string][]domain.RecipeSummary{
		"broccoli,rice": {
			{ID: 1, Title: "Stir Fry", Diets: []string{"vegan"}},
			{ID: 2, Title: "Chicken Rice"},
		},
	}}
	svc := New(src, newStore(t))

	res := svc.FindRecipes(context.Background(), []string{" Brocoli", "", "RICE "}, domain.NewRestrictions("Vegan"))
	assert.Equal(t, []string{"broccoli", "rice"}, res.Ingredients)
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, "Stir Fry", res.Recipes[0].Title)
	assert.Empty(t, res.Note)
	assert.Equal(t, 0, src.randomCalled)
}

func TestFindRecipesFilterFallback(t *testing.T) {
	src := &stubSource{byIngredients: map[string][]domain.RecipeSummary{
		"beef": {{ID: 2, Title: "Burger"}},
	}}
	svc := New(src, newStore(t))

	res := svc.FindRecipes(context.Background(), []string{"beef"}, domain.NewRestrictions("vegan"))
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, filter.FallbackNote, res.Note)
}

func TestFindRecipesGlutenRule(t *testing.T) {
	src := &stubSource{byIngredients: map[string][]domain.RecipeSummary{
		"rice": {
			{ID: 1, Title: "Bread Pudding", UsedIngredients: []domain.IngredientRef{{Name: "white bread"}}},
			{ID: 2, Title: "Rice Pudding", UsedIngredients: []domain.IngredientRef{{Name: "rice"}}},
		},
	}}
	svc := New(src, newStore(t), WithFilter(filter.New(filter.GlutenKeywordRule{})))

	res := svc.FindRecipes(context.Background(), []string{"rice"}, domain.NewRestrictions("gluten free"))
	require.Len(t, res.Recipes, 1)
	assert.Equal(t, "Rice Pudding", res.Recipes[0].Title)
}

func TestFindRecipesRandomFallbacks(t *testing.T) {
	src := &stubSource{random: []domain.RecipeSummary{{ID: 5, Title: "Surprise"}}}
	svc := New(src, newStore(t))

	res := svc.FindRecipes(context.Background(), []string{"xyzzyx"}, nil)
	assert.Equal(t, []string{"xyzzyx"}, res.Ingredients)
	assert.Equal(t, RandomNote, res.Note)
	assert.Len(t, res.Recipes, 1)

	res = svc.FindRecipes(context.Background(), []string{" ", ""}, nil)
	assert.Empty(t, res.Note)
	assert.Len(t, res.Recipes, 1)
	assert.Equal(t, 2, src.randomCalled)
	assert.Len(t, src.searched, 1)
}

func TestViewRecipeStoresSnapshot(t *testing.T) {
	src := &stubSource{details: map[int]*domain.Recipe{
		42: {
			ID:    42,
			Title: "Pancakes",
			ExtendedIngredients: []domain.IngredientRef{
				{Name: "flour"}, {Name: "milk"}, {Name: "eggs"},
			},
			Instructions: "<ol><li>Whisk</li><li>Fry</li></ol>",
			Nutrition: domain.Nutrition{Nutrients: []domain.Nutrient{
				{Name: "Calories", Amount: 350},
				{Name: "Fat", Amount: 12},
				{Name: "Carbohydrates", Amount: 50},
			}},
		},
	}}
	st := newStore(t)
	views := &countingViews{}
	svc := New(src, st, WithViewCounter(views))
	ctx := context.Background()

	view, err := svc.ViewRecipe(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "WhiskFry", view.Instructions)
	assert.Equal(t, "flour,milk,eggs", view.Record.Ingredients)
	assert.Equal(t, 350.0, view.Record.Calories)
	assert.Equal(t, 0.0, view.Record.Protein)
	assert.Equal(t, 12.0, view.Record.Fat)
	assert.Equal(t, 50.0, view.Record.Carbs)
	assert.Equal(t, 1, views.n)

	history, err := svc.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Pancakes", history[0].Name)
	assert.Equal(t, "WhiskFry", history[0].Instructions)

	_, err = svc.ViewRecipe(ctx, 7)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSnapshotPlaceholder(t *testing.T) {
	rec := Snapshot(domain.Recipe{Title: "Toast"}, "No instructions available")
	assert.Equal(t, "Toast", rec.Name)
	assert.Equal(t, "", rec.Ingredients)
	assert.Equal(t, 0.0, rec.Calories)
}

func TestSubstitutesAndSimilar(t *testing.T) {
	src := &stubSource{
		substitutes: map[string][]string{"butter": {"margarine"}},
		similar:     []domain.RecipeSummary{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}},
	}
	svc := New(src, newStore(t))

	subs := svc.Substitutes(context.Background(), SplitList("butter, tofu,,"))
	assert.Equal(t, []domain.SubstituteResult{
		{Ingredient: "butter", Substitutes: []string{"margarine"}},
		{Ingredient: "tofu", Substitutes: []string{"none"}},
	}, subs)

	assert.Len(t, svc.Similar(context.Background(), 1), 3)
	assert.Len(t, New(src, newStore(t), WithSimilarLimit(10)).Similar(context.Background(), 1), 5)
}

func TestSignupAndLogin(t *testing.T) {
	exp := &recordingExporter{}
	svc := New(&stubSource{}, newStore(t), WithExporter(exp))
	ctx := context.Background()

	alice, err := svc.Signup(ctx, "alice", "pw1", domain.NewRestrictions("vegan"))
	require.NoError(t, err)

	_, err = svc.Signup(ctx, "alice", "pw2", nil)
	assert.ErrorIs(t, err, domain.ErrUsernameExists)
	assert.Equal(t, []string{"alice"}, exp.names)

	got, err := svc.Login(ctx, "alice", "pw1")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, domain.Restrictions{"vegan"}, got.Restrictions)

	_, err = svc.Login(ctx, "alice", "pw2")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestSignupExportFailureIsNotFatal(t *testing.T) {
	svc := New(&stubSource{}, newStore(t), WithExporter(&recordingExporter{err: errors.New("disk full")}))

	_, err := svc.Signup(context.Background(), "bob", "pw", nil)
	assert.NoError(t, err)
}

type countingViews struct{ n int }

func (c *countingViews) RecipeViewed() { c.n++ }

type recordingExporter struct {
	names []string
	err   error
}

func (e *recordingExporter) ExportAccount(a *domain.Account) error {
	if e.err != nil {
		return e.err
	}
	e.names = append(e.names, a.Username)
	return nil
}
