package spoonacular

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pbaille/pantry/internal/domain"
)

// fakeAPI records every query it receives and answers through respond
type fakeAPI struct {
	mu      sync.Mutex
	queries []map[string]string
	respond func(w http.ResponseWriter, r *http.Request)
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := map[string]string{"path": r.URL.Path}
	for k := range r.URL.Query() {
		q[k] = r.URL.Query().Get(k)
	}
	f.mu.Lock()
	f.queries = append(f.queries, q)
	f.mu.Unlock()
	f.respond(w, r)
}

func (f *fakeAPI) seen(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, q := range f.queries {
		out = append(out, q[key])
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

type recorder struct {
	mu       sync.Mutex
	requests []string
	ladders  map[string]string
}

func (r *recorder) ObserveRequest(endpoint, step, outcome string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, endpoint+"/"+step+"/"+outcome)
}

func (r *recorder) ObserveLadder(ladder, step string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ladders == nil {
		r.ladders = map[string]string{}
	}
	r.ladders[ladder] = step
}

func newTestClient(t *testing.T, api *fakeAPI, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key"
	cfg.RatePerSecond = 0
	cfg.Timeout = 2 * time.Second
	return New(cfg, nil, opts...)
}

func TestSearchByIngredientsFirstStep(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.RecipeSummary{{ID: 7, Title: "Fried Rice"}})
	}}
	c := newTestClient(t, api)

	got := c.SearchByIngredients(context.Background(), []string{"rice", "eggs"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Fried Rice", got[0].Title)
	assert.Equal(t, []string{"rice,eggs"}, api.seen("ingredients"))
	assert.Equal(t, []string{"test-key"}, api.seen("apiKey"))
	assert.Equal(t, []string{"30"}, api.seen("number"))
}

func TestSearchByIngredientsFallsBackToPlural(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ingredients") == "lentils,onions" {
			writeJSON(w, http.StatusOK, []domain.RecipeSummary{{ID: 1, Title: "Dal"}})
			return
		}
		writeJSON(w, http.StatusOK, []domain.RecipeSummary{})
	}}
	rec := &recorder{}
	c := newTestClient(t, api, WithRecorder(rec))

	got := c.SearchByIngredients(context.Background(), []string{"lentil", "onion"}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, "Dal", got[0].Title)
	assert.Equal(t, []string{"lentil,onion", "lentils,onions"}, api.seen("ingredients"))
	assert.Equal(t, "plural", rec.ladders["ingredients"])
}

func TestSearchByIngredientsWalksWholeLadder(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("ingredients") {
		case "Rice,Olive Oils":
			http.Error(w, "quota", http.StatusPaymentRequired)
		case "grain,olive%20oil":
			writeJSON(w, http.StatusOK, []domain.RecipeSummary{{ID: 3, Title: "Grain Salad"}})
		default:
			writeJSON(w, http.StatusOK, []domain.RecipeSummary{})
		}
	}}
	rec := &recorder{}
	c := newTestClient(t, api, WithRecorder(rec))

	got := c.SearchByIngredients(context.Background(), []string{"Rice", "Olive Oils"}, domain.NewRestrictions("gluten free"))
	require.Len(t, got, 1)
	assert.Equal(t, "Grain Salad", got[0].Title)
	assert.Equal(t, []string{
		"Rice,Olive Oils",
		"rices,olive oils",
		"rice,olive%20oil",
		"grain,olive%20oil",
	}, api.seen("ingredients"))
	assert.Equal(t, []string{"gluten", "gluten", "gluten", "gluten"}, api.seen("intolerances"))
	assert.Equal(t, "broad", rec.ladders["ingredients"])
}

func TestSearchByIngredientsExhausted(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}}
	rec := &recorder{}
	c := newTestClient(t, api, WithRecorder(rec))

	assert.Empty(t, c.SearchByIngredients(context.Background(), []string{"rice"}, nil))
	assert.Len(t, api.seen("ingredients"), 4)
	assert.Equal(t, LadderExhausted, rec.ladders["ingredients"])
	assert.Contains(t, rec.requests, "findByIngredients/broad/status")

	assert.Empty(t, c.SearchByIngredients(context.Background(), nil, nil))
	assert.Len(t, api.seen("ingredients"), 4)
}

func TestSearchByIngredientsTransportFailure(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.RatePerSecond = 0
	cfg.Timeout = time.Second
	rec := &recorder{}
	c := New(cfg, nil, WithRecorder(rec))

	assert.Empty(t, c.SearchByIngredients(context.Background(), []string{"rice"}, nil))
	assert.Len(t, rec.requests, 4)
	assert.Equal(t, "findByIngredients/original/transport", rec.requests[0])
}

func TestSearchRandom(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("diet") != "" {
			writeJSON(w, http.StatusOK, complexSearchResponse{})
			return
		}
		writeJSON(w, http.StatusOK, complexSearchResponse{
			Results: []domain.RecipeSummary{{ID: 9, Title: "Toast"}},
		})
	}}
	rec := &recorder{}
	c := newTestClient(t, api, WithRecorder(rec))

	got := c.SearchRandom(context.Background(), domain.NewRestrictions("vegan", "gluten free"))
	require.Len(t, got, 1)
	assert.Equal(t, []string{"vegan,gluten-free", ""}, api.seen("diet"))
	assert.Equal(t, []string{"gluten", ""}, api.seen("intolerances"))
	assert.Equal(t, []string{"15", "15"}, api.seen("number"))
	assert.Equal(t, "unrestricted", rec.ladders["random"])
}

func TestSearchRandomNoRestrictionsNoRetry(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, complexSearchResponse{})
	}}
	c := newTestClient(t, api)

	assert.Empty(t, c.SearchRandom(context.Background(), nil))
	assert.Len(t, api.seen("path"), 1)
}

func TestSearchRandomStatusErrors(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusUnauthorized)
	}}
	c := newTestClient(t, api)

	assert.Empty(t, c.SearchRandom(context.Background(), domain.NewRestrictions("keto")))
	assert.Len(t, api.seen("path"), 2)
}

func TestGetDetails(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/recipes/42/information" {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"id":           42,
			"title":        "Pancakes",
			"instructions": "<p>Whisk</p>",
			"extendedIngredients": []map[string]any{
				{"name": "flour", "original": "1 cup flour"},
			},
			"nutrition": map[string]any{
				"nutrients": []map[string]any{
					{"name": "Calories", "amount": 350.5, "unit": "kcal"},
				},
			},
		})
	}}
	c := newTestClient(t, api)

	got := c.GetDetails(context.Background(), 42)
	require.NotNil(t, got)
	assert.Equal(t, "Pancakes", got.Title)
	assert.Equal(t, 350.5, got.NutrientAmount("Calories"))
	assert.Equal(t, []string{"true"}, api.seen("includeNutrition"))

	assert.Nil(t, c.GetDetails(context.Background(), 1))
}

func TestGetSimilar(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, []domain.RecipeSummary{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}, {ID: 5}})
	}}
	c := newTestClient(t, api)

	assert.Len(t, c.GetSimilar(context.Background(), 42), 5)
	assert.Equal(t, []string{"/recipes/42/similar"}, api.seen("path"))
	assert.Equal(t, []string{"5"}, api.seen("number"))
}

func TestGetSubstitutesFirstHit(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, substitutesResponse{
			Status:      "success",
			Substitutes: []string{"1 cup = 1 cup soy milk"},
		})
	}}
	c := newTestClient(t, api)

	assert.Equal(t, []string{"1 cup = 1 cup soy milk"}, c.GetSubstitutes(context.Background(), "milk"))
	assert.Equal(t, []string{"milk"}, api.seen("ingredientName"))
}

func TestGetSubstitutesLadder(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ingredientName") == "vegetable" {
			writeJSON(w, http.StatusOK, substitutesResponse{Substitutes: []string{"any greens"}})
			return
		}
		writeJSON(w, http.StatusOK, substitutesResponse{Status: "failure"})
	}}
	rec := &recorder{}
	c := newTestClient(t, api, WithRecorder(rec))

	assert.Equal(t, []string{"any greens"}, c.GetSubstitutes(context.Background(), "Brocoli"))
	assert.Equal(t, []string{"Brocoli", "broccoli", "broccolis", "broccoli", "vegetable"}, api.seen("ingredientName"))
	assert.Equal(t, "broad", rec.ladders["substitutes"])
}

func TestGetSubstitutesSentinels(t *testing.T) {
	empty := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, substitutesResponse{Status: "failure"})
	}}
	notFound := newTestClient(t, empty).GetSubstitutes(context.Background(), "milk")
	assert.Equal(t, []string{NoSubstitutesFound}, notFound)
	assert.Len(t, empty.seen("ingredientName"), 5)

	cfg := DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.RatePerSecond = 0
	cfg.Timeout = time.Second
	failed := New(cfg, nil).GetSubstitutes(context.Background(), "milk")
	assert.Equal(t, []string{SubstitutesUnavailable}, failed)

	assert.NotEqual(t, notFound, failed)
}

func TestGetSubstitutesStatusOnLastStep(t *testing.T) {
	api := &fakeAPI{respond: func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}}
	c := newTestClient(t, api)

	assert.Equal(t, []string{SubstitutesUnavailable}, c.GetSubstitutes(context.Background(), "milk"))
	assert.Len(t, api.seen("ingredientName"), 5)
}
