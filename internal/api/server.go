package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/pbaille/pantry/internal/domain"
	"github.com/pbaille/pantry/internal/pantry"
)

// Server exposes the pantry operations as a JSON API
type Server struct {
	svc     *pantry.Service
	addr    string
	log     *zap.Logger
	metrics http.Handler
}

// New creates a new API server. metrics may be nil.
func New(svc *pantry.Service, addr string, log *zap.Logger, metrics http.Handler) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{svc: svc, addr: addr, log: log, metrics: metrics}
}

// Handler builds the router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(withCORS)

	r.Get("/health", s.health)

	r.Post("/accounts", s.signup)
	r.Post("/login", s.login)

	r.Get("/recipes", s.findRecipes)
	r.Get("/recipes/{id}", s.viewRecipe)
	r.Get("/recipes/{id}/similar", s.similarRecipes)
	r.Get("/substitutes", s.substitutes)
	r.Get("/history", s.history)

	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}
	return r
}

// Run starts the HTTP server and stops it when ctx is done
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting server", zap.String("addr", s.addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.log.Info("shutting down server")
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// withCORS adds CORS headers for frontend development
func withCORS(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		h.ServeHTTP(w, r)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// AccountRequest is the request body for signup and login
type AccountRequest struct {
	Username     string   `json:"username"`
	Password     string   `json:"password"`
	Restrictions []string `json:"restrictions,omitempty"`
}

func (s *Server) signup(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := s.svc.Signup(r.Context(), req.Username, req.Password, domain.NewRestrictions(req.Restrictions...))
	switch {
	case errors.Is(err, domain.ErrUsernameExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrEmptyUsername):
		writeError(w, http.StatusBadRequest, err.Error())
	case err != nil:
		s.log.Error("signup failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create account")
	default:
		writeJSON(w, http.StatusCreated, account)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req AccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	account, err := s.svc.Login(r.Context(), req.Username, req.Password)
	switch {
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, err.Error())
	case err != nil:
		s.log.Error("login failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not log in")
	default:
		writeJSON(w, http.StatusOK, account)
	}
}

func (s *Server) findRecipes(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ingredients := pantry.SplitList(q.Get("ingredients"))
	restrictions := domain.ParseRestrictions(q.Get("diet"))

	writeJSON(w, http.StatusOK, s.svc.FindRecipes(r.Context(), ingredients, restrictions))
}

func (s *Server) viewRecipe(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r)
	if !ok {
		return
	}

	view, err := s.svc.ViewRecipe(r.Context(), id)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "recipe not found")
	case err != nil:
		s.log.Error("view recipe failed", zap.Int("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not record recipe view")
	default:
		writeJSON(w, http.StatusOK, view)
	}
}

func (s *Server) similarRecipes(w http.ResponseWriter, r *http.Request) {
	id, ok := recipeID(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipes": s.svc.Similar(r.Context(), id),
	})
}

func (s *Server) substitutes(w http.ResponseWriter, r *http.Request) {
	ingredients := pantry.SplitList(r.URL.Query().Get("ingredients"))
	if len(ingredients) == 0 {
		writeError(w, http.StatusBadRequest, "query parameter 'ingredients' is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"substitutes": s.svc.Substitutes(r.Context(), ingredients),
	})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}

	viewed, err := s.svc.History(r.Context(), limit)
	if err != nil {
		s.log.Error("history failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"recipes": viewed,
		"limit":   limit,
	})
}

func recipeID(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid recipe id")
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
