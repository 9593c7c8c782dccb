package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pbaille/pantry/internal/api"
	"github.com/pbaille/pantry/internal/config"
	"github.com/pbaille/pantry/internal/domain"
	"github.com/pbaille/pantry/internal/filter"
	"github.com/pbaille/pantry/internal/logger"
	"github.com/pbaille/pantry/internal/metrics"
	"github.com/pbaille/pantry/internal/pantry"
	"github.com/pbaille/pantry/internal/resolver"
	"github.com/pbaille/pantry/internal/sanitize"
	"github.com/pbaille/pantry/internal/spoonacular"
	"github.com/pbaille/pantry/internal/store"
)

var (
	configFile string
	dbPath     string
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "pantry",
		Short:         "Find recipes for what is already in your pantry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (overrides config)")

	rootCmd.AddCommand(signupCmd())
	rootCmd.AddCommand(loginCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(similarCmd())
	rootCmd.AddCommand(subsCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(serveCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app holds everything a command needs
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	store    *store.Store
	svc      *pantry.Service
	registry *prometheus.Registry
	closeLog func()
}

func setup() (*app, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}
	if dbPath != "" {
		cfg.DB.Path = dbPath
	}

	log, closeLog, err := logger.New(cfg.Log.Level, cfg.Log.File, os.Stderr)
	if err != nil {
		return nil, err
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(cfg.DB.Path), 0755); err != nil {
		closeLog()
		return nil, fmt.Errorf("create db dir: %w", err)
	}
	st, err := store.New(cfg.DB.Path)
	if err != nil {
		closeLog()
		return nil, err
	}

	if cfg.API.Key == "" {
		log.Warn("no API key configured; set SPOONACULAR_API_KEY")
	}
	log.Debug("configuration loaded",
		zap.String("api_key", cfg.MaskedKey()),
		zap.String("db", cfg.DB.Path),
		zap.Int("threshold", cfg.Resolver.Threshold),
	)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	client := spoonacular.New(spoonacular.Config{
		BaseURL:       cfg.API.BaseURL,
		APIKey:        cfg.API.Key,
		Timeout:       cfg.API.Timeout,
		RatePerSecond: cfg.API.RatePerSecond,
		Burst:         cfg.API.Burst,
		Number:        cfg.Search.Number,
		RandomNumber:  cfg.Search.RandomNumber,
		SimilarNumber: cfg.Search.SimilarNumber,
	}, log,
		spoonacular.WithRecorder(collector),
		spoonacular.WithCorrector(resolver.New(resolver.CommonVocabulary, cfg.Resolver.Threshold)),
	)

	var rules []filter.Rule
	if cfg.Filter.GlutenKeywordRule {
		rules = append(rules, filter.GlutenKeywordRule{})
	}

	opts := []pantry.Option{
		pantry.WithLogger(log),
		pantry.WithResolver(resolver.New(resolver.Vocabulary, cfg.Resolver.Threshold)),
		pantry.WithFilter(filter.New(rules...)),
		pantry.WithSimilarLimit(cfg.Display.SimilarLimit),
		pantry.WithViewCounter(collector),
	}
	if cfg.Audit.Path != "" {
		opts = append(opts, pantry.WithExporter(store.NewCSVExport(cfg.Audit.Path)))
	}

	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		svc:      pantry.New(client, st, opts...),
		registry: registry,
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	a.store.Close()
	a.closeLog()
}

func signupCmd() *cobra.Command {
	var password, diet string

	cmd := &cobra.Command{
		Use:   "signup [username]",
		Short: "Create an account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.svc.Signup(cmd.Context(), args[0], password, domain.ParseRestrictions(diet))
			if errors.Is(err, domain.ErrUsernameExists) || errors.Is(err, domain.ErrEmptyUsername) {
				return err
			}
			if err != nil {
				return fmt.Errorf("error creating account: %w", err)
			}

			fmt.Printf("Account created. Welcome, %s!\n", account.Username)
			if len(account.Restrictions) > 0 {
				fmt.Printf("Dietary restrictions: %s\n", account.Restrictions)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&diet, "diet", "", "dietary restrictions, comma-separated")
	cmd.MarkFlagRequired("password")
	return cmd
}

func loginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Check credentials and show the account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.svc.Login(cmd.Context(), args[0], password)
			if err != nil {
				return err
			}

			fmt.Printf("Welcome back, %s!\n", account.Username)
			if len(account.Restrictions) > 0 {
				fmt.Printf("Dietary restrictions: %s\n", account.Restrictions)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.MarkFlagRequired("password")
	return cmd
}

func searchCmd() *cobra.Command {
	var user, password, diet string

	cmd := &cobra.Command{
		Use:   "search [ingredients...]",
		Short: "Search recipes by ingredients (comma-separated or one per argument)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			restrictions := domain.ParseRestrictions(diet)
			if user != "" {
				account, err := a.svc.Login(cmd.Context(), user, password)
				if err != nil {
					return err
				}
				restrictions = domain.NewRestrictions(append(account.Restrictions, restrictions...)...)
			}

			res := a.svc.FindRecipes(cmd.Context(), pantry.SplitList(strings.Join(args, ",")), restrictions)
			if res.Note != "" {
				fmt.Printf("Note: %s\n", res.Note)
			}
			if len(res.Recipes) == 0 {
				fmt.Println("No recipes found.")
				return nil
			}

			fmt.Println("Recipes found:")
			for _, r := range res.Recipes {
				fmt.Printf("%8d  %s\n", r.ID, truncate(r.Title, 60))
			}
			fmt.Println("\nUse 'pantry show [id]' to view a recipe.")
			return nil
		},
	}

	cmd.Flags().StringVarP(&user, "user", "u", "", "use this account's dietary restrictions")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	cmd.Flags().StringVar(&diet, "diet", "", "extra dietary restrictions, comma-separated")
	return cmd
}

func showCmd() *cobra.Command {
	var steps bool

	cmd := &cobra.Command{
		Use:   "show [id]",
		Short: "Show recipe details and record the view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			view, err := a.svc.ViewRecipe(cmd.Context(), id)
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("failed to fetch recipe details for %d", id)
			}
			if err != nil {
				return err
			}

			fmt.Printf("Recipe: %s\n", view.Recipe.Title)
			fmt.Println("\nIngredients:")
			for _, ing := range view.Recipe.ExtendedIngredients {
				line := ing.Original
				if line == "" {
					line = ing.Name
				}
				fmt.Printf("  - %s\n", line)
			}

			fmt.Println("\nInstructions:")
			if steps {
				fmt.Println(sanitize.Steps(view.Recipe.Instructions))
			} else {
				fmt.Println(view.Instructions)
			}

			rec := view.Record
			fmt.Println("\nNutrition:")
			fmt.Printf("  Calories: %.0f\n", rec.Calories)
			fmt.Printf("  Protein:  %.1f g\n", rec.Protein)
			fmt.Printf("  Fat:      %.1f g\n", rec.Fat)
			fmt.Printf("  Carbs:    %.1f g\n", rec.Carbs)

			similar := a.svc.Similar(cmd.Context(), id)
			if len(similar) > 0 {
				fmt.Println("\nYou might also like:")
				for _, r := range similar {
					fmt.Printf("%8d  %s\n", r.ID, truncate(r.Title, 60))
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&steps, "steps", false, "print instructions one step per line")
	return cmd
}

func similarCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "similar [id]",
		Short: "List recipes similar to a recipe",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			similar := a.svc.Similar(cmd.Context(), id)
			if len(similar) == 0 {
				fmt.Println("No similar recipes found.")
				return nil
			}
			for _, r := range similar {
				fmt.Printf("%8d  %s\n", r.ID, truncate(r.Title, 60))
			}
			return nil
		},
	}
}

func subsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "subs [ingredients...]",
		Short: "Suggest ingredient substitutes",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			fmt.Println("Substitutes:")
			for _, res := range a.svc.Substitutes(cmd.Context(), pantry.SplitList(strings.Join(args, ","))) {
				fmt.Printf("  %s:\n", res.Ingredient)
				for _, s := range res.Substitutes {
					fmt.Printf("    - %s\n", s)
				}
			}
			return nil
		},
	}
}

func historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recently viewed recipes",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			if limit <= 0 {
				limit = a.cfg.Display.HistoryLimit
			}
			viewed, err := a.svc.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			if len(viewed) == 0 {
				fmt.Println("No recipes viewed yet. Use 'pantry show [id]' to view one.")
				return nil
			}

			for _, v := range viewed {
				fmt.Printf("%s  %8d  %-40s %6.0f kcal\n",
					v.ViewedAt.Local().Format("2006-01-02 15:04"), v.RecipeID, truncate(v.Name, 40), v.Calories)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "number of recipes to show")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the JSON API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = a.cfg.Server.Addr
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := api.New(a.svc, addr, a.log, metrics.Handler(a.registry))
			return server.Run(ctx)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "server address (overrides config)")
	return cmd
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid recipe id: %s", s)
	}
	return id, nil
}

func truncate(s string, max int) string {
	// Replace newlines with spaces for display
	s = strings.ReplaceAll(s, "\n", " ")
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
