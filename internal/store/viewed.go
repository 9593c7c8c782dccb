package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pbaille/pantry/internal/domain"
)

// AddViewed appends a viewed-recipe snapshot. ID and ViewedAt are filled in
// when empty.
func (s *Store) AddViewed(ctx context.Context, v *domain.ViewedRecipe) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	if v.ViewedAt.IsZero() {
		v.ViewedAt = time.Now().UTC()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO viewed_recipes
			(id, recipe_id, name, ingredients, instructions, calories, protein, fat, carbs, viewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.RecipeID, v.Name, v.Ingredients, v.Instructions,
		v.Calories, v.Protein, v.Fat, v.Carbs, v.ViewedAt,
	)
	if err != nil {
		return fmt.Errorf("insert viewed recipe: %w", err)
	}
	return tx.Commit()
}

// ListViewed returns the most recent snapshots, newest first
func (s *Store) ListViewed(ctx context.Context, limit int) ([]domain.ViewedRecipe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipe_id, name, ingredients, instructions, calories, protein, fat, carbs, viewed_at
		FROM viewed_recipes
		ORDER BY viewed_at DESC, rowid DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list viewed recipes: %w", err)
	}
	defer rows.Close()

	var out []domain.ViewedRecipe
	for rows.Next() {
		var v domain.ViewedRecipe
		if err := rows.Scan(&v.ID, &v.RecipeID, &v.Name, &v.Ingredients, &v.Instructions,
			&v.Calories, &v.Protein, &v.Fat, &v.Carbs, &v.ViewedAt); err != nil {
			return nil, fmt.Errorf("scan viewed recipe: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
