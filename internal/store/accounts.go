package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"golang.org/x/crypto/bcrypt"

	"github.com/pbaille/pantry/internal/domain"
)

// CreateAccount stores a new account with a hashed password. The whole
// write happens in one transaction and is rolled back on any error.
func (s *Store) CreateAccount(ctx context.Context, username, password string, restrictions domain.Restrictions) (*domain.Account, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, domain.ErrEmptyUsername
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.hashCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM users WHERE name = ?", username).Scan(&exists)
	if err == nil {
		return nil, domain.ErrUsernameExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	restrictions = domain.NewRestrictions(restrictions...)
	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx,
		"INSERT INTO users (name, password_hash, dietary_restrictions, created_at) VALUES (?, ?, ?, ?)",
		username, string(hash), nullString(restrictions.String()), now,
	)
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return nil, domain.ErrUsernameExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	return &domain.Account{
		ID:           id,
		Username:     username,
		PasswordHash: string(hash),
		Restrictions: restrictions,
		CreatedAt:    now,
	}, nil
}

// GetAccount looks up an account by username
func (s *Store) GetAccount(ctx context.Context, username string) (*domain.Account, error) {
	var (
		a     domain.Account
		restr sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, password_hash, dietary_restrictions, created_at FROM users WHERE name = ?",
		strings.TrimSpace(username),
	).Scan(&a.ID, &a.Username, &a.PasswordHash, &restr, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	a.Restrictions = domain.ParseRestrictions(restr.String)
	return &a, nil
}

// Authenticate returns the account when the password matches
func (s *Store) Authenticate(ctx context.Context, username, password string) (*domain.Account, error) {
	a, err := s.GetAccount(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	return a, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
