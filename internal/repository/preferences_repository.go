package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type preferencesRepository struct {
	db *sqlx.DB
}

// NewPreferencesRepository creates a repository over users.preferences
func NewPreferencesRepository(db *sqlx.DB) PreferencesRepository {
	return &preferencesRepository{db: db}
}

func (r *preferencesRepository) Get(ctx context.Context, userID string) (json.RawMessage, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return nil, nil
	}

	var prefs []byte
	err := r.db.GetContext(ctx, &prefs, `SELECT preferences FROM users WHERE id = $1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get preferences: %w", err)
	}
	return json.RawMessage(prefs), nil
}

func (r *preferencesRepository) Set(ctx context.Context, userID string, prefs json.RawMessage) (bool, error) {
	if _, err := uuid.Parse(userID); err != nil {
		return false, nil
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET preferences = $2, updated_at = NOW() WHERE id = $1`,
		userID, string(prefs),
	)
	if err != nil {
		return false, fmt.Errorf("failed to update preferences: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to update preferences: %w", err)
	}
	return rows > 0, nil
}
