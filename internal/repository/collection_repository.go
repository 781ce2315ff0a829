package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"moviedash/internal/domain"
	"moviedash/pkg/database"
)

type collectionRepository struct {
	db    *sqlx.DB
	table string
}

// NewCollectionRepository creates a repository for the favorites or watchlist table
func NewCollectionRepository(db *sqlx.DB, kind domain.CollectionKind) (CollectionRepository, error) {
	switch kind {
	case domain.CollectionFavorites, domain.CollectionWatchlist:
		return &collectionRepository{db: db, table: string(kind)}, nil
	default:
		return nil, fmt.Errorf("unknown collection %q", kind)
	}
}

func (r *collectionRepository) List(ctx context.Context, userID string) ([]*domain.CollectionItem, error) {
	query := fmt.Sprintf(`
		SELECT id, user_id, movie_id, added_at
		FROM %s
		WHERE user_id = $1
		ORDER BY added_at DESC
	`, r.table)

	items := []*domain.CollectionItem{}
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.table, err)
	}
	return items, nil
}

func (r *collectionRepository) Add(ctx context.Context, userID string, movieID int64) (*domain.CollectionItem, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, movie_id)
		VALUES ($1, $2, $3)
		RETURNING added_at
	`, r.table)

	item := &domain.CollectionItem{
		ID:      uuid.NewString(),
		UserID:  userID,
		MovieID: movieID,
	}
	err := r.db.QueryRowxContext(ctx, query, item.ID, userID, movieID).Scan(&item.AddedAt)
	if err != nil {
		if _, ok := database.UniqueViolation(err); ok {
			return nil, domain.ErrAlreadyInCollection.WithInternal(err)
		}
		return nil, fmt.Errorf("failed to add to %s: %w", r.table, err)
	}
	return item, nil
}

func (r *collectionRepository) Remove(ctx context.Context, userID string, movieID int64) (bool, error) {
	query := fmt.Sprintf(`DELETE FROM %s WHERE user_id = $1 AND movie_id = $2`, r.table)

	res, err := r.db.ExecContext(ctx, query, userID, movieID)
	if err != nil {
		return false, fmt.Errorf("failed to remove from %s: %w", r.table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to remove from %s: %w", r.table, err)
	}
	return n > 0, nil
}

func (r *collectionRepository) Contains(ctx context.Context, userID string, movieID int64) (bool, error) {
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE user_id = $1 AND movie_id = $2)`, r.table)

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, userID, movieID); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", r.table, err)
	}
	return exists, nil
}
