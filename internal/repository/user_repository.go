package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"moviedash/internal/domain"
	"moviedash/pkg/database"
	apperrors "moviedash/pkg/errors"
)

const selectUser = `
	SELECT id, email, username, password_hash, google_subject, name, picture, created_at, updated_at
	FROM users`

var errUserNotFound = apperrors.NewNotFoundError("User not found")

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a PostgreSQL-backed credential store
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}
	return r.getOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE email = $1`, email)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (r *userRepository) GetByGoogleSubject(ctx context.Context, subject string) (*domain.User, error) {
	return r.getOne(ctx, selectUser+` WHERE google_subject = $1`, subject)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*domain.User, error) {
	var user domain.User
	err := r.db.GetContext(ctx, &user, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `
		INSERT INTO users (id, email, username, password_hash, google_subject)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.GoogleSubject,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return mapUserError("failed to create user", err)
	}
	return nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET username = $2, password_hash = $3, google_subject = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRowxContext(ctx, query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.GoogleSubject,
	).Scan(&user.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return errUserNotFound
	}
	if err != nil {
		return mapUserError("failed to update user", err)
	}
	return nil
}

// UpdateProfile records the display name and picture. Empty values keep the stored ones.
func (r *userRepository) UpdateProfile(ctx context.Context, id, name, picture string) error {
	query := `
		UPDATE users
		SET name = COALESCE(NULLIF($2, ''), name),
		    picture = COALESCE(NULLIF($3, ''), picture),
		    updated_at = NOW()
		WHERE id = $1
	`
	result, err := r.db.ExecContext(ctx, query, id, name, picture)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if rows == 0 {
		return errUserNotFound
	}
	return nil
}

// mapUserError turns unique violations into the matching duplicate error
func mapUserError(msg string, err error) error {
	if constraint, ok := database.UniqueViolation(err); ok {
		switch constraint {
		case "users_email_key":
			return domain.ErrDuplicateEmail.WithInternal(err)
		case "users_username_key":
			return domain.ErrDuplicateUsername.WithInternal(err)
		case "users_google_subject_key":
			return domain.ErrDuplicateGoogleSubject.WithInternal(err)
		}
	}
	return fmt.Errorf("%s: %w", msg, err)
}
