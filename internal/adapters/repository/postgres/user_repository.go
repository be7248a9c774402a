package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) ports.UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT id, email, name, created_at FROM users WHERE email = $1`
	user := &domain.User{}
	var name sql.NullString
	err := r.db.QueryRowContext(ctx, query, email).Scan(&user.ID, &user.Email, &name, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, persistenceError("failed to get user", err)
	}
	if name.Valid {
		user.Name = &name.String
	}
	return user, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (bool, error) {
	query := `
		INSERT INTO users (id, email, name) VALUES ($1, $2, $3)
		ON CONFLICT (email) DO NOTHING
		RETURNING created_at
	`
	err := r.db.QueryRowContext(ctx, query, user.ID, user.Email, user.Name).Scan(&user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, persistenceError("failed to create user", err)
	}
	return true, nil
}
