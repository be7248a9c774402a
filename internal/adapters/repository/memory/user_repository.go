package memory

import (
	"context"
	"time"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) ports.UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	user, ok := r.store.users[email]
	if !ok {
		return nil, nil
	}
	cp := *user
	return &cp, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (bool, error) {
	if err := contextErr(ctx); err != nil {
		return false, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.users[user.Email]; ok {
		return false, nil
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	cp := *user
	r.store.users[user.Email] = &cp
	return true, nil
}
