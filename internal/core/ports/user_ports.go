package ports

import (
	"context"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

type UserRepository interface {
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// Create inserts the user unless the email is taken. It reports whether a
	// row was inserted; on conflict user is left untouched.
	Create(ctx context.Context, user *domain.User) (bool, error)
}

type UserService interface {
	Register(ctx context.Context, email string, name *string) (*domain.User, bool, error)
	Exists(ctx context.Context, email string) (bool, error)
}
