package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type UserService struct {
	repo ports.UserRepository
}

func NewUserService(repo ports.UserRepository) ports.UserService {
	return &UserService{
		repo: repo,
	}
}

// Register creates the user, or returns the already registered one with
// created set to false. Email format is checked by the caller.
func (s *UserService) Register(ctx context.Context, email string, name *string) (*domain.User, bool, error) {
	if strings.TrimSpace(email) == "" {
		return nil, false, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}

	user := &domain.User{
		ID:    uuid.New(),
		Email: email,
		Name:  name,
	}
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	if created {
		return user, true, nil
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, false, fmt.Errorf("failed to get user: %w", err)
	}
	if existing == nil {
		return nil, false, fmt.Errorf("%w: user %q vanished after conflict", domain.ErrPersistence, email)
	}
	return existing, false, nil
}

func (s *UserService) Exists(ctx context.Context, email string) (bool, error) {
	if email == "" {
		return false, nil
	}
	user, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return false, fmt.Errorf("failed to get user: %w", err)
	}
	return user != nil, nil
}
