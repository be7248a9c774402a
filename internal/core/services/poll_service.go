package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type pollService struct {
	repo  ports.PollRepository
	users ports.UserService
}

func NewPollService(repo ports.PollRepository, users ports.UserService) ports.PollService {
	return &pollService{
		repo:  repo,
		users: users,
	}
}

func (s *pollService) Create(ctx context.Context, input ports.CreatePollInput) (*domain.Poll, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is required", domain.ErrInvalidInput)
	}
	if len(input.Options) == 0 {
		return nil, fmt.Errorf("%w: at least one option is required", domain.ErrInvalidInput)
	}

	if err := requireUser(ctx, s.users, input.CreatedBy); err != nil {
		return nil, err
	}

	pollID := uuid.New()
	poll := &domain.Poll{
		ID:        pollID,
		Question:  question,
		CreatedBy: input.CreatedBy,
		CreatedAt: time.Now().UTC(),
		Options:   make([]domain.Option, 0, len(input.Options)),
	}

	for i, optText := range input.Options {
		optText = strings.TrimSpace(optText)
		if optText == "" {
			return nil, fmt.Errorf("%w: option %d is empty", domain.ErrInvalidInput, i+1)
		}
		poll.Options = append(poll.Options, domain.Option{
			ID:       uuid.New(),
			PollID:   pollID,
			Text:     optText,
			Position: i,
		})
	}

	if err := s.repo.Create(ctx, poll); err != nil {
		return nil, err
	}

	return poll, nil
}

func (s *pollService) GetPoll(ctx context.Context, id string) (*domain.Poll, error) {
	pollID, err := uuid.Parse(id)
	if err != nil {
		return nil, domain.ErrInvalidPollID
	}

	return s.repo.GetByID(ctx, pollID)
}

func (s *pollService) ListPolls(ctx context.Context) ([]*domain.Poll, error) {
	return s.repo.List(ctx)
}

// requireUser fails with domain.ErrUnknownUser unless email is registered.
func requireUser(ctx context.Context, users ports.UserService, email string) error {
	ok, err := users.Exists(ctx, email)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownUser, email)
	}
	return nil
}
