package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// PollRepository owns polls, options, votes and likes. Every method applies
// atomically or not at all; storage faults are reported as
// domain.ErrPersistence.
type PollRepository interface {
	Create(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	List(ctx context.Context) ([]*domain.Poll, error)
	CastVote(ctx context.Context, pollID, optionID uuid.UUID, voter string) (*domain.VoteOutcome, error)
	ToggleLike(ctx context.Context, pollID uuid.UUID, userIdentifier string) (int, error)
}

type CreatePollInput struct {
	Question  string
	Options   []string
	CreatedBy string
}

type PollService interface {
	Create(ctx context.Context, input CreatePollInput) (*domain.Poll, error)
	GetPoll(ctx context.Context, id string) (*domain.Poll, error)
	ListPolls(ctx context.Context) ([]*domain.Poll, error)
}
