package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

type VoteInput struct {
	PollID   uuid.UUID
	OptionID uuid.UUID
	Voter    string
}

type LikeInput struct {
	PollID         uuid.UUID
	UserIdentifier string
}

type VoteService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.VoteOutcome, error)
	ToggleLike(ctx context.Context, input LikeInput) (int, error)
}
