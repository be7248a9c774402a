package services

import (
	"context"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type voteService struct {
	pollRepo ports.PollRepository
	users    ports.UserService
}

func NewVoteService(pollRepo ports.PollRepository, users ports.UserService) ports.VoteService {
	return &voteService{
		pollRepo: pollRepo,
		users:    users,
	}
}

func (s *voteService) Vote(ctx context.Context, input ports.VoteInput) (*domain.VoteOutcome, error) {
	if err := requireUser(ctx, s.users, input.Voter); err != nil {
		return nil, err
	}

	return s.pollRepo.CastVote(ctx, input.PollID, input.OptionID, input.Voter)
}

// ToggleLike likes or unlikes the poll for an identified user. An empty
// identifier is an anonymous like and skips the identity check.
func (s *voteService) ToggleLike(ctx context.Context, input ports.LikeInput) (int, error) {
	if input.UserIdentifier != "" {
		if err := requireUser(ctx, s.users, input.UserIdentifier); err != nil {
			return 0, err
		}
	}

	return s.pollRepo.ToggleLike(ctx, input.PollID, input.UserIdentifier)
}
