package memory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type pollRepository struct {
	store *Store
}

func NewPollRepository(store *Store) ports.PollRepository {
	return &pollRepository{
		store: store,
	}
}

func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	if err := contextErr(ctx); err != nil {
		return err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *poll
	stored.Options = append([]domain.Option(nil), poll.Options...)
	for i := range stored.Options {
		stored.Options[i].VotesCount = 0
		stored.Options[i].Position = i
	}
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}

	s.polls[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return s.snapshot(poll), nil
}

func (r *pollRepository) List(ctx context.Context) ([]*domain.Poll, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	polls := make([]*domain.Poll, 0, len(s.order))
	for _, id := range s.order {
		polls = append(polls, s.snapshot(s.polls[id]))
	}
	return polls, nil
}

func (r *pollRepository) CastVote(ctx context.Context, pollID, optionID uuid.UUID, voter string) (*domain.VoteOutcome, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[pollID]
	if !ok {
		return nil, domain.ErrOptionNotFound
	}
	target := s.optionIndex(poll, optionID)
	if target < 0 {
		return nil, domain.ErrOptionNotFound
	}

	now := time.Now().UTC()
	key := voteKey{pollID: pollID, voter: voter}
	outcome := &domain.VoteOutcome{PollID: pollID}

	existing, voted := s.votes[key]
	switch {
	case !voted:
		s.votes[key] = &domain.Vote{
			ID:        uuid.New(),
			PollID:    pollID,
			OptionID:  optionID,
			Voter:     voter,
			CreatedAt: now,
			UpdatedAt: now,
		}
	case existing.OptionID == optionID:
		return nil, domain.ErrAlreadyVoted
	default:
		if prev := s.optionIndex(poll, existing.OptionID); prev >= 0 {
			if poll.Options[prev].VotesCount > 0 {
				poll.Options[prev].VotesCount--
			}
			previous := poll.Options[prev]
			outcome.Previous = &previous
		}
		existing.OptionID = optionID
		existing.UpdatedAt = now
	}

	poll.Options[target].VotesCount++
	outcome.Option = poll.Options[target]
	return outcome, nil
}

func (r *pollRepository) ToggleLike(ctx context.Context, pollID uuid.UUID, userIdentifier string) (int, error) {
	if err := contextErr(ctx); err != nil {
		return 0, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.polls[pollID]; !ok {
		return 0, domain.ErrPollNotFound
	}

	likes := s.likes[pollID]
	if userIdentifier != "" {
		for i, like := range likes {
			if like.UserIdentifier == userIdentifier {
				s.likes[pollID] = append(likes[:i:i], likes[i+1:]...)
				return len(s.likes[pollID]), nil
			}
		}
	}

	s.likes[pollID] = append(likes, domain.Like{
		ID:             uuid.New(),
		PollID:         pollID,
		UserIdentifier: userIdentifier,
		CreatedAt:      time.Now().UTC(),
	})
	return len(s.likes[pollID]), nil
}
