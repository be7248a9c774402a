package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type tallyRepository struct {
	store *Store
}

func NewTallyRepository(store *Store) ports.TallyRepository {
	return &tallyRepository{
		store: store,
	}
}

func (r *tallyRepository) PollIDs(ctx context.Context) ([]uuid.UUID, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	return append([]uuid.UUID(nil), r.store.order...), nil
}

func (r *tallyRepository) Recount(ctx context.Context, pollID uuid.UUID) ([]domain.TallyCorrection, error) {
	if err := contextErr(ctx); err != nil {
		return nil, err
	}

	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[pollID]
	if !ok {
		return nil, domain.ErrPollNotFound
	}

	actual := make(map[uuid.UUID]int, len(poll.Options))
	for key, vote := range s.votes {
		if key.pollID == pollID {
			actual[vote.OptionID]++
		}
	}

	var corrections []domain.TallyCorrection
	for i := range poll.Options {
		opt := &poll.Options[i]
		if opt.VotesCount == actual[opt.ID] {
			continue
		}
		corrections = append(corrections, domain.TallyCorrection{
			PollID:   pollID,
			OptionID: opt.ID,
			Cached:   opt.VotesCount,
			Actual:   actual[opt.ID],
		})
		opt.VotesCount = actual[opt.ID]
	}
	return corrections, nil
}

// SetVotesCount overwrites an option's cached tally. It exists to simulate
// drift in tests of the recount job.
func (s *Store) SetVotesCount(pollID, optionID uuid.UUID, count int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	poll, ok := s.polls[pollID]
	if !ok {
		return false
	}
	i := s.optionIndex(poll, optionID)
	if i < 0 {
		return false
	}
	poll.Options[i].VotesCount = count
	return true
}
