// Package memory keeps polls, votes, likes and users in process memory. It
// mirrors the postgres repositories and is meant for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

type voteKey struct {
	pollID uuid.UUID
	voter  string
}

// Store is the shared state behind the memory repositories. A single mutex
// serializes every operation, which makes each of them atomic.
type Store struct {
	mu    sync.Mutex
	polls map[uuid.UUID]*domain.Poll
	order []uuid.UUID
	votes map[voteKey]*domain.Vote
	likes map[uuid.UUID][]domain.Like
	users map[string]*domain.User
}

func NewStore() *Store {
	return &Store{
		polls: make(map[uuid.UUID]*domain.Poll),
		votes: make(map[voteKey]*domain.Vote),
		likes: make(map[uuid.UUID][]domain.Like),
		users: make(map[string]*domain.User),
	}
}

// snapshot copies a stored poll so callers never share its option slice.
func (s *Store) snapshot(p *domain.Poll) *domain.Poll {
	cp := *p
	cp.Options = append([]domain.Option(nil), p.Options...)
	cp.LikesCount = len(s.likes[p.ID])
	return &cp
}

func (s *Store) optionIndex(p *domain.Poll, optionID uuid.UUID) int {
	for i := range p.Options {
		if p.Options[i].ID == optionID {
			return i
		}
	}
	return -1
}

// contextErr reports a done context as a persistence fault, as the postgres
// store does when its driver call is canceled.
func contextErr(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return nil
}
