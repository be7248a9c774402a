package services

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type tallyService struct {
	repo ports.TallyRepository
}

func NewTallyService(repo ports.TallyRepository) ports.TallyService {
	return &tallyService{
		repo: repo,
	}
}

// RecountAll recounts every poll concurrently and returns the corrections
// applied. Polls that fail are reported in the joined error; corrections from
// the others are still returned.
func (s *tallyService) RecountAll(ctx context.Context) ([]domain.TallyCorrection, error) {
	pollIDs, err := s.repo.PollIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch poll ids: %w", err)
	}

	var (
		wg          sync.WaitGroup
		mu          sync.Mutex
		corrections []domain.TallyCorrection
		errs        []error
	)

	for _, pollID := range pollIDs {
		wg.Add(1)
		go func(pID uuid.UUID) {
			defer wg.Done()
			fixed, err := s.repo.Recount(ctx, pID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to recount poll %s: %w", pID, err))
				return
			}
			corrections = append(corrections, fixed...)
		}(pollID)
	}

	wg.Wait()

	return corrections, errors.Join(errs...)
}
