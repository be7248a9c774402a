package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

type TallyRepository interface {
	PollIDs(ctx context.Context) ([]uuid.UUID, error)
	// Recount rebuilds the cached option tallies of a poll from its vote rows.
	Recount(ctx context.Context, pollID uuid.UUID) ([]domain.TallyCorrection, error)
}

type TallyService interface {
	RecountAll(ctx context.Context) ([]domain.TallyCorrection, error)
}
