package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func persistenceError(msg string, err error) error {
	return fmt.Errorf("%w: %s: %w", domain.ErrPersistence, msg, err)
}
