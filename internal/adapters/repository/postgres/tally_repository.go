package postgres

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type tallyRepository struct {
	db *sql.DB
}

func NewTallyRepository(db *sql.DB) ports.TallyRepository {
	return &tallyRepository{
		db: db,
	}
}

func (r *tallyRepository) PollIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM polls ORDER BY seq`)
	if err != nil {
		return nil, persistenceError("failed to list poll ids", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, persistenceError("failed to scan poll id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("error iterating poll ids", err)
	}
	return ids, nil
}

// Recount locks the poll's option rows in id order, the same order CastVote
// uses, compares each cached votes_count with the number of vote rows and
// rewrites the ones that drifted.
func (r *tallyRepository) Recount(ctx context.Context, pollID uuid.UUID) ([]domain.TallyCorrection, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistenceError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	lockRows, err := tx.QueryContext(ctx, `SELECT id FROM options WHERE poll_id = $1 ORDER BY id FOR UPDATE`, pollID)
	if err != nil {
		return nil, persistenceError("failed to lock options", err)
	}
	locked := 0
	for lockRows.Next() {
		locked++
	}
	lockRows.Close()
	if err := lockRows.Err(); err != nil {
		return nil, persistenceError("failed to lock options", err)
	}
	if locked == 0 {
		return nil, domain.ErrPollNotFound
	}

	query := `
		SELECT o.id, o.votes_count, COUNT(v.id)
		FROM options o
		LEFT JOIN votes v ON v.option_id = o.id
		WHERE o.poll_id = $1
		GROUP BY o.id, o.votes_count, o.position
		HAVING o.votes_count <> COUNT(v.id)
		ORDER BY o.position
	`
	rows, err := tx.QueryContext(ctx, query, pollID)
	if err != nil {
		return nil, persistenceError("failed to count votes", err)
	}

	var corrections []domain.TallyCorrection
	for rows.Next() {
		c := domain.TallyCorrection{PollID: pollID}
		if err := rows.Scan(&c.OptionID, &c.Cached, &c.Actual); err != nil {
			rows.Close()
			return nil, persistenceError("failed to scan tally", err)
		}
		corrections = append(corrections, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, persistenceError("error iterating tallies", err)
	}

	for _, c := range corrections {
		_, err := tx.ExecContext(ctx, `UPDATE options SET votes_count = $1 WHERE id = $2`, c.Actual, c.OptionID)
		if err != nil {
			return nil, persistenceError("failed to rewrite votes count", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, persistenceError("failed to commit transaction", err)
	}

	return corrections, nil
}
