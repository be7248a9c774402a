package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type pollRepository struct {
	db *sql.DB
}

func NewPollRepository(db *sql.DB) ports.PollRepository {
	return &pollRepository{
		db: db,
	}
}

func (r *pollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return persistenceError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	queryPoll := `
		INSERT INTO polls (id, question, created_by, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = tx.ExecContext(ctx, queryPoll, poll.ID, poll.Question, poll.CreatedBy, poll.CreatedAt)
	if err != nil {
		return persistenceError("failed to insert poll", err)
	}

	queryOption := `
		INSERT INTO options (id, poll_id, text, position)
		VALUES ($1, $2, $3, $4)
	`
	stmt, err := tx.PrepareContext(ctx, queryOption)
	if err != nil {
		return persistenceError("failed to prepare option statement", err)
	}
	defer stmt.Close()

	for i, opt := range poll.Options {
		_, err = stmt.ExecContext(ctx, opt.ID, poll.ID, opt.Text, i)
		if err != nil {
			return persistenceError("failed to insert option", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return persistenceError("failed to commit transaction", err)
	}

	return nil
}

func (r *pollRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, persistenceError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	queryPoll := `
		SELECT p.id, p.question, p.created_by, p.created_at,
		       (SELECT COUNT(*) FROM likes l WHERE l.poll_id = p.id)
		FROM polls p
		WHERE p.id = $1
	`

	var poll domain.Poll
	err = tx.QueryRowContext(ctx, queryPoll, id).Scan(
		&poll.ID, &poll.Question, &poll.CreatedBy, &poll.CreatedAt, &poll.LikesCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPollNotFound
		}
		return nil, persistenceError("failed to get poll", err)
	}

	options, err := fetchOptions(ctx, tx, []uuid.UUID{poll.ID})
	if err != nil {
		return nil, err
	}
	poll.Options = options[poll.ID]

	return &poll, nil
}

// List returns every poll in creation order, read from a single snapshot.
func (r *pollRepository) List(ctx context.Context) ([]*domain.Poll, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, persistenceError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		SELECT p.id, p.question, p.created_by, p.created_at,
		       (SELECT COUNT(*) FROM likes l WHERE l.poll_id = p.id)
		FROM polls p
		ORDER BY p.seq
	`
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, persistenceError("failed to list polls", err)
	}
	defer rows.Close()

	polls := []*domain.Poll{}
	var ids []uuid.UUID
	for rows.Next() {
		var poll domain.Poll
		if err := rows.Scan(&poll.ID, &poll.Question, &poll.CreatedBy, &poll.CreatedAt, &poll.LikesCount); err != nil {
			return nil, persistenceError("failed to scan poll", err)
		}
		polls = append(polls, &poll)
		ids = append(ids, poll.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("error iterating polls", err)
	}

	options, err := fetchOptions(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	for _, poll := range polls {
		poll.Options = options[poll.ID]
	}

	return polls, nil
}

// CastVote records or moves the voter's vote. Operations of the same voter
// on the same poll are serialized by a transaction scoped advisory lock, and
// counters change through single statement updates, so concurrent voters
// never lose increments.
func (r *pollRepository) CastVote(ctx context.Context, pollID, optionID uuid.UUID, voter string) (*domain.VoteOutcome, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistenceError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if err := lockKey(ctx, tx, "vote", pollID, voter); err != nil {
		return nil, err
	}

	var exists bool
	err = tx.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM options WHERE id = $1 AND poll_id = $2)`,
		optionID, pollID,
	).Scan(&exists)
	if err != nil {
		return nil, persistenceError("failed to check option", err)
	}
	if !exists {
		return nil, domain.ErrOptionNotFound
	}

	outcome := &domain.VoteOutcome{PollID: pollID}

	var previousID uuid.UUID
	err = tx.QueryRowContext(ctx,
		`SELECT option_id FROM votes WHERE poll_id = $1 AND voter = $2 FOR UPDATE`,
		pollID, voter,
	).Scan(&previousID)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO votes (id, poll_id, option_id, voter)
			VALUES ($1, $2, $3, $4)
		`, uuid.New(), pollID, optionID, voter)
		if err != nil {
			return nil, persistenceError("failed to save vote", err)
		}
	case err != nil:
		return nil, persistenceError("failed to check existing vote", err)
	case previousID == optionID:
		return nil, domain.ErrAlreadyVoted
	default:
		if err := lockOptions(ctx, tx, previousID, optionID); err != nil {
			return nil, err
		}

		previous, err := updateVotesCount(ctx, tx, previousID, -1)
		if err != nil {
			return nil, err
		}
		outcome.Previous = &previous

		_, err = tx.ExecContext(ctx, `
			UPDATE votes SET option_id = $1, updated_at = NOW()
			WHERE poll_id = $2 AND voter = $3
		`, optionID, pollID, voter)
		if err != nil {
			return nil, persistenceError("failed to move vote", err)
		}
	}

	outcome.Option, err = updateVotesCount(ctx, tx, optionID, 1)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, persistenceError("failed to commit transaction", err)
	}

	return outcome, nil
}

// ToggleLike removes the user's like if present and adds one otherwise.
// Anonymous likes are always added. It returns the fresh like count.
func (r *pollRepository) ToggleLike(ctx context.Context, pollID uuid.UUID, userIdentifier string) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, persistenceError("failed to begin transaction", err)
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM polls WHERE id = $1)`, pollID).Scan(&exists)
	if err != nil {
		return 0, persistenceError("failed to check poll", err)
	}
	if !exists {
		return 0, domain.ErrPollNotFound
	}

	removed := false
	if userIdentifier != "" {
		if err := lockKey(ctx, tx, "like", pollID, userIdentifier); err != nil {
			return 0, err
		}

		res, err := tx.ExecContext(ctx,
			`DELETE FROM likes WHERE poll_id = $1 AND user_identifier = $2`,
			pollID, userIdentifier,
		)
		if err != nil {
			return 0, persistenceError("failed to delete like", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, persistenceError("failed to delete like", err)
		}
		removed = n > 0
	}

	if !removed {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO likes (id, poll_id, user_identifier)
			VALUES ($1, $2, $3)
		`, uuid.New(), pollID, sql.NullString{String: userIdentifier, Valid: userIdentifier != ""})
		if err != nil {
			return 0, persistenceError("failed to save like", err)
		}
	}

	var count int
	err = tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM likes WHERE poll_id = $1`, pollID).Scan(&count)
	if err != nil {
		return 0, persistenceError("failed to count likes", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, persistenceError("failed to commit transaction", err)
	}

	return count, nil
}

func updateVotesCount(ctx context.Context, tx *sql.Tx, optionID uuid.UUID, delta int) (domain.Option, error) {
	query := `
		UPDATE options SET votes_count = GREATEST(votes_count + $2, 0)
		WHERE id = $1
		RETURNING id, poll_id, text, position, votes_count
	`
	var opt domain.Option
	err := tx.QueryRowContext(ctx, query, optionID, delta).Scan(
		&opt.ID, &opt.PollID, &opt.Text, &opt.Position, &opt.VotesCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Option{}, domain.ErrOptionNotFound
		}
		return domain.Option{}, persistenceError("failed to update votes count", err)
	}
	return opt, nil
}

// lockOptions row-locks the given options in id order. Every writer that
// touches more than one option row goes through here, so two switches in
// opposite directions queue instead of deadlocking.
func lockOptions(ctx context.Context, tx *sql.Tx, optionIDs ...uuid.UUID) error {
	ids := make([]string, len(optionIDs))
	for i, id := range optionIDs {
		ids[i] = id.String()
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT id FROM options WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`,
		pq.Array(ids),
	)
	if err != nil {
		return persistenceError("failed to lock options", err)
	}
	defer rows.Close()
	for rows.Next() {
	}
	if err := rows.Err(); err != nil {
		return persistenceError("failed to lock options", err)
	}
	return nil
}

// lockKey takes a transaction scoped advisory lock on (scope, poll, actor).
func lockKey(ctx context.Context, tx *sql.Tx, scope string, pollID uuid.UUID, actor string) error {
	key := fmt.Sprintf("%s:%s:%s", scope, pollID, actor)
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key); err != nil {
		return persistenceError("failed to acquire lock", err)
	}
	return nil
}

func fetchOptions(ctx context.Context, q queryer, pollIDs []uuid.UUID) (map[uuid.UUID][]domain.Option, error) {
	options := make(map[uuid.UUID][]domain.Option, len(pollIDs))
	if len(pollIDs) == 0 {
		return options, nil
	}

	ids := make([]string, len(pollIDs))
	for i, id := range pollIDs {
		ids[i] = id.String()
	}

	query := `
		SELECT id, poll_id, text, position, votes_count
		FROM options
		WHERE poll_id = ANY($1::uuid[])
		ORDER BY poll_id, position
	`
	rows, err := q.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, persistenceError("failed to get poll options", err)
	}
	defer rows.Close()

	for rows.Next() {
		var opt domain.Option
		if err := rows.Scan(&opt.ID, &opt.PollID, &opt.Text, &opt.Position, &opt.VotesCount); err != nil {
			return nil, persistenceError("failed to scan option", err)
		}
		options[opt.PollID] = append(options[opt.PollID], opt)
	}
	if err := rows.Err(); err != nil {
		return nil, persistenceError("error iterating options", err)
	}
	return options, nil
}
