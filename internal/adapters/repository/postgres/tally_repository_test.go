package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

func TestTallyRecount(t *testing.T) {
	db := setupDB(t)
	polls := postgres.NewPollRepository(db)
	ctx := context.Background()

	poll := newPoll("Best fruit?", "Apple", "Banana")
	require.NoError(t, polls.Create(ctx, poll))
	for _, voter := range []string{"a@x.io", "b@x.io", "c@x.io"} {
		_, err := polls.CastVote(ctx, poll.ID, poll.Options[0].ID, voter)
		require.NoError(t, err)
	}

	_, err := db.Exec(`UPDATE options SET votes_count = 9 WHERE id = $1`, poll.Options[0].ID)
	require.NoError(t, err)
	_, err = db.Exec(`UPDATE options SET votes_count = 4 WHERE id = $1`, poll.Options[1].ID)
	require.NoError(t, err)

	tally := services.NewTallyService(postgres.NewTallyRepository(db))
	corrections, err := tally.RecountAll(ctx)
	require.NoError(t, err)
	assert.Len(t, corrections, 2)

	got, err := polls.GetByID(ctx, poll.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, got.Options[0].VotesCount)
	assert.Equal(t, 0, got.Options[1].VotesCount)

	corrections, err = tally.RecountAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, corrections)
}

func TestMigrationFile(t *testing.T) {
	name, content, err := postgres.MigrationFile("create_votes.up")
	require.NoError(t, err)
	assert.Equal(t, "000003_create_votes.up.sql", name)
	assert.Contains(t, string(content), "CREATE TABLE IF NOT EXISTS votes")

	_, _, err = postgres.MigrationFile("drop_everything")
	assert.Error(t, err)
}
