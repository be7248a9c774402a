package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

func createFruitPoll(t *testing.T, svc *testServices) *domain.Poll {
	t.Helper()
	svc.register(t, "alice@x.io")

	poll, err := svc.polls.Create(context.Background(), ports.CreatePollInput{
		Question:  "Best fruit?",
		Options:   []string{"Apple", "Banana"},
		CreatedBy: "alice@x.io",
	})
	require.NoError(t, err)
	return poll
}

func TestVote_SwitchFlow(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	poll := createFruitPoll(t, svc)
	svc.register(t, "bob@x.io")
	apple, banana := poll.Options[0], poll.Options[1]

	outcome, err := svc.votes.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: apple.ID, Voter: "bob@x.io"})
	require.NoError(t, err)
	assert.False(t, outcome.Switched())
	assert.Equal(t, apple.ID, outcome.Option.ID)
	assert.Equal(t, 1, outcome.Option.VotesCount)

	_, err = svc.votes.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: apple.ID, Voter: "bob@x.io"})
	assert.ErrorIs(t, err, domain.ErrAlreadyVoted)

	outcome, err = svc.votes.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: banana.ID, Voter: "bob@x.io"})
	require.NoError(t, err)
	require.True(t, outcome.Switched())
	assert.Equal(t, apple.ID, outcome.Previous.ID)
	assert.Equal(t, 0, outcome.Previous.VotesCount)
	assert.Equal(t, banana.ID, outcome.Option.ID)
	assert.Equal(t, 1, outcome.Option.VotesCount)

	events := domain.VoteEvents(outcome)
	require.Len(t, events, 2)
	assert.Equal(t, apple.ID, events[0].Payload.(domain.VotePayload).OptionID)
	assert.Equal(t, banana.ID, events[1].Payload.(domain.VotePayload).OptionID)

	stored, err := svc.polls.GetPoll(ctx, poll.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, stored.Options[0].VotesCount)
	assert.Equal(t, 1, stored.Options[1].VotesCount)
	assert.Equal(t, 1, stored.TotalVotes())
}

func TestVote_Errors(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	poll := createFruitPoll(t, svc)

	_, err := svc.votes.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: poll.Options[0].ID, Voter: "ghost@x.io"})
	assert.ErrorIs(t, err, domain.ErrUnknownUser)

	_, err = svc.votes.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: uuid.New(), Voter: "alice@x.io"})
	assert.ErrorIs(t, err, domain.ErrOptionNotFound)

	other := createFruitPoll(t, svc)
	_, err = svc.votes.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: other.Options[0].ID, Voter: "alice@x.io"})
	assert.ErrorIs(t, err, domain.ErrOptionNotFound, "an option of another poll is not an option of this one")

	stored, err := svc.polls.GetPoll(ctx, poll.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, stored.TotalVotes())
}

func TestVote_ConcurrentVotersNoLostUpdates(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	poll := createFruitPoll(t, svc)

	const voters = 50
	for i := range voters {
		svc.register(t, fmt.Sprintf("voter-%d@x.io", i))
	}

	var wg sync.WaitGroup
	for i := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			opt := poll.Options[i%2]
			_, err := svc.votes.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: opt.ID, Voter: fmt.Sprintf("voter-%d@x.io", i)})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := svc.polls.GetPoll(ctx, poll.ID.String())
	require.NoError(t, err)
	assert.Equal(t, voters, stored.TotalVotes())
	assert.Equal(t, voters/2, stored.Options[0].VotesCount)
	assert.Equal(t, voters/2, stored.Options[1].VotesCount)
}

func TestVote_SameVoterRacing(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	poll := createFruitPoll(t, svc)
	svc.register(t, "bob@x.io")

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = svc.votes.Vote(ctx, ports.VoteInput{PollID: poll.ID, OptionID: poll.Options[i%2].ID, Voter: "bob@x.io"})
		}()
	}
	wg.Wait()

	stored, err := svc.polls.GetPoll(ctx, poll.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.TotalVotes(), "one voter holds exactly one vote")
}

func TestToggleLike(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	poll := createFruitPoll(t, svc)
	svc.register(t, "bob@x.io")

	count, err := svc.votes.ToggleLike(ctx, ports.LikeInput{PollID: poll.ID, UserIdentifier: "bob@x.io"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = svc.votes.ToggleLike(ctx, ports.LikeInput{PollID: poll.ID, UserIdentifier: "bob@x.io"})
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	count, err = svc.votes.ToggleLike(ctx, ports.LikeInput{PollID: poll.ID, UserIdentifier: "bob@x.io"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := svc.polls.GetPoll(ctx, poll.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, stored.LikesCount)
}

func TestToggleLike_Anonymous(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	poll := createFruitPoll(t, svc)

	for want := 1; want <= 3; want++ {
		count, err := svc.votes.ToggleLike(ctx, ports.LikeInput{PollID: poll.ID})
		require.NoError(t, err)
		assert.Equal(t, want, count, "anonymous likes accumulate")
	}
}

func TestToggleLike_Errors(t *testing.T) {
	svc := newTestServices(t)
	ctx := context.Background()
	poll := createFruitPoll(t, svc)

	_, err := svc.votes.ToggleLike(ctx, ports.LikeInput{PollID: poll.ID, UserIdentifier: "ghost@x.io"})
	assert.ErrorIs(t, err, domain.ErrUnknownUser)

	_, err = svc.votes.ToggleLike(ctx, ports.LikeInput{PollID: uuid.New()})
	assert.ErrorIs(t, err, domain.ErrPollNotFound)
}
