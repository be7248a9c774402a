package services_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

type testServices struct {
	store *memory.Store
	users ports.UserService
	polls ports.PollService
	votes ports.VoteService
	tally ports.TallyService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	store := memory.NewStore()
	pollRepo := memory.NewPollRepository(store)
	users := services.NewUserService(memory.NewUserRepository(store))

	return &testServices{
		store: store,
		users: users,
		polls: services.NewPollService(pollRepo, users),
		votes: services.NewVoteService(pollRepo, users),
		tally: services.NewTallyService(memory.NewTallyRepository(store)),
	}
}

func (s *testServices) register(t *testing.T, emails ...string) {
	t.Helper()
	for _, email := range emails {
		_, _, err := s.users.Register(context.Background(), email, nil)
		require.NoError(t, err)
	}
}
