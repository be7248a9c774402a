package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livepoll/internal/adapters/broadcast"
	"github.com/vncsmyrnk/livepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/services"
)

type testApp struct {
	hub     *broadcast.Hub
	handler http.Handler
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	store := memory.NewStore()
	pollRepo := memory.NewPollRepository(store)
	users := services.NewUserService(memory.NewUserRepository(store))
	hub := broadcast.NewHub(nil)
	t.Cleanup(hub.Close)

	handler := NewHandler(
		NewPollHandler(services.NewPollService(pollRepo, users), hub),
		NewVoteHandler(services.NewVoteService(pollRepo, users), hub),
		NewUserHandler(users),
		NewLiveHandler(hub, LiveConfig{
			AllowedOrigins: []string{"*"},
			WriteTimeout:   time.Second,
			PingInterval:   time.Second,
			ReadLimit:      4096,
		}),
		[]string{"*"},
	)

	return &testApp{hub: hub, handler: handler}
}

func (app *testApp) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	app.handler.ServeHTTP(rec, req)
	return rec
}

func (app *testApp) createUser(t *testing.T, email string) {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/api/users", map[string]any{"email": email})
	require.Contains(t, []int{http.StatusCreated, http.StatusOK}, rec.Code, rec.Body.String())
}

func (app *testApp) createPoll(t *testing.T, createdBy string, options ...string) domain.Poll {
	t.Helper()
	rec := app.do(t, http.MethodPost, "/api/polls", map[string]any{
		"question":   "Best fruit?",
		"options":    options,
		"created_by": createdBy,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var poll domain.Poll
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &poll))
	return poll
}
