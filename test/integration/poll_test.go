package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
)

// postStatus sends body and returns the response status. It does not touch
// t, so it is safe to call from any goroutine.
func (app *TestApp) postStatus(path string, body any) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, err
	}
	resp, err := app.Server.Client().Post(app.Server.URL+path, "application/json", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return resp.StatusCode, nil
}

func (app *TestApp) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := app.Server.Client().Post(app.Server.URL+path, "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	return resp
}

func (app *TestApp) subscribe(t *testing.T) *websocket.Conn {
	t.Helper()
	before := app.Hub.Len()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(app.Server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	require.Eventually(t, func() bool { return app.Hub.Len() == before+1 }, time.Second, 10*time.Millisecond)
	return conn
}

func readPayload(t *testing.T, conn *websocket.Conn, want domain.EventType) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var event struct {
		Type    domain.EventType `json:"type"`
		Payload map[string]any   `json:"payload"`
	}
	require.NoError(t, conn.ReadJSON(&event))
	require.Equal(t, want, event.Type)
	return event.Payload
}

func TestPollFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	// Step 1: Register users
	for _, email := range []string{"alice@x.io", "bob@x.io"} {
		resp := app.post(t, "/api/users", map[string]any{"email": email})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	conn := app.subscribe(t)
	defer conn.Close()

	// Step 2: Create a poll, observed live
	resp := app.post(t, "/api/polls", map[string]any{
		"question":   "Best fruit?",
		"options":    []string{"Apple", "Banana"},
		"created_by": "alice@x.io",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var poll domain.Poll
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&poll))
	resp.Body.Close()
	apple, banana := poll.Options[0], poll.Options[1]

	created := readPayload(t, conn, domain.EventPollCreated)
	assert.Equal(t, poll.ID.String(), created["id"])

	// Step 3: Vote, vote again on the same option, then switch
	votes := fmt.Sprintf("/api/polls/%s/votes", poll.ID)
	resp = app.post(t, votes, map[string]any{"option_id": apple.ID, "voter": "bob@x.io"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, float64(1), readPayload(t, conn, domain.EventVote)["votes_count"])

	resp = app.post(t, votes, map[string]any{"option_id": apple.ID, "voter": "bob@x.io"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	resp.Body.Close()

	resp = app.post(t, votes, map[string]any{"option_id": banana.ID, "voter": "bob@x.io"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	decrement := readPayload(t, conn, domain.EventVote)
	increment := readPayload(t, conn, domain.EventVote)
	assert.Equal(t, apple.ID.String(), decrement["option_id"])
	assert.Equal(t, float64(0), decrement["votes_count"])
	assert.Equal(t, banana.ID.String(), increment["option_id"])
	assert.Equal(t, float64(1), increment["votes_count"])

	// Step 4: Like toggles
	likes := fmt.Sprintf("/api/polls/%s/likes", poll.ID)
	resp = app.post(t, likes, map[string]any{"user_identifier": "bob@x.io"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, float64(1), readPayload(t, conn, domain.EventLike)["likes_count"])

	resp = app.post(t, likes, map[string]any{"user_identifier": "bob@x.io"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
	assert.Equal(t, float64(0), readPayload(t, conn, domain.EventLike)["likes_count"])

	// Step 5: Read back
	getResp, err := app.Server.Client().Get(app.Server.URL + "/api/polls/" + poll.ID.String())
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, getResp.StatusCode)
	var stored domain.Poll
	require.NoError(t, json.NewDecoder(getResp.Body).Decode(&stored))
	getResp.Body.Close()

	assert.Equal(t, 0, stored.Options[0].VotesCount)
	assert.Equal(t, 1, stored.Options[1].VotesCount)
	assert.Equal(t, 0, stored.LikesCount)
}

func TestConcurrentVotesThroughAPI(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	app := setupTestApp(t)
	defer app.Teardown(t)

	const voters = 30
	emails := []string{"owner@x.io"}
	for i := range voters {
		emails = append(emails, fmt.Sprintf("voter-%d@x.io", i))
	}
	for _, email := range emails {
		resp := app.post(t, "/api/users", map[string]any{"email": email})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		resp.Body.Close()
	}

	resp := app.post(t, "/api/polls", map[string]any{
		"question":   "Tabs or spaces?",
		"options":    []string{"Tabs", "Spaces"},
		"created_by": "owner@x.io",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var poll domain.Poll
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&poll))
	resp.Body.Close()

	var wg sync.WaitGroup
	statuses := make([]int, voters)
	errs := make([]error, voters)
	for i := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i], errs[i] = app.postStatus(fmt.Sprintf("/api/polls/%s/votes", poll.ID), map[string]any{
				"option_id": poll.Options[i%2].ID,
				"voter":     fmt.Sprintf("voter-%d@x.io", i),
			})
		}()
	}
	wg.Wait()

	for i := range voters {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i])
	}

	// every voter moves to the other option at once
	for i := range voters {
		wg.Add(1)
		go func() {
			defer wg.Done()
			statuses[i], errs[i] = app.postStatus(fmt.Sprintf("/api/polls/%s/votes", poll.ID), map[string]any{
				"option_id": poll.Options[(i+1)%2].ID,
				"voter":     fmt.Sprintf("voter-%d@x.io", i),
			})
		}()
	}
	wg.Wait()

	for i := range voters {
		require.NoError(t, errs[i])
		assert.Equal(t, http.StatusOK, statuses[i])
	}

	var total int
	require.NoError(t, app.DB.QueryRow(`SELECT SUM(votes_count) FROM options WHERE poll_id = $1`, poll.ID).Scan(&total))
	assert.Equal(t, voters, total)

	corrections, err := app.TallySvc.RecountAll(t.Context())
	require.NoError(t, err)
	assert.Empty(t, corrections, "cached tallies match the vote rows")
}
