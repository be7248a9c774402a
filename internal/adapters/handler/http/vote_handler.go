package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type VoteHandler struct {
	service ports.VoteService
	hub     ports.Broadcaster
}

func NewVoteHandler(service ports.VoteService, hub ports.Broadcaster) *VoteHandler {
	return &VoteHandler{
		service: service,
		hub:     hub,
	}
}

type voteRequest struct {
	OptionID uuid.UUID `json:"option_id" validate:"required"`
	Voter    string    `json:"voter" validate:"required"`
}

type voteResponse struct {
	Message string `json:"message"`
	*domain.VoteOutcome
}

type likeRequest struct {
	UserIdentifier string `json:"user_identifier" validate:"omitempty,max=320"`
}

type likeResponse struct {
	Message    string    `json:"message"`
	PollID     uuid.UUID `json:"poll_id"`
	LikesCount int       `json:"likes_count"`
}

// VoteOnPoll godoc
// @Summary      Votes on a poll option
// @Description  Records the voter's choice, moving an earlier vote on the same poll.
// @Tags         votes
// @Accept       json
// @Success      200
// @Failure      400
// @Failure      404
// @Failure      409
// @Router       /api/polls/{id}/votes [post]
func (h *VoteHandler) VoteOnPoll(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidPollID.Error())
		return
	}

	var req voteRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		writeServiceError(w, r, err)
		return
	}

	input := ports.VoteInput{
		PollID:   pollID,
		OptionID: req.OptionID,
		Voter:    req.Voter,
	}

	outcome, err := h.service.Vote(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	// previous option first, so observers see the decrement before the increment
	h.hub.Broadcast(context.WithoutCancel(r.Context()), domain.VoteEvents(outcome)...)

	writeJSON(w, http.StatusOK, voteResponse{Message: "vote recorded", VoteOutcome: outcome})
}

// ToggleLike godoc
// @Summary      Likes or unlikes a poll
// @Description  Toggles the user's like; without user_identifier an anonymous like is added.
// @Tags         likes
// @Accept       json
// @Success      200
// @Failure      400
// @Failure      404
// @Router       /api/polls/{id}/likes [post]
func (h *VoteHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	pollID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidPollID.Error())
		return
	}

	var req likeRequest
	if err := decodeAndValidate(r, &req, true); err != nil {
		writeServiceError(w, r, err)
		return
	}

	count, err := h.service.ToggleLike(r.Context(), ports.LikeInput{
		PollID:         pollID,
		UserIdentifier: req.UserIdentifier,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.hub.Broadcast(context.WithoutCancel(r.Context()), domain.NewLikeEvent(pollID, count))

	writeJSON(w, http.StatusOK, likeResponse{Message: "like toggled", PollID: pollID, LikesCount: count})
}
