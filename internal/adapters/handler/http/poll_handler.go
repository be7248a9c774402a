package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/vncsmyrnk/livepoll/internal/core/domain"
	"github.com/vncsmyrnk/livepoll/internal/core/ports"
)

type PollHandler struct {
	service ports.PollService
	hub     ports.Broadcaster
}

func NewPollHandler(service ports.PollService, hub ports.Broadcaster) *PollHandler {
	return &PollHandler{
		service: service,
		hub:     hub,
	}
}

// optionText accepts either "text" or {"text": "text"}.
type optionText string

func (o *optionText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*o = optionText(s)
		return nil
	}
	var obj struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*o = optionText(obj.Text)
	return nil
}

type createPollRequest struct {
	Question  string       `json:"question" validate:"required"`
	Options   []optionText `json:"options" validate:"required,min=1,dive,required"`
	CreatedBy string       `json:"created_by" validate:"required"`
}

// CreatePoll godoc
// @Summary      Creates a poll
// @Description  Creates a poll with its options and announces it to live subscribers.
// @Tags         polls
// @Accept       json
// @Success      201
// @Failure      400
// @Failure      404
// @Router       /api/polls [post]
func (h *PollHandler) CreatePoll(w http.ResponseWriter, r *http.Request) {
	var req createPollRequest
	if err := decodeAndValidate(r, &req, false); err != nil {
		writeServiceError(w, r, err)
		return
	}

	options := make([]string, len(req.Options))
	for i, opt := range req.Options {
		options[i] = string(opt)
	}

	input := ports.CreatePollInput{
		Question:  req.Question,
		Options:   options,
		CreatedBy: req.CreatedBy,
	}

	poll, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	h.hub.Broadcast(context.WithoutCancel(r.Context()), domain.NewPollCreatedEvent(poll))

	writeJSON(w, http.StatusCreated, poll)
}

func (h *PollHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	polls, err := h.service.ListPolls(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, polls)
}

func (h *PollHandler) GetPoll(w http.ResponseWriter, r *http.Request) {
	poll, err := h.service.GetPoll(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, poll)
}
