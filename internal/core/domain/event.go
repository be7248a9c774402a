package domain

import "github.com/google/uuid"

type EventType string

const (
	EventPollCreated EventType = "poll_created"
	EventVote        EventType = "vote"
	EventLike        EventType = "like"
	EventMessage     EventType = "message"
)

// Event is the envelope pushed to live subscribers.
type Event struct {
	Type    EventType `json:"type"`
	Payload any       `json:"payload"`
}

type VotePayload struct {
	PollID     uuid.UUID `json:"poll_id"`
	OptionID   uuid.UUID `json:"option_id"`
	VotesCount int       `json:"votes_count"`
}

type LikePayload struct {
	PollID     uuid.UUID `json:"poll_id"`
	LikesCount int       `json:"likes_count"`
}

type MessagePayload struct {
	Message string `json:"message"`
}

func NewPollCreatedEvent(poll *Poll) Event {
	return Event{Type: EventPollCreated, Payload: poll}
}

func NewVoteEvent(opt Option) Event {
	return Event{Type: EventVote, Payload: VotePayload{
		PollID:     opt.PollID,
		OptionID:   opt.ID,
		VotesCount: opt.VotesCount,
	}}
}

func NewLikeEvent(pollID uuid.UUID, likesCount int) Event {
	return Event{Type: EventLike, Payload: LikePayload{PollID: pollID, LikesCount: likesCount}}
}

func NewMessageEvent(msg string) Event {
	return Event{Type: EventMessage, Payload: MessagePayload{Message: msg}}
}

// VoteEvents returns the events describing a vote outcome, the decrement of
// the previous option first.
func VoteEvents(outcome *VoteOutcome) []Event {
	events := make([]Event, 0, 2)
	if outcome.Previous != nil {
		events = append(events, NewVoteEvent(*outcome.Previous))
	}
	return append(events, NewVoteEvent(outcome.Option))
}
