package domain

import (
	"time"

	"github.com/google/uuid"
)

type Vote struct {
	ID        uuid.UUID `json:"id"`
	PollID    uuid.UUID `json:"poll_id"`
	OptionID  uuid.UUID `json:"option_id"`
	Voter     string    `json:"voter"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VoteOutcome is the result of a committed vote. Previous is set only when
// an existing vote was moved away from another option of the same poll.
type VoteOutcome struct {
	PollID   uuid.UUID `json:"poll_id"`
	Option   Option    `json:"option"`
	Previous *Option   `json:"previous_option,omitempty"`
}

func (o *VoteOutcome) Switched() bool {
	return o.Previous != nil
}
