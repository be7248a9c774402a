package domain

import (
	"time"

	"github.com/google/uuid"
)

// Like is an endorsement of a poll. An empty UserIdentifier marks an
// anonymous like; those are never toggled off.
type Like struct {
	ID             uuid.UUID `json:"id"`
	PollID         uuid.UUID `json:"poll_id"`
	UserIdentifier string    `json:"user_identifier,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}
