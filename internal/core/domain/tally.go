package domain

import "github.com/google/uuid"

// TallyCorrection records an option whose cached votes_count disagreed with
// its vote rows and was rewritten.
type TallyCorrection struct {
	PollID   uuid.UUID `json:"poll_id"`
	OptionID uuid.UUID `json:"option_id"`
	Cached   int       `json:"cached"`
	Actual   int       `json:"actual"`
}
