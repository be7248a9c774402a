package domain

import (
	"time"

	"github.com/google/uuid"
)

type Poll struct {
	ID         uuid.UUID `json:"id"`
	Question   string    `json:"question"`
	CreatedBy  string    `json:"created_by"`
	Options    []Option  `json:"options"`
	LikesCount int       `json:"likes_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Option.VotesCount caches the number of votes pointing at the option.
type Option struct {
	ID         uuid.UUID `json:"id"`
	PollID     uuid.UUID `json:"poll_id"`
	Text       string    `json:"text"`
	Position   int       `json:"-"`
	VotesCount int       `json:"votes_count"`
}

// TotalVotes sums the cached tallies of every option.
func (p *Poll) TotalVotes() int {
	total := 0
	for _, opt := range p.Options {
		total += opt.VotesCount
	}
	return total
}
