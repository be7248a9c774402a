package domain

import "errors"

var (
	ErrInvalidInput   = errors.New("invalid input")
	ErrInvalidPollID  = errors.New("invalid poll id")
	ErrPollNotFound   = errors.New("poll not found")
	ErrOptionNotFound = errors.New("option not found")
	ErrAlreadyVoted   = errors.New("user has already voted for this option")
	ErrUnknownUser    = errors.New("unknown user")
	ErrPersistence    = errors.New("persistence failure")
)
