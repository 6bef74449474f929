package errors

import "errors"

var (
	ErrInvalidPollInput      = errors.New("invalid poll input")
	ErrPollNotFound          = errors.New("poll not found")
	ErrOptionNotFound        = errors.New("poll option not found")
	ErrPollNotPublished      = errors.New("poll is not published")
	ErrNotInVotingPeriod     = errors.New("not in voting period")
	ErrChoiceCountOutOfRange = errors.New("selected option count is out of range")
	ErrAlreadyVoted          = errors.New("user already voted in this poll")
	ErrInvalidStateChange    = errors.New("invalid poll state change")
	ErrPublishedPollExists   = errors.New("another poll is already published")
	ErrAdminRequired         = errors.New("administrator privilege required")
	ErrConflict              = errors.New("poll engine conflict")
)
