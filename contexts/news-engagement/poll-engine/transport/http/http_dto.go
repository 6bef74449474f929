package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CreatePollOptionRequest struct {
	Title    string `json:"title"`
	ImageURL string `json:"image_url,omitempty"`
}

type CreatePollRequest struct {
	Title      string                    `json:"title"`
	MinChoices int                       `json:"min_choices"`
	MaxChoices int                       `json:"max_choices"`
	StartAt    time.Time                 `json:"start_at"`
	EndAt      time.Time                 `json:"end_at"`
	Options    []CreatePollOptionRequest `json:"options"`
}

type PollOptionResponse struct {
	OptionID  string `json:"option_id"`
	Title     string `json:"title"`
	ImageURL  string `json:"image_url,omitempty"`
	SortOrder int    `json:"sort_order"`
}

type PollResponse struct {
	PollID     string               `json:"poll_id"`
	Title      string               `json:"title"`
	MinChoices int                  `json:"min_choices"`
	MaxChoices int                  `json:"max_choices"`
	StartAt    time.Time            `json:"start_at"`
	EndAt      time.Time            `json:"end_at"`
	State      string               `json:"state"`
	Options    []PollOptionResponse `json:"options"`
}

type CreatePollResponse struct {
	PollID string `json:"poll_id"`
}

type CastBallotRequest struct {
	OptionIDs []string `json:"option_ids"`
}

type CastBallotResponse struct {
	PollID  string    `json:"poll_id"`
	VoteIDs []string  `json:"vote_ids"`
	VotedAt time.Time `json:"voted_at"`
}

type OptionCountResponse struct {
	OptionID    string `json:"option_id"`
	OptionTitle string `json:"option_title"`
	Count       int    `json:"count"`
}

type PollStatisticsResponse struct {
	PollID     string                `json:"poll_id"`
	PollTitle  string                `json:"poll_title"`
	TotalVotes int                   `json:"total_votes"`
	Items      []OptionCountResponse `json:"items"`
}
