package entities

import "time"

type PollState string

const (
	PollStateDraft     PollState = "draft"
	PollStateScheduled PollState = "scheduled"
	PollStatePublished PollState = "published"
	PollStateDeleted   PollState = "deleted"
)

const (
	MaxPollTitleLength   = 100
	MaxOptionTitleLength = 18
)

// Poll is the aggregate root for one voting round. Options are exclusively
// owned by the poll and share its lifetime.
type Poll struct {
	PollID     string
	Title      string
	MinChoices int
	MaxChoices int
	StartAt    time.Time
	EndAt      time.Time
	State      PollState
	Options    []PollOption
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type PollOption struct {
	OptionID  string
	PollID    string
	Title     string
	ImageURL  string
	SortOrder int
}

// InVotingWindow reports whether votes may be admitted at the given instant.
func (p Poll) InVotingWindow(now time.Time) bool {
	return !now.Before(p.StartAt) && !now.After(p.EndAt)
}

// OwnsOption reports whether the option id belongs to this poll.
func (p Poll) OwnsOption(optionID string) bool {
	for _, option := range p.Options {
		if option.OptionID == optionID {
			return true
		}
	}
	return false
}

// Vote is one immutable row per (user, poll, selected option). A ballot with
// k selected options persists k Vote rows sharing one VotedAt timestamp.
type Vote struct {
	VoteID    string
	PollID    string
	OptionID  string
	UserID    string
	VotedAt   time.Time
	CreatedAt time.Time
}

// VoteStatistics is a denormalized per-(poll,option) tally. Vote rows remain
// the source of truth; the aggregator may fully recompute this at any time.
type VoteStatistics struct {
	StatID    string
	PollID    string
	OptionID  string
	Count     int
	UpdatedAt time.Time
}

type OptionCount struct {
	OptionID    string
	OptionTitle string
	Count       int
}

type PollResult struct {
	PollID     string
	PollTitle  string
	State      PollState
	TotalVotes int
	Items      []OptionCount
}
