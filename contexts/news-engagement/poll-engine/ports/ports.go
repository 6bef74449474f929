package ports

import (
	"context"
	"time"

	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	"newsroom/internal/shared/events"
)

type PollRepository interface {
	CreatePoll(ctx context.Context, poll entities.Poll) error
	GetPoll(ctx context.Context, pollID string) (entities.Poll, error)
	// GetLatestPollByState returns the most recently created poll in the given
	// state. The published lookup relies on the single-published invariant.
	GetLatestPollByState(ctx context.Context, state entities.PollState) (entities.Poll, bool, error)
	ListPollsByState(ctx context.Context, state entities.PollState) ([]entities.Poll, error)
	MarkScheduled(ctx context.Context, pollID string, updatedAt time.Time) error
	// RetireExpiredPublished moves every published poll whose voting window
	// ended before now into the deleted state and returns the retired polls.
	RetireExpiredPublished(ctx context.Context, now time.Time) ([]entities.Poll, error)
	// PromoteScheduled promotes the poll to published only while no other
	// published poll exists; ErrPublishedPollExists otherwise.
	PromoteScheduled(ctx context.Context, pollID string, updatedAt time.Time) (entities.Poll, error)
}

type VoteRepository interface {
	// CreateBallot persists all rows of one ballot atomically and fails with
	// ErrAlreadyVoted when any vote by the same user for the same poll exists,
	// including one committed concurrently.
	CreateBallot(ctx context.Context, votes []entities.Vote) error
	HasUserVoted(ctx context.Context, pollID string, userID string) (bool, error)
	CountVotesByOption(ctx context.Context, pollID string, optionID string) (int, error)
	ListVotesByPoll(ctx context.Context, pollID string) ([]entities.Vote, error)
}

type StatsRepository interface {
	UpsertStatistics(ctx context.Context, stats entities.VoteStatistics) error
	ListStatisticsByPoll(ctx context.Context, pollID string) ([]entities.VoteStatistics, error)
}

// UserDirectory is a read-side projection of the identity collaborator. The
// poll engine only needs recipient ids for notification fan-out.
type UserDirectory interface {
	ListUserIDs(ctx context.Context) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope EventEnvelope) error
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}
