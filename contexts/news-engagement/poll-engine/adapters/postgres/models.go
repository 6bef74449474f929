package postgresadapter

import (
	"encoding/json"
	"strings"
	"time"

	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	"newsroom/contexts/news-engagement/poll-engine/ports"
)

type pollModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Title      string    `gorm:"column:title"`
	MinChoices int       `gorm:"column:min_choices"`
	MaxChoices int       `gorm:"column:max_choices"`
	StartAt    time.Time `gorm:"column:start_at"`
	EndAt      time.Time `gorm:"column:end_at"`
	State      string    `gorm:"column:state"`
	CreatedAt  time.Time `gorm:"column:created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at"`
}

func (pollModel) TableName() string {
	return "polls"
}

func pollModelFromEntity(poll entities.Poll) pollModel {
	return pollModel{
		ID:         strings.TrimSpace(poll.PollID),
		Title:      strings.TrimSpace(poll.Title),
		MinChoices: poll.MinChoices,
		MaxChoices: poll.MaxChoices,
		StartAt:    poll.StartAt.UTC(),
		EndAt:      poll.EndAt.UTC(),
		State:      string(poll.State),
		CreatedAt:  poll.CreatedAt.UTC(),
		UpdatedAt:  poll.UpdatedAt.UTC(),
	}
}

func (m pollModel) toEntity(options []pollOptionModel) entities.Poll {
	poll := entities.Poll{
		PollID:     m.ID,
		Title:      m.Title,
		MinChoices: m.MinChoices,
		MaxChoices: m.MaxChoices,
		StartAt:    m.StartAt.UTC(),
		EndAt:      m.EndAt.UTC(),
		State:      entities.PollState(m.State),
		CreatedAt:  m.CreatedAt.UTC(),
		UpdatedAt:  m.UpdatedAt.UTC(),
	}
	for _, option := range options {
		poll.Options = append(poll.Options, option.toEntity())
	}
	return poll
}

// poll_options carries FK poll_id ON DELETE CASCADE: option lifetime equals
// poll lifetime.
type pollOptionModel struct {
	ID        string `gorm:"column:id;primaryKey"`
	PollID    string `gorm:"column:poll_id"`
	Title     string `gorm:"column:title"`
	ImageURL  string `gorm:"column:image_url"`
	SortOrder int    `gorm:"column:sort_order"`
}

func (pollOptionModel) TableName() string {
	return "poll_options"
}

func optionModelFromEntity(option entities.PollOption) pollOptionModel {
	return pollOptionModel{
		ID:        strings.TrimSpace(option.OptionID),
		PollID:    strings.TrimSpace(option.PollID),
		Title:     strings.TrimSpace(option.Title),
		ImageURL:  strings.TrimSpace(option.ImageURL),
		SortOrder: option.SortOrder,
	}
}

func (m pollOptionModel) toEntity() entities.PollOption {
	return entities.PollOption{
		OptionID:  m.ID,
		PollID:    m.PollID,
		Title:     m.Title,
		ImageURL:  m.ImageURL,
		SortOrder: m.SortOrder,
	}
}

// votes carries a unique index on (poll_id, user_id, option_id); the ballot
// transaction re-checks (poll_id, user_id) before inserting.
type voteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	PollID    string    `gorm:"column:poll_id"`
	OptionID  string    `gorm:"column:option_id"`
	UserID    string    `gorm:"column:user_id"`
	VotedAt   time.Time `gorm:"column:voted_at"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:        strings.TrimSpace(vote.VoteID),
		PollID:    strings.TrimSpace(vote.PollID),
		OptionID:  strings.TrimSpace(vote.OptionID),
		UserID:    strings.TrimSpace(vote.UserID),
		VotedAt:   vote.VotedAt.UTC(),
		CreatedAt: vote.CreatedAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:    m.ID,
		PollID:    m.PollID,
		OptionID:  m.OptionID,
		UserID:    m.UserID,
		VotedAt:   m.VotedAt.UTC(),
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type voteStatisticsModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	PollID    string    `gorm:"column:poll_id"`
	OptionID  string    `gorm:"column:option_id"`
	Count     int       `gorm:"column:count"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (voteStatisticsModel) TableName() string {
	return "vote_statistics"
}

func statisticsModelFromEntity(stats entities.VoteStatistics) voteStatisticsModel {
	return voteStatisticsModel{
		ID:        strings.TrimSpace(stats.StatID),
		PollID:    strings.TrimSpace(stats.PollID),
		OptionID:  strings.TrimSpace(stats.OptionID),
		Count:     stats.Count,
		UpdatedAt: stats.UpdatedAt.UTC(),
	}
}

func (m voteStatisticsModel) toEntity() entities.VoteStatistics {
	return entities.VoteStatistics{
		StatID:    m.ID,
		PollID:    m.PollID,
		OptionID:  m.OptionID,
		Count:     m.Count,
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "poll_outbox"
}

// userModel is a projection of the identity collaborator's users table; the
// poll engine reads it only to resolve notification recipients.
type userModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string {
	return "users"
}

func marshalEnvelope(envelope ports.EventEnvelope) ([]byte, error) {
	return json.Marshal(envelope)
}
