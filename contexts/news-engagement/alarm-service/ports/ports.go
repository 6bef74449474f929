package ports

import (
	"context"
	"time"

	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	"newsroom/internal/shared/events"
)

type AlarmRepository interface {
	CreateAlarm(ctx context.Context, alarm entities.Alarm) error
	GetAlarm(ctx context.Context, alarmID string) (entities.Alarm, error)
	// DeleteAlarmsBefore removes alarms created before the cutoff and cascades
	// their user alarms; it returns (alarms deleted, user alarms deleted).
	DeleteAlarmsBefore(ctx context.Context, cutoff time.Time) (int, int, error)
}

type UserAlarmRepository interface {
	CreateUserAlarm(ctx context.Context, userAlarm entities.UserAlarm) error
	GetUserAlarm(ctx context.Context, userAlarmID string) (entities.UserAlarm, error)
	// ListFeedByUser returns the user's alarms joined with content, most
	// recent first, capped at limit.
	ListFeedByUser(ctx context.Context, userID string, limit int) ([]entities.AlarmFeedItem, error)
	// ListNewsFeedByUser returns the user's alarms whose target is one of the
	// given news items, most recent first, capped at limit independently of
	// the full feed.
	ListNewsFeedByUser(ctx context.Context, userID string, newsIDs []string, limit int) ([]entities.AlarmFeedItem, error)
	MarkChecked(ctx context.Context, userAlarmID string, checkedAt time.Time) error
}

// UserDirectory is a read-side projection of the identity collaborator.
type UserDirectory interface {
	UserExists(ctx context.Context, userID string) (bool, error)
}

// BookmarkDirectory is a read-side projection of the news bookmark
// collaborator, used only to scope the bookmark feed.
type BookmarkDirectory interface {
	ListBookmarkedNews(ctx context.Context, userID string) ([]string, error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = events.Envelope

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}

type EventDedupStore interface {
	ReserveEvent(ctx context.Context, eventID string, payloadHash string, expiresAt time.Time) (bool, error)
}
