package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"time"

	application "newsroom/contexts/news-engagement/alarm-service/application"
	"newsroom/contexts/news-engagement/alarm-service/application/commands"
	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	"newsroom/contexts/news-engagement/alarm-service/ports"
)

const (
	// PollPublishedTopic is consumed to fan poll notifications out to users.
	PollPublishedTopic = "poll.published"

	pollPublishedConsumerGroup = "alarm-service.poll-published"
	dedupRetention             = 7 * 24 * time.Hour
)

// pollPublishedPayload mirrors the poll-engine event body. The alarm service
// keeps its own decode type so the contexts stay decoupled.
type pollPublishedPayload struct {
	PollID           string   `json:"poll_id"`
	PollTitle        string   `json:"poll_title"`
	AlarmTitle       string   `json:"alarm_title"`
	AlarmContent     string   `json:"alarm_content"`
	TargetType       string   `json:"target_type"`
	TargetID         string   `json:"target_id,omitempty"`
	RecipientUserIDs []string `json:"recipient_user_ids"`
}

// PollPublishedConsumer subscribes to poll.published and turns each event into
// one alarm fan-out. Events are deduplicated by event id so at-least-once
// delivery never double-notifies.
type PollPublishedConsumer struct {
	Subscriber ports.EventSubscriber
	Dedup      ports.EventDedupStore
	Fanout     commands.FanoutUseCase
	Clock      ports.Clock
	Disabled   bool
	Logger     *slog.Logger
}

// Start registers the subscription. It returns immediately; events are handled
// on the subscriber's goroutine until ctx is cancelled.
func (c PollPublishedConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Disabled {
		logger.Info("poll published consumer disabled",
			"event", "poll_published_consumer_disabled",
			"module", "news-engagement/alarm-service",
			"layer", "application",
		)
		return nil
	}
	return c.Subscriber.Subscribe(ctx, PollPublishedTopic, pollPublishedConsumerGroup, c.Handle)
}

// Handle processes one poll.published envelope.
func (c PollPublishedConsumer) Handle(ctx context.Context, envelope ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)

	payloadHash := hashPayload(envelope.Data)
	alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, envelope.EventID, payloadHash, c.now().Add(dedupRetention))
	if err != nil {
		return err
	}
	if alreadyProcessed {
		logger.Info("duplicate poll published event skipped",
			"event", "poll_published_duplicate_skipped",
			"module", "news-engagement/alarm-service",
			"layer", "application",
			"event_id", envelope.EventID,
		)
		return nil
	}

	var payload pollPublishedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		logger.Error("poll published payload decode failed",
			"event", "poll_published_decode_failed",
			"module", "news-engagement/alarm-service",
			"layer", "application",
			"event_id", envelope.EventID,
			"error", err.Error(),
		)
		return err
	}

	result, err := c.Fanout.Deliver(ctx, commands.DeliverNotificationCommand{
		Title:            payload.AlarmTitle,
		Content:          payload.AlarmContent,
		TargetType:       entities.TargetType(payload.TargetType),
		TargetID:         payload.TargetID,
		RecipientUserIDs: payload.RecipientUserIDs,
	})
	if err != nil {
		return err
	}
	logger.Info("poll published event fanned out",
		"event", "poll_published_fanned_out",
		"module", "news-engagement/alarm-service",
		"layer", "application",
		"event_id", envelope.EventID,
		"poll_id", payload.PollID,
		"alarm_id", result.AlarmID,
		"delivered_count", result.DeliveredCount,
	)
	return nil
}

func (c PollPublishedConsumer) now() time.Time {
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	return now
}

func hashPayload(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
