package unit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	alarmservice "newsroom/contexts/news-engagement/alarm-service"
	"newsroom/contexts/news-engagement/alarm-service/application/commands"
	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	alarmports "newsroom/contexts/news-engagement/alarm-service/ports"
)

type failingAlarmRepo struct{}

func (failingAlarmRepo) CreateAlarm(context.Context, entities.Alarm) error {
	return errors.New("alarm insert failed")
}

func (failingAlarmRepo) GetAlarm(context.Context, string) (entities.Alarm, error) {
	return entities.Alarm{}, errors.New("not implemented")
}

func (failingAlarmRepo) DeleteAlarmsBefore(context.Context, time.Time) (int, int, error) {
	return 0, 0, errors.New("not implemented")
}

func pollPublishedEnvelope(t *testing.T, eventID string, recipients []string) alarmports.EventEnvelope {
	t.Helper()
	data, err := json.Marshal(map[string]any{
		"poll_id":            "poll-1",
		"poll_title":         "Weekend reading habits",
		"alarm_title":        "New poll",
		"alarm_content":      "A new poll is open for voting: Weekend reading habits",
		"target_type":        "polls",
		"recipient_user_ids": recipients,
	})
	if err != nil {
		t.Fatalf("marshal payload failed: %v", err)
	}
	return alarmports.EventEnvelope{
		EventID:       eventID,
		EventType:     "poll.published",
		OccurredAt:    time.Now().UTC(),
		SourceService: "poll-engine",
		SchemaVersion: 1,
		PartitionKey:  "poll-1",
		Data:          data,
	}
}

func TestPollPublishedConsumerFansOut(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	module.Store.SetUser("user-1")
	module.Store.SetUser("user-2")

	envelope := pollPublishedEnvelope(t, "event-1", []string{"user-1", "user-2", "ghost-user"})
	if err := module.PollPublishedConsumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("consume failed: %v", err)
	}

	for _, userID := range []string{"user-1", "user-2"} {
		feed, err := module.Handler.AlarmFeedHandler(context.Background(), userID)
		if err != nil {
			t.Fatalf("feed for %s failed: %v", userID, err)
		}
		if len(feed.Alarms) != 1 {
			t.Fatalf("expected 1 alarm for %s, got %d", userID, len(feed.Alarms))
		}
		if feed.Alarms[0].Title != "New poll" {
			t.Fatalf("unexpected alarm title %q", feed.Alarms[0].Title)
		}
		if feed.Alarms[0].Checked {
			t.Fatalf("expected fresh alarm unchecked")
		}
	}

	// The unknown recipient is skipped, never delivered.
	ghost, err := module.Handler.AlarmFeedHandler(context.Background(), "ghost-user")
	if err != nil {
		t.Fatalf("ghost feed failed: %v", err)
	}
	if len(ghost.Alarms) != 0 {
		t.Fatalf("expected no delivery to unknown user, got %d", len(ghost.Alarms))
	}
}

func TestPollPublishedConsumerDeduplicatesReplay(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	module.Store.SetUser("user-1")

	envelope := pollPublishedEnvelope(t, "event-1", []string{"user-1"})
	if err := module.PollPublishedConsumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("first delivery failed: %v", err)
	}
	if err := module.PollPublishedConsumer.Handle(context.Background(), envelope); err != nil {
		t.Fatalf("replay failed: %v", err)
	}

	feed, err := module.Handler.AlarmFeedHandler(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(feed.Alarms) != 1 {
		t.Fatalf("expected replay suppressed, got %d alarms", len(feed.Alarms))
	}
}

func TestFanoutAlarmCreateFailureAborts(t *testing.T) {
	store := alarmservice.NewInMemoryModule(nil, nil).Store
	store.SetUser("user-1")

	fanout := commands.FanoutUseCase{
		Alarms:     failingAlarmRepo{},
		UserAlarms: store,
		Users:      store,
		Clock:      store,
		IDGen:      store,
	}
	_, err := fanout.Deliver(context.Background(), commands.DeliverNotificationCommand{
		Title:            "New poll",
		Content:          "A new poll is open for voting: test",
		TargetType:       entities.TargetTypePolls,
		TargetID:         "poll-1",
		RecipientUserIDs: []string{"user-1"},
	})
	if err == nil {
		t.Fatalf("expected alarm insert failure to propagate")
	}
}

func TestFanoutEmptyRecipients(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)

	result, err := module.Fanout.Deliver(context.Background(), commands.DeliverNotificationCommand{
		Title:      "New poll",
		Content:    "A new poll is open for voting: test",
		TargetType: entities.TargetTypePolls,
		TargetID:   "poll-1",
	})
	if err != nil {
		t.Fatalf("empty fan-out failed: %v", err)
	}
	if result.DeliveredCount != 0 {
		t.Fatalf("expected zero deliveries, got %d", result.DeliveredCount)
	}
	if _, err := module.Store.GetAlarm(context.Background(), result.AlarmID); err != nil {
		t.Fatalf("expected alarm row even without recipients, got %v", err)
	}
}

func TestFanoutTruncatesOverlongContent(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	module.Store.SetUser("user-1")

	result, err := module.Fanout.Deliver(context.Background(), commands.DeliverNotificationCommand{
		Title:            "A headline much longer than the column allows",
		Content:          strings.Repeat("long content ", 40),
		TargetType:       entities.TargetTypePolls,
		TargetID:         "poll-1",
		RecipientUserIDs: []string{"user-1"},
	})
	if err != nil {
		t.Fatalf("fan-out failed: %v", err)
	}

	alarm, err := module.Store.GetAlarm(context.Background(), result.AlarmID)
	if err != nil {
		t.Fatalf("get alarm failed: %v", err)
	}
	if got := len([]rune(alarm.Title)); got > entities.MaxAlarmTitleLength {
		t.Fatalf("expected title truncated to %d runes, got %d", entities.MaxAlarmTitleLength, got)
	}
	if got := len([]rune(alarm.Content)); got > entities.MaxAlarmContentLength {
		t.Fatalf("expected content truncated to %d runes, got %d", entities.MaxAlarmContentLength, got)
	}
}
