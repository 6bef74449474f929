package unit

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	pollengine "newsroom/contexts/news-engagement/poll-engine"
	workers "newsroom/contexts/news-engagement/poll-engine/application/workers"
	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	"newsroom/contexts/news-engagement/poll-engine/ports"
)

type capturingPublisher struct {
	published []ports.EventEnvelope
	topics    []string
}

func (p *capturingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	p.topics = append(p.topics, topic)
	p.published = append(p.published, event)
	return nil
}

func TestStateTransitionerRetireAndPromote(t *testing.T) {
	now := time.Now().UTC()
	expired := publishedPoll("poll-old", 1, 1)
	expired.StartAt = now.Add(-48 * time.Hour)
	expired.EndAt = now.Add(-time.Hour)

	due := entities.Poll{
		PollID:     "poll-next",
		Title:      "Next week's topic",
		MinChoices: 1,
		MaxChoices: 1,
		StartAt:    now.Add(-time.Minute),
		EndAt:      now.Add(7 * 24 * time.Hour),
		State:      entities.PollStateScheduled,
		Options: []entities.PollOption{
			{OptionID: "next-option-1", PollID: "poll-next", Title: "Economy", SortOrder: 0},
			{OptionID: "next-option-2", PollID: "poll-next", Title: "Elections", SortOrder: 1},
		},
		CreatedAt: now.Add(-24 * time.Hour),
		UpdatedAt: now.Add(-24 * time.Hour),
	}

	module := pollengine.NewInMemoryModule([]entities.Poll{expired, due}, nil)
	module.Store.SetUser("user-1")
	module.Store.SetUser("user-2")

	if err := module.StateTransitioner.RunOnce(context.Background()); err != nil {
		t.Fatalf("transition run failed: %v", err)
	}

	old, err := module.Store.GetPoll(context.Background(), "poll-old")
	if err != nil {
		t.Fatalf("get retired poll failed: %v", err)
	}
	if old.State != entities.PollStateDeleted {
		t.Fatalf("expected expired poll retired, got %s", old.State)
	}

	next, err := module.Store.GetPoll(context.Background(), "poll-next")
	if err != nil {
		t.Fatalf("get promoted poll failed: %v", err)
	}
	if next.State != entities.PollStatePublished {
		t.Fatalf("expected scheduled poll promoted, got %s", next.State)
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected exactly one outbox event, got %d", len(pending))
	}

	var envelope ports.EventEnvelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope failed: %v", err)
	}
	if envelope.EventType != workers.PollPublishedTopic {
		t.Fatalf("expected %s event, got %s", workers.PollPublishedTopic, envelope.EventType)
	}
	var payload workers.PollPublishedPayload
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		t.Fatalf("decode payload failed: %v", err)
	}
	if payload.PollID != "poll-next" {
		t.Fatalf("expected poll-next in payload, got %s", payload.PollID)
	}
	if len(payload.RecipientUserIDs) != 2 {
		t.Fatalf("expected 2 recipients, got %d", len(payload.RecipientUserIDs))
	}
	if payload.AlarmTitle == "" || payload.AlarmContent == "" {
		t.Fatalf("expected alarm title and content in payload")
	}
	if payload.TargetType != "polls" {
		t.Fatalf("expected polls target type, got %q", payload.TargetType)
	}
	// The alarm points at the poll surface as a whole, never one poll row.
	if payload.TargetID != "" {
		t.Fatalf("expected empty target id, got %q", payload.TargetID)
	}
}

func TestStateTransitionerNoopTick(t *testing.T) {
	module := pollengine.NewInMemoryModule(nil, nil)
	if err := module.StateTransitioner.RunOnce(context.Background()); err != nil {
		t.Fatalf("noop tick failed: %v", err)
	}
	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no outbox events on noop tick, got %d", len(pending))
	}
}

func TestStateTransitionerPromotionBlockedByActivePoll(t *testing.T) {
	now := time.Now().UTC()
	active := publishedPoll("poll-active", 1, 1)

	due := entities.Poll{
		PollID:     "poll-waiting",
		Title:      "Waiting in line",
		MinChoices: 1,
		MaxChoices: 1,
		StartAt:    now.Add(-time.Minute),
		EndAt:      now.Add(24 * time.Hour),
		State:      entities.PollStateScheduled,
		Options: []entities.PollOption{
			{OptionID: "waiting-option-1", PollID: "poll-waiting", Title: "Yes", SortOrder: 0},
		},
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}

	module := pollengine.NewInMemoryModule([]entities.Poll{active, due}, nil)
	if err := module.StateTransitioner.RunOnce(context.Background()); err != nil {
		t.Fatalf("transition run failed: %v", err)
	}

	waiting, err := module.Store.GetPoll(context.Background(), "poll-waiting")
	if err != nil {
		t.Fatalf("get waiting poll failed: %v", err)
	}
	if waiting.State != entities.PollStateScheduled {
		t.Fatalf("expected blocked promotion to leave poll scheduled, got %s", waiting.State)
	}

	current, err := module.Store.GetPoll(context.Background(), "poll-active")
	if err != nil {
		t.Fatalf("get active poll failed: %v", err)
	}
	if current.State != entities.PollStatePublished {
		t.Fatalf("expected active poll untouched, got %s", current.State)
	}
}

func TestStateTransitionerRepairsMultiplePublished(t *testing.T) {
	now := time.Now().UTC()
	first := publishedPoll("poll-a", 1, 1)
	first.EndAt = now.Add(-2 * time.Hour)
	second := publishedPoll("poll-b", 1, 1)
	second.EndAt = now.Add(-time.Hour)

	module := pollengine.NewInMemoryModule([]entities.Poll{first, second}, nil)
	if err := module.StateTransitioner.RunOnce(context.Background()); err != nil {
		t.Fatalf("transition run failed: %v", err)
	}

	for _, pollID := range []string{"poll-a", "poll-b"} {
		poll, err := module.Store.GetPoll(context.Background(), pollID)
		if err != nil {
			t.Fatalf("get poll %s failed: %v", pollID, err)
		}
		if poll.State != entities.PollStateDeleted {
			t.Fatalf("expected %s retired, got %s", pollID, poll.State)
		}
	}
}

func TestOutboxRelayPublishesPending(t *testing.T) {
	now := time.Now().UTC()
	due := entities.Poll{
		PollID:     "poll-relay",
		Title:      "Relay check",
		MinChoices: 1,
		MaxChoices: 1,
		StartAt:    now.Add(-time.Minute),
		EndAt:      now.Add(24 * time.Hour),
		State:      entities.PollStateScheduled,
		Options: []entities.PollOption{
			{OptionID: "relay-option-1", PollID: "poll-relay", Title: "Ok", SortOrder: 0},
		},
		CreatedAt: now.Add(-time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}

	module := pollengine.NewInMemoryModule([]entities.Poll{due}, nil)
	module.Store.SetUser("user-1")
	if err := module.StateTransitioner.RunOnce(context.Background()); err != nil {
		t.Fatalf("transition run failed: %v", err)
	}

	publisher := &capturingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    module.Store,
		Publisher: publisher,
		BatchSize: 10,
	}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected one published event, got %d", len(publisher.published))
	}
	if publisher.topics[0] != workers.PollPublishedTopic {
		t.Fatalf("expected topic %s, got %s", workers.PollPublishedTopic, publisher.topics[0])
	}

	pending, err := module.Store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected outbox drained after relay, got %d pending", len(pending))
	}

	// A second pass must not republish.
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("second relay run failed: %v", err)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected no republishing, got %d events", len(publisher.published))
	}
}
