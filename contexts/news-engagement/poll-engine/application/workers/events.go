package workers

import (
	"encoding/json"
	"fmt"
	"time"

	"newsroom/contexts/news-engagement/poll-engine/ports"
)

const (
	// PollPublishedTopic carries one event per successful promotion.
	PollPublishedTopic = "poll.published"

	pollAlarmTitle           = "New poll"
	pollAlarmContentTemplate = "A new poll is open for voting: %s"
)

// PollPublishedPayload is the notification event body the alarm service fans
// out. Recipients are resolved at publish time; the consumer re-validates each
// one and skips ids that no longer exist. TargetID stays empty: the alarm
// points at the poll surface as a whole, not one poll row.
type PollPublishedPayload struct {
	PollID           string   `json:"poll_id"`
	PollTitle        string   `json:"poll_title"`
	AlarmTitle       string   `json:"alarm_title"`
	AlarmContent     string   `json:"alarm_content"`
	TargetType       string   `json:"target_type"`
	TargetID         string   `json:"target_id,omitempty"`
	RecipientUserIDs []string `json:"recipient_user_ids"`
}

func newPollPublishedPayload(pollID string, pollTitle string, recipients []string) PollPublishedPayload {
	return PollPublishedPayload{
		PollID:           pollID,
		PollTitle:        pollTitle,
		AlarmTitle:       pollAlarmTitle,
		AlarmContent:     fmt.Sprintf(pollAlarmContentTemplate, pollTitle),
		TargetType:       "polls",
		RecipientUserIDs: recipients,
	}
}

func newPollEnvelope(
	eventID string,
	eventType string,
	pollID string,
	occurredAt time.Time,
	payload any,
) (ports.EventEnvelope, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:          eventID,
		EventType:        eventType,
		OccurredAt:       occurredAt.UTC(),
		SourceService:    "poll-engine",
		TraceID:          eventID,
		SchemaVersion:    1,
		PartitionKeyPath: "poll_id",
		PartitionKey:     pollID,
		Data:             data,
	}, nil
}
