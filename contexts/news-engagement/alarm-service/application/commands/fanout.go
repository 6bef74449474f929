package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "newsroom/contexts/news-engagement/alarm-service/application"
	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/alarm-service/domain/errors"
	"newsroom/contexts/news-engagement/alarm-service/ports"
)

// DeliverNotificationCommand is one notification event to fan out.
type DeliverNotificationCommand struct {
	Title            string
	Content          string
	TargetType       entities.TargetType
	TargetID         string
	RecipientUserIDs []string
}

// DeliverNotificationResult reports fan-out counts for logging and tests.
type DeliverNotificationResult struct {
	AlarmID           string
	DeliveredCount    int
	SkippedRecipients []string
}

// FanoutUseCase writes notification content once and one read-state row per
// valid recipient. The Alarm insert is the only fatal step; recipient lookups
// that miss are skipped so one stale id never blocks the rest of the batch.
type FanoutUseCase struct {
	Alarms     ports.AlarmRepository
	UserAlarms ports.UserAlarmRepository
	Users      ports.UserDirectory
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

func (uc FanoutUseCase) Deliver(ctx context.Context, cmd DeliverNotificationCommand) (DeliverNotificationResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	title := entities.Truncate(strings.TrimSpace(cmd.Title), entities.MaxAlarmTitleLength)
	content := entities.Truncate(strings.TrimSpace(cmd.Content), entities.MaxAlarmContentLength)
	if title == "" || content == "" {
		return DeliverNotificationResult{}, domainerrors.ErrInvalidAlarmInput
	}

	now := uc.now()
	alarmID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return DeliverNotificationResult{}, err
	}
	alarm := entities.Alarm{
		AlarmID:    alarmID,
		Title:      title,
		Content:    content,
		TargetType: cmd.TargetType,
		TargetID:   strings.TrimSpace(cmd.TargetID),
		CreatedAt:  now,
	}
	if err := uc.Alarms.CreateAlarm(ctx, alarm); err != nil {
		logger.Error("alarm creation failed; aborting fan-out",
			"event", "alarm_fanout_create_failed",
			"module", "news-engagement/alarm-service",
			"layer", "application",
			"target_type", string(cmd.TargetType),
			"recipient_count", len(cmd.RecipientUserIDs),
			"error", err.Error(),
		)
		return DeliverNotificationResult{}, err
	}

	result := DeliverNotificationResult{AlarmID: alarmID}
	for _, raw := range cmd.RecipientUserIDs {
		userID := strings.TrimSpace(raw)
		if userID == "" {
			continue
		}
		exists, err := uc.Users.UserExists(ctx, userID)
		if err != nil || !exists {
			if err != nil {
				logger.Warn("recipient lookup failed; skipping",
					"event", "alarm_fanout_recipient_lookup_failed",
					"module", "news-engagement/alarm-service",
					"layer", "application",
					"alarm_id", alarmID,
					"user_id", userID,
					"error", err.Error(),
				)
			}
			result.SkippedRecipients = append(result.SkippedRecipients, userID)
			continue
		}
		userAlarmID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return result, err
		}
		if err := uc.UserAlarms.CreateUserAlarm(ctx, entities.UserAlarm{
			UserAlarmID: userAlarmID,
			UserID:      userID,
			AlarmID:     alarmID,
			Checked:     false,
			CreatedAt:   now,
		}); err != nil {
			logger.Warn("user alarm creation failed; skipping recipient",
				"event", "alarm_fanout_user_alarm_failed",
				"module", "news-engagement/alarm-service",
				"layer", "application",
				"alarm_id", alarmID,
				"user_id", userID,
				"error", err.Error(),
			)
			result.SkippedRecipients = append(result.SkippedRecipients, userID)
			continue
		}
		result.DeliveredCount++
	}

	if len(cmd.RecipientUserIDs) == 0 {
		logger.Info("alarm created with no recipients",
			"event", "alarm_fanout_empty_recipients",
			"module", "news-engagement/alarm-service",
			"layer", "application",
			"alarm_id", alarmID,
		)
	}
	logger.Info("alarm fan-out completed",
		"event", "alarm_fanout_completed",
		"module", "news-engagement/alarm-service",
		"layer", "application",
		"alarm_id", alarmID,
		"delivered_count", result.DeliveredCount,
		"skipped_count", len(result.SkippedRecipients),
	)
	return result, nil
}

func (uc FanoutUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
