package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "newsroom/contexts/news-engagement/alarm-service/application"
	domainerrors "newsroom/contexts/news-engagement/alarm-service/domain/errors"
	"newsroom/contexts/news-engagement/alarm-service/ports"
)

// MarkAlarmCheckedCommand marks one of the caller's alarms as read.
type MarkAlarmCheckedCommand struct {
	UserID      string
	UserAlarmID string
}

// ReadStateUseCase owns per-user read state for delivered alarms.
type ReadStateUseCase struct {
	UserAlarms ports.UserAlarmRepository
	Clock      ports.Clock
	Logger     *slog.Logger
}

// MarkChecked flips the caller's alarm to checked. Repeating the call on an
// already-checked alarm is a no-op; the stored checked_at keeps the first
// timestamp.
func (uc ReadStateUseCase) MarkChecked(ctx context.Context, cmd MarkAlarmCheckedCommand) error {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	userAlarmID := strings.TrimSpace(cmd.UserAlarmID)
	if userID == "" || userAlarmID == "" {
		return domainerrors.ErrInvalidAlarmInput
	}

	userAlarm, err := uc.UserAlarms.GetUserAlarm(ctx, userAlarmID)
	if err != nil {
		return err
	}
	if userAlarm.UserID != userID {
		return domainerrors.ErrNotAlarmOwner
	}
	if userAlarm.Checked {
		return nil
	}

	if err := uc.UserAlarms.MarkChecked(ctx, userAlarmID, uc.now()); err != nil {
		return err
	}
	logger.Info("alarm marked checked",
		"event", "alarm_marked_checked",
		"module", "news-engagement/alarm-service",
		"layer", "application",
		"user_alarm_id", userAlarmID,
		"user_id", userID,
	)
	return nil
}

func (uc ReadStateUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
