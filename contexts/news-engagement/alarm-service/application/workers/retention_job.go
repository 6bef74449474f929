package workers

import (
	"context"
	"log/slog"
	"time"

	application "newsroom/contexts/news-engagement/alarm-service/application"
	"newsroom/contexts/news-engagement/alarm-service/ports"
)

// RetentionJob deletes alarms older than the retention window, cascading to
// their user alarm rows. It runs on the worker ticker loop.
type RetentionJob struct {
	Alarms ports.AlarmRepository
	Window time.Duration
	Clock  ports.Clock
	Logger *slog.Logger
}

func (j RetentionJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	window := j.Window
	if window <= 0 {
		window = 14 * 24 * time.Hour
	}
	cutoff := j.now().Add(-window)

	alarmsDeleted, userAlarmsDeleted, err := j.Alarms.DeleteAlarmsBefore(ctx, cutoff)
	if err != nil {
		logger.Error("alarm retention sweep failed",
			"event", "alarm_retention_failed",
			"module", "news-engagement/alarm-service",
			"layer", "application",
			"cutoff", cutoff,
			"error", err.Error(),
		)
		return err
	}
	if alarmsDeleted == 0 && userAlarmsDeleted == 0 {
		return nil
	}
	logger.Info("alarm retention sweep completed",
		"event", "alarm_retention_completed",
		"module", "news-engagement/alarm-service",
		"layer", "application",
		"cutoff", cutoff,
		"alarms_deleted", alarmsDeleted,
		"user_alarms_deleted", userAlarmsDeleted,
	)
	return nil
}

func (j RetentionJob) now() time.Time {
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}
	return now
}
