package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	application "newsroom/contexts/news-engagement/poll-engine/application"
	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/poll-engine/domain/errors"
	"newsroom/contexts/news-engagement/poll-engine/ports"
)

// StateTransitioner enforces the poll state machine on a fixed schedule:
// retire published polls past their end time, then promote the earliest due
// scheduled poll. After every run at most one poll is published.
//
// Retirement and promotion are evaluated independently; a failure in one half
// is logged and does not block the other. RunOnce returns the first error so
// the next scheduled tick retries, while committed work stays committed.
type StateTransitioner struct {
	Polls  ports.PollRepository
	Users  ports.UserDirectory
	Outbox ports.OutboxWriter
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (j StateTransitioner) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)
	now := j.now()

	retireErr := j.retireExpired(ctx, logger, now)
	promoteErr := j.promoteNext(ctx, logger, now)

	if retireErr != nil {
		return retireErr
	}
	return promoteErr
}

func (j StateTransitioner) retireExpired(ctx context.Context, logger *slog.Logger, now time.Time) error {
	retired, err := j.Polls.RetireExpiredPublished(ctx, now)
	if err != nil {
		logger.Error("poll retirement sweep failed",
			"event", "poll_retirement_failed",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(retired) == 0 {
		logger.Info("no published poll due for retirement",
			"event", "poll_retirement_noop",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
		)
		return nil
	}
	if len(retired) > 1 {
		// More than one published poll means the invariant was broken earlier;
		// retiring all of them repairs it.
		logger.Warn("multiple published polls retired",
			"event", "poll_retirement_anomaly_repaired",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
			"retired_count", len(retired),
		)
	}
	for _, poll := range retired {
		logger.Info("poll retired",
			"event", "poll_retired",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
			"poll_id", poll.PollID,
			"end_at", poll.EndAt.Format(time.RFC3339),
		)
	}
	return nil
}

func (j StateTransitioner) promoteNext(ctx context.Context, logger *slog.Logger, now time.Time) error {
	scheduled, err := j.Polls.ListPollsByState(ctx, entities.PollStateScheduled)
	if err != nil {
		logger.Error("scheduled poll lookup failed",
			"event", "poll_promotion_lookup_failed",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}

	var candidate *entities.Poll
	for index := range scheduled {
		if scheduled[index].StartAt.After(now) {
			continue
		}
		if candidate == nil || scheduled[index].CreatedAt.Before(candidate.CreatedAt) {
			candidate = &scheduled[index]
		}
	}
	if candidate == nil {
		logger.Info("no scheduled poll due for promotion",
			"event", "poll_promotion_noop",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
		)
		return nil
	}

	promoted, err := j.Polls.PromoteScheduled(ctx, candidate.PollID, now)
	if err != nil {
		if errors.Is(err, domainerrors.ErrPublishedPollExists) {
			// Another published poll survived retirement (or another replica
			// won the promotion); leave the candidate for the next tick.
			logger.Warn("promotion blocked by existing published poll",
				"event", "poll_promotion_blocked",
				"module", "news-engagement/poll-engine",
				"layer", "worker",
				"poll_id", candidate.PollID,
			)
			return nil
		}
		logger.Error("poll promotion failed",
			"event", "poll_promotion_failed",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
			"poll_id", candidate.PollID,
			"error", err.Error(),
		)
		return err
	}

	logger.Info("poll promoted to published",
		"event", "poll_promoted",
		"module", "news-engagement/poll-engine",
		"layer", "worker",
		"poll_id", promoted.PollID,
		"start_at", promoted.StartAt.Format(time.RFC3339),
	)
	return j.emitPollPublished(ctx, logger, promoted, now)
}

// emitPollPublished appends the notification event to the outbox. The
// promotion itself is already committed; alarm delivery failing here only
// delays notifications, never the state transition.
func (j StateTransitioner) emitPollPublished(
	ctx context.Context,
	logger *slog.Logger,
	poll entities.Poll,
	occurredAt time.Time,
) error {
	if j.Outbox == nil {
		return nil
	}
	recipients, err := j.Users.ListUserIDs(ctx)
	if err != nil {
		logger.Error("recipient resolution failed",
			"event", "poll_published_recipients_failed",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
			"poll_id", poll.PollID,
			"error", err.Error(),
		)
		return err
	}

	eventID, err := j.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	envelope, err := newPollEnvelope(
		eventID,
		PollPublishedTopic,
		poll.PollID,
		occurredAt,
		newPollPublishedPayload(poll.PollID, poll.Title, recipients),
	)
	if err != nil {
		return err
	}
	if err := j.Outbox.AppendOutbox(ctx, envelope); err != nil {
		logger.Error("poll published event append failed",
			"event", "poll_published_append_failed",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
			"poll_id", poll.PollID,
			"error", err.Error(),
		)
		return err
	}
	logger.Info("poll published event appended",
		"event", "poll_published_appended",
		"module", "news-engagement/poll-engine",
		"layer", "worker",
		"poll_id", poll.PollID,
		"recipient_count", len(recipients),
	)
	return nil
}

func (j StateTransitioner) now() time.Time {
	now := time.Now().UTC()
	if j.Clock != nil {
		now = j.Clock.Now().UTC()
	}
	return now
}
