package workers

import (
	"context"
	"log/slog"

	application "newsroom/contexts/news-engagement/poll-engine/application"
	"newsroom/contexts/news-engagement/poll-engine/application/queries"
	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	"newsroom/contexts/news-engagement/poll-engine/ports"
)

// StatisticsJob refreshes the VoteStatistics cache for every published poll.
// The recomputation overwrites each (poll, option) row from the vote ledger,
// so running the job twice with no new votes is a no-op.
type StatisticsJob struct {
	Polls      ports.PollRepository
	Statistics queries.StatisticsUseCase
	Logger     *slog.Logger
}

func (j StatisticsJob) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(j.Logger)

	polls, err := j.Polls.ListPollsByState(ctx, entities.PollStatePublished)
	if err != nil {
		logger.Error("statistics poll lookup failed",
			"event", "poll_statistics_lookup_failed",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(polls) == 0 {
		logger.Debug("statistics job found no published polls",
			"event", "poll_statistics_noop",
			"module", "news-engagement/poll-engine",
			"layer", "worker",
		)
		return nil
	}

	for _, poll := range polls {
		if _, err := j.Statistics.RecomputePoll(ctx, poll); err != nil {
			logger.Error("statistics recompute failed",
				"event", "poll_statistics_recompute_failed",
				"module", "news-engagement/poll-engine",
				"layer", "worker",
				"poll_id", poll.PollID,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("statistics job completed",
		"event", "poll_statistics_completed",
		"module", "news-engagement/poll-engine",
		"layer", "worker",
		"poll_count", len(polls),
	)
	return nil
}
