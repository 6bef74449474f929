package queries

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	application "newsroom/contexts/news-engagement/poll-engine/application"
	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	"newsroom/contexts/news-engagement/poll-engine/ports"
)

// StatisticsUseCase recomputes the per-option vote tallies from the vote
// ledger and refreshes the VoteStatistics cache. Recomputation is idempotent:
// the cache row for each (poll, option) pair is overwritten with the counted
// value, so re-running after a partial failure converges.
type StatisticsUseCase struct {
	Polls  ports.PollRepository
	Votes  ports.VoteRepository
	Stats  ports.StatsRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

// GetPollStatistics serves the on-demand read: recompute, upsert, and return
// the per-option counts plus the ballot-row total for one poll.
func (uc StatisticsUseCase) GetPollStatistics(ctx context.Context, pollID string) (entities.PollResult, error) {
	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return entities.PollResult{}, err
	}
	return uc.RecomputePoll(ctx, poll)
}

// RecomputePoll counts vote rows per option and upserts one VoteStatistics
// row per (poll, option). Cache rows are never trusted as input.
func (uc StatisticsUseCase) RecomputePoll(ctx context.Context, poll entities.Poll) (entities.PollResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	now := uc.now()

	result := entities.PollResult{
		PollID:    poll.PollID,
		PollTitle: poll.Title,
		State:     poll.State,
	}
	options := append([]entities.PollOption(nil), poll.Options...)
	sort.Slice(options, func(i, j int) bool {
		return options[i].SortOrder < options[j].SortOrder
	})

	for _, option := range options {
		count, err := uc.Votes.CountVotesByOption(ctx, poll.PollID, option.OptionID)
		if err != nil {
			return entities.PollResult{}, err
		}
		statID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.PollResult{}, err
		}
		if err := uc.Stats.UpsertStatistics(ctx, entities.VoteStatistics{
			StatID:    statID,
			PollID:    poll.PollID,
			OptionID:  option.OptionID,
			Count:     count,
			UpdatedAt: now,
		}); err != nil {
			return entities.PollResult{}, err
		}
		result.Items = append(result.Items, entities.OptionCount{
			OptionID:    option.OptionID,
			OptionTitle: option.Title,
			Count:       count,
		})
		result.TotalVotes += count
	}

	logger.Info("poll statistics recomputed",
		"event", "poll_statistics_recomputed",
		"module", "news-engagement/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"option_count", len(result.Items),
		"total_votes", result.TotalVotes,
	)
	return result, nil
}

func (uc StatisticsUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}
