package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "newsroom/contexts/news-engagement/poll-engine/application"
	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/poll-engine/domain/errors"
	"newsroom/contexts/news-engagement/poll-engine/ports"
)

// CastBallotCommand is one user's submission of selected options. The poll id
// from the route is advisory only: admission always targets the currently
// published poll.
type CastBallotCommand struct {
	UserID            string
	PollID            string
	SelectedOptionIDs []string
}

// CastBallotResult reports the persisted ballot.
type CastBallotResult struct {
	PollID  string
	VoteIDs []string
	VotedAt time.Time
}

// VoteUseCase is the admission gate a ballot must pass before persistence:
// published state, voting window, option ownership, choice bounds, and the
// one-ballot-per-user rule. Statistics are refreshed asynchronously by the
// aggregator, never inline.
type VoteUseCase struct {
	Polls  ports.PollRepository
	Votes  ports.VoteRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc VoteUseCase) CastBallot(ctx context.Context, cmd CastBallotCommand) (CastBallotResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" || len(cmd.SelectedOptionIDs) == 0 {
		return CastBallotResult{}, domainerrors.ErrInvalidPollInput
	}

	poll, found, err := uc.Polls.GetLatestPollByState(ctx, entities.PollStatePublished)
	if err != nil {
		return CastBallotResult{}, err
	}
	if !found {
		return CastBallotResult{}, domainerrors.ErrPollNotFound
	}
	if poll.State != entities.PollStatePublished {
		return CastBallotResult{}, domainerrors.ErrPollNotPublished
	}

	now := uc.now()
	if !poll.InVotingWindow(now) {
		logger.Warn("ballot rejected outside voting window",
			"event", "poll_vote_outside_window",
			"module", "news-engagement/poll-engine",
			"layer", "application",
			"poll_id", poll.PollID,
			"user_id", userID,
		)
		return CastBallotResult{}, domainerrors.ErrNotInVotingPeriod
	}

	selected, err := resolveSelectedOptions(poll, cmd.SelectedOptionIDs)
	if err != nil {
		logger.Warn("ballot option resolution failed",
			"event", "poll_vote_option_resolution_failed",
			"module", "news-engagement/poll-engine",
			"layer", "application",
			"poll_id", poll.PollID,
			"user_id", userID,
			"requested_count", len(cmd.SelectedOptionIDs),
			"error", err.Error(),
		)
		return CastBallotResult{}, err
	}
	if len(selected) < poll.MinChoices || len(selected) > poll.MaxChoices {
		return CastBallotResult{}, domainerrors.ErrChoiceCountOutOfRange
	}

	if voted, err := uc.Votes.HasUserVoted(ctx, poll.PollID, userID); err != nil {
		return CastBallotResult{}, err
	} else if voted {
		return CastBallotResult{}, domainerrors.ErrAlreadyVoted
	}

	// CreateBallot re-checks the duplicate gate inside its transaction, so a
	// concurrent ballot from the same user cannot slip through this window.
	votes := make([]entities.Vote, 0, len(selected))
	voteIDs := make([]string, 0, len(selected))
	for _, option := range selected {
		voteID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return CastBallotResult{}, err
		}
		votes = append(votes, entities.Vote{
			VoteID:    voteID,
			PollID:    poll.PollID,
			OptionID:  option.OptionID,
			UserID:    userID,
			VotedAt:   now,
			CreatedAt: now,
		})
		voteIDs = append(voteIDs, voteID)
	}
	if err := uc.Votes.CreateBallot(ctx, votes); err != nil {
		return CastBallotResult{}, err
	}

	logger.Info("ballot admitted",
		"event", "poll_vote_admitted",
		"module", "news-engagement/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"user_id", userID,
		"selected_count", len(selected),
	)
	return CastBallotResult{
		PollID:  poll.PollID,
		VoteIDs: voteIDs,
		VotedAt: now,
	}, nil
}

func (uc VoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

// resolveSelectedOptions maps requested ids to poll options. Unknown ids,
// duplicates, and options owned by another poll all fail as not found.
func resolveSelectedOptions(poll entities.Poll, requestedIDs []string) ([]entities.PollOption, error) {
	byID := make(map[string]entities.PollOption, len(poll.Options))
	for _, option := range poll.Options {
		byID[option.OptionID] = option
	}

	seen := make(map[string]bool, len(requestedIDs))
	selected := make([]entities.PollOption, 0, len(requestedIDs))
	for _, raw := range requestedIDs {
		optionID := strings.TrimSpace(raw)
		if optionID == "" || seen[optionID] {
			return nil, domainerrors.ErrOptionNotFound
		}
		option, ok := byID[optionID]
		if !ok {
			return nil, domainerrors.ErrOptionNotFound
		}
		seen[optionID] = true
		selected = append(selected, option)
	}
	return selected, nil
}
