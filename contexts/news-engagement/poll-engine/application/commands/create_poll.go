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

// CreatePollOptionInput is one option definition inside a create request.
type CreatePollOptionInput struct {
	Title    string
	ImageURL string
}

// CreatePollCommand is the write-model input for administrative poll creation.
type CreatePollCommand struct {
	AdminID    string
	Title      string
	MinChoices int
	MaxChoices int
	StartAt    time.Time
	EndAt      time.Time
	Options    []CreatePollOptionInput
}

// PollUseCase orchestrates administrative poll commands: creation in draft
// state and the explicit draft-to-scheduled transition. Date ordering and
// choice bounds are validated here once; the state machine never re-checks.
type PollUseCase struct {
	Polls  ports.PollRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc PollUseCase) CreatePoll(ctx context.Context, cmd CreatePollCommand) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(cmd.AdminID) == "" {
		return entities.Poll{}, domainerrors.ErrAdminRequired
	}
	if err := validateCreatePoll(cmd); err != nil {
		logger.Warn("poll create validation failed",
			"event", "poll_create_validation_failed",
			"module", "news-engagement/poll-engine",
			"layer", "application",
			"admin_id", strings.TrimSpace(cmd.AdminID),
			"error", err.Error(),
		)
		return entities.Poll{}, err
	}

	now := uc.now()
	pollID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Poll{}, err
	}
	poll := entities.Poll{
		PollID:     pollID,
		Title:      strings.TrimSpace(cmd.Title),
		MinChoices: cmd.MinChoices,
		MaxChoices: cmd.MaxChoices,
		StartAt:    cmd.StartAt.UTC(),
		EndAt:      cmd.EndAt.UTC(),
		State:      entities.PollStateDraft,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for index, input := range cmd.Options {
		optionID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.Poll{}, err
		}
		poll.Options = append(poll.Options, entities.PollOption{
			OptionID:  optionID,
			PollID:    pollID,
			Title:     strings.TrimSpace(input.Title),
			ImageURL:  strings.TrimSpace(input.ImageURL),
			SortOrder: index,
		})
	}

	if err := uc.Polls.CreatePoll(ctx, poll); err != nil {
		return entities.Poll{}, err
	}
	logger.Info("poll created",
		"event", "poll_created",
		"module", "news-engagement/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"admin_id", strings.TrimSpace(cmd.AdminID),
		"option_count", len(poll.Options),
	)
	return poll, nil
}

// SchedulePoll moves a draft poll into the scheduled state so the state
// machine can promote it once its start time passes.
func (uc PollUseCase) SchedulePoll(ctx context.Context, pollID string, adminID string) (entities.Poll, error) {
	logger := application.ResolveLogger(uc.Logger)
	if strings.TrimSpace(adminID) == "" {
		return entities.Poll{}, domainerrors.ErrAdminRequired
	}

	poll, err := uc.Polls.GetPoll(ctx, strings.TrimSpace(pollID))
	if err != nil {
		return entities.Poll{}, err
	}
	if poll.State != entities.PollStateDraft {
		logger.Warn("poll schedule rejected for non-draft poll",
			"event", "poll_schedule_invalid_state",
			"module", "news-engagement/poll-engine",
			"layer", "application",
			"poll_id", poll.PollID,
			"state", string(poll.State),
		)
		return entities.Poll{}, domainerrors.ErrInvalidStateChange
	}

	now := uc.now()
	if err := uc.Polls.MarkScheduled(ctx, poll.PollID, now); err != nil {
		return entities.Poll{}, err
	}
	poll.State = entities.PollStateScheduled
	poll.UpdatedAt = now
	logger.Info("poll scheduled",
		"event", "poll_scheduled",
		"module", "news-engagement/poll-engine",
		"layer", "application",
		"poll_id", poll.PollID,
		"admin_id", strings.TrimSpace(adminID),
		"start_at", poll.StartAt.Format(time.RFC3339),
	)
	return poll, nil
}

func (uc PollUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func validateCreatePoll(cmd CreatePollCommand) error {
	title := strings.TrimSpace(cmd.Title)
	if title == "" || len([]rune(title)) > entities.MaxPollTitleLength {
		return domainerrors.ErrInvalidPollInput
	}
	if cmd.MinChoices < 1 || cmd.MaxChoices < 1 || cmd.MinChoices > cmd.MaxChoices {
		return domainerrors.ErrInvalidPollInput
	}
	if !cmd.StartAt.Before(cmd.EndAt) {
		return domainerrors.ErrInvalidPollInput
	}
	if len(cmd.Options) == 0 || cmd.MaxChoices > len(cmd.Options) {
		return domainerrors.ErrInvalidPollInput
	}
	for _, option := range cmd.Options {
		optionTitle := strings.TrimSpace(option.Title)
		if optionTitle == "" || len([]rune(optionTitle)) > entities.MaxOptionTitleLength {
			return domainerrors.ErrInvalidPollInput
		}
	}
	return nil
}
