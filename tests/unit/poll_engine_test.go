package unit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pollengine "newsroom/contexts/news-engagement/poll-engine"
	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/poll-engine/domain/errors"
	httptransport "newsroom/contexts/news-engagement/poll-engine/transport/http"
)

func publishedPoll(pollID string, minChoices int, maxChoices int) entities.Poll {
	now := time.Now().UTC()
	return entities.Poll{
		PollID:     pollID,
		Title:      "Weekend reading habits",
		MinChoices: minChoices,
		MaxChoices: maxChoices,
		StartAt:    now.Add(-time.Hour),
		EndAt:      now.Add(time.Hour),
		State:      entities.PollStatePublished,
		Options: []entities.PollOption{
			{OptionID: "option-1", PollID: pollID, Title: "Morning", SortOrder: 0},
			{OptionID: "option-2", PollID: pollID, Title: "Afternoon", SortOrder: 1},
			{OptionID: "option-3", PollID: pollID, Title: "Evening", SortOrder: 2},
		},
		CreatedAt: now.Add(-2 * time.Hour),
		UpdatedAt: now.Add(-time.Hour),
	}
}

func TestCreatePollValidation(t *testing.T) {
	module := pollengine.NewInMemoryModule(nil, nil)

	validReq := httptransport.CreatePollRequest{
		Title:      "Which section should we expand?",
		MinChoices: 1,
		MaxChoices: 2,
		StartAt:    time.Now().UTC().Add(time.Hour),
		EndAt:      time.Now().UTC().Add(48 * time.Hour),
		Options: []httptransport.CreatePollOptionRequest{
			{Title: "Politics"},
			{Title: "Culture"},
			{Title: "Science"},
		},
	}

	if _, err := module.Handler.CreatePollHandler(context.Background(), "", validReq); !errors.Is(err, domainerrors.ErrAdminRequired) {
		t.Fatalf("expected admin required, got %v", err)
	}

	badTitle := validReq
	badTitle.Title = ""
	if _, err := module.Handler.CreatePollHandler(context.Background(), "admin-1", badTitle); !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input for empty title, got %v", err)
	}

	badDates := validReq
	badDates.StartAt = validReq.EndAt
	badDates.EndAt = validReq.StartAt
	if _, err := module.Handler.CreatePollHandler(context.Background(), "admin-1", badDates); !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input for reversed dates, got %v", err)
	}

	badChoices := validReq
	badChoices.MinChoices = 3
	badChoices.MaxChoices = 2
	if _, err := module.Handler.CreatePollHandler(context.Background(), "admin-1", badChoices); !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input for min above max, got %v", err)
	}

	tooManyChoices := validReq
	tooManyChoices.MaxChoices = 4
	if _, err := module.Handler.CreatePollHandler(context.Background(), "admin-1", tooManyChoices); !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input when max exceeds option count, got %v", err)
	}

	longOption := validReq
	longOption.Options = []httptransport.CreatePollOptionRequest{
		{Title: "this option title is way too long"},
		{Title: "Culture"},
	}
	if _, err := module.Handler.CreatePollHandler(context.Background(), "admin-1", longOption); !errors.Is(err, domainerrors.ErrInvalidPollInput) {
		t.Fatalf("expected invalid input for long option title, got %v", err)
	}

	created, err := module.Handler.CreatePollHandler(context.Background(), "admin-1", validReq)
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}
	poll, err := module.Handler.GetPollHandler(context.Background(), created.PollID)
	if err != nil {
		t.Fatalf("get poll failed: %v", err)
	}
	if poll.State != string(entities.PollStateDraft) {
		t.Fatalf("expected draft state, got %s", poll.State)
	}
	if len(poll.Options) != 3 {
		t.Fatalf("expected 3 options, got %d", len(poll.Options))
	}
	for index, option := range poll.Options {
		if option.SortOrder != index {
			t.Fatalf("expected sort order %d, got %d", index, option.SortOrder)
		}
	}
}

func TestSchedulePollTransitions(t *testing.T) {
	module := pollengine.NewInMemoryModule(nil, nil)

	created, err := module.Handler.CreatePollHandler(context.Background(), "admin-1", httptransport.CreatePollRequest{
		Title:      "Best publishing time",
		MinChoices: 1,
		MaxChoices: 1,
		StartAt:    time.Now().UTC().Add(time.Hour),
		EndAt:      time.Now().UTC().Add(24 * time.Hour),
		Options: []httptransport.CreatePollOptionRequest{
			{Title: "Morning"},
			{Title: "Evening"},
		},
	})
	if err != nil {
		t.Fatalf("create poll failed: %v", err)
	}

	scheduled, err := module.Handler.SchedulePollHandler(context.Background(), created.PollID, "admin-1")
	if err != nil {
		t.Fatalf("schedule poll failed: %v", err)
	}
	if scheduled.State != string(entities.PollStateScheduled) {
		t.Fatalf("expected scheduled state, got %s", scheduled.State)
	}

	if _, err := module.Handler.SchedulePollHandler(context.Background(), created.PollID, "admin-1"); !errors.Is(err, domainerrors.ErrInvalidStateChange) {
		t.Fatalf("expected invalid state change on double schedule, got %v", err)
	}
	if _, err := module.Handler.SchedulePollHandler(context.Background(), "missing-poll", "admin-1"); !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected poll not found, got %v", err)
	}
}

func TestCastBallotHappyPathAndStatistics(t *testing.T) {
	module := pollengine.NewInMemoryModule([]entities.Poll{publishedPoll("poll-1", 1, 2)}, nil)

	result, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1", "option-3"},
	})
	if err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}
	if result.PollID != "poll-1" {
		t.Fatalf("expected poll-1, got %s", result.PollID)
	}
	if len(result.VoteIDs) != 2 {
		t.Fatalf("expected 2 vote rows, got %d", len(result.VoteIDs))
	}

	if _, err := module.Handler.CastBallotHandler(context.Background(), "user-2", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1"},
	}); err != nil {
		t.Fatalf("second user ballot failed: %v", err)
	}

	stats, err := module.Handler.PollStatisticsHandler(context.Background(), "poll-1")
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.TotalVotes != 3 {
		t.Fatalf("expected 3 vote rows counted, got %d", stats.TotalVotes)
	}
	if len(stats.Items) != 3 {
		t.Fatalf("expected counts for all 3 options, got %d", len(stats.Items))
	}
	counts := map[string]int{}
	for _, item := range stats.Items {
		counts[item.OptionID] = item.Count
	}
	if counts["option-1"] != 2 || counts["option-2"] != 0 || counts["option-3"] != 1 {
		t.Fatalf("unexpected per-option counts: %v", counts)
	}

	// Recomputation must be idempotent.
	again, err := module.Handler.PollStatisticsHandler(context.Background(), "poll-1")
	if err != nil {
		t.Fatalf("statistics recompute failed: %v", err)
	}
	if again.TotalVotes != stats.TotalVotes {
		t.Fatalf("expected stable totals, got %d then %d", stats.TotalVotes, again.TotalVotes)
	}
}

func TestCastBallotAdmissionGates(t *testing.T) {
	module := pollengine.NewInMemoryModule([]entities.Poll{publishedPoll("poll-1", 2, 2)}, nil)

	if _, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1"},
	}); !errors.Is(err, domainerrors.ErrChoiceCountOutOfRange) {
		t.Fatalf("expected choice count below min rejected, got %v", err)
	}

	if _, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1", "option-2", "option-3"},
	}); !errors.Is(err, domainerrors.ErrChoiceCountOutOfRange) {
		t.Fatalf("expected choice count above max rejected, got %v", err)
	}

	if _, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1", "option-9"},
	}); !errors.Is(err, domainerrors.ErrOptionNotFound) {
		t.Fatalf("expected unknown option rejected, got %v", err)
	}

	if _, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1", "option-1"},
	}); !errors.Is(err, domainerrors.ErrOptionNotFound) {
		t.Fatalf("expected duplicate option rejected, got %v", err)
	}
}

func TestCastBallotWindowAndStateGates(t *testing.T) {
	closed := publishedPoll("poll-closed", 1, 1)
	closed.StartAt = time.Now().UTC().Add(-3 * time.Hour)
	closed.EndAt = time.Now().UTC().Add(-time.Hour)
	module := pollengine.NewInMemoryModule([]entities.Poll{closed}, nil)

	if _, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-closed", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1"},
	}); !errors.Is(err, domainerrors.ErrNotInVotingPeriod) {
		t.Fatalf("expected closed window rejected, got %v", err)
	}

	empty := pollengine.NewInMemoryModule(nil, nil)
	if _, err := empty.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1"},
	}); !errors.Is(err, domainerrors.ErrPollNotFound) {
		t.Fatalf("expected not found without published poll, got %v", err)
	}
}

func TestCastBallotDuplicateRejected(t *testing.T) {
	module := pollengine.NewInMemoryModule([]entities.Poll{publishedPoll("poll-1", 1, 2)}, nil)

	if _, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-1"},
	}); err != nil {
		t.Fatalf("first ballot failed: %v", err)
	}
	// Retry with a different option set still counts as a second ballot.
	if _, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
		OptionIDs: []string{"option-2"},
	}); !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected duplicate ballot rejected, got %v", err)
	}
}

func TestCastBallotConcurrentDuplicates(t *testing.T) {
	module := pollengine.NewInMemoryModule([]entities.Poll{publishedPoll("poll-1", 1, 2)}, nil)

	const attempts = 16
	var wg sync.WaitGroup
	outcomes := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := module.Handler.CastBallotHandler(context.Background(), "user-1", "poll-1", httptransport.CastBallotRequest{
				OptionIDs: []string{"option-1", "option-2"},
			})
			outcomes <- err
		}()
	}
	wg.Wait()
	close(outcomes)

	succeeded := 0
	for err := range outcomes {
		if err == nil {
			succeeded++
			continue
		}
		if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
			t.Fatalf("unexpected concurrent outcome: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("expected exactly one admitted ballot, got %d", succeeded)
	}

	stats, err := module.Handler.PollStatisticsHandler(context.Background(), "poll-1")
	if err != nil {
		t.Fatalf("statistics failed: %v", err)
	}
	if stats.TotalVotes != 2 {
		t.Fatalf("expected 2 vote rows from the single admitted ballot, got %d", stats.TotalVotes)
	}
}
