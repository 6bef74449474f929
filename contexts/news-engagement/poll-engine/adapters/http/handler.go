package httpadapter

import (
	"context"
	"log/slog"

	"newsroom/contexts/news-engagement/poll-engine/application/commands"
	"newsroom/contexts/news-engagement/poll-engine/application/queries"
	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	httptransport "newsroom/contexts/news-engagement/poll-engine/transport/http"
)

type Handler struct {
	Polls      commands.PollUseCase
	Votes      commands.VoteUseCase
	PollQuery  queries.PollQueryUseCase
	Statistics queries.StatisticsUseCase
	Logger     *slog.Logger
}

// CreatePollHandler godoc
// @Summary Create a poll
// @Description Creates a draft poll with its options. Administrative action.
// @Tags poll-engine
// @Accept json
// @Produce json
// @Param X-Admin-Id header string true "Administrator id"
// @Param request body httptransport.CreatePollRequest true "Poll definition"
// @Success 200 {object} httptransport.CreatePollResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Router /polls [post]
func (h Handler) CreatePollHandler(
	ctx context.Context,
	adminID string,
	req httptransport.CreatePollRequest,
) (httptransport.CreatePollResponse, error) {
	options := make([]commands.CreatePollOptionInput, 0, len(req.Options))
	for _, option := range req.Options {
		options = append(options, commands.CreatePollOptionInput{
			Title:    option.Title,
			ImageURL: option.ImageURL,
		})
	}
	poll, err := h.Polls.CreatePoll(ctx, commands.CreatePollCommand{
		AdminID:    adminID,
		Title:      req.Title,
		MinChoices: req.MinChoices,
		MaxChoices: req.MaxChoices,
		StartAt:    req.StartAt,
		EndAt:      req.EndAt,
		Options:    options,
	})
	if err != nil {
		return httptransport.CreatePollResponse{}, err
	}
	return httptransport.CreatePollResponse{PollID: poll.PollID}, nil
}

// GetPollHandler godoc
// @Summary Get a poll
// @Description Returns one poll with its options.
// @Tags poll-engine
// @Produce json
// @Param poll_id path string true "Poll id"
// @Success 200 {object} httptransport.PollResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /polls/{poll_id} [get]
func (h Handler) GetPollHandler(ctx context.Context, pollID string) (httptransport.PollResponse, error) {
	poll, err := h.PollQuery.GetPoll(ctx, pollID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

// SchedulePollHandler godoc
// @Summary Schedule a poll
// @Description Moves a draft poll into the scheduled state. Administrative action.
// @Tags poll-engine
// @Produce json
// @Param X-Admin-Id header string true "Administrator id"
// @Param poll_id path string true "Poll id"
// @Success 200 {object} httptransport.PollResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /polls/{poll_id}/schedule [post]
func (h Handler) SchedulePollHandler(
	ctx context.Context,
	pollID string,
	adminID string,
) (httptransport.PollResponse, error) {
	poll, err := h.Polls.SchedulePoll(ctx, pollID, adminID)
	if err != nil {
		return httptransport.PollResponse{}, err
	}
	return mapPoll(poll), nil
}

// CastBallotHandler godoc
// @Summary Cast a ballot
// @Description Admits one ballot against the currently published poll.
// @Tags poll-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Voter id"
// @Param poll_id path string true "Poll id"
// @Param request body httptransport.CastBallotRequest true "Selected option ids"
// @Success 200 {object} httptransport.CastBallotResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /polls/{poll_id}/vote [post]
func (h Handler) CastBallotHandler(
	ctx context.Context,
	userID string,
	pollID string,
	req httptransport.CastBallotRequest,
) (httptransport.CastBallotResponse, error) {
	result, err := h.Votes.CastBallot(ctx, commands.CastBallotCommand{
		UserID:            userID,
		PollID:            pollID,
		SelectedOptionIDs: req.OptionIDs,
	})
	if err != nil {
		return httptransport.CastBallotResponse{}, err
	}
	return httptransport.CastBallotResponse{
		PollID:  result.PollID,
		VoteIDs: result.VoteIDs,
		VotedAt: result.VotedAt,
	}, nil
}

// PollStatisticsHandler godoc
// @Summary Get poll statistics
// @Description Returns per-option vote counts and the ballot-row total.
// @Tags poll-engine
// @Produce json
// @Param poll_id path string true "Poll id"
// @Success 200 {object} httptransport.PollStatisticsResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /polls/{poll_id}/stats [get]
func (h Handler) PollStatisticsHandler(
	ctx context.Context,
	pollID string,
) (httptransport.PollStatisticsResponse, error) {
	result, err := h.Statistics.GetPollStatistics(ctx, pollID)
	if err != nil {
		return httptransport.PollStatisticsResponse{}, err
	}
	items := make([]httptransport.OptionCountResponse, 0, len(result.Items))
	for _, item := range result.Items {
		items = append(items, httptransport.OptionCountResponse{
			OptionID:    item.OptionID,
			OptionTitle: item.OptionTitle,
			Count:       item.Count,
		})
	}
	return httptransport.PollStatisticsResponse{
		PollID:     result.PollID,
		PollTitle:  result.PollTitle,
		TotalVotes: result.TotalVotes,
		Items:      items,
	}, nil
}

func mapPoll(poll entities.Poll) httptransport.PollResponse {
	options := make([]httptransport.PollOptionResponse, 0, len(poll.Options))
	for _, option := range poll.Options {
		options = append(options, httptransport.PollOptionResponse{
			OptionID:  option.OptionID,
			Title:     option.Title,
			ImageURL:  option.ImageURL,
			SortOrder: option.SortOrder,
		})
	}
	return httptransport.PollResponse{
		PollID:     poll.PollID,
		Title:      poll.Title,
		MinChoices: poll.MinChoices,
		MaxChoices: poll.MaxChoices,
		StartAt:    poll.StartAt,
		EndAt:      poll.EndAt,
		State:      string(poll.State),
		Options:    options,
	}
}
