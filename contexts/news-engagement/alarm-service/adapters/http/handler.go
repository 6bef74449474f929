package httpadapter

import (
	"context"
	"log/slog"

	"newsroom/contexts/news-engagement/alarm-service/application/commands"
	"newsroom/contexts/news-engagement/alarm-service/application/queries"
	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	httptransport "newsroom/contexts/news-engagement/alarm-service/transport/http"
)

type Handler struct {
	Feed      queries.FeedUseCase
	ReadState commands.ReadStateUseCase
	Logger    *slog.Logger
}

// AlarmFeedHandler godoc
// @Summary List the caller's alarms
// @Description Returns the caller's alarm feed, most recent first: the full list plus the bookmarked-news list, each capped to one page.
// @Tags alarm-service
// @Produce json
// @Param X-User-Id header string true "Caller id"
// @Success 200 {object} httptransport.AlarmFeedResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /users/me/alarms [get]
func (h Handler) AlarmFeedHandler(
	ctx context.Context,
	userID string,
) (httptransport.AlarmFeedResponse, error) {
	feed, err := h.Feed.ListForUser(ctx, userID)
	if err != nil {
		return httptransport.AlarmFeedResponse{}, err
	}
	return httptransport.AlarmFeedResponse{
		Alarms:           mapFeedItems(feed.All),
		BookmarkedAlarms: mapFeedItems(feed.Bookmarked),
	}, nil
}

func mapFeedItems(items []entities.AlarmFeedItem) []httptransport.AlarmFeedItemResponse {
	out := make([]httptransport.AlarmFeedItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, httptransport.AlarmFeedItemResponse{
			UserAlarmID: item.UserAlarmID,
			AlarmID:     item.AlarmID,
			Title:       item.Title,
			Content:     item.Content,
			TargetType:  string(item.TargetType),
			TargetID:    item.TargetID,
			Checked:     item.Checked,
			CheckedAt:   item.CheckedAt,
			CreatedAt:   item.CreatedAt,
		})
	}
	return out
}

// MarkAlarmCheckedHandler godoc
// @Summary Mark an alarm as read
// @Description Marks one of the caller's alarms as checked. Repeat calls are no-ops.
// @Tags alarm-service
// @Produce json
// @Param X-User-Id header string true "Caller id"
// @Param user_alarm_id path string true "User alarm id"
// @Success 200 {object} httptransport.MarkCheckedResponse
// @Failure 403 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /users/me/alarms/{user_alarm_id} [patch]
func (h Handler) MarkAlarmCheckedHandler(
	ctx context.Context,
	userID string,
	userAlarmID string,
) (httptransport.MarkCheckedResponse, error) {
	err := h.ReadState.MarkChecked(ctx, commands.MarkAlarmCheckedCommand{
		UserID:      userID,
		UserAlarmID: userAlarmID,
	})
	if err != nil {
		return httptransport.MarkCheckedResponse{}, err
	}
	return httptransport.MarkCheckedResponse{
		UserAlarmID: userAlarmID,
		Checked:     true,
	}, nil
}
