package queries

import (
	"context"
	"log/slog"
	"strings"

	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/alarm-service/domain/errors"
	"newsroom/contexts/news-engagement/alarm-service/ports"
)

// AlarmFeed is one user's feed page: the full list plus the bookmark-scoped
// list, each capped to the page size on its own.
type AlarmFeed struct {
	All        []entities.AlarmFeedItem
	Bookmarked []entities.AlarmFeedItem
}

// FeedUseCase serves the per-user alarm feed, most recent first.
type FeedUseCase struct {
	UserAlarms ports.UserAlarmRepository
	Bookmarks  ports.BookmarkDirectory
	PageSize   int
	Logger     *slog.Logger
}

// ListForUser returns both feed lists. The bookmark list is fetched with its
// own cap, so bookmarked-news alarms stay visible even when newer alarms have
// pushed them off the full list.
func (uc FeedUseCase) ListForUser(ctx context.Context, userID string) (AlarmFeed, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return AlarmFeed{}, domainerrors.ErrInvalidAlarmInput
	}

	limit := uc.PageSize
	if limit <= 0 {
		limit = 20
	}

	all, err := uc.UserAlarms.ListFeedByUser(ctx, userID, limit)
	if err != nil {
		return AlarmFeed{}, err
	}

	bookmarkedNews, err := uc.Bookmarks.ListBookmarkedNews(ctx, userID)
	if err != nil {
		return AlarmFeed{}, err
	}
	feed := AlarmFeed{All: all}
	if len(bookmarkedNews) == 0 {
		return feed, nil
	}

	bookmarked, err := uc.UserAlarms.ListNewsFeedByUser(ctx, userID, bookmarkedNews, limit)
	if err != nil {
		return AlarmFeed{}, err
	}
	feed.Bookmarked = bookmarked
	return feed, nil
}
