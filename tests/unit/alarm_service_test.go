package unit

import (
	"context"
	"errors"
	"testing"
	"time"

	alarmservice "newsroom/contexts/news-engagement/alarm-service"
	"newsroom/contexts/news-engagement/alarm-service/application/queries"
	alarmworkers "newsroom/contexts/news-engagement/alarm-service/application/workers"
	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/alarm-service/domain/errors"
)

func seedDeliveredAlarm(
	t *testing.T,
	module alarmservice.Module,
	alarmID string,
	userAlarmID string,
	userID string,
	targetType entities.TargetType,
	targetID string,
	createdAt time.Time,
) {
	t.Helper()
	err := module.Store.CreateAlarm(context.Background(), entities.Alarm{
		AlarmID:    alarmID,
		Title:      "New poll",
		Content:    "A new poll is open for voting: test",
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  createdAt,
	})
	if err != nil {
		t.Fatalf("seed alarm failed: %v", err)
	}
	err = module.Store.CreateUserAlarm(context.Background(), entities.UserAlarm{
		UserAlarmID: userAlarmID,
		UserID:      userID,
		AlarmID:     alarmID,
		CreatedAt:   createdAt,
	})
	if err != nil {
		t.Fatalf("seed user alarm failed: %v", err)
	}
}

func TestAlarmFeedOrdering(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	now := time.Now().UTC()

	seedDeliveredAlarm(t, module, "alarm-1", "ua-1", "user-1", entities.TargetTypePolls, "poll-1", now.Add(-3*time.Hour))
	seedDeliveredAlarm(t, module, "alarm-2", "ua-2", "user-1", entities.TargetTypePolls, "poll-2", now.Add(-2*time.Hour))
	seedDeliveredAlarm(t, module, "alarm-3", "ua-3", "user-1", entities.TargetTypePolls, "poll-3", now.Add(-time.Hour))
	seedDeliveredAlarm(t, module, "alarm-4", "ua-4", "user-2", entities.TargetTypePolls, "poll-3", now.Add(-time.Hour))

	feed, err := module.Handler.AlarmFeedHandler(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(feed.Alarms) != 3 {
		t.Fatalf("expected 3 feed items for user-1, got %d", len(feed.Alarms))
	}
	for index, expected := range []string{"ua-3", "ua-2", "ua-1"} {
		if feed.Alarms[index].UserAlarmID != expected {
			t.Fatalf("expected %s at position %d, got %s", expected, index, feed.Alarms[index].UserAlarmID)
		}
	}
}

func TestAlarmFeedOrderingStableWithinBatch(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	// One fan-out stamps every recipient row with the same created_at; the
	// user alarm id breaks the tie.
	batchAt := time.Now().UTC().Add(-time.Hour)

	seedDeliveredAlarm(t, module, "alarm-1", "ua-a", "user-1", entities.TargetTypePolls, "poll-1", batchAt)
	if err := module.Store.CreateUserAlarm(context.Background(), entities.UserAlarm{
		UserAlarmID: "ua-b",
		UserID:      "user-1",
		AlarmID:     "alarm-1",
		CreatedAt:   batchAt,
	}); err != nil {
		t.Fatalf("seed second row failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		feed, err := module.Handler.AlarmFeedHandler(context.Background(), "user-1")
		if err != nil {
			t.Fatalf("feed failed: %v", err)
		}
		if len(feed.Alarms) != 2 {
			t.Fatalf("expected 2 feed items, got %d", len(feed.Alarms))
		}
		if feed.Alarms[0].UserAlarmID != "ua-b" || feed.Alarms[1].UserAlarmID != "ua-a" {
			t.Fatalf("expected id-descending tiebreak, got %s then %s",
				feed.Alarms[0].UserAlarmID, feed.Alarms[1].UserAlarmID)
		}
	}
}

func TestAlarmFeedReturnsBothLists(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	now := time.Now().UTC()

	module.Store.SetBookmark("user-1", "news-7")
	seedDeliveredAlarm(t, module, "alarm-1", "ua-1", "user-1", entities.TargetTypeNews, "news-7", now.Add(-3*time.Hour))
	seedDeliveredAlarm(t, module, "alarm-2", "ua-2", "user-1", entities.TargetTypeNews, "news-8", now.Add(-2*time.Hour))
	seedDeliveredAlarm(t, module, "alarm-3", "ua-3", "user-1", entities.TargetTypePolls, "poll-1", now.Add(-time.Hour))

	feed, err := module.Handler.AlarmFeedHandler(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(feed.Alarms) != 3 {
		t.Fatalf("expected 3 items in the full list, got %d", len(feed.Alarms))
	}
	if len(feed.BookmarkedAlarms) != 1 {
		t.Fatalf("expected 1 bookmarked item, got %d", len(feed.BookmarkedAlarms))
	}
	if feed.BookmarkedAlarms[0].UserAlarmID != "ua-1" {
		t.Fatalf("expected ua-1 in bookmark list, got %s", feed.BookmarkedAlarms[0].UserAlarmID)
	}
}

func TestAlarmFeedBookmarkListCappedIndependently(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	now := time.Now().UTC()

	module.Store.SetBookmark("user-1", "news-7")
	// The bookmarked alarm is older than everything on the full page.
	seedDeliveredAlarm(t, module, "alarm-old", "ua-old", "user-1", entities.TargetTypeNews, "news-7", now.Add(-5*time.Hour))
	seedDeliveredAlarm(t, module, "alarm-1", "ua-1", "user-1", entities.TargetTypePolls, "poll-1", now.Add(-2*time.Hour))
	seedDeliveredAlarm(t, module, "alarm-2", "ua-2", "user-1", entities.TargetTypePolls, "poll-2", now.Add(-time.Hour))

	feedUseCase := queries.FeedUseCase{
		UserAlarms: module.Store,
		Bookmarks:  module.Store,
		PageSize:   2,
	}
	feed, err := feedUseCase.ListForUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("feed failed: %v", err)
	}
	if len(feed.All) != 2 {
		t.Fatalf("expected full list capped at 2, got %d", len(feed.All))
	}
	for _, item := range feed.All {
		if item.UserAlarmID == "ua-old" {
			t.Fatalf("expected ua-old pushed off the full page")
		}
	}
	if len(feed.Bookmarked) != 1 || feed.Bookmarked[0].UserAlarmID != "ua-old" {
		t.Fatalf("expected ua-old visible in the bookmark list, got %+v", feed.Bookmarked)
	}
}

func TestMarkCheckedOwnershipAndIdempotence(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	now := time.Now().UTC()
	seedDeliveredAlarm(t, module, "alarm-1", "ua-1", "user-1", entities.TargetTypePolls, "poll-1", now.Add(-time.Hour))

	if _, err := module.Handler.MarkAlarmCheckedHandler(context.Background(), "user-2", "ua-1"); !errors.Is(err, domainerrors.ErrNotAlarmOwner) {
		t.Fatalf("expected ownership rejection, got %v", err)
	}
	if _, err := module.Handler.MarkAlarmCheckedHandler(context.Background(), "user-1", "ua-missing"); !errors.Is(err, domainerrors.ErrUserAlarmNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	if _, err := module.Handler.MarkAlarmCheckedHandler(context.Background(), "user-1", "ua-1"); err != nil {
		t.Fatalf("mark checked failed: %v", err)
	}
	first, err := module.Store.GetUserAlarm(context.Background(), "ua-1")
	if err != nil {
		t.Fatalf("get user alarm failed: %v", err)
	}
	if !first.Checked || first.CheckedAt == nil {
		t.Fatalf("expected checked state with timestamp")
	}

	// Repeat call is a no-op and keeps the first timestamp.
	if _, err := module.Handler.MarkAlarmCheckedHandler(context.Background(), "user-1", "ua-1"); err != nil {
		t.Fatalf("repeat mark checked failed: %v", err)
	}
	second, err := module.Store.GetUserAlarm(context.Background(), "ua-1")
	if err != nil {
		t.Fatalf("get user alarm failed: %v", err)
	}
	if !second.CheckedAt.Equal(*first.CheckedAt) {
		t.Fatalf("expected checked_at unchanged, got %v then %v", first.CheckedAt, second.CheckedAt)
	}
}

func TestRetentionJobCascades(t *testing.T) {
	module := alarmservice.NewInMemoryModule(nil, nil)
	now := time.Now().UTC()

	seedDeliveredAlarm(t, module, "alarm-old", "ua-old-1", "user-1", entities.TargetTypePolls, "poll-1", now.Add(-30*24*time.Hour))
	seedDeliveredAlarm(t, module, "alarm-new", "ua-new-1", "user-1", entities.TargetTypePolls, "poll-2", now.Add(-time.Hour))
	if err := module.Store.CreateUserAlarm(context.Background(), entities.UserAlarm{
		UserAlarmID: "ua-old-2",
		UserID:      "user-2",
		AlarmID:     "alarm-old",
		CreatedAt:   now.Add(-30 * 24 * time.Hour),
	}); err != nil {
		t.Fatalf("seed second recipient failed: %v", err)
	}

	job := alarmworkers.RetentionJob{
		Alarms: module.Store,
		Window: 14 * 24 * time.Hour,
	}
	if err := job.RunOnce(context.Background()); err != nil {
		t.Fatalf("retention run failed: %v", err)
	}

	if _, err := module.Store.GetAlarm(context.Background(), "alarm-old"); !errors.Is(err, domainerrors.ErrAlarmNotFound) {
		t.Fatalf("expected old alarm deleted, got %v", err)
	}
	if _, err := module.Store.GetUserAlarm(context.Background(), "ua-old-1"); !errors.Is(err, domainerrors.ErrUserAlarmNotFound) {
		t.Fatalf("expected cascaded user alarm deletion, got %v", err)
	}
	if _, err := module.Store.GetUserAlarm(context.Background(), "ua-old-2"); !errors.Is(err, domainerrors.ErrUserAlarmNotFound) {
		t.Fatalf("expected second recipient row deleted, got %v", err)
	}
	if _, err := module.Store.GetAlarm(context.Background(), "alarm-new"); err != nil {
		t.Fatalf("expected recent alarm kept, got %v", err)
	}
	if _, err := module.Store.GetUserAlarm(context.Background(), "ua-new-1"); err != nil {
		t.Fatalf("expected recent user alarm kept, got %v", err)
	}
}
