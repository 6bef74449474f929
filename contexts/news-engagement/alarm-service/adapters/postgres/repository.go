package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/alarm-service/domain/errors"
	"newsroom/contexts/news-engagement/alarm-service/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) CreateAlarm(ctx context.Context, alarm entities.Alarm) error {
	row := alarmModelFromEntity(alarm)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("alarm_repo_create_alarm_failed", err,
			"alarm_id", strings.TrimSpace(alarm.AlarmID),
		)
	}
	return nil
}

func (r *Repository) GetAlarm(ctx context.Context, alarmID string) (entities.Alarm, error) {
	var row alarmModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(alarmID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Alarm{}, domainerrors.ErrAlarmNotFound
		}
		return entities.Alarm{}, r.logError("alarm_repo_get_alarm_failed", err,
			"alarm_id", strings.TrimSpace(alarmID),
		)
	}
	return row.toEntity(), nil
}

// DeleteAlarmsBefore removes stale alarms and their read-state rows in one
// transaction. The user_alarms delete runs first so counts stay accurate even
// where the schema-level cascade would have covered it.
func (r *Repository) DeleteAlarmsBefore(ctx context.Context, cutoff time.Time) (int, int, error) {
	var alarmsDeleted, userAlarmsDeleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&alarmModel{}).
			Where("created_at < ?", cutoff.UTC()).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		userResult := tx.Where("alarm_id IN ?", ids).Delete(&userAlarmModel{})
		if userResult.Error != nil {
			return userResult.Error
		}
		userAlarmsDeleted = userResult.RowsAffected

		alarmResult := tx.Where("id IN ?", ids).Delete(&alarmModel{})
		if alarmResult.Error != nil {
			return alarmResult.Error
		}
		alarmsDeleted = alarmResult.RowsAffected
		return nil
	})
	if err != nil {
		return 0, 0, r.logError("alarm_repo_delete_before_failed", err,
			"cutoff", cutoff.UTC(),
		)
	}
	return int(alarmsDeleted), int(userAlarmsDeleted), nil
}

func (r *Repository) CreateUserAlarm(ctx context.Context, userAlarm entities.UserAlarm) error {
	row := userAlarmModelFromEntity(userAlarm)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("alarm_repo_create_user_alarm_failed", err,
			"user_alarm_id", strings.TrimSpace(userAlarm.UserAlarmID),
			"user_id", strings.TrimSpace(userAlarm.UserID),
		)
	}
	return nil
}

func (r *Repository) GetUserAlarm(ctx context.Context, userAlarmID string) (entities.UserAlarm, error) {
	var row userAlarmModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(userAlarmID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.UserAlarm{}, domainerrors.ErrUserAlarmNotFound
		}
		return entities.UserAlarm{}, r.logError("alarm_repo_get_user_alarm_failed", err,
			"user_alarm_id", strings.TrimSpace(userAlarmID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListFeedByUser(
	ctx context.Context,
	userID string,
	limit int,
) ([]entities.AlarmFeedItem, error) {
	var rows []alarmFeedRow
	err := r.feedQuery(ctx, userID, limit).
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("alarm_repo_list_feed_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return feedRowsToEntities(rows), nil
}

func (r *Repository) ListNewsFeedByUser(
	ctx context.Context,
	userID string,
	newsIDs []string,
	limit int,
) ([]entities.AlarmFeedItem, error) {
	if len(newsIDs) == 0 {
		return nil, nil
	}
	var rows []alarmFeedRow
	err := r.feedQuery(ctx, userID, limit).
		Where("alarms.target_type = ?", string(entities.TargetTypeNews)).
		Where("alarms.target_id IN ?", newsIDs).
		Scan(&rows).
		Error
	if err != nil {
		return nil, r.logError("alarm_repo_list_news_feed_failed", err,
			"user_id", strings.TrimSpace(userID),
			"news_count", len(newsIDs),
		)
	}
	return feedRowsToEntities(rows), nil
}

// feedQuery is the shared feed join. Fan-out gives every recipient row of one
// event the same created_at, so the id tiebreaker keeps the order stable.
func (r *Repository) feedQuery(ctx context.Context, userID string, limit int) *gorm.DB {
	if limit <= 0 {
		limit = 20
	}
	return r.db.WithContext(ctx).
		Table("user_alarms").
		Select(
			"user_alarms.id AS user_alarm_id",
			"alarms.id AS alarm_id",
			"alarms.title AS title",
			"alarms.content AS content",
			"alarms.target_type AS target_type",
			"alarms.target_id AS target_id",
			"user_alarms.checked AS checked",
			"user_alarms.checked_at AS checked_at",
			"user_alarms.created_at AS created_at",
		).
		Joins("JOIN alarms ON alarms.id = user_alarms.alarm_id").
		Where("user_alarms.user_id = ?", strings.TrimSpace(userID)).
		Order("user_alarms.created_at DESC").
		Order("user_alarms.id DESC").
		Limit(limit)
}

func feedRowsToEntities(rows []alarmFeedRow) []entities.AlarmFeedItem {
	items := make([]entities.AlarmFeedItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items
}

func (r *Repository) MarkChecked(ctx context.Context, userAlarmID string, checkedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&userAlarmModel{}).
		Where("id = ?", strings.TrimSpace(userAlarmID)).
		Where("checked = ?", false).
		Updates(map[string]any{
			"checked":    true,
			"checked_at": checkedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("alarm_repo_mark_checked_failed", result.Error,
			"user_alarm_id", strings.TrimSpace(userAlarmID),
		)
	}
	// RowsAffected == 0 means a concurrent call already checked it; that is
	// the same observable outcome, so it is not an error.
	return nil
}

func (r *Repository) UserExists(ctx context.Context, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Where("id = ?", strings.TrimSpace(userID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("alarm_repo_user_exists_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return count > 0, nil
}

func (r *Repository) ListBookmarkedNews(ctx context.Context, userID string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&newsBookmarkModel{}).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Order("created_at DESC").
		Pluck("news_id", &ids).Error; err != nil {
		return nil, r.logError("alarm_repo_list_bookmarks_failed", err,
			"user_id", strings.TrimSpace(userID),
		)
	}
	return ids, nil
}

// ReserveEvent claims an event id for processing. A conflicting insert means
// another consumer already handled it, reported as alreadyProcessed.
func (r *Repository) ReserveEvent(
	ctx context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	row := processedEventModel{
		EventID:     strings.TrimSpace(eventID),
		PayloadHash: payloadHash,
		ExpiresAt:   expiresAt.UTC(),
		CreatedAt:   time.Now().UTC(),
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return false, r.logError("alarm_repo_reserve_event_failed", create.Error,
			"event_id", row.EventID,
		)
	}
	return create.RowsAffected == 0, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "news-engagement/alarm-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("alarm repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.AlarmRepository = (*Repository)(nil)
var _ ports.UserAlarmRepository = (*Repository)(nil)
var _ ports.UserDirectory = (*Repository)(nil)
var _ ports.BookmarkDirectory = (*Repository)(nil)
var _ ports.EventDedupStore = (*Repository)(nil)
