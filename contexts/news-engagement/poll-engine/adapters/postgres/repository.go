package postgresadapter

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"newsroom/contexts/news-engagement/poll-engine/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/poll-engine/domain/errors"
	"newsroom/contexts/news-engagement/poll-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
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

func (r *Repository) CreatePoll(ctx context.Context, poll entities.Poll) error {
	row := pollModelFromEntity(poll)
	options := make([]pollOptionModel, 0, len(poll.Options))
	for _, option := range poll.Options {
		options = append(options, optionModelFromEntity(option))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		if len(options) == 0 {
			return nil
		}
		return tx.Create(&options).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("poll_repo_create_poll_failed", err,
			"poll_id", strings.TrimSpace(poll.PollID),
		)
	}
	return nil
}

func (r *Repository) GetPoll(ctx context.Context, pollID string) (entities.Poll, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(pollID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, domainerrors.ErrPollNotFound
		}
		return entities.Poll{}, r.logError("poll_repo_get_poll_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	polls, err := r.attachOptions(ctx, []pollModel{row})
	if err != nil {
		return entities.Poll{}, err
	}
	return polls[0], nil
}

func (r *Repository) GetLatestPollByState(
	ctx context.Context,
	state entities.PollState,
) (entities.Poll, bool, error) {
	var row pollModel
	err := r.db.WithContext(ctx).
		Where("state = ?", string(state)).
		Order("created_at DESC").
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Poll{}, false, nil
		}
		return entities.Poll{}, false, r.logError("poll_repo_get_latest_by_state_failed", err,
			"state", string(state),
		)
	}
	polls, err := r.attachOptions(ctx, []pollModel{row})
	if err != nil {
		return entities.Poll{}, false, err
	}
	return polls[0], true, nil
}

func (r *Repository) ListPollsByState(
	ctx context.Context,
	state entities.PollState,
) ([]entities.Poll, error) {
	var rows []pollModel
	if err := r.db.WithContext(ctx).
		Where("state = ?", string(state)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_by_state_failed", err,
			"state", string(state),
		)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return r.attachOptions(ctx, rows)
}

func (r *Repository) MarkScheduled(ctx context.Context, pollID string, updatedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&pollModel{}).
		Where("id = ?", strings.TrimSpace(pollID)).
		Where("state = ?", string(entities.PollStateDraft)).
		Updates(map[string]any{
			"state":      string(entities.PollStateScheduled),
			"updated_at": updatedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("poll_repo_mark_scheduled_failed", result.Error,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrInvalidStateChange
	}
	return nil
}

func (r *Repository) RetireExpiredPublished(
	ctx context.Context,
	now time.Time,
) ([]entities.Poll, error) {
	var rows []pollModel
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("state = ?", string(entities.PollStatePublished)).
			Where("end_at < ?", now.UTC()).
			Order("created_at ASC").
			Find(&rows).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		ids := make([]string, 0, len(rows))
		for _, row := range rows {
			ids = append(ids, row.ID)
		}
		return tx.
			Model(&pollModel{}).
			Where("id IN ?", ids).
			Updates(map[string]any{
				"state":      string(entities.PollStateDeleted),
				"updated_at": now.UTC(),
			}).Error
	})
	if err != nil {
		return nil, r.logError("poll_repo_retire_expired_failed", err)
	}

	items := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		row.State = string(entities.PollStateDeleted)
		row.UpdatedAt = now.UTC()
		items = append(items, row.toEntity(nil))
	}
	return items, nil
}

// PromoteScheduled flips one scheduled poll to published behind a conditional
// update, so promotion stays correct when multiple worker replicas tick.
func (r *Repository) PromoteScheduled(
	ctx context.Context,
	pollID string,
	updatedAt time.Time,
) (entities.Poll, error) {
	pollID = strings.TrimSpace(pollID)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Model(&pollModel{}).
			Where("id = ?", pollID).
			Where("state = ?", string(entities.PollStateScheduled)).
			Where("NOT EXISTS (?)", tx.Session(&gorm.Session{NewDB: true}).
				Model(&pollModel{}).
				Select("1").
				Where("state = ?", string(entities.PollStatePublished))).
			Updates(map[string]any{
				"state":      string(entities.PollStatePublished),
				"updated_at": updatedAt.UTC(),
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected > 0 {
			return nil
		}

		var publishedCount int64
		if err := tx.Model(&pollModel{}).
			Where("state = ?", string(entities.PollStatePublished)).
			Count(&publishedCount).Error; err != nil {
			return err
		}
		if publishedCount > 0 {
			return domainerrors.ErrPublishedPollExists
		}
		return domainerrors.ErrInvalidStateChange
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrPublishedPollExists) ||
			errors.Is(err, domainerrors.ErrInvalidStateChange) {
			return entities.Poll{}, err
		}
		return entities.Poll{}, r.logError("poll_repo_promote_scheduled_failed", err,
			"poll_id", pollID,
		)
	}
	return r.GetPoll(ctx, pollID)
}

// CreateBallot inserts every row of one ballot inside a transaction that
// first locks the poll row and re-checks the one-ballot-per-user rule, so two
// concurrent ballots from the same user cannot both commit. The unique index
// on (poll_id, user_id, option_id) backstops the lock.
func (r *Repository) CreateBallot(ctx context.Context, votes []entities.Vote) error {
	if len(votes) == 0 {
		return domainerrors.ErrInvalidPollInput
	}
	pollID := strings.TrimSpace(votes[0].PollID)
	userID := strings.TrimSpace(votes[0].UserID)

	rows := make([]voteModel, 0, len(votes))
	for _, vote := range votes {
		rows = append(rows, voteModelFromEntity(vote))
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked pollModel
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", pollID).
			First(&locked).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrPollNotFound
			}
			return err
		}

		var existing int64
		if err := tx.Model(&voteModel{}).
			Where("poll_id = ?", pollID).
			Where("user_id = ?", userID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return domainerrors.ErrAlreadyVoted
		}
		return tx.Create(&rows).Error
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrAlreadyVoted) ||
			errors.Is(err, domainerrors.ErrPollNotFound) {
			return err
		}
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		return r.logError("poll_repo_create_ballot_failed", err,
			"poll_id", pollID,
			"user_id", userID,
			"vote_count", len(votes),
		)
	}
	return nil
}

func (r *Repository) HasUserVoted(ctx context.Context, pollID string, userID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("user_id = ?", strings.TrimSpace(userID)).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("poll_repo_has_user_voted_failed", err,
			"poll_id", strings.TrimSpace(pollID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return count > 0, nil
}

func (r *Repository) CountVotesByOption(ctx context.Context, pollID string, optionID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&voteModel{}).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Where("option_id = ?", strings.TrimSpace(optionID)).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("poll_repo_count_votes_failed", err,
			"poll_id", strings.TrimSpace(pollID),
			"option_id", strings.TrimSpace(optionID),
		)
	}
	return int(count), nil
}

func (r *Repository) ListVotesByPoll(ctx context.Context, pollID string) ([]entities.Vote, error) {
	var rows []voteModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_votes_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpsertStatistics(ctx context.Context, stats entities.VoteStatistics) error {
	row := statisticsModelFromEntity(stats)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "poll_id"}, {Name: "option_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"count":      row.Count,
			"updated_at": row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return r.logError("poll_repo_upsert_statistics_failed", create.Error,
			"poll_id", strings.TrimSpace(stats.PollID),
			"option_id", strings.TrimSpace(stats.OptionID),
		)
	}
	return nil
}

func (r *Repository) ListStatisticsByPoll(ctx context.Context, pollID string) ([]entities.VoteStatistics, error) {
	var rows []voteStatisticsModel
	if err := r.db.WithContext(ctx).
		Where("poll_id = ?", strings.TrimSpace(pollID)).
		Order("option_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_statistics_failed", err,
			"poll_id", strings.TrimSpace(pollID),
		)
	}
	items := make([]entities.VoteStatistics, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).
		Model(&userModel{}).
		Order("created_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, r.logError("poll_repo_list_user_ids_failed", err)
	}
	return ids, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := marshalEnvelope(envelope)
	if err != nil {
		return r.logError("poll_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		return r.logError("poll_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("poll_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("poll_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) attachOptions(ctx context.Context, rows []pollModel) ([]entities.Poll, error) {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	var optionRows []pollOptionModel
	if err := r.db.WithContext(ctx).
		Where("poll_id IN ?", ids).
		Order("sort_order ASC").
		Find(&optionRows).Error; err != nil {
		return nil, r.logError("poll_repo_load_options_failed", err)
	}
	byPoll := make(map[string][]pollOptionModel, len(rows))
	for _, option := range optionRows {
		byPoll[option.PollID] = append(byPoll[option.PollID], option)
	}

	items := make([]entities.Poll, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity(byPoll[row.ID]))
	}
	return items, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "news-engagement/poll-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("poll repository operation failed", fields...)
	return err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.PollRepository = (*Repository)(nil)
var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.StatsRepository = (*Repository)(nil)
var _ ports.UserDirectory = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
