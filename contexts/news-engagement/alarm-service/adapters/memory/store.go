package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
	domainerrors "newsroom/contexts/news-engagement/alarm-service/domain/errors"
	"newsroom/contexts/news-engagement/alarm-service/ports"

	"github.com/google/uuid"
)

type processedEvent struct {
	payloadHash string
	expiresAt   time.Time
}

// Store is the in-memory adapter backing unit tests and local wiring. It
// mirrors the postgres adapter's semantics, including atomic event
// reservation in ReserveEvent.
type Store struct {
	mu sync.RWMutex

	alarms     map[string]entities.Alarm
	userAlarms map[string]entities.UserAlarm
	users      map[string]time.Time
	bookmarks  map[string][]string
	processed  map[string]processedEvent
}

func NewStore() *Store {
	return &Store{
		alarms:     make(map[string]entities.Alarm),
		userAlarms: make(map[string]entities.UserAlarm),
		users:      make(map[string]time.Time),
		bookmarks:  make(map[string][]string),
		processed:  make(map[string]processedEvent),
	}
}

func (s *Store) SetUser(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.TrimSpace(userID)] = time.Now().UTC()
}

func (s *Store) SetBookmark(userID string, newsID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(userID)
	s.bookmarks[key] = append(s.bookmarks[key], strings.TrimSpace(newsID))
}

func (s *Store) CreateAlarm(_ context.Context, alarm entities.Alarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alarmID := strings.TrimSpace(alarm.AlarmID)
	if _, exists := s.alarms[alarmID]; exists {
		return domainerrors.ErrConflict
	}
	s.alarms[alarmID] = alarm
	return nil
}

func (s *Store) GetAlarm(_ context.Context, alarmID string) (entities.Alarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alarm, ok := s.alarms[strings.TrimSpace(alarmID)]
	if !ok {
		return entities.Alarm{}, domainerrors.ErrAlarmNotFound
	}
	return alarm, nil
}

func (s *Store) DeleteAlarmsBefore(_ context.Context, cutoff time.Time) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stale := make(map[string]struct{})
	for id, alarm := range s.alarms {
		if alarm.CreatedAt.Before(cutoff.UTC()) {
			stale[id] = struct{}{}
		}
	}
	if len(stale) == 0 {
		return 0, 0, nil
	}
	userAlarmsDeleted := 0
	for id, userAlarm := range s.userAlarms {
		if _, ok := stale[userAlarm.AlarmID]; ok {
			delete(s.userAlarms, id)
			userAlarmsDeleted++
		}
	}
	for id := range stale {
		delete(s.alarms, id)
	}
	return len(stale), userAlarmsDeleted, nil
}

func (s *Store) CreateUserAlarm(_ context.Context, userAlarm entities.UserAlarm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userAlarmID := strings.TrimSpace(userAlarm.UserAlarmID)
	if _, exists := s.userAlarms[userAlarmID]; exists {
		return domainerrors.ErrConflict
	}
	s.userAlarms[userAlarmID] = userAlarm
	return nil
}

func (s *Store) GetUserAlarm(_ context.Context, userAlarmID string) (entities.UserAlarm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userAlarm, ok := s.userAlarms[strings.TrimSpace(userAlarmID)]
	if !ok {
		return entities.UserAlarm{}, domainerrors.ErrUserAlarmNotFound
	}
	return userAlarm, nil
}

func (s *Store) ListFeedByUser(
	_ context.Context,
	userID string,
	limit int,
) ([]entities.AlarmFeedItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedLocked(userID, limit, nil), nil
}

func (s *Store) ListNewsFeedByUser(
	_ context.Context,
	userID string,
	newsIDs []string,
	limit int,
) ([]entities.AlarmFeedItem, error) {
	if len(newsIDs) == 0 {
		return nil, nil
	}
	allowed := make(map[string]struct{}, len(newsIDs))
	for _, newsID := range newsIDs {
		allowed[strings.TrimSpace(newsID)] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.feedLocked(userID, limit, allowed), nil
}

// feedLocked mirrors the postgres feed ordering: created_at descending with
// the user alarm id as tiebreaker, since one fan-out stamps every recipient
// row with the same created_at.
func (s *Store) feedLocked(userID string, limit int, newsFilter map[string]struct{}) []entities.AlarmFeedItem {
	if limit <= 0 {
		limit = 20
	}
	items := make([]entities.AlarmFeedItem, 0)
	for _, userAlarm := range s.userAlarms {
		if userAlarm.UserID != strings.TrimSpace(userID) {
			continue
		}
		alarm, ok := s.alarms[userAlarm.AlarmID]
		if !ok {
			continue
		}
		if newsFilter != nil {
			if alarm.TargetType != entities.TargetTypeNews {
				continue
			}
			if _, ok := newsFilter[alarm.TargetID]; !ok {
				continue
			}
		}
		items = append(items, entities.AlarmFeedItem{
			UserAlarmID: userAlarm.UserAlarmID,
			AlarmID:     alarm.AlarmID,
			Title:       alarm.Title,
			Content:     alarm.Content,
			TargetType:  alarm.TargetType,
			TargetID:    alarm.TargetID,
			Checked:     userAlarm.Checked,
			CheckedAt:   userAlarm.CheckedAt,
			CreatedAt:   userAlarm.CreatedAt,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].UserAlarmID > items[j].UserAlarmID
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items
}

func (s *Store) MarkChecked(_ context.Context, userAlarmID string, checkedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	userAlarm, ok := s.userAlarms[strings.TrimSpace(userAlarmID)]
	if !ok {
		return domainerrors.ErrUserAlarmNotFound
	}
	if userAlarm.Checked {
		return nil
	}
	at := checkedAt.UTC()
	userAlarm.Checked = true
	userAlarm.CheckedAt = &at
	s.userAlarms[userAlarm.UserAlarmID] = userAlarm
	return nil
}

func (s *Store) UserExists(_ context.Context, userID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.users[strings.TrimSpace(userID)]
	return ok, nil
}

func (s *Store) ListBookmarkedNews(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.bookmarks[strings.TrimSpace(userID)]
	return append([]string(nil), ids...), nil
}

func (s *Store) ReserveEvent(
	_ context.Context,
	eventID string,
	payloadHash string,
	expiresAt time.Time,
) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(eventID)
	if _, ok := s.processed[key]; ok {
		return true, nil
	}
	s.processed[key] = processedEvent{
		payloadHash: payloadHash,
		expiresAt:   expiresAt.UTC(),
	}
	return false, nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.AlarmRepository = (*Store)(nil)
var _ ports.UserAlarmRepository = (*Store)(nil)
var _ ports.UserDirectory = (*Store)(nil)
var _ ports.BookmarkDirectory = (*Store)(nil)
var _ ports.EventDedupStore = (*Store)(nil)
