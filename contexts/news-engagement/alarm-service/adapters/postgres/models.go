package postgresadapter

import (
	"time"

	"newsroom/contexts/news-engagement/alarm-service/domain/entities"
)

type alarmModel struct {
	ID         string    `gorm:"column:id;primaryKey"`
	Title      string    `gorm:"column:title"`
	Content    string    `gorm:"column:content"`
	TargetType string    `gorm:"column:target_type"`
	TargetID   string    `gorm:"column:target_id"`
	CreatedAt  time.Time `gorm:"column:created_at"`
}

func (alarmModel) TableName() string { return "alarms" }

func alarmModelFromEntity(alarm entities.Alarm) alarmModel {
	return alarmModel{
		ID:         alarm.AlarmID,
		Title:      alarm.Title,
		Content:    alarm.Content,
		TargetType: string(alarm.TargetType),
		TargetID:   alarm.TargetID,
		CreatedAt:  alarm.CreatedAt.UTC(),
	}
}

func (m alarmModel) toEntity() entities.Alarm {
	return entities.Alarm{
		AlarmID:    m.ID,
		Title:      m.Title,
		Content:    m.Content,
		TargetType: entities.TargetType(m.TargetType),
		TargetID:   m.TargetID,
		CreatedAt:  m.CreatedAt.UTC(),
	}
}

// user_alarms carries FK alarm_id -> alarms(id) and user_id -> users(id),
// both ON DELETE CASCADE.
type userAlarmModel struct {
	ID        string     `gorm:"column:id;primaryKey"`
	UserID    string     `gorm:"column:user_id"`
	AlarmID   string     `gorm:"column:alarm_id"`
	Checked   bool       `gorm:"column:checked"`
	CheckedAt *time.Time `gorm:"column:checked_at"`
	CreatedAt time.Time  `gorm:"column:created_at"`
}

func (userAlarmModel) TableName() string { return "user_alarms" }

func userAlarmModelFromEntity(userAlarm entities.UserAlarm) userAlarmModel {
	return userAlarmModel{
		ID:        userAlarm.UserAlarmID,
		UserID:    userAlarm.UserID,
		AlarmID:   userAlarm.AlarmID,
		Checked:   userAlarm.Checked,
		CheckedAt: userAlarm.CheckedAt,
		CreatedAt: userAlarm.CreatedAt.UTC(),
	}
}

func (m userAlarmModel) toEntity() entities.UserAlarm {
	return entities.UserAlarm{
		UserAlarmID: m.ID,
		UserID:      m.UserID,
		AlarmID:     m.AlarmID,
		Checked:     m.Checked,
		CheckedAt:   m.CheckedAt,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

// alarmFeedRow is the join projection backing the feed query.
type alarmFeedRow struct {
	UserAlarmID string     `gorm:"column:user_alarm_id"`
	AlarmID     string     `gorm:"column:alarm_id"`
	Title       string     `gorm:"column:title"`
	Content     string     `gorm:"column:content"`
	TargetType  string     `gorm:"column:target_type"`
	TargetID    string     `gorm:"column:target_id"`
	Checked     bool       `gorm:"column:checked"`
	CheckedAt   *time.Time `gorm:"column:checked_at"`
	CreatedAt   time.Time  `gorm:"column:created_at"`
}

func (m alarmFeedRow) toEntity() entities.AlarmFeedItem {
	return entities.AlarmFeedItem{
		UserAlarmID: m.UserAlarmID,
		AlarmID:     m.AlarmID,
		Title:       m.Title,
		Content:     m.Content,
		TargetType:  entities.TargetType(m.TargetType),
		TargetID:    m.TargetID,
		Checked:     m.Checked,
		CheckedAt:   m.CheckedAt,
		CreatedAt:   m.CreatedAt.UTC(),
	}
}

type processedEventModel struct {
	EventID     string    `gorm:"column:event_id;primaryKey"`
	PayloadHash string    `gorm:"column:payload_hash"`
	ExpiresAt   time.Time `gorm:"column:expires_at"`
	CreatedAt   time.Time `gorm:"column:created_at"`
}

func (processedEventModel) TableName() string { return "alarm_processed_events" }

// userModel is a read-only projection of the identity-owned users table.
type userModel struct {
	ID string `gorm:"column:id;primaryKey"`
}

func (userModel) TableName() string { return "users" }

// newsBookmarkModel is a read-only projection of the news bookmark table.
type newsBookmarkModel struct {
	UserID    string    `gorm:"column:user_id"`
	NewsID    string    `gorm:"column:news_id"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (newsBookmarkModel) TableName() string { return "news_bookmarks" }
