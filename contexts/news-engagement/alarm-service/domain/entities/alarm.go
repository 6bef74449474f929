package entities

import "time"

type TargetType string

const (
	TargetTypeNews  TargetType = "news"
	TargetTypePolls TargetType = "polls"
)

const (
	MaxAlarmTitleLength   = 14
	MaxAlarmContentLength = 255
)

// Alarm is one notification content item shared by every recipient. The
// fan-out-on-write design stores title/content once and one read-state row
// per recipient.
type Alarm struct {
	AlarmID    string
	Title      string
	Content    string
	TargetType TargetType
	TargetID   string
	CreatedAt  time.Time
}

// UserAlarm is the per-recipient read-state row. It is deleted together with
// its alarm or its user.
type UserAlarm struct {
	UserAlarmID string
	UserID      string
	AlarmID     string
	Checked     bool
	CheckedAt   *time.Time
	CreatedAt   time.Time
}

// AlarmFeedItem joins a user alarm with its shared content for the read side.
type AlarmFeedItem struct {
	UserAlarmID string
	AlarmID     string
	Title       string
	Content     string
	TargetType  TargetType
	TargetID    string
	Checked     bool
	CheckedAt   *time.Time
	CreatedAt   time.Time
}

// Truncate clips a string to the given rune length. Alarm columns are hard
// capped, and fan-out must never fail on template overflow.
func Truncate(value string, limit int) string {
	runes := []rune(value)
	if len(runes) <= limit {
		return value
	}
	return string(runes[:limit])
}
