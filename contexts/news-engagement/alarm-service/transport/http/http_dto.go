package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AlarmFeedItemResponse struct {
	UserAlarmID string     `json:"user_alarm_id"`
	AlarmID     string     `json:"alarm_id"`
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	TargetType  string     `json:"target_type"`
	TargetID    string     `json:"target_id,omitempty"`
	Checked     bool       `json:"checked"`
	CheckedAt   *time.Time `json:"checked_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type AlarmFeedResponse struct {
	Alarms           []AlarmFeedItemResponse `json:"alarms"`
	BookmarkedAlarms []AlarmFeedItemResponse `json:"bookmarked_alarms"`
}

type MarkCheckedResponse struct {
	UserAlarmID string `json:"user_alarm_id"`
	Checked     bool   `json:"checked"`
}
