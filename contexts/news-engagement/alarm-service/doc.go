// Package alarmservice implements notification delivery inside the
// news-engagement context.
//
// The module consumes poll.published events, fans each one out into one
// shared Alarm row plus one UserAlarm row per valid recipient, serves the
// per-user alarm feed with read-state updates, and purges old alarms on a
// retention schedule.
package alarmservice
