package errors

import "errors"

var (
	ErrInvalidAlarmInput = errors.New("invalid alarm input")
	ErrAlarmNotFound     = errors.New("alarm not found")
	ErrUserAlarmNotFound = errors.New("user alarm not found")
	ErrNotAlarmOwner     = errors.New("user alarm belongs to another user")
	ErrConflict          = errors.New("alarm conflict")
)
