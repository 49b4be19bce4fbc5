package screen

import "errors"

var (
	ErrInvalidTransition = errors.New("action not allowed on current screen")
	ErrUnknownCategory   = errors.New("category not found")
	ErrSessionNotFound   = errors.New("session not found")
)
