package bus

import "errors"

var (
	ErrEmptyEventType = errors.New("event type is empty")
	ErrNilHandler     = errors.New("event handler is nil")
)
