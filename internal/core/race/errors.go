package race

import "errors"

var (
	ErrNilTrack        = errors.New("race needs a track")
	ErrNilState        = errors.New("race loop needs a state")
	ErrInvalidLapCount = errors.New("laps to win must be positive")
	ErrInvalidCarIDs   = errors.New("car ids must be distinct and non-empty")
	ErrInvalidTickRate = errors.New("tick rate must be positive")
	ErrLoopRunning     = errors.New("race loop is already running")
)
