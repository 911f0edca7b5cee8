package voice

import "errors"

var (
	ErrEmptyUtterance  = errors.New("empty utterance")
	ErrMissingReps     = errors.New("missing reps")
	ErrInvalidDuration = errors.New("timer duration must be positive")
	ErrDurationTooLong = errors.New("timer duration exceeds 24 hours")
	ErrRPEOutOfRange   = errors.New("rpe must be between 1 and 10")
	ErrUnknownExercise = errors.New("don't recognize exercise")
	ErrNoActiveSession = errors.New("no active session")
	ErrNoTimer         = errors.New("no rest timer")
	ErrEmptyName       = errors.New("exercise name is empty")
)

// ParseError means the utterance could not be turned into a well-formed
// intent. The event is rejected before reaching PARSED.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return "Parse error: " + e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// ApplyError means a well-formed intent could not be executed. State is
// left unchanged and the event is rejected after PARSED.
type ApplyError struct {
	Err error
}

func (e *ApplyError) Error() string { return "Apply error: " + e.Err.Error() }
func (e *ApplyError) Unwrap() error { return e.Err }
