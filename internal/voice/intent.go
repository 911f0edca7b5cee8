package voice

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind names an intent variant. It is what gets recorded on the voice event.
type Kind string

const (
	KindOpenSession Kind = "open_session"
	KindEndSession  Kind = "end_session"
	KindNote        Kind = "note"
	KindStartTimer  Kind = "start_timer"
	KindLogSet      Kind = "log_set"
	KindUnknown     Kind = "unknown"
)

// Intent is a classified command. The concrete types below are the only
// implementations; switch on them with a type switch.
type Intent interface {
	Kind() Kind
}

// OpenSession starts a workout session.
type OpenSession struct{}

// EndSession closes the active session.
type EndSession struct{}

// Note is free text the user dictated. It is acknowledged, not stored.
type Note struct {
	Text string
}

// StartTimer (re)starts the rest timer.
type StartTimer struct {
	Seconds int
}

// LogSet records one set. ExerciseID is set when the phrase matched an
// alias exactly at classification time.
type LogSet struct {
	Phrase     string
	ExerciseID uuid.NullUUID
	WeightKg   *float64
	Reps       *int
	RPE        *float64
}

// Unknown is an utterance that matched no rule.
type Unknown struct{}

func (OpenSession) Kind() Kind { return KindOpenSession }
func (EndSession) Kind() Kind  { return KindEndSession }
func (Note) Kind() Kind        { return KindNote }
func (StartTimer) Kind() Kind  { return KindStartTimer }
func (LogSet) Kind() Kind      { return KindLogSet }
func (Unknown) Kind() Kind     { return KindUnknown }

func (t StartTimer) String() string {
	return fmt.Sprintf("%d:%02d", t.Seconds/60, t.Seconds%60)
}
