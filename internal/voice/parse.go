package voice

import (
	"context"
	"strings"
)

// MaxRestSeconds is the longest rest timer accepted.
const MaxRestSeconds = 24 * 3600

// Parser classifies utterances and validates the resulting intent. It also
// resolves a LogSet's exercise when the phrase is a known alias.
type Parser struct {
	resolver *Resolver
}

// NewParser creates a Parser.
func NewParser(resolver *Resolver) *Parser {
	return &Parser{resolver: resolver}
}

// Parse classifies raw and checks the intent has the shape it needs.
// Failures are returned as *ParseError.
func (p *Parser) Parse(ctx context.Context, raw string) (Intent, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, &ParseError{Err: ErrEmptyUtterance}
	}

	in := Classify(raw)
	if err := validate(in); err != nil {
		return nil, &ParseError{Err: err}
	}

	if ls, ok := in.(LogSet); ok && ls.Phrase != "" {
		id, found, err := p.resolver.Resolve(ctx, ls.Phrase)
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		if found {
			ls.ExerciseID.UUID, ls.ExerciseID.Valid = id, true
		}
		in = ls
	}
	return in, nil
}

func validate(in Intent) error {
	switch v := in.(type) {
	case StartTimer:
		if v.Seconds <= 0 {
			return ErrInvalidDuration
		}
		if v.Seconds > MaxRestSeconds {
			return ErrDurationTooLong
		}
	case LogSet:
		if v.Reps == nil {
			return ErrMissingReps
		}
		if v.RPE != nil && (*v.RPE < 1 || *v.RPE > 10) {
			return ErrRPEOutOfRange
		}
	}
	return nil
}
