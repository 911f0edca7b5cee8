package voice

import (
	"regexp"
	"strconv"
	"strings"
)

// utterance carries both the raw transcript and its normalized form.
// Rules match on text; raw is only used to keep a note's original casing.
type utterance struct {
	raw  string
	text string
}

// rule is one entry in the ordered classification chain.
type rule struct {
	name  string
	match func(u utterance) (Intent, bool)
}

var (
	openSessionPhrases = []string{"empieza entreno", "inicia entreno", "empezar entreno"}
	endSessionPhrases  = []string{"termina entreno", "finaliza entreno", "acaba entreno"}
	notePrefixes       = []string{"nota:", "apunta:"}

	// timerRe matches: timer 1:30, descanso 1:30
	timerRe = regexp.MustCompile(`\b(?:timer|descanso)\s+(\d+):([0-5]\d)\b`)

	// restRe matches: descanso 90, descanso 90 s, descanso 2 min, descanso 3 minutos.
	// The number must not be followed by a colon, so clock forms never match.
	restRe = regexp.MustCompile(`\bdescanso\s+(\d+)(?:\s*(segundos|seg|s|minutos|min|m))?(?:$|[^\w:])`)
)

// rules are tried strictly in order; the first match wins.
var rules = []rule{
	{"open_session", func(u utterance) (Intent, bool) {
		return OpenSession{}, containsAny(u.text, openSessionPhrases)
	}},
	{"end_session", func(u utterance) (Intent, bool) {
		return EndSession{}, containsAny(u.text, endSessionPhrases)
	}},
	{"note", matchNote},
	{"timer_clock", matchTimerClock},
	{"rest_seconds", func(u utterance) (Intent, bool) {
		digits, unit, ok := matchRest(u.text)
		if !ok || isMinutes(unit) {
			return nil, false
		}
		return StartTimer{Seconds: toSeconds(digits, 1)}, true
	}},
	{"rest_minutes", func(u utterance) (Intent, bool) {
		digits, unit, ok := matchRest(u.text)
		if !ok || !isMinutes(unit) {
			return nil, false
		}
		return StartTimer{Seconds: toSeconds(digits, 60)}, true
	}},
	{"log_set", func(u utterance) (Intent, bool) {
		m := Extract(u.text)
		if m.Empty() {
			return nil, false
		}
		return LogSet{
			Phrase:   ExercisePhrase(u.text),
			WeightKg: m.WeightKg,
			Reps:     m.Reps,
			RPE:      m.RPE,
		}, true
	}},
}

// Classify maps a raw utterance to an intent using the rule chain. It never
// touches storage, so a LogSet comes back without an exercise ID.
func Classify(raw string) Intent {
	u := utterance{raw: raw, text: Normalize(raw)}
	for _, r := range rules {
		if in, ok := r.match(u); ok {
			return in
		}
	}
	return Unknown{}
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}

func matchNote(u utterance) (Intent, bool) {
	for _, p := range notePrefixes {
		if !strings.HasPrefix(u.text, p) {
			continue
		}
		// The prefixes carry no diacritics, so the first colon of the raw
		// text is the one that ended the prefix.
		if i := strings.Index(u.raw, ":"); i >= 0 {
			return Note{Text: strings.TrimSpace(u.raw[i+1:])}, true
		}
		return Note{Text: strings.TrimSpace(u.text[len(p):])}, true
	}
	return nil, false
}

func matchTimerClock(u utterance) (Intent, bool) {
	m := timerRe.FindStringSubmatch(u.text)
	if m == nil {
		return nil, false
	}
	secs, _ := strconv.Atoi(m[2])
	return StartTimer{Seconds: toSeconds(m[1], 60) + secs}, true
}

func matchRest(text string) (digits, unit string, ok bool) {
	m := restRe.FindStringSubmatch(text)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// toSeconds converts a count of units of unitSeconds each. Counts whose
// product would exceed MaxRestSeconds saturate at MaxRestSeconds+1, so
// validate rejects them and no multiplication ever wraps.
func toSeconds(digits string, unitSeconds int) int {
	n, err := strconv.Atoi(digits)
	if err != nil || n > MaxRestSeconds/unitSeconds {
		return MaxRestSeconds + 1
	}
	return n * unitSeconds
}

func isMinutes(unit string) bool {
	switch unit {
	case "minutos", "min", "m":
		return true
	}
	return false
}
