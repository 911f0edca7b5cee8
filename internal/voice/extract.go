package voice

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// KgPerLb is the exact international avoirdupois pound.
const KgPerLb = 0.45359237

var (
	// weightRe matches: 80 kilos, 82,5kg, 180 libras, 45 lb
	weightRe = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?)\s*(kilos|kilo|kg|libras|libra|lbs|lb)\b`)

	// repsRe matches: 7 reps, 10 repeticiones, 1 rep, 3x10 reps (sets prefix dropped)
	repsRe = regexp.MustCompile(`\b(?:\d+\s*x\s*)?(\d+)\s*(repeticiones|reps|rep)\b`)

	// rpeRe matches: rpe 9, rpe 8,5, rpe7.5
	rpeRe = regexp.MustCompile(`\brpe\s*(\d+(?:[.,]\d+)?)\b`)
)

// fillerWords are dropped from the exercise phrase left after extraction.
var fillerWords = map[string]bool{
	"con": true, "a": true, "de": true, "del": true, "la": true, "el": true,
	"y": true, "acabo": true, "hacer": true, "hice": true, "hecho": true,
}

// Measurements holds the optional numeric fields found in an utterance.
type Measurements struct {
	WeightKg *float64
	Reps     *int
	RPE      *float64
}

// Empty reports whether nothing was extracted.
func (m Measurements) Empty() bool {
	return m.WeightKg == nil && m.Reps == nil && m.RPE == nil
}

// Extract pulls weight, reps and RPE out of normalized text. Each field is
// the first match of its pattern; a missing pattern leaves the field nil.
func Extract(text string) Measurements {
	return Measurements{
		WeightKg: ExtractWeightKg(text),
		Reps:     ExtractReps(text),
		RPE:      ExtractRPE(text),
	}
}

// ExtractWeightKg returns the weight in kilograms. Pounds are converted and
// rounded to two decimals.
func ExtractWeightKg(text string) *float64 {
	m := weightRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, ok := parseDecimal(m[1])
	if !ok {
		return nil
	}
	switch m[2] {
	case "libras", "libra", "lbs", "lb":
		v = roundTo(v*KgPerLb, 2)
	}
	return &v
}

// ExtractReps returns the rep count.
func ExtractReps(text string) *int {
	m := repsRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}

// ExtractRPE returns the RPE value; "," and "." are both decimal separators.
func ExtractRPE(text string) *float64 {
	m := rpeRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	v, ok := parseDecimal(m[1])
	if !ok {
		return nil
	}
	return &v
}

// ExercisePhrase strips every recognized weight, reps and RPE fragment and
// the filler words from normalized text, leaving the candidate exercise name.
func ExercisePhrase(text string) string {
	for _, re := range []*regexp.Regexp{weightRe, repsRe, rpeRe} {
		text = re.ReplaceAllString(text, " ")
	}
	var words []string
	for _, w := range strings.Fields(text) {
		w = strings.TrimFunc(w, unicode.IsPunct)
		if w == "" || fillerWords[w] {
			continue
		}
		words = append(words, w)
	}
	return strings.Join(words, " ")
}

// parseDecimal converts "82,5" or "82.5" to 82.5.
func parseDecimal(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
