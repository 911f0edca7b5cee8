package voice

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/gymvoice/internal/models"
	"github.com/google/uuid"
)

// searchPrefixLen bounds the fallback substring query, in runes.
const searchPrefixLen = 20

// Resolver maps free text to exercise IDs.
type Resolver struct {
	store ExerciseStore
	now   func() time.Time
}

// NewResolver creates a Resolver over the given store.
func NewResolver(store ExerciseStore) *Resolver {
	return &Resolver{store: store, now: time.Now}
}

// Resolve looks up the normalized phrase in the alias table (exact match).
func (r *Resolver) Resolve(ctx context.Context, phrase string) (uuid.UUID, bool, error) {
	key := Normalize(phrase)
	if key == "" {
		return uuid.Nil, false, nil
	}
	id, ok, err := r.store.LookupAlias(ctx, key)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("looking up alias %q: %w", key, err)
	}
	return id, ok, nil
}

// Search is the fuzzy fallback: a substring search of the first 20
// characters of the normalized phrase over exercise names. The first
// exercise by normalized name wins.
func (r *Resolver) Search(ctx context.Context, phrase string) (uuid.UUID, bool, error) {
	query := Normalize(phrase)
	if query == "" {
		return uuid.Nil, false, nil
	}
	if runes := []rune(query); len(runes) > searchPrefixLen {
		query = strings.TrimSpace(string(runes[:searchPrefixLen]))
	}
	found, err := r.store.SearchExercises(ctx, query, 1)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("searching exercises for %q: %w", query, err)
	}
	if len(found) == 0 {
		return uuid.Nil, false, nil
	}
	return found[0].ID, true, nil
}

// EnsureExerciseIDByName returns the exercise the name is an alias of,
// creating the exercise (with the alias pre-seeded) when there is none.
// created reports whether a new exercise was made.
func (r *Resolver) EnsureExerciseIDByName(ctx context.Context, name string) (id uuid.UUID, created bool, err error) {
	name = strings.TrimSpace(name)
	key := Normalize(name)
	if key == "" {
		return uuid.Nil, false, ErrEmptyName
	}

	id, ok, err := r.Resolve(ctx, key)
	if err != nil {
		return uuid.Nil, false, err
	}
	if ok {
		return id, false, nil
	}

	ex := models.Exercise{ID: newID(), Name: name, CreatedAt: r.now()}
	if err := r.store.CreateExercise(ctx, ex, key); err != nil {
		// Lost a race on the alias: whoever won owns the name now.
		if id, ok, lerr := r.Resolve(ctx, key); lerr == nil && ok {
			return id, false, nil
		}
		return uuid.Nil, false, fmt.Errorf("creating exercise %q: %w", name, err)
	}
	return ex.ID, true, nil
}

// newID returns a time-ordered UUID so IDs sort in creation order.
func newID() uuid.UUID {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return id
}
