package local

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/claude/gymvoice/internal/models"
	"github.com/claude/gymvoice/internal/timer"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "gym.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)

// TestOpenTwice verifies migrations are idempotent across reopen.
func TestOpenTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "gym.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	s.Close()
	s, err = Open(path)
	if err != nil {
		t.Fatalf("second Open: %v", err)
	}
	s.Close()
}

// TestExerciseAliasAndSearch verifies creation seeds the alias, search
// matches substrings of the normalized name and skips archived exercises.
func TestExerciseAliasAndSearch(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	bench := models.Exercise{ID: uuid.New(), Name: "Press banca", CreatedAt: t0}
	incline := models.Exercise{ID: uuid.New(), Name: "Press banca inclinado", CreatedAt: t0}
	if err := s.CreateExercise(ctx, bench, "press banca"); err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}
	if err := s.CreateExercise(ctx, incline, "press banca inclinado"); err != nil {
		t.Fatalf("CreateExercise: %v", err)
	}

	id, ok, err := s.LookupAlias(ctx, "press banca")
	if err != nil || !ok || id != bench.ID {
		t.Errorf("LookupAlias = %v, %v, %v; want %v", id, ok, err, bench.ID)
	}
	if _, ok, _ := s.LookupAlias(ctx, "sentadilla"); ok {
		t.Error("LookupAlias(sentadilla) found, want missing")
	}

	found, err := s.SearchExercises(ctx, "banca", 1)
	if err != nil {
		t.Fatalf("SearchExercises: %v", err)
	}
	if len(found) != 1 || found[0].ID != bench.ID {
		t.Errorf("SearchExercises(banca) = %v, want %s first", found, bench.Name)
	}

	if err := s.ArchiveExercise(ctx, bench.ID); err != nil {
		t.Fatalf("ArchiveExercise: %v", err)
	}
	found, _ = s.SearchExercises(ctx, "banca", 5)
	if len(found) != 1 || found[0].ID != incline.ID {
		t.Errorf("SearchExercises after archive = %v, want only %s", found, incline.Name)
	}
	all, _ := s.ListExercises(ctx, true)
	if len(all) != 2 {
		t.Errorf("ListExercises(all) = %d, want 2", len(all))
	}
	active, _ := s.ListExercises(ctx, false)
	if len(active) != 1 {
		t.Errorf("ListExercises(active) = %d, want 1", len(active))
	}

	if err := s.InsertAlias(ctx, models.ExerciseAlias{Alias: "press banca", ExerciseID: incline.ID}); err == nil {
		t.Error("InsertAlias duplicate: want error")
	}
	if err := s.ArchiveExercise(ctx, uuid.New()); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("ArchiveExercise(missing) = %v, want ErrNotFound", err)
	}
}

// TestSingleActiveSession verifies the index rejects a second open session.
func TestSingleActiveSession(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	first := models.Session{ID: uuid.New(), StartedAt: t0}
	if err := s.InsertSession(ctx, first); err != nil {
		t.Fatalf("InsertSession: %v", err)
	}
	if err := s.InsertSession(ctx, models.Session{ID: uuid.New(), StartedAt: t0}); err == nil {
		t.Fatal("second active session: want error")
	}

	id, ok, err := s.ActiveSessionID(ctx)
	if err != nil || !ok || id != first.ID {
		t.Fatalf("ActiveSessionID = %v, %v, %v", id, ok, err)
	}
	if err := s.EndSession(ctx, first.ID, t0.Add(time.Hour)); err != nil {
		t.Fatalf("EndSession: %v", err)
	}
	if err := s.EndSession(ctx, first.ID, t0.Add(2*time.Hour)); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("EndSession twice = %v, want ErrNotFound", err)
	}
	if _, ok, _ := s.ActiveSessionID(ctx); ok {
		t.Error("ActiveSessionID after end: want none")
	}
	if err := s.InsertSession(ctx, models.Session{ID: uuid.New(), StartedAt: t0.Add(3 * time.Hour)}); err != nil {
		t.Errorf("InsertSession after end: %v", err)
	}
}

// TestSetsRoundTrip verifies set numbering inputs, ordering, summaries and delete.
func TestSetsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	ex := models.Exercise{ID: uuid.New(), Name: "Sentadilla", CreatedAt: t0}
	if err := s.CreateExercise(ctx, ex, "sentadilla"); err != nil {
		t.Fatal(err)
	}
	sess := models.Session{ID: uuid.New(), StartedAt: t0}
	if err := s.InsertSession(ctx, sess); err != nil {
		t.Fatal(err)
	}

	if n, err := s.MaxSetNumber(ctx, sess.ID, ex.ID); err != nil || n != 0 {
		t.Fatalf("MaxSetNumber(empty) = %d, %v; want 0", n, err)
	}

	w, rpe := 100.0, 8.0
	sets := []models.WorkoutSet{
		{ID: uuid.New(), SessionID: sess.ID, ExerciseID: ex.ID, SetNumber: 1, Reps: 5, WeightKg: &w, RPE: &rpe, Source: models.SourceVoice, CreatedAt: t0.Add(time.Minute)},
		{ID: uuid.New(), SessionID: sess.ID, ExerciseID: ex.ID, SetNumber: 2, Reps: 3, Source: models.SourceManual, CreatedAt: t0.Add(2 * time.Minute)},
	}
	for _, set := range sets {
		if err := s.InsertSet(ctx, set); err != nil {
			t.Fatalf("InsertSet: %v", err)
		}
	}
	dup := sets[1]
	dup.ID = uuid.New()
	if err := s.InsertSet(ctx, dup); err == nil {
		t.Error("duplicate set number: want error")
	}

	if n, _ := s.MaxSetNumber(ctx, sess.ID, ex.ID); n != 2 {
		t.Errorf("MaxSetNumber = %d, want 2", n)
	}

	got, err := s.QuerySessionSets(ctx, sess.ID)
	if err != nil {
		t.Fatalf("QuerySessionSets: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("QuerySessionSets = %d sets, want 2", len(got))
	}
	if got[0].SetNumber != 1 || got[0].ExerciseName != "Sentadilla" || *got[0].WeightKg != 100 || *got[0].RPE != 8 {
		t.Errorf("first set = %+v", got[0])
	}
	if got[1].WeightKg != nil || got[1].Source != models.SourceManual {
		t.Errorf("second set = %+v", got[1])
	}
	if !got[0].CreatedAt.Equal(sets[0].CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got[0].CreatedAt, sets[0].CreatedAt)
	}

	sums, err := s.QuerySessionSummaries(ctx, 10)
	if err != nil {
		t.Fatalf("QuerySessionSummaries: %v", err)
	}
	if len(sums) != 1 || sums[0].Sets != 2 || sums[0].TotalReps != 8 || sums[0].TonnageKg != 500 || sums[0].Exercises != 1 {
		t.Errorf("summary = %+v", sums)
	}

	sid, err := s.DeleteSet(ctx, sets[0].ID)
	if err != nil || sid != sess.ID {
		t.Errorf("DeleteSet = %v, %v; want %v", sid, err, sess.ID)
	}
	if _, err := s.DeleteSet(ctx, sets[0].ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("DeleteSet twice = %v, want ErrNotFound", err)
	}
}

// TestVoiceEvents verifies insert, status update and newest-first listing.
func TestVoiceEvents(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	a := models.VoiceEvent{ID: uuid.New(), RawText: "abrir sesion", Locale: "es-ES", Status: models.VoiceReceived, CreatedAt: t0, UpdatedAt: t0}
	b := models.VoiceEvent{ID: uuid.New(), RawText: "hola", Locale: "es-ES", Status: models.VoiceReceived, CreatedAt: t0.Add(time.Second), UpdatedAt: t0.Add(time.Second)}
	for _, e := range []models.VoiceEvent{a, b} {
		if err := s.InsertVoiceEvent(ctx, e); err != nil {
			t.Fatalf("InsertVoiceEvent: %v", err)
		}
	}
	if err := s.UpdateVoiceEvent(ctx, a.ID, models.VoiceParsed, "open_session", nil, t0); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateVoiceEvent(ctx, a.ID, models.VoiceApplied, "", nil, t0); err != nil {
		t.Fatal(err)
	}
	msg := "no intent recognized"
	if err := s.UpdateVoiceEvent(ctx, b.ID, models.VoiceRejected, "unknown", &msg, t0); err != nil {
		t.Fatal(err)
	}

	got, err := s.QueryVoiceEvents(ctx, 10)
	if err != nil {
		t.Fatalf("QueryVoiceEvents: %v", err)
	}
	if len(got) != 2 || got[0].ID != b.ID {
		t.Fatalf("QueryVoiceEvents order = %v", got)
	}
	if got[0].Error == nil || *got[0].Error != msg {
		t.Errorf("rejected event error = %v, want %q", got[0].Error, msg)
	}
	if got[1].Status != models.VoiceApplied || got[1].Intent != "open_session" {
		t.Errorf("applied event = %+v", got[1])
	}
}

// TestTimerPersistence verifies save, load and clear of the rest timer.
func TestTimerPersistence(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if tm, err := s.LoadTimer(ctx); err != nil || tm != nil {
		t.Fatalf("LoadTimer(empty) = %v, %v", tm, err)
	}

	tm := timer.New(t0, 90*time.Second)
	tm.Pause(t0.Add(10 * time.Second))
	if err := s.SaveTimer(ctx, tm); err != nil {
		t.Fatalf("SaveTimer: %v", err)
	}
	got, err := s.LoadTimer(ctx)
	if err != nil || got == nil {
		t.Fatalf("LoadTimer = %v, %v", got, err)
	}
	if got.Running || got.PausedAt == nil || got.Target != 90*time.Second {
		t.Errorf("LoadTimer = %+v", got)
	}
	if r := got.Remaining(t0.Add(time.Hour)); r != 80*time.Second {
		t.Errorf("Remaining = %v, want 80s", r)
	}

	if err := s.SaveTimer(ctx, nil); err != nil {
		t.Fatal(err)
	}
	if got, _ := s.LoadTimer(ctx); got != nil {
		t.Errorf("LoadTimer after clear = %+v, want nil", got)
	}
}
