package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/plan"
	"github.com/meltforce/liftbot/internal/progression"
	"github.com/meltforce/liftbot/internal/storage"
)

// fakeStore is an in-memory Store mirroring the storage contracts the
// machine relies on: one open workout per user, name-idempotent plan
// materialization, server-side set indices, PR reconciliation on save.
type fakeStore struct {
	nextWorkoutID int64
	nextExercise  int64
	exerciseIDs   map[string]int64
	workouts      map[int64]*fakeWorkout
	failCountSets error
}

type fakeWorkout struct {
	userID      int64
	startedAt   time.Time
	finishedAt  *time.Time
	assignments []models.WorkoutExerciseRow
	sets        []storage.ImportSet
	best1RM     map[int64]float64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		exerciseIDs: make(map[string]int64),
		workouts:    make(map[int64]*fakeWorkout),
	}
}

func (f *fakeStore) exerciseID(name string) int64 {
	if id, ok := f.exerciseIDs[name]; ok {
		return id
	}
	f.nextExercise++
	f.exerciseIDs[name] = f.nextExercise
	return f.nextExercise
}

func (f *fakeStore) StartOrResumeWorkout(ctx context.Context, userID int64, entries []plan.Exercise) (models.WorkoutRow, []models.WorkoutExerciseRow, bool, error) {
	var id int64
	var w *fakeWorkout
	for wid, cand := range f.workouts {
		if cand.userID == userID && cand.finishedAt == nil {
			id, w = wid, cand
			break
		}
	}
	resumed := w != nil
	if w == nil {
		f.nextWorkoutID++
		id = f.nextWorkoutID
		w = &fakeWorkout{userID: userID, startedAt: time.Now().UTC(), best1RM: make(map[int64]float64)}
		f.workouts[id] = w
	}

	for _, entry := range entries {
		exists := false
		for _, a := range w.assignments {
			if a.ExerciseName == entry.Name {
				exists = true
				break
			}
		}
		if exists {
			continue
		}
		w.assignments = append(w.assignments, models.WorkoutExerciseRow{
			ID:           int64(len(w.assignments) + 1),
			WorkoutID:    id,
			ExerciseID:   f.exerciseID(entry.Name),
			ExerciseName: entry.Name,
			TargetSets:   entry.TargetSets,
		})
	}
	return models.WorkoutRow{ID: id, UserID: userID, StartedAt: w.startedAt}, append([]models.WorkoutExerciseRow(nil), w.assignments...), resumed, nil
}

func (f *fakeStore) Assignments(ctx context.Context, workoutID int64) ([]models.WorkoutExerciseRow, error) {
	w, ok := f.workouts[workoutID]
	if !ok {
		return nil, storage.ErrWorkoutNotFound
	}
	return append([]models.WorkoutExerciseRow(nil), w.assignments...), nil
}

func (f *fakeStore) CountSets(ctx context.Context, workoutID, exerciseID int64) (int, error) {
	if f.failCountSets != nil {
		return 0, f.failCountSets
	}
	w, ok := f.workouts[workoutID]
	if !ok {
		return 0, storage.ErrWorkoutNotFound
	}
	n := 0
	for _, s := range w.sets {
		if f.exerciseIDs[s.Exercise] == exerciseID {
			n++
		}
	}
	return n, nil
}

func (f *fakeStore) SaveSet(ctx context.Context, workoutID, exerciseID int64, weight float64, reps int, rir float64, note *string) (storage.SetStats, error) {
	w, ok := f.workouts[workoutID]
	if !ok {
		return storage.SetStats{}, storage.ErrWorkoutNotFound
	}
	var name string
	for n, id := range f.exerciseIDs {
		if id == exerciseID {
			name = n
		}
	}
	count, _ := f.CountSets(ctx, workoutID, exerciseID)
	w.sets = append(w.sets, storage.ImportSet{Exercise: name, SetIndex: count + 1, Reps: reps, Weight: weight, RIR: &rir})

	stats := storage.SetStats{SetIndex: count + 1}
	var rirSum float64
	for _, s := range w.sets {
		if f.exerciseIDs[s.Exercise] != exerciseID {
			continue
		}
		stats.SetsDone++
		stats.Tonnage += s.Weight * float64(s.Reps)
		rirSum += *s.RIR
	}
	stats.AvgRIR = rirSum / float64(stats.SetsDone)

	if est := progression.OneRepMax(weight, reps); est > w.best1RM[exerciseID] {
		w.best1RM[exerciseID] = est
		stats.NewPR = &models.PRRow{UserID: w.userID, ExerciseID: exerciseID, Reps: reps, Weight: weight}
	}
	return stats, nil
}

func (f *fakeStore) FinishWorkout(ctx context.Context, workoutID int64) (*storage.WorkoutSummary, error) {
	w, ok := f.workouts[workoutID]
	if !ok {
		return nil, storage.ErrWorkoutNotFound
	}
	if w.finishedAt == nil {
		now := w.startedAt.Add(45 * time.Minute)
		w.finishedAt = &now
	}
	summary := &storage.WorkoutSummary{
		WorkoutID:  workoutID,
		StartedAt:  w.startedAt,
		FinishedAt: w.finishedAt,
		Duration:   "0:45:00",
	}
	byExercise := make(map[int64]*storage.ExerciseBreakdown)
	for _, s := range w.sets {
		id := f.exerciseIDs[s.Exercise]
		summary.TotalSets++
		summary.Tonnage += s.Weight * float64(s.Reps)
		ex, ok := byExercise[id]
		if !ok {
			ex = &storage.ExerciseBreakdown{ExerciseID: id, ExerciseName: s.Exercise}
			byExercise[id] = ex
		}
		if est := progression.OneRepMax(s.Weight, s.Reps); est > ex.Best1RM {
			ex.Best1RM = est
		}
	}
	for _, ex := range byExercise {
		summary.Exercises = append(summary.Exercises, *ex)
	}
	return summary, nil
}

func (f *fakeStore) LoadExerciseCard(ctx context.Context, workoutID, exerciseID int64) (*storage.ExerciseCard, error) {
	w, ok := f.workouts[workoutID]
	if !ok {
		return nil, storage.ErrWorkoutNotFound
	}
	for _, a := range w.assignments {
		if a.ExerciseID == exerciseID {
			done, _ := f.CountSets(ctx, workoutID, exerciseID)
			return &storage.ExerciseCard{
				WorkoutID:     workoutID,
				ExerciseID:    exerciseID,
				ExerciseName:  a.ExerciseName,
				TargetSets:    a.TargetSets,
				CompletedSets: done,
			}, nil
		}
	}
	return nil, storage.ErrExerciseNotFound
}

var _ Store = (*fakeStore)(nil)

func newTestManager(store Store) *Manager {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(store, plan.Default, log)
}

const chatID = int64(1001)

// TestStartOrResumeReusesOpenWorkout verifies that starting twice without
// finishing never creates a second open workout.
func TestStartOrResumeReusesOpenWorkout(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := newTestManager(store)

	first, err := m.StartOrResume(ctx, chatID, 7)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	second, err := m.StartOrResume(ctx, chatID, 7)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if first.WorkoutID != second.WorkoutID {
		t.Errorf("workout ids differ: %d vs %d", first.WorkoutID, second.WorkoutID)
	}
	if !second.Resumed {
		t.Error("second start not reported as resumed")
	}
	if len(store.workouts) != 1 {
		t.Errorf("store has %d workouts, want 1", len(store.workouts))
	}
	if got := len(store.workouts[first.WorkoutID].assignments); got != 3 {
		t.Errorf("assignments after two starts = %d, want 3 (materialization must stay idempotent)", got)
	}
	if first.Card == nil || first.Card.ExerciseName != "Barbell Squat" {
		t.Errorf("initial card = %+v, want first plan exercise", first.Card)
	}
}

// TestResumeSurvivesRestart verifies that picking up an open workout reports
// a resume even with no in-memory session, as after a process restart.
func TestResumeSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()

	first, err := newTestManager(store).StartOrResume(ctx, chatID, 7)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}
	if first.Resumed {
		t.Error("first start reported as resumed")
	}

	// Fresh manager over the same store, as after a restart.
	second, err := newTestManager(store).StartOrResume(ctx, chatID, 7)
	if err != nil {
		t.Fatalf("start after restart: %v", err)
	}
	if second.WorkoutID != first.WorkoutID {
		t.Errorf("workout ids differ: %d vs %d", first.WorkoutID, second.WorkoutID)
	}
	if !second.Resumed {
		t.Error("open workout picked up after restart not reported as resumed")
	}
}

// TestWeightValidationRejected verifies a wild weight is rejected with no set
// written and the machine still awaiting the weight.
func TestWeightValidationRejected(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := newTestManager(store)

	res, err := m.StartOrResume(ctx, chatID, 7)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.BeginSet(ctx, chatID, res.Card.ExerciseID); err != nil {
		t.Fatal(err)
	}

	_, err = m.HandleInput(ctx, chatID, "1500")
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("HandleInput(1500) error = %v, want ValidationError", err)
	}
	if m.Step(chatID) != StepWeight {
		t.Errorf("step after rejection = %v, want StepWeight", m.Step(chatID))
	}
	if len(store.workouts[res.WorkoutID].sets) != 0 {
		t.Error("a set was written despite the rejected weight")
	}
}

// TestSetEntryFlow walks one full weight/reps/effort entry, including comma
// decimals, and checks the derived stats.
func TestSetEntryFlow(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := newTestManager(store)

	res, err := m.StartOrResume(ctx, chatID, 7)
	if err != nil {
		t.Fatal(err)
	}
	setIndex, err := m.BeginSet(ctx, chatID, res.Card.ExerciseID)
	if err != nil {
		t.Fatal(err)
	}
	if setIndex != 1 {
		t.Errorf("first set index = %d, want 1", setIndex)
	}

	step, err := m.HandleInput(ctx, chatID, "100")
	if err != nil || step.Next != StepReps {
		t.Fatalf("after weight: step=%v err=%v", step, err)
	}
	step, err = m.HandleInput(ctx, chatID, "5")
	if err != nil || step.Next != StepRIR {
		t.Fatalf("after reps: step=%v err=%v", step, err)
	}
	step, err = m.HandleInput(ctx, chatID, "1,0")
	if err != nil {
		t.Fatalf("after effort: %v", err)
	}
	if step.Next != StepIdle || step.Stats == nil {
		t.Fatalf("expected saved set, got %+v", step)
	}
	if step.Stats.SetIndex != 1 || step.Stats.SetsDone != 1 {
		t.Errorf("stats indices = %+v", step.Stats)
	}
	if math.Abs(step.Stats.Tonnage-500) > 1e-9 {
		t.Errorf("tonnage = %v, want 500", step.Stats.Tonnage)
	}
	if math.Abs(step.Stats.AvgRIR-1.0) > 1e-9 {
		t.Errorf("avg RIR = %v, want 1.0", step.Stats.AvgRIR)
	}
	if step.NextSetIndex != 2 {
		t.Errorf("next set index = %d, want 2", step.NextSetIndex)
	}
	if step.Stats.NewPR == nil {
		t.Error("first ever set should be a PR")
	}
}

// TestRepsValidation verifies the integer bounds on the reps prompt.
func TestRepsValidation(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newFakeStore())

	res, _ := m.StartOrResume(ctx, chatID, 7)
	m.BeginSet(ctx, chatID, res.Card.ExerciseID)
	m.HandleInput(ctx, chatID, "60")

	for _, bad := range []string{"0", "101", "5.5", "abc"} {
		_, err := m.HandleInput(ctx, chatID, bad)
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("HandleInput(%q) error = %v, want ValidationError", bad, err)
		}
	}
	if m.Step(chatID) != StepReps {
		t.Errorf("step = %v, want StepReps", m.Step(chatID))
	}
}

// TestFinishSkipAndComplete walks the navigation: finish the first exercise,
// skip the second, finish the third, then complete the workout.
func TestFinishSkipAndComplete(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := newTestManager(store)

	res, err := m.StartOrResume(ctx, chatID, 7)
	if err != nil {
		t.Fatal(err)
	}
	first := res.Card.ExerciseID

	adv, err := m.FinishExercise(ctx, chatID, first)
	if err != nil {
		t.Fatal(err)
	}
	if adv.AllDone || adv.Card.ExerciseName != "Bench Press" {
		t.Fatalf("after finishing first: %+v, want Bench Press", adv)
	}

	adv, err = m.SkipExercise(ctx, chatID, adv.Card.ExerciseID)
	if err != nil {
		t.Fatal(err)
	}
	if adv.AllDone || adv.Card.ExerciseName != "Lat Pulldown" {
		t.Fatalf("after skipping second: %+v, want Lat Pulldown", adv)
	}

	adv, err = m.FinishExercise(ctx, chatID, adv.Card.ExerciseID)
	if err != nil {
		t.Fatal(err)
	}
	if !adv.AllDone {
		t.Fatal("expected all exercises done")
	}

	summary, err := m.Complete(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.Duration == "" {
		t.Error("summary has no duration")
	}
	if m.Active(chatID) {
		t.Error("session still active after completion")
	}
	if _, err := m.HandleInput(ctx, chatID, "100"); !errors.Is(err, ErrNoSession) {
		t.Errorf("input after completion error = %v, want ErrNoSession", err)
	}
}

// TestGoBackReopensExercise verifies back-navigation pops the completion
// stack and re-activates the previous exercise.
func TestGoBackReopensExercise(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newFakeStore())

	res, _ := m.StartOrResume(ctx, chatID, 7)
	first := res.Card.ExerciseID

	if m.HasPrev(chatID) {
		t.Error("fresh session should have no back target")
	}
	if _, err := m.FinishExercise(ctx, chatID, first); err != nil {
		t.Fatal(err)
	}
	if !m.HasPrev(chatID) {
		t.Fatal("completed stack should be non-empty")
	}

	adv, err := m.GoBack(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if adv.Card == nil || adv.Card.ExerciseID != first {
		t.Errorf("GoBack card = %+v, want the first exercise", adv.Card)
	}
	if m.HasPrev(chatID) {
		t.Error("stack should be empty after popping")
	}
}

// TestEndToEndSession is the full happy path: set on the first exercise,
// finish everything, and check the summary totals and 1RM estimate.
func TestEndToEndSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newFakeStore())

	res, err := m.StartOrResume(ctx, chatID, 7)
	if err != nil {
		t.Fatal(err)
	}
	first := res.Card.ExerciseID

	if _, err := m.BeginSet(ctx, chatID, first); err != nil {
		t.Fatal(err)
	}
	for _, input := range []string{"100", "5", "1.0"} {
		if _, err := m.HandleInput(ctx, chatID, input); err != nil {
			t.Fatalf("input %q: %v", input, err)
		}
	}

	for _, a := range []int64{first, first + 1, first + 2} {
		if _, err := m.FinishExercise(ctx, chatID, a); err != nil {
			t.Fatal(err)
		}
	}
	summary, err := m.Complete(ctx, chatID)
	if err != nil {
		t.Fatal(err)
	}
	if summary.TotalSets != 1 || math.Abs(summary.Tonnage-500) > 1e-9 {
		t.Errorf("summary totals = %d sets %.1f tonnage, want 1 set 500", summary.TotalSets, summary.Tonnage)
	}
	if len(summary.Exercises) != 1 || summary.Exercises[0].Best1RM < 100 {
		t.Errorf("summary exercises = %+v, want one with 1RM >= 100", summary.Exercises)
	}
}

// TestExpiredWorkoutClearsSession verifies that a vanished workout drops the
// session so the next start is clean.
func TestExpiredWorkoutClearsSession(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	m := newTestManager(store)

	res, _ := m.StartOrResume(ctx, chatID, 7)
	store.failCountSets = storage.ErrWorkoutNotFound

	_, err := m.BeginSet(ctx, chatID, res.Card.ExerciseID)
	if !errors.Is(err, storage.ErrWorkoutNotFound) {
		t.Fatalf("BeginSet error = %v, want ErrWorkoutNotFound", err)
	}
	if m.Active(chatID) {
		t.Error("session should be cleared after the workout vanished")
	}
}

// TestOperationsWithoutSession verifies every operation reports ErrNoSession
// before StartOrResume.
func TestOperationsWithoutSession(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(newFakeStore())

	if _, err := m.BeginSet(ctx, chatID, 1); !errors.Is(err, ErrNoSession) {
		t.Errorf("BeginSet error = %v, want ErrNoSession", err)
	}
	if _, err := m.HandleInput(ctx, chatID, "100"); !errors.Is(err, ErrNoSession) {
		t.Errorf("HandleInput error = %v, want ErrNoSession", err)
	}
	if _, err := m.Complete(ctx, chatID); !errors.Is(err, ErrNoSession) {
		t.Errorf("Complete error = %v, want ErrNoSession", err)
	}
	if _, err := m.GoBack(ctx, chatID); !errors.Is(err, ErrNoSession) {
		t.Errorf("GoBack error = %v, want ErrNoSession", err)
	}
}
