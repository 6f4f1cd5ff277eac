// Package session implements the workout-session state machine: the stateful
// walk through a planned set of exercises, set-by-set input with prompt
// validation, skip/back/finish navigation, and the live stats returned after
// each save.
//
// Session context lives in process memory, keyed by conversation id. It is
// created by StartOrResume, cleared by Complete or Cancel, and persists
// across operations otherwise. The transport delivers one user's messages
// serially; the per-session mutex keeps that guarantee even if it slips.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/meltforce/liftbot/internal/plan"
	"github.com/meltforce/liftbot/internal/storage"
)

// Step is the input the conversation is currently awaiting.
type Step int

const (
	StepIdle Step = iota
	StepWeight
	StepReps
	StepRIR
)

// ErrNoSession means an operation arrived without StartOrResume having run
// (or after the session was cleared). The transport re-prompts for a start.
var ErrNoSession = errors.New("no active session")

// ValidationError is a recoverable bad input at a prompt boundary. The
// machine stays where it was; the transport re-prompts with Message.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// state is one conversation's session context.
type state struct {
	mu sync.Mutex

	userID    int64
	workoutID int64

	// current is the active exercise id, 0 once everything is completed.
	current int64
	// completed doubles as completion set and back-navigation stack: an id
	// is pushed at most once per logical completion, but can be pushed
	// again after GoBack reopens it.
	completed []int64

	step            Step
	pendingExercise int64
	pendingSetIndex int
	weight          float64
	reps            int
}

// Manager holds the per-conversation session contexts and runs operations
// against the store.
type Manager struct {
	store Store
	plan  func() []plan.Exercise
	log   *slog.Logger

	mu       sync.Mutex
	sessions map[int64]*state
}

// NewManager creates a Manager using planFn as the canonical plan source.
func NewManager(store Store, planFn func() []plan.Exercise, log *slog.Logger) *Manager {
	return &Manager{
		store:    store,
		plan:     planFn,
		log:      log,
		sessions: make(map[int64]*state),
	}
}

func (m *Manager) get(key int64) (*state, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	return s, ok
}

// clearIfExpired drops the session when the workout vanished underneath it,
// so the next StartOrResume begins cleanly.
func (m *Manager) clearIfExpired(key int64, err error) {
	if errors.Is(err, storage.ErrWorkoutNotFound) {
		m.Cancel(key)
	}
}

// StartResult is what StartOrResume hands the transport for rendering.
type StartResult struct {
	WorkoutID int64
	// Resumed reports whether an already-open workout was picked up, which
	// holds across process restarts since it comes from the store.
	Resumed bool
	Card    *storage.ExerciseCard
	AllDone bool
}

// StartOrResume opens the user's current workout (reusing the most recent
// unfinished one), materializes the plan, and activates the first
// assignment. The completed stack resets even when resuming.
func (m *Manager) StartOrResume(ctx context.Context, key, userID int64) (*StartResult, error) {
	workout, assignments, resumed, err := m.store.StartOrResumeWorkout(ctx, userID, m.plan())
	if err != nil {
		return nil, err
	}

	s := &state{userID: userID, workoutID: workout.ID}
	if len(assignments) > 0 {
		s.current = assignments[0].ExerciseID
	}

	m.mu.Lock()
	m.sessions[key] = s
	m.mu.Unlock()

	res := &StartResult{WorkoutID: workout.ID, Resumed: resumed, AllDone: s.current == 0}
	if s.current != 0 {
		res.Card, err = m.store.LoadExerciseCard(ctx, workout.ID, s.current)
		if err != nil {
			m.clearIfExpired(key, err)
			return nil, err
		}
	}
	m.log.Info("session started", "user_id", userID, "workout_id", workout.ID, "exercises", len(assignments))
	return res, nil
}

// Active reports whether the conversation has a session.
func (m *Manager) Active(key int64) bool {
	_, ok := m.get(key)
	return ok
}

// Step returns the input currently awaited, StepIdle when none.
func (m *Manager) Step(key int64) Step {
	s, ok := m.get(key)
	if !ok {
		return StepIdle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// HasPrev reports whether GoBack has anywhere to go.
func (m *Manager) HasPrev(key int64) bool {
	s, ok := m.get(key)
	if !ok {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.completed) > 0
}

// BeginSet arms set entry for an exercise. The set index is the stored
// count plus one, computed server-side, and the machine starts awaiting the
// weight.
func (m *Manager) BeginSet(ctx context.Context, key, exerciseID int64) (int, error) {
	s, ok := m.get(key)
	if !ok {
		return 0, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	count, err := m.store.CountSets(ctx, s.workoutID, exerciseID)
	if err != nil {
		m.clearIfExpired(key, err)
		return 0, err
	}
	s.pendingExercise = exerciseID
	s.pendingSetIndex = count + 1
	s.step = StepWeight
	return s.pendingSetIndex, nil
}

// InputResult reports what the machine did with one prompt input.
type InputResult struct {
	// Next is the step now awaited. StepIdle means the set was saved.
	Next Step
	// Stats is set once the full set has been written.
	Stats *storage.SetStats
	// NextSetIndex is the index armed for a follow-up set of the same
	// exercise, valid when Stats != nil.
	NextSetIndex int
}

// HandleInput feeds one user message into the weight→reps→RIR sequence.
// A *ValidationError leaves the machine in place for a re-prompt; the write
// happens only after all three prompts pass, as a single transaction.
func (m *Manager) HandleInput(ctx context.Context, key int64, text string) (*InputResult, error) {
	s, ok := m.get(key)
	if !ok {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.step {
	case StepWeight:
		weight, err := parseDecimal(text)
		if err != nil || weight < 0 || weight > 1000 {
			return nil, &ValidationError{Message: "Enter a weight between 0 and 1000"}
		}
		s.weight = weight
		s.step = StepReps
		return &InputResult{Next: StepReps}, nil

	case StepReps:
		reps, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil || reps < 1 || reps > 100 {
			return nil, &ValidationError{Message: "Enter a whole number of reps between 1 and 100"}
		}
		s.reps = reps
		s.step = StepRIR
		return &InputResult{Next: StepRIR}, nil

	case StepRIR:
		rir, err := parseDecimal(text)
		if err != nil || rir < 0 || rir > 10 {
			return nil, &ValidationError{Message: "Enter an RIR between 0 and 10"}
		}
		if s.pendingExercise == 0 || s.pendingSetIndex == 0 {
			s.step = StepIdle
			return nil, ErrNoSession
		}
		stats, err := m.store.SaveSet(ctx, s.workoutID, s.pendingExercise, s.weight, s.reps, rir, nil)
		if err != nil {
			m.clearIfExpired(key, err)
			return nil, err
		}
		s.weight = 0
		s.reps = 0
		s.step = StepIdle
		s.pendingSetIndex = stats.SetsDone + 1
		m.log.Info("set saved",
			"workout_id", s.workoutID, "exercise_id", s.pendingExercise,
			"set_index", stats.SetIndex, "tonnage", stats.Tonnage)
		return &InputResult{Next: StepIdle, Stats: &stats, NextSetIndex: s.pendingSetIndex}, nil

	default:
		return nil, ErrNoSession
	}
}

// Advance is the result of finish/skip/back navigation.
type Advance struct {
	Card    *storage.ExerciseCard
	AllDone bool
}

// FinishExercise marks the exercise completed and advances to the next
// not-yet-completed assignment in insertion order.
func (m *Manager) FinishExercise(ctx context.Context, key, exerciseID int64) (*Advance, error) {
	return m.completeAndAdvance(ctx, key, exerciseID)
}

// SkipExercise is FinishExercise under a different name: the distinction is
// purely presentational.
func (m *Manager) SkipExercise(ctx context.Context, key, exerciseID int64) (*Advance, error) {
	return m.completeAndAdvance(ctx, key, exerciseID)
}

func (m *Manager) completeAndAdvance(ctx context.Context, key, exerciseID int64) (*Advance, error) {
	s, ok := m.get(key)
	if !ok {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if !containsID(s.completed, exerciseID) {
		s.completed = append(s.completed, exerciseID)
	}

	assignments, err := m.store.Assignments(ctx, s.workoutID)
	if err != nil {
		m.clearIfExpired(key, err)
		return nil, err
	}
	s.current = 0
	for _, a := range assignments {
		if !containsID(s.completed, a.ExerciseID) {
			s.current = a.ExerciseID
			break
		}
	}
	return m.advanceResult(ctx, key, s)
}

// GoBack pops the most recently completed exercise and re-activates it; with
// nothing on the stack it re-activates the current exercise. Persisted sets
// are never rewound.
func (m *Manager) GoBack(ctx context.Context, key int64) (*Advance, error) {
	s, ok := m.get(key)
	if !ok {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if n := len(s.completed); n > 0 {
		s.current = s.completed[n-1]
		s.completed = s.completed[:n-1]
	}
	return m.advanceResult(ctx, key, s)
}

func (m *Manager) advanceResult(ctx context.Context, key int64, s *state) (*Advance, error) {
	if s.current == 0 {
		return &Advance{AllDone: true}, nil
	}
	card, err := m.store.LoadExerciseCard(ctx, s.workoutID, s.current)
	if err != nil {
		m.clearIfExpired(key, err)
		return nil, err
	}
	return &Advance{Card: card}, nil
}

// Complete finishes the workout (idempotent against double-finish), returns
// the full summary, and clears the session context.
func (m *Manager) Complete(ctx context.Context, key int64) (*storage.WorkoutSummary, error) {
	s, ok := m.get(key)
	if !ok {
		return nil, ErrNoSession
	}
	s.mu.Lock()
	workoutID := s.workoutID
	s.mu.Unlock()

	summary, err := m.store.FinishWorkout(ctx, workoutID)
	if err != nil {
		m.clearIfExpired(key, err)
		return nil, err
	}
	m.Cancel(key)
	m.log.Info("workout completed",
		"workout_id", workoutID, "total_sets", summary.TotalSets, "tonnage", summary.Tonnage)
	return summary, nil
}

// Cancel drops the session context without touching the store.
func (m *Manager) Cancel(key int64) {
	m.mu.Lock()
	delete(m.sessions, key)
	m.mu.Unlock()
}

// CurrentExercise returns the active exercise id, 0 when none.
func (m *Manager) CurrentExercise(key int64) int64 {
	s, ok := m.get(key)
	if !ok {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func containsID(ids []int64, id int64) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// parseDecimal accepts both dot and comma decimal separators.
func parseDecimal(text string) (float64, error) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing number %q: %w", text, err)
	}
	return v, nil
}
