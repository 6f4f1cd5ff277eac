package bot

import (
	"strings"
	"testing"
	"time"

	"github.com/meltforce/liftbot/internal/models"
	"github.com/meltforce/liftbot/internal/plan"
	"github.com/meltforce/liftbot/internal/storage"
)

func kgUser() models.UserRow {
	return models.UserRow{ID: 1, Units: models.UnitsKg, RIRFormat: models.EffortRIR}
}

// TestRenderCard verifies targets, progress and history appear in the card.
func TestRenderCard(t *testing.T) {
	card := &storage.ExerciseCard{
		ExerciseName:      "Bench Press",
		TargetSets:        4,
		TargetRepsDisplay: "6",
		TargetRIRDisplay:  "1.5",
		CompletedSets:     2,
		LastResult:        "01.02.2026: 80.0×6, 80.0×6 (RIR 1.5)",
		Suggested:         80,
	}
	got := renderCard(card, kgUser())
	for _, want := range []string{"Bench Press", "4 × 6", "RIR 1.5", "2 of 4", "Last: 01.02.2026", "Suggested: 80.0 kg"} {
		if !strings.Contains(got, want) {
			t.Errorf("card %q missing %q", got, want)
		}
	}

	card.LastResult = ""
	if got := renderCard(card, kgUser()); strings.Contains(got, "Last:") {
		t.Error("card shows a Last line with no history")
	}
}

// TestRenderPlan verifies the plan preview lists every target and says when
// the user last trained.
func TestRenderPlan(t *testing.T) {
	last := &storage.LastWorkoutDigest{
		StartedAt: time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC),
	}
	got := renderPlan(plan.Default(), kgUser(), last)
	for _, want := range []string{
		"Barbell Squat — 4 × 6 @ RIR 2",
		"Bench Press — 4 × 6 @ RIR 1.5",
		"Lat Pulldown — 3 × 10 @ RIR 2.5",
		"Last workout: 01.02.2026",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("plan preview %q missing %q", got, want)
		}
	}

	got = renderPlan(plan.Default(), kgUser(), nil)
	if !strings.Contains(got, "No workouts yet") {
		t.Errorf("plan preview with no history %q missing the empty-state line", got)
	}
}

// TestRenderSetSaved verifies the stats line and the PR celebration.
func TestRenderSetSaved(t *testing.T) {
	stats := &storage.SetStats{SetIndex: 2, SetsDone: 2, Tonnage: 960, AvgRIR: 1.5}
	got := renderSetSaved(stats, kgUser())
	for _, want := range []string{"Set 2 saved", "tonnage: 960.0 kg", "RIR: 1.5"} {
		if !strings.Contains(got, want) {
			t.Errorf("stats line %q missing %q", got, want)
		}
	}
	if strings.Contains(got, "PR") {
		t.Error("stats line celebrates a PR that did not happen")
	}

	stats.NewPR = &models.PRRow{Weight: 120, Reps: 4}
	got = renderSetSaved(stats, kgUser())
	if !strings.Contains(got, "New PR: 120.0 kg × 4") {
		t.Errorf("stats line %q missing PR celebration", got)
	}
}

// TestEffortDisplayConversion verifies the RPE display flips the stored
// reps-in-reserve scale without touching the value for RIR users.
func TestEffortDisplayConversion(t *testing.T) {
	u := kgUser()
	if effortLabel(u) != "RIR" || effortValue(u, 2) != 2 {
		t.Errorf("RIR user: label=%q value=%v", effortLabel(u), effortValue(u, 2))
	}

	u.RIRFormat = models.EffortRPE
	if effortLabel(u) != "RPE" {
		t.Errorf("RPE label = %q", effortLabel(u))
	}
	if got := effortValue(u, 2); got != 8 {
		t.Errorf("RPE value for RIR 2 = %v, want 8", got)
	}
}

// TestValidHHMM covers the settings time validation.
func TestValidHHMM(t *testing.T) {
	for _, ok := range []string{"09:30", "0:05", "23:59"} {
		if !validHHMM(ok) {
			t.Errorf("validHHMM(%q) = false, want true", ok)
		}
	}
	for _, bad := range []string{"24:00", "09:60", "930", "9:5", "", "ab:cd"} {
		if validHHMM(bad) {
			t.Errorf("validHHMM(%q) = true, want false", bad)
		}
	}
}
