// Package plan defines exercise prescriptions that get materialized into a
// workout's exercise assignments.
package plan

import "strconv"

// Exercise is one prescribed entry of a plan. The display strings win over
// the numeric targets when rendering, since reps may be a range like "8-10".
type Exercise struct {
	Name              string
	TargetSets        int
	TargetReps        *int
	TargetRIR         *float64
	TargetRepsDisplay string
	TargetRIRDisplay  string
	MuscleGroup       string
}

// RepsText renders the rep target for display, preferring the display string.
func (e Exercise) RepsText() string {
	if e.TargetRepsDisplay != "" {
		return e.TargetRepsDisplay
	}
	if e.TargetReps == nil {
		return "-"
	}
	return strconv.Itoa(*e.TargetReps)
}

// RIRText renders the effort target for display, preferring the display string.
func (e Exercise) RIRText() string {
	if e.TargetRIRDisplay != "" {
		return e.TargetRIRDisplay
	}
	if e.TargetRIR == nil {
		return "-"
	}
	return strconv.FormatFloat(*e.TargetRIR, 'g', -1, 64)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

// Default returns the canonical plan materialized into every new workout.
// Returned as a fresh slice so callers may not mutate the canonical copy.
func Default() []Exercise {
	return []Exercise{
		{Name: "Barbell Squat", TargetSets: 4, TargetReps: intPtr(6), TargetRIR: floatPtr(2.0), MuscleGroup: "Legs"},
		{Name: "Bench Press", TargetSets: 4, TargetReps: intPtr(6), TargetRIR: floatPtr(1.5), MuscleGroup: "Chest"},
		{Name: "Lat Pulldown", TargetSets: 3, TargetReps: intPtr(10), TargetRIR: floatPtr(2.5), MuscleGroup: "Back"},
	}
}
