package plan

import "testing"

// TestDefaultPlan verifies the canonical plan contents and that callers get
// independent copies.
func TestDefaultPlan(t *testing.T) {
	p := Default()
	if len(p) != 3 {
		t.Fatalf("Default() has %d entries, want 3", len(p))
	}
	if p[0].Name != "Barbell Squat" || p[0].TargetSets != 4 {
		t.Errorf("first entry = %+v, want Barbell Squat with 4 sets", p[0])
	}
	if p[2].Name != "Lat Pulldown" || *p[2].TargetReps != 10 {
		t.Errorf("third entry = %+v, want Lat Pulldown with 10 reps", p[2])
	}

	p[0].Name = "mutated"
	if Default()[0].Name != "Barbell Squat" {
		t.Error("mutating the returned slice leaked into the canonical plan")
	}
}

// TestDisplayFallbacks verifies display strings win over numeric targets and
// that missing targets render as a dash.
func TestDisplayFallbacks(t *testing.T) {
	reps := 8
	rir := 1.5

	e := Exercise{TargetReps: &reps, TargetRIR: &rir}
	if got := e.RepsText(); got != "8" {
		t.Errorf("RepsText() = %q, want %q", got, "8")
	}
	if got := e.RIRText(); got != "1.5" {
		t.Errorf("RIRText() = %q, want %q", got, "1.5")
	}

	e.TargetRepsDisplay = "8-10"
	e.TargetRIRDisplay = "to failure"
	if got := e.RepsText(); got != "8-10" {
		t.Errorf("RepsText() with display = %q, want %q", got, "8-10")
	}
	if got := e.RIRText(); got != "to failure" {
		t.Errorf("RIRText() with display = %q, want %q", got, "to failure")
	}

	empty := Exercise{}
	if got := empty.RepsText(); got != "-" {
		t.Errorf("RepsText() empty = %q, want %q", got, "-")
	}
	if got := empty.RIRText(); got != "-" {
		t.Errorf("RIRText() empty = %q, want %q", got, "-")
	}
}
