package reminder

import (
	"strings"
	"testing"
)

// TestSpec verifies the cron expression carries the timezone and fires at
// the requested minute and hour on the requested days.
func TestSpec(t *testing.T) {
	got, err := Spec("Europe/Berlin", "09:30", "MON-FRI")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := "CRON_TZ=Europe/Berlin 30 9 * * MON-FRI"
	if got != want {
		t.Errorf("Spec = %q, want %q", got, want)
	}

	got, err = Spec("UTC", "7:05", "SAT,SUN")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(got, "5 7 * * SAT,SUN") {
		t.Errorf("Spec = %q, want minute 5 hour 7 on weekends", got)
	}
}

// TestSpecRejectsBadInput covers malformed times and unknown zones.
func TestSpecRejectsBadInput(t *testing.T) {
	cases := []struct {
		tz   string
		hhmm string
	}{
		{"Europe/Berlin", "25:00"},
		{"Europe/Berlin", "09:60"},
		{"Europe/Berlin", "930"},
		{"Europe/Berlin", "nine thirty"},
		{"Mars/OlympusMons", "09:30"},
	}
	for _, c := range cases {
		if _, err := Spec(c.tz, c.hhmm, "MON-FRI"); err == nil {
			t.Errorf("Spec(%q, %q) accepted bad input", c.tz, c.hhmm)
		}
	}
}

// TestParseHHMM verifies bounds on the hour and minute.
func TestParseHHMM(t *testing.T) {
	hour, minute, err := parseHHMM(" 23:59 ")
	if err != nil || hour != 23 || minute != 59 {
		t.Errorf("parseHHMM(23:59) = %d,%d,%v", hour, minute, err)
	}
	if _, _, err := parseHHMM("00:00"); err != nil {
		t.Errorf("parseHHMM(00:00) rejected: %v", err)
	}
	if _, _, err := parseHHMM("24:00"); err == nil {
		t.Error("parseHHMM(24:00) accepted")
	}
}
