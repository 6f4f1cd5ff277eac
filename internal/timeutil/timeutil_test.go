package timeutil

import (
	"testing"
	"time"
)

// TestAsUTC verifies conversion changes the zone but never the instant,
// whatever zone the driver handed the value back in.
func TestAsUTC(t *testing.T) {
	instant := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)

	// A timestamptz scan surfaces as the same instant in the process's
	// local zone; converting back must not shift it by the UTC offset.
	local := instant.In(time.Local)
	got := AsUTC(local)
	if got.Location() != time.UTC {
		t.Fatalf("AsUTC location = %v, want UTC", got.Location())
	}
	if !got.Equal(instant) {
		t.Errorf("AsUTC changed the instant: %v -> %v", instant, got)
	}

	berlin, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	zoned := time.Date(2026, 1, 15, 10, 0, 0, 0, berlin)
	got = AsUTC(zoned)
	if got.Hour() != 9 {
		t.Errorf("AsUTC converted hour = %d, want 9 (CET is UTC+1)", got.Hour())
	}
	if !got.Equal(zoned) {
		t.Errorf("AsUTC changed the instant: %v -> %v", zoned, got)
	}

	utc := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	if got := AsUTC(utc); !got.Equal(utc) {
		t.Errorf("AsUTC(utc) = %v, want unchanged", got)
	}
}

// TestUserLocation verifies the UTC fallback for empty and bogus zone names.
func TestUserLocation(t *testing.T) {
	if loc := UserLocation(""); loc != time.UTC {
		t.Errorf("UserLocation(\"\") = %v, want UTC", loc)
	}
	if loc := UserLocation("Not/AZone"); loc != time.UTC {
		t.Errorf("UserLocation(bogus) = %v, want UTC", loc)
	}
	if loc := UserLocation("Europe/Berlin"); loc.String() != "Europe/Berlin" {
		t.Errorf("UserLocation(Europe/Berlin) = %v", loc)
	}
}

// TestFormatDuration verifies the H:MM:SS rendering.
func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{65 * time.Second, "0:01:05"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{25 * time.Hour, "25:00:00"},
		{-time.Minute, "0:00:00"},
		{90*time.Minute + 500*time.Millisecond, "1:30:01"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
