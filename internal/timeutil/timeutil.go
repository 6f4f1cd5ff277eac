// Package timeutil centralizes the datetime conventions of the store:
// timestamps are persisted and rendered in UTC. Every read site goes through
// AsUTC instead of converting ad hoc.
package timeutil

import (
	"fmt"
	"time"
)

// AsUTC normalizes a stored timestamp to UTC. The timestamptz columns come
// back from the driver as correct instants in the connection's zone, so only
// the zone changes, never the instant.
func AsUTC(t time.Time) time.Time {
	return t.UTC()
}

// UserLocation resolves an IANA zone name, falling back to UTC on anything
// unloadable so a bad setting never breaks rendering.
func UserLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

// FormatDuration renders a duration as H:MM:SS, dropping sub-second noise.
// Negative inputs render as 0:00:00.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d/time.Minute) % 60
	s := int(d/time.Second) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}
