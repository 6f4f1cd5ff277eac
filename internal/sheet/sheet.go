// Package sheet reads and writes training history as tabular rows with the
// columns Date, Workout, Exercise, Set, Reps, Weight, RIR, Notes. CSV and
// XLSX carriers share the same Row shape and parsing rules.
//
// Import parsing is deliberately tolerant: numeric fields are the first
// embedded number found in the cell (comma decimal separators accepted), and
// rows without a parseable integer Set and Reps are skipped rather than
// failing the run. Skipped rows still feed the per-exercise target-set
// heuristic so a sheet with warm-up annotations keeps sensible targets.
package sheet

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/meltforce/liftbot/internal/storage"
)

// Columns is the canonical header, in order.
var Columns = []string{"Date", "Workout", "Exercise", "Set", "Reps", "Weight", "RIR", "Notes"}

// Row is one raw spreadsheet row, all cells as text.
type Row struct {
	Date     string
	Workout  string
	Exercise string
	Set      string
	Reps     string
	Weight   string
	RIR      string
	Notes    string
}

var numberPattern = regexp.MustCompile(`-?\d+(?:[.,]\d+)?`)

// firstNumber extracts the first embedded number from free text, normalizing
// a comma decimal separator. Returns false when the cell has none.
func firstNumber(text string) (float64, bool) {
	match := numberPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.ReplaceAll(match, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// firstInt extracts the first embedded number and requires it to be integral.
func firstInt(text string) (int, bool) {
	v, ok := firstNumber(text)
	if !ok || v != float64(int(v)) {
		return 0, false
	}
	return int(v), true
}

var dateLayouts = []string{
	"2006-01-02",
	"02.01.2006",
	"2006-01-02 15:04:05",
	"02.01.2006 15:04",
	time.RFC3339,
}

// parseDate interprets naive date values in loc, then normalizes to UTC.
func parseDate(text string, loc *time.Location) (time.Time, bool) {
	text = strings.TrimSpace(text)
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, text, loc); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// ParseResult is the outcome of turning raw rows into importable workouts.
type ParseResult struct {
	Workouts    []storage.ImportWorkout
	RowsSkipped int
}

type workoutKey struct {
	name string
	date string
}

// Parse groups raw rows into one workout per (workout name, date) pair.
// Rows without a parseable date or exercise are skipped outright; rows with
// both but lacking an integer Set and Reps are skipped as sets yet still
// raise the exercise's target-set count when their Set cell parses.
func Parse(rows []Row, loc *time.Location) ParseResult {
	if loc == nil {
		loc = time.UTC
	}

	grouped := make(map[workoutKey]*storage.ImportWorkout)
	var order []workoutKey
	var skipped int

	for _, row := range rows {
		exercise := strings.TrimSpace(row.Exercise)
		date, dateOK := parseDate(row.Date, loc)
		if exercise == "" || !dateOK {
			skipped++
			continue
		}

		key := workoutKey{name: strings.TrimSpace(row.Workout), date: date.Format("2006-01-02")}
		w, ok := grouped[key]
		if !ok {
			w = &storage.ImportWorkout{
				Name:       key.name,
				StartedAt:  date,
				TargetSets: make(map[string]int),
			}
			grouped[key] = w
			order = append(order, key)
		}

		setIndex, setOK := firstInt(row.Set)
		if setOK && setIndex > w.TargetSets[exercise] {
			w.TargetSets[exercise] = setIndex
		} else if _, seen := w.TargetSets[exercise]; !seen {
			w.TargetSets[exercise] = 0
		}

		reps, repsOK := firstInt(row.Reps)
		if !setOK || !repsOK {
			skipped++
			continue
		}

		weight, ok := firstNumber(row.Weight)
		if !ok {
			weight = 0
		}
		set := storage.ImportSet{
			Exercise: exercise,
			SetIndex: setIndex,
			Reps:     reps,
			Weight:   weight,
		}
		if rir, ok := firstNumber(row.RIR); ok {
			set.RIR = &rir
		}
		if note := strings.TrimSpace(row.Notes); note != "" {
			set.Note = &note
		}
		w.Sets = append(w.Sets, set)
	}

	sort.SliceStable(order, func(i, j int) bool {
		a, b := grouped[order[i]], grouped[order[j]]
		return a.StartedAt.Before(b.StartedAt)
	})

	result := ParseResult{RowsSkipped: skipped}
	for _, key := range order {
		w := grouped[key]
		for name, target := range w.TargetSets {
			if target == 0 {
				w.TargetSets[name] = 1
			}
		}
		result.Workouts = append(result.Workouts, *w)
	}
	return result
}

// rowFromCells maps one data line onto a Row using the header's column
// positions. Missing trailing cells read as empty.
func rowFromCells(index map[string]int, cells []string) Row {
	cell := func(name string) string {
		i, ok := index[name]
		if !ok || i >= len(cells) {
			return ""
		}
		return cells[i]
	}
	return Row{
		Date:     cell("date"),
		Workout:  cell("workout"),
		Exercise: cell("exercise"),
		Set:      cell("set"),
		Reps:     cell("reps"),
		Weight:   cell("weight"),
		RIR:      cell("rir"),
		Notes:    cell("notes"),
	}
}

// headerIndex maps lowercased header names to column positions.
func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return index
}
