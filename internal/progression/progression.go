// Package progression holds the pure training-math used across the bot:
// one-rep-max estimation and the next-weight suggestion heuristic.
package progression

// OneRepMax estimates the maximal single-repetition weight using the Epley
// formula. A single rep (or fewer) is the lift itself.
func OneRepMax(weight float64, reps int) float64 {
	if reps <= 1 {
		return weight
	}
	return weight * (1 + float64(reps)/30)
}

// DefaultStartWeight is suggested when an exercise has no history yet.
const DefaultStartWeight = 20.0

// SuggestNextWeight proposes a working weight from the last recorded weight
// and the achieved-vs-target RIR gap, moving 2.5 units per RIR of slack.
// This is a simple linear autoregulation heuristic, kept as a replaceable
// strategy rather than anything learned.
func SuggestNextWeight(lastWeight, achievedRIR, targetRIR *float64) float64 {
	if lastWeight == nil {
		return DefaultStartWeight
	}
	adjustment := 0.0
	if achievedRIR != nil && targetRIR != nil {
		adjustment = (*targetRIR - *achievedRIR) * 2.5
	}
	next := *lastWeight + adjustment
	if next < 0 {
		return 0
	}
	return next
}
