// Package scoring implements the round-scoring function. It is pure: no
// clock, no I/O, same inputs always yield the same outputs.
package scoring

import "math"

// defaultK is the streak divisor used to derive the multiplier when a room
// does not configure its own.
const defaultK = 2

// minSpeedFactor floors the speed bonus so a last-instant correct answer
// still earns a quarter of base score.
const minSpeedFactor = 0.25

// Result is the outcome of applying one round's answer to a player's streak.
type Result struct {
	Earned     int
	NextStreak int
	Multiplier int
}

// Apply scores one player's answer to a round. playingMs is the round's
// total answer window; k is the streak divisor (pass 0 to use the
// reference default of 2). responseMs and streak are ignored on an
// incorrect or missing answer.
func Apply(isCorrect bool, responseMs int64, streak int, baseScore int, playingMs int64, k int) Result {
	if !isCorrect {
		return Result{Earned: 0, NextStreak: 0, Multiplier: 1}
	}
	if k <= 0 {
		k = defaultK
	}

	multiplier := 1 + streak/k
	speed := math.Max(minSpeedFactor, 1-float64(responseMs)/float64(playingMs))
	earned := int(math.Round(float64(baseScore) * float64(multiplier) * speed))

	return Result{
		Earned:     earned,
		NextStreak: streak + 1,
		Multiplier: multiplier,
	}
}
