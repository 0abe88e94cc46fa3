package roomsession

import (
	"math/rand"

	"github.com/blindtest/roomengine/internal/app/profiler"
	"github.com/blindtest/roomengine/internal/domain/room"
	"github.com/blindtest/roomengine/internal/domain/track"
)

// buildMCQChoices implements the §4.3 MCQ build algorithm for round r: it
// ranks the remaining pool by coherence against the round's source track,
// keeps the first four distinct, coherent labels (including the correct
// one), and reports whether four could be assembled at all.
func buildMCQChoices(answerTrack track.Track, laterTracks, distractors []track.Track) ([]string, bool) {
	correct := answerTrack.CanonicalLabel()
	sourceProfile := profiler.Build(profiler.Candidate{Title: answerTrack.Title, Artist: answerTrack.Artist})

	type scored = struct {
		label string
		score int
	}

	seenLabels := map[string]bool{correct: true}
	var candidates []scored

	consider := func(t track.Track) {
		label := t.CanonicalLabel()
		if seenLabels[label] {
			return
		}
		seenLabels[label] = true
		candidateProfile := profiler.Build(profiler.Candidate{Title: t.Title, Artist: t.Artist})
		sameArtist := answerTrack.Artist != "" && t.Artist == answerTrack.Artist
		score := profiler.Score(sourceProfile, candidateProfile, sameArtist)
		if !profiler.Accepts(sourceProfile, candidateProfile, sameArtist) {
			return
		}
		candidates = append(candidates, scored{label: label, score: score})
	}

	for _, t := range laterTracks {
		consider(t)
	}
	for _, t := range distractors {
		consider(t)
	}

	rand.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	stableSortByScoreDesc(candidates)

	choices := []string{correct}
	for _, c := range candidates {
		if len(choices) == 4 {
			break
		}
		choices = append(choices, c.label)
	}

	if len(choices) < 4 {
		return nil, false
	}

	rand.Shuffle(len(choices), func(i, j int) { choices[i], choices[j] = choices[j], choices[i] })
	return choices, true
}

// stableSortByScoreDesc is a small insertion sort: the candidate slices here
// are always small (bounded by pool size, at most a couple hundred), so an
// O(n^2) stable sort avoids pulling in sort.Slice just for this one call.
func stableSortByScoreDesc(items []struct {
	label string
	score int
}) {
	for i := 1; i < len(items); i++ {
		j := i
		for j > 0 && items[j-1].score < items[j].score {
			items[j-1], items[j] = items[j], items[j-1]
			j--
		}
	}
}

// buildRoundPlan assigns alternating round modes starting with mcq, per §3.
func buildRoundPlan(totalRounds int) []room.RoundMode {
	modes := make([]room.RoundMode, totalRounds)
	for i := range modes {
		if i%2 == 0 {
			modes[i] = room.RoundModeMCQ
		} else {
			modes[i] = room.RoundModeText
		}
	}
	return modes
}
