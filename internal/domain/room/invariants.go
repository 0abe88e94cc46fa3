package room

// CheckHostReferencesCurrentPlayer is invariant I1.
func (s *Session) CheckHostReferencesCurrentPlayer() bool {
	if s.HostPlayerID == "" {
		return len(s.Players) == 0
	}
	return s.PlayerByID(s.HostPlayerID) != nil
}

// CheckRoundPlanShape is invariant I2.
func (s *Session) CheckRoundPlanShape() bool {
	if len(s.RoundModes) != s.TotalRounds {
		return false
	}
	if s.Phase != PhaseWaiting && len(s.TrackPool) != s.TotalRounds {
		return false
	}
	return true
}

// CheckMCQChoices is invariant I3 for one round's built choices, given the
// round's answer track canonical label.
func CheckMCQChoices(choices []string, correctLabel string) bool {
	if len(choices) != 4 {
		return false
	}
	seen := make(map[string]int, len(choices))
	correctCount := 0
	for _, c := range choices {
		seen[c]++
		if c == correctLabel {
			correctCount++
		}
	}
	if correctCount != 1 {
		return false
	}
	for _, n := range seen {
		if n != 1 {
			return false
		}
	}
	return true
}

// CheckAnswerTiming is invariant I4 for one submitted answer.
func CheckAnswerTiming(roundStartedAtMs, playingMs, submittedAtMs int64) bool {
	return submittedAtMs >= roundStartedAtMs && submittedAtMs <= roundStartedAtMs+playingMs
}

// CheckStreakBounds is invariant I5's streak half; score monotonicity is
// enforced structurally (scoring.Apply never subtracts), so only the
// streak/maxStreak relationship needs an explicit check here.
func CheckStreakBounds(streak, maxStreak int) bool {
	return maxStreak >= streak && streak >= 0
}

// phaseOrder fixes the monotonic sequence invariant I6 checks against.
var phaseOrder = map[Phase]int{
	PhaseWaiting:     0,
	PhaseCountdown:   1,
	PhasePlaying:     2,
	PhaseReveal:      3,
	PhaseLeaderboard: 4,
	PhaseResults:     5,
}

// CheckPhaseTransition is invariant I6: true for any forward step in the
// canonical sequence, for the leaderboard->playing repeat of a new round,
// and for a replay's results->waiting reset.
func CheckPhaseTransition(from, to Phase) bool {
	if from == to {
		return true
	}
	if from == PhaseResults {
		return to == PhaseWaiting
	}
	if from == PhaseLeaderboard && to == PhasePlaying {
		return true
	}
	return phaseOrder[to] > phaseOrder[from]
}

// CheckRoomDestroyedWhenEmpty is invariant I8, which the store enforces in
// RemovePlayer: a session with zero players must not remain registered. Exposed here as a
// predicate the store can assert against.
func (s *Session) CheckRoomDestroyedWhenEmpty() bool {
	return len(s.Players) > 0
}
