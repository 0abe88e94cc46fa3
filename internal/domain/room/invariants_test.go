package room

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blindtest/roomengine/internal/domain/player"
	"github.com/blindtest/roomengine/internal/domain/track"
)

func TestCheckHostReferencesCurrentPlayer(t *testing.T) {
	s := New("ABCDEF", 0, false)
	assert.True(t, s.CheckHostReferencesCurrentPlayer())

	s.HostPlayerID = "p1"
	assert.False(t, s.CheckHostReferencesCurrentPlayer())

	s.Players = append(s.Players, player.New("p1", "Alice", 0))
	assert.True(t, s.CheckHostReferencesCurrentPlayer())
}

func TestCheckRoundPlanShape(t *testing.T) {
	s := New("ABCDEF", 0, false)
	s.TotalRounds = 3
	s.RoundModes = []RoundMode{RoundModeMCQ, RoundModeText, RoundModeMCQ}
	assert.True(t, s.CheckRoundPlanShape())

	s.Phase = PhasePlaying
	assert.False(t, s.CheckRoundPlanShape())

	s.TrackPool = make([]track.Track, 3)
	assert.True(t, s.CheckRoundPlanShape())
}

func TestCheckMCQChoices(t *testing.T) {
	assert.True(t, CheckMCQChoices([]string{"a", "b", "c", "d"}, "a"))
	assert.False(t, CheckMCQChoices([]string{"a", "b", "c"}, "a"))
	assert.False(t, CheckMCQChoices([]string{"a", "a", "c", "d"}, "a"))
	assert.False(t, CheckMCQChoices([]string{"a", "b", "c", "d"}, "z"))
}

func TestCheckAnswerTiming(t *testing.T) {
	assert.True(t, CheckAnswerTiming(1000, 5000, 1000))
	assert.True(t, CheckAnswerTiming(1000, 5000, 6000))
	assert.False(t, CheckAnswerTiming(1000, 5000, 999))
	assert.False(t, CheckAnswerTiming(1000, 5000, 6001))
}

func TestCheckStreakBounds(t *testing.T) {
	assert.True(t, CheckStreakBounds(3, 5))
	assert.True(t, CheckStreakBounds(5, 5))
	assert.False(t, CheckStreakBounds(6, 5))
	assert.False(t, CheckStreakBounds(-1, 0))
}

func TestCheckPhaseTransition(t *testing.T) {
	assert.True(t, CheckPhaseTransition(PhaseWaiting, PhaseCountdown))
	assert.True(t, CheckPhaseTransition(PhaseCountdown, PhasePlaying))
	assert.True(t, CheckPhaseTransition(PhaseLeaderboard, PhasePlaying))
	assert.True(t, CheckPhaseTransition(PhaseLeaderboard, PhaseResults))
	assert.True(t, CheckPhaseTransition(PhaseResults, PhaseWaiting))
	assert.False(t, CheckPhaseTransition(PhasePlaying, PhaseWaiting))
	assert.False(t, CheckPhaseTransition(PhaseResults, PhasePlaying))
}

func TestCheckRoomDestroyedWhenEmpty(t *testing.T) {
	s := New("ABCDEF", 0, false)
	assert.False(t, s.CheckRoomDestroyedWhenEmpty())

	s.Players = append(s.Players, player.New("p1", "Alice", 0))
	assert.True(t, s.CheckRoomDestroyedWhenEmpty())
}
