package player

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/blindtest/roomengine/internal/domain/track"
)

func TestPlayer_IsEligibleContributor(t *testing.T) {
	tests := []struct {
		name     string
		player   *Player
		expected bool
	}{
		{
			name:     "no user id",
			player:   New("p1", "Guest", 0),
			expected: false,
		},
		{
			name: "opted in, linked",
			player: func() *Player {
				p := New("p1", "Alice", 0)
				p.UserID = "u1"
				p.Library.IncludeInPool[track.ProviderSpotify] = true
				p.Library.LinkedProviders[track.ProviderSpotify] = ProviderLinked
				return p
			}(),
			expected: true,
		},
		{
			name: "opted in, not linked but synced count positive",
			player: func() *Player {
				p := New("p1", "Bob", 0)
				p.UserID = "u2"
				p.Library.IncludeInPool[track.ProviderDeezer] = true
				p.Library.EstimatedTrackCount[track.ProviderDeezer] = 40
				return p
			}(),
			expected: true,
		},
		{
			name: "opted in, not linked, no synced count",
			player: func() *Player {
				p := New("p1", "Carl", 0)
				p.UserID = "u3"
				p.Library.IncludeInPool[track.ProviderSpotify] = true
				return p
			}(),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.player.IsEligibleContributor())
		})
	}
}

func TestPlayer_AverageCorrectResponseMs(t *testing.T) {
	p := New("p1", "Alice", 0)
	_, ok := p.AverageCorrectResponseMs()
	assert.False(t, ok)

	p.CorrectAnswers = 2
	p.TotalResponseMs = 3000
	avg, ok := p.AverageCorrectResponseMs()
	assert.True(t, ok)
	assert.Equal(t, int64(1500), avg)
}

func TestPlayer_ResetForReplay(t *testing.T) {
	p := New("p1", "Alice", 0)
	p.Score = 500
	p.Streak = 3
	p.MaxStreak = 5
	p.IsReady = true
	p.CorrectAnswers = 4
	p.TotalResponseMs = 1000
	p.UserID = "u1"
	p.Library.IncludeInPool[track.ProviderSpotify] = true

	p.ResetForReplay()

	assert.Zero(t, p.Score)
	assert.Zero(t, p.Streak)
	assert.Zero(t, p.MaxStreak)
	assert.False(t, p.IsReady)
	assert.Zero(t, p.CorrectAnswers)
	assert.Equal(t, "u1", p.UserID)
	assert.True(t, p.Library.IncludeInPool[track.ProviderSpotify])
}
