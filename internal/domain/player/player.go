// Package player provides the Player domain entity.
package player

import "github.com/blindtest/roomengine/internal/domain/track"

// ProviderStatus is the link state of one of a player's music providers.
type ProviderStatus string

const (
	ProviderLinked    ProviderStatus = "linked"
	ProviderNotLinked ProviderStatus = "not_linked"
	ProviderExpired   ProviderStatus = "expired"
)

// Library describes a player's personal-library contribution to a
// players_liked pool.
type Library struct {
	IncludeInPool       map[track.Provider]bool
	LinkedProviders     map[track.Provider]ProviderStatus
	EstimatedTrackCount map[track.Provider]int
	SyncStatus          string
	LastError           string
}

// NewLibrary returns an empty, ready-to-use Library.
func NewLibrary() Library {
	return Library{
		IncludeInPool:       make(map[track.Provider]bool),
		LinkedProviders:     make(map[track.Provider]ProviderStatus),
		EstimatedTrackCount: make(map[track.Provider]int),
	}
}

// Player is a participant in a room.
type Player struct {
	ID              string
	UserID          string // empty if anonymous
	DisplayName     string
	JoinedAtMs      int64
	IsReady         bool
	Score           int
	LastRoundScore  int
	Streak          int
	MaxStreak       int
	TotalResponseMs int64
	CorrectAnswers  int
	Library         Library
}

// New creates a player with default state.
func New(id, displayName string, joinedAtMs int64) *Player {
	return &Player{
		ID:          id,
		DisplayName: displayName,
		JoinedAtMs:  joinedAtMs,
		Library:     NewLibrary(),
	}
}

// IsEligibleContributor reports whether this player counts toward
// playersLikedRules.minContributors: a known user with at least one
// provider flagged for contribution that is either linked or has a
// non-empty synced track count.
func (p *Player) IsEligibleContributor() bool {
	if p.UserID == "" {
		return false
	}
	for prov, include := range p.Library.IncludeInPool {
		if !include {
			continue
		}
		if p.Library.LinkedProviders[prov] == ProviderLinked {
			return true
		}
		if p.Library.EstimatedTrackCount[prov] > 0 {
			return true
		}
	}
	return false
}

// AverageCorrectResponseMs returns the mean response time across correct
// answers. With no correct answers it returns (0, false); ranking sorts
// such players after everyone who has at least one.
func (p *Player) AverageCorrectResponseMs() (avg int64, hasCorrect bool) {
	if p.CorrectAnswers == 0 {
		return 0, false
	}
	return p.TotalResponseMs / int64(p.CorrectAnswers), true
}

// ResetForReplay clears round-scoped state while preserving identity and
// library link info, per replayRoom's contract.
func (p *Player) ResetForReplay() {
	p.IsReady = false
	p.Score = 0
	p.LastRoundScore = 0
	p.Streak = 0
	p.MaxStreak = 0
	p.TotalResponseMs = 0
	p.CorrectAnswers = 0
}
