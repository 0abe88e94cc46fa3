// Package roomsession implements the Room Session aggregate's behavior: the
// lazily-advanced state machine, MCQ choice caching, and chat ring buffer
// described in the room state machine component design. The data shape it
// mutates lives in internal/domain/room; this package is the part of the
// teacher's playback.Controller idiom (locking discipline, event-driven
// naming) reinterpreted around progress(now) instead of real timers.
package roomsession

import (
	"sync"

	"github.com/blindtest/roomengine/internal/app/clock"
	"github.com/blindtest/roomengine/internal/app/ids"
	"github.com/blindtest/roomengine/internal/app/matching"
	"github.com/blindtest/roomengine/internal/app/roomerr"
	"github.com/blindtest/roomengine/internal/app/scoring"
	"github.com/blindtest/roomengine/internal/app/trackpool"
	"github.com/blindtest/roomengine/internal/domain/player"
	"github.com/blindtest/roomengine/internal/domain/room"
	"github.com/blindtest/roomengine/internal/domain/track"
)

// Config holds the per-store timing and scoring parameters a room's engine
// is built with. Defaults mirror the reference timing table.
type Config struct {
	CountdownMs   int64
	PlayingMs     int64
	RevealMs      int64
	LeaderboardMs int64
	BaseScore     int
	ScoringK      int
	MaxRounds     int
	PoolMinSize   int
}

// DefaultConfig returns the reference timing defaults.
func DefaultConfig() Config {
	return Config{
		CountdownMs:   3000,
		PlayingMs:     12000,
		RevealMs:      4000,
		LeaderboardMs: 3000,
		BaseScore:     1000,
		ScoringK:      2,
		MaxRounds:     10,
	}
}

// Engine owns one room's Session and the collaborators its operations need:
// a clock, a player-id generator, track/library sources, and a romanizer.
// Every exported method is safe for concurrent use; they all serialize
// through mu, and progress(now) runs at the top of every one of them.
type Engine struct {
	mu sync.Mutex

	session *room.Session
	cfg     Config
	clk     clock.Clock

	playerIDs *ids.PlayerIDGenerator

	trackSource      trackpool.TrackPoolSource
	librarySource    trackpool.LibrarySource
	suggestionSource trackpool.BulkSuggestionSource
	romanizer        matching.Romanizer
	likedJob         *trackpool.PlayersLikedJob
}

// New creates an Engine for a freshly allocated room.
func New(roomCode string, createdAtMs int64, isPublic bool, cfg Config, clk clock.Clock, trackSource trackpool.TrackPoolSource, librarySource trackpool.LibrarySource, suggestionSource trackpool.BulkSuggestionSource, romanizer matching.Romanizer) *Engine {
	if romanizer == nil {
		romanizer = matching.NoopRomanizer{}
	}
	e := &Engine{
		session:          room.New(roomCode, createdAtMs, isPublic),
		cfg:              cfg,
		clk:              clk,
		playerIDs:        &ids.PlayerIDGenerator{},
		trackSource:      trackSource,
		librarySource:    librarySource,
		suggestionSource: suggestionSource,
		romanizer:        romanizer,
	}
	if librarySource != nil {
		e.likedJob = trackpool.NewPlayersLikedJob(librarySource, clk.NowMs)
	}
	return e
}

// RoomCode returns the room's immutable code.
func (e *Engine) RoomCode() string {
	return e.session.RoomCode
}

// progress advances the state machine lazily: it closes any expired round
// and steps forward until a state with a future deadline is reached, or
// results is reached. Each step starts at the deadline that expired, so
// one late call reaches the same state as a series of timely ones. Must be
// called with mu held.
func (e *Engine) progress(now int64) {
	s := e.session
	for {
		switch s.Phase {
		case room.PhaseCountdown:
			if now < s.DeadlineMs {
				return
			}
			e.enterPlaying(s.DeadlineMs)
		case room.PhasePlaying:
			if now < s.DeadlineMs {
				return
			}
			e.closeRound(s.DeadlineMs)
			e.enterReveal(s.DeadlineMs)
		case room.PhaseReveal:
			if now < s.DeadlineMs {
				return
			}
			e.enterLeaderboard(s.DeadlineMs)
		case room.PhaseLeaderboard:
			if now < s.DeadlineMs {
				return
			}
			if s.CurrentRound+1 < s.TotalRounds {
				s.CurrentRound++
				e.enterPlaying(s.DeadlineMs)
			} else {
				s.Phase = room.PhaseResults
				return
			}
		default:
			return
		}
	}
}

func (e *Engine) enterPlaying(now int64) {
	s := e.session
	s.Phase = room.PhasePlaying
	s.DeadlineMs = now + e.cfg.PlayingMs
	if _, exists := s.RoundAnswers[s.CurrentRound]; !exists {
		s.RoundAnswers[s.CurrentRound] = room.NewRoundAnswers()
	}
	e.ensureRoundChoicesBuilt(s.CurrentRound)
}

// ensureRoundChoicesBuilt builds and caches MCQ choices for an mcq round,
// downgrading to text if fewer than four coherent options can be found
// (invariant I3).
func (e *Engine) ensureRoundChoicesBuilt(round int) {
	s := e.session
	if s.RoundModes[round] != room.RoundModeMCQ {
		return
	}
	if _, cached := s.RoundChoices[round]; cached {
		return
	}
	answer, ok := s.TrackForRound(round)
	if !ok {
		return
	}
	laterTracks := s.TrackPool[min(round+1, len(s.TrackPool)):]
	choices, assembled := buildMCQChoices(answer, laterTracks, s.DistractorTrackPool)
	if !assembled {
		s.RoundModes[round] = room.RoundModeText
		return
	}
	s.RoundChoices[round] = choices
}

func (e *Engine) closeRound(now int64) {
	s := e.session
	round := s.CurrentRound
	answerTrack, _ := s.TrackForRound(round)
	startedAtMs := s.DeadlineMs - e.cfg.PlayingMs
	mode := s.RoundModes[round]
	choices := s.RoundChoices[round]

	closed := room.NewClosedRound(round, startedAtMs, s.RoundAnswers[round], answerTrack, now)
	s.RoundAnswers[round] = room.RoundAnswers{Submitted: closed.Answers, Drafts: s.RoundAnswers[round].Drafts}

	var entries []room.RevealEntry
	for _, p := range s.Players {
		submitted, hasSubmission := closed.Answers[p.ID]
		isCorrect := false
		responseMs := int64(0)
		if hasSubmission {
			responseMs = submitted.SubmittedAtMs - closed.StartedAtMs
			isCorrect = e.isAnswerCorrect(mode, submitted.Value, closed.AnswerTrack)
		}

		result := scoring.Apply(isCorrect, responseMs, p.Streak, e.cfg.BaseScore, e.cfg.PlayingMs, e.cfg.ScoringK)
		p.Score += result.Earned
		p.LastRoundScore = result.Earned
		p.Streak = result.NextStreak
		if p.Streak > p.MaxStreak {
			p.MaxStreak = p.Streak
		}
		if isCorrect {
			p.CorrectAnswers++
			p.TotalResponseMs += responseMs
		}

		entries = append(entries, room.RevealEntry{
			PlayerID:    p.ID,
			Value:       submitted.Value,
			IsCorrect:   isCorrect,
			EarnedScore: result.Earned,
			Multiplier:  result.Multiplier,
			Streak:      p.Streak,
			ResponseMs:  responseMs,
		})
	}

	s.LastReveal = room.NewReveal(closed, mode, choices, entries)
	s.Stats.TracksPlayed++
}

func (e *Engine) isAnswerCorrect(mode room.RoundMode, submission string, answerTrack track.Track) bool {
	if mode == room.RoundModeMCQ {
		return matching.MatchMCQ(submission, answerTrack.CanonicalLabel())
	}
	return matching.MatchText(submission, matching.Track{Title: answerTrack.Title, Artist: answerTrack.Artist}, e.romanizer)
}

func (e *Engine) enterReveal(now int64) {
	s := e.session
	s.Phase = room.PhaseReveal
	s.DeadlineMs = now + e.cfg.RevealMs
}

func (e *Engine) enterLeaderboard(now int64) {
	s := e.session
	s.Phase = room.PhaseLeaderboard
	s.DeadlineMs = now + e.cfg.LeaderboardMs
	for _, p := range s.Players {
		p.IsReady = false
	}
}

