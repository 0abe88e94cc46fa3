// Package room holds the Room Session aggregate's data shape: the struct
// fields and enums the state machine in internal/app/roomsession mutates.
// Keeping the shape here, decoupled from the machine that drives it, mirrors
// how the track domain separates data from the filters that act on it.
package room

import (
	"github.com/blindtest/roomengine/internal/app/roomerr"
	"github.com/blindtest/roomengine/internal/app/trackpool"
	"github.com/blindtest/roomengine/internal/domain/player"
	"github.com/blindtest/roomengine/internal/domain/track"
)

// Phase is one state of the per-room finite-state automaton.
type Phase string

const (
	PhaseWaiting     Phase = "waiting"
	PhaseCountdown   Phase = "countdown"
	PhasePlaying     Phase = "playing"
	PhaseReveal      Phase = "reveal"
	PhaseLeaderboard Phase = "leaderboard"
	PhaseResults     Phase = "results"
)

// SourceMode selects where the room's track pool is drawn from.
type SourceMode string

const (
	SourcePublicPlaylist SourceMode = "public_playlist"
	SourcePlayersLiked   SourceMode = "players_liked"
)

// RoundMode is the answering mode for one round.
type RoundMode string

const (
	RoundModeMCQ  RoundMode = "mcq"
	RoundModeText RoundMode = "text"
)

// PlayersLikedRules gates when the players-liked pool is considered usable.
type PlayersLikedRules struct {
	MinContributors int
	MinTotalTracks  int
}

// SubmittedAnswer is one player's recorded response to the current round.
type SubmittedAnswer struct {
	Value         string
	SubmittedAtMs int64
}

// RoundAnswers is the per-round submission state: explicit submissions plus
// in-progress drafts that are promoted to submissions when the round closes.
type RoundAnswers struct {
	Submitted map[string]SubmittedAnswer
	Drafts    map[string]string
}

// NewRoundAnswers returns an empty, ready-to-use RoundAnswers.
func NewRoundAnswers() RoundAnswers {
	return RoundAnswers{
		Submitted: make(map[string]SubmittedAnswer),
		Drafts:    make(map[string]string),
	}
}

// ClosedRound is the immutable record produced when a playing round ends:
// the answer track and every submission recorded against it, fed to Scoring
// and to NewReveal.
type ClosedRound struct {
	Round       int
	StartedAtMs int64
	Answers     map[string]SubmittedAnswer
	AnswerTrack track.Track
}

// NewClosedRound promotes any unsubmitted drafts to submissions at closedAtMs
// and freezes the result into a ClosedRound.
func NewClosedRound(round int, startedAtMs int64, answers RoundAnswers, answerTrack track.Track, closedAtMs int64) ClosedRound {
	submitted := make(map[string]SubmittedAnswer, len(answers.Submitted))
	for playerID, ans := range answers.Submitted {
		submitted[playerID] = ans
	}
	for playerID, draft := range answers.Drafts {
		if _, already := submitted[playerID]; already || draft == "" {
			continue
		}
		submitted[playerID] = SubmittedAnswer{Value: draft, SubmittedAtMs: closedAtMs}
	}
	return ClosedRound{Round: round, StartedAtMs: startedAtMs, Answers: submitted, AnswerTrack: answerTrack}
}

// RevealEntry is one player's outcome for the last closed round, shown
// during the reveal phase.
type RevealEntry struct {
	PlayerID    string
	Value       string
	IsCorrect   bool
	EarnedScore int
	Multiplier  int
	Streak      int
	ResponseMs  int64
}

// Reveal is the snapshot of the most recently closed round.
type Reveal struct {
	Round       int
	AnswerTrack track.Track
	Mode        RoundMode
	Choices     []string // only set when Mode is mcq
	Entries     []RevealEntry
}

// NewReveal builds a Reveal from a ClosedRound and the per-player entries
// Scoring produced for it.
func NewReveal(closed ClosedRound, mode RoundMode, choices []string, entries []RevealEntry) *Reveal {
	return &Reveal{
		Round:       closed.Round,
		AnswerTrack: closed.AnswerTrack,
		Mode:        mode,
		Choices:     choices,
		Entries:     entries,
	}
}

// PoolBuildMeta mirrors trackpool.BuildMeta but is the copy the session
// publishes in its own snapshot, so callers never import the trackpool
// package directly for read-only status.
type PoolBuildMeta struct {
	BuildID             string
	Status              trackpool.BuildStatus
	ContributorsCount   int
	MergedTracksCount   int
	PlayableTracksCount int
	LastBuiltAtMs       int64
	ErrorCode           roomerr.Code
}

// ChatMessage is one entry in a room's chat ring buffer.
type ChatMessage struct {
	ID         string
	PlayerID   string
	Text       string
	PostedAtMs int64
}

// Stats are supplementary in-memory counters kept on the session; the
// roomState snapshot does not include them. They have no bearing on scoring
// or phase transitions.
type Stats struct {
	TracksPlayed      int
	PeakPlayerCount   int
	TotalChatMessages int
}

// Session is the Room Session aggregate: everything one room's lifecycle
// needs, without any of the behavior that mutates it.
type Session struct {
	RoomCode    string
	CreatedAtMs int64
	IsPublic    bool

	Players      []*player.Player
	HostPlayerID string

	SourceMode              SourceMode
	PublicPlaylistSelection string
	PlayersLikedRules       PlayersLikedRules

	TrackPool           []track.Track
	DistractorTrackPool []track.Track
	PlayersLikedPool    []track.Track

	TotalRounds  int
	RoundModes   []RoundMode
	RoundChoices map[int][]string

	Phase        Phase
	CurrentRound int
	DeadlineMs   int64
	RoundAnswers map[int]RoundAnswers

	LastReveal *Reveal

	PoolBuild PoolBuildMeta

	Chat []ChatMessage

	Stats Stats
}

// New creates an empty waiting-phase session.
func New(roomCode string, createdAtMs int64, isPublic bool) *Session {
	return &Session{
		RoomCode:     roomCode,
		CreatedAtMs:  createdAtMs,
		IsPublic:     isPublic,
		Phase:        PhaseWaiting,
		RoundChoices: make(map[int][]string),
		RoundAnswers: make(map[int]RoundAnswers),
		PoolBuild:    PoolBuildMeta{Status: trackpool.BuildStatusIdle},
	}
}

// PlayerByID returns the player with the given id, if present.
func (s *Session) PlayerByID(id string) *player.Player {
	for _, p := range s.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// RecomputeHost sets HostPlayerID to the earliest-joined surviving player,
// or clears it when the room is empty, preserving invariant I1.
func (s *Session) RecomputeHost() {
	if len(s.Players) == 0 {
		s.HostPlayerID = ""
		return
	}
	earliest := s.Players[0]
	for _, p := range s.Players[1:] {
		if p.JoinedAtMs < earliest.JoinedAtMs {
			earliest = p
		}
	}
	s.HostPlayerID = earliest.ID
}

// IsHost reports whether playerID is the current host.
func (s *Session) IsHost(playerID string) bool {
	return playerID != "" && playerID == s.HostPlayerID
}

// ChatRingLimit and ChatMessageCharLimit bound the chat ring buffer per I/O
// the spec sets for chat.
const (
	ChatRingLimit        = 120
	ChatMessageCharLimit = 400
)

// AppendChatMessage appends a message, trimming the ring buffer to its
// bound, and truncating the text to ChatMessageCharLimit runes. id is a
// caller-generated "<unixMs>-<6 base36 chars>" identifier (see ids.NewChatMessageID).
func (s *Session) AppendChatMessage(id, playerID, text string, postedAtMs int64) {
	runes := []rune(text)
	if len(runes) > ChatMessageCharLimit {
		runes = runes[:ChatMessageCharLimit]
	}
	s.Chat = append(s.Chat, ChatMessage{ID: id, PlayerID: playerID, Text: string(runes), PostedAtMs: postedAtMs})
	s.Stats.TotalChatMessages++
	if len(s.Chat) > ChatRingLimit {
		s.Chat = s.Chat[len(s.Chat)-ChatRingLimit:]
	}
}

// TrackForRound returns the answer track assigned to a 0-indexed round, or
// the zero value if the pool has not been built yet.
func (s *Session) TrackForRound(round int) (track.Track, bool) {
	if round < 0 || round >= len(s.TrackPool) {
		return track.Track{}, false
	}
	return s.TrackPool[round], true
}
