package roomsession

import (
	"context"
	"sort"
	"strconv"

	zlog "github.com/rs/zerolog/log"

	"github.com/blindtest/roomengine/internal/app/matching"
	"github.com/blindtest/roomengine/internal/app/trackpool"
	"github.com/blindtest/roomengine/internal/domain/player"
	"github.com/blindtest/roomengine/internal/domain/room"
	"github.com/blindtest/roomengine/internal/domain/track"
)

// RoomAnswerSuggestionLimit is the default cap on roomAnswerSuggestions,
// overridable per call.
const RoomAnswerSuggestionLimit = 1000

const chatMessageWindow = 80
const leaderboardWindow = 10

// PlayerView is one player's entry in a snapshot's players[] list.
type PlayerView struct {
	PlayerID                string
	DisplayName             string
	IsReady                 bool
	HasAnsweredCurrentRound bool
	IsHost                  bool
	CanContributeLibrary    bool
	LibraryContribution     map[track.Provider]bool
}

// MediaView is the currently playable track's embed/playback info.
type MediaView struct {
	Provider  track.Provider
	TrackID   string
	SourceURL string
	EmbedURL  string
}

// RevealView is the detailed payload shown during reveal/leaderboard/results.
type RevealView struct {
	Round          int
	TrackID        string
	Title          string
	TitleRomaji    string
	Artist         string
	ArtistRomaji   string
	Provider       track.Provider
	Mode           room.RoundMode
	AcceptedAnswer string
	PreviewURL     string
	SourceURL      string
	EmbedURL       string
	Choices        []string
	PlayerAnswers  []room.RevealEntry
}

// LeaderboardEntry is one ranked row of the top-N leaderboard view.
type LeaderboardEntry struct {
	PlayerID                string
	DisplayName             string
	Score                   int
	Rank                    int
	HasAnsweredCurrentRound bool
}

// Snapshot is the full roomState payload, per §6.
type Snapshot struct {
	RoomCode string
	State    room.Phase
	Round    int
	Mode     room.RoundMode
	Choices  []string

	ServerNowMs  int64
	PlayerCount  int
	HostPlayerID string
	Players      []PlayerView

	ReadyCount        int
	AllReady          bool
	CanStart          bool
	IsResolvingTracks bool
	PoolSize          int
	CategoryQuery     string
	SourceMode        room.SourceMode
	SourceConfig      room.PlayersLikedRules

	PoolBuild   room.PoolBuildMeta
	TotalRounds int
	DeadlineMs  int64

	PreviewURL string
	Media      *MediaView

	Reveal *RevealView

	Leaderboard []LeaderboardEntry

	ChatMessages      []room.ChatMessage
	AnswerSuggestions []string
}

// Snapshot runs progress(now) and returns the live roomState view.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clk.NowMs()
	e.progress(now)
	return e.buildSnapshot(now)
}

func (e *Engine) buildSnapshot(now int64) Snapshot {
	s := e.session

	answerTrack, hasAnswer := s.TrackForRound(s.CurrentRound)
	mode := room.RoundMode("")
	if s.CurrentRound < len(s.RoundModes) {
		mode = s.RoundModes[s.CurrentRound]
	}

	roundAnswers := s.RoundAnswers[s.CurrentRound]

	players := make([]PlayerView, 0, len(s.Players))
	readyCount := 0
	for _, p := range s.Players {
		_, hasAnswered := roundAnswers.Submitted[p.ID]
		if p.IsReady {
			readyCount++
		}
		players = append(players, PlayerView{
			PlayerID:                p.ID,
			DisplayName:             p.DisplayName,
			IsReady:                 p.IsReady,
			HasAnsweredCurrentRound: hasAnswered,
			IsHost:                  s.IsHost(p.ID),
			CanContributeLibrary:    p.IsEligibleContributor(),
			LibraryContribution:     p.Library.IncludeInPool,
		})
	}
	allReady := len(s.Players) > 0 && readyCount == len(s.Players)

	snap := Snapshot{
		RoomCode:     s.RoomCode,
		State:        s.Phase,
		Round:        s.CurrentRound,
		Mode:         mode,
		ServerNowMs:  now,
		PlayerCount:  len(s.Players),
		HostPlayerID: s.HostPlayerID,
		Players:      players,

		ReadyCount:        readyCount,
		AllReady:          allReady,
		CanStart:          s.Phase == room.PhaseWaiting && len(s.Players) > 0,
		IsResolvingTracks: s.PoolBuild.Status == trackpool.BuildStatusBuilding,
		PoolSize:          len(s.TrackPool),
		CategoryQuery:     s.PublicPlaylistSelection,
		SourceMode:        s.SourceMode,
		SourceConfig:      s.PlayersLikedRules,

		PoolBuild:   s.PoolBuild,
		TotalRounds: s.TotalRounds,
		DeadlineMs:  s.DeadlineMs,

		ChatMessages:      windowTail(s.Chat, chatMessageWindow),
		AnswerSuggestions: e.buildAnswerSuggestions(RoomAnswerSuggestionLimit),
	}

	if mode == room.RoundModeMCQ {
		snap.Choices = s.RoundChoices[s.CurrentRound]
	}

	if s.Phase == room.PhasePlaying && hasAnswer {
		snap.PreviewURL = answerTrack.PreviewURL
		snap.Media = &MediaView{
			Provider:  answerTrack.Provider,
			TrackID:   answerTrack.ID,
			SourceURL: answerTrack.SourceURL,
			EmbedURL:  buildEmbedURL(s.RoomCode, s.CurrentRound, answerTrack),
		}
	}

	if (s.Phase == room.PhaseReveal || s.Phase == room.PhaseLeaderboard || s.Phase == room.PhaseResults) && s.LastReveal != nil {
		snap.Reveal = e.buildRevealView(s.LastReveal)
	}

	if s.Phase == room.PhaseLeaderboard || s.Phase == room.PhaseResults {
		snap.Leaderboard = buildLeaderboard(s, roundAnswers)
	}

	return snap
}

func (e *Engine) buildRevealView(reveal *room.Reveal) *RevealView {
	t := reveal.AnswerTrack
	titleRomaji, _ := e.romanizer.Cached(t.Title)
	artistRomaji, _ := e.romanizer.Cached(t.Artist)

	return &RevealView{
		Round:          reveal.Round,
		TrackID:        t.ID,
		Title:          t.Title,
		TitleRomaji:    titleRomaji,
		Artist:         t.Artist,
		ArtistRomaji:   artistRomaji,
		Provider:       t.Provider,
		Mode:           reveal.Mode,
		AcceptedAnswer: t.CanonicalLabel(),
		PreviewURL:     t.PreviewURL,
		SourceURL:      t.SourceURL,
		EmbedURL:       buildEmbedURL(e.session.RoomCode, reveal.Round, t),
		Choices:        reveal.Choices,
		PlayerAnswers:  reveal.Entries,
	}
}

func buildEmbedURL(roomCode string, round int, t track.Track) string {
	if t.Provider != track.ProviderYouTube {
		return ""
	}
	offset := youtubeStartOffsetSec(roomCode, round, t)
	url := "https://www.youtube.com/embed/" + t.ID
	if offset > 0 {
		url += "?start=" + strconv.Itoa(offset)
	}
	return url
}

func buildLeaderboard(s *room.Session, roundAnswers room.RoundAnswers) []LeaderboardEntry {
	ranked := make([]*player.Player, len(s.Players))
	copy(ranked, s.Players)
	sortPlayersByRank(ranked)

	limit := leaderboardWindow
	if limit > len(ranked) {
		limit = len(ranked)
	}
	out := make([]LeaderboardEntry, 0, limit)
	for i := 0; i < limit; i++ {
		p := ranked[i]
		_, hasAnswered := roundAnswers.Submitted[p.ID]
		out = append(out, LeaderboardEntry{
			PlayerID:                p.ID,
			DisplayName:             p.DisplayName,
			Score:                   p.Score,
			Rank:                    i + 1,
			HasAnsweredCurrentRound: hasAnswered,
		})
	}
	return out
}

// sortPlayersByRank orders players per the §4.7 ranking rule: score desc,
// maxStreak desc, average correct-response time asc (zero-correct players
// last), ties by join order.
func sortPlayersByRank(players []*player.Player) {
	sort.SliceStable(players, func(i, j int) bool {
		a, b := players[i], players[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.MaxStreak != b.MaxStreak {
			return a.MaxStreak > b.MaxStreak
		}
		avgA, hasA := a.AverageCorrectResponseMs()
		avgB, hasB := b.AverageCorrectResponseMs()
		if hasA != hasB {
			return hasA
		}
		if hasA && avgA != avgB {
			return avgA < avgB
		}
		return a.JoinedAtMs < b.JoinedAtMs
	})
}

// Results returns the final ranking when the room has reached results, or
// the in-progress state plus the current ranking otherwise.
func (e *Engine) Results() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clk.NowMs()
	e.progress(now)
	snap := e.buildSnapshot(now)
	if snap.Leaderboard == nil {
		roundAnswers := e.session.RoundAnswers[e.session.CurrentRound]
		snap.Leaderboard = buildLeaderboard(e.session, roundAnswers)
	}
	return snap
}

func windowTail(msgs []room.ChatMessage, limit int) []room.ChatMessage {
	if len(msgs) <= limit {
		return msgs
	}
	return msgs[len(msgs)-limit:]
}

// suggestionCollector accumulates deduplicated, normalized suggestion
// strings up to a limit, shared by the local-pool pass and the
// players_liked bulk-augmentation pass.
type suggestionCollector struct {
	seen  map[string]bool
	out   []string
	limit int
}

func newSuggestionCollector(limit int) *suggestionCollector {
	return &suggestionCollector{seen: make(map[string]bool), limit: limit}
}

// add normalizes and appends v if new. Returns true once the collector has
// reached its limit.
func (c *suggestionCollector) add(v string) bool {
	v = matching.Normalize(v)
	if v != "" && !c.seen[v] {
		c.seen[v] = true
		c.out = append(c.out, v)
	}
	return len(c.out) >= c.limit
}

// addTrack feeds a track's title, artist, and any cached romanizations into
// the collector. Returns true once the collector has reached its limit.
func (c *suggestionCollector) addTrack(t track.Track, romanizer matching.Romanizer) bool {
	if c.add(t.Title) {
		return true
	}
	if c.add(t.Artist) {
		return true
	}
	if romaji, ok := romanizer.Cached(t.Title); ok {
		if c.add(romaji) {
			return true
		}
	}
	if romaji, ok := romanizer.Cached(t.Artist); ok {
		if c.add(romaji) {
			return true
		}
	}
	return false
}

// AnswerSuggestions returns up to limit deduplicated title/artist/romaji
// strings drawn from the room's merged track pool. In players_liked mode
// with a connected bulk suggestion source, and only when the local pools
// didn't already fill the limit, the result is augmented by a random-ordered
// bulk query against the room's combined library (§4.7). That external call
// is made with the room lock released, per the no-external-calls-while-
// locked rule; only the pool read and the final merge hold the lock.
func (e *Engine) AnswerSuggestions(ctx context.Context, limit int) []string {
	e.mu.Lock()
	e.progress(e.clk.NowMs())
	if limit <= 0 {
		limit = RoomAnswerSuggestionLimit
	}
	c := newSuggestionCollector(limit)
	e.collectPoolSuggestions(c)

	needsBulk := e.suggestionSource != nil && e.session.SourceMode == room.SourcePlayersLiked && len(c.out) < limit
	seed := e.session.RoomCode + ":" + strconv.FormatInt(e.session.CreatedAtMs, 10)
	suggestionSource := e.suggestionSource
	romanizer := e.romanizer
	e.mu.Unlock()

	if !needsBulk {
		return c.out
	}

	bulk, err := suggestionSource.FetchBulkSuggestions(ctx, trackpool.BulkSuggestionParams{
		Seed:    seed,
		MaxRows: trackpool.BulkSuggestionMaxRows,
	})
	if err != nil {
		zlog.Warn().Msgf("room %s: bulk answer suggestion fetch failed: %v", seed, err)
		return c.out
	}

	produced := 0
	for _, t := range bulk {
		if produced >= trackpool.BulkSuggestionMaxTotal {
			break
		}
		before := len(c.out)
		done := c.addTrack(t, romanizer)
		produced += len(c.out) - before
		if done {
			break
		}
	}
	return c.out
}

func (e *Engine) buildAnswerSuggestions(limit int) []string {
	c := newSuggestionCollector(limit)
	e.collectPoolSuggestions(c)
	return c.out
}

func (e *Engine) collectPoolSuggestions(c *suggestionCollector) {
	s := e.session
	pools := [][]track.Track{s.TrackPool, s.DistractorTrackPool, s.PlayersLikedPool}
	for _, pool := range pools {
		for _, t := range pool {
			if c.addTrack(t, e.romanizer) {
				return
			}
		}
	}
}
