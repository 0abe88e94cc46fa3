package roomsession

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	zlog "github.com/rs/zerolog/log"

	"github.com/blindtest/roomengine/internal/app/ids"
	"github.com/blindtest/roomengine/internal/app/roomerr"
	"github.com/blindtest/roomengine/internal/app/trackpool"
	"github.com/blindtest/roomengine/internal/domain/player"
	"github.com/blindtest/roomengine/internal/domain/room"
	"github.com/blindtest/roomengine/internal/domain/track"
)

const startWaitForLikedPool = 12 * time.Second

// JoinResult is returned by Join.
type JoinResult struct {
	PlayerID string
}

// Join appends a player, per joinRoom's contract: allowed in any phase
// except results, assigns an opaque id, recomputes the host, and resets
// every player's ready flag.
func (e *Engine) Join(displayName, userID string) (JoinResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	s := e.session
	if s.Phase == room.PhaseResults {
		return JoinResult{}, roomerr.New(roomerr.CodeRoomNotJoinable)
	}

	id := e.playerIDs.Next()
	p := player.New(id, strings.TrimSpace(displayName), e.clk.NowMs())
	p.UserID = userID
	s.Players = append(s.Players, p)
	s.RecomputeHost()
	for _, other := range s.Players {
		other.IsReady = false
	}
	if len(s.Players) > s.Stats.PeakPlayerCount {
		s.Stats.PeakPlayerCount = len(s.Players)
	}

	return JoinResult{PlayerID: id}, nil
}

// SetRoomSourceMode sets the source mode; host-only, waiting-only, and
// clears pools/pool-build meta and everyone's ready flag on any change.
func (e *Engine) SetRoomSourceMode(hostID string, mode room.SourceMode) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	if err := e.requireHostInWaiting(hostID); err != nil {
		return err
	}
	s := e.session
	s.SourceMode = mode
	e.clearPoolsAndReady()
	return nil
}

// SetRoomPublicPlaylist sets the playlist selection for public_playlist mode.
func (e *Engine) SetRoomPublicPlaylist(hostID, selection string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	if err := e.requireHostInWaiting(hostID); err != nil {
		return err
	}
	s := e.session
	s.PublicPlaylistSelection = selection
	e.clearPoolsAndReady()
	return nil
}

// sourceSettings is the generic decode target for SetRoomSource's settings
// bag, mirroring the teacher's per-filter ValidateConfig(settings
// map[string]any) pattern of decoding a loosely-typed payload into a
// strongly-typed struct via mapstructure rather than hand-picking keys.
type sourceSettings struct {
	Mode                    string `mapstructure:"mode"`
	PublicPlaylistSelection string `mapstructure:"public_playlist_selection"`
	MinContributors         int    `mapstructure:"min_contributors"`
	MinTotalTracks          int    `mapstructure:"min_total_tracks"`
}

// SetRoomSource applies a generic settings bag in one call: mode,
// playlist selection, and players-liked thresholds together. Host-only,
// waiting-only; any accepted change clears pools/pool-build meta and
// resets every player's ready flag, per setRoomSource's contract.
func (e *Engine) SetRoomSource(hostID string, settings map[string]any) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	if err := e.requireHostInWaiting(hostID); err != nil {
		return err
	}

	var decoded sourceSettings
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &decoded,
		TagName: "mapstructure",
	})
	if err != nil {
		return roomerr.Wrap(roomerr.CodeInvalidPayload, err, "build source settings decoder")
	}
	if err := decoder.Decode(settings); err != nil {
		return roomerr.Wrap(roomerr.CodeInvalidPayload, err, "decode source settings")
	}

	s := e.session
	switch room.SourceMode(decoded.Mode) {
	case room.SourcePublicPlaylist, room.SourcePlayersLiked:
		s.SourceMode = room.SourceMode(decoded.Mode)
	case "":
		// mode omitted: keep the room's current mode, only update its fields.
	default:
		return roomerr.New(roomerr.CodeInvalidMode)
	}
	if decoded.PublicPlaylistSelection != "" {
		s.PublicPlaylistSelection = decoded.PublicPlaylistSelection
	}
	if decoded.MinContributors > 0 {
		s.PlayersLikedRules.MinContributors = decoded.MinContributors
	}
	if decoded.MinTotalTracks > 0 {
		s.PlayersLikedRules.MinTotalTracks = decoded.MinTotalTracks
	}

	e.clearPoolsAndReady()
	return nil
}

// SeedPublicPlaylist pre-populates the public playlist selection at room
// creation time, before any player (and so no host) exists. Used only by
// createRoom's categoryQuery pre-population; every later change goes
// through SetRoomPublicPlaylist's host-only check.
func (e *Engine) SeedPublicPlaylist(selection string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.session.PublicPlaylistSelection = selection
	e.session.SourceMode = room.SourcePublicPlaylist
}

// SetPlayersLikedRules configures the players_liked eligibility thresholds.
func (e *Engine) SetPlayersLikedRules(hostID string, rules room.PlayersLikedRules) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	if err := e.requireHostInWaiting(hostID); err != nil {
		return err
	}
	e.session.PlayersLikedRules = rules
	e.clearPoolsAndReady()
	return nil
}

func (e *Engine) clearPoolsAndReady() {
	s := e.session
	s.TrackPool = nil
	s.DistractorTrackPool = nil
	s.PlayersLikedPool = nil
	s.PoolBuild = room.PoolBuildMeta{Status: trackpool.BuildStatusIdle}
	for _, p := range s.Players {
		p.IsReady = false
	}
}

func (e *Engine) requireHostInWaiting(playerID string) error {
	s := e.session
	if !s.IsHost(playerID) {
		return roomerr.New(roomerr.CodeHostOnly)
	}
	if s.Phase != room.PhaseWaiting {
		return roomerr.New(roomerr.CodeInvalidState)
	}
	return nil
}

// SetPlayerLibraryContribution toggles one provider's include-in-pool flag
// for a player. In players_liked mode this resets the pool-build meta but
// does not itself trigger a build.
func (e *Engine) SetPlayerLibraryContribution(playerID string, provider track.Provider, include bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	p := e.session.PlayerByID(playerID)
	if p == nil {
		return roomerr.New(roomerr.CodePlayerNotFound)
	}
	p.Library.IncludeInPool[provider] = include
	if e.session.SourceMode == room.SourcePlayersLiked {
		e.session.PoolBuild = room.PoolBuildMeta{Status: trackpool.BuildStatusIdle}
	}
	return nil
}

// SetPlayerLibraryLinks updates a player's provider link statuses and
// estimated track counts (e.g. after an external sync completes).
func (e *Engine) SetPlayerLibraryLinks(playerID string, linked map[track.Provider]player.ProviderStatus, estimatedCounts map[track.Provider]int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	p := e.session.PlayerByID(playerID)
	if p == nil {
		return roomerr.New(roomerr.CodePlayerNotFound)
	}
	for prov, status := range linked {
		p.Library.LinkedProviders[prov] = status
	}
	for prov, count := range estimatedCounts {
		p.Library.EstimatedTrackCount[prov] = count
	}
	if e.session.SourceMode == room.SourcePlayersLiked {
		e.session.PoolBuild = room.PoolBuildMeta{Status: trackpool.BuildStatusIdle}
	}
	return nil
}

// SetPlayerReady toggles a player's ready flag; only valid in waiting.
func (e *Engine) SetPlayerReady(playerID string, ready bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	if e.session.Phase != room.PhaseWaiting {
		return roomerr.New(roomerr.CodeInvalidState)
	}
	p := e.session.PlayerByID(playerID)
	if p == nil {
		return roomerr.New(roomerr.CodePlayerNotFound)
	}
	p.IsReady = ready
	return nil
}

// KickPlayer removes target from the room; host-only, waiting-only, no self-kick.
func (e *Engine) KickPlayer(hostID, targetID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	s := e.session
	if !s.IsHost(hostID) {
		return roomerr.New(roomerr.CodeHostOnly)
	}
	if s.Phase != room.PhaseWaiting {
		return roomerr.New(roomerr.CodeInvalidState)
	}
	if hostID == targetID {
		return roomerr.New(roomerr.CodeInvalidPayload)
	}
	if s.PlayerByID(targetID) == nil {
		return roomerr.New(roomerr.CodeTargetNotFound)
	}
	e.removePlayerLocked(targetID)
	return nil
}

// RemovePlayer removes a player from the room in any phase (a disconnect).
// Returns true if the room is now empty and should be destroyed by the
// caller (the Room Store), per I8.
func (e *Engine) RemovePlayer(playerID string) (roomEmpty bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	e.removePlayerLocked(playerID)
	return len(e.session.Players) == 0
}

func (e *Engine) removePlayerLocked(playerID string) {
	s := e.session
	for i, p := range s.Players {
		if p.ID == playerID {
			s.Players = append(s.Players[:i], s.Players[i+1:]...)
			break
		}
	}
	s.RecomputeHost()
	if len(s.Players) == 0 {
		s.Phase = room.PhaseWaiting
	}
}

// ReplayRoom resets a finished room back to waiting: pools, round plan,
// reveal, chat, and scores clear; players and library link info survive,
// with includeInPool preserved only for providers whose link is still valid
// or whose synced count is positive.
func (e *Engine) ReplayRoom(hostID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.progress(e.clk.NowMs())

	s := e.session
	if !s.IsHost(hostID) {
		return roomerr.New(roomerr.CodeHostOnly)
	}
	if s.Phase != room.PhaseResults {
		return roomerr.New(roomerr.CodeInvalidState)
	}

	for _, p := range s.Players {
		for prov, include := range p.Library.IncludeInPool {
			if !include {
				continue
			}
			stillValid := p.Library.LinkedProviders[prov] == player.ProviderLinked || p.Library.EstimatedTrackCount[prov] > 0
			if !stillValid {
				p.Library.IncludeInPool[prov] = false
			}
		}
		p.ResetForReplay()
	}

	s.TrackPool = nil
	s.DistractorTrackPool = nil
	s.PlayersLikedPool = nil
	s.RoundModes = nil
	s.RoundChoices = make(map[int][]string)
	s.RoundAnswers = make(map[int]room.RoundAnswers)
	s.LastReveal = nil
	s.PoolBuild = room.PoolBuildMeta{Status: trackpool.BuildStatusIdle}
	s.Chat = nil
	s.CurrentRound = 0
	s.Phase = room.PhaseWaiting

	if e.librarySource != nil {
		e.likedJob = trackpool.NewPlayersLikedJob(e.librarySource, e.clk.NowMs)
	}

	return nil
}

// StartGame runs start preconditions, builds the track pool (§4.5/§4.6),
// downgrades infeasible MCQ rounds, and transitions to countdown.
func (e *Engine) StartGame(ctx context.Context, hostID string, requestedRounds int) error {
	e.mu.Lock()
	s := e.session
	now := e.clk.NowMs()
	e.progress(now)

	if !s.IsHost(hostID) {
		e.mu.Unlock()
		return roomerr.New(roomerr.CodeHostOnly)
	}
	if s.Phase != room.PhaseWaiting {
		e.mu.Unlock()
		return roomerr.New(roomerr.CodeInvalidState)
	}
	if len(s.Players) == 0 {
		e.mu.Unlock()
		return roomerr.New(roomerr.CodeNoPlayers)
	}
	if requestedRounds <= 0 {
		requestedRounds = e.cfg.MaxRounds
	}
	if requestedRounds > e.cfg.MaxRounds {
		requestedRounds = e.cfg.MaxRounds
	}

	switch s.SourceMode {
	case room.SourcePublicPlaylist:
		if strings.TrimSpace(s.PublicPlaylistSelection) == "" {
			e.mu.Unlock()
			return roomerr.New(roomerr.CodeSourceNotSet)
		}
	case room.SourcePlayersLiked:
		if countEligibleContributors(s.Players) < s.PlayersLikedRules.MinContributors {
			e.mu.Unlock()
			return roomerr.New(roomerr.CodePlayersLibraryNotReady)
		}
	default:
		e.mu.Unlock()
		return roomerr.New(roomerr.CodeInvalidMode)
	}

	sourceMode := s.SourceMode
	selection := s.PublicPlaylistSelection
	rules := s.PlayersLikedRules
	contributors := eligibleContributors(s.Players)
	buildID := uuid.NewString()
	s.PoolBuild = room.PoolBuildMeta{BuildID: buildID, Status: trackpool.BuildStatusBuilding, ContributorsCount: len(contributors)}
	e.mu.Unlock()

	result, err := e.acquirePool(ctx, sourceMode, selection, rules, contributors, requestedRounds)

	e.mu.Lock()
	defer e.mu.Unlock()

	// Re-check: the room must still be waiting and the source config must
	// not have changed while the lock was released for the external call.
	if s.Phase != room.PhaseWaiting || s.SourceMode != sourceMode {
		return roomerr.New(roomerr.CodeInvalidState)
	}
	if err != nil {
		errCode := roomerr.CodeNoTracksFound
		if roomErr, ok := err.(*roomerr.Error); ok {
			errCode = roomErr.Code
		}
		s.PoolBuild = room.PoolBuildMeta{BuildID: buildID, Status: trackpool.BuildStatusFailed, LastBuiltAtMs: e.clk.NowMs(), ErrorCode: errCode}
		return err
	}

	s.TrackPool = result.AnswerTracks
	s.DistractorTrackPool = result.DistractorTracks
	if sourceMode == room.SourcePlayersLiked {
		s.PlayersLikedPool = append(append([]track.Track{}, result.AnswerTracks...), result.DistractorTracks...)
	} else {
		s.PlayersLikedPool = nil
	}
	s.TotalRounds = len(result.AnswerTracks)
	s.RoundModes = buildRoundPlan(s.TotalRounds)
	s.RoundChoices = make(map[int][]string)
	s.RoundAnswers = make(map[int]room.RoundAnswers)
	s.CurrentRound = 0

	for round, mode := range s.RoundModes {
		if mode == room.RoundModeMCQ {
			e.ensureRoundChoicesBuilt(round)
		}
	}

	now = e.clk.NowMs()
	s.Phase = room.PhaseCountdown
	s.DeadlineMs = now + e.cfg.CountdownMs
	s.PoolBuild = room.PoolBuildMeta{
		BuildID:             buildID,
		Status:              trackpool.BuildStatusReady,
		MergedTracksCount:   len(result.AnswerTracks) + len(result.DistractorTracks),
		PlayableTracksCount: len(result.AnswerTracks),
		LastBuiltAtMs:       now,
	}

	zlog.Info().Msgf("room %s: game started: build=%s rounds=%d mode=%s", s.RoomCode, s.PoolBuild.BuildID, s.TotalRounds, sourceMode)
	return nil
}

func (e *Engine) acquirePool(ctx context.Context, mode room.SourceMode, selection string, rules room.PlayersLikedRules, contributors []trackpool.Contributor, requestedRounds int) (trackpool.BuildResult, error) {
	switch mode {
	case room.SourcePublicPlaylist:
		isDeezer := strings.HasPrefix(selection, "deezer:playlist:")
		return trackpool.BuildPublicPlaylist(ctx, e.trackSource, selection, requestedRounds, isDeezer, e.cfg.PoolMinSize)
	case room.SourcePlayersLiked:
		return e.acquirePlayersLikedPool(ctx, contributors, rules, requestedRounds)
	default:
		return trackpool.BuildResult{}, roomerr.New(roomerr.CodeInvalidMode)
	}
}

func (e *Engine) acquirePlayersLikedPool(ctx context.Context, contributors []trackpool.Contributor, rules room.PlayersLikedRules, requestedRounds int) (trackpool.BuildResult, error) {
	if e.likedJob == nil {
		return trackpool.BuildResult{}, roomerr.New(roomerr.CodePlayersLibraryNotReady)
	}

	meta := e.likedJob.Meta()
	if meta.Status == trackpool.BuildStatusReady && len(e.likedJob.Result().AnswerTracks) >= requestedRounds {
		return e.likedJob.Result(), nil
	}

	e.likedJob.Trigger(ctx, contributors, rules.MinTotalTracks, requestedRounds)
	status := e.likedJob.AwaitReady(ctx, startWaitForLikedPool)

	switch status {
	case trackpool.BuildStatusReady:
		return e.likedJob.Result(), nil
	case trackpool.BuildStatusBuilding:
		return trackpool.BuildResult{}, roomerr.New(roomerr.CodePlayersLibrarySyncing).WithRetryAfter(1500)
	default:
		return trackpool.BuildResult{}, roomerr.New(roomerr.CodeNoTracksFound)
	}
}

func countEligibleContributors(players []*player.Player) int {
	n := 0
	for _, p := range players {
		if p.IsEligibleContributor() {
			n++
		}
	}
	return n
}

func eligibleContributors(players []*player.Player) []trackpool.Contributor {
	var out []trackpool.Contributor
	for _, p := range players {
		if !p.IsEligibleContributor() {
			continue
		}
		var providers []track.Provider
		for prov, include := range p.Library.IncludeInPool {
			if include {
				providers = append(providers, prov)
			}
		}
		out = append(out, trackpool.Contributor{UserID: p.UserID, Providers: providers})
	}
	return out
}

// SkipCurrentRound closes the current round immediately, as if its
// deadline fired now. Host-only, playing-only.
func (e *Engine) SkipCurrentRound(hostID string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clk.NowMs()
	e.progress(now)

	s := e.session
	if !s.IsHost(hostID) {
		return roomerr.New(roomerr.CodeHostOnly)
	}
	if s.Phase != room.PhasePlaying {
		return roomerr.New(roomerr.CodeInvalidState)
	}
	s.DeadlineMs = now
	e.progress(now)
	return nil
}

// SubmitAnswer records an explicit answer submission. Always tolerated;
// accepted is true iff playing, the player exists, and they have not
// already submitted this round.
func (e *Engine) SubmitAnswer(playerID, answer string) (accepted bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clk.NowMs()
	e.progress(now)

	s := e.session
	if s.Phase != room.PhasePlaying {
		return false, nil
	}
	if s.PlayerByID(playerID) == nil {
		return false, nil
	}
	round := s.RoundAnswers[s.CurrentRound]
	if _, already := round.Submitted[playerID]; already {
		return false, nil
	}
	round.Submitted[playerID] = room.SubmittedAnswer{Value: answer, SubmittedAtMs: now}
	delete(round.Drafts, playerID)
	s.RoundAnswers[s.CurrentRound] = round

	if allPlayersSubmitted(s) {
		s.DeadlineMs = now
		e.progress(now)
	}
	return true, nil
}

// SubmitDraftAnswer records a draft, capped to 120 characters, with
// last-writer-wins coalescing.
func (e *Engine) SubmitDraftAnswer(playerID, answer string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clk.NowMs()
	e.progress(now)

	s := e.session
	if s.Phase != room.PhasePlaying {
		return
	}
	if s.PlayerByID(playerID) == nil {
		return
	}
	round := s.RoundAnswers[s.CurrentRound]
	if _, already := round.Submitted[playerID]; already {
		return
	}
	runes := []rune(answer)
	const draftCharLimit = 120
	if len(runes) > draftCharLimit {
		runes = runes[:draftCharLimit]
	}
	round.Drafts[playerID] = string(runes)
	s.RoundAnswers[s.CurrentRound] = round
}

func allPlayersSubmitted(s *room.Session) bool {
	round := s.RoundAnswers[s.CurrentRound]
	for _, p := range s.Players {
		if _, ok := round.Submitted[p.ID]; !ok {
			return false
		}
	}
	return len(s.Players) > 0
}

// PostChatMessage trims and truncates text, rejecting an empty result, and
// appends to the ring buffer.
func (e *Engine) PostChatMessage(playerID, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	now := e.clk.NowMs()
	e.progress(now)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return roomerr.New(roomerr.CodeInvalidPayload)
	}
	msgID, err := ids.NewChatMessageID(now)
	if err != nil {
		return roomerr.Wrap(roomerr.CodeInvalidPayload, err, "generate chat message id")
	}
	e.session.AppendChatMessage(msgID, playerID, trimmed, now)
	return nil
}
