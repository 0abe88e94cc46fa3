package trackpool

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/blindtest/roomengine/internal/app/roomerr"
	"github.com/blindtest/roomengine/internal/domain/track"
)

// BuildStatus is the pool-build status enum. It lives here so the job can be
// tested and used independently of the room package it feeds; the room
// session's PoolBuildMeta reuses it.
type BuildStatus string

const (
	BuildStatusIdle     BuildStatus = "idle"
	BuildStatusBuilding BuildStatus = "building"
	BuildStatusReady    BuildStatus = "ready"
	BuildStatusFailed   BuildStatus = "failed"
)

// BuildMeta is the publishable state of a players-liked build.
type BuildMeta struct {
	Status              BuildStatus
	ContributorsCount   int
	MergedTracksCount   int
	PlayableTracksCount int
	LastBuiltAtMs       int64
	ErrorCode           roomerr.Code
}

// Contributor is the minimal shape the job needs from an eligible player.
type Contributor struct {
	UserID    string
	Providers []track.Provider
}

// PlayersLikedJob runs at most one build at a time per room. A trigger that
// arrives while a build is in flight sets a rebuild flag consumed when the
// current build finishes, instead of starting a second build.
type PlayersLikedJob struct {
	source LibrarySource
	nowMs  func() int64

	mu               sync.Mutex
	building         bool
	rebuildRequested bool
	generation       uint64
	meta             BuildMeta
	result           BuildResult
}

// NewPlayersLikedJob creates a job bound to a library source and a
// millisecond clock function.
func NewPlayersLikedJob(source LibrarySource, nowMs func() int64) *PlayersLikedJob {
	return &PlayersLikedJob{
		source: source,
		nowMs:  nowMs,
		meta:   BuildMeta{Status: BuildStatusIdle},
	}
}

// Meta returns a snapshot of the job's published state.
func (j *PlayersLikedJob) Meta() BuildMeta {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.meta
}

// Result returns the last successfully published pool.
func (j *PlayersLikedJob) Result() BuildResult {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result
}

// IsBuilding reports whether a build is currently in flight.
func (j *PlayersLikedJob) IsBuilding() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.building
}

// Trigger starts a build if none is in flight, or marks the current build
// for rebuild when one already is. It returns immediately; the caller
// observes progress via Meta/Result.
func (j *PlayersLikedJob) Trigger(ctx context.Context, contributors []Contributor, minTotalTracks, requestedRounds int) {
	j.mu.Lock()
	if j.building {
		j.rebuildRequested = true
		j.mu.Unlock()
		return
	}
	j.building = true
	j.generation++
	gen := j.generation
	j.meta = BuildMeta{Status: BuildStatusBuilding, ContributorsCount: len(contributors)}
	j.mu.Unlock()

	go j.run(ctx, gen, contributors, minTotalTracks, requestedRounds)
}

// AwaitReady blocks up to maxWait for the in-flight build to finish,
// returning the status observed at that point. Used by startGame's
// "wait up to 12s" rule.
func (j *PlayersLikedJob) AwaitReady(ctx context.Context, maxWait time.Duration) BuildStatus {
	deadline := time.Now().Add(maxWait)
	for {
		if !j.IsBuilding() {
			return j.Meta().Status
		}
		if time.Now().After(deadline) {
			return BuildStatusBuilding
		}
		select {
		case <-ctx.Done():
			return j.Meta().Status
		case <-time.After(50 * time.Millisecond):
		}
	}
}

func (j *PlayersLikedJob) run(ctx context.Context, gen uint64, contributors []Contributor, minTotalTracks, requestedRounds int) {
	size := minTotalTracks
	if requestedRounds > size {
		size = requestedRounds
	}
	size += 10 // buffer per §4.6 step 2

	fetchCtx, cancel := context.WithTimeout(ctx, playersLibraryTimeout)
	defer cancel()

	var merged []track.Track
	for _, c := range contributors {
		if j.isStale(gen) {
			return
		}
		tracks, err := j.source.FetchUserLikedTracks(fetchCtx, LibraryFetchParams{
			UserID:               c.UserID,
			Providers:            c.Providers,
			Size:                 size,
			AllowExternalResolve: true,
		})
		if err != nil {
			zlog.Warn().Msgf("players-liked job: contributor fetch failed: user=%s error=%v", c.UserID, err)
			continue
		}
		merged = append(merged, filterUsable(tracks)...)
	}

	if j.isStale(gen) {
		return
	}

	result := dedupeShuffleSplit(merged, requestedRounds)

	j.mu.Lock()
	defer j.mu.Unlock()
	if j.generation != gen {
		return
	}

	status := BuildStatusReady
	var errCode roomerr.Code
	if len(result.AnswerTracks) < requestedRounds {
		status = BuildStatusFailed
		errCode = roomerr.CodeNoTracksFound
	}

	j.meta = BuildMeta{
		Status:              status,
		ContributorsCount:   len(contributors),
		MergedTracksCount:   len(merged),
		PlayableTracksCount: len(result.AnswerTracks) + len(result.DistractorTracks),
		LastBuiltAtMs:       j.nowMs(),
		ErrorCode:           errCode,
	}
	if status == BuildStatusReady {
		j.result = result
	}

	j.building = false
	if j.rebuildRequested {
		j.rebuildRequested = false
		j.building = true
		j.generation++
		nextGen := j.generation
		go j.run(ctx, nextGen, contributors, minTotalTracks, requestedRounds)
	}
}

func (j *PlayersLikedJob) isStale(gen uint64) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.generation != gen
}
