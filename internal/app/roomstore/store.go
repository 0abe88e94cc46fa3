// Package roomstore is the process-wide registry of live rooms: a
// short-lived-lock map from room code to engine, grounded on the teacher's
// listener registry idiom (internal/app/session/registry.ListenerRegistry)
// but keyed by room rather than by listener, and holding one
// roomsession.Engine per entry instead of a plain data struct.
package roomstore

import (
	"strings"
	"sync"

	"github.com/blindtest/roomengine/internal/app/clock"
	"github.com/blindtest/roomengine/internal/app/ids"
	"github.com/blindtest/roomengine/internal/app/matching"
	"github.com/blindtest/roomengine/internal/app/roomerr"
	"github.com/blindtest/roomengine/internal/app/roomsession"
	"github.com/blindtest/roomengine/internal/app/trackpool"
)

const roomCodeCollisionRetries = 8

// Deps bundles the collaborators every room's engine is built with.
type Deps struct {
	Clock            clock.Clock
	TrackSource      trackpool.TrackPoolSource
	LibrarySource    trackpool.LibrarySource
	SuggestionSource trackpool.BulkSuggestionSource
	Romanizer        matching.Romanizer
}

// Store is the process-wide room registry: one exclusive lock per room plus
// a short-lived lock over the index itself, per the concurrency model's
// "no cross-room shared mutable state besides the store index" rule.
type Store struct {
	deps Deps
	cfg  roomsession.Config

	mu    sync.RWMutex
	rooms map[string]*roomsession.Engine
}

// New creates an empty room store.
func New(cfg roomsession.Config, deps Deps) *Store {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	return &Store{
		deps:  deps,
		cfg:   cfg,
		rooms: make(map[string]*roomsession.Engine),
	}
}

// CreateRoomParams configures a new room at creation time.
type CreateRoomParams struct {
	IsPublic      bool
	CategoryQuery string
}

// CreateRoomResult is returned by CreateRoom.
type CreateRoomResult struct {
	RoomCode string
}

// CreateRoom allocates a unique 6-character code and seeds an empty
// session. When categoryQuery matches "deezer:playlist:<id>" it
// pre-populates the public playlist selection, per §4.7.
func (s *Store) CreateRoom(params CreateRoomParams) (CreateRoomResult, error) {
	code, err := s.reserveRoomCode()
	if err != nil {
		return CreateRoomResult{}, err
	}

	now := s.deps.Clock.NowMs()
	engine := roomsession.New(code, now, params.IsPublic, s.cfg, s.deps.Clock, s.deps.TrackSource, s.deps.LibrarySource, s.deps.SuggestionSource, s.deps.Romanizer)

	if strings.HasPrefix(params.CategoryQuery, "deezer:playlist:") {
		engine.SeedPublicPlaylist(params.CategoryQuery)
	}

	s.mu.Lock()
	s.rooms[code] = engine
	s.mu.Unlock()

	return CreateRoomResult{RoomCode: code}, nil
}

func (s *Store) reserveRoomCode() (string, error) {
	for attempt := 0; attempt < roomCodeCollisionRetries; attempt++ {
		code, err := ids.NewRoomCode()
		if err != nil {
			return "", roomerr.Wrap(roomerr.CodeRoomNotFound, err, "generate room code")
		}
		s.mu.RLock()
		_, exists := s.rooms[code]
		s.mu.RUnlock()
		if !exists {
			return code, nil
		}
	}
	return "", roomerr.New(roomerr.CodeRoomNotFound)
}

// Get returns the engine for a room code, or a tagged ROOM_NOT_FOUND error.
func (s *Store) Get(code string) (*roomsession.Engine, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	engine, ok := s.rooms[code]
	if !ok {
		return nil, roomerr.New(roomerr.CodeRoomNotFound)
	}
	return engine, nil
}

// Destroy removes a room from the index. Any in-flight players-liked build
// job held by its engine is simply abandoned: its eventual completion
// mutates only state already unreachable from the store, per I8 and the
// cancellation rule in §5.
func (s *Store) Destroy(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, code)
}

// Count returns the number of live rooms.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// RemovePlayer removes a player from a room and destroys the room if that
// was its last player.
func (s *Store) RemovePlayer(code, playerID string) error {
	engine, err := s.Get(code)
	if err != nil {
		return err
	}
	if engine.RemovePlayer(playerID) {
		s.Destroy(code)
	}
	return nil
}
