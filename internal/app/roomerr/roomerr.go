// Package roomerr defines the tagged error codes returned across the Room
// Store's public operation boundary. Operations never propagate raw
// exceptions to callers; they return a Code, optionally wrapping the
// underlying cause for logs.
package roomerr

import "github.com/cockroachdb/errors"

// Code is one tagged error code from the taxonomy in the error-handling
// design. Only codes explicitly named here are ever surfaced to a caller.
type Code string

const (
	CodeRoomNotFound   Code = "ROOM_NOT_FOUND"
	CodePlayerNotFound Code = "PLAYER_NOT_FOUND"
	CodeTargetNotFound Code = "TARGET_NOT_FOUND"

	CodeRoomNotJoinable Code = "ROOM_NOT_JOINABLE"

	CodeInvalidPayload  Code = "INVALID_PAYLOAD"
	CodeInvalidMode     Code = "INVALID_MODE"
	CodeInvalidProvider Code = "INVALID_PROVIDER"
	CodeInvalidState    Code = "INVALID_STATE"

	CodeForbidden Code = "FORBIDDEN"
	CodeHostOnly  Code = "HOST_ONLY"

	CodeNoPlayers                 Code = "NO_PLAYERS"
	CodeSourceNotSet              Code = "SOURCE_NOT_SET"
	CodePlayersLibraryNotReady    Code = "PLAYERS_LIBRARY_NOT_READY"
	CodePlayersLibrarySyncing     Code = "PLAYERS_LIBRARY_SYNCING"
	CodePlaylistTracksResolving   Code = "PLAYLIST_TRACKS_RESOLVING"
	CodeSpotifyRateLimited        Code = "SPOTIFY_RATE_LIMITED"
	CodeNoTracksFound             Code = "NO_TRACKS_FOUND"
	CodeTrackPoolLoadTimeout      Code = "TRACK_POOL_LOAD_TIMEOUT"
	CodePlayersLibraryTimeout     Code = "PLAYERS_LIBRARY_TIMEOUT"
	CodePlayersLibrarySyncTimeout Code = "PLAYERS_LIBRARY_SYNC_TIMEOUT"
)

// retryable is the set of codes that carry a meaningful RetryAfterMs and
// indicate the caller should try again rather than give up.
var retryable = map[Code]bool{
	CodePlayersLibrarySyncing:   true,
	CodePlaylistTracksResolving: true,
	CodeSpotifyRateLimited:      true,
}

// IsRetryable reports whether the code signals a transient condition.
func IsRetryable(c Code) bool {
	return retryable[c]
}

// Error is a tagged room-domain error. It wraps the underlying cause (for
// logs) behind a stable Code (for callers).
type Error struct {
	Code         Code
	RetryAfterMs int64
	cause        error
}

// New creates an Error with no underlying cause, for preconditions that are
// simple state checks rather than a caught exception.
func New(code Code) *Error {
	return &Error{Code: code}
}

// Wrap creates an Error that classifies an underlying cause under code.
func Wrap(code Code, cause error, msg string) *Error {
	return &Error{Code: code, cause: errors.Wrap(cause, msg)}
}

// WithRetryAfter attaches a retry hint and returns the same Error for chaining.
func (e *Error) WithRetryAfter(ms int64) *Error {
	e.RetryAfterMs = ms
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return string(e.Code) + ": " + e.cause.Error()
	}
	return string(e.Code)
}

// Unwrap exposes the underlying cause to errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}
