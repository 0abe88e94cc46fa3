// Package config provides configuration loading from YAML files.
package config

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/blindtest/roomengine/internal/app/roomerr"
	"github.com/blindtest/roomengine/internal/app/roomsession"
	"github.com/blindtest/roomengine/internal/domain/room"
)

// Config represents the application configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Room      RoomConfig      `yaml:"room"`
	Matching  MatchingConfig  `yaml:"matching"`
	Providers ProvidersConfig `yaml:"providers"`
	Admin     AdminConfig     `yaml:"admin"`
	Messages  MessagesConfig  `yaml:"messages"`
}

// ServerConfig represents server configuration.
type ServerConfig struct {
	Addr  string      `yaml:"addr" default:":8080"`
	Hooks HooksConfig `yaml:"hooks"`
}

// HooksConfig represents lifecycle hooks configuration.
type HooksConfig struct {
	OnRoomCreated []string `yaml:"on_room_created"`
	OnRoomClosed  []string `yaml:"on_room_closed"`
}

// RoomConfig holds the Room Session engine's timing, scoring, and pool
// sizing knobs (spec.md §4.1, §4.4, §4.5, §4.6).
type RoomConfig struct {
	CountdownMs    int64 `yaml:"countdown_ms" default:"3000" validate:"gte=500"`
	PlayingMs      int64 `yaml:"playing_ms" default:"12000" validate:"gte=1000"`
	RevealMs       int64 `yaml:"reveal_ms" default:"4000" validate:"gte=500"`
	LeaderboardMs  int64 `yaml:"leaderboard_ms" default:"3000" validate:"gte=500"`
	BaseScore      int   `yaml:"base_score" default:"1000" validate:"gte=0"`
	ScoringK       int   `yaml:"scoring_k" default:"2" validate:"gte=1"`
	MaxRounds      int   `yaml:"max_rounds" default:"10" validate:"gte=1,lte=50"`
	PoolMinSize    int   `yaml:"pool_min_size" default:"24" validate:"gte=1"`
	RoomIdleTTLSec int   `yaml:"room_idle_ttl_sec" default:"600" validate:"gte=0"`

	PlayersLiked PlayersLikedConfig `yaml:"players_liked"`
}

// PlayersLikedConfig gates when the players-liked pool is considered usable
// for startGame (spec.md §4.6).
type PlayersLikedConfig struct {
	MinContributors int `yaml:"min_contributors" default:"1" validate:"gte=1"`
	MinTotalTracks  int `yaml:"min_total_tracks" default:"24" validate:"gte=1"`
}

// MatchingConfig configures the Answer Matcher's romanisation warmer (§4.2).
type MatchingConfig struct {
	RomanizeTimeoutMs int `yaml:"romanize_timeout_ms" default:"250" validate:"gte=0"`
}

// ProvidersConfig carries credentials for the out-of-scope external music
// adapters (Spotify, Deezer, YouTube, AniList, AnimeThemes). Nothing in this
// repo calls out to them directly; a TrackPoolSource/LibrarySource
// implementation living outside this repo reads these fields.
type ProvidersConfig struct {
	Spotify SpotifyConfig `yaml:"spotify"`
	Deezer  DeezerConfig  `yaml:"deezer"`
}

// SpotifyConfig represents Spotify API configuration.
type SpotifyConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	Market       string `yaml:"market" validate:"omitempty,len=2" default:"JP"`
}

// DeezerConfig represents Deezer API configuration.
type DeezerConfig struct {
	AppID string `yaml:"app_id"`
}

// AdminConfig represents operator-facing credentials for cmd/roomcli.
type AdminConfig struct {
	Token string `yaml:"token" validate:"required"`
}

// MessagesConfig maps a subset of roomerr codes to operator-facing text,
// looked up through GetMessage; codes with no override fall back to their
// raw string form.
type MessagesConfig struct {
	DefaultError string `yaml:"default_error" default:"something went wrong"`
	HostOnly     string `yaml:"host_only" default:"only the host can do that"`
	RoomNotFound string `yaml:"room_not_found" default:"room not found"`
	Kicked       string `yaml:"kicked" default:"you were removed from the room"`
}

// Default returns a Config with every creasty-managed default applied and
// no file loaded, for callers (cmd/roomcli) that only need the reference
// timing/scoring/pool knobs without a YAML file on disk.
func Default() Config {
	var cfg Config
	_ = defaults.Set(&cfg)
	return cfg
}

// Load loads configuration from a YAML file.
// Environment variables take precedence over file values for sensitive fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read config file")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, errors.Wrap(err, "failed to parse config file")
	}

	cfg.overrideFromEnv()

	if err := defaults.Set(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to set defaults")
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "config validation failed")
	}

	return &cfg, nil
}

// overrideFromEnv overrides config values with environment variables,
// consumed only by the out-of-scope provider adapters and the operator CLI.
func (c *Config) overrideFromEnv() {
	if v := os.Getenv("SPOTIFY_CLIENT_ID"); v != "" {
		c.Providers.Spotify.ClientID = v
	}
	if v := os.Getenv("SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Providers.Spotify.ClientSecret = v
	}
	if v := os.Getenv("SPOTIFY_REFRESH_TOKEN"); v != "" {
		c.Providers.Spotify.RefreshToken = v
	}
	if v := os.Getenv("DEEZER_APP_ID"); v != "" {
		c.Providers.Deezer.AppID = v
	}
	if v := os.Getenv("ADMIN_TOKEN"); v != "" {
		c.Admin.Token = v
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, "struct validation failed")
	}
	return nil
}

// GetMessage returns the operator-facing text for a roomerr code, falling
// back to a built-in default and finally to the code's raw string form when
// no override is configured (e.g. for a Config built without Load).
func (c *Config) GetMessage(code roomerr.Code) string {
	switch code {
	case roomerr.CodeHostOnly:
		return firstNonEmpty(c.Messages.HostOnly, "only the host can do that")
	case roomerr.CodeRoomNotFound:
		return firstNonEmpty(c.Messages.RoomNotFound, "room not found")
	default:
		return firstNonEmpty(c.Messages.DefaultError, string(code))
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// RoomSessionConfig converts the loaded timing/scoring/pool knobs into the
// roomsession.Config the Room Session engine is constructed with.
func (c *Config) RoomSessionConfig() roomsession.Config {
	return roomsession.Config{
		CountdownMs:   c.Room.CountdownMs,
		PlayingMs:     c.Room.PlayingMs,
		RevealMs:      c.Room.RevealMs,
		LeaderboardMs: c.Room.LeaderboardMs,
		BaseScore:     c.Room.BaseScore,
		ScoringK:      c.Room.ScoringK,
		MaxRounds:     c.Room.MaxRounds,
		PoolMinSize:   c.Room.PoolMinSize,
	}
}

// DefaultPlayersLikedRules converts the configured players-liked thresholds
// into a room.PlayersLikedRules, printed by cmd/roomcli's config-check. The
// room store does not seed new rooms from it; a room's rules are set through
// SetPlayersLikedRules or SetRoomSource.
func (c *Config) DefaultPlayersLikedRules() room.PlayersLikedRules {
	return room.PlayersLikedRules{
		MinContributors: c.Room.PlayersLiked.MinContributors,
		MinTotalTracks:  c.Room.PlayersLiked.MinTotalTracks,
	}
}
