package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blindtest/roomengine/internal/app/roomerr"
)

func TestConfig_Validate_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr bool
		errMsg  string
	}{
		{
			name: "valid config",
			config: func() Config {
				cfg := Default()
				cfg.Admin = AdminConfig{Token: "test-admin-token"}
				cfg.Providers.Spotify.Market = "JP"
				return cfg
			}(),
			wantErr: false,
		},
		{
			name: "missing admin token",
			config: Config{
				Providers: ProvidersConfig{
					Spotify: SpotifyConfig{Market: "JP"},
				},
			},
			wantErr: true,
			errMsg:  "Token",
		},
		{
			name: "invalid market length",
			config: Config{
				Admin: AdminConfig{Token: "test-admin-token"},
				Providers: ProvidersConfig{
					Spotify: SpotifyConfig{Market: "JAPAN"},
				},
			},
			wantErr: true,
			errMsg:  "Market",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()

			if tt.wantErr {
				require.Error(t, err, "expected validation to fail")
				assert.Contains(t, err.Error(), tt.errMsg,
					"error message should mention the problematic field")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}

func TestConfig_RoomSessionConfig_CarriesTimingAndScoring(t *testing.T) {
	cfg := Config{
		Room: RoomConfig{
			CountdownMs:   3000,
			PlayingMs:     12000,
			RevealMs:      4000,
			LeaderboardMs: 3000,
			BaseScore:     1000,
			ScoringK:      2,
			MaxRounds:     10,
			PoolMinSize:   24,
		},
	}

	rsCfg := cfg.RoomSessionConfig()
	assert.Equal(t, int64(3000), rsCfg.CountdownMs)
	assert.Equal(t, int64(12000), rsCfg.PlayingMs)
	assert.Equal(t, 1000, rsCfg.BaseScore)
	assert.Equal(t, 2, rsCfg.ScoringK)
	assert.Equal(t, 10, rsCfg.MaxRounds)
	assert.Equal(t, 24, rsCfg.PoolMinSize)
}

func TestConfig_DefaultPlayersLikedRules(t *testing.T) {
	cfg := Config{
		Room: RoomConfig{
			PlayersLiked: PlayersLikedConfig{MinContributors: 2, MinTotalTracks: 40},
		},
	}

	rules := cfg.DefaultPlayersLikedRules()
	assert.Equal(t, 2, rules.MinContributors)
	assert.Equal(t, 40, rules.MinTotalTracks)
}

func TestConfig_GetMessage_FallsBackToCodeString(t *testing.T) {
	cfg := Config{}
	assert.Equal(t, "only the host can do that", cfg.GetMessage(roomerr.CodeHostOnly))

	cfg.Messages.DefaultError = ""
	assert.Equal(t, string(roomerr.CodeNoPlayers), cfg.GetMessage(roomerr.CodeNoPlayers))
}
