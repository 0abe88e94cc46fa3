// Package main provides the roomcli operator entry point: a kingpin-based
// tool that drives an in-process RoomStore end-to-end without a network
// transport, since transport is explicitly out of scope for this repo.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/blindtest/roomengine/internal/app/clock"
	"github.com/blindtest/roomengine/internal/app/roomsession"
	"github.com/blindtest/roomengine/internal/app/roomstore"
	"github.com/blindtest/roomengine/internal/domain/room"
	"github.com/blindtest/roomengine/internal/domain/track"
	"github.com/blindtest/roomengine/internal/infra/config"
	"github.com/blindtest/roomengine/internal/infra/logger"
)

var (
	app = kingpin.New("roomcli", "19box-blindtest room session operator tool")

	configPath = app.Flag("config", "path to the YAML config file").Default("").String()
	logLevel   = app.Flag("log-level", "debug, info, warn, error").Default("info").String()

	demoCmd     = app.Command("demo", "run a scripted room from creation through results")
	demoRounds  = demoCmd.Flag("rounds", "number of rounds").Default("5").Int()
	demoPlayers = demoCmd.Flag("players", "number of simulated players").Default("3").Int()
	demoMode    = demoCmd.Flag("mode", "public_playlist or players_liked").Default("public_playlist").String()
	demoQuery   = demoCmd.Flag("playlist", "deezer playlist selector").Default("deezer:playlist:555").String()

	configCheckCmd = app.Command("config-check", "load and validate the config file, printing the resolved room settings")
)

func main() {
	_ = godotenv.Load()
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	if err := logger.Init(logger.Config{Output: "stdout", Level: *logLevel}); err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	switch command {
	case demoCmd.FullCommand():
		runDemo(*demoRounds, *demoPlayers, *demoMode, *demoQuery)
	case configCheckCmd.FullCommand():
		checkConfig(*configPath)
	}
}

func loadConfig(path string) config.Config {
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Printf("config error: %v\n", err)
		os.Exit(1)
	}
	return *cfg
}

func checkConfig(path string) {
	cfg := loadConfig(path)
	fmt.Printf("room timings:         %+v\n", cfg.RoomSessionConfig())
	fmt.Printf("players-liked rules:  %+v\n", cfg.DefaultPlayersLikedRules())
	fmt.Printf("room idle ttl:        %ds\n", cfg.Room.RoomIdleTTLSec)
}

// demoTrackSource stands in for a real TrackPoolSource (Spotify, Deezer,
// YouTube...) so the demo can run without any external adapter, which is out
// of scope for this repo. Every track is YouTube-provided so the printed
// media view exercises the deterministic start-offset calculation.
type demoTrackSource struct{}

func (demoTrackSource) Fetch(ctx context.Context, sourceQuery string, requestSize int) ([]track.Track, error) {
	tracks := make([]track.Track, 0, requestSize)
	for i := 0; i < requestSize; i++ {
		id := "demo-" + strconv.Itoa(i)
		tracks = append(tracks, track.Track{
			Provider:    track.ProviderYouTube,
			ID:          id,
			Title:       "Demo Opening " + strconv.Itoa(i),
			Artist:      "Demo Artist " + strconv.Itoa(i%4),
			SourceURL:   "https://youtu.be/" + id,
			DurationSec: 90,
		})
	}
	return tracks, nil
}

func runDemo(rounds, players int, mode, playlistQuery string) {
	cfg := loadConfig(*configPath)
	clk := clock.NewFake(time.Now().UnixMilli())

	store := roomstore.New(cfg.RoomSessionConfig(), roomstore.Deps{
		Clock:       clk,
		TrackSource: demoTrackSource{},
	})

	created, err := store.CreateRoom(roomstore.CreateRoomParams{IsPublic: true, CategoryQuery: playlistQuery})
	if err != nil {
		fmt.Printf("createRoom failed: %v\n", err)
		os.Exit(1)
	}
	engine, err := store.Get(created.RoomCode)
	if err != nil {
		fmt.Printf("room vanished right after creation: %v\n", err)
		os.Exit(1)
	}
	zlog.Info().Msgf("created room %s", created.RoomCode)

	host, err := engine.Join("Host", "demo-user-0")
	if err != nil {
		fmt.Printf("host join failed: %v\n", err)
		os.Exit(1)
	}
	for i := 1; i < players; i++ {
		name := "Player" + strconv.Itoa(i)
		if _, err := engine.Join(name, "demo-user-"+strconv.Itoa(i)); err != nil {
			fmt.Printf("join failed for %s: %v\n", name, err)
			os.Exit(1)
		}
	}

	sourceMode := room.SourcePublicPlaylist
	if mode == "players_liked" {
		sourceMode = room.SourcePlayersLiked
	}
	if err := engine.SetRoomSourceMode(host.PlayerID, sourceMode); err != nil {
		fmt.Printf("setRoomSourceMode failed: %v\n", err)
		os.Exit(1)
	}
	if sourceMode == room.SourcePublicPlaylist {
		if err := engine.SetRoomPublicPlaylist(host.PlayerID, playlistQuery); err != nil {
			fmt.Printf("setRoomPublicPlaylist failed: %v\n", err)
			os.Exit(1)
		}
	}

	if err := engine.StartGame(context.Background(), host.PlayerID, rounds); err != nil {
		fmt.Printf("startGame failed: %v\n", err)
		os.Exit(1)
	}

	clk.Advance(cfg.Room.CountdownMs)
	snap := engine.Snapshot()
	printSnapshot("round start", snap)

	for snap.State != room.PhaseResults {
		if snap.State == room.PhasePlaying {
			// The host skips every round rather than guessing: roomcli is an
			// operator tool, not a player client, and has no honest way to
			// know the hidden answer.
			if err := engine.SkipCurrentRound(host.PlayerID); err != nil {
				fmt.Printf("skipCurrentRound failed: %v\n", err)
			}
		}
		clk.Advance(cfg.Room.RevealMs + cfg.Room.LeaderboardMs + cfg.Room.PlayingMs)
		snap = engine.Snapshot()
		printSnapshot("round "+strconv.Itoa(snap.Round), snap)
	}

	results := engine.Results()
	fmt.Println("\n=== FINAL RESULTS ===")
	for _, entry := range results.Leaderboard {
		fmt.Printf("  #%d %-16s score=%d\n", entry.Rank, entry.DisplayName, entry.Score)
	}
}

func printSnapshot(label string, snap roomsession.Snapshot) {
	fmt.Printf("[%s] state=%s round=%d/%d pool=%d players=%d\n",
		label, snap.State, snap.Round+1, snap.TotalRounds, snap.PoolSize, snap.PlayerCount)
}
