package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/chesswatch/fairplay/config"
	"github.com/chesswatch/fairplay/logging"
	"github.com/chesswatch/fairplay/models"
	"github.com/chesswatch/fairplay/normalize"
	"github.com/chesswatch/fairplay/scoring"
	"github.com/chesswatch/fairplay/worker"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  fairplay analyze <records.json> <username> [config.yaml] - Score games for a player")
		fmt.Println("  fairplay trend <records.json> <username>                 - Fit the player's rating trend")
		return
	}

	switch os.Args[1] {
	case "analyze":
		if len(os.Args) < 4 {
			fmt.Println("Usage: fairplay analyze <records.json> <username> [config.yaml]")
			os.Exit(2)
		}
		cfgPath := ""
		if len(os.Args) > 4 {
			cfgPath = os.Args[4]
		}
		if err := runAnalyze(os.Args[2], os.Args[3], cfgPath); err != nil {
			fmt.Fprintln(os.Stderr, "analyze:", err)
			os.Exit(1)
		}

	case "trend":
		if len(os.Args) < 4 {
			fmt.Println("Usage: fairplay trend <records.json> <username>")
			os.Exit(2)
		}
		if err := runTrend(os.Args[2], os.Args[3]); err != nil {
			fmt.Fprintln(os.Stderr, "trend:", err)
			os.Exit(1)
		}

	default:
		fmt.Println("Unknown command:", os.Args[1])
		os.Exit(2)
	}
}

func runAnalyze(recordsPath, username, cfgPath string) error {
	cfg := config.Default()
	if cfgPath != "" {
		var err error
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	if cfg.Engine.Path == "" {
		cfg.Engine.Path = findEngine()
	}

	log := logging.New(logging.ParseLevel(cfg.LogLevel))

	games, err := loadGames(recordsPath, username)
	if err != nil {
		return err
	}
	if len(games) == 0 {
		return fmt.Errorf("no analyzable games for %q in %s", username, recordsPath)
	}
	log.Info("starting analysis", "games", len(games), "workers", cfg.Workers,
		"engine", cfg.Engine.Path != "", "cloud", cfg.Cloud.BaseURL != "")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	batch := worker.NewPool(cfg, log).Run(ctx, games)
	return writeJSON(batch)
}

func runTrend(recordsPath, username string) error {
	log := logging.Default()
	games, err := loadGames(recordsPath, username)
	if err != nil {
		return err
	}
	trend, err := scoring.FitRatingTrend(scoring.RatingSamples(games))
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			log.Warn("not enough rated games for a trend", "player", username)
			return writeJSON(models.RatingTrend{})
		}
		return err
	}
	return writeJSON(trend)
}

// loadGames reads fetcher-produced game records and normalizes them.
// Malformed games are logged and skipped; they never fail the batch.
func loadGames(path, username string) ([]*models.NormalizedGame, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []models.GameRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	log := logging.Default()
	games := make([]*models.NormalizedGame, 0, len(records))
	for i, rec := range records {
		game, err := normalize.Game(rec, username)
		if err != nil {
			if errors.Is(err, models.ErrMalformedGame) {
				log.Warn("skipping malformed game", "index", i, "error", err)
				continue
			}
			return nil, err
		}
		games = append(games, game)
	}
	return games, nil
}

// findEngine looks for a UCI engine on PATH. Absence is a soft
// condition: the pipeline degrades to cloud and heuristic tiers.
func findEngine() string {
	for _, name := range []string{"stockfish", "stockfish.exe"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
