package evaluation

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesswatch/fairplay/config"
	"github.com/chesswatch/fairplay/models"
	"github.com/chesswatch/fairplay/normalize"
)

var italianPlies = []string{
	"e4", "e5", "Nf3", "Nc6", "Bc4", "Bc5", "c3", "Nf6", "d3", "d6",
	"O-O", "O-O", "Re1", "a6", "a4", "Ba7", "h3", "h6", "Nbd2", "Be6",
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testGame(t *testing.T, externalID string, sans ...string) *models.NormalizedGame {
	t.Helper()
	headers := map[string]string{"White": "alice", "Black": "bob"}
	if externalID != "" {
		headers["GameId"] = externalID
	}
	game, err := normalize.Game(models.GameRecord{Headers: headers, Moves: sans}, "alice")
	require.NoError(t, err)
	return game
}

func providerConfig(cloudURL string) config.Config {
	cfg := config.Default()
	cfg.Engine.Path = ""
	cfg.Cloud.BaseURL = cloudURL
	cfg.CacheDir = ""
	return cfg
}

func TestEvaluate_HeuristicOnly(t *testing.T) {
	game := testGame(t, "", italianPlies...)
	p := NewProvider(providerConfig(""), testLogger(), nil)

	evals, err := p.Evaluate(context.Background(), game)
	require.NoError(t, err)
	require.Len(t, evals, len(game.Moves))
	for i, ev := range evals {
		assert.Equal(t, models.SourceHeuristic, ev.Source, "ply %d", i)
		assert.True(t, ev.Known(), "ply %d", i)
	}
}

func cloudServer(t *testing.T, gameID string, entries []AnalysisEntry) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/games/"+gameID, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode(map[string]any{"analysis": entries})
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestEvaluate_PartialCloudCoverage(t *testing.T) {
	game := testGame(t, "q7ZvsdUF", italianPlies...)
	require.Len(t, game.Moves, 20)

	entries := make([]AnalysisEntry, 10)
	for i := range entries {
		cp := 15 * (i + 1)
		entries[i] = AnalysisEntry{Eval: &cp}
	}
	srv := cloudServer(t, "q7ZvsdUF", entries)

	p := NewProvider(providerConfig(srv.URL), testLogger(), nil)
	evals, err := p.Evaluate(context.Background(), game)
	require.NoError(t, err)
	require.Len(t, evals, 20)

	// Entry k describes the position after move k, i.e. ply k+1.
	cloud, heuristic := 0, 0
	for i, ev := range evals {
		switch ev.Source {
		case models.SourceCloud:
			cloud++
			assert.GreaterOrEqual(t, i, 1)
			assert.LessOrEqual(t, i, 10)
		case models.SourceHeuristic:
			heuristic++
		default:
			t.Fatalf("ply %d has source %q", i, ev.Source)
		}
	}
	assert.Equal(t, 10, cloud)
	assert.Equal(t, 10, heuristic)
	require.NotNil(t, evals[1].Centipawns)
	assert.Equal(t, 15, *evals[1].Centipawns)
}

func TestEvaluate_CloudMateAndBestMove(t *testing.T) {
	game := testGame(t, "q7ZvsdUF", "e4", "e5", "Nf3")
	mate := 2
	entries := []AnalysisEntry{
		{Mate: &mate, Best: "g1f3"},
	}
	srv := cloudServer(t, "q7ZvsdUF", entries)

	p := NewProvider(providerConfig(srv.URL), testLogger(), nil)
	evals, err := p.Evaluate(context.Background(), game)
	require.NoError(t, err)

	assert.True(t, evals[1].IsMate)
	assert.Equal(t, 2, evals[1].MateIn)
	assert.Equal(t, "g1f3", evals[1].BestMoveUCI)
	assert.Equal(t, models.SourceCloud, evals[1].Source)
}

func TestEvaluate_RejectsOversizedCloudAnalysis(t *testing.T) {
	game := testGame(t, "q7ZvsdUF", "e4", "e5", "Nf3")
	entries := make([]AnalysisEntry, 10) // more entries than plies
	for i := range entries {
		cp := i
		entries[i] = AnalysisEntry{Eval: &cp}
	}
	srv := cloudServer(t, "q7ZvsdUF", entries)

	p := NewProvider(providerConfig(srv.URL), testLogger(), nil)
	evals, err := p.Evaluate(context.Background(), game)
	require.NoError(t, err)
	for i, ev := range evals {
		assert.Equal(t, models.SourceHeuristic, ev.Source, "ply %d", i)
	}
}

func TestEvaluate_CloudFailureFallsThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	game := testGame(t, "q7ZvsdUF", "e4", "e5")
	p := NewProvider(providerConfig(srv.URL), testLogger(), nil)
	evals, err := p.Evaluate(context.Background(), game)
	require.NoError(t, err)
	require.Len(t, evals, 2)
	for _, ev := range evals {
		assert.Equal(t, models.SourceHeuristic, ev.Source)
	}
}

// flakyEngineScript speaks enough UCI for the handshake and exits
// mid-search on every second go command, so each spawned process
// serves exactly one position before dying.
const flakyEngineScript = `#!/bin/sh
count=0
while read -r line; do
  case "$line" in
    uci) echo "id name scripted"; echo "uciok" ;;
    isready) echo "readyok" ;;
    go*)
      count=$((count+1))
      if [ "$count" -ge 2 ]; then exit 0; fi
      echo "info depth 8 score cp 25"
      echo "bestmove e2e4"
      ;;
    quit) exit 0 ;;
  esac
done
`

func scriptedEngine(t *testing.T, script string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("scripted engine needs a POSIX shell")
	}
	path := filepath.Join(t.TempDir(), "engine.sh")
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestEvaluate_EngineFailureContainedToMove(t *testing.T) {
	game := testGame(t, "", italianPlies...)
	cfg := providerConfig("")
	cfg.Engine.Path = scriptedEngine(t, flakyEngineScript)

	p := NewProvider(cfg, testLogger(), nil)
	evals, err := p.Evaluate(context.Background(), game)
	require.NoError(t, err)
	require.Len(t, evals, 20)

	// Each death costs exactly the ply it hit; the restarted process
	// keeps serving the rest of the game.
	local, heuristic := 0, 0
	for i, ev := range evals {
		switch ev.Source {
		case models.SourceLocal:
			local++
			assert.Zero(t, i%2, "ply %d", i)
		case models.SourceHeuristic:
			heuristic++
			assert.Equal(t, 1, i%2, "ply %d", i)
		default:
			t.Fatalf("ply %d has source %q", i, ev.Source)
		}
	}
	assert.Equal(t, 10, local)
	assert.Equal(t, 10, heuristic)
}

func TestEvaluate_CacheHitShortCircuits(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	game := testGame(t, "", "e4", "e5")
	stored := []models.PositionEvaluation{
		models.CP(25, models.SourceLocal),
		models.CP(-10, models.SourceLocal),
	}
	stored[0].BestMoveUCI = "e2e4"
	cache.Put(GameKey(game), stored)

	p := NewProvider(providerConfig(""), testLogger(), cache)
	evals, err := p.Evaluate(context.Background(), game)
	require.NoError(t, err)
	assert.Equal(t, stored, evals)
}

func TestCache_RoundTrip(t *testing.T) {
	cache, err := OpenCache(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })

	evals := []models.PositionEvaluation{
		models.CP(12, models.SourceCloud),
		{IsMate: true, MateIn: -4, Source: models.SourceLocal, BestMoveUCI: "d8h4"},
	}
	cache.Put("key", evals)

	got, ok := cache.Get("key")
	require.True(t, ok)
	assert.Equal(t, evals, got)

	_, ok = cache.Get("missing")
	assert.False(t, ok)
}

func TestGameKey_Stable(t *testing.T) {
	a := testGame(t, "", "e4", "e5")
	b := testGame(t, "", "e4", "e5")
	c := testGame(t, "", "d4", "d5")
	assert.Equal(t, GameKey(a), GameKey(b))
	assert.NotEqual(t, GameKey(a), GameKey(c))
}

func TestCacheable(t *testing.T) {
	heuristic := []models.PositionEvaluation{models.CP(0, models.SourceHeuristic)}
	assert.False(t, cacheable(heuristic), "pure heuristic runs are recomputed")

	mixed := []models.PositionEvaluation{
		models.CP(0, models.SourceHeuristic),
		models.CP(30, models.SourceCloud),
	}
	assert.True(t, cacheable(mixed))
}
