package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesswatch/fairplay/config"
	"github.com/chesswatch/fairplay/models"
	"github.com/chesswatch/fairplay/normalize"
)

func testGame(t *testing.T, player string, sans ...string) *models.NormalizedGame {
	t.Helper()
	game, err := normalize.Game(models.GameRecord{
		Headers: map[string]string{"White": "alice", "Black": "bob"},
		Moves:   sans,
	}, player)
	require.NoError(t, err)
	return game
}

func cps(values ...int) []models.PositionEvaluation {
	evals := make([]models.PositionEvaluation, len(values))
	for i, v := range values {
		evals[i] = models.CP(v, models.SourceLocal)
	}
	return evals
}

func TestAccuracy_Curve(t *testing.T) {
	tau := 150.0
	assert.Equal(t, 100.0, Accuracy(0, tau))

	prev := 100.0
	for loss := 10.0; loss <= 2000; loss += 10 {
		acc := Accuracy(loss, tau)
		assert.LessOrEqual(t, acc, prev, "loss %.0f", loss)
		assert.GreaterOrEqual(t, acc, 0.0)
		prev = acc
	}
	assert.Less(t, Accuracy(1500, tau), 1.0, "large losses saturate toward zero")
	assert.Equal(t, 100.0, Accuracy(-5, tau), "negative loss is treated as zero")
}

func TestMoveLoss_Perspectives(t *testing.T) {
	game := testGame(t, "alice", "e4", "e5", "Nf3")
	evals := cps(30, -10, 25)

	// White's e4: position went from +30 to -10 for White.
	loss, ok := MoveLoss(game, evals, 0)
	require.True(t, ok)
	assert.InDelta(t, 40, loss, 1e-9)

	// Black's e5: -10 became +25 for White, a 35 cp drop for Black.
	loss, ok = MoveLoss(game, evals, 1)
	require.True(t, ok)
	assert.InDelta(t, 35, loss, 1e-9)

	// Final ply has no following evaluation.
	_, ok = MoveLoss(game, evals, 2)
	assert.False(t, ok)
}

func TestMoveLoss_ImprovementIsZero(t *testing.T) {
	game := testGame(t, "alice", "e4", "e5")
	loss, ok := MoveLoss(game, cps(10, 60), 0)
	require.True(t, ok)
	assert.Zero(t, loss, "gaining evaluation never scores negative loss")
}

func TestMoveLoss_MateCapped(t *testing.T) {
	game := testGame(t, "alice", "e4", "e5")
	evals := []models.PositionEvaluation{
		models.CP(100, models.SourceLocal),
		{IsMate: true, MateIn: -2, Source: models.SourceLocal},
	}
	loss, ok := MoveLoss(game, evals, 0)
	require.True(t, ok)
	assert.Equal(t, 1000.0, loss, "mate swings are capped")
}

func TestMoveLoss_UnknownEvaluationSkipped(t *testing.T) {
	game := testGame(t, "alice", "e4", "e5")
	evals := []models.PositionEvaluation{
		{Source: models.SourceNone},
		models.CP(10, models.SourceLocal),
	}
	_, ok := MoveLoss(game, evals, 0)
	assert.False(t, ok)
}

func TestScoreAccuracy_PerfectEvenGame(t *testing.T) {
	game := testGame(t, "alice", "e4", "e5", "Nf3", "Nc6", "Bc4")
	report := ScoreAccuracy(game, cps(0, 0, 0, 0, 0), config.Default().Scoring)

	assert.Equal(t, 4, report.ScoredPlies)
	assert.Zero(t, report.AvgCentipawnLoss)
	assert.Zero(t, report.BlunderCount)
	assert.Equal(t, 100.0, report.Metrics.Overall)
	assert.Zero(t, report.Metrics.ConsistencyStdDev, "identical accuracies have zero spread")
}

func TestScoreAccuracy_EmptyPhaseIsNaN(t *testing.T) {
	game := testGame(t, "alice", "e4", "e5", "Nf3")
	report := ScoreAccuracy(game, cps(0, 0, 0), config.Default().Scoring)

	assert.False(t, math.IsNaN(report.Metrics.Opening))
	assert.True(t, math.IsNaN(report.Metrics.Middlegame), "no middlegame plies in a 3-ply game")
	assert.True(t, math.IsNaN(report.Metrics.Endgame))
	assert.False(t, math.IsNaN(report.Metrics.Overall))
}

func TestScoreAccuracy_NothingScorable(t *testing.T) {
	cfg := config.Default().Scoring

	// A single ply has no following evaluation to measure against.
	single := testGame(t, "alice", "e4")
	report := ScoreAccuracy(single, cps(30), cfg)
	assert.Zero(t, report.ScoredPlies)
	assert.Zero(t, report.AvgCentipawnLoss)
	assert.True(t, math.IsNaN(report.Metrics.Overall))
	assert.Zero(t, report.Metrics.ConsistencyStdDev)

	// Alternating unknowns break every before/after pair.
	game := testGame(t, "alice", "e4", "e5", "Nf3", "Nc6")
	evals := []models.PositionEvaluation{
		models.CP(10, models.SourceLocal),
		{Source: models.SourceNone},
		models.CP(-5, models.SourceLocal),
		{Source: models.SourceNone},
	}
	report = ScoreAccuracy(game, evals, cfg)
	assert.Zero(t, report.ScoredPlies)
	assert.True(t, math.IsNaN(report.Metrics.Overall))
}

func TestScoreAccuracy_CountsBlunders(t *testing.T) {
	game := testGame(t, "alice", "e4", "e5", "Nf3")
	// White's first move drops 300 cp, black's reply drops nothing.
	report := ScoreAccuracy(game, cps(0, -300, -300), config.Default().Scoring)
	assert.Equal(t, 1, report.BlunderCount)
	assert.InDelta(t, 150, report.AvgCentipawnLoss, 1e-9)
}
