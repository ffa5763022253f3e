// Package worker runs game analyses: a per-game pipeline from
// evaluation stream to suspicion score, and a bounded pool that fans a
// batch of games across workers, each owning its own engine-backed
// evaluation provider.
package worker

import (
	"context"
	"log/slog"
	"math"

	"github.com/chesswatch/fairplay/config"
	"github.com/chesswatch/fairplay/evaluation"
	"github.com/chesswatch/fairplay/models"
	"github.com/chesswatch/fairplay/scoring"
)

// Analyzer is the synchronous per-game pipeline. One Analyzer serves
// one worker goroutine; its provider acquires and releases an engine
// subprocess per game, so engines are never shared across analyses.
type Analyzer struct {
	cfg      config.Config
	log      *slog.Logger
	provider *evaluation.Provider
}

// NewAnalyzer builds a pipeline instance. The cache may be nil.
func NewAnalyzer(cfg config.Config, log *slog.Logger, cache *evaluation.Cache) *Analyzer {
	return &Analyzer{
		cfg:      cfg,
		log:      log,
		provider: evaluation.NewProvider(cfg, log, cache),
	}
}

// AnalyzeGame produces the terminal AnalysisResult for one game. It
// fails only on context cancellation; evaluation-tier degradation is
// absorbed upstream and a game with nothing to score comes back
// flagged NoEvaluation instead of erroring.
func (a *Analyzer) AnalyzeGame(ctx context.Context, game *models.NormalizedGame) (*models.AnalysisResult, error) {
	evals, err := a.provider.Evaluate(ctx, game)
	if err != nil {
		return nil, err
	}

	res := &models.AnalysisResult{
		Player:        game.Player,
		PlayerIsWhite: game.PlayerIsWhite,
		Complete:      true,
		Evaluations:   evals,
		SourceCounts:  countSources(evals),
	}

	report := scoring.ScoreAccuracy(game, evals, a.cfg.Scoring)

	// A game with zero loss-scorable plies (every tier failed, a
	// single-ply game, unknown evaluations breaking every pair) must
	// not score: the zero-loss, zero-spread inputs would read as
	// perfect play.
	if report.ScoredPlies == 0 {
		res.NoEvaluation = true
		res.RiskLevel = scoring.RiskLevel(0)
		res.Accuracy = models.AccuracyMetrics{
			Opening:    math.NaN(),
			Middlegame: math.NaN(),
			Endgame:    math.NaN(),
			Overall:    math.NaN(),
		}
		return res, nil
	}

	correlation := scoring.EngineCorrelation(game, evals)
	score, breakdown := scoring.Suspicion(scoring.SuspicionInputs{
		AvgCentipawnLoss:  report.AvgCentipawnLoss,
		EngineCorrelation: correlation,
		ConsistencyStdDev: report.Metrics.ConsistencyStdDev,
	}, a.cfg.Scoring.Weights)

	res.SuspicionScore = score
	res.RiskLevel = scoring.RiskLevel(score)
	res.EngineCorrelation = correlation
	res.AvgCentipawnLoss = report.AvgCentipawnLoss
	res.BlunderCount = report.BlunderCount
	res.Accuracy = report.Metrics
	res.Breakdown = breakdown

	a.log.Info("game analyzed",
		"player", game.Player,
		"plies", len(game.Moves),
		"correlation", correlation,
		"avg_cpl", report.AvgCentipawnLoss,
		"suspicion", score)
	return res, nil
}

func countSources(evals []models.PositionEvaluation) map[models.EvalSource]int {
	counts := make(map[models.EvalSource]int)
	for _, ev := range evals {
		counts[ev.Source]++
	}
	return counts
}
