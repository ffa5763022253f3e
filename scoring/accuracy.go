// Package scoring turns per-move evaluation streams into the forensic
// metrics of an analysis: centipawn loss, phase accuracies, engine
// correlation, rating trend and the aggregate suspicion score. Every
// function here is deterministic; identical inputs always reproduce
// identical figures.
package scoring

import (
	"math"

	"github.com/chesswatch/fairplay/config"
	"github.com/chesswatch/fairplay/models"
)

const (
	// mateScore is the fixed magnitude mate evaluations map to.
	mateScore = 10000
	// maxMoveLoss caps a single move's centipawn loss so mate swings
	// stay bounded.
	maxMoveLoss = 1000
	// blunderThreshold is the centipawn loss above which a move
	// counts as a blunder.
	blunderThreshold = 200
)

// AccuracyReport is the scorer's full output for one game.
type AccuracyReport struct {
	Metrics          models.AccuracyMetrics
	AvgCentipawnLoss float64
	BlunderCount     int
	ScoredPlies      int
}

// whiteValue maps an evaluation to a comparable White-perspective
// number, with mates at a fixed large magnitude.
func whiteValue(ev models.PositionEvaluation) (float64, bool) {
	if !ev.Known() {
		return 0, false
	}
	if ev.IsMate {
		if ev.MateIn >= 0 {
			return mateScore, true
		}
		return -mateScore, true
	}
	return float64(*ev.Centipawns), true
}

// MoveLoss computes the centipawn loss of move i from the mover's
// perspective: the drop between the evaluation of the position the
// mover faced and the one the opponent faces next. The final ply has
// no following evaluation and reports ok=false, as does any ply where
// either evaluation is unknown.
func MoveLoss(game *models.NormalizedGame, evals []models.PositionEvaluation, i int) (float64, bool) {
	if i < 0 || i+1 >= len(evals) || i >= len(game.Moves) {
		return 0, false
	}
	before, ok1 := whiteValue(evals[i])
	after, ok2 := whiteValue(evals[i+1])
	if !ok1 || !ok2 {
		return 0, false
	}
	sign := 1.0
	if game.Moves[i].Side == models.SideBlack {
		sign = -1.0
	}
	loss := sign * (before - after)
	if loss < 0 {
		loss = 0
	}
	if loss > maxMoveLoss {
		loss = maxMoveLoss
	}
	return loss, true
}

// Accuracy maps a centipawn loss to [0,100] with a smooth, strictly
// decreasing exponential: 100*exp(-loss/tau). Accuracy(0) is exactly
// 100 and the curve saturates toward 0 for large losses.
func Accuracy(loss, tau float64) float64 {
	if loss < 0 {
		loss = 0
	}
	return clamp(100*math.Exp(-loss/tau), 0, 100)
}

// phase classification for a scored ply.
type phase int

const (
	phaseOpening phase = iota
	phaseMiddlegame
	phaseEndgame
)

// classifyPhase buckets a ply: the first OpeningPlies plies are
// opening; a position with few enough pieces, or any ply in the final
// third of the game, is endgame; the rest is middlegame.
func classifyPhase(m models.Move, totalPlies int, cfg config.ScoringConfig) phase {
	if m.Ply < cfg.OpeningPlies {
		return phaseOpening
	}
	if m.Pieces <= cfg.EndgamePieces || m.Ply >= totalPlies*2/3 {
		return phaseEndgame
	}
	return phaseMiddlegame
}

// ScoreAccuracy derives the per-game accuracy metrics from the
// evaluation stream. Phases without a single scored ply come back as
// NaN; the consistency figure is the population standard deviation of
// per-move accuracy across the whole game.
func ScoreAccuracy(game *models.NormalizedGame, evals []models.PositionEvaluation, cfg config.ScoringConfig) AccuracyReport {
	var (
		report    AccuracyReport
		all       []float64
		byPhase   [3][]float64
		totalLoss float64
	)

	n := len(game.Moves)
	for i := 0; i < n; i++ {
		loss, ok := MoveLoss(game, evals, i)
		if !ok {
			continue
		}
		acc := Accuracy(loss, cfg.AccuracyTauCP)
		all = append(all, acc)
		ph := classifyPhase(game.Moves[i], n, cfg)
		byPhase[ph] = append(byPhase[ph], acc)
		totalLoss += loss
		if loss > blunderThreshold {
			report.BlunderCount++
		}
	}

	report.ScoredPlies = len(all)
	if len(all) > 0 {
		report.AvgCentipawnLoss = totalLoss / float64(len(all))
	}
	report.Metrics = models.AccuracyMetrics{
		Opening:           mean(byPhase[phaseOpening]),
		Middlegame:        mean(byPhase[phaseMiddlegame]),
		Endgame:           mean(byPhase[phaseEndgame]),
		Overall:           mean(all),
		ConsistencyStdDev: populationStdDev(all),
	}
	return report
}

// mean returns NaN for an empty slice, the defined empty-phase
// sentinel.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func populationStdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	variance := 0.0
	for _, x := range xs {
		d := x - m
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(xs)))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
