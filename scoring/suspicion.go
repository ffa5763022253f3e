package scoring

import "github.com/chesswatch/fairplay/models"

// SuspicionInputs are the three aggregate signals the scorer combines.
type SuspicionInputs struct {
	AvgCentipawnLoss  float64
	EngineCorrelation float64
	ConsistencyStdDev float64
}

// Suspicion combines the three inputs into one bounded score plus the
// breakdown that reproduces it. It is a pure function: the same inputs
// and weights always yield the same score.
//
// Component normalization, each clamped to [0,100] before weighting:
//
//	lossSignal = 100 - avgCentipawnLoss   (lower loss, stronger play)
//	corrSignal = engineCorrelation        (already a percentage)
//	evenSignal = 100 - 4*stdDev           (superhuman evenness)
//
// The even signal only matters alongside the others: a flat accuracy
// profile at a low mean contributes through a low loss/correlation
// component, so evenness alone cannot dominate the score.
func Suspicion(in SuspicionInputs, w models.SuspicionWeights) (float64, models.SuspicionBreakdown) {
	breakdown := models.SuspicionBreakdown{
		LossSignal:        clamp(100-in.AvgCentipawnLoss, 0, 100),
		CorrelationSignal: clamp(in.EngineCorrelation, 0, 100),
		ConsistencySignal: clamp(100-4*in.ConsistencyStdDev, 0, 100),
		Weights:           w,
	}
	score := w.Loss*breakdown.LossSignal +
		w.Correlation*breakdown.CorrelationSignal +
		w.Consistency*breakdown.ConsistencySignal
	return clamp(score, 0, 100), breakdown
}

// RiskLevel bands a suspicion score for human reviewers.
func RiskLevel(score float64) string {
	switch {
	case score >= 80:
		return "VERY HIGH"
	case score >= 60:
		return "HIGH"
	case score >= 40:
		return "MODERATE"
	case score >= 20:
		return "LOW"
	default:
		return "MINIMAL"
	}
}
