package scoring

import (
	"fmt"

	"github.com/chesswatch/fairplay/models"
)

// RatingSamples extracts the analyzed player's rating per game, in
// input order, selecting the elo field for the side the player held.
// Games without a rating are skipped.
func RatingSamples(games []*models.NormalizedGame) []models.RatingSample {
	var samples []models.RatingSample
	for _, g := range games {
		rating := g.BlackElo
		if g.PlayerIsWhite {
			rating = g.WhiteElo
		}
		if rating == 0 {
			continue
		}
		samples = append(samples, models.RatingSample{Index: len(samples), Rating: rating})
	}
	return samples
}

// FitRatingTrend fits ordinary least squares over index vs rating.
// Fewer than two samples is ErrInsufficientData; the trend is purely
// descriptive context and never feeds the suspicion score.
func FitRatingTrend(samples []models.RatingSample) (models.RatingTrend, error) {
	if len(samples) < 2 {
		return models.RatingTrend{}, fmt.Errorf("%w: %d rating sample(s)",
			models.ErrInsufficientData, len(samples))
	}

	n := float64(len(samples))
	var sumX, sumY, sumXY, sumXX float64
	for _, s := range samples {
		x, y := float64(s.Index), float64(s.Rating)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return models.RatingTrend{}, fmt.Errorf("%w: degenerate sample spacing",
			models.ErrInsufficientData)
	}
	slope := (n*sumXY - sumX*sumY) / denom
	intercept := (sumY - slope*sumX) / n

	return models.RatingTrend{Slope: slope, Intercept: intercept, Samples: samples}, nil
}
