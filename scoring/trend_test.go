package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chesswatch/fairplay/models"
)

func samples(ratings ...int) []models.RatingSample {
	out := make([]models.RatingSample, len(ratings))
	for i, r := range ratings {
		out[i] = models.RatingSample{Index: i, Rating: r}
	}
	return out
}

func TestFitRatingTrend_PositiveSlope(t *testing.T) {
	trend, err := FitRatingTrend(samples(1500, 1520, 1540))
	require.NoError(t, err)
	assert.InDelta(t, 20.0, trend.Slope, 1e-9)
	assert.InDelta(t, 1500.0, trend.Intercept, 1e-9)
	assert.Len(t, trend.Samples, 3)
}

func TestFitRatingTrend_FlatAndNoisy(t *testing.T) {
	trend, err := FitRatingTrend(samples(1600, 1600, 1600, 1600))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, trend.Slope, 1e-9)
	assert.InDelta(t, 1600.0, trend.Intercept, 1e-9)

	trend, err = FitRatingTrend(samples(1400, 1450, 1390, 1460))
	require.NoError(t, err)
	assert.Greater(t, trend.Slope, 0.0)
}

func TestFitRatingTrend_InsufficientData(t *testing.T) {
	_, err := FitRatingTrend(samples(1500))
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	_, err = FitRatingTrend(nil)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestRatingSamples_SelectsPlayerSide(t *testing.T) {
	games := []*models.NormalizedGame{
		{PlayerIsWhite: true, WhiteElo: 1500, BlackElo: 1800},
		{PlayerIsWhite: false, WhiteElo: 1900, BlackElo: 1510},
		{PlayerIsWhite: true}, // unrated, skipped
		{PlayerIsWhite: true, WhiteElo: 1520, BlackElo: 1780},
	}
	got := RatingSamples(games)
	require.Len(t, got, 3)
	assert.Equal(t, []models.RatingSample{
		{Index: 0, Rating: 1500},
		{Index: 1, Rating: 1510},
		{Index: 2, Rating: 1520},
	}, got)
}
