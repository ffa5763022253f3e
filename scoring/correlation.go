package scoring

import (
	"strings"

	"github.com/chesswatch/fairplay/models"
)

// EngineCorrelation is the percentage of the analyzed player's moves
// that match the evaluator's best move, over the plies where a best
// move is known. No known best moves yields 0, not a division fault.
func EngineCorrelation(game *models.NormalizedGame, evals []models.PositionEvaluation) float64 {
	side := game.PlayerSide()
	known, matches := 0, 0
	for i, m := range game.Moves {
		if i >= len(evals) || m.Side != side {
			continue
		}
		best := evals[i].BestMoveUCI
		if best == "" {
			continue
		}
		known++
		if strings.EqualFold(best, m.UCI) {
			matches++
		}
	}
	if known == 0 {
		return 0
	}
	return float64(matches) / float64(known) * 100
}
