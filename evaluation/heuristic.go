package evaluation

import (
	"github.com/corentings/chess"

	"github.com/chesswatch/fairplay/models"
)

// Piece values in centipawns for material-based evaluation.
var pieceValues = map[chess.PieceType]int{
	chess.Pawn:   100,
	chess.Knight: 320,
	chess.Bishop: 330,
	chess.Rook:   500,
	chess.Queen:  900,
	chess.King:   0,
}

// developmentPlies bounds the phase in which minor-piece development is
// rewarded.
const developmentPlies = 20

// heuristicEvaluation synthesizes an approximate evaluation for a move's
// position from material balance, early development and check status.
// It is the guaranteed terminal fallback of the cascade: it cannot fail
// for a position produced by the normalizer.
func heuristicEvaluation(m models.Move) models.PositionEvaluation {
	pos := &chess.Position{}
	if err := pos.UnmarshalText([]byte(m.FEN)); err != nil {
		// Not reachable for normalized games; treated as the
		// ply having no evaluation at all.
		return models.PositionEvaluation{Source: models.SourceNone}
	}

	eval := 0
	for _, p := range pos.Board().SquareMap() {
		v := pieceValues[p.Type()]
		if p.Color() == chess.White {
			eval += v
		} else {
			eval -= v
		}
	}

	// Reward early development: vacated home squares for the
	// queenside knight and kingside knight.
	if m.Ply < developmentPlies {
		board := pos.Board()
		if board.Piece(chess.B1) == chess.NoPiece {
			eval += 20
		}
		if board.Piece(chess.G1) == chess.NoPiece {
			eval += 20
		}
		if board.Piece(chess.B8) == chess.NoPiece {
			eval -= 20
		}
		if board.Piece(chess.G8) == chess.NoPiece {
			eval -= 20
		}
	}

	// A side to move in check is worse off.
	if m.InCheck {
		if m.Side == models.SideWhite {
			eval -= 50
		} else {
			eval += 50
		}
	}

	return models.CP(eval, models.SourceHeuristic)
}
