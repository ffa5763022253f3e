package models

// EvalSource records which tier produced an evaluation.
type EvalSource string

const (
	SourceCloud     EvalSource = "cloud"
	SourceLocal     EvalSource = "local"
	SourceHeuristic EvalSource = "heuristic"
	// SourceNone marks a ply no tier could evaluate.
	SourceNone EvalSource = "none"
)

// PositionEvaluation is the evaluation of the position a mover faced,
// from White's perspective regardless of source. Exactly one exists per
// played move, in move order.
type PositionEvaluation struct {
	// Centipawns is nil for mate scores and unevaluated plies.
	Centipawns *int       `json:"centipawns"`
	IsMate     bool       `json:"is_mate,omitempty"`
	MateIn     int        `json:"mate_in,omitempty"` // positive: White mates
	Source     EvalSource `json:"source"`
	// BestMoveUCI is the best move in this position when the source
	// reported one; empty otherwise.
	BestMoveUCI string `json:"best_move,omitempty"`
}

// Known reports whether the evaluation carries a usable score.
func (e PositionEvaluation) Known() bool {
	return e.Source != SourceNone && (e.Centipawns != nil || e.IsMate)
}

// CP is a convenience constructor for a plain centipawn evaluation.
func CP(centipawns int, source EvalSource) PositionEvaluation {
	v := centipawns
	return PositionEvaluation{Centipawns: &v, Source: source}
}
