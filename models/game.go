package models

// Side identifies the color to move.
type Side string

const (
	SideWhite Side = "white"
	SideBlack Side = "black"
)

// Opponent returns the other side.
func (s Side) Opponent() Side {
	if s == SideWhite {
		return SideBlack
	}
	return SideWhite
}

// GameRecord is the raw input shape supplied by the fetcher collaborator:
// a PGN-style header map plus the move sequence in SAN.
type GameRecord struct {
	Headers map[string]string `json:"headers"`
	Moves   []string          `json:"moves"`
}

// Move is one ply of a normalized game.
type Move struct {
	Ply  int    `json:"ply"`  // zero-based half-move index
	Side Side   `json:"side"` // side that played this move
	SAN  string `json:"san"`
	UCI  string `json:"uci"`
	FEN  string `json:"fen"` // position the mover faced, before the move

	// InCheck reports whether the mover was in check in this position.
	InCheck bool `json:"in_check,omitempty"`
	// Pieces counts non-pawn, non-king pieces on the board before the
	// move, used for endgame detection.
	Pieces int `json:"pieces"`
}

// NormalizedGame is the replayed, side-resolved form of a GameRecord.
// It is created once per input game and never mutated afterwards.
type NormalizedGame struct {
	White         string `json:"white"`
	Black         string `json:"black"`
	Player        string `json:"player"`
	PlayerIsWhite bool   `json:"player_is_white"`
	WhiteElo      int    `json:"white_elo,omitempty"`
	BlackElo      int    `json:"black_elo,omitempty"`
	Result        string `json:"result"`
	TimeControl   string `json:"time_control,omitempty"`

	// ExternalID is the platform game identifier used to look up a
	// pre-computed cloud analysis, when the headers carry one.
	ExternalID string `json:"external_id,omitempty"`

	Moves []Move `json:"moves"`
}

// PlayerSide returns the side the analyzed player played.
func (g *NormalizedGame) PlayerSide() Side {
	if g.PlayerIsWhite {
		return SideWhite
	}
	return SideBlack
}
