// Package normalize converts raw game records into replayed, per-ply
// normalized games the evaluation pipeline consumes.
package normalize

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/corentings/chess"

	"github.com/chesswatch/fairplay/models"
)

// Game replays a record's move sequence from the starting position and
// resolves which side the analyzed player held. Username matching
// against the White/Black headers is case-insensitive. Unreplayable
// moves and unknown players return models.ErrMalformedGame.
func Game(rec models.GameRecord, username string) (*models.NormalizedGame, error) {
	white := rec.Headers["White"]
	black := rec.Headers["Black"]

	var playerIsWhite bool
	switch {
	case strings.EqualFold(white, username):
		playerIsWhite = true
	case strings.EqualFold(black, username):
		playerIsWhite = false
	default:
		return nil, fmt.Errorf("%w: player %q is neither %q nor %q",
			models.ErrMalformedGame, username, white, black)
	}

	game := chess.NewGame()
	moves := make([]models.Move, 0, len(rec.Moves))
	for ply, san := range rec.Moves {
		pos := game.Position()
		side := models.SideWhite
		if pos.Turn() == chess.Black {
			side = models.SideBlack
		}

		m := models.Move{
			Ply:    ply,
			Side:   side,
			SAN:    san,
			FEN:    pos.String(),
			Pieces: countPieces(pos),
		}
		if ply > 0 {
			prev := game.Moves()[ply-1]
			m.InCheck = prev.HasTag(chess.Check)
		}

		if err := game.MoveStr(san); err != nil {
			return nil, fmt.Errorf("%w: ply %d (%s): %v", models.ErrMalformedGame, ply, san, err)
		}
		played := game.Moves()[ply]
		m.UCI = chess.UCINotation{}.Encode(pos, played)
		moves = append(moves, m)
	}

	return &models.NormalizedGame{
		White:         white,
		Black:         black,
		Player:        username,
		PlayerIsWhite: playerIsWhite,
		WhiteElo:      atoi(rec.Headers["WhiteElo"]),
		BlackElo:      atoi(rec.Headers["BlackElo"]),
		Result:        rec.Headers["Result"],
		TimeControl:   rec.Headers["TimeControl"],
		ExternalID:    externalID(rec.Headers),
		Moves:         moves,
	}, nil
}

// countPieces counts non-pawn, non-king pieces on the board.
func countPieces(pos *chess.Position) int {
	n := 0
	for _, p := range pos.Board().SquareMap() {
		if t := p.Type(); t != chess.Pawn && t != chess.King {
			n++
		}
	}
	return n
}

// externalID extracts a platform game identifier usable for cloud
// analysis lookup. Lichess links carry the id as the last path segment.
func externalID(headers map[string]string) string {
	if id := headers["GameId"]; id != "" {
		return id
	}
	for _, key := range []string{"Link", "Site"} {
		link := headers[key]
		if !strings.Contains(link, "lichess.org") {
			continue
		}
		id := link[strings.LastIndex(link, "/")+1:]
		if i := strings.IndexByte(id, '?'); i >= 0 {
			id = id[:i]
		}
		// Lichess game ids are 8 characters; anything shorter is a
		// profile or tournament link.
		if len(id) >= 8 {
			return id
		}
	}
	return ""
}

func atoi(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
