package models

import "errors"

var (
	// ErrMalformedGame marks a game whose moves cannot be replayed or
	// whose headers do not name the requested player. The game is
	// skipped; the batch continues.
	ErrMalformedGame = errors.New("malformed game")

	// ErrSourceUnavailable marks an evaluation tier that could not be
	// reached (network failure, engine spawn failure). The cascade
	// continues with the next tier.
	ErrSourceUnavailable = errors.New("evaluation source unavailable")

	// ErrEngineTimeout marks a single move that exceeded its engine
	// time budget.
	ErrEngineTimeout = errors.New("engine timeout")

	// ErrInsufficientData marks an analysis that needs more samples,
	// e.g. a rating trend with fewer than two points.
	ErrInsufficientData = errors.New("insufficient data")
)
