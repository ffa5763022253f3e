package models

// SuspicionWeights is the audited weight vector used by the suspicion
// scorer. The weights must sum to 1.
type SuspicionWeights struct {
	Loss        float64 `json:"loss" yaml:"loss"`
	Correlation float64 `json:"correlation" yaml:"correlation"`
	Consistency float64 `json:"consistency" yaml:"consistency"`
}

// SuspicionBreakdown records the normalized component signals and the
// weights that combined them, so a score is reproducible from its parts.
type SuspicionBreakdown struct {
	LossSignal        float64          `json:"loss_signal"`
	CorrelationSignal float64          `json:"correlation_signal"`
	ConsistencySignal float64          `json:"consistency_signal"`
	Weights           SuspicionWeights `json:"weights"`
}

// AccuracyMetrics holds per-phase and overall accuracy in [0,100].
// A phase with no scored plies is NaN.
type AccuracyMetrics struct {
	Opening           float64 `json:"opening"`
	Middlegame        float64 `json:"middlegame"`
	Endgame           float64 `json:"endgame"`
	Overall           float64 `json:"overall"`
	ConsistencyStdDev float64 `json:"consistency_std_dev"`
}

// AnalysisResult is the terminal artifact for one game, consumed
// read-only by reporting collaborators.
type AnalysisResult struct {
	GameID        string `json:"game_id"`
	Player        string `json:"player"`
	PlayerIsWhite bool   `json:"player_is_white"`

	// Complete reports whether the game's full move list was analyzed.
	// Cancelled runs drop in-flight games from the batch rather than
	// returning truncated metrics, so every returned result is marked
	// complete; the field makes that contract explicit for consumers.
	Complete bool `json:"complete"`

	SuspicionScore    float64            `json:"suspicion_score"`
	RiskLevel         string             `json:"risk_level"`
	EngineCorrelation float64            `json:"engine_correlation"`
	AvgCentipawnLoss  float64            `json:"avg_centipawn_loss"`
	BlunderCount      int                `json:"blunder_count"`
	Accuracy          AccuracyMetrics    `json:"accuracy"`
	Breakdown         SuspicionBreakdown `json:"breakdown"`

	Evaluations  []PositionEvaluation `json:"per_move_evaluations"`
	SourceCounts map[EvalSource]int   `json:"source_counts"`

	// NoEvaluation flags a game with nothing to score: every tier
	// failed for every ply, or too few known evaluations remain to
	// measure a single move. The scoring fields above are undefined
	// when it is set.
	NoEvaluation bool `json:"no_evaluation,omitempty"`
}

// RatingSample is one time-ordered (index, rating) observation.
type RatingSample struct {
	Index  int `json:"index"`
	Rating int `json:"rating"`
}

// RatingTrend is a least-squares fit over a player's rating history.
type RatingTrend struct {
	Slope     float64        `json:"slope"`
	Intercept float64        `json:"intercept"`
	Samples   []RatingSample `json:"samples"`
}
