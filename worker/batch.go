package worker

import (
	"log/slog"
	"math"
	"sync"

	"github.com/google/uuid"

	"github.com/chesswatch/fairplay/models"
)

// BatchAggregate summarizes a batch for reviewers: the same statistics
// the per-game scorer produces, averaged across the games that were
// analyzed.
type BatchAggregate struct {
	AvgEngineCorrelation float64 `json:"avg_engine_correlation"`
	AvgCentipawnLoss     float64 `json:"avg_centipawn_loss"`
	AvgSuspicion         float64 `json:"avg_suspicion"`
	AccuracyStdDev       float64 `json:"accuracy_std_dev"`
	SuspiciousGames      int     `json:"suspicious_games"`
}

// suspicionFlagThreshold marks a game worth individual review.
const suspicionFlagThreshold = 60.0

// Batch collects results for one pool run.
type Batch struct {
	ID        string                            `json:"id"`
	Total     int                               `json:"total"`
	Completed int                               `json:"completed"`
	Results   map[string]*models.AnalysisResult `json:"results"`
	// Partial is set when the run was cancelled before every game
	// finished; Results then holds whatever completed.
	Partial   bool                `json:"partial,omitempty"`
	Trend     *models.RatingTrend `json:"rating_trend,omitempty"`
	Aggregate BatchAggregate      `json:"aggregate"`

	mu  sync.Mutex
	log *slog.Logger
}

func newBatch(total int, log *slog.Logger) *Batch {
	return &Batch{
		ID:      uuid.NewString(),
		Total:   total,
		Results: make(map[string]*models.AnalysisResult),
		log:     log,
	}
}

// submit stores a completed result under its job id.
func (b *Batch) submit(jobID string, res *models.AnalysisResult) {
	b.mu.Lock()
	defer b.mu.Unlock()

	res.GameID = jobID
	b.Results[jobID] = res
	b.Completed++
	b.log.Info("batch progress", "batch", b.ID, "completed", b.Completed, "total", b.Total)
}

// aggregate computes the cross-game summary from whatever completed.
// Games flagged NoEvaluation carry no usable metrics and are excluded.
func (b *Batch) aggregate() {
	b.mu.Lock()
	defer b.mu.Unlock()

	var corr, cpl, susp, accSum float64
	var accs []float64
	n := 0
	for _, res := range b.Results {
		if res.NoEvaluation {
			continue
		}
		n++
		corr += res.EngineCorrelation
		cpl += res.AvgCentipawnLoss
		susp += res.SuspicionScore
		if res.SuspicionScore >= suspicionFlagThreshold {
			b.Aggregate.SuspiciousGames++
		}
		if !math.IsNaN(res.Accuracy.Overall) {
			accs = append(accs, res.Accuracy.Overall)
			accSum += res.Accuracy.Overall
		}
	}
	if n == 0 {
		return
	}
	b.Aggregate.AvgEngineCorrelation = corr / float64(n)
	b.Aggregate.AvgCentipawnLoss = cpl / float64(n)
	b.Aggregate.AvgSuspicion = susp / float64(n)

	if len(accs) > 1 {
		m := accSum / float64(len(accs))
		variance := 0.0
		for _, a := range accs {
			d := a - m
			variance += d * d
		}
		b.Aggregate.AccuracyStdDev = math.Sqrt(variance / float64(len(accs)))
	}
}
