package worker

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chesswatch/fairplay/config"
	"github.com/chesswatch/fairplay/evaluation"
	"github.com/chesswatch/fairplay/models"
	"github.com/chesswatch/fairplay/scoring"
)

// Pool distributes a batch of normalized games over a bounded set of
// workers. Each worker holds exactly one Analyzer, and through it at
// most one engine subprocess at a time; no engine is ever shared.
type Pool struct {
	cfg config.Config
	log *slog.Logger
}

// NewPool builds a pool from config.
func NewPool(cfg config.Config, log *slog.Logger) *Pool {
	return &Pool{cfg: cfg, log: log}
}

type job struct {
	id   string
	game *models.NormalizedGame
}

// Run analyzes every game and returns the batch. Cancellation is
// observed between games: the batch comes back Partial with whatever
// results completed, never an error. The rating trend across the
// input games is attached when at least two rated games exist.
func (p *Pool) Run(ctx context.Context, games []*models.NormalizedGame) *Batch {
	batch := newBatch(len(games), p.log)

	if trend, err := scoring.FitRatingTrend(scoring.RatingSamples(games)); err == nil {
		batch.Trend = &trend
	} else if !errors.Is(err, models.ErrInsufficientData) {
		p.log.Warn("rating trend failed", "error", err)
	}

	var cache *evaluation.Cache
	if p.cfg.CacheDir != "" {
		var err error
		if cache, err = evaluation.OpenCache(p.cfg.CacheDir); err != nil {
			p.log.Warn("evaluation cache disabled", "error", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	workers := p.cfg.Workers
	if workers > len(games) {
		workers = len(games)
	}
	if workers < 1 {
		workers = 1
	}

	jobs := make(chan job)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, game := range games {
			select {
			case jobs <- job{id: uuid.NewString(), game: game}:
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	for w := 0; w < workers; w++ {
		g.Go(func() error {
			analyzer := NewAnalyzer(p.cfg, p.log, cache)
			for j := range jobs {
				res, err := analyzer.AnalyzeGame(gctx, j.game)
				if err != nil {
					if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
						return nil
					}
					p.log.Error("game analysis failed", "job", j.id, "error", err)
					continue
				}
				batch.submit(j.id, res)
			}
			return nil
		})
	}

	g.Wait()
	batch.Partial = ctx.Err() != nil
	batch.aggregate()
	return batch
}
