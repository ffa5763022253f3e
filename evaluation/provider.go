// Package evaluation produces one position evaluation per played move,
// degrading gracefully across three data sources: a pre-computed cloud
// analysis, a local UCI engine subprocess, and a material heuristic
// that can never fail. Tier selection is per move, not per game; every
// evaluation carries a provenance tag.
package evaluation

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/chesswatch/fairplay/config"
	"github.com/chesswatch/fairplay/models"
)

// Provider runs the three-tier cascade for whole games. The provider
// itself holds no engine state: an engine subprocess is acquired on
// first local-tier need inside Evaluate and is always terminated before
// Evaluate returns. One Evaluate call runs at a time per Provider.
type Provider struct {
	cfg   config.Config
	log   *slog.Logger
	cloud *CloudClient // nil disables the cloud tier
	cache *Cache       // nil disables caching
}

// NewProvider wires a provider from config. The cloud tier is enabled
// when the config names a base URL; the local tier when it names an
// engine binary.
func NewProvider(cfg config.Config, log *slog.Logger, cache *Cache) *Provider {
	var cloud *CloudClient
	if cfg.Cloud.BaseURL != "" {
		cloud = NewCloudClient(cfg.Cloud.BaseURL, time.Duration(cfg.Cloud.TimeoutSeconds)*time.Second)
	}
	return &Provider{cfg: cfg, log: log, cloud: cloud, cache: cache}
}

// Evaluate returns exactly one evaluation per played move, in move
// order. It only fails on context cancellation; every tier failure
// degrades to the next tier instead.
func (p *Provider) Evaluate(ctx context.Context, game *models.NormalizedGame) ([]models.PositionEvaluation, error) {
	key := GameKey(game)
	if cached, ok := p.cache.Get(key); ok && len(cached) == len(game.Moves) {
		p.log.Debug("evaluation cache hit", "game", key)
		return cached, nil
	}

	evals := make([]models.PositionEvaluation, len(game.Moves))
	for i := range evals {
		evals[i] = models.PositionEvaluation{Source: models.SourceNone}
	}

	p.cloudTier(ctx, game, evals)

	if err := p.localTier(ctx, game, evals); err != nil {
		return nil, err
	}

	for i := range evals {
		if evals[i].Source == models.SourceNone {
			evals[i] = heuristicEvaluation(game.Moves[i])
		}
	}

	if cacheable(evals) {
		p.cache.Put(key, evals)
	}
	return evals, nil
}

// cloudTier fills evaluations from a pre-computed analysis keyed by the
// game's external id. Cloud entry k describes the position after move
// k, which is the position move k+1 was played from; ply 0 is left for
// the tiers below. Arrays longer than the game are rejected as corrupt.
func (p *Provider) cloudTier(ctx context.Context, game *models.NormalizedGame, evals []models.PositionEvaluation) {
	if p.cloud == nil || game.ExternalID == "" {
		return
	}
	entries, err := p.cloud.Analysis(ctx, game.ExternalID)
	if err != nil {
		p.log.Debug("cloud tier skipped", "game", game.ExternalID, "error", err)
		return
	}
	if len(entries) > len(game.Moves) {
		p.log.Warn("cloud analysis ply count exceeds game, rejecting",
			"game", game.ExternalID, "entries", len(entries), "plies", len(game.Moves))
		return
	}

	for k, entry := range entries {
		ply := k + 1
		if ply >= len(evals) {
			break
		}
		switch {
		case entry.Mate != nil:
			evals[ply] = models.PositionEvaluation{
				IsMate: true,
				MateIn: *entry.Mate,
				Source: models.SourceCloud,
			}
		case entry.Eval != nil:
			evals[ply] = models.CP(*entry.Eval, models.SourceCloud)
		default:
			continue
		}
		evals[ply].BestMoveUCI = entry.Best
	}
}

// localTier evaluates still-unfilled plies with an engine subprocess.
// Spawn failure skips the tier. Per-move failures are contained to
// that move: the stuck process is killed, restarted, and the tier
// continues with the next ply. Only two failures in a row, with no
// successful analysis in between, hand the rest of the game to the
// heuristic. The subprocess is shut down on every path.
func (p *Provider) localTier(ctx context.Context, game *models.NormalizedGame, evals []models.PositionEvaluation) error {
	if p.cfg.Engine.Path == "" {
		return nil
	}
	needed := false
	for i := range evals {
		if evals[i].Source == models.SourceNone {
			needed = true
			break
		}
	}
	if !needed {
		return nil
	}

	eng, err := p.startEngine()
	if err != nil {
		p.log.Info("local tier skipped", "error", err)
		return nil
	}
	defer func() { eng.Close() }()

	depth := p.cfg.Engine.Depth
	budget := budgetForDepth(depth)
	restarted := false

	for i, m := range game.Moves {
		if evals[i].Source != models.SourceNone {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		res, err := eng.AnalyzePosition(ctx, m.FEN, depth, budget)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		if err != nil {
			p.log.Warn("engine failed on ply", "ply", i, "error", err)
			if restarted {
				return nil // heuristic covers the rest
			}
			restarted = true
			eng.Close()
			if eng, err = p.startEngine(); err != nil {
				p.log.Info("engine restart failed", "error", err)
				return nil
			}
			continue // this ply falls to the heuristic
		}

		evals[i] = normalizeLocal(res, m.Side)
		restarted = false
	}
	return nil
}

func (p *Provider) startEngine() (*Engine, error) {
	return StartEngine(p.cfg.Engine.Path, p.cfg.Engine.Threads, p.cfg.Engine.HashMB)
}

// normalizeLocal converts a side-to-move engine score to the White
// perspective the rest of the pipeline expects.
func normalizeLocal(res EngineResult, mover models.Side) models.PositionEvaluation {
	sign := 1
	if mover == models.SideBlack {
		sign = -1
	}
	if res.IsMate {
		return models.PositionEvaluation{
			IsMate:      true,
			MateIn:      sign * res.MateIn,
			Source:      models.SourceLocal,
			BestMoveUCI: res.BestMove,
		}
	}
	ev := models.CP(sign*res.CP, models.SourceLocal)
	ev.BestMoveUCI = res.BestMove
	return ev
}
