package evaluation

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/chesswatch/fairplay/models"
)

// Cache persists per-game evaluation streams so re-analysis of the same
// game skips the cascade entirely. Backed by badger; a nil *Cache is a
// valid no-op cache.
type Cache struct {
	db *badger.DB
}

// OpenCache opens (or creates) an evaluation cache at dir.
func OpenCache(dir string) (*Cache, error) {
	opts := badger.DefaultOptions(dir).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open evaluation cache: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close releases the underlying store.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.db.Close()
}

// GameKey derives a stable cache key from a game's players and move
// sequence.
func GameKey(game *models.NormalizedGame) string {
	h := md5.New()
	fmt.Fprintf(h, "%s|%s|", game.White, game.Black)
	for _, m := range game.Moves {
		h.Write([]byte(m.SAN))
		h.Write([]byte{' '})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the cached evaluations for a key, or ok=false on a miss.
func (c *Cache) Get(key string) ([]models.PositionEvaluation, bool) {
	if c == nil {
		return nil, false
	}
	var evals []models.PositionEvaluation
	err := c.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &evals)
		})
	})
	if err != nil {
		return nil, false
	}
	return evals, true
}

// Put stores the evaluations for a key. Failures are swallowed: the
// cache is an accelerator, never a correctness concern.
func (c *Cache) Put(key string, evals []models.PositionEvaluation) {
	if c == nil {
		return
	}
	data, err := json.Marshal(evals)
	if err != nil {
		return
	}
	_ = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

// cacheable reports whether a stream is worth persisting: heuristic
// evaluations are cheap to recompute and pinning them would mask later
// engine availability.
func cacheable(evals []models.PositionEvaluation) bool {
	for _, ev := range evals {
		if ev.Source == models.SourceCloud || ev.Source == models.SourceLocal {
			return true
		}
	}
	return false
}
