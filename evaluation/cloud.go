package evaluation

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/chesswatch/fairplay/models"
)

// CloudClient looks up pre-computed per-ply analyses keyed by a
// platform game identifier. It is best-effort: every failure mode maps
// to ErrSourceUnavailable and the caller falls through to the next
// tier. No retries.
type CloudClient struct {
	baseURL string
	client  *http.Client
}

// AnalysisEntry is one ply of a cloud analysis. Eval is centipawns from
// White's perspective of the position after that ply; Mate replaces it
// for forced-mate positions. Best carries the engine's preferred move
// in UCI form when the platform recorded one.
type AnalysisEntry struct {
	Eval *int   `json:"eval"`
	Mate *int   `json:"mate"`
	Best string `json:"best,omitempty"`
}

// NewCloudClient builds a client for the given analysis host.
func NewCloudClient(baseURL string, timeout time.Duration) *CloudClient {
	return &CloudClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
	}
}

// Analysis fetches the per-ply evaluation array for a game id.
func (c *CloudClient) Analysis(ctx context.Context, gameID string) ([]AnalysisEntry, error) {
	url := fmt.Sprintf("%s/api/games/%s", c.baseURL, gameID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for game %s", models.ErrSourceUnavailable, resp.StatusCode, gameID)
	}

	var payload struct {
		Analysis []AnalysisEntry `json:"analysis"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	if len(payload.Analysis) == 0 {
		return nil, fmt.Errorf("%w: game %s has no analysis", models.ErrSourceUnavailable, gameID)
	}
	return payload.Analysis, nil
}
