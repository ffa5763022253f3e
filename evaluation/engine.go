package evaluation

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/chesswatch/fairplay/models"
)

// watchdogSlack is added to the per-move budget before the engine is
// told to stop, and again before the process is killed outright.
const watchdogSlack = 500 * time.Millisecond

// Engine wraps a UCI chess engine subprocess. An Engine is owned by a
// single evaluation run and must not be shared across goroutines.
type Engine struct {
	cmd    *exec.Cmd
	stdin  *bufio.Writer
	lines  chan string
	quit   chan struct{} // closed on shutdown so the reader never blocks forever
	killed bool
}

// EngineResult holds one position analysis. Scores are from the side
// to move, as the UCI protocol reports them.
type EngineResult struct {
	CP       int
	IsMate   bool
	MateIn   int
	BestMove string
	Depth    int
}

// StartEngine spawns the engine binary and performs the UCI handshake.
// A spawn or handshake failure is reported as ErrSourceUnavailable.
func StartEngine(path string, threads, hashMB int) (*Engine, error) {
	cmd := exec.Command(path)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSourceUnavailable, err)
	}

	e := &Engine{
		cmd:   cmd,
		stdin: bufio.NewWriter(stdin),
		lines: make(chan string, 64),
		quit:  make(chan struct{}),
	}
	go func() {
		scanner := bufio.NewScanner(stdout)
		for scanner.Scan() {
			select {
			case e.lines <- scanner.Text():
			case <-e.quit:
				return
			}
		}
		close(e.lines)
	}()

	// Initialize UCI
	e.sendCommand("uci")
	if err := e.waitForResponse("uciok", 5*time.Second); err != nil {
		e.kill()
		return nil, fmt.Errorf("%w: no uciok: %v", models.ErrSourceUnavailable, err)
	}
	if threads > 0 {
		e.sendCommand(fmt.Sprintf("setoption name Threads value %d", threads))
	}
	if hashMB > 0 {
		e.sendCommand(fmt.Sprintf("setoption name Hash value %d", hashMB))
	}
	e.sendCommand("isready")
	if err := e.waitForResponse("readyok", 5*time.Second); err != nil {
		e.kill()
		return nil, fmt.Errorf("%w: no readyok: %v", models.ErrSourceUnavailable, err)
	}

	return e, nil
}

func (e *Engine) sendCommand(cmd string) {
	e.stdin.WriteString(cmd + "\n")
	e.stdin.Flush()
}

func (e *Engine) waitForResponse(expected string, timeout time.Duration) error {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				return fmt.Errorf("engine closed stdout")
			}
			if strings.Contains(line, expected) {
				return nil
			}
		case <-timer.C:
			return fmt.Errorf("timed out waiting for %q", expected)
		}
	}
}

// AnalyzePosition analyzes a FEN with a depth limit and a per-move time
// budget. A watchdog first asks the engine to stop, then kills the
// process if it stays stuck; a killed engine reports ErrEngineTimeout
// and every later call fails fast with ErrSourceUnavailable.
func (e *Engine) AnalyzePosition(ctx context.Context, fen string, depth int, budget time.Duration) (EngineResult, error) {
	if e.killed {
		return EngineResult{}, models.ErrSourceUnavailable
	}

	e.sendCommand(fmt.Sprintf("position fen %s", fen))
	e.sendCommand(fmt.Sprintf("go depth %d movetime %d", depth, budget.Milliseconds()))

	deadline := time.NewTimer(budget + watchdogSlack)
	defer deadline.Stop()

	var collected []string
	stopped := false
	for {
		select {
		case line, ok := <-e.lines:
			if !ok {
				e.kill()
				return EngineResult{}, fmt.Errorf("%w: engine exited", models.ErrSourceUnavailable)
			}
			collected = append(collected, line)
			if strings.HasPrefix(line, "bestmove") {
				return parseSearchOutput(collected), nil
			}
		case <-deadline.C:
			if !stopped {
				// Ask nicely once, then enforce the hard ceiling.
				stopped = true
				e.sendCommand("stop")
				deadline.Reset(watchdogSlack)
				continue
			}
			e.kill()
			return EngineResult{}, fmt.Errorf("%w: no bestmove within %v", models.ErrEngineTimeout, budget)
		case <-ctx.Done():
			e.sendCommand("stop")
			return EngineResult{}, ctx.Err()
		}
	}
}

// parseSearchOutput extracts the principal score and best move from the
// engine's info/bestmove lines. The last info line wins.
func parseSearchOutput(lines []string) EngineResult {
	var res EngineResult
	for _, line := range lines {
		if strings.HasPrefix(line, "info") {
			parts := strings.Fields(line)
			for i, part := range parts {
				switch part {
				case "score":
					if i+2 < len(parts) {
						switch parts[i+1] {
						case "cp":
							fmt.Sscanf(parts[i+2], "%d", &res.CP)
							res.IsMate = false
						case "mate":
							fmt.Sscanf(parts[i+2], "%d", &res.MateIn)
							res.IsMate = true
						}
					}
				case "depth":
					if i+1 < len(parts) {
						fmt.Sscanf(parts[i+1], "%d", &res.Depth)
					}
				}
			}
		} else if strings.HasPrefix(line, "bestmove") {
			parts := strings.Fields(line)
			if len(parts) > 1 && parts[1] != "(none)" {
				res.BestMove = parts[1]
			}
		}
	}
	return res
}

// budgetForDepth maps a search depth to a per-move time budget. The
// table is monotonic; past its last entry the budget doubles every four
// plies of depth.
func budgetForDepth(depth int) time.Duration {
	switch {
	case depth <= 16:
		return 500 * time.Millisecond
	case depth <= 20:
		return 1 * time.Second
	case depth <= 24:
		return 2 * time.Second
	case depth <= 28:
		return 4 * time.Second
	default:
		budget := 4 * time.Second
		for d := depth; d > 28; d -= 4 {
			budget *= 2
		}
		return budget
	}
}

// Close shuts the engine down, gracefully when possible. Safe on a nil
// receiver so callers can defer it unconditionally.
func (e *Engine) Close() {
	if e == nil || e.killed {
		return
	}
	e.sendCommand("quit")
	done := make(chan struct{})
	go func() {
		e.cmd.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.killed = true
		close(e.quit)
	case <-time.After(2 * time.Second):
		e.kill()
	}
}

func (e *Engine) kill() {
	if e.killed {
		return
	}
	e.killed = true
	close(e.quit)
	if e.cmd.Process != nil {
		e.cmd.Process.Kill()
	}
	go e.cmd.Wait()
}
