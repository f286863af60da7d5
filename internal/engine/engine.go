package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/hailam/azulplay/internal/azul"
)

// ErrBudgetExceeded is returned when the time budget was too small for even
// a depth-1 search (or a single rollout, for the hint path) to complete.
// A fabricated, unevaluated move would be worse than failing loudly.
var ErrBudgetExceeded = errors.New("engine: time budget exhausted before any result")

// SearchLimits specifies constraints on one alpha-beta search.
type SearchLimits struct {
	Depth      int           // Maximum depth (0 = evaluate statically, no search)
	TimeBudget time.Duration // Wall-clock budget (0 = no limit)
}

// SearchResult is the outcome of one alpha-beta search.
type SearchResult struct {
	Move    azul.Move     `json:"move"`
	Score   float64       `json:"score"`
	Depth   int           `json:"depth"` // depth actually completed
	Nodes   uint64        `json:"nodes"` // nodes visited across all iterations
	Exact   bool          `json:"exact"` // root window was never truncated
	Elapsed time.Duration `json:"elapsed"`
}

// Engine drives iterative-deepening alpha-beta searches over a shared
// transposition table. Safe for concurrent Search calls: each call runs on
// its own Searcher and the table is internally locked.
type Engine struct {
	tt   *TranspositionTable
	eval Evaluator
}

// NewEngine creates an engine with a transposition table of the given size
// in MB and the given leaf evaluator.
func NewEngine(ttSizeMB int, eval Evaluator) *Engine {
	return &Engine{
		tt:   NewTranspositionTable(ttSizeMB),
		eval: eval,
	}
}

// TT exposes the shared transposition table (for stats reporting).
func (e *Engine) TT() *TranspositionTable {
	return e.tt
}

// Search runs iterative deepening from depth 1 to limits.Depth, returning
// the result of the deepest fully completed iteration. An iteration cut
// short by the budget is discarded, never returned partially. Search is
// deterministic for a given position, limits and table state.
func (e *Engine) Search(pos *azul.GameState, limits SearchLimits) (SearchResult, error) {
	if pos.NumPlayers != 2 {
		return SearchResult{}, fmt.Errorf("engine: alpha-beta supports 2 players, position has %d", pos.NumPlayers)
	}

	startTime := time.Now()
	searcher := NewSearcher(e.tt, e.eval)
	e.tt.NewSearch()

	// Depth 0 or a terminal position: static evaluation, no move.
	moves := pos.LegalMoves()
	if limits.Depth <= 0 || len(moves) == 0 {
		return SearchResult{
			Move:    azul.NoMove,
			Score:   searcher.evalDiff(pos),
			Depth:   0,
			Exact:   true,
			Elapsed: time.Since(startTime),
		}, nil
	}

	var deadline time.Time
	if limits.TimeBudget > 0 {
		deadline = startTime.Add(limits.TimeBudget)
	}

	best := SearchResult{Move: azul.NoMove}
	completed := 0
	var nodes uint64

	for depth := 1; depth <= limits.Depth; depth++ {
		if !deadline.IsZero() && time.Now().After(deadline) {
			break
		}

		searcher.Reset(deadline)
		move, score, flag := searcher.SearchDepth(pos, depth)
		nodes += searcher.Nodes()

		if searcher.Stopped() {
			// Iteration aborted mid-flight; keep the previous depth.
			break
		}

		completed = depth
		best = SearchResult{
			Move:  move,
			Score: score,
			Depth: depth,
			Exact: flag == TTExact,
		}

		// Don't start an iteration unlikely to finish: each depth costs
		// roughly as much as all previous ones combined.
		if !deadline.IsZero() {
			elapsed := time.Since(startTime)
			if remaining := limits.TimeBudget - elapsed; remaining < elapsed {
				break
			}
		}
	}

	if completed == 0 {
		return SearchResult{}, ErrBudgetExceeded
	}

	best.Nodes = nodes
	best.Elapsed = time.Since(startTime)
	return best, nil
}
