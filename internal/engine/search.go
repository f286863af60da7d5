package engine

import (
	"sync/atomic"
	"time"

	"github.com/hailam/azulplay/internal/azul"
)

// Search constants
const (
	Infinity = 100000.0
	MaxPly   = 64
)

// PVTable stores the principal variation.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]azul.Move
}

// Searcher performs a single-threaded negamax alpha-beta search over the
// drafting moves of one round, with the transposition table shared across
// searches. A Searcher is not safe for concurrent use; each top-level
// query gets its own.
type Searcher struct {
	tt   *TranspositionTable
	eval Evaluator

	nodes    uint64
	pv       PVTable
	stopFlag atomic.Bool
	deadline time.Time
}

// NewSearcher creates a searcher sharing the given transposition table.
func NewSearcher(tt *TranspositionTable, eval Evaluator) *Searcher {
	return &Searcher{tt: tt, eval: eval}
}

// Stop signals the search to stop.
func (s *Searcher) Stop() {
	s.stopFlag.Store(true)
}

// Reset resets the searcher for a new search.
func (s *Searcher) Reset(deadline time.Time) {
	s.stopFlag.Store(false)
	s.deadline = deadline
	s.nodes = 0
}

// Nodes returns the number of nodes searched.
func (s *Searcher) Nodes() uint64 {
	return s.nodes
}

// Stopped returns true if the search has been aborted.
func (s *Searcher) Stopped() bool {
	return s.stopFlag.Load()
}

// GetPV returns the principal variation from the last search.
func (s *Searcher) GetPV() []azul.Move {
	pv := make([]azul.Move, s.pv.length[0])
	copy(pv, s.pv.moves[0][:s.pv.length[0]])
	return pv
}

// SearchDepth performs a full-window search to the given depth and returns
// the best move and its score from the root player's perspective. A result
// obtained after Stopped() reports true is unstable and must be discarded.
func (s *Searcher) SearchDepth(pos *azul.GameState, depth int) (azul.Move, float64, TTFlag) {
	score, flag := s.negamax(pos, depth, 0, -Infinity, Infinity)

	best := azul.NoMove
	if s.pv.length[0] > 0 {
		best = s.pv.moves[0][0]
	}

	// Safety fallback: an all-cutoff root still needs a move.
	if best == azul.NoMove && !s.stopFlag.Load() {
		if moves := pos.LegalMoves(); len(moves) > 0 {
			best = moves[0]
		}
	}

	return best, score, flag
}

// evalDiff is the negamax node value: the player to move's utility minus
// the opponent's. Two-player only; the driver enforces that.
func (s *Searcher) evalDiff(pos *azul.GameState) float64 {
	me := int(pos.Current)
	return s.eval(pos, me) - s.eval(pos, 1-me)
}

// terminalValue scores a round horizon exactly: the round (and if it ended
// the game, the bonuses) is settled by the scoring rules, then valued from
// the perspective of the player who was to move.
func (s *Searcher) terminalValue(pos *azul.GameState) float64 {
	me := int(pos.Current)
	settled, gameOver := pos.Settle()
	if gameOver {
		return float64(settled.ScoreDiff(me))
	}
	// Round ended but the game continues; the next deal is unknown, so the
	// settled position is valued heuristically.
	return s.eval(&settled, me) - s.eval(&settled, 1-me)
}

// negamax implements alpha-beta with transposition table cutoffs. Scores
// are from the perspective of pos.Current.
func (s *Searcher) negamax(pos *azul.GameState, depth, ply int, alpha, beta float64) (float64, TTFlag) {
	if ply >= MaxPly-1 {
		return s.evalDiff(pos), TTExact
	}

	// Periodic deadline check; an expired budget aborts the iteration and
	// the driver falls back to the previous completed depth.
	if s.nodes&1023 == 0 {
		if s.stopFlag.Load() || (!s.deadline.IsZero() && time.Now().After(s.deadline)) {
			s.stopFlag.Store(true)
			return 0, TTUpperBound
		}
	}
	s.nodes++
	s.pv.length[ply] = ply

	if pos.IsRoundEnd() {
		return s.terminalValue(pos), TTExact
	}
	if depth <= 0 {
		return s.evalDiff(pos), TTExact
	}

	hash := pos.Hash()

	// Probe the transposition table.
	ttMove := azul.NoMove
	if entry, found := s.tt.Probe(hash); found {
		ttMove = entry.BestMove
		if int(entry.Depth) >= depth {
			switch entry.Flag {
			case TTExact:
				if ply == 0 && ttMove != azul.NoMove {
					s.pv.moves[0][0] = ttMove
					s.pv.length[0] = 1
				}
				return entry.Score, TTExact
			case TTLowerBound:
				if entry.Score > alpha {
					alpha = entry.Score
				}
			case TTUpperBound:
				if entry.Score < beta {
					beta = entry.Score
				}
			}
			if alpha >= beta {
				if ply == 0 && ttMove != azul.NoMove {
					s.pv.moves[0][0] = ttMove
					s.pv.length[0] = 1
				}
				return entry.Score, TTLowerBound
			}
		}
	}

	moves := pos.LegalMoves()

	// Move ordering: the stored best move first, then generator order.
	if ttMove != azul.NoMove {
		for i, m := range moves {
			if m == ttMove && i > 0 {
				copy(moves[1:i+1], moves[0:i])
				moves[0] = ttMove
				break
			}
		}
	}

	bestScore := -Infinity
	bestMove := azul.NoMove
	flag := TTUpperBound

	for _, m := range moves {
		child, err := pos.Apply(m)
		if err != nil {
			continue // generator and apply disagree; skip rather than crash
		}

		score, _ := s.negamax(&child, depth-1, ply+1, -beta, -alpha)
		score = -score

		if s.stopFlag.Load() {
			return 0, TTUpperBound
		}

		if score > bestScore {
			bestScore = score
			bestMove = m

			if score > alpha {
				alpha = score
				flag = TTExact

				s.pv.moves[ply][ply] = m
				for j := ply + 1; j < s.pv.length[ply+1]; j++ {
					s.pv.moves[ply][j] = s.pv.moves[ply+1][j]
				}
				s.pv.length[ply] = s.pv.length[ply+1]
			}
		}

		if score >= beta {
			if ply == 0 && bestMove != azul.NoMove {
				s.pv.moves[0][0] = bestMove
				s.pv.length[0] = 1
			}
			s.tt.Store(hash, depth, score, TTLowerBound, bestMove)
			return score, TTLowerBound
		}
	}

	if bestMove == azul.NoMove && len(moves) > 0 {
		bestMove = moves[0]
		if bestScore == -Infinity {
			bestScore = alpha
		}
	}

	s.tt.Store(hash, depth, bestScore, flag, bestMove)
	return bestScore, flag
}
