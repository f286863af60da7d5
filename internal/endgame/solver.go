// Package endgame solves small late-round Azul positions exactly. A
// position with few enough tiles left to draft is canonicalized under
// symmetry, looked up in the record store, and on a miss solved by
// exhaustive negamax to the round horizon, where the scoring rules settle
// the round and, when a wall row completes, the game. Results are exact
// and immutable; positions above the threshold are declined so the caller
// falls back to the approximate engines.
package endgame

import (
	"errors"
	"sync"

	"github.com/hailam/azulplay/internal/azul"
)

// DefaultTileThreshold is the default maximum remaining draft tile count
// (factories plus center) the solver will accept.
const DefaultTileThreshold = 20

// Canonical key function versions. Records written under one version are
// never read under another. KeyVersionColorLabels is reserved: the wall
// pattern fixes each color to one column per row, so relabeling colors
// moves filled wall cells and changes adjacency scoring. An exact solver
// cannot fold that symmetry; the version slot stays allocated in case a
// sound reduction is found for restricted position classes.
const (
	KeyVersionPlayerOrder uint8 = 1
	KeyVersionColorLabels uint8 = 2
)

// ErrUnsupportedPosition signals that the solver declines this position.
// It is normal control flow, not a failure: the caller answers with
// alpha-beta or MCTS instead.
var ErrUnsupportedPosition = errors.New("endgame: position not solvable exactly")

// Record is one immutable solved result, keyed by canonical position.
type Record struct {
	Diff       int       `json:"diff"` // exact settled differential for the player to move
	Move       azul.Move `json:"move"` // optimal move
	KeyVersion uint8     `json:"key_version"`
}

// Result is one solved query.
type Result struct {
	Move  azul.Move `json:"move"`
	Diff  int       `json:"diff"`
	Key   uint64    `json:"key"`   // canonical key of the queried position
	Nodes uint64    `json:"nodes"` // 0 on a record-store hit
}

// Solver memoizes exact endgame solutions. Safe for concurrent use.
type Solver struct {
	threshold int

	mu      sync.RWMutex
	records map[uint64]Record
	memo    map[uint64]memoEntry // per-position values inside solves

	hits   uint64
	solves uint64
}

type memoEntry struct {
	diff int
	move azul.Move
}

// New creates a solver. threshold <= 0 selects DefaultTileThreshold.
func New(threshold int) *Solver {
	if threshold <= 0 {
		threshold = DefaultTileThreshold
	}
	return &Solver{
		threshold: threshold,
		records:   make(map[uint64]Record),
		memo:      make(map[uint64]memoEntry),
	}
}

// Threshold returns the remaining-tile threshold.
func (sv *Solver) Threshold() int {
	return sv.threshold
}

// KeyVersion returns the canonical key function version in effect.
func (sv *Solver) KeyVersion() uint8 {
	return KeyVersionPlayerOrder
}

// Supports reports whether the solver would accept the position.
func (sv *Solver) Supports(pos *azul.GameState) bool {
	return pos.NumPlayers == 2 && pos.RemainingDraftTiles() <= sv.threshold && !pos.IsRoundEnd()
}

// Solve returns the exact value and optimal move for the player to move,
// or ErrUnsupportedPosition if the position is above the threshold or not
// a 2-player game. Repeated calls for the same position return identical
// results: move enumeration order is deterministic and ties keep the
// first-found move.
func (sv *Solver) Solve(pos *azul.GameState) (Result, error) {
	if !sv.Supports(pos) {
		return Result{}, ErrUnsupportedPosition
	}

	canonical := canonicalize(pos)
	key := canonicalKey(canonical, sv.KeyVersion())

	sv.mu.RLock()
	rec, ok := sv.records[key]
	sv.mu.RUnlock()
	if ok {
		sv.mu.Lock()
		sv.hits++
		sv.mu.Unlock()
		return Result{Move: rec.Move, Diff: rec.Diff, Key: key}, nil
	}

	var nodes uint64
	diff, move := sv.solve(canonical, &nodes)

	rec = Record{Diff: diff, Move: move, KeyVersion: sv.KeyVersion()}
	sv.mu.Lock()
	// Solved results never change: the first writer wins and any
	// concurrent solver computed the same record anyway.
	if existing, dup := sv.records[key]; dup {
		rec = existing
	} else {
		sv.records[key] = rec
	}
	sv.solves++
	sv.mu.Unlock()

	return Result{Move: rec.Move, Diff: rec.Diff, Key: key, Nodes: nodes}, nil
}

// Records returns the number of solved canonical positions.
func (sv *Solver) Records() int {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	return len(sv.records)
}

// Hits returns how many Solve calls were answered from the record store.
func (sv *Solver) Hits() uint64 {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	return sv.hits
}

// Export returns a snapshot of all solved records by canonical key,
// for bulk persistence through the position cache.
func (sv *Solver) Export() map[uint64]Record {
	sv.mu.RLock()
	defer sv.mu.RUnlock()
	out := make(map[uint64]Record, len(sv.records))
	for k, v := range sv.records {
		out[k] = v
	}
	return out
}

// Import merges previously exported records. Entries with a mismatched
// key version are skipped; existing records are never overwritten.
func (sv *Solver) Import(records map[uint64]Record) int {
	version := sv.KeyVersion()
	added := 0
	sv.mu.Lock()
	defer sv.mu.Unlock()
	for k, v := range records {
		if v.KeyVersion != version {
			continue
		}
		if _, ok := sv.records[k]; !ok {
			sv.records[k] = v
			added++
		}
	}
	return added
}

// solve is exhaustive negamax over the remaining draft space with a
// persistent memo. Values are settled score differentials for the player
// to move; the game bonuses apply when the round ends the game.
func (sv *Solver) solve(pos azul.GameState, nodes *uint64) (int, azul.Move) {
	*nodes++

	if pos.IsRoundEnd() {
		me := int(pos.Current)
		settled, _ := pos.Settle()
		return settled.ScoreDiff(me), azul.NoMove
	}

	hash := pos.Hash()
	sv.mu.RLock()
	entry, ok := sv.memo[hash]
	sv.mu.RUnlock()
	if ok {
		return entry.diff, entry.move
	}

	best := -1 << 30
	bestMove := azul.NoMove
	for _, m := range pos.LegalMoves() {
		child, err := pos.Apply(m)
		if err != nil {
			continue
		}
		childDiff, _ := sv.solve(child, nodes)
		if diff := -childDiff; diff > best {
			best = diff
			bestMove = m
		}
	}

	sv.mu.Lock()
	sv.memo[hash] = memoEntry{diff: best, move: bestMove}
	sv.mu.Unlock()
	return best, bestMove
}
