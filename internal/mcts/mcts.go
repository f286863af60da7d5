// Package mcts implements an anytime UCT search over Azul drafting moves.
// One Search call builds a fresh tree, runs rollouts until its budget or
// rollout cap is reached, and recommends the most visited root move.
package mcts

import (
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/hailam/azulplay/internal/azul"
)

// DefaultExploration is the UCT exploration constant used when the config
// leaves it zero. sqrt(2) is the classic UCB1 value; treat it as tunable
// configuration, not an invariant.
var DefaultExploration = math.Sqrt2

// ErrNoRollouts is returned when the time budget expired before a single
// rollout completed.
var ErrNoRollouts = errors.New("mcts: time budget exhausted before any rollout")

// LeafEvaluator substitutes a position evaluation for a full random
// rollout: it must return a bounded per-player utility. The default is nil,
// meaning uniform-random play to the round (or game) end.
type LeafEvaluator func(s *azul.GameState, player int) float64

// Config controls one Search call.
type Config struct {
	Exploration float64       // UCT exploration constant (0 = DefaultExploration)
	MaxRollouts int           // rollout cap (0 = unlimited)
	TimeBudget  time.Duration // wall-clock budget (0 = unlimited; then MaxRollouts must be set)
	Evaluator   LeafEvaluator // optional leaf evaluator replacing random playouts
	Seed        int64         // rollout RNG seed (0 = time-seeded)
}

// Result is the recommendation from one Search call.
type Result struct {
	Move     azul.Move     `json:"move"`
	WinRate  float64       `json:"win_rate"` // empirical mean outcome of the chosen move, in [0,1]
	Rollouts int           `json:"rollouts"`
	Elapsed  time.Duration `json:"elapsed"`
}

type node struct {
	move     azul.Move
	player   int // player who made move, owning this node's value
	parent   *node
	children []*node
	untried  []azul.Move
	visits   int
	value    float64
}

// uct scores a child for selection from its parent's perspective.
func (n *node) uct(c float64, parentVisits int) float64 {
	if n.visits == 0 {
		return math.Inf(1)
	}
	return n.value/float64(n.visits) +
		c*math.Sqrt(math.Log(float64(parentVisits))/float64(n.visits))
}

// Search runs UCT from the given root position. The budget is cooperative,
// checked once per completed rollout, so the overshoot is bounded by one
// rollout's cost.
func Search(root *azul.GameState, cfg Config) (Result, error) {
	start := time.Now()

	c := cfg.Exploration
	if c == 0 {
		c = DefaultExploration
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	rootMoves := root.LegalMoves()
	if len(rootMoves) == 0 {
		// Terminal position: nothing to recommend.
		return Result{Move: azul.NoMove, Elapsed: time.Since(start)}, nil
	}

	tree := &node{untried: rootMoves, player: -1}
	rollouts := 0

	for cfg.MaxRollouts == 0 || rollouts < cfg.MaxRollouts {
		if cfg.TimeBudget > 0 && time.Since(start) >= cfg.TimeBudget {
			break
		}
		iterate(tree, *root, c, cfg.Evaluator, rng)
		rollouts++
	}

	if rollouts == 0 {
		return Result{}, ErrNoRollouts
	}

	// Robust child: most visits, not best average value.
	var best *node
	for _, child := range tree.children {
		if best == nil || child.visits > best.visits {
			best = child
		}
	}
	if best == nil {
		return Result{}, ErrNoRollouts
	}

	return Result{
		Move:     best.move,
		WinRate:  best.value / float64(best.visits),
		Rollouts: rollouts,
		Elapsed:  time.Since(start),
	}, nil
}

// iterate performs one selection-expansion-rollout-backpropagation cycle.
func iterate(tree *node, state azul.GameState, c float64, eval LeafEvaluator, rng *rand.Rand) {
	n := tree

	// Selection: descend fully expanded nodes by UCT.
	for len(n.untried) == 0 && len(n.children) > 0 {
		var chosen *node
		bestScore := math.Inf(-1)
		for _, child := range n.children {
			if s := child.uct(c, n.visits); s > bestScore {
				bestScore = s
				chosen = child
			}
		}
		n = chosen
		state, _ = state.Apply(n.move)
	}

	// Expansion: attach one untried move's child.
	if len(n.untried) > 0 {
		i := rng.Intn(len(n.untried))
		move := n.untried[i]
		n.untried[i] = n.untried[len(n.untried)-1]
		n.untried = n.untried[:len(n.untried)-1]

		mover := int(state.Current)
		state, _ = state.Apply(move)

		child := &node{move: move, player: mover, parent: n}
		if !state.IsRoundEnd() {
			child.untried = state.LegalMoves()
		}
		n.children = append(n.children, child)
		n = child
	}

	// Simulation.
	outcome := rollout(state, eval, rng)

	// Backpropagation: every ancestor credits the player who moved into it.
	for ; n != nil; n = n.parent {
		n.visits++
		if n.player >= 0 {
			n.value += outcome[n.player]
		}
	}
}

// rollout plays uniform-random legal moves to the round end (settling the
// round and, when triggered, the game) and returns the per-player outcome:
// 1 for the sole leader, 0 for the rest, shares on ties. When a leaf
// evaluator is configured it replaces the random playout.
func rollout(state azul.GameState, eval LeafEvaluator, rng *rand.Rand) [azul.MaxPlayers]float64 {
	if eval != nil {
		var values [azul.MaxPlayers]float64
		for p := 0; p < int(state.NumPlayers); p++ {
			values[p] = eval(&state, p)
		}
		return rankOutcome(values, int(state.NumPlayers))
	}

	for !state.IsRoundEnd() {
		moves := state.LegalMoves()
		state, _ = state.Apply(moves[rng.Intn(len(moves))])
	}
	settled, _ := state.Settle()

	var scores [azul.MaxPlayers]float64
	for p := 0; p < int(settled.NumPlayers); p++ {
		scores[p] = float64(settled.Players[p].Score)
	}
	return rankOutcome(scores, int(settled.NumPlayers))
}

// rankOutcome converts per-player values to win shares: the leaders split
// 1 evenly, everyone else gets 0.
func rankOutcome(values [azul.MaxPlayers]float64, players int) [azul.MaxPlayers]float64 {
	best := math.Inf(-1)
	leaders := 0
	for p := 0; p < players; p++ {
		switch {
		case values[p] > best:
			best = values[p]
			leaders = 1
		case values[p] == best:
			leaders++
		}
	}

	var out [azul.MaxPlayers]float64
	for p := 0; p < players; p++ {
		if values[p] == best {
			out[p] = 1 / float64(leaders)
		}
	}
	return out
}
