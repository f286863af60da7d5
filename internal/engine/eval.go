// Package engine implements the Azul analysis engine: the heuristic
// evaluator, alpha-beta search with a transposition table, and the Analyzer
// facade that dispatches queries across the exact, hint and endgame paths.
package engine

import (
	"math"

	"github.com/hailam/azulplay/internal/azul"
)

// Evaluator maps a position to a bounded utility estimate for one player.
// Implementations must be total and deterministic: never panic, always
// return a finite value with |v| <= EvalBound. The search layer computes
// whatever difference it needs; evaluation itself is per-player absolute.
type Evaluator func(s *azul.GameState, player int) float64

// EvalBound bounds every Evaluator result. Final Azul scores rarely exceed
// ~120 points, so +-200 comfortably contains any heuristic estimate and
// gives alpha-beta a safe default pruning window.
const EvalBound = 200.0

// Weights are the tunable heuristic term weights. The original values are
// not authoritative, so they live in configuration rather than constants;
// the defaults below hold up in the move-quality tests.
type Weights struct {
	WallProximity     float64 `json:"wall_proximity"`
	PatternEfficiency float64 `json:"pattern_efficiency"`
	FloorPenalty      float64 `json:"floor_penalty"`
	FloorRisk         float64 `json:"floor_risk"`
	Tempo             float64 `json:"tempo"`
}

// DefaultWeights returns the default heuristic weights.
func DefaultWeights() Weights {
	return Weights{
		WallProximity:     1.0,
		PatternEfficiency: 1.0,
		FloorPenalty:      1.0,
		FloorRisk:         0.5,
		Tempo:             2.0,
	}
}

// NewHeuristicEval builds the default heuristic evaluator with the given
// weights.
func NewHeuristicEval(w Weights) Evaluator {
	return func(s *azul.GameState, player int) float64 {
		return heuristicEval(s, player, w)
	}
}

func heuristicEval(s *azul.GameState, player int, w Weights) float64 {
	if player < 0 || player >= int(s.NumPlayers) {
		return 0
	}
	board := &s.Players[player]

	v := float64(board.Score)
	v += w.PatternEfficiency * patternTerm(board)
	v += w.WallProximity * proximityTerm(board)
	v += w.FloorPenalty * floorTerm(board)
	v -= w.FloorRisk * riskTerm(s, board)
	if int(s.Current) == player {
		// Tempo: being on move matters more as the round drains, since the
		// player to move controls who eats the last forced tiles.
		v += w.Tempo / float64(1+s.RemainingDraftTiles())
	}

	if math.IsNaN(v) {
		return 0
	}
	return math.Max(-EvalBound, math.Min(EvalBound, v))
}

// patternTerm scores committed pattern line tiles: a complete line is worth
// its projected wall placement, a partial line a fill-ratio fraction of it.
func patternTerm(b *azul.PlayerBoard) float64 {
	v := 0.0
	for l := 0; l < azul.NumLines; l++ {
		line := b.Lines[l]
		if line.Count == 0 {
			continue
		}
		capacity := l + 1
		projected := float64(b.PlacementScore(l, line.Color))
		if int(line.Count) == capacity {
			v += projected
		} else {
			ratio := float64(line.Count) / float64(capacity)
			v += projected * ratio * ratio
		}
	}
	return v
}

// proximityTerm rewards near-complete rows, columns and color sets,
// quadratically so the last tiles of a set dominate.
func proximityTerm(b *azul.PlayerBoard) float64 {
	const cells = azul.WallSize * azul.WallSize
	v := 0.0
	for r := 0; r < azul.WallSize; r++ {
		n := float64(b.WallRowCount(r))
		v += azul.RowBonus * n * n / cells
	}
	for col := 0; col < azul.WallSize; col++ {
		n := 0.0
		for r := 0; r < azul.WallSize; r++ {
			if b.WallHas(r, col) {
				n++
			}
		}
		v += azul.ColumnBonus * n * n / cells
	}
	for c := azul.Color(0); c < azul.NumColors; c++ {
		n := 0.0
		for r := 0; r < azul.WallSize; r++ {
			if b.HasWallColor(r, c) {
				n++
			}
		}
		v += azul.ColorBonus * n * n / cells
	}
	return v
}

// floorTerm is the (negative) penalty already incurred on the floor line.
func floorTerm(b *azul.PlayerBoard) float64 {
	v := 0.0
	for i := 0; i < int(b.FloorCount); i++ {
		v += float64(azul.FloorPenalty(i))
	}
	return v
}

// riskTerm estimates exposure to forced floor tiles: the share of remaining
// draft tiles whose color no open pattern line accepts.
func riskTerm(s *azul.GameState, b *azul.PlayerBoard) float64 {
	remaining := s.RemainingDraftTiles()
	if remaining == 0 {
		return 0
	}

	var acceptable [azul.NumColors]bool
	for c := azul.Color(0); c < azul.NumColors; c++ {
		for l := 0; l < azul.NumLines; l++ {
			line := b.Lines[l]
			if line.Count > 0 && line.Color != c {
				continue
			}
			if int(line.Count) >= l+1 {
				continue
			}
			if b.HasWallColor(l, c) {
				continue
			}
			acceptable[c] = true
			break
		}
	}

	blocked := 0
	for c := azul.Color(0); c < azul.NumColors; c++ {
		if acceptable[c] {
			continue
		}
		blocked += int(s.Center[c])
		for f := 0; f < int(s.NumFactories); f++ {
			blocked += int(s.Factories[f][c])
		}
	}
	return float64(blocked) / float64(remaining)
}
