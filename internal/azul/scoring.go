package azul

// Game-end bonus values.
const (
	RowBonus    = 2
	ColumnBonus = 7
	ColorBonus  = 10
)

// wallPlacementScore returns the points for placing a tile at (row, col) on
// the given wall: the lengths of the contiguous horizontal and vertical
// runs through the new tile, counting an isolated tile as 1.
func wallPlacementScore(wall *[WallSize]uint8, row, col int) int {
	has := func(r, c int) bool {
		return r >= 0 && r < WallSize && c >= 0 && c < WallSize && wall[r]&(1<<uint(c)) != 0
	}

	horiz := 1
	for c := col - 1; has(row, c); c-- {
		horiz++
	}
	for c := col + 1; has(row, c); c++ {
		horiz++
	}
	vert := 1
	for r := row - 1; has(r, col); r-- {
		vert++
	}
	for r := row + 1; has(r, col); r++ {
		vert++
	}

	switch {
	case horiz > 1 && vert > 1:
		return horiz + vert
	case horiz > 1:
		return horiz
	case vert > 1:
		return vert
	default:
		return 1
	}
}

// PlacementScore returns the points that placing the given color onto the
// given wall row would score right now, without mutating the board.
func (b *PlayerBoard) PlacementScore(row int, c Color) int {
	col := WallColumn(row, c)
	wall := b.Wall
	wall[row] |= 1 << uint(col)
	return wallPlacementScore(&wall, row, col)
}

// ScoreRound settles the end of a round: completed pattern lines tile the
// wall and score adjacency, leftover line tiles and floor tiles go to the
// discard pile, floor penalties apply (scores never drop below zero), and
// the marker holder starts the next round. The receiver is not modified.
// The hash is recomputed from scratch; this runs once per round, not per
// search node.
func (s GameState) ScoreRound() GameState {
	for p := 0; p < int(s.NumPlayers); p++ {
		board := &s.Players[p]
		score := int(board.Score)

		for l := 0; l < NumLines; l++ {
			line := &board.Lines[l]
			if line.Count < uint8(l+1) {
				continue
			}
			col := WallColumn(l, line.Color)
			board.Wall[l] |= 1 << uint(col)
			score += wallPlacementScore(&board.Wall, l, col)
			// One tile moves to the wall, the rest of the line is discarded.
			s.Discard[line.Color] += line.Count - 1
			*line = PatternLine{}
		}

		for i := 0; i < int(board.FloorCount); i++ {
			score += FloorPenalty(i)
			if board.Floor[i] != Marker {
				s.Discard[board.Floor[i]]++
			}
		}
		board.FloorCount = 0
		board.Floor = [FloorSize]FloorTile{}

		if score < 0 {
			score = 0
		}
		board.Score = int16(score)
	}

	if s.NextStarter >= 0 {
		s.Current = uint8(s.NextStarter)
	}
	s.NextStarter = -1
	s.CenterMarker = true
	s.Round++

	s.hash = s.computeHash()
	return s
}

// ScoreGame applies the end-of-game bonuses for completed rows, columns and
// color sets. The receiver is not modified. Call after the final ScoreRound.
func (s GameState) ScoreGame() GameState {
	for p := 0; p < int(s.NumPlayers); p++ {
		board := &s.Players[p]
		bonus := 0

		for r := 0; r < WallSize; r++ {
			if board.WallRowCount(r) == WallSize {
				bonus += RowBonus
			}
		}
		for col := 0; col < WallSize; col++ {
			full := true
			for r := 0; r < WallSize; r++ {
				if !board.WallHas(r, col) {
					full = false
					break
				}
			}
			if full {
				bonus += ColumnBonus
			}
		}
		for c := Color(0); c < NumColors; c++ {
			full := true
			for r := 0; r < WallSize; r++ {
				if !board.WallHas(r, WallColumn(r, c)) {
					full = false
					break
				}
			}
			if full {
				bonus += ColorBonus
			}
		}

		board.Score += int16(bonus)
	}

	s.hash = s.computeHash()
	return s
}

// Settle scores the round and, if that ended the game, the game bonuses.
// It is the single transition the search engines use at a round horizon.
func (s GameState) Settle() (GameState, bool) {
	settled := s.ScoreRound()
	if settled.IsGameEnd() {
		return settled.ScoreGame(), true
	}
	return settled, false
}

// ScoreDiff returns player's score minus the best opposing score.
func (s *GameState) ScoreDiff(player int) int {
	best := -1 << 30
	for p := 0; p < int(s.NumPlayers); p++ {
		if p == player {
			continue
		}
		if sc := int(s.Players[p].Score); sc > best {
			best = sc
		}
	}
	return int(s.Players[player].Score) - best
}
