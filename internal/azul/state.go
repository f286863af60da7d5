package azul

import (
	"fmt"
	"math/rand"
)

// PatternLine is one per-player staging row. Color is only meaningful while
// Count > 0; a full line holds Count == line index + 1 tiles.
type PatternLine struct {
	Color Color
	Count uint8
}

// PlayerBoard holds one player's pattern lines, wall, floor line and score.
type PlayerBoard struct {
	Lines      [NumLines]PatternLine
	Wall       [WallSize]uint8 // bitmask of filled columns per row
	Floor      [FloorSize]FloorTile
	FloorCount uint8
	Score      int16
}

// WallHas reports whether the wall cell at (row, col) is filled.
func (b *PlayerBoard) WallHas(row, col int) bool {
	return b.Wall[row]&(1<<uint(col)) != 0
}

// WallRowCount returns the number of filled cells in a wall row.
func (b *PlayerBoard) WallRowCount(row int) int {
	n := 0
	for col := 0; col < WallSize; col++ {
		if b.WallHas(row, col) {
			n++
		}
	}
	return n
}

// HasWallColor reports whether the wall already holds the given color in row.
func (b *PlayerBoard) HasWallColor(row int, c Color) bool {
	return b.WallHas(row, WallColumn(row, c))
}

// GameState is one complete position. It is a value type built from
// fixed-size arrays, so cloning a successor is a flat copy; Apply never
// mutates its receiver and keeps the Zobrist hash updated incrementally.
type GameState struct {
	Factories    [MaxFactories]TileSet
	NumFactories uint8
	Center       TileSet
	CenterMarker bool

	Players    [MaxPlayers]PlayerBoard
	NumPlayers uint8

	Bag     TileSet
	Discard TileSet

	Round       uint8
	Current     uint8
	NextStarter int8 // player who took the marker this round, -1 if untaken

	hash uint64
}

// NewGame returns the pre-deal position for the given player count: full
// bag, empty factories and boards, marker in the center, round 1.
func NewGame(players int) (GameState, error) {
	if players < MinPlayers || players > MaxPlayers {
		return GameState{}, fmt.Errorf("invalid player count %d: need %d-%d", players, MinPlayers, MaxPlayers)
	}
	s := GameState{
		NumFactories: uint8(FactoriesFor(players)),
		NumPlayers:   uint8(players),
		CenterMarker: true,
		Round:        1,
		NextStarter:  -1,
	}
	for c := 0; c < NumColors; c++ {
		s.Bag[c] = TilesPerColor
	}
	s.hash = s.computeHash()
	return s, nil
}

// Deal fills every factory with up to FactoryCap tiles drawn from the bag,
// refilling the bag from the discard pile when it runs dry. The draw order
// is a pure function of rng, so a seeded source reproduces the same deal.
func (s GameState) Deal(rng *rand.Rand) GameState {
	for f := 0; f < int(s.NumFactories); f++ {
		for i := 0; i < FactoryCap; i++ {
			if s.Bag.Empty() {
				if s.Discard.Empty() {
					break // supply exhausted, factory stays short
				}
				s.Bag, s.Discard = s.Discard, TileSet{}
			}
			c := drawWeighted(rng, s.Bag)
			s.Bag[c]--
			s.Factories[f][c]++
		}
	}
	s.hash = s.computeHash()
	return s
}

// drawWeighted picks a color with probability proportional to its count.
func drawWeighted(rng *rand.Rand, ts TileSet) Color {
	n := rng.Intn(ts.Total())
	for c := 0; c < NumColors; c++ {
		if n < int(ts[c]) {
			return Color(c)
		}
		n -= int(ts[c])
	}
	return NumColors - 1 // unreachable when ts is non-empty
}

// Hash returns the 64-bit Zobrist hash of the position.
func (s *GameState) Hash() uint64 {
	return s.hash
}

// RemainingDraftTiles returns the tile count still to be drafted this round
// (factories plus center pool).
func (s *GameState) RemainingDraftTiles() int {
	n := s.Center.Total()
	for f := 0; f < int(s.NumFactories); f++ {
		n += s.Factories[f].Total()
	}
	return n
}

// IsRoundEnd reports whether all factories and the center pool are empty.
func (s *GameState) IsRoundEnd() bool {
	return s.RemainingDraftTiles() == 0
}

// IsGameEnd reports whether any player has completed a horizontal wall row.
// Only meaningful after ScoreRound has tiled the walls.
func (s *GameState) IsGameEnd() bool {
	for p := 0; p < int(s.NumPlayers); p++ {
		for r := 0; r < WallSize; r++ {
			if s.Players[p].WallRowCount(r) == WallSize {
				return true
			}
		}
	}
	return false
}

// routing computes the deterministic tile routing for a draft of the given
// color from the given source onto the given line, without legality checks.
func (s *GameState) routing(factory int8, c Color, line int8) (take, placed, overflow, discarded uint8) {
	if factory == CenterSource {
		take = s.Center[c]
	} else {
		take = s.Factories[factory][c]
	}
	if line != FloorLine {
		cap := uint8(line + 1)
		room := cap - s.Players[s.Current].Lines[line].Count
		placed = take
		if placed > room {
			placed = room
		}
	}
	overflow = take - placed
	floorRoom := uint8(FloorSize) - s.Players[s.Current].FloorCount
	if overflow > floorRoom {
		discarded = overflow - floorRoom
		overflow = floorRoom
	}
	return take, placed, overflow, discarded
}

// checkLegal validates a move against the position, returning nil or an
// IllegalMoveError naming the violated constraint.
func (s *GameState) checkLegal(m Move) error {
	fail := func(reason string) error { return &IllegalMoveError{Move: m, Reason: reason} }

	if m.Factory != CenterSource && (m.Factory < 0 || int(m.Factory) >= int(s.NumFactories)) {
		return fail("no such factory")
	}
	if m.Color < 0 || m.Color >= NumColors {
		return fail("no such color")
	}
	if m.Line != FloorLine && (m.Line < 0 || int(m.Line) >= NumLines) {
		return fail("no such pattern line")
	}

	var avail uint8
	if m.Factory == CenterSource {
		avail = s.Center[m.Color]
	} else {
		avail = s.Factories[m.Factory][m.Color]
	}
	if avail == 0 {
		return fail("color not present at source")
	}

	if m.Line != FloorLine {
		board := &s.Players[s.Current]
		line := board.Lines[m.Line]
		if line.Count > 0 && line.Color != m.Color {
			return fail("pattern line holds a different color")
		}
		if line.Count >= uint8(m.Line+1) {
			return fail("pattern line is full")
		}
		if board.HasWallColor(int(m.Line), m.Color) {
			return fail("wall row already holds this color")
		}
	}

	take, placed, overflow, discarded := s.routing(m.Factory, m.Color, m.Line)
	if m.Take != take || m.Placed != placed || m.Overflow != overflow || m.Discarded != discarded {
		return fail("routing counts do not match position")
	}
	return nil
}

// Apply plays a move and returns the successor position. The receiver is
// never modified. The hash is updated in O(moved tiles).
func (s GameState) Apply(m Move) (GameState, error) {
	if err := s.checkLegal(m); err != nil {
		return GameState{}, err
	}

	p := int(s.Current)
	board := &s.Players[p]

	// Remove from source; a factory's leftover tiles move to the center.
	if m.Factory == CenterSource {
		s.hash ^= zobristCenter[m.Color][s.Center[m.Color]]
		s.Center[m.Color] -= m.Take
		s.hash ^= zobristCenter[m.Color][s.Center[m.Color]]

		if s.CenterMarker {
			s.CenterMarker = false
			s.hash ^= zobristCenterMarker
			s.hash ^= zobristStarter[s.NextStarter+1]
			s.NextStarter = int8(p)
			s.hash ^= zobristStarter[s.NextStarter+1]
			if board.FloorCount < FloorSize {
				slot := int(board.FloorCount)
				board.Floor[slot] = Marker
				board.FloorCount++
				s.hash ^= zobristFloor[p][slot][Marker]
			}
		}
	} else {
		f := int(m.Factory)
		for c := 0; c < NumColors; c++ {
			n := s.Factories[f][c]
			if n == 0 {
				continue
			}
			s.hash ^= zobristFactory[f][c][n]
			s.Factories[f][c] = 0
			if Color(c) != m.Color {
				s.hash ^= zobristCenter[c][s.Center[c]]
				s.Center[c] += n
				s.hash ^= zobristCenter[c][s.Center[c]]
			}
		}
	}

	// Place on the pattern line.
	if m.Placed > 0 {
		line := &board.Lines[m.Line]
		if line.Count > 0 {
			s.hash ^= zobristLine[p][m.Line][line.Color][line.Count]
		}
		line.Color = m.Color
		line.Count += m.Placed
		s.hash ^= zobristLine[p][m.Line][line.Color][line.Count]
	}

	// Overflow to the floor line, remainder to the discard pile.
	for i := uint8(0); i < m.Overflow; i++ {
		slot := int(board.FloorCount)
		board.Floor[slot] = FloorTile(m.Color)
		board.FloorCount++
		s.hash ^= zobristFloor[p][slot][FloorTile(m.Color)]
	}
	if m.Discarded > 0 {
		s.hash ^= zobristDiscard[m.Color][s.Discard[m.Color]]
		s.Discard[m.Color] += m.Discarded
		s.hash ^= zobristDiscard[m.Color][s.Discard[m.Color]]
	}

	// Pass the turn.
	s.hash ^= zobristTurn[s.Current]
	s.Current = (s.Current + 1) % s.NumPlayers
	s.hash ^= zobristTurn[s.Current]

	return s, nil
}

// TileCounts sums every tile per color across bag, discard, factories,
// center, pattern lines, walls and floors. For any reachable state each
// color must total exactly TilesPerColor.
func (s *GameState) TileCounts() TileSet {
	var total TileSet
	add := func(ts TileSet) {
		for c := 0; c < NumColors; c++ {
			total[c] += ts[c]
		}
	}
	add(s.Bag)
	add(s.Discard)
	add(s.Center)
	for f := 0; f < int(s.NumFactories); f++ {
		add(s.Factories[f])
	}
	for p := 0; p < int(s.NumPlayers); p++ {
		b := &s.Players[p]
		for l := 0; l < NumLines; l++ {
			total[b.Lines[l].Color] += b.Lines[l].Count
		}
		for r := 0; r < WallSize; r++ {
			for col := 0; col < WallSize; col++ {
				if b.WallHas(r, col) {
					total[WallColor(r, col)]++
				}
			}
		}
		for i := 0; i < int(b.FloorCount); i++ {
			if b.Floor[i] != Marker {
				total[b.Floor[i]]++
			}
		}
	}
	return total
}
