package azul

// NewMove builds the move for drafting the given color from the given
// source onto the given line, with the routing counts computed from the
// position. The result is only legal if the source holds the color and the
// line accepts it; use LegalMoves for the vetted list.
func (s *GameState) NewMove(factory int8, c Color, line int8) Move {
	take, placed, overflow, discarded := s.routing(factory, c, line)
	return Move{
		Factory:   factory,
		Color:     c,
		Line:      line,
		Take:      take,
		Placed:    placed,
		Overflow:  overflow,
		Discarded: discarded,
	}
}

// LegalMoves enumerates every legal move for the player to move, in a
// stable deterministic order: factories ascending then the center pool,
// colors ascending within a source, pattern lines ascending then the
// floor-only option within a color.
func (s *GameState) LegalMoves() []Move {
	moves := make([]Move, 0, 64)
	board := &s.Players[s.Current]

	appendSource := func(factory int8, src *TileSet) {
		for c := Color(0); c < NumColors; c++ {
			if src[c] == 0 {
				continue
			}
			for line := int8(0); line < NumLines; line++ {
				pl := board.Lines[line]
				if pl.Count > 0 && pl.Color != c {
					continue
				}
				if pl.Count >= uint8(line+1) {
					continue
				}
				if board.HasWallColor(int(line), c) {
					continue
				}
				moves = append(moves, s.NewMove(factory, c, line))
			}
			moves = append(moves, s.NewMove(factory, c, FloorLine))
		}
	}

	for f := int8(0); f < int8(s.NumFactories); f++ {
		appendSource(f, &s.Factories[f])
	}
	appendSource(CenterSource, &s.Center)

	return moves
}
