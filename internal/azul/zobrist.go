package azul

// Zobrist hash keys for position hashing.
// Uses a PRNG with a fixed seed for reproducibility. Every structural
// feature of a position (source counts, pattern line fills, wall cells,
// floor slots, bag and discard counts, player scores, marker, starter,
// round, player to move) has its own key table; count-indexed tables keep
// their zero-count slot at zero so transitions can XOR old and new
// unconditionally.
var (
	zobristFactory [MaxFactories][NumColors][FactoryCap + 1]uint64
	zobristCenter  [NumColors][TilesPerColor + 1]uint64
	zobristLine    [MaxPlayers][NumLines][NumColors][NumLines + 1]uint64
	zobristWall    [MaxPlayers][WallSize][WallSize]uint64
	zobristFloor   [MaxPlayers][FloorSize][NumColors + 1]uint64
	zobristBag     [NumColors][TilesPerColor + 1]uint64
	zobristDiscard [NumColors][TilesPerColor + 1]uint64
	zobristScore   [MaxPlayers][512]uint64

	zobristCenterMarker uint64
	zobristTurn         [MaxPlayers]uint64
	zobristStarter      [MaxPlayers + 1]uint64 // index 0: marker not yet taken
	zobristRound        [16]uint64
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys.
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0xA2C1E57D00C0FFEE) // Fixed seed

	for f := 0; f < MaxFactories; f++ {
		for c := 0; c < NumColors; c++ {
			for n := 1; n <= FactoryCap; n++ {
				zobristFactory[f][c][n] = rng.next()
			}
		}
	}
	for c := 0; c < NumColors; c++ {
		for n := 1; n <= TilesPerColor; n++ {
			zobristCenter[c][n] = rng.next()
			zobristBag[c][n] = rng.next()
			zobristDiscard[c][n] = rng.next()
		}
	}
	for p := 0; p < MaxPlayers; p++ {
		for l := 0; l < NumLines; l++ {
			for c := 0; c < NumColors; c++ {
				for n := 1; n <= NumLines; n++ {
					zobristLine[p][l][c][n] = rng.next()
				}
			}
		}
		for r := 0; r < WallSize; r++ {
			for col := 0; col < WallSize; col++ {
				zobristWall[p][r][col] = rng.next()
			}
		}
		for s := 0; s < FloorSize; s++ {
			for t := 0; t <= NumColors; t++ {
				zobristFloor[p][s][t] = rng.next()
			}
		}
		for sc := 1; sc < len(zobristScore[p]); sc++ {
			zobristScore[p][sc] = rng.next()
		}
		zobristTurn[p] = rng.next()
	}
	zobristCenterMarker = rng.next()
	for i := range zobristStarter {
		zobristStarter[i] = rng.next()
	}
	zobristStarter[0] = 0
	for i := 1; i < len(zobristRound); i++ {
		zobristRound[i] = rng.next()
	}
}

// computeHash recomputes the full Zobrist hash from scratch.
// Apply keeps the hash updated incrementally; this is the reference
// implementation used after bulk transitions and in tests.
func (s *GameState) computeHash() uint64 {
	var h uint64
	for f := 0; f < int(s.NumFactories); f++ {
		for c := 0; c < NumColors; c++ {
			h ^= zobristFactory[f][c][s.Factories[f][c]]
		}
	}
	for c := 0; c < NumColors; c++ {
		h ^= zobristCenter[c][s.Center[c]]
		h ^= zobristBag[c][s.Bag[c]]
		h ^= zobristDiscard[c][s.Discard[c]]
	}
	if s.CenterMarker {
		h ^= zobristCenterMarker
	}
	for p := 0; p < int(s.NumPlayers); p++ {
		b := &s.Players[p]
		for l := 0; l < NumLines; l++ {
			if b.Lines[l].Count > 0 {
				h ^= zobristLine[p][l][b.Lines[l].Color][b.Lines[l].Count]
			}
		}
		for r := 0; r < WallSize; r++ {
			for col := 0; col < WallSize; col++ {
				if b.WallHas(r, col) {
					h ^= zobristWall[p][r][col]
				}
			}
		}
		for i := 0; i < int(b.FloorCount); i++ {
			h ^= zobristFloor[p][i][b.Floor[i]]
		}
		h ^= zobristScore[p][int(b.Score)&511]
	}
	h ^= zobristTurn[s.Current]
	h ^= zobristStarter[s.NextStarter+1]
	h ^= zobristRound[int(s.Round)&15]
	return h
}
