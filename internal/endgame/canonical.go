package endgame

import (
	"github.com/cespare/xxhash/v2"

	"github.com/hailam/azulplay/internal/azul"
)

// canonicalize reduces a position to its canonical representative under
// the player-order symmetry: of the position and its seat-swapped twin,
// the one with the lexicographically smaller serialized form wins.
//
// Swapping seats renames players but changes neither whose turn it
// logically is nor which source, color or line a move names, so solved
// moves and differentials carry back to the caller unchanged.
func canonicalize(pos *azul.GameState) azul.GameState {
	text := azul.FormatPosition(pos)
	swapped := swapPlayers(*pos)
	if swappedText := azul.FormatPosition(&swapped); swappedText < text {
		text = swappedText
	}

	canonical, err := azul.ParsePosition(text)
	if err != nil {
		// The text came from FormatPosition on a legal state; a parse
		// failure here is a bug, not an input problem.
		panic("endgame: canonical form did not round-trip: " + err.Error())
	}
	return canonical
}

// canonicalKey hashes the versioned canonical serialized form. The
// version byte keys the symmetry group: records solved under one group
// never collide with records solved under another.
func canonicalKey(s azul.GameState, version uint8) uint64 {
	h := xxhash.New()
	h.Write([]byte{version})
	h.WriteString(azul.FormatPosition(&s))
	return h.Sum64()
}

// swapPlayers exchanges the two seats. The drafting supply is shared, so
// only the boards, the turn and the marker holder change.
func swapPlayers(s azul.GameState) azul.GameState {
	s.Players[0], s.Players[1] = s.Players[1], s.Players[0]
	s.Current = 1 - s.Current
	if s.NextStarter >= 0 {
		s.NextStarter = 1 - s.NextStarter
	}
	return s
}
