package azul

import "fmt"

// Source and destination sentinels for Move.
const (
	CenterSource int8 = -1 // draw from the center pool
	FloorLine    int8 = -1 // route everything to the floor line
)

// Move is a single drafting action: take every tile of one color from a
// factory or the center, route as many as fit onto one pattern line and the
// remainder onto the floor line. The routing counts are part of the move so
// applying one is deterministic and auditable; Apply rejects moves whose
// counts do not match the position.
type Move struct {
	Factory   int8  // factory index, or CenterSource
	Color     Color // color drafted
	Line      int8  // destination pattern line, or FloorLine
	Take      uint8 // tiles taken from the source
	Placed    uint8 // tiles routed to the pattern line
	Overflow  uint8 // tiles routed to the floor line
	Discarded uint8 // tiles beyond floor capacity, sent to the discard pile
}

// NoMove is the zero-result sentinel returned when no move exists.
var NoMove = Move{Factory: -2}

// IllegalMoveError reports a move that cannot be applied to a position.
type IllegalMoveError struct {
	Move   Move
	Reason string
}

func (e *IllegalMoveError) Error() string {
	return fmt.Sprintf("illegal move %v: %s", e.Move, e.Reason)
}

// String renders the move in short notation: source, color, destination.
// Examples: "F3R2" (factory 3, red, line 2), "CY-" (center, yellow, floor).
func (m Move) String() string {
	if m == NoMove {
		return "none"
	}
	src := "C"
	if m.Factory != CenterSource {
		src = fmt.Sprintf("F%d", m.Factory)
	}
	dst := "-"
	if m.Line != FloorLine {
		dst = fmt.Sprintf("%d", m.Line)
	}
	return src + m.Color.String() + dst
}
