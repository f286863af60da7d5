package azul

import "fmt"

// Color identifies one of the five tile colors.
type Color int8

const (
	Blue Color = iota
	Yellow
	Red
	Black
	White

	NumColors = 5
)

// colorLetters maps colors to their single-letter notation.
// K is used for black to keep B free for blue.
const colorLetters = "BYRKW"

// String returns the single-letter notation for the color.
func (c Color) String() string {
	if c < 0 || c >= NumColors {
		return "?"
	}
	return string(colorLetters[c])
}

// ParseColor parses a single-letter color notation.
func ParseColor(b byte) (Color, error) {
	for i := 0; i < NumColors; i++ {
		if colorLetters[i] == b {
			return Color(i), nil
		}
	}
	return 0, fmt.Errorf("invalid color letter %q", string(b))
}

// Board geometry and tile supply constants.
const (
	TilesPerColor = 20
	TotalTiles    = TilesPerColor * NumColors

	WallSize   = 5
	NumLines   = 5
	FloorSize  = 7
	FactoryCap = 4

	MinPlayers   = 2
	MaxPlayers   = 4
	MaxFactories = 2*MaxPlayers + 1
)

// FactoriesFor returns the number of factory displays for a player count.
func FactoriesFor(players int) int {
	return 2*players + 1
}

// WallColumn returns the fixed wall column for a color in the given row.
// The standard wall shifts the color sequence right by one per row.
func WallColumn(row int, c Color) int {
	return (int(c) + row) % WallSize
}

// WallColor returns the fixed color of the wall cell at (row, col).
func WallColor(row, col int) Color {
	return Color(((col-row)%WallSize + WallSize) % WallSize)
}

// floorPenalties holds the per-slot floor line penalties.
var floorPenalties = [FloorSize]int{-1, -1, -2, -2, -2, -3, -3}

// FloorPenalty returns the penalty for the given floor slot.
func FloorPenalty(slot int) int {
	return floorPenalties[slot]
}

// FloorTile is a floor line occupant: a tile color or the first-player marker.
type FloorTile int8

// Marker is the first-player marker occupying a floor slot.
const Marker FloorTile = FloorTile(NumColors)

// String returns the notation for the floor occupant.
func (t FloorTile) String() string {
	if t == Marker {
		return "M"
	}
	return Color(t).String()
}

// TileSet is a multiset over the five tile colors.
type TileSet [NumColors]uint8

// Total returns the number of tiles in the set.
func (ts TileSet) Total() int {
	n := 0
	for _, c := range ts {
		n += int(c)
	}
	return n
}

// Empty reports whether the set holds no tiles.
func (ts TileSet) Empty() bool {
	return ts.Total() == 0
}
