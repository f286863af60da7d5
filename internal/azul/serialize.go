package azul

import (
	"fmt"
	"strconv"
	"strings"
)

// Position string format, FEN-like, nine space-separated fields:
//
//	factories center marker players round current starter bag discard
//
//   - factories: one 5-digit count group per factory, comma separated
//   - center: per-color counts, dot separated
//   - marker: "M" when the first-player marker is in the center, else "-"
//   - players: per-player "lines/wall/floor/score", star separated;
//     lines are five dot separated tokens ("-" or color letter + count),
//     the wall is 25 chars of 'X'/'.' in row-major order, the floor is a
//     run of occupant letters ("-" when empty)
//   - starter: player index that holds the marker, or "-"
//   - bag, discard: per-color counts, dot separated
//
// The format is deterministic: FormatPosition(ParsePosition(x)) == x for
// any string this package produced.

// FormatPosition serializes a position to its canonical string form.
func FormatPosition(s *GameState) string {
	var sb strings.Builder

	for f := 0; f < int(s.NumFactories); f++ {
		if f > 0 {
			sb.WriteByte(',')
		}
		for c := 0; c < NumColors; c++ {
			sb.WriteByte('0' + s.Factories[f][c])
		}
	}

	sb.WriteByte(' ')
	sb.WriteString(formatCounts(s.Center))

	sb.WriteByte(' ')
	if s.CenterMarker {
		sb.WriteByte('M')
	} else {
		sb.WriteByte('-')
	}

	sb.WriteByte(' ')
	for p := 0; p < int(s.NumPlayers); p++ {
		if p > 0 {
			sb.WriteByte('*')
		}
		board := &s.Players[p]

		for l := 0; l < NumLines; l++ {
			if l > 0 {
				sb.WriteByte('.')
			}
			if board.Lines[l].Count == 0 {
				sb.WriteByte('-')
			} else {
				sb.WriteString(board.Lines[l].Color.String())
				sb.WriteByte('0' + board.Lines[l].Count)
			}
		}

		sb.WriteByte('/')
		for r := 0; r < WallSize; r++ {
			for col := 0; col < WallSize; col++ {
				if board.WallHas(r, col) {
					sb.WriteByte('X')
				} else {
					sb.WriteByte('.')
				}
			}
		}

		sb.WriteByte('/')
		if board.FloorCount == 0 {
			sb.WriteByte('-')
		} else {
			for i := 0; i < int(board.FloorCount); i++ {
				sb.WriteString(board.Floor[i].String())
			}
		}

		sb.WriteByte('/')
		sb.WriteString(strconv.Itoa(int(board.Score)))
	}

	fmt.Fprintf(&sb, " %d %d ", s.Round, s.Current)
	if s.NextStarter < 0 {
		sb.WriteByte('-')
	} else {
		sb.WriteByte('0' + byte(s.NextStarter))
	}
	sb.WriteByte(' ')
	sb.WriteString(formatCounts(s.Bag))
	sb.WriteByte(' ')
	sb.WriteString(formatCounts(s.Discard))

	return sb.String()
}

// String returns the canonical position string.
func (s *GameState) String() string {
	return FormatPosition(s)
}

func formatCounts(ts TileSet) string {
	parts := make([]string, NumColors)
	for c := 0; c < NumColors; c++ {
		parts[c] = strconv.Itoa(int(ts[c]))
	}
	return strings.Join(parts, ".")
}

func parseCounts(field string) (TileSet, error) {
	var ts TileSet
	parts := strings.Split(field, ".")
	if len(parts) != NumColors {
		return ts, fmt.Errorf("need %d counts, got %d", NumColors, len(parts))
	}
	for c, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 || n > TilesPerColor {
			return ts, fmt.Errorf("bad count %q", p)
		}
		ts[c] = uint8(n)
	}
	return ts, nil
}

// ParsePosition parses the canonical position string form.
func ParsePosition(str string) (GameState, error) {
	fields := strings.Fields(str)
	if len(fields) != 9 {
		return GameState{}, fmt.Errorf("invalid position: need 9 fields, got %d", len(fields))
	}

	var s GameState
	s.NextStarter = -1

	// Factories
	groups := strings.Split(fields[0], ",")
	if len(groups) < FactoriesFor(MinPlayers) || len(groups) > MaxFactories {
		return GameState{}, fmt.Errorf("invalid factory count %d", len(groups))
	}
	s.NumFactories = uint8(len(groups))
	for f, g := range groups {
		if len(g) != NumColors {
			return GameState{}, fmt.Errorf("factory %d: need %d digits, got %q", f, NumColors, g)
		}
		for c := 0; c < NumColors; c++ {
			d := g[c] - '0'
			if d > FactoryCap {
				return GameState{}, fmt.Errorf("factory %d: count %c out of range", f, g[c])
			}
			s.Factories[f][c] = d
		}
	}

	var err error
	if s.Center, err = parseCounts(fields[1]); err != nil {
		return GameState{}, fmt.Errorf("invalid center: %w", err)
	}

	switch fields[2] {
	case "M":
		s.CenterMarker = true
	case "-":
	default:
		return GameState{}, fmt.Errorf("invalid marker field %q", fields[2])
	}

	// Players
	playerFields := strings.Split(fields[3], "*")
	if len(playerFields) < MinPlayers || len(playerFields) > MaxPlayers {
		return GameState{}, fmt.Errorf("invalid player count %d", len(playerFields))
	}
	s.NumPlayers = uint8(len(playerFields))
	if int(s.NumFactories) != FactoriesFor(len(playerFields)) {
		return GameState{}, fmt.Errorf("%d factories does not match %d players", s.NumFactories, s.NumPlayers)
	}
	for p, pf := range playerFields {
		if err := parsePlayer(&s.Players[p], pf); err != nil {
			return GameState{}, fmt.Errorf("invalid player %d: %w", p, err)
		}
	}

	round, err := strconv.Atoi(fields[4])
	if err != nil || round < 1 {
		return GameState{}, fmt.Errorf("invalid round %q", fields[4])
	}
	s.Round = uint8(round)

	cur, err := strconv.Atoi(fields[5])
	if err != nil || cur < 0 || cur >= int(s.NumPlayers) {
		return GameState{}, fmt.Errorf("invalid current player %q", fields[5])
	}
	s.Current = uint8(cur)

	if fields[6] != "-" {
		st, err := strconv.Atoi(fields[6])
		if err != nil || st < 0 || st >= int(s.NumPlayers) {
			return GameState{}, fmt.Errorf("invalid starter %q", fields[6])
		}
		s.NextStarter = int8(st)
	}

	if s.Bag, err = parseCounts(fields[7]); err != nil {
		return GameState{}, fmt.Errorf("invalid bag: %w", err)
	}
	if s.Discard, err = parseCounts(fields[8]); err != nil {
		return GameState{}, fmt.Errorf("invalid discard: %w", err)
	}

	s.hash = s.computeHash()
	return s, nil
}

func parsePlayer(board *PlayerBoard, field string) error {
	parts := strings.Split(field, "/")
	if len(parts) != 4 {
		return fmt.Errorf("need 4 sections, got %d", len(parts))
	}

	// Pattern lines
	lines := strings.Split(parts[0], ".")
	if len(lines) != NumLines {
		return fmt.Errorf("need %d pattern lines, got %d", NumLines, len(lines))
	}
	for l, tok := range lines {
		if tok == "-" {
			continue
		}
		if len(tok) != 2 {
			return fmt.Errorf("bad pattern line token %q", tok)
		}
		c, err := ParseColor(tok[0])
		if err != nil {
			return err
		}
		n := int(tok[1] - '0')
		if n < 1 || n > l+1 {
			return fmt.Errorf("pattern line %d count %d out of range", l, n)
		}
		board.Lines[l] = PatternLine{Color: c, Count: uint8(n)}
	}

	// Wall
	if len(parts[1]) != WallSize*WallSize {
		return fmt.Errorf("wall needs %d cells, got %d", WallSize*WallSize, len(parts[1]))
	}
	for i, ch := range []byte(parts[1]) {
		switch ch {
		case 'X':
			board.Wall[i/WallSize] |= 1 << uint(i%WallSize)
		case '.':
		default:
			return fmt.Errorf("bad wall cell %q", string(ch))
		}
	}

	// Floor
	if parts[2] != "-" {
		if len(parts[2]) > FloorSize {
			return fmt.Errorf("floor overflow: %d tiles", len(parts[2]))
		}
		for _, ch := range []byte(parts[2]) {
			if ch == 'M' {
				board.Floor[board.FloorCount] = Marker
			} else {
				c, err := ParseColor(ch)
				if err != nil {
					return err
				}
				board.Floor[board.FloorCount] = FloorTile(c)
			}
			board.FloorCount++
		}
	}

	score, err := strconv.Atoi(parts[3])
	if err != nil || score < 0 {
		return fmt.Errorf("invalid score %q", parts[3])
	}
	board.Score = int16(score)

	return nil
}
