package azul

import "testing"

func TestWallPlacementScore(t *testing.T) {
	cases := []struct {
		name  string
		setup [][2]int // filled cells (row, col)
		place [2]int
		want  int
	}{
		{"isolated", nil, [2]int{2, 2}, 1},
		{"horizontal pair", [][2]int{{2, 1}}, [2]int{2, 2}, 2},
		{"horizontal run of three", [][2]int{{2, 0}, {2, 1}}, [2]int{2, 2}, 3},
		{"vertical pair", [][2]int{{1, 2}}, [2]int{2, 2}, 2},
		{"cross scores both runs", [][2]int{{2, 1}, {2, 3}, {1, 2}, {3, 2}}, [2]int{2, 2}, 6},
		{"gap does not join", [][2]int{{2, 0}}, [2]int{2, 2}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var wall [WallSize]uint8
			for _, cell := range tc.setup {
				wall[cell[0]] |= 1 << uint(cell[1])
			}
			wall[tc.place[0]] |= 1 << uint(tc.place[1])
			got := wallPlacementScore(&wall, tc.place[0], tc.place[1])
			if got != tc.want {
				t.Errorf("score = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestScoreRound(t *testing.T) {
	s, _ := NewGame(2)
	b := &s.Players[0]

	// Line 0 complete with blue, line 2 complete with red, line 1 partial.
	b.Lines[0] = PatternLine{Color: Blue, Count: 1}
	b.Lines[2] = PatternLine{Color: Red, Count: 3}
	b.Lines[1] = PatternLine{Color: Yellow, Count: 1}
	b.Floor[0] = FloorTile(White)
	b.Floor[1] = Marker
	b.FloorCount = 2
	for c, n := range map[Color]uint8{Blue: 1, Red: 3, Yellow: 1, White: 1} {
		s.Bag[c] -= n
	}
	s.CenterMarker = false
	s.NextStarter = 0
	s.hash = s.computeHash()

	settled := s.ScoreRound()
	sb := &settled.Players[0]

	// Two isolated placements (+2), floor penalty -1 -1, floor clamp not hit.
	if sb.Score != 0 {
		t.Errorf("score = %d, want 0 (2 placement - 2 floor)", sb.Score)
	}
	if !sb.HasWallColor(0, Blue) || !sb.HasWallColor(2, Red) {
		t.Error("completed lines did not reach the wall")
	}
	if sb.Lines[0].Count != 0 || sb.Lines[2].Count != 0 {
		t.Error("completed lines were not cleared")
	}
	if sb.Lines[1].Count != 1 || sb.Lines[1].Color != Yellow {
		t.Error("partial line must survive the round")
	}
	if sb.FloorCount != 0 {
		t.Error("floor line was not cleared")
	}
	// Line 2 had 3 tiles: 1 to the wall, 2 discarded; floor white discarded.
	if settled.Discard[Red] != 2 || settled.Discard[White] != 1 {
		t.Errorf("discard = %v, want 2 red 1 white", settled.Discard)
	}
	if settled.Round != s.Round+1 {
		t.Errorf("round = %d, want %d", settled.Round, s.Round+1)
	}
	if settled.Current != 0 || !settled.CenterMarker || settled.NextStarter != -1 {
		t.Error("marker holder must start the next round with the marker re-centered")
	}

	counts := settled.TileCounts()
	for c := 0; c < NumColors; c++ {
		if counts[c] != TilesPerColor {
			t.Errorf("color %d circulation = %d after settle", c, counts[c])
		}
	}
}

func TestScoreNeverNegative(t *testing.T) {
	s, _ := NewGame(2)
	b := &s.Players[0]
	for i := 0; i < FloorSize; i++ {
		b.Floor[i] = FloorTile(Black)
	}
	b.FloorCount = FloorSize
	s.Bag[Black] -= FloorSize
	s.hash = s.computeHash()

	settled := s.ScoreRound()
	if settled.Players[0].Score != 0 {
		t.Errorf("score = %d, floor penalties must clamp at zero", settled.Players[0].Score)
	}
}

func TestScoreGameBonuses(t *testing.T) {
	s, _ := NewGame(2)
	b := &s.Players[0]

	// Complete row 0, column 0, and the full blue diagonal.
	for col := 0; col < WallSize; col++ {
		b.Wall[0] |= 1 << uint(col)
	}
	for r := 0; r < WallSize; r++ {
		b.Wall[r] |= 1 << 0
		b.Wall[r] |= 1 << uint(WallColumn(r, Blue))
	}
	s.hash = s.computeHash()

	scored := s.ScoreGame()
	want := int16(RowBonus + ColumnBonus + ColorBonus)
	if scored.Players[0].Score != want {
		t.Errorf("bonus = %d, want %d", scored.Players[0].Score, want)
	}
	if scored.Players[1].Score != 0 {
		t.Errorf("opponent bonus = %d, want 0", scored.Players[1].Score)
	}
}

func TestScoreDiff(t *testing.T) {
	s, _ := NewGame(3)
	s.Players[0].Score = 40
	s.Players[1].Score = 25
	s.Players[2].Score = 31

	if d := s.ScoreDiff(0); d != 9 {
		t.Errorf("ScoreDiff(0) = %d, want 9", d)
	}
	if d := s.ScoreDiff(1); d != -15 {
		t.Errorf("ScoreDiff(1) = %d, want -15", d)
	}
}
