package engine

import (
	"errors"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/hailam/azulplay/internal/azul"
	"github.com/hailam/azulplay/internal/cache"
	"github.com/hailam/azulplay/internal/endgame"
)

// lastTilePosition has a single blue tile left; placing it on pattern
// line 0 wins the exchange by one point.
const lastTilePosition = "00000,00000,00000,00000,00000 1.0.0.0.0 - " +
	"-.-.-.-.-/........................./-/0*-.-.-.-.-/........................./-/0 " +
	"3 0 0 0.0.0.0.0 19.20.20.20.20"

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestAnalyzer(t *testing.T, endgameThreshold int) *Analyzer {
	t.Helper()
	store, err := cache.Open(t.TempDir(), cache.CodecS2, 0)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	eng := NewEngine(8, NewHeuristicEval(DefaultWeights()))
	return NewAnalyzer(eng, endgame.New(endgameThreshold), store, quietLogger())
}

func TestAnalyzeExactThenCacheHit(t *testing.T) {
	pos := dealtPosition(t, 2, 41)
	a := newTestAnalyzer(t, 1) // threshold 1: the solver declines fresh deals

	req := Request{Position: azul.FormatPosition(&pos), Type: AnalysisExact, Depth: 2}

	fresh, err := a.Analyze(req)
	if err != nil {
		t.Fatal(err)
	}
	if fresh.FromCache {
		t.Fatal("first query served from cache")
	}
	if fresh.Source != "alphabeta" {
		t.Fatalf("source = %q, want alphabeta", fresh.Source)
	}
	if fresh.Notation == "" || fresh.QueryID == "" {
		t.Fatalf("incomplete response: %+v", fresh)
	}
	if fresh.Move.Take == 0 {
		t.Fatal("response carries no structured move")
	}

	cached, err := a.Analyze(req)
	if err != nil {
		t.Fatal(err)
	}
	if !cached.FromCache {
		t.Fatal("second query missed the cache")
	}
	if cached.Move != fresh.Move || cached.Score != fresh.Score {
		t.Fatalf("cached answer differs: %+v vs %+v", cached, fresh)
	}
	if cached.QueryID == fresh.QueryID {
		t.Fatal("query IDs must be per-call")
	}
}

func TestAnalyzeDeeperRequestRecomputes(t *testing.T) {
	pos := dealtPosition(t, 2, 57)
	a := newTestAnalyzer(t, 1)
	text := azul.FormatPosition(&pos)

	shallow, err := a.Analyze(Request{Position: text, Type: AnalysisExact, Depth: 1})
	if err != nil {
		t.Fatal(err)
	}
	if shallow.Depth != 1 {
		t.Fatalf("depth = %d, want 1", shallow.Depth)
	}

	// A deeper request must not settle for the shallow slot.
	deep, err := a.Analyze(Request{Position: text, Type: AnalysisExact, Depth: 3})
	if err != nil {
		t.Fatal(err)
	}
	if deep.FromCache {
		t.Fatal("depth-3 query served from a depth-1 slot")
	}
	if deep.Depth != 3 {
		t.Fatalf("depth = %d, want 3", deep.Depth)
	}

	// The depth-3 slot satisfies anything up to depth 3.
	again, err := a.Analyze(Request{Position: text, Type: AnalysisExact, Depth: 2})
	if err != nil {
		t.Fatal(err)
	}
	if !again.FromCache || again.Depth != 3 {
		t.Fatalf("depth-2 query not served from the depth-3 slot: %+v", again)
	}
}

func TestAnalyzeHint(t *testing.T) {
	pos := dealtPosition(t, 2, 43)
	a := newTestAnalyzer(t, 1)

	resp, err := a.Analyze(Request{
		Position: azul.FormatPosition(&pos),
		Type:     AnalysisHint,
		Rollouts: 100,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Source != "mcts" {
		t.Fatalf("source = %q, want mcts", resp.Source)
	}
	if resp.WinRate < 0 || resp.WinRate > 1 {
		t.Fatalf("win rate %v outside [0,1]", resp.WinRate)
	}
	if resp.Rollouts != 100 {
		t.Fatalf("rollouts = %d, want 100", resp.Rollouts)
	}
}

func TestAnalyzeEndgameUpgrade(t *testing.T) {
	a := newTestAnalyzer(t, 0) // default threshold accepts the position

	exact, err := a.Analyze(Request{Position: lastTilePosition, Type: AnalysisExact})
	if err != nil {
		t.Fatal(err)
	}
	if exact.Source != "endgame" || !exact.Proven {
		t.Fatalf("expected proven endgame answer, got %+v", exact)
	}
	if exact.Score != 1 {
		t.Fatalf("solved differential = %v, want 1", exact.Score)
	}

	// The proven slot satisfies even a hint query for the same position.
	hint, err := a.Analyze(Request{Position: lastTilePosition, Type: AnalysisHint})
	if err != nil {
		t.Fatal(err)
	}
	if !hint.FromCache || !hint.Proven {
		t.Fatalf("hint not served from the proven slot: %+v", hint)
	}
	if hint.Move != exact.Move {
		t.Fatalf("cached move %q differs from solved %q", hint.Move, exact.Move)
	}
}

func TestAnalyzeWithoutCache(t *testing.T) {
	pos := dealtPosition(t, 2, 45)
	eng := NewEngine(8, NewHeuristicEval(DefaultWeights()))
	a := NewAnalyzer(eng, endgame.New(1), nil, quietLogger())

	resp, err := a.Analyze(Request{
		Position: azul.FormatPosition(&pos),
		Type:     AnalysisExact,
		Depth:    2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.FromCache {
		t.Fatal("cache-less analyzer claimed a cache hit")
	}
}

func TestAnalyzeRejectsBadInput(t *testing.T) {
	a := newTestAnalyzer(t, 1)

	if _, err := a.Analyze(Request{Position: "not a position", Type: AnalysisExact}); err == nil {
		t.Fatal("malformed position accepted")
	}

	pos := dealtPosition(t, 2, 47)
	if _, err := a.Analyze(Request{Position: azul.FormatPosition(&pos), Type: "oracle"}); err == nil {
		t.Fatal("unknown analysis type accepted")
	}
}

func TestAnalyzeEndgameTypeFallsBack(t *testing.T) {
	pos := dealtPosition(t, 2, 51)
	a := newTestAnalyzer(t, 1) // solver declines the fresh deal

	resp, err := a.Analyze(Request{
		Position: azul.FormatPosition(&pos),
		Type:     AnalysisEndgame,
		Depth:    2,
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.Source != "alphabeta" || resp.Proven {
		t.Fatalf("declined endgame query must degrade to search: %+v", resp)
	}
}

func TestAnalyzeAgentValidation(t *testing.T) {
	pos := dealtPosition(t, 2, 53)
	a := newTestAnalyzer(t, 1)

	wrong := 1 // the fresh deal has player 0 to move
	_, err := a.Analyze(Request{
		Position: azul.FormatPosition(&pos),
		Type:     AnalysisExact,
		Depth:    1,
		Agent:    &wrong,
	})
	if err == nil {
		t.Fatal("agent not on move accepted")
	}

	right := 0
	if _, err := a.Analyze(Request{
		Position: azul.FormatPosition(&pos),
		Type:     AnalysisExact,
		Depth:    1,
		Agent:    &right,
	}); err != nil {
		t.Fatal(err)
	}
}

func TestAnalyzeHintBudgetExceeded(t *testing.T) {
	pos := dealtPosition(t, 2, 49)
	a := newTestAnalyzer(t, 1)

	_, err := a.Analyze(Request{
		Position:   azul.FormatPosition(&pos),
		Type:       AnalysisHint,
		TimeBudget: 1, // one nanosecond
	})
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}
}
