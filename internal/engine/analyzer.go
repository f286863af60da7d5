package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/hailam/azulplay/internal/azul"
	"github.com/hailam/azulplay/internal/cache"
	"github.com/hailam/azulplay/internal/endgame"
	"github.com/hailam/azulplay/internal/mcts"
)

// AnalysisType selects which engine answers a query.
type AnalysisType string

const (
	// AnalysisExact asks for a bounded-depth alpha-beta answer, upgraded
	// to a proven value when the endgame solver accepts the position.
	AnalysisExact AnalysisType = "exact"
	// AnalysisHint asks for a fast MCTS recommendation.
	AnalysisHint AnalysisType = "hint"
	// AnalysisEndgame prefers a proven endgame value; when the solver
	// declines the position it degrades to the exact path. The decline is
	// internal control flow, never an error to the caller.
	AnalysisEndgame AnalysisType = "endgame"
)

// Fallback limits for requests that specify none.
const (
	defaultDepth    = 6
	defaultRollouts = 10000
)

// Request is one analysis query. Position is the serialized position
// string; zero limits fall back to the analyzer defaults.
type Request struct {
	Position    string        `json:"position"`
	Type        AnalysisType  `json:"type"`
	Agent       *int          `json:"agent,omitempty"` // acting player; must match the position when set
	Depth       int           `json:"depth,omitempty"`
	TimeBudget  time.Duration `json:"time_budget,omitempty"`
	Rollouts    int           `json:"rollouts,omitempty"`
	Exploration float64       `json:"exploration,omitempty"`
}

// Response is the answer to one analysis query. Move is the structured
// move with its routing counts; Notation is its short rendering for
// display. Score is the settled score differential view for exact
// answers; WinRate is the empirical mean outcome for hints.
type Response struct {
	QueryID   string        `json:"query_id"`
	Move      azul.Move     `json:"move"`
	Notation  string        `json:"notation"`
	Score     float64       `json:"score,omitempty"`
	WinRate   float64       `json:"win_rate,omitempty"`
	Depth     int           `json:"depth,omitempty"`
	Nodes     uint64        `json:"nodes,omitempty"`
	Rollouts  int           `json:"rollouts,omitempty"`
	Proven    bool          `json:"proven"` // true for endgame-solved answers
	Source    string        `json:"source"` // alphabeta, mcts or endgame
	FromCache bool          `json:"from_cache"`
	Elapsed   time.Duration `json:"elapsed"`
}

// Analyzer is the query facade: it parses and hashes a position, consults
// the cache, dispatches to the endgame solver or the search engines, and
// writes fresh results back. The cache is optional; on repeated IO errors
// the analyzer degrades to cache-less operation for the query at hand.
type Analyzer struct {
	engine  *Engine
	solver  *endgame.Solver
	store   *cache.Cache
	log     *logrus.Logger
	rollout mcts.LeafEvaluator
}

// NewAnalyzer wires the facade. store may be nil to run without
// persistence; log may be nil for a default logger.
func NewAnalyzer(eng *Engine, solver *endgame.Solver, store *cache.Cache, log *logrus.Logger) *Analyzer {
	if log == nil {
		log = logrus.New()
	}
	return &Analyzer{engine: eng, solver: solver, store: store, log: log}
}

// SetRolloutPolicy substitutes an evaluator for random MCTS playouts,
// typically a learned model served behind the function boundary.
func (a *Analyzer) SetRolloutPolicy(eval mcts.LeafEvaluator) {
	a.rollout = eval
}

// Analyze answers one query.
func (a *Analyzer) Analyze(req Request) (Response, error) {
	start := time.Now()
	queryID := uuid.NewString()

	pos, err := azul.ParsePosition(req.Position)
	if err != nil {
		return Response{}, fmt.Errorf("analyze: %w", err)
	}
	if req.Agent != nil && *req.Agent != int(pos.Current) {
		return Response{}, fmt.Errorf("analyze: agent %d is not to move (position has player %d)", *req.Agent, pos.Current)
	}

	kind, err := req.kind()
	if err != nil {
		return Response{}, err
	}

	fields := logrus.Fields{
		"query_id": queryID,
		"type":     req.Type,
		"hash":     fmt.Sprintf("%016x", pos.Hash()),
	}
	a.log.WithFields(fields).Debug("analysis query")

	if resp, ok := a.fromCache(&pos, kind, req.wantDepth(), fields); ok {
		resp.QueryID = queryID
		resp.Elapsed = time.Since(start)
		return resp, nil
	}

	resp, err := a.dispatch(&pos, req)
	if err != nil {
		return Response{}, err
	}
	resp.QueryID = queryID

	a.writeBack(&pos, req.Position, resp, fields)

	resp.Elapsed = time.Since(start)
	a.log.WithFields(fields).WithFields(logrus.Fields{
		"move":    resp.Notation,
		"source":  resp.Source,
		"elapsed": resp.Elapsed,
	}).Info("analysis complete")
	return resp, nil
}

// wantDepth is the search depth a cached alpha-beta answer must reach to
// satisfy the request. Zero for hints, which carry no depth.
func (r Request) wantDepth() int {
	if r.Type == AnalysisHint {
		return 0
	}
	if r.Depth > 0 {
		return r.Depth
	}
	return defaultDepth
}

func (r Request) kind() (string, error) {
	switch r.Type {
	case AnalysisExact:
		return cache.KindAlphaBeta, nil
	case AnalysisHint:
		return cache.KindMCTS, nil
	case AnalysisEndgame:
		return cache.KindEndgame, nil
	}
	return "", fmt.Errorf("analyze: unknown analysis type %q", r.Type)
}

// fromCache serves a query from the position cache when possible. An
// endgame slot satisfies any query type, being a proven value; an
// alpha-beta slot only satisfies requests it reaches in depth.
func (a *Analyzer) fromCache(pos *azul.GameState, kind string, depth int, fields logrus.Fields) (Response, bool) {
	if a.store == nil {
		return Response{}, false
	}

	entry, found, err := a.cacheGet(pos.Hash())
	if err != nil {
		a.log.WithFields(fields).WithError(err).Warn("cache unavailable, continuing without it")
		return Response{}, false
	}
	if !found {
		return Response{}, false
	}

	for _, slot := range []string{cache.KindEndgame, kind} {
		var resp Response
		ok, err := entry.Result(slot, &resp)
		if err != nil {
			a.log.WithFields(fields).WithError(err).Warn("corrupt cache slot, recomputing")
			return Response{}, false
		}
		if ok {
			if resp.Source == "alphabeta" && resp.Depth < depth {
				continue
			}
			resp.FromCache = true
			return resp, true
		}
	}
	return Response{}, false
}

// cacheGet retries a failed read once before giving up.
func (a *Analyzer) cacheGet(hash uint64) (*cache.Entry, bool, error) {
	entry, found, err := a.store.Get(hash)
	if err == nil {
		return entry, found, nil
	}
	return a.store.Get(hash)
}

// dispatch routes a fresh query: the endgame solver when it accepts the
// position, else the engine the query type names.
func (a *Analyzer) dispatch(pos *azul.GameState, req Request) (Response, error) {
	if a.solver != nil && a.solver.Supports(pos) {
		res, err := a.solver.Solve(pos)
		if err == nil {
			return Response{
				Move:     res.Move,
				Notation: res.Move.String(),
				Score:    float64(res.Diff),
				Nodes:    res.Nodes,
				Proven:   true,
				Source:   "endgame",
			}, nil
		}
		if !errors.Is(err, endgame.ErrUnsupportedPosition) {
			return Response{}, err
		}
	}

	switch req.Type {
	case AnalysisExact, AnalysisEndgame:
		depth := req.Depth
		if depth <= 0 {
			depth = defaultDepth
		}
		result, err := a.engine.Search(pos, SearchLimits{
			Depth:      depth,
			TimeBudget: req.TimeBudget,
		})
		if err != nil {
			return Response{}, err
		}
		return Response{
			Move:     result.Move,
			Notation: result.Move.String(),
			Score:    result.Score,
			Depth:    result.Depth,
			Nodes:    result.Nodes,
			Source:   "alphabeta",
		}, nil

	case AnalysisHint:
		rollouts := req.Rollouts
		if rollouts <= 0 && req.TimeBudget <= 0 {
			rollouts = defaultRollouts
		}
		result, err := mcts.Search(pos, mcts.Config{
			Exploration: req.Exploration,
			MaxRollouts: rollouts,
			TimeBudget:  req.TimeBudget,
			Evaluator:   a.rollout,
		})
		if errors.Is(err, mcts.ErrNoRollouts) {
			return Response{}, ErrBudgetExceeded
		}
		if err != nil {
			return Response{}, err
		}
		return Response{
			Move:     result.Move,
			Notation: result.Move.String(),
			WinRate:  result.WinRate,
			Rollouts: result.Rollouts,
			Source:   "mcts",
		}, nil
	}

	return Response{}, fmt.Errorf("analyze: unknown analysis type %q", req.Type)
}

// writeBack persists a fresh result. Cache failures degrade, never fail
// the query.
func (a *Analyzer) writeBack(pos *azul.GameState, position string, resp Response, fields logrus.Fields) {
	if a.store == nil {
		return
	}

	kind := cache.KindAlphaBeta
	switch resp.Source {
	case "mcts":
		kind = cache.KindMCTS
	case "endgame":
		kind = cache.KindEndgame
	}

	stored := resp
	stored.QueryID = ""
	stored.Elapsed = 0

	if err := a.store.Put(pos.Hash(), position, kind, stored); err != nil {
		if err = a.store.Put(pos.Hash(), position, kind, stored); err != nil {
			a.log.WithFields(fields).WithError(err).Warn("cache write failed, result not persisted")
		}
	}
}
