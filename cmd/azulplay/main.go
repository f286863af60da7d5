package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/hailam/azulplay/internal/cache"
	"github.com/hailam/azulplay/internal/config"
	"github.com/hailam/azulplay/internal/endgame"
	"github.com/hailam/azulplay/internal/engine"
)

var (
	position  = flag.String("position", "", "position string to analyze (reads stdin when empty)")
	queryType = flag.String("type", "exact", "analysis type: exact, hint or endgame")
	agent     = flag.Int("agent", -1, "acting player index (-1 = whoever is to move)")
	depth     = flag.Int("depth", 0, "alpha-beta depth (0 = configured default)")
	budget    = flag.Duration("budget", 0, "time budget (0 = configured default)")
	rollouts  = flag.Int("rollouts", 0, "MCTS rollout cap (0 = configured default)")
	noCache   = flag.Bool("no-cache", false, "skip the persistent position cache")
	showStats = flag.Bool("stats", false, "print cache statistics after the query")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := cfg.NewLogger()

	var store *cache.Cache
	if !*noCache {
		codec, err := cache.ParseCodec(cfg.CacheCodec)
		if err != nil {
			log.Fatal(err)
		}
		store, err = cache.Open(cfg.CacheDir, codec, cfg.CacheLevel)
		if err != nil {
			log.WithError(err).Warn("cache unavailable, analyzing without it")
		} else {
			defer store.Close()
		}
	}

	eng := engine.NewEngine(cfg.TTSizeMB, engine.NewHeuristicEval(evalWeights(cfg)))
	solver := endgame.New(cfg.EndgameTileThreshold)
	analyzer := engine.NewAnalyzer(eng, solver, store, log)

	text := *position
	if text == "" {
		text = readPosition()
	}
	if text == "" {
		log.Fatal("no position: pass -position or pipe one on stdin")
	}

	req := engine.Request{
		Position:    text,
		Type:        engine.AnalysisType(*queryType),
		Depth:       *depth,
		TimeBudget:  *budget,
		Rollouts:    *rollouts,
		Exploration: cfg.Exploration,
	}
	if req.Depth == 0 {
		req.Depth = cfg.SearchDepth
	}
	if req.TimeBudget == 0 {
		req.TimeBudget = cfg.TimeBudget
	}
	if req.Rollouts == 0 {
		req.Rollouts = cfg.Rollouts
	}
	if *agent >= 0 {
		req.Agent = agent
	}

	resp, err := analyzer.Analyze(req)
	if err != nil {
		log.Fatal(err)
	}

	out := json.NewEncoder(os.Stdout)
	out.SetIndent("", "  ")
	if err := out.Encode(resp); err != nil {
		log.Fatal(err)
	}

	if *showStats && store != nil {
		st, err := store.Stats()
		if err != nil {
			log.Fatal(err)
		}
		if err := out.Encode(st); err != nil {
			log.Fatal(err)
		}
	}
}

// readPosition reads the first non-empty line on stdin.
func readPosition() string {
	sc := bufio.NewScanner(os.Stdin)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			return line
		}
	}
	return ""
}

// evalWeights applies configured overrides on top of the defaults.
func evalWeights(cfg config.Config) engine.Weights {
	w := engine.DefaultWeights()
	override := func(dst *float64, v float64) {
		if !math.IsNaN(v) {
			*dst = v
		}
	}
	override(&w.WallProximity, cfg.Weights.WallProximity)
	override(&w.PatternEfficiency, cfg.Weights.PatternEfficiency)
	override(&w.FloorPenalty, cfg.Weights.FloorPenalty)
	override(&w.FloorRisk, cfg.Weights.FloorRisk)
	override(&w.Tempo, cfg.Weights.Tempo)
	return w
}
