// Package main is the mixplan CLI entry point: plan, analyze, and cache
// flush, grounded on the teacher's flag-based main and the run()-int/
// os.Exit idiom from the rest of the pack.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/vividhyeok/mixplan/internal/analysis"
	"github.com/vividhyeok/mixplan/internal/audio"
	"github.com/vividhyeok/mixplan/internal/cache"
	"github.com/vividhyeok/mixplan/internal/config"
	"github.com/vividhyeok/mixplan/internal/criteria"
	"github.com/vividhyeok/mixplan/internal/engine"
	"github.com/vividhyeok/mixplan/internal/obslog"
	"github.com/vividhyeok/mixplan/internal/recipe"
	"github.com/vividhyeok/mixplan/internal/selector"
)

// Exit codes (§6): 0 success, 2 invalid input, 3 empty pool, 4 cancelled.
const (
	exitOK                  = 0
	exitInvalidInput        = 2
	exitEmptyPool           = 3
	exitCancelled           = 4
)

func main() {
	audio.InitFFmpeg()
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return exitInvalidInput
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "plan":
		return runPlan(ctx, args[1:])
	case "analyze":
		return runAnalyze(ctx, args[1:])
	case "cache":
		return runCache(ctx, args[1:])
	default:
		printUsage()
		return exitInvalidInput
	}
}

func printUsage() {
	fmt.Println("Usage: mixplan <plan|analyze|cache> [flags]")
	fmt.Println("  mixplan plan --criteria FILE --pool FILE [--seed N] [--out FILE] [--cache DIR] [--config FILE]")
	fmt.Println("  mixplan analyze --pcm FILE --rate HZ [--cache DIR]")
	fmt.Println("  mixplan cache flush --cache DIR")
}

func runPlan(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	criteriaPath := fs.String("criteria", "", "path to a MixCriteria JSON file")
	poolPath := fs.String("pool", "", "path to a candidate pool JSON file (array of tracks)")
	seed := fs.Int64("seed", -1, "override the criteria's PRNG seed")
	outPath := fs.String("out", "", "write the renderer spec here (default: stdout)")
	cacheDir := fs.String("cache", "", "analysis cache directory (default: no cache)")
	configPath := fs.String("config", "", "tunable-weights TOML file (default: built-in weights)")
	sentryDSN := fs.String("sentry-dsn", "", "error reporter DSN (default: inert)")
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}

	if *criteriaPath == "" || *poolPath == "" {
		fmt.Fprintln(os.Stderr, "plan: --criteria and --pool are required")
		return exitInvalidInput
	}

	crit, err := loadCriteria(*criteriaPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		return exitInvalidInput
	}
	if *seed >= 0 {
		crit.Seed = *seed
	}

	pool, err := loadPool(*poolPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		return exitInvalidInput
	}
	if len(pool) == 0 {
		fmt.Fprintln(os.Stderr, "plan: pool is empty")
		return exitEmptyPool
	}

	weights, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan:", err)
		return exitInvalidInput
	}

	reporter, err := obslog.NewReporter(*sentryDSN)
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan: reporter:", err)
		return exitInvalidInput
	}
	defer reporter.Flush(2000)

	var store *cache.Store
	if *cacheDir != "" {
		store, err = cache.Open(*cacheDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "plan:", err)
			return exitInvalidInput
		}
		defer store.Close()
	}

	analyzeFn := engine.CachedAnalyzer(store, analyzerVersion, func(ctx context.Context, c selector.Candidate) (analysis.AnalysisReport, error) {
		return decodeAndAnalyze(ctx, c, weights.CrossfadeBars)
	})

	plan, err := engine.Plan(ctx, crit, pool, engine.Options{
		Analyze:  analyzeFn,
		Reporter: reporter,
		Weights:  &weights,
	})
	if err != nil {
		switch {
		case errors.Is(err, engine.ErrCancelRequested):
			fmt.Fprintln(os.Stderr, "plan: cancelled")
			return exitCancelled
		case errors.Is(err, engine.ErrInsufficientPool):
			fmt.Fprintln(os.Stderr, "plan: insufficient pool:", err)
			return exitEmptyPool
		case errors.Is(err, criteria.ErrConstraintInconsistent):
			fmt.Fprintln(os.Stderr, "plan:", err)
			return exitInvalidInput
		default:
			fmt.Fprintln(os.Stderr, "plan:", err)
			return exitInvalidInput
		}
	}

	data, err := json.MarshalIndent(plan.Spec, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "plan: encode:", err)
		return exitInvalidInput
	}
	if *outPath == "" {
		fmt.Println(string(data))
	} else {
		if err := os.WriteFile(*outPath, data, 0o644); err != nil {
			fmt.Fprintln(os.Stderr, "plan: write:", err)
			return exitInvalidInput
		}
		fmt.Fprintln(os.Stderr, recipe.CueSheet(plan.Spec))
	}
	return exitOK
}

// analyzerVersion is the cache key suffix (§6: "<id>-<analyzerVersion>
// .json"); bump it whenever the analysis algorithm changes incompatibly.
const analyzerVersion = "1"

func decodeAndAnalyze(ctx context.Context, c selector.Candidate, crossfadeBarsOverride map[string]int) (analysis.AnalysisReport, error) {
	if c.Track.SourceURI == "" {
		return analysis.AnalysisReport{}, fmt.Errorf("track %s has no source URI to decode", c.Track.ID)
	}
	samples, rate, err := audio.DecodeFile(c.Track.SourceURI)
	if err != nil {
		return analysis.AnalysisReport{}, err
	}
	obslog.Logf(obslog.StageAnalyzing, "%s", c.Track.SourceURI)
	params := analysis.DefaultParams()
	params.CrossfadeBarsOverride = crossfadeBarsOverride
	return analysis.AnalyzeTrack(samples, rate, params), nil
}

func runAnalyze(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	pcmPath := fs.String("pcm", "", "path to an audio file to decode and analyze")
	rate := fs.Int("rate", 0, "override sample rate (default: decoder's native rate)")
	cacheDir := fs.String("cache", "", "analysis cache directory (default: no cache)")
	if err := fs.Parse(args); err != nil {
		return exitInvalidInput
	}
	if *pcmPath == "" {
		fmt.Fprintln(os.Stderr, "analyze: --pcm is required")
		return exitInvalidInput
	}

	samples, sr, err := audio.DecodeFile(*pcmPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "analyze:", err)
		return exitInvalidInput
	}
	if *rate > 0 {
		sr = *rate
	}
	report := analysis.AnalyzeTrack(samples, sr, analysis.DefaultParams())

	if *cacheDir != "" {
		store, err := cache.Open(*cacheDir)
		if err != nil {
			fmt.Fprintln(os.Stderr, "analyze:", err)
			return exitInvalidInput
		}
		defer store.Close()
		if err := store.Put(*pcmPath, analyzerVersion, report); err != nil {
			fmt.Fprintln(os.Stderr, "analyze: cache put:", err)
			return exitInvalidInput
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintln(os.Stderr, "analyze: encode:", err)
		return exitInvalidInput
	}
	fmt.Println(string(data))
	return exitOK
}

func runCache(ctx context.Context, args []string) int {
	if len(args) == 0 || args[0] != "flush" {
		fmt.Fprintln(os.Stderr, "Usage: mixplan cache flush --cache DIR")
		return exitInvalidInput
	}
	fs := flag.NewFlagSet("cache flush", flag.ContinueOnError)
	cacheDir := fs.String("cache", "", "analysis cache directory")
	if err := fs.Parse(args[1:]); err != nil {
		return exitInvalidInput
	}
	if *cacheDir == "" {
		fmt.Fprintln(os.Stderr, "cache flush: --cache is required")
		return exitInvalidInput
	}
	store, err := cache.Open(*cacheDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "cache flush:", err)
		return exitInvalidInput
	}
	defer store.Close()
	if err := store.Flush(); err != nil {
		fmt.Fprintln(os.Stderr, "cache flush:", err)
		return exitInvalidInput
	}
	log.Printf("[cache] flushed %s", *cacheDir)
	return exitOK
}

func loadCriteria(path string) (criteria.MixCriteria, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return criteria.MixCriteria{}, fmt.Errorf("read criteria: %w", err)
	}
	var crit criteria.MixCriteria
	if err := json.Unmarshal(data, &crit); err != nil {
		return criteria.MixCriteria{}, fmt.Errorf("parse criteria: %w", err)
	}
	if err := criteria.Validate(crit); err != nil {
		return criteria.MixCriteria{}, err
	}
	return crit, nil
}

func loadPool(path string) ([]selector.Candidate, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pool: %w", err)
	}
	var candidates []selector.Candidate
	if err := json.Unmarshal(data, &candidates); err != nil {
		return nil, fmt.Errorf("parse pool: %w", err)
	}
	return candidates, nil
}
