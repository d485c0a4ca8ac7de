package evaluation

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/imagesense/sense-bench/internal/ann"
	"github.com/imagesense/sense-bench/internal/bus"
	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/features"
	"github.com/imagesense/sense-bench/internal/history"
	"github.com/imagesense/sense-bench/internal/methods"
	"github.com/imagesense/sense-bench/internal/oracle"
	"github.com/imagesense/sense-bench/internal/pkg/logger"
)

const eventSource = "sense-bench"

// RunConfig holds the evaluation protocol settings for one run.
type RunConfig struct {
	// Methods to evaluate; empty means every registered method.
	Methods []string

	// NumPreview truncates each cluster before the oracle sees it.
	NumPreview int

	// Multiple switches the oracle from best-single to threshold multi-select.
	Multiple bool

	// MinPrecision is the multi-select threshold.
	MinPrecision float64

	// Rounds repeats the full sweep.
	Rounds int

	// Workers bounds the scoring pool. 0 means GOMAXPROCS.
	Workers int

	// Seed initializes the shared random source, once, before round 0.
	Seed int64

	// ShowProgress enables per-query progress logging inside methods.
	ShowProgress bool

	// Params holds per-method parameter namespaces keyed by lower-cased
	// method name.
	Params map[string]map[string]float64
}

// Runner drives the full benchmark: rounds * methods, sequentially, with
// per-query scoring fanned out inside each method evaluation.
type Runner struct {
	Store    *features.Store
	Queries  map[string]*dataset.Query
	Searcher ann.Searcher
	Bus      bus.Bus
	History  history.Store
	Log      *logger.Logger
}

// Run executes the configured number of rounds and reduces them to a Summary.
// Method resolution happens before any computation so an unknown name fails
// fast. Rounds and methods run strictly sequentially; all methods within a
// run share one random source seeded once, so later rounds deliberately see
// different internal randomness.
func (r *Runner) Run(ctx context.Context, cfg RunConfig) (Summary, error) {
	regs, err := methods.Resolve(cfg.Methods)
	if err != nil {
		return Summary{}, err
	}

	log := r.Log
	if log == nil {
		log = logger.Default()
	}

	var base oracle.Selector
	if cfg.Multiple {
		base = oracle.PrecisionSelector{MinPrecision: cfg.MinPrecision}
	} else {
		base = oracle.BestSelector{}
	}
	// One preview-bound selector for every method and round.
	selector := oracle.Preview(base, cfg.NumPreview)

	rng := rand.New(rand.NewSource(cfg.Seed))
	runID := fmt.Sprintf("run-%s", time.Now().UTC().Format("20060102T150405"))
	started := time.Now()

	names := make([]string, len(regs))
	for i, reg := range regs {
		names[i] = reg.Name
	}

	r.publish(ctx, log, bus.TopicRunStarted, bus.RunStarted{
		RunID:   runID,
		Methods: names,
		Rounds:  cfg.Rounds,
		Queries: len(r.Queries),
	})

	rounds := make([]map[string]MethodScores, 0, cfg.Rounds)
	for round := 0; round < cfg.Rounds; round++ {
		roundLog := log.WithRound(round)
		roundLog.Info("round started", "rounds", cfg.Rounds)
		r.publish(ctx, log, bus.TopicRoundStarted, bus.RoundStarted{RunID: runID, Round: round})

		roundScores := make(map[string]MethodScores, len(regs))
		for _, reg := range regs {
			opts := methods.Options{
				Params:       cfg.Params[strings.ToLower(reg.Name)],
				ShowProgress: cfg.ShowProgress,
				Rand:         rng,
				Searcher:     r.Searcher,
				Log:          roundLog,
			}

			results, err := methods.Invoke(ctx, reg, r.Store, r.Queries, selector, opts)
			if err != nil {
				return Summary{}, err
			}

			scores, err := ScoreMethod(ctx, r.Queries, results, cfg.Workers)
			if err != nil {
				return Summary{}, err
			}
			roundScores[reg.Name] = scores

			roundLog.WithMethod(reg.Name).Info("method completed",
				"map", scores.Metrics[MetricMAP],
				"p@10", scores.Metrics["P@10"])
			r.publish(ctx, log, bus.TopicMethodCompleted, bus.MethodCompleted{
				RunID:   runID,
				Round:   round,
				Method:  reg.Name,
				Metrics: scores.Metrics,
			})
		}

		rounds = append(rounds, roundScores)
		r.publish(ctx, log, bus.TopicRoundCompleted, bus.RoundCompleted{RunID: runID, Round: round})
	}

	summary := Reduce(rounds, names)

	if r.History != nil {
		if err := r.History.Save(ctx, runID, started, summary.Mean); err != nil {
			log.WithError(err).Warn("failed to persist run history")
		}
	}

	r.publish(ctx, log, bus.TopicRunCompleted, bus.RunCompleted{
		RunID:    runID,
		Rounds:   cfg.Rounds,
		Duration: time.Since(started).Seconds(),
	})

	return summary, nil
}

// publish sends a lifecycle event. Event delivery is advisory: a publish
// failure is logged, never fatal to the run.
func (r *Runner) publish(ctx context.Context, log *logger.Logger, topic string, payload any) {
	if r.Bus == nil {
		return
	}
	if err := r.Bus.Publish(ctx, topic, bus.NewEvent(topic, eventSource, payload)); err != nil {
		log.WithError(err).Warn("failed to publish event", "topic", topic)
	}
}
