// Package methods implements the disambiguation algorithms under evaluation
// and the registry the harness invokes them through.
package methods

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/imagesense/sense-bench/internal/ann"
	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/features"
	"github.com/imagesense/sense-bench/internal/oracle"
	"github.com/imagesense/sense-bench/internal/pkg/errors"
	"github.com/imagesense/sense-bench/internal/pkg/logger"
)

// Result is the retrieval result for one query: a ranking of image IDs to
// show the user with the matching distance for each position.
type Result struct {
	Retrieved []int64
	Scores    []float64
}

// Options carries per-invocation settings for a method.
type Options struct {
	// Params holds algorithm-specific parameters, merged from the config
	// namespace for the method. Unknown parameters are passed through
	// untouched; each method validates its own.
	Params map[string]float64

	// ShowProgress enables per-query progress logging.
	ShowProgress bool

	// Rand is the random source for stochastic initialization. The harness
	// seeds it once for the whole run, not per round, so rounds deliberately
	// see different internal randomness.
	Rand *rand.Rand

	// Searcher resolves nearest neighbors in feature space.
	Searcher ann.Searcher

	// Log receives progress and diagnostics.
	Log *logger.Logger
}

// Param returns a float parameter or its default.
func (o Options) Param(name string, def float64) float64 {
	if v, ok := o.Params[name]; ok {
		return v
	}
	return def
}

// IntParam returns an integer parameter or its default.
func (o Options) IntParam(name string, def int) int {
	if v, ok := o.Params[name]; ok {
		return int(v)
	}
	return def
}

// Func is the uniform signature every disambiguation method conforms to.
// The selector is the preview-truncated oracle; methods call it to pick the
// image sense(s) to present.
type Func func(ctx context.Context, store *features.Store, queries map[string]*dataset.Query,
	selector oracle.Selector, opts Options) (map[string]Result, error)

// Registration pairs a method name with its implementation.
type Registration struct {
	Name string
	Run  Func
}

// Registry order is presentation order: reports list methods in the order
// they were registered.
var registry []Registration

func register(name string, fn Func) {
	registry = append(registry, Registration{Name: name, Run: fn})
}

func init() {
	register("Baseline", Baseline)
	register("CLUE", CLUE)
	register("Hard-Select", HardSelect)
	register("AID", AID)
}

// Names returns every registered method name in registration order.
func Names() []string {
	names := make([]string, len(registry))
	for i, r := range registry {
		names[i] = r.Name
	}
	return names
}

// Resolve maps requested method names to registrations, preserving request
// order. An empty request selects every registered method. Unknown names are
// a configuration error and must be caught before the round loop starts.
func Resolve(names []string) ([]Registration, error) {
	if len(names) == 0 {
		return append([]Registration(nil), registry...), nil
	}

	resolved := make([]Registration, 0, len(names))
	for _, name := range names {
		found := false
		for _, r := range registry {
			if r.Name == name {
				resolved = append(resolved, r)
				found = true
				break
			}
		}
		if !found {
			return nil, errors.NotFoundError(fmt.Sprintf("method %q", name)).
				WithDetail("known", fmt.Sprint(Names()))
		}
	}
	return resolved, nil
}

// Invoke runs a method and validates its output against the retrieval result
// contract: one result per query, scores aligned with the ranking.
func Invoke(ctx context.Context, reg Registration, store *features.Store,
	queries map[string]*dataset.Query, selector oracle.Selector, opts Options) (map[string]Result, error) {

	if opts.Searcher == nil {
		opts.Searcher = ann.NewExact(store)
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(0))
	}
	if opts.Log == nil {
		opts.Log = logger.Default()
	}
	opts.Log = opts.Log.WithMethod(reg.Name)

	results, err := reg.Run(ctx, store, queries, selector, opts)
	if err != nil {
		return nil, errors.MethodError(fmt.Sprintf("method %s failed", reg.Name), err)
	}

	for qid := range queries {
		res, ok := results[qid]
		if !ok {
			return nil, errors.DataError(
				fmt.Sprintf("method %s returned no result for query %s", reg.Name, qid))
		}
		if len(res.Retrieved) != len(res.Scores) {
			return nil, errors.DataError(
				fmt.Sprintf("method %s returned %d ranks but %d scores for query %s",
					reg.Name, len(res.Retrieved), len(res.Scores), qid))
		}
	}

	return results, nil
}

// baselineRanking retrieves the full dataset ranking for a query's seed image.
func baselineRanking(ctx context.Context, store *features.Store, q *dataset.Query, searcher ann.Searcher) (Result, error) {
	vec, err := store.Vector(q.ImgID)
	if err != nil {
		return Result{}, err
	}

	neighbors, err := searcher.Search(ctx, vec, 0)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		Retrieved: make([]int64, len(neighbors)),
		Scores:    make([]float64, len(neighbors)),
	}
	for i, n := range neighbors {
		res.Retrieved[i] = n.ID
		res.Scores[i] = n.Dist
	}
	return res, nil
}
