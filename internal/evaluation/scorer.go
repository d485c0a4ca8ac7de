package evaluation

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/methods"
	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

// Metric names used in summary bundles. Precision positions are injected from
// the curve, everything else is computed over the filtered ranking directly.
const (
	MetricMAP    = "MAP"
	MetricNDCG   = "NDCG"
	MetricMRR    = "MRR"
	MetricRecall = "Recall"
)

// BundleMetrics lists every bundle metric in presentation order.
var BundleMetrics = []string{
	MetricMAP, MetricNDCG, MetricMRR, MetricRecall,
	"P@1", "P@10", "P@50", "P@100",
}

// MethodScores holds one method's output for one round: the query-averaged
// precision curve (index i = precision@(i+1)) and its aggregate metrics.
type MethodScores struct {
	Curve   []float64
	Metrics map[string]float64
}

// queryEval is the scoring output for a single (query, ranking) pair.
type queryEval struct {
	curve  []float64
	ap     float64
	ndcg   float64
	mrr    float64
	recall float64
}

// curveKs is the fixed k grid scored per query, 1..CurveLen.
var curveKs = func() []int {
	ks := make([]int, CurveLen)
	for i := range ks {
		ks[i] = i + 1
	}
	return ks
}()

// scoreQuery evaluates one ranking against one query's ground truth. The
// exclude set is rebuilt from the query on every call so no state leaks
// between queries or rounds.
func scoreQuery(q *dataset.Query, res methods.Result) queryEval {
	filtered := Filter(res.Retrieved, q.ExcludeSet())
	rels := relevances(q.Relevant, filtered)

	return queryEval{
		curve:  PrecisionAtKs(curveKs, q.Relevant, filtered),
		ap:     AveragePrecision(rels),
		ndcg:   NDCG(rels, CurveLen),
		mrr:    MRR(rels),
		recall: Recall(rels, CurveLen, len(q.Relevant)),
	}
}

// ScoreMethod scores one method's retrieval results over the full query set
// and reduces them to a mean curve plus aggregate metrics. Per-query scoring
// fans out over a bounded worker pool; any failure aborts the whole batch.
// The reduction iterates queries in sorted-ID order so aggregate statistics
// are byte-for-byte reproducible.
func ScoreMethod(ctx context.Context, queries map[string]*dataset.Query,
	results map[string]methods.Result, workers int) (MethodScores, error) {

	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	ids := dataset.SortedIDs(queries)
	for _, id := range ids {
		if _, ok := results[id]; !ok {
			return MethodScores{}, errors.DataError(fmt.Sprintf("no retrieval result for query %s", id))
		}
	}

	evals := make([]queryEval, len(ids))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range ids {
		q, res := queries[id], results[id]
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			evals[i] = scoreQuery(q, res)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return MethodScores{}, errors.InternalError("query scoring failed", err)
	}

	n := float64(len(ids))
	scores := MethodScores{
		Curve:   make([]float64, CurveLen),
		Metrics: make(map[string]float64, len(BundleMetrics)),
	}
	for _, ev := range evals {
		for k, v := range ev.curve {
			scores.Curve[k] += v
		}
		scores.Metrics[MetricMAP] += ev.ap
		scores.Metrics[MetricNDCG] += ev.ndcg
		scores.Metrics[MetricMRR] += ev.mrr
		scores.Metrics[MetricRecall] += ev.recall
	}
	for k := range scores.Curve {
		scores.Curve[k] /= n
	}
	for name := range scores.Metrics {
		scores.Metrics[name] /= n
	}

	// Spot precisions come off the averaged curve, not a separate pass.
	for _, k := range []int{1, 10, 50, 100} {
		scores.Metrics[fmt.Sprintf("P@%d", k)] = scores.Curve[k-1]
	}

	return scores, nil
}
