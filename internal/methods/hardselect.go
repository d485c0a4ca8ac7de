package methods

import (
	"context"

	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/features"
	"github.com/imagesense/sense-bench/internal/oracle"
)

// HardSelect clusters the top baseline results with k-means, asks the oracle
// which cluster(s) match the intended sense, and promotes their members to
// the top of the ranking. Images outside the selected clusters keep their
// baseline order behind them.
//
// Parameters: k (candidate pool size), n_clusters (fixed cluster count),
// max_clusters.
func HardSelect(ctx context.Context, store *features.Store, queries map[string]*dataset.Query,
	selector oracle.Selector, opts Options) (map[string]Result, error) {

	poolSize := opts.IntParam("k", 200)
	fixed := opts.IntParam("n_clusters", 0)
	maxClusters := opts.IntParam("max_clusters", 10)

	results := make(map[string]Result, len(queries))
	prog := newProgress(opts.Log, len(queries), opts.ShowProgress)

	for _, qid := range dataset.SortedIDs(queries) {
		q := queries[qid]

		base, err := baselineRanking(ctx, store, q, opts.Searcher)
		if err != nil {
			return nil, err
		}

		cands, err := topCandidates(ctx, store, base, poolSize)
		if err != nil {
			return nil, err
		}

		k := autoK(len(cands), fixed, maxClusters)
		assign, centroids := kmeans(cands, k, opts.Rand)
		clusters, _ := buildClusters(cands, assign, centroids)

		selection, err := selector.Select(q, clusters)
		if err != nil {
			return nil, err
		}

		results[qid] = rerankBySelection(base, cands, clusters, selection)
		prog.step(qid)
	}

	return results, nil
}
