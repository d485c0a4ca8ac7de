package methods

import (
	"context"

	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/features"
	"github.com/imagesense/sense-bench/internal/oracle"
)

// Baseline ranks the whole dataset by ascending feature distance to the seed
// image, with no disambiguation. It never calls the selector and serves as
// the reference every other method is compared against.
func Baseline(ctx context.Context, store *features.Store, queries map[string]*dataset.Query,
	_ oracle.Selector, opts Options) (map[string]Result, error) {

	results := make(map[string]Result, len(queries))
	prog := newProgress(opts.Log, len(queries), opts.ShowProgress)

	for _, qid := range dataset.SortedIDs(queries) {
		res, err := baselineRanking(ctx, store, queries[qid], opts.Searcher)
		if err != nil {
			return nil, err
		}
		results[qid] = res
		prog.step(qid)
	}

	return results, nil
}
