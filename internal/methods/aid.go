package methods

import (
	"context"
	"sort"

	"gonum.org/v1/gonum/floats"

	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/features"
	"github.com/imagesense/sense-bench/internal/oracle"
)

// AID clusters the top baseline results like Hard-Select, but instead of a
// hard promotion it adjusts the distance of every image in the ranking by how
// well its direction from the seed image matches the direction towards the
// selected cluster centroid(s). Images pointing the same way as the chosen
// sense keep their distance; images pointing away are pushed down the
// ranking.
//
// Parameters: k (candidate pool size), n_clusters, max_clusters, gamma
// (adjustment strength; larger values demand a more exact direction match).
func AID(ctx context.Context, store *features.Store, queries map[string]*dataset.Query,
	selector oracle.Selector, opts Options) (map[string]Result, error) {

	poolSize := opts.IntParam("k", 200)
	fixed := opts.IntParam("n_clusters", 0)
	maxClusters := opts.IntParam("max_clusters", 10)
	gamma := opts.Param("gamma", 1.0)

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
		clusters, kept := buildClusters(cands, assign, centroids)

		selection, err := selector.Select(q, clusters)
		if err != nil {
			return nil, err
		}
		if len(selection) == 0 {
			results[qid] = base
			prog.step(qid)
			continue
		}

		seed, err := store.Vector(q.ImgID)
		if err != nil {
			return nil, err
		}

		directions := make([][]float64, len(selection))
		for i, ci := range selection {
			dir := make([]float64, len(seed))
			floats.SubTo(dir, kept[ci], seed)
			directions[i] = dir
		}

		results[qid], err = adjustRanking(store, base, seed, directions, gamma)
		if err != nil {
			return nil, err
		}
		prog.step(qid)
	}

	return results, nil
}

// adjustRanking re-sorts the baseline ranking by direction-adjusted distance.
// The penalty for an image is (1-cos)/2 against the best-matching selected
// direction, scaled by gamma and applied multiplicatively to its distance.
func adjustRanking(store *features.Store, base Result, seed []float64,
	directions [][]float64, gamma float64) (Result, error) {

	type ranked struct {
		id   int64
		dist float64
	}

	adjusted := make([]ranked, len(base.Retrieved))
	offset := make([]float64, len(seed))
	for i, id := range base.Retrieved {
		vec, err := store.Vector(id)
		if err != nil {
			return Result{}, err
		}
		floats.SubTo(offset, vec, seed)

		best := 1.0
		for _, dir := range directions {
			penalty := (1 - features.CosineSim(offset, dir)) / 2
			if penalty < best {
				best = penalty
			}
		}

		adjusted[i] = ranked{
			id:   id,
			dist: base.Scores[i] * (1 + gamma*best),
		}
	}

	sort.SliceStable(adjusted, func(a, b int) bool {
		return adjusted[a].dist < adjusted[b].dist
	})

	out := Result{
		Retrieved: make([]int64, len(adjusted)),
		Scores:    make([]float64, len(adjusted)),
	}
	for i, r := range adjusted {
		out.Retrieved[i] = r.id
		out.Scores[i] = r.dist
	}
	return out, nil
}
