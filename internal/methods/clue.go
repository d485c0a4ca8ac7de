package methods

import (
	"context"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/features"
	"github.com/imagesense/sense-bench/internal/oracle"
)

// CLUE partitions the top baseline results into senses by recursive two-way
// normalized-cut bisection of their affinity graph, then promotes the
// oracle-selected cluster(s). Unlike the k-means methods it is deterministic.
//
// Parameters: k (candidate pool size), max_clusters, T (normalized-cut
// threshold; a cluster is only split while the cut value stays below T).
func CLUE(ctx context.Context, store *features.Store, queries map[string]*dataset.Query,
	selector oracle.Selector, opts Options) (map[string]Result, error) {

	poolSize := opts.IntParam("k", 200)
	maxClusters := opts.IntParam("max_clusters", 10)
	threshold := opts.Param("T", 0.3)

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

		clusters := spectralClusters(cands, maxClusters, threshold)

		selection, err := selector.Select(q, clusters)
		if err != nil {
			return nil, err
		}

		results[qid] = rerankBySelection(base, cands, clusters, selection)
		prog.step(qid)
	}

	return results, nil
}

// minSplitSize is the smallest cluster the bisection will try to divide.
const minSplitSize = 4

// spectralClusters builds the affinity graph over the candidates and
// recursively bisects it. Clusters are returned ordered by their best
// baseline rank, members in baseline order.
func spectralClusters(cands []candidate, maxClusters int, threshold float64) [][]int64 {
	if len(cands) == 0 {
		return nil
	}

	affinity := buildAffinity(cands)

	all := make([]int, len(cands))
	for i := range all {
		all[i] = i
	}

	type node struct {
		members []int
		final   bool
	}

	nodes := []node{{members: all}}
	for len(nodes) < maxClusters {
		// Split the largest splittable cluster first.
		target := -1
		for i, nd := range nodes {
			if nd.final || len(nd.members) < minSplitSize {
				continue
			}
			if target < 0 || len(nd.members) > len(nodes[target].members) {
				target = i
			}
		}
		if target < 0 {
			break
		}

		left, right, ncut := bisect(nodes[target].members, affinity)
		if ncut > threshold || len(left) == 0 || len(right) == 0 {
			nodes[target].final = true
			continue
		}

		nodes[target].members = left
		nodes = append(nodes, node{members: right})
	}

	// Candidate indices sort back into baseline order; clusters are then
	// presented best-baseline-rank first.
	for i := range nodes {
		sort.Ints(nodes[i].members)
	}
	sort.SliceStable(nodes, func(a, b int) bool {
		return nodes[a].members[0] < nodes[b].members[0]
	})

	out := make([][]int64, len(nodes))
	for i, nd := range nodes {
		ids := make([]int64, len(nd.members))
		for j, idx := range nd.members {
			ids[j] = cands[idx].id
		}
		out[i] = ids
	}

	return out
}

// buildAffinity computes W_ij = exp(-d_ij^2 / (2 sigma^2)) with sigma set to
// the mean pairwise distance.
func buildAffinity(cands []candidate) *mat.SymDense {
	n := len(cands)
	dist := mat.NewSymDense(n, nil)

	total, count := 0.0, 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := math.Sqrt(features.SqDist(cands[i].vec, cands[j].vec))
			dist.SetSym(i, j, d)
			total += d
			count++
		}
	}

	sigma := 1.0
	if count > 0 && total > 0 {
		sigma = total / float64(count)
	}

	affinity := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		affinity.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			d := dist.At(i, j)
			affinity.SetSym(i, j, math.Exp(-(d*d)/(2*sigma*sigma)))
		}
	}
	return affinity
}

// bisect splits a cluster along the Fiedler vector of its normalized
// Laplacian and reports the normalized-cut value of the split.
func bisect(indices []int, affinity *mat.SymDense) (left, right []int, ncut float64) {
	n := len(indices)

	degree := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			degree[i] += affinity.At(indices[i], indices[j])
		}
	}

	laplacian := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		laplacian.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			w := affinity.At(indices[i], indices[j])
			laplacian.SetSym(i, j, -w/math.Sqrt(degree[i]*degree[j]))
		}
	}

	var eig mat.EigenSym
	if !eig.Factorize(laplacian, true) {
		return indices, nil, math.Inf(1)
	}
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues are ascending; column 1 is the Fiedler vector.
	fiedler := make([]float64, n)
	for i := 0; i < n; i++ {
		fiedler[i] = vectors.At(i, 1)
	}

	for i, idx := range indices {
		if fiedler[i] >= 0 {
			right = append(right, idx)
		} else {
			left = append(left, idx)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return indices, nil, math.Inf(1)
	}

	// Normalized cut: cut(A,B)/assoc(A,V) + cut(A,B)/assoc(B,V).
	inLeft := make(map[int]bool, len(left))
	for _, idx := range left {
		inLeft[idx] = true
	}
	cut, assocLeft, assocRight := 0.0, 0.0, 0.0
	for i := 0; i < n; i++ {
		if inLeft[indices[i]] {
			assocLeft += degree[i]
		} else {
			assocRight += degree[i]
		}
		for j := i + 1; j < n; j++ {
			if inLeft[indices[i]] != inLeft[indices[j]] {
				cut += affinity.At(indices[i], indices[j])
			}
		}
	}
	if assocLeft == 0 || assocRight == 0 {
		return indices, nil, math.Inf(1)
	}

	return left, right, cut/assocLeft + cut/assocRight
}
