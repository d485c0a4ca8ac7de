package methods

import (
	"context"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"github.com/imagesense/sense-bench/internal/features"
)

// candidate is one top-k baseline hit with its feature vector.
type candidate struct {
	id   int64
	rank int
	dist float64
	vec  []float64
}

// topCandidates materializes the first k baseline results with their vectors.
func topCandidates(ctx context.Context, store *features.Store, base Result, k int) ([]candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	n := len(base.Retrieved)
	if k > 0 && k < n {
		n = k
	}

	cands := make([]candidate, n)
	for i := 0; i < n; i++ {
		vec, err := store.Vector(base.Retrieved[i])
		if err != nil {
			return nil, err
		}
		cands[i] = candidate{
			id:   base.Retrieved[i],
			rank: i,
			dist: base.Scores[i],
			vec:  vec,
		}
	}
	return cands, nil
}

// autoK picks the number of clusters when none is fixed: roughly sqrt(n/2),
// clamped to [2, max].
func autoK(n, fixed, max int) int {
	if fixed > 0 {
		return fixed
	}
	k := int(math.Round(math.Sqrt(float64(n) / 2)))
	if k < 2 {
		k = 2
	}
	if max > 0 && k > max {
		k = max
	}
	if k > n {
		k = n
	}
	return k
}

// kmeans runs Lloyd's algorithm with k-means++ seeding. Returns the cluster
// assignment per candidate and the final centroids. Initialization draws from
// rng, which is what makes the clustering methods stochastic across rounds.
func kmeans(cands []candidate, k int, rng *rand.Rand) ([]int, [][]float64) {
	const maxIter = 100

	if k > len(cands) {
		k = len(cands)
	}

	centroids := seedCentroids(cands, k, rng)
	assign := make([]int, len(cands))

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, c := range cands {
			best, bestDist := 0, math.Inf(1)
			for j, cent := range centroids {
				if d := features.SqDist(c.vec, cent); d < bestDist {
					best, bestDist = j, d
				}
			}
			if assign[i] != best {
				assign[i] = best
				changed = true
			}
		}
		if !changed && iter > 0 {
			break
		}

		counts := make([]int, k)
		for j := range centroids {
			for d := range centroids[j] {
				centroids[j][d] = 0
			}
		}
		for i, c := range cands {
			floats.Add(centroids[assign[i]], c.vec)
			counts[assign[i]]++
		}
		for j := range centroids {
			if counts[j] == 0 {
				// Re-seed an empty centroid on the point farthest from its
				// assigned centroid.
				far, farDist := 0, -1.0
				for i, c := range cands {
					if d := features.SqDist(c.vec, centroids[assign[i]]); d > farDist {
						far, farDist = i, d
					}
				}
				copy(centroids[j], cands[far].vec)
				assign[far] = j
				continue
			}
			floats.Scale(1/float64(counts[j]), centroids[j])
		}
	}

	return assign, centroids
}

// seedCentroids implements k-means++ initialization.
func seedCentroids(cands []candidate, k int, rng *rand.Rand) [][]float64 {
	dim := len(cands[0].vec)
	centroids := make([][]float64, 0, k)

	first := rng.Intn(len(cands))
	centroids = append(centroids, append(make([]float64, 0, dim), cands[first].vec...))

	dists := make([]float64, len(cands))
	for len(centroids) < k {
		total := 0.0
		for i, c := range cands {
			best := math.Inf(1)
			for _, cent := range centroids {
				if d := features.SqDist(c.vec, cent); d < best {
					best = d
				}
			}
			dists[i] = best
			total += best
		}

		var next int
		if total == 0 {
			next = rng.Intn(len(cands))
		} else {
			target := rng.Float64() * total
			cum := 0.0
			for i, d := range dists {
				cum += d
				if cum >= target {
					next = i
					break
				}
			}
		}
		centroids = append(centroids, append(make([]float64, 0, dim), cands[next].vec...))
	}

	return centroids
}

// buildClusters groups candidates by assignment. Members keep baseline order
// inside each cluster, so a preview shows the best-ranked members first.
// Empty clusters are dropped; centroids stay aligned with the returned
// cluster list.
func buildClusters(cands []candidate, assign []int, centroids [][]float64) ([][]int64, [][]float64) {
	k := len(centroids)
	grouped := make([][]int64, k)
	for i, c := range cands {
		grouped[assign[i]] = append(grouped[assign[i]], c.id)
	}

	clusters := make([][]int64, 0, k)
	kept := make([][]float64, 0, k)
	for j, members := range grouped {
		if len(members) == 0 {
			continue
		}
		clusters = append(clusters, members)
		kept = append(kept, centroids[j])
	}
	return clusters, kept
}

// rerankBySelection builds the final ranking after oracle selection: members
// of the selected clusters first (selection order, baseline order within),
// then the remaining candidates, then the untouched tail of the baseline
// ranking. Distances follow the images they score.
func rerankBySelection(base Result, cands []candidate, clusters [][]int64, selection []int) Result {
	distByID := make(map[int64]float64, len(cands))
	for _, c := range cands {
		distByID[c.id] = c.dist
	}

	seen := make(map[int64]struct{}, len(cands))
	out := Result{
		Retrieved: make([]int64, 0, len(base.Retrieved)),
		Scores:    make([]float64, 0, len(base.Retrieved)),
	}

	for _, ci := range selection {
		for _, id := range clusters[ci] {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out.Retrieved = append(out.Retrieved, id)
			out.Scores = append(out.Scores, distByID[id])
		}
	}

	for _, c := range cands {
		if _, dup := seen[c.id]; dup {
			continue
		}
		seen[c.id] = struct{}{}
		out.Retrieved = append(out.Retrieved, c.id)
		out.Scores = append(out.Scores, c.dist)
	}

	for i := len(cands); i < len(base.Retrieved); i++ {
		out.Retrieved = append(out.Retrieved, base.Retrieved[i])
		out.Scores = append(out.Scores, base.Scores[i])
	}

	return out
}
