// Package ann provides nearest-neighbor search over the image feature space.
package ann

import (
	"context"
	"sort"

	"github.com/imagesense/sense-bench/internal/features"
)

// Neighbor is one search hit, ordered by ascending distance.
type Neighbor struct {
	ID   int64
	Dist float64
}

// Searcher finds the images closest to a query vector.
type Searcher interface {
	// Search returns up to limit neighbors ordered by ascending distance.
	// limit <= 0 returns every image.
	Search(ctx context.Context, vec []float64, limit int) ([]Neighbor, error)
}

// Exact is a brute-force searcher over the in-memory feature store. It is the
// default backend: retrieval is replayed over a fixed dump, so exact distances
// keep rounds comparable.
type Exact struct {
	store *features.Store
}

// NewExact creates an exact searcher over the given store.
func NewExact(store *features.Store) *Exact {
	return &Exact{store: store}
}

// Search implements Searcher.
func (e *Exact) Search(ctx context.Context, vec []float64, limit int) ([]Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := e.store.IDs()
	neighbors := make([]Neighbor, 0, len(ids))
	for _, id := range ids {
		other, err := e.store.Vector(id)
		if err != nil {
			return nil, err
		}
		neighbors = append(neighbors, Neighbor{ID: id, Dist: features.SqDist(vec, other)})
	}

	sort.SliceStable(neighbors, func(a, b int) bool {
		return neighbors[a].Dist < neighbors[b].Dist
	})

	if limit > 0 && limit < len(neighbors) {
		neighbors = neighbors[:limit]
	}
	return neighbors, nil
}
