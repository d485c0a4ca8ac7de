// Package oracle decides which of a method's candidate clusters represent the
// image sense a user would have picked, using ground-truth relevance as a
// stand-in for user judgment.
package oracle

import (
	"fmt"
	"sort"

	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

// Selector picks acceptable clusters for a query. Implementations are pure
// functions of their inputs and safe for concurrent use.
type Selector interface {
	// Select returns the indices of accepted clusters, best first.
	Select(q *dataset.Query, clusters [][]int64) ([]int, error)
}

// PrecisionSelector retains every cluster whose ground-truth precision reaches
// MinPrecision, ordered by precision descending. Ties keep their original
// index order so selection stays deterministic for deterministic clusterings.
type PrecisionSelector struct {
	MinPrecision float64
}

// Select implements Selector.
func (s PrecisionSelector) Select(q *dataset.Query, clusters [][]int64) ([]int, error) {
	type scored struct {
		index     int
		precision float64
	}

	var retained []scored
	for i, c := range clusters {
		if len(c) == 0 {
			return nil, errors.DataError(
				fmt.Sprintf("empty cluster at index %d for query %s", i, q.ID))
		}
		hits := 0
		for _, id := range c {
			if q.IsRelevant(id) {
				hits++
			}
		}
		precision := float64(hits) / float64(len(c))
		if precision >= s.MinPrecision {
			retained = append(retained, scored{index: i, precision: precision})
		}
	}

	sort.SliceStable(retained, func(a, b int) bool {
		return retained[a].precision > retained[b].precision
	})

	selection := make([]int, len(retained))
	for i, r := range retained {
		selection[i] = r.index
	}
	return selection, nil
}

// BestSelector picks at most the single highest-precision cluster. This is
// the default selection policy.
type BestSelector struct{}

// Select implements Selector.
func (BestSelector) Select(q *dataset.Query, clusters [][]int64) ([]int, error) {
	selection, err := PrecisionSelector{MinPrecision: 0}.Select(q, clusters)
	if err != nil {
		return nil, err
	}
	if len(selection) > 1 {
		selection = selection[:1]
	}
	return selection, nil
}

// previewSelector truncates every cluster to its first n entries before
// delegating, modeling a user who only inspects a limited preview of each
// suggested sense.
type previewSelector struct {
	inner Selector
	n     int
}

// Preview wraps sel so clusters are truncated to their first n entries before
// selection. n <= 0 disables truncation.
func Preview(sel Selector, n int) Selector {
	if n <= 0 {
		return sel
	}
	return previewSelector{inner: sel, n: n}
}

func (p previewSelector) Select(q *dataset.Query, clusters [][]int64) ([]int, error) {
	truncated := make([][]int64, len(clusters))
	for i, c := range clusters {
		if len(c) > p.n {
			c = c[:p.n]
		}
		truncated[i] = c
	}
	return p.inner.Select(q, truncated)
}
