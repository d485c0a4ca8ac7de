// Package features provides the dense image feature store.
package features

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

// Store holds the dense feature matrix of the dataset, indexable by image ID.
// It is loaded once per run and passed read-only to every method and round.
type Store struct {
	data  *mat.Dense
	index map[int64]int
	ids   []int64
	dim   int
}

// New builds a store from parallel ID and vector slices.
func New(ids []int64, vectors [][]float64) (*Store, error) {
	if len(ids) == 0 {
		return nil, errors.ValidationError("feature dump contains no vectors")
	}
	if len(ids) != len(vectors) {
		return nil, errors.ValidationError(
			fmt.Sprintf("feature dump has %d IDs but %d vectors", len(ids), len(vectors)))
	}

	dim := len(vectors[0])
	if dim == 0 {
		return nil, errors.ValidationError("feature vectors are empty")
	}

	data := mat.NewDense(len(ids), dim, nil)
	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		if len(vectors[i]) != dim {
			return nil, errors.ValidationError(
				fmt.Sprintf("feature vector for image %d has dimension %d, want %d", id, len(vectors[i]), dim))
		}
		if _, dup := index[id]; dup {
			return nil, errors.ValidationError(fmt.Sprintf("duplicate image ID %d in feature dump", id))
		}
		data.SetRow(i, vectors[i])
		index[id] = i
	}

	return &Store{
		data:  data,
		index: index,
		ids:   append([]int64(nil), ids...),
		dim:   dim,
	}, nil
}

// Vector returns the feature vector for an image ID. The returned slice
// aliases the store's backing matrix and must not be modified.
func (s *Store) Vector(id int64) ([]float64, error) {
	row, ok := s.index[id]
	if !ok {
		return nil, errors.DataError(fmt.Sprintf("image ID %d outside the known ID space", id))
	}
	return s.data.RawRowView(row), nil
}

// Has reports whether the store knows the given image ID.
func (s *Store) Has(id int64) bool {
	_, ok := s.index[id]
	return ok
}

// IDs returns the image IDs in load order. The returned slice must not be
// modified.
func (s *Store) IDs() []int64 {
	return s.ids
}

// Len returns the number of images in the store.
func (s *Store) Len() int {
	return len(s.ids)
}

// Dim returns the feature dimensionality.
func (s *Store) Dim() int {
	return s.dim
}

// SqDist returns the squared Euclidean distance between two feature vectors.
func SqDist(a, b []float64) float64 {
	d := floats.Distance(a, b, 2)
	return d * d
}

// CosineSim returns the cosine similarity between two feature vectors.
// Zero vectors have similarity 0.
func CosineSim(a, b []float64) float64 {
	na := floats.Norm(a, 2)
	nb := floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}
