package features

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(
		[]int64{1, 2, 3},
		[][]float64{
			{1, 0},
			{0, 1},
			{3, 4},
		},
	)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestStoreLookup(t *testing.T) {
	s := newTestStore(t)

	if s.Len() != 3 {
		t.Errorf("Len() = %d, want 3", s.Len())
	}
	if s.Dim() != 2 {
		t.Errorf("Dim() = %d, want 2", s.Dim())
	}

	vec, err := s.Vector(3)
	if err != nil {
		t.Fatalf("Vector(3) error = %v", err)
	}
	if vec[0] != 3 || vec[1] != 4 {
		t.Errorf("Vector(3) = %v, want [3 4]", vec)
	}
}

func TestStoreUnknownID(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Vector(99)
	if err == nil {
		t.Fatal("expected error for unknown ID")
	}
	if !errors.IsData(err) {
		t.Errorf("expected data error, got %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	tests := []struct {
		name    string
		ids     []int64
		vectors [][]float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []int64{1, 2}, [][]float64{{1}}},
		{"dimension mismatch", []int64{1, 2}, [][]float64{{1, 2}, {3}}},
		{"duplicate id", []int64{1, 1}, [][]float64{{1}, {2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.ids, tt.vectors); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestSqDist(t *testing.T) {
	got := SqDist([]float64{0, 0}, []float64{3, 4})
	if math.Abs(got-25) > 1e-9 {
		t.Errorf("SqDist = %v, want 25", got)
	}
}

func TestCosineSim(t *testing.T) {
	tests := []struct {
		a, b []float64
		want float64
	}{
		{[]float64{1, 0}, []float64{1, 0}, 1},
		{[]float64{1, 0}, []float64{0, 1}, 0},
		{[]float64{1, 0}, []float64{-1, 0}, -1},
		{[]float64{0, 0}, []float64{1, 0}, 0},
	}

	for _, tt := range tests {
		if got := CosineSim(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("CosineSim(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "features.json")
	content := `[{"id": 5, "vector": [1.5, 2.5]}, {"id": 6, "vector": [0.5, 0.25]}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	vec, err := s.Vector(6)
	if err != nil {
		t.Fatal(err)
	}
	if vec[0] != 0.5 || vec[1] != 0.25 {
		t.Errorf("Vector(6) = %v, want [0.5 0.25]", vec)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("features.npy"); err == nil {
		t.Error("expected error for unsupported format")
	}
}
