package evaluation

import (
	"math"
	"reflect"
	"testing"
)

func TestFilterRemovesExcluded(t *testing.T) {
	retrieved := []int64{100, 1, 50, 2, 60}
	exclude := map[int64]struct{}{100: {}}

	got := Filter(retrieved, exclude)
	want := []int64{1, 50, 2, 60}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Filter() = %v, want %v", got, want)
	}
}

// The seed image is removed before ranks are assigned: with relevant {1,2,3}
// and ranking [seed, 1, 50, 2, 60] the filtered sequence is [1, 50, 2, 60],
// giving P@1 = 1.0, P@2 = 0.5, P@4 = 0.5.
func TestPrecisionAtKsSeedExcluded(t *testing.T) {
	relevant := map[int64]struct{}{1: {}, 2: {}, 3: {}}
	filtered := Filter([]int64{100, 1, 50, 2, 60}, map[int64]struct{}{100: {}})

	got := PrecisionAtKs([]int{1, 2, 4}, relevant, filtered)
	want := []float64{1.0, 0.5, 0.5}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PrecisionAtKs() = %v, want %v", got, want)
	}
}

// Positions past the end of the ranking count as non-relevant; the
// denominator stays the full k.
func TestPrecisionAtKsShortRanking(t *testing.T) {
	relevant := map[int64]struct{}{1: {}, 2: {}}
	filtered := []int64{1, 2}

	got := PrecisionAtKs([]int{2, 4, 10}, relevant, filtered)
	want := []float64{1.0, 0.5, 0.2}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PrecisionAtKs() = %v, want %v", got, want)
	}
}

func TestPrecisionAtKsBounds(t *testing.T) {
	relevant := map[int64]struct{}{1: {}}
	filtered := []int64{1, 2, 3}

	ks := make([]int, CurveLen)
	for i := range ks {
		ks[i] = i + 1
	}
	for i, p := range PrecisionAtKs(ks, relevant, filtered) {
		if p < 0 || p > 1 {
			t.Errorf("precision@%d = %v, outside [0,1]", i+1, p)
		}
	}
}

func TestAveragePrecision(t *testing.T) {
	tests := []struct {
		name string
		rels []int
		want float64
	}{
		{"all relevant", []int{1, 1}, 1.0},
		{"none relevant", []int{0, 0, 0}, 0},
		{"mixed", []int{1, 0, 1}, (1.0 + 2.0/3.0) / 2},
		{"empty", nil, 0},
	}

	for _, tt := range tests {
		if got := AveragePrecision(tt.rels); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("%s: AveragePrecision(%v) = %v, want %v", tt.name, tt.rels, got, tt.want)
		}
	}
}

func TestMRR(t *testing.T) {
	tests := []struct {
		rels []int
		want float64
	}{
		{[]int{1, 0, 0}, 1.0},
		{[]int{0, 0, 1}, 1.0 / 3.0},
		{[]int{0, 0, 0}, 0},
		{nil, 0},
	}

	for _, tt := range tests {
		if got := MRR(tt.rels); got != tt.want {
			t.Errorf("MRR(%v) = %v, want %v", tt.rels, got, tt.want)
		}
	}
}

func TestNDCG(t *testing.T) {
	// Relevant at ranks 1 and 3: DCG = 1 + 1/log2(4), ideal = 1 + 1/log2(3).
	rels := []int{1, 0, 1}
	want := (1.0 + 1.0/math.Log2(4)) / (1.0 + 1.0/math.Log2(3))
	if got := NDCG(rels, 100); math.Abs(got-want) > 1e-12 {
		t.Errorf("NDCG() = %v, want %v", got, want)
	}

	if got := NDCG([]int{1, 1}, 100); got != 1.0 {
		t.Errorf("NDCG() for ideal ranking = %v, want 1.0", got)
	}
	if got := NDCG([]int{0, 0}, 100); got != 0 {
		t.Errorf("NDCG() with no relevant = %v, want 0", got)
	}
	if got := NDCG(nil, 100); got != 0 {
		t.Errorf("NDCG() on empty ranking = %v, want 0", got)
	}
}

func TestRecall(t *testing.T) {
	rels := []int{1, 0, 1}

	if got := Recall(rels, 100, 4); got != 0.5 {
		t.Errorf("Recall() = %v, want 0.5", got)
	}
	if got := Recall(rels, 1, 4); got != 0.25 {
		t.Errorf("Recall@1 = %v, want 0.25", got)
	}
	if got := Recall(rels, 100, 0); got != 0 {
		t.Errorf("Recall() with empty relevant set = %v, want 0", got)
	}
}
