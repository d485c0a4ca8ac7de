package oracle

import (
	"reflect"
	"testing"

	"github.com/imagesense/sense-bench/internal/dataset"
	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

func testQuery() *dataset.Query {
	return &dataset.Query{
		ID:    "jaguar/10",
		ImgID: 10,
		Relevant: map[int64]struct{}{
			1: {}, 2: {}, 3: {}, 4: {},
		},
	}
}

func TestPrecisionSelector(t *testing.T) {
	q := testQuery()

	tests := []struct {
		name     string
		min      float64
		clusters [][]int64
		want     []int
	}{
		{
			name: "threshold filters low precision clusters",
			min:  0.5,
			clusters: [][]int64{
				{1, 2, 100, 101}, // precision 0.5
				{100, 101, 102},  // precision 0
				{1, 2, 3},        // precision 1
			},
			want: []int{2, 0},
		},
		{
			name: "single cluster above threshold",
			min:  0.5,
			clusters: [][]int64{
				{1, 2, 3, 100, 101}, // precision 0.6
			},
			want: []int{0},
		},
		{
			name:     "no clusters",
			min:      0,
			clusters: nil,
			want:     nil,
		},
		{
			name: "all below threshold",
			min:  0.9,
			clusters: [][]int64{
				{1, 100}, // 0.5
			},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PrecisionSelector{MinPrecision: tt.min}.Select(q, tt.clusters)
			if err != nil {
				t.Fatalf("Select() error = %v", err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Select() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPrecisionSelectorTieBreak(t *testing.T) {
	q := testQuery()

	// Both clusters have precision 0.8; with t=0.5 both are retained and the
	// original index order is preserved.
	clusters := [][]int64{
		{1, 2, 3, 4, 100},
		{1, 2, 3, 4, 200},
	}

	got, err := PrecisionSelector{MinPrecision: 0.5}.Select(q, clusters)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	want := []int{0, 1}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Select() = %v, want %v", got, want)
	}
}

func TestPrecisionSelectorEmptyCluster(t *testing.T) {
	q := testQuery()

	_, err := PrecisionSelector{}.Select(q, [][]int64{{1, 2}, {}})
	if err == nil {
		t.Fatal("expected error for empty cluster")
	}
	if !errors.IsData(err) {
		t.Errorf("expected data error, got %v", err)
	}
}

func TestBestSelector(t *testing.T) {
	q := testQuery()

	clusters := [][]int64{
		{100, 101},  // precision 0
		{1, 2, 100}, // precision 2/3
		{1, 2, 3},   // precision 1
	}

	got, err := BestSelector{}.Select(q, clusters)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 1 || got[0] != 2 {
		t.Errorf("Select() = %v, want [2]", got)
	}
}

func TestBestSelectorTiePicksFirst(t *testing.T) {
	q := testQuery()

	clusters := [][]int64{
		{1, 2, 100, 101}, // 0.5
		{3, 4, 200, 201}, // 0.5
	}

	got, err := BestSelector{}.Select(q, clusters)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 1 || got[0] != 0 {
		t.Errorf("Select() = %v, want [0]", got)
	}
}

func TestBestSelectorNoClusters(t *testing.T) {
	got, err := BestSelector{}.Select(testQuery(), nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Select() = %v, want empty", got)
	}
}

func TestPreviewTruncation(t *testing.T) {
	q := testQuery()

	// Full cluster precision is 4/6; the first 2 entries are all irrelevant,
	// so with preview=2 the cluster must be rejected at t=0.5.
	clusters := [][]int64{
		{100, 101, 1, 2, 3, 4},
	}

	sel := Preview(PrecisionSelector{MinPrecision: 0.5}, 2)
	got, err := sel.Select(q, clusters)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Select() = %v, want empty after preview truncation", got)
	}

	// Without truncation the same cluster passes.
	got, err = Preview(PrecisionSelector{MinPrecision: 0.5}, 0).Select(q, clusters)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !reflect.DeepEqual(got, []int{0}) {
		t.Errorf("Select() = %v, want [0]", got)
	}
}

func TestPreviewDoesNotMutateClusters(t *testing.T) {
	q := testQuery()
	clusters := [][]int64{{1, 2, 3, 4}}

	if _, err := Preview(BestSelector{}, 2).Select(q, clusters); err != nil {
		t.Fatal(err)
	}
	if len(clusters[0]) != 4 {
		t.Errorf("input cluster mutated: %v", clusters[0])
	}
}
