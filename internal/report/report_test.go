package report

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/imagesense/sense-bench/internal/evaluation"
)

func sampleSummary() evaluation.Summary {
	curve := make([]float64, evaluation.CurveLen)
	band := make([]float64, evaluation.CurveLen)
	for i := range curve {
		curve[i] = 0.5
		band[i] = 0.05
	}
	return evaluation.Summary{
		Methods: []string{"Baseline", "AID"},
		Rounds:  2,
		Mean: map[string]map[string]float64{
			"Baseline": {"MAP": 0.31, "NDCG": 0.6, "MRR": 0.8, "Recall": 0.5, "P@1": 0.9, "P@10": 0.42, "P@50": 0.3, "P@100": 0.2},
			"AID":      {"MAP": 0.38, "NDCG": 0.65, "MRR": 0.85, "Recall": 0.55, "P@1": 0.95, "P@10": 0.5, "P@50": 0.35, "P@100": 0.22},
		},
		Std: map[string]map[string]float64{
			"Baseline": {"MAP": 0},
			"AID":      {"MAP": 0.01},
		},
		Curve:     map[string][]float64{"Baseline": curve, "AID": curve},
		CurveBand: map[string][]float64{"Baseline": band, "AID": band},
	}
}

func TestTable(t *testing.T) {
	s := sampleSummary()
	var buf bytes.Buffer

	Table(&buf, s.Methods, s.Mean)
	out := buf.String()

	if !strings.Contains(out, "Baseline") || !strings.Contains(out, "AID") {
		t.Errorf("table missing method rows:\n%s", out)
	}
	if !strings.Contains(out, "0.3100") {
		t.Errorf("table missing formatted MAP value:\n%s", out)
	}
	// Method row order must follow the summary, not map iteration.
	if strings.Index(out, "Baseline") > strings.Index(out, "AID") {
		t.Errorf("method rows out of order:\n%s", out)
	}
}

func TestCSV(t *testing.T) {
	s := sampleSummary()
	var buf bytes.Buffer

	if err := CSV(&buf, s.Methods, s.Mean); err != nil {
		t.Fatalf("CSV() error = %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("parsing CSV output: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("CSV has %d rows, want 3 (header + 2 methods)", len(records))
	}
	if records[0][0] != "Method" || records[0][1] != "MAP" {
		t.Errorf("CSV header = %v", records[0])
	}
	if records[1][0] != "Baseline" || records[1][1] != "0.3100" {
		t.Errorf("first data row = %v", records[1])
	}
	if records[2][0] != "AID" {
		t.Errorf("second data row = %v", records[2])
	}
}

func TestPrecisionPlot(t *testing.T) {
	s := sampleSummary()
	path := filepath.Join(t.TempDir(), "precision.png")

	if err := PrecisionPlot(path, s); err != nil {
		t.Fatalf("PrecisionPlot() error = %v", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("plot file not written: %v", err)
	}
	if info.Size() == 0 {
		t.Error("plot file is empty")
	}
}
