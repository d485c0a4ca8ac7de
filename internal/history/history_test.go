package history

import (
	"context"
	"testing"
	"time"
)

func TestMemoryStore_SaveLoad(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()
	ts1 := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	ts2 := ts1.Add(24 * time.Hour)

	err := s.Save(ctx, "run-1", ts1, map[string]map[string]float64{
		"Baseline": {"MAP": 0.31, "P@10": 0.42},
		"AID":      {"MAP": 0.38},
	})
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if err := s.Save(ctx, "run-2", ts2, map[string]map[string]float64{
		"Baseline": {"MAP": 0.33},
	}); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	points, err := s.Load(ctx, "Baseline", "MAP", time.Time{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(points) != 2 {
		t.Fatalf("Load() returned %d points, want 2", len(points))
	}
	if points[0].RunID != "run-1" || points[0].Value != 0.31 {
		t.Errorf("first point = %+v, want run-1 / 0.31", points[0])
	}
	if points[1].RunID != "run-2" || points[1].Value != 0.33 {
		t.Errorf("second point = %+v, want run-2 / 0.33", points[1])
	}
}

func TestMemoryStore_LoadSince(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	ctx := context.Background()
	old := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	s.Save(ctx, "run-old", old, map[string]map[string]float64{"CLUE": {"MRR": 0.5}})
	s.Save(ctx, "run-new", recent, map[string]map[string]float64{"CLUE": {"MRR": 0.6}})

	points, err := s.Load(ctx, "CLUE", "MRR", recent)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(points) != 1 || points[0].RunID != "run-new" {
		t.Errorf("Load(since) = %+v, want only run-new", points)
	}
}

func TestMemoryStore_LoadUnknown(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	points, err := s.Load(context.Background(), "Baseline", "nope", time.Time{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(points) != 0 {
		t.Errorf("Load() for unknown metric = %v, want empty", points)
	}
}
