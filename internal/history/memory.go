package history

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps run history in memory. Useful for tests and single runs
// where persistence across processes is not needed.
type MemoryStore struct {
	mu     sync.RWMutex
	points map[string][]Point // "method\x00metric" -> points, append order
}

// NewMemoryStore creates an empty in-memory history store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{points: make(map[string][]Point)}
}

func key(method, metric string) string {
	return method + "\x00" + metric
}

// Save records every metric of a finished run.
func (s *MemoryStore) Save(ctx context.Context, runID string, ts time.Time, metrics map[string]map[string]float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for method, bundle := range metrics {
		for metric, value := range bundle {
			k := key(method, metric)
			s.points[k] = append(s.points[k], Point{
				RunID:     runID,
				Timestamp: ts,
				Value:     value,
			})
		}
	}
	return nil
}

// Load returns recorded values for one method and metric since the given time.
func (s *MemoryStore) Load(ctx context.Context, method, metric string, since time.Time) ([]Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.points[key(method, metric)]
	out := make([]Point, 0, len(all))
	for _, p := range all {
		if !p.Timestamp.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Close releases resources.
func (s *MemoryStore) Close() error { return nil }
