// Package history persists per-run metric results so successive benchmark
// runs can be compared over time.
package history

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/imagesense/sense-bench/internal/config"
	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

// Point is one recorded metric value from a past run.
type Point struct {
	RunID     string
	Timestamp time.Time
	Value     float64
}

// Store persists run metrics keyed by (method, metric).
type Store interface {
	// Save records every metric of a finished run. metrics maps
	// method name -> metric name -> value.
	Save(ctx context.Context, runID string, ts time.Time, metrics map[string]map[string]float64) error

	// Load returns recorded values for one method and metric since the
	// given time, oldest first.
	Load(ctx context.Context, method, metric string, since time.Time) ([]Point, error)

	// Close releases resources.
	Close() error
}

// NewStore creates a Store based on the configuration.
func NewStore(cfg config.HistoryConfig) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "memory", "":
		return NewMemoryStore(), nil

	case "redis":
		return NewRedisStore(cfg.RedisURL)

	case "none":
		return nopStore{}, nil

	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unknown history store type: %s", cfg.Type))
	}
}

// nopStore discards everything.
type nopStore struct{}

func (nopStore) Save(context.Context, string, time.Time, map[string]map[string]float64) error {
	return nil
}

func (nopStore) Load(context.Context, string, string, time.Time) ([]Point, error) {
	return nil, nil
}

func (nopStore) Close() error { return nil }
