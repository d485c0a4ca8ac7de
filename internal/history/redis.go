package history

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore persists run history to Redis. Each (method, metric) pair maps
// to a sorted set keyed by run timestamp for efficient range queries.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &RedisStore{
		client: client,
		prefix: "sensebench:history:",
		ttl:    90 * 24 * time.Hour,
	}, nil
}

func (s *RedisStore) key(method, metric string) string {
	return s.prefix + method + ":" + metric
}

// Save records every metric of a finished run. Members carry the run ID so
// two runs producing the same value stay distinct in the set.
func (s *RedisStore) Save(ctx context.Context, runID string, ts time.Time, metrics map[string]map[string]float64) error {
	pipe := s.client.Pipeline()
	score := float64(ts.Unix())
	minScore := time.Now().Add(-s.ttl).Unix()

	for method, bundle := range metrics {
		for metric, value := range bundle {
			k := s.key(method, metric)
			pipe.ZAdd(ctx, k, redis.Z{
				Score:  score,
				Member: fmt.Sprintf("%s|%.6f", runID, value),
			})
			pipe.ZRemRangeByScore(ctx, k, "-inf", fmt.Sprintf("%d", minScore))
		}
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("saving run history: %w", err)
	}
	return nil
}

// Load returns recorded values for one method and metric since the given time.
func (s *RedisStore) Load(ctx context.Context, method, metric string, since time.Time) ([]Point, error) {
	results, err := s.client.ZRangeByScoreWithScores(ctx, s.key(method, metric), &redis.ZRangeBy{
		Min: fmt.Sprintf("%d", since.Unix()),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("loading run history: %w", err)
	}

	points := make([]Point, 0, len(results))
	for _, z := range results {
		member, ok := z.Member.(string)
		if !ok {
			continue
		}
		runID, valueStr, found := strings.Cut(member, "|")
		if !found {
			continue
		}
		value, err := strconv.ParseFloat(valueStr, 64)
		if err != nil {
			// Skip invalid entries
			continue
		}
		points = append(points, Point{
			RunID:     runID,
			Timestamp: time.Unix(int64(z.Score), 0),
			Value:     value,
		})
	}

	return points, nil
}

// SetTTL sets the retention window for recorded runs.
func (s *RedisStore) SetTTL(ttl time.Duration) {
	s.ttl = ttl
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
