package ann

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/imagesense/sense-bench/internal/features"
	"github.com/imagesense/sense-bench/internal/pkg/errors"
)

const (
	// DefaultQdrantPort is the default Qdrant gRPC port.
	DefaultQdrantPort = 6334

	defaultTimeout = 30 * time.Second
)

// QdrantConfig holds connection settings for the Qdrant backend.
type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
	Timeout    time.Duration
}

// QdrantSearcher performs approximate nearest-neighbor search against a
// Qdrant collection holding the image features. Intended for feature dumps
// too large for exhaustive search; note that approximate results make rounds
// comparable only against the same index.
type QdrantSearcher struct {
	client     *qdrant.Client
	collection string
	timeout    time.Duration
	size       uint64
}

// NewQdrantSearcher connects to Qdrant.
func NewQdrantSearcher(cfg QdrantConfig) (*QdrantSearcher, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultQdrantPort
	}
	if cfg.Collection == "" {
		cfg.Collection = "sense_bench_features"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnavailable, "creating qdrant client", err)
	}

	return &QdrantSearcher{
		client:     client,
		collection: cfg.Collection,
		timeout:    cfg.Timeout,
	}, nil
}

// Index uploads the feature store into the configured collection, recreating
// it if it already exists. Must be called once before Search.
func (s *QdrantSearcher) Index(ctx context.Context, store *features.Store) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return errors.Wrap(errors.CodeUnavailable, "checking collection", err)
	}
	if exists {
		if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
			return errors.Wrap(errors.CodeUnavailable, "dropping stale collection", err)
		}
	}

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(store.Dim()),
			Distance: qdrant.Distance_Euclid,
		}),
	})
	if err != nil {
		return errors.Wrap(errors.CodeUnavailable, "creating collection", err)
	}

	const batchSize = 256
	ids := store.IDs()
	s.size = uint64(len(ids))
	for start := 0; start < len(ids); start += batchSize {
		end := start + batchSize
		if end > len(ids) {
			end = len(ids)
		}

		points := make([]*qdrant.PointStruct, 0, end-start)
		for _, id := range ids[start:end] {
			vec, err := store.Vector(id)
			if err != nil {
				return err
			}
			f32 := make([]float32, len(vec))
			for i, v := range vec {
				f32[i] = float32(v)
			}
			points = append(points, &qdrant.PointStruct{
				Id:      qdrant.NewIDNum(uint64(id)),
				Vectors: qdrant.NewVectors(f32...),
			})
		}

		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
			Wait:           qdrant.PtrOf(true),
		})
		if err != nil {
			return errors.Wrap(errors.CodeUnavailable,
				fmt.Sprintf("upserting points %d-%d", start, end), err)
		}
	}

	return nil
}

// queryLimit resolves the request limit sent to Qdrant. The server applies
// its own small default when a query carries no limit, so a full-ranking
// request (limit <= 0) must ask for the whole collection explicitly.
func (s *QdrantSearcher) queryLimit(limit int) uint64 {
	if limit <= 0 || uint64(limit) > s.size {
		return s.size
	}
	return uint64(limit)
}

// Search implements Searcher.
func (s *QdrantSearcher) Search(ctx context.Context, vec []float64, limit int) ([]Neighbor, error) {
	if limit <= 0 && s.size == 0 {
		return nil, errors.ValidationError("full ranking requested before indexing")
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	f32 := make([]float32, len(vec))
	for i, v := range vec {
		f32[i] = float32(v)
	}

	query := &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQueryDense(f32),
		Limit:          qdrant.PtrOf(s.queryLimit(limit)),
	}

	points, err := s.client.Query(ctx, query)
	if err != nil {
		return nil, errors.Wrap(errors.CodeUnavailable, "qdrant query", err)
	}

	neighbors := make([]Neighbor, 0, len(points))
	for _, p := range points {
		id, err := pointID(p.GetId())
		if err != nil {
			return nil, err
		}
		// Qdrant returns similarity scores; for Euclid the score is the
		// negated distance, so flip it back.
		neighbors = append(neighbors, Neighbor{ID: id, Dist: float64(-p.GetScore())})
	}
	return neighbors, nil
}

// Close releases the underlying connection.
func (s *QdrantSearcher) Close() error {
	return s.client.Close()
}

func pointID(id *qdrant.PointId) (int64, error) {
	switch v := id.GetPointIdOptions().(type) {
	case *qdrant.PointId_Num:
		return int64(v.Num), nil
	case *qdrant.PointId_Uuid:
		n, err := strconv.ParseInt(v.Uuid, 10, 64)
		if err != nil {
			return 0, errors.DataError("non-numeric point ID from qdrant: " + v.Uuid)
		}
		return n, nil
	default:
		return 0, errors.DataError("unknown point ID type from qdrant")
	}
}
