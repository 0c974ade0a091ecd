// Package vector adapts the Qdrant gRPC client to the store operations the
// indexer and retriever need. Point ids are deterministic UUIDs, so every
// write here is idempotent.
package vector

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/qdrant/go-client/qdrant"

	"github.com/gitrag/gitrag/domain/index"
	"github.com/gitrag/gitrag/domain/search"
	"github.com/gitrag/gitrag/internal/config"
)

// defaultGRPCPort is used when the configured URL carries no port.
const defaultGRPCPort = 6334

// scrollPageSize bounds one scroll page; a logical id maps to a handful of
// points, so one page is always enough for per-chunk lookups.
const scrollPageSize = 1024

// Point is one vector plus its payload, ready for upsert.
type Point struct {
	ID      string
	Vector  []float32
	Payload index.Payload
}

// StoredPoint is a point read back from the store.
type StoredPoint struct {
	ID      string
	Payload index.Payload
}

// Store is a Qdrant-backed vector store bound to one collection.
type Store struct {
	client      *qdrant.Client
	collection  string
	upsertBatch int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewStore connects to Qdrant and binds the given collection.
func NewStore(cfg config.VectorConfig, collection string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	host, port, useTLS, err := parseEndpoint(cfg.URL())
	if err != nil {
		return nil, fmt.Errorf("parse vector store url: %w", err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey(),
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("connect vector store: %w", err)
	}

	return &Store{
		client:      client,
		collection:  collection,
		upsertBatch: cfg.UpsertBatch(),
		timeout:     cfg.Timeout(),
		logger:      logger,
	}, nil
}

func parseEndpoint(raw string) (host string, port int, useTLS bool, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", 0, false, err
	}
	host = u.Hostname()
	if host == "" {
		host = raw
	}
	port = defaultGRPCPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, err
		}
	}
	return host, port, u.Scheme == "https", nil
}

// Collection returns the bound collection name.
func (s *Store) Collection() string { return s.collection }

func (s *Store) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// EnsureCollection creates the collection with cosine distance when it does
// not exist yet. Safe to call repeatedly.
func (s *Store) EnsureCollection(ctx context.Context, dim int) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("check collection %s: %w", s.collection, err)
	}
	if exists {
		return nil
	}

	s.logger.Info("creating collection",
		slog.String("collection", s.collection), slog.Int("dim", dim))

	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dim),
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("create collection %s: %w", s.collection, err)
	}
	return nil
}

// Upsert writes points in batches. Re-upserting an existing point id
// overwrites it in place.
func (s *Store) Upsert(ctx context.Context, points []Point) error {
	for start := 0; start < len(points); start += s.upsertBatch {
		end := start + s.upsertBatch
		if end > len(points) {
			end = len(points)
		}

		batch := make([]*qdrant.PointStruct, 0, end-start)
		for _, p := range points[start:end] {
			payload, err := p.Payload.ToMap()
			if err != nil {
				return fmt.Errorf("encode payload for %s: %w", p.ID, err)
			}
			batch = append(batch, &qdrant.PointStruct{
				Id:      qdrant.NewID(p.ID),
				Vectors: qdrant.NewVectors(p.Vector...),
				Payload: qdrant.NewValueMap(payload),
			})
		}

		opCtx, cancel := s.opCtx(ctx)
		_, err := s.client.Upsert(opCtx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         batch,
			Wait:           qdrant.PtrOf(true),
		})
		cancel()
		if err != nil {
			return fmt.Errorf("upsert %d points: %w", len(batch), err)
		}
	}
	return nil
}

// DemoteLatest clears is_latest on every latest point of a logical id.
func (s *Store) DemoteLatest(ctx context.Context, logicalID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: s.collection,
		Payload:        qdrant.NewValueMap(map[string]any{"is_latest": false}),
		PointsSelector: qdrant.NewPointsSelectorFilter(latestByLogicalFilter(logicalID)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("demote %s: %w", logicalID, err)
	}
	return nil
}

// SetLines patches the line interval on the latest points of a logical id,
// leaving vectors and the rest of the payload untouched.
func (s *Store) SetLines(ctx context.Context, logicalID string, startLine, endLine int) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.client.SetPayload(ctx, &qdrant.SetPayloadPoints{
		CollectionName: s.collection,
		Payload:        qdrant.NewValueMap(map[string]any{"lines": []any{startLine, endLine}}),
		PointsSelector: qdrant.NewPointsSelectorFilter(latestByLogicalFilter(logicalID)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("set lines on %s: %w", logicalID, err)
	}
	return nil
}

// LatestByLogical returns the current latest points of a logical id.
func (s *Store) LatestByLogical(ctx context.Context, logicalID string) ([]StoredPoint, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: s.collection,
		Filter:         latestByLogicalFilter(logicalID),
		Limit:          qdrant.PtrOf(uint32(scrollPageSize)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("scroll %s: %w", logicalID, err)
	}

	out := make([]StoredPoint, 0, len(points))
	for _, p := range points {
		payload, err := index.PayloadFromMap(valueMapToAny(p.Payload))
		if err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		out = append(out, StoredPoint{ID: pointIDString(p.Id), Payload: payload})
	}
	return out, nil
}

// DeleteLatestByLogical removes the latest points of a logical id.
// Historical (demoted) points stay.
func (s *Store) DeleteLatestByLogical(ctx context.Context, logicalID string) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points:         qdrant.NewPointsSelectorFilter(latestByLogicalFilter(logicalID)),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("delete %s: %w", logicalID, err)
	}
	return nil
}

// Search runs a filtered nearest-neighbour query.
func (s *Store) Search(ctx context.Context, vec []float32, limit int, filter search.Filter) ([]search.Hit, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vec...),
		Filter:         buildFilter(filter),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	hits := make([]search.Hit, 0, len(points))
	for _, p := range points {
		payload, err := index.PayloadFromMap(valueMapToAny(p.Payload))
		if err != nil {
			return nil, fmt.Errorf("decode payload: %w", err)
		}
		hits = append(hits, search.NewHit(pointIDString(p.Id), p.Score, payload))
	}
	return hits, nil
}

// DeleteCollection drops the bound collection.
func (s *Store) DeleteCollection(ctx context.Context) error {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	if err := s.client.DeleteCollection(ctx, s.collection); err != nil {
		return fmt.Errorf("delete collection %s: %w", s.collection, err)
	}
	return nil
}

// ListCollections returns all collection names on the server.
func (s *Store) ListCollections(ctx context.Context) ([]string, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return nil, fmt.Errorf("list collections: %w", err)
	}
	return names, nil
}

func latestByLogicalFilter(logicalID string) *qdrant.Filter {
	return &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("logical_id", logicalID),
			qdrant.NewMatchBool("is_latest", true),
		},
	}
}

func pointIDString(id *qdrant.PointId) string {
	if id == nil {
		return ""
	}
	if uuid := id.GetUuid(); uuid != "" {
		return uuid
	}
	return strings.TrimSpace(fmt.Sprintf("%d", id.GetNum()))
}
