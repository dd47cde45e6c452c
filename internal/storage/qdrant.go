package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/qdrant/go-client/qdrant"
)

// QdrantStorage keeps summaries and file chunks in two Qdrant collections,
// each with an "openai" and a "local" named vector.
type QdrantStorage struct {
	client   *qdrant.Client
	host     string
	port     int
	localDim int
}

// NewQdrantStorage connects to Qdrant and waits for it to become healthy.
// localDim is the vector size of the self-hosted embedding model.
func NewQdrantStorage(host string, port, localDim int) (*QdrantStorage, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host: host,
		Port: port,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create qdrant client: %w", err)
	}

	storage := &QdrantStorage{
		client:   client,
		host:     host,
		port:     port,
		localDim: localDim,
	}

	ctx := context.Background()
	if err := storage.healthCheckWithRetry(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %v", ErrQdrantUnreachable, err)
	}

	return storage, nil
}

func newBackoff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = 30 * time.Second
	return b
}

func (s *QdrantStorage) healthCheckWithRetry(ctx context.Context) error {
	return backoff.Retry(func() error { return s.Health(ctx) }, backoff.WithContext(newBackoff(), ctx))
}

// Health performs a single health check against Qdrant. A nil storage
// reports ErrQdrantUnreachable.
func (s *QdrantStorage) Health(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrQdrantUnreachable
	}
	result, err := s.client.HealthCheck(ctx)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	if result == nil || result.Title == "" {
		return fmt.Errorf("health check returned invalid response")
	}
	return nil
}

// LocalDimension returns the configured size of "local" vectors.
func (s *QdrantStorage) LocalDimension() int {
	return s.localDim
}

// EnsureCollections creates the summary and chunk collections with their
// payload indexes. Idempotent.
func (s *QdrantStorage) EnsureCollections(ctx context.Context) error {
	existing, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, name := range existing {
		have[name] = true
	}

	indexes := map[string][]string{
		SummaryCollection: {"conversation_id", "user_id", "workspace_id", "status"},
		ChunkCollection:   {"file_id", "user_id"},
	}
	for _, name := range []string{SummaryCollection, ChunkCollection} {
		if have[name] {
			continue
		}
		if err := s.createCollection(ctx, name); err != nil {
			return err
		}
		if err := s.createPayloadIndexes(ctx, name, indexes[name]); err != nil {
			return fmt.Errorf("failed to create payload indexes on %s: %w", name, err)
		}
	}
	return nil
}

func (s *QdrantStorage) createCollection(ctx context.Context, name string) error {
	err := s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfigMap(map[string]*qdrant.VectorParams{
			VectorOpenAI: {
				Size:     OpenAIDimension,
				Distance: qdrant.Distance_Cosine,
			},
			VectorLocal: {
				Size:     uint64(s.localDim),
				Distance: qdrant.Distance_Cosine,
			},
		}),
	})
	if err != nil {
		return fmt.Errorf("failed to create collection %s: %w", name, err)
	}
	return nil
}

func (s *QdrantStorage) createPayloadIndexes(ctx context.Context, collection string, fields []string) error {
	for _, field := range fields {
		_, err := s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: collection,
			FieldName:      field,
			FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		})
		if err != nil {
			return fmt.Errorf("failed to create index for field %s: %w", field, err)
		}
	}
	return nil
}

// ClearCollections drops and recreates both collections.
func (s *QdrantStorage) ClearCollections(ctx context.Context) error {
	for _, name := range []string{SummaryCollection, ChunkCollection} {
		if err := s.client.DeleteCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to delete collection %s: %w", name, err)
		}
	}
	return s.EnsureCollections(ctx)
}

// Close closes the Qdrant client connection.
func (s *QdrantStorage) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

func (s *QdrantStorage) upsertWithRetry(ctx context.Context, collection string, points []*qdrant.PointStruct) error {
	operation := func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: collection,
			Wait:           qdrant.PtrOf(true),
			Points:         points,
		})
		return err
	}
	return backoff.Retry(operation, backoff.WithContext(newBackoff(), ctx))
}

const scrollPageSize = uint32(256)

// scrollAll pages through every point matching filter.
func (s *QdrantStorage) scrollAll(ctx context.Context, collection string, filter *qdrant.Filter, withVectors bool) ([]*qdrant.RetrievedPoint, error) {
	points, err := collectPages(scrollPageSize, func(offset *qdrant.PointId) ([]*qdrant.RetrievedPoint, error) {
		return s.client.Scroll(ctx, &qdrant.ScrollPoints{
			CollectionName: collection,
			Filter:         filter,
			Limit:          qdrant.PtrOf(scrollPageSize),
			Offset:         offset,
			WithPayload:    qdrant.NewWithPayload(true),
			WithVectors:    qdrant.NewWithVectors(withVectors),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scroll %s: %w", collection, err)
	}
	return points, nil
}

// collectPages drains a scroll. Qdrant treats the offset as inclusive, so
// every page after the first starts with the point that ended the previous
// one; that point is dropped.
func collectPages(pageSize uint32, fetch func(offset *qdrant.PointId) ([]*qdrant.RetrievedPoint, error)) ([]*qdrant.RetrievedPoint, error) {
	var (
		all    []*qdrant.RetrievedPoint
		offset *qdrant.PointId
	)
	for {
		page, err := fetch(offset)
		if err != nil {
			return nil, err
		}
		full := uint32(len(page)) >= pageSize
		if offset != nil && len(page) > 0 && samePoint(page[0].Id, offset) {
			page = page[1:]
		}
		all = append(all, page...)
		if !full || len(page) == 0 {
			return all, nil
		}
		offset = page[len(page)-1].Id
	}
}

func samePoint(a, b *qdrant.PointId) bool {
	if a.GetUuid() != "" || b.GetUuid() != "" {
		return a.GetUuid() == b.GetUuid()
	}
	return a.GetNum() == b.GetNum()
}

// CollectionInfo contains collection statistics.
type CollectionInfo struct {
	PointsCount uint64
}

// GetCollectionInfo returns the point count of a collection.
func (s *QdrantStorage) GetCollectionInfo(ctx context.Context, collection string) (*CollectionInfo, error) {
	info, err := s.client.GetCollectionInfo(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection %s: %w", collection, err)
	}
	return &CollectionInfo{PointsCount: info.GetPointsCount()}, nil
}

// namedVectors builds the point vectors, leaving out empty slots.
func namedVectors(openai, local []float32) *qdrant.Vectors {
	vectors := map[string]*qdrant.Vector{}
	if len(openai) > 0 {
		vectors[VectorOpenAI] = qdrant.NewVector(openai...)
	}
	if len(local) > 0 {
		vectors[VectorLocal] = qdrant.NewVector(local...)
	}
	return qdrant.NewVectorsMap(vectors)
}

// readVectors extracts the named vectors of a retrieved point.
func readVectors(v *qdrant.VectorsOutput) (openai, local []float32) {
	named := v.GetVectors().GetVectors()
	return vectorData(named[VectorOpenAI]), vectorData(named[VectorLocal])
}

func vectorData(v *qdrant.VectorOutput) []float32 {
	if v == nil {
		return nil
	}
	if dense := v.GetDense(); dense != nil {
		return dense.GetData()
	}
	return v.GetData()
}

func (s *QdrantStorage) checkDimensions(openai, local []float32) error {
	if len(openai) > 0 && len(openai) != OpenAIDimension {
		return fmt.Errorf("%w: openai vector has %d dimensions, expected %d",
			ErrDimensionMismatch, len(openai), OpenAIDimension)
	}
	if len(local) > 0 && len(local) != s.localDim {
		return fmt.Errorf("%w: local vector has %d dimensions, expected %d",
			ErrDimensionMismatch, len(local), s.localDim)
	}
	return nil
}
