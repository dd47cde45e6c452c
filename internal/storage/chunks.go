package storage

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

const chunkBatchSize = 100

// UpsertChunks stores chunks in batches of 100.
func (s *QdrantStorage) UpsertChunks(ctx context.Context, chunks []*ChunkRecord) error {
	if len(chunks) == 0 {
		return nil
	}

	for i, chunk := range chunks {
		if err := s.checkDimensions(chunk.OpenAIEmbedding, chunk.LocalEmbedding); err != nil {
			return fmt.Errorf("chunk %d: %w", i, err)
		}
	}

	for i := 0; i < len(chunks); i += chunkBatchSize {
		end := min(i+chunkBatchSize, len(chunks))

		points := make([]*qdrant.PointStruct, 0, end-i)
		for _, chunk := range chunks[i:end] {
			points = append(points, chunkPoint(chunk))
		}

		if err := s.upsertWithRetry(ctx, ChunkCollection, points); err != nil {
			return fmt.Errorf("failed to upsert batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// ListChunks returns the chunks of the given files owned by userID, with vectors.
func (s *QdrantStorage) ListChunks(ctx context.Context, userID string, fileIDs []string) ([]*ChunkRecord, error) {
	if len(fileIDs) == 0 {
		return nil, nil
	}
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("user_id", userID),
			qdrant.NewMatchKeywords("file_id", fileIDs...),
		},
	}

	points, err := s.scrollAll(ctx, ChunkCollection, filter, true)
	if err != nil {
		return nil, err
	}

	out := make([]*ChunkRecord, 0, len(points))
	for _, p := range points {
		openai, local := readVectors(p.Vectors)
		out = append(out, &ChunkRecord{
			ID:              p.Id.GetUuid(),
			FileID:          p.Payload["file_id"].GetStringValue(),
			UserID:          p.Payload["user_id"].GetStringValue(),
			Index:           int(p.Payload["chunk_index"].GetIntegerValue()),
			HeaderPath:      p.Payload["header_path"].GetStringValue(),
			Content:         p.Payload["content"].GetStringValue(),
			TokenCount:      int(p.Payload["token_count"].GetIntegerValue()),
			OpenAIEmbedding: openai,
			LocalEmbedding:  local,
		})
	}
	return out, nil
}

// FileOwnedByOther reports whether fileID already has chunks stored for a
// user other than userID.
func (s *QdrantStorage) FileOwnedByOther(ctx context.Context, userID, fileID string) (bool, error) {
	points, err := s.client.Scroll(ctx, &qdrant.ScrollPoints{
		CollectionName: ChunkCollection,
		Filter: &qdrant.Filter{
			Must:    []*qdrant.Condition{qdrant.NewMatch("file_id", fileID)},
			MustNot: []*qdrant.Condition{qdrant.NewMatch("user_id", userID)},
		},
		Limit: qdrant.PtrOf(uint32(1)),
	})
	if err != nil {
		return false, fmt.Errorf("failed to check owner of %s: %w", fileID, err)
	}
	return len(points) > 0, nil
}

// DeleteStaleChunks removes the chunks of a user's file whose IDs are not in
// keep. Called after the new chunks of a re-ingest are stored.
func (s *QdrantStorage) DeleteStaleChunks(ctx context.Context, userID, fileID string, keep []string) error {
	filter := &qdrant.Filter{
		Must: []*qdrant.Condition{
			qdrant.NewMatch("file_id", fileID),
			qdrant.NewMatch("user_id", userID),
		},
	}
	if len(keep) > 0 {
		ids := make([]*qdrant.PointId, 0, len(keep))
		for _, id := range keep {
			ids = append(ids, qdrant.NewIDUUID(id))
		}
		filter.MustNot = []*qdrant.Condition{qdrant.NewHasID(ids...)}
	}

	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: ChunkCollection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelectorFilter(filter),
	})
	if err != nil {
		return fmt.Errorf("failed to delete stale chunks of %s: %w", fileID, err)
	}
	return nil
}

func chunkPoint(chunk *ChunkRecord) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(chunk.ID),
		Vectors: namedVectors(chunk.OpenAIEmbedding, chunk.LocalEmbedding),
		Payload: qdrant.NewValueMap(map[string]any{
			"file_id":     chunk.FileID,
			"user_id":     chunk.UserID,
			"chunk_index": chunk.Index,
			"header_path": chunk.HeaderPath,
			"content":     chunk.Content,
			"token_count": chunk.TokenCount,
		}),
	}
}
