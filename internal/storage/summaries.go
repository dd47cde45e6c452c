package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// summaryNamespace scopes summary point IDs derived from conversation IDs.
var summaryNamespace = uuid.MustParse("6f1d9c3e-52a4-4c51-9a57-3f0c2e1b8d47")

// SummaryPointID returns the point ID of the summary for conversationID.
// The ID is stable, so regenerating a summary overwrites the previous one.
func SummaryPointID(conversationID string) string {
	return uuid.NewSHA1(summaryNamespace, []byte(conversationID)).String()
}

// UpsertSummary writes a summary with its text and whichever embeddings it
// has in a single point upsert. Slots left empty are cleared.
func (s *QdrantStorage) UpsertSummary(ctx context.Context, rec *SummaryRecord) error {
	if rec.ConversationID == "" {
		return fmt.Errorf("summary without conversation id")
	}
	if err := s.checkDimensions(rec.OpenAIEmbedding, rec.LocalEmbedding); err != nil {
		return err
	}

	rec.ID = SummaryPointID(rec.ConversationID)
	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	if rec.Status == "" {
		rec.Status = StatusCompleted
	}

	if err := s.upsertWithRetry(ctx, SummaryCollection, []*qdrant.PointStruct{summaryPoint(rec)}); err != nil {
		return fmt.Errorf("failed to upsert summary for %s: %w", rec.ConversationID, err)
	}
	return nil
}

// GetSummary returns the summary of a conversation, or ErrNotFound.
func (s *QdrantStorage) GetSummary(ctx context.Context, conversationID string) (*SummaryRecord, error) {
	points, err := s.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: SummaryCollection,
		Ids:            []*qdrant.PointId{qdrant.NewIDUUID(SummaryPointID(conversationID))},
		WithPayload:    qdrant.NewWithPayload(true),
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get summary: %w", err)
	}
	if len(points) == 0 {
		return nil, ErrNotFound
	}
	return summaryFromPoint(points[0].Id, points[0].Payload, points[0].Vectors), nil
}

// ListSummaries returns the completed summaries owned by userID, optionally
// restricted to one workspace. Vectors are loaded only when withVectors is set.
func (s *QdrantStorage) ListSummaries(ctx context.Context, userID, workspaceID string, withVectors bool) ([]*SummaryRecord, error) {
	must := []*qdrant.Condition{
		qdrant.NewMatch("user_id", userID),
		qdrant.NewMatch("status", StatusCompleted),
	}
	if workspaceID != "" {
		must = append(must, qdrant.NewMatch("workspace_id", workspaceID))
	}

	points, err := s.scrollAll(ctx, SummaryCollection, &qdrant.Filter{Must: must}, withVectors)
	if err != nil {
		return nil, err
	}

	out := make([]*SummaryRecord, 0, len(points))
	for _, p := range points {
		out = append(out, summaryFromPoint(p.Id, p.Payload, p.Vectors))
	}
	return out, nil
}

// DeleteSummary removes the summary of a conversation. Deleting a missing
// summary is not an error.
func (s *QdrantStorage) DeleteSummary(ctx context.Context, conversationID string) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: SummaryCollection,
		Wait:           qdrant.PtrOf(true),
		Points:         qdrant.NewPointsSelector(qdrant.NewIDUUID(SummaryPointID(conversationID))),
	})
	if err != nil {
		return fmt.Errorf("failed to delete summary for %s: %w", conversationID, err)
	}
	return nil
}

func summaryPoint(rec *SummaryRecord) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(rec.ID),
		Vectors: namedVectors(rec.OpenAIEmbedding, rec.LocalEmbedding),
		Payload: qdrant.NewValueMap(map[string]any{
			"conversation_id": rec.ConversationID,
			"user_id":         rec.UserID,
			"workspace_id":    rec.WorkspaceID,
			"status":          rec.Status,
			"model":           rec.Model,
			"text":            rec.Text,
			"updated_at":      rec.UpdatedAt.UTC().Format(time.RFC3339),
		}),
	}
}

func summaryFromPoint(id *qdrant.PointId, payload map[string]*qdrant.Value, vectors *qdrant.VectorsOutput) *SummaryRecord {
	updatedAt, err := time.Parse(time.RFC3339, payload["updated_at"].GetStringValue())
	if err != nil {
		updatedAt = time.Time{}
	}
	openai, local := readVectors(vectors)

	return &SummaryRecord{
		ID:              id.GetUuid(),
		ConversationID:  payload["conversation_id"].GetStringValue(),
		UserID:          payload["user_id"].GetStringValue(),
		WorkspaceID:     payload["workspace_id"].GetStringValue(),
		Status:          payload["status"].GetStringValue(),
		Model:           payload["model"].GetStringValue(),
		Text:            payload["text"].GetStringValue(),
		OpenAIEmbedding: openai,
		LocalEmbedding:  local,
		UpdatedAt:       updatedAt,
	}
}
