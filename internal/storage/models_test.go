package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummaryPointID(t *testing.T) {
	a := SummaryPointID("conv-1")
	assert.Equal(t, a, SummaryPointID("conv-1"))
	assert.NotEqual(t, a, SummaryPointID("conv-2"))

	parsed, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), parsed.Version())
}

func TestSummaryPointPayload(t *testing.T) {
	updated := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &SummaryRecord{
		ID:             SummaryPointID("conv-1"),
		ConversationID: "conv-1",
		UserID:         "u1",
		WorkspaceID:    "w1",
		Status:         StatusCompleted,
		Model:          "deepseek-chat",
		Text:           "关键词：a，b，c\n总结：ok",
		UpdatedAt:      updated,
	}

	point := summaryPoint(rec)
	got := summaryFromPoint(point.Id, point.Payload, nil)

	assert.Equal(t, rec, got)
}

func TestNamedVectorsSkipsEmptySlots(t *testing.T) {
	v := namedVectors(nil, []float32{1, 2})
	named := v.GetVectors().GetVectors()
	assert.Len(t, named, 1)
	assert.Contains(t, named, VectorLocal)

	assert.Empty(t, namedVectors(nil, nil).GetVectors().GetVectors())
}

func TestCheckDimensions(t *testing.T) {
	s := &QdrantStorage{localDim: 3}

	assert.NoError(t, s.checkDimensions(nil, nil))
	assert.NoError(t, s.checkDimensions(make([]float32, OpenAIDimension), []float32{1, 2, 3}))
	assert.ErrorIs(t, s.checkDimensions([]float32{1}, nil), ErrDimensionMismatch)
	assert.ErrorIs(t, s.checkDimensions(nil, []float32{1}), ErrDimensionMismatch)
}

// inclusiveScroll serves ids in pages that start at the offset itself, the
// way Qdrant does.
func inclusiveScroll(ids []string, calls *int) func(*qdrant.PointId) ([]*qdrant.RetrievedPoint, error) {
	return func(offset *qdrant.PointId) ([]*qdrant.RetrievedPoint, error) {
		*calls++
		start := 0
		if offset != nil {
			for i, id := range ids {
				if id == offset.GetUuid() {
					start = i
					break
				}
			}
		}
		end := min(start+int(scrollPageSize), len(ids))
		page := make([]*qdrant.RetrievedPoint, 0, end-start)
		for _, id := range ids[start:end] {
			page = append(page, &qdrant.RetrievedPoint{Id: qdrant.NewIDUUID(id)})
		}
		return page, nil
	}
}

func TestCollectPages(t *testing.T) {
	for _, total := range []int{0, 10, 256, 257, 600} {
		ids := make([]string, total)
		for i := range ids {
			ids[i] = uuid.NewString()
		}
		calls := 0

		points, err := collectPages(scrollPageSize, inclusiveScroll(ids, &calls))
		require.NoError(t, err)

		got := make([]string, 0, len(points))
		for _, p := range points {
			got = append(got, p.Id.GetUuid())
		}
		assert.Equal(t, ids, got, "total=%d", total)
		assert.LessOrEqual(t, calls, total/int(scrollPageSize-1)+2, "total=%d", total)
	}
}

func TestCollectPagesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := collectPages(scrollPageSize, func(*qdrant.PointId) ([]*qdrant.RetrievedPoint, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestHealthNilStorage(t *testing.T) {
	var s *QdrantStorage
	assert.ErrorIs(t, s.Health(context.Background()), ErrQdrantUnreachable)
	assert.ErrorIs(t, (&QdrantStorage{}).Health(context.Background()), ErrQdrantUnreachable)
}
