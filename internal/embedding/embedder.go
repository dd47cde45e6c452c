package embedding

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/openai/openai-go"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
)

// DefaultBatchSize keeps one embeddings request well under the API's input limit.
const DefaultBatchSize = 500

// Backend embeds texts on one tier. The result has one vector per input,
// in input order.
type Backend interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// BackendFactory builds the backend for a tier from explicit credentials.
type BackendFactory func(tier Tier, creds config.Credentials) (Backend, error)

type openAIBackend struct {
	client    openai.Client
	model     string
	batchSize int
}

func newOpenAIBackend(client openai.Client, model string, batchSize int) *openAIBackend {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &openAIBackend{client: client, model: model, batchSize: batchSize}
}

// Embed sends texts in sub-batches of batchSize.
func (b *openAIBackend) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	all := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += b.batchSize {
		end := min(i+b.batchSize, len(texts))
		vectors, err := b.embedWithRetry(ctx, texts[i:end])
		if err != nil {
			return nil, fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
		all = append(all, vectors...)
	}
	return all, nil
}

// embedWithRetry retries rate-limited requests with exponential backoff.
// Every other error is permanent.
func (b *openAIBackend) embedWithRetry(ctx context.Context, texts []string) ([][]float32, error) {
	var vectors [][]float32

	operation := func() error {
		resp, err := b.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
			Input: openai.EmbeddingNewParamsInputUnion{
				OfArrayOfStrings: texts,
			},
			Model: openai.EmbeddingModel(b.model),
		})
		if err != nil {
			if isRateLimitError(err) {
				return err
			}
			return backoff.Permanent(err)
		}
		if len(resp.Data) != len(texts) {
			return backoff.Permanent(fmt.Errorf("%w: got %d for %d inputs", ErrEmptyResponse, len(resp.Data), len(texts)))
		}

		data := resp.Data
		sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

		vectors = make([][]float32, len(data))
		for i, d := range data {
			vectors[i] = toFloat32(d.Embedding)
		}
		return nil
	}

	b2 := backoff.NewExponentialBackOff()
	b2.InitialInterval = 500 * time.Millisecond
	b2.MaxInterval = 10 * time.Second
	b2.MaxElapsedTime = 30 * time.Second

	err := backoff.Retry(operation, backoff.WithContext(b2, ctx))
	return vectors, err
}

func isRateLimitError(err error) bool {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}

func toFloat32(f64 []float64) []float32 {
	f32 := make([]float32, len(f64))
	for i, v := range f64 {
		f32[i] = float32(v)
	}
	return f32
}
