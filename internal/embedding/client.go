package embedding

import (
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/azure"
	"github.com/openai/openai-go/option"

	"github.com/mike-a-ellis/chat-memory-mcp/internal/config"
)

const (
	// HostedModel is the OpenAI model used by the hosted tier.
	HostedModel = "text-embedding-3-small"

	// HostedDimension is the vector size of HostedModel.
	HostedDimension = 1536

	// DefaultLocalModel is requested from self-hosted endpoints when no
	// model is configured.
	DefaultLocalModel = "all-minilm"

	azureAPIVersion = "2023-12-01-preview"
	requestTimeout  = 30 * time.Second
	localAPIKey     = "local"
)

// Models names the model requested on each vector tier.
type Models struct {
	Hosted string
	Local  string
}

// NewOpenAIFactory returns a BackendFactory that serves both vector tiers
// with openai-go: the hosted tier against OpenAI or an Azure deployment,
// the local tier against a self-hosted OpenAI-compatible base URL.
func NewOpenAIFactory(models Models) BackendFactory {
	if models.Hosted == "" {
		models.Hosted = HostedModel
	}
	if models.Local == "" {
		models.Local = DefaultLocalModel
	}

	return func(tier Tier, creds config.Credentials) (Backend, error) {
		if !Available(tier, creds) || !tier.IsVector() {
			return nil, fmt.Errorf("%s: %w", tier, ErrUnavailable)
		}

		switch tier {
		case TierOpenAI:
			if creds.UseAzure {
				client := openai.NewClient(
					azure.WithEndpoint(creds.AzureEndpoint, azureAPIVersion),
					azure.WithAPIKey(creds.AzureAPIKey),
					option.WithMaxRetries(0),
					option.WithRequestTimeout(requestTimeout),
				)
				// Azure routes by deployment, so the deployment ID stands in for the model.
				return newOpenAIBackend(client, creds.AzureEmbeddingsID, DefaultBatchSize), nil
			}

			opts := []option.RequestOption{
				option.WithAPIKey(creds.OpenAIAPIKey),
				option.WithMaxRetries(0),
				option.WithRequestTimeout(requestTimeout),
			}
			if creds.OpenAIOrganization != "" {
				opts = append(opts, option.WithOrganization(creds.OpenAIOrganization))
			}
			return newOpenAIBackend(openai.NewClient(opts...), models.Hosted, DefaultBatchSize), nil

		default:
			key := creds.LocalEmbeddingAPIKey
			if key == "" {
				key = localAPIKey
			}
			client := openai.NewClient(
				option.WithBaseURL(creds.LocalEmbeddingBaseURL),
				option.WithAPIKey(key),
				option.WithMaxRetries(0),
				option.WithRequestTimeout(requestTimeout),
			)
			return newOpenAIBackend(client, models.Local, DefaultBatchSize), nil
		}
	}
}
