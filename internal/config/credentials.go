package config

import "strings"

// Credentials carries the secrets and endpoints for every backend tier.
// Components receive it per call instead of reading the environment, so
// presence or absence of a credential is always explicit.
type Credentials struct {
	OpenAIAPIKey       string
	OpenAIOrganization string

	UseAzure          bool
	AzureAPIKey       string
	AzureEndpoint     string
	AzureEmbeddingsID string

	// LocalEmbeddingBaseURL points at a self-hosted OpenAI-compatible
	// embeddings endpoint (e.g. Ollama at http://localhost:11434/v1).
	LocalEmbeddingBaseURL string
	LocalEmbeddingAPIKey  string

	SummaryAPIKey  string
	SummaryBaseURL string
}

// DefaultSummaryBaseURL is the DeepSeek OpenAI-compatible endpoint.
const DefaultSummaryBaseURL = "https://api.deepseek.com/v1"

// LoadCredentials reads credentials from the environment.
func LoadCredentials() Credentials {
	return Credentials{
		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIOrganization:    getEnv("OPENAI_ORGANIZATION", ""),
		UseAzure:              getEnv("USE_AZURE_OPENAI", "false") == "true",
		AzureAPIKey:           getEnv("AZURE_OPENAI_API_KEY", ""),
		AzureEndpoint:         strings.TrimRight(getEnv("AZURE_OPENAI_ENDPOINT", ""), "/"),
		AzureEmbeddingsID:     getEnv("AZURE_OPENAI_EMBEDDINGS_ID", ""),
		LocalEmbeddingBaseURL: getEnv("LOCAL_EMBEDDING_BASE_URL", ""),
		LocalEmbeddingAPIKey:  getEnv("LOCAL_EMBEDDING_API_KEY", ""),
		SummaryAPIKey:         getEnv("DEEPSEEK_API_KEY", ""),
		SummaryBaseURL:        getEnv("DEEPSEEK_BASE_URL", DefaultSummaryBaseURL),
	}
}

// HasHostedEmbedding reports whether the hosted (OpenAI or Azure) embedding
// tier is usable.
func (c Credentials) HasHostedEmbedding() bool {
	if c.UseAzure {
		return c.AzureAPIKey != "" && c.AzureEmbeddingsID != "" && c.AzureEndpoint != ""
	}
	return c.OpenAIAPIKey != ""
}

// HasLocalEmbedding reports whether a self-hosted embedding endpoint is configured.
func (c Credentials) HasLocalEmbedding() bool {
	return c.LocalEmbeddingBaseURL != ""
}

// HasSummary reports whether the summarization backend has an API key.
func (c Credentials) HasSummary() bool {
	return strings.TrimSpace(c.SummaryAPIKey) != ""
}
