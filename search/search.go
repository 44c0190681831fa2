package search

import (
	"context"

	"ai-visibility-service/models"
)

// Client abstracts the AI web-search provider used by the pipeline.
// Implementations must be concurrency-safe if used across goroutines.
type Client interface {
	// Search runs a geo-targeted prompt against the provider and returns
	// the ranked source citations plus token usage.
	Search(ctx context.Context, prompt string) (*models.SearchResult, error)
	// SourceName returns a short provider label for logs (e.g., "ChatGPT").
	SourceName() string
}
