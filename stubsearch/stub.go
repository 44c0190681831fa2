package stubsearch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"ai-visibility-service/models"
)

// Client is a deterministic, no-network search stub intended for CI and
// local end-to-end runs. It returns a stable ranked source list per prompt
// so the scoring and report stages exercise real data shapes.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) SourceName() string { return "Stub" }

func (c *Client) Search(ctx context.Context, prompt string) (*models.SearchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sum := sha256.Sum256([]byte(prompt))
	short := hex.EncodeToString(sum[:4])

	return &models.SearchResult{
		Sources: []models.Source{
			{URL: fmt.Sprintf("https://%s.example.org/answer", short), Title: "Stub result"},
			{URL: "https://en.wikipedia.org/wiki/Stub", Title: "Stub encyclopedia entry"},
			{URL: "https://www.reddit.com/r/stub/comments/1", Title: "Stub discussion"},
		},
		Usage: &models.SearchUsage{TotalTokens: 100 + int(sum[0])},
	}, nil
}
