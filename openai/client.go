package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"ai-visibility-service/models"
)

const openAIEndpoint = "https://api.openai.com/v1/responses"

type webSearchTool struct {
	Type string `json:"type"`
}

type responsesRequest struct {
	Model string          `json:"model"`
	Tools []webSearchTool `json:"tools"`
	Input string          `json:"input"`
}

type annotation struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Title string `json:"title"`
}

type contentItem struct {
	Type        string       `json:"type"`
	Text        string       `json:"text"`
	Annotations []annotation `json:"annotations"`
}

type outputItem struct {
	Type    string        `json:"type"`
	Content []contentItem `json:"content"`
}

type usage struct {
	TotalTokens int `json:"total_tokens"`
}

type responsesResponse struct {
	Output []outputItem `json:"output"`
	Usage  *usage       `json:"usage"`
}

// Client calls the OpenAI responses API with the web_search tool.
type Client struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewClient creates a new OpenAI search client. The timeout bounds each
// search call end to end.
func NewClient(apiKey, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:   apiKey,
		model:    model,
		endpoint: openAIEndpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

// SourceName identifies this provider in logs
func (c *Client) SourceName() string {
	return "ChatGPT"
}

// Search runs a prompt with web search enabled and extracts the ordered
// URL citations from the answer.
func (c *Client) Search(ctx context.Context, prompt string) (*models.SearchResult, error) {
	reqBody := responsesRequest{
		Model: c.model,
		Tools: []webSearchTool{{Type: "web_search"}},
		Input: prompt,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(body))
	}

	var searchResp responsesResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	result := &models.SearchResult{Sources: extractSources(searchResp.Output)}
	if searchResp.Usage != nil {
		result.Usage = &models.SearchUsage{TotalTokens: searchResp.Usage.TotalTokens}
	}

	return result, nil
}

// extractSources collects url_citation annotations in answer order,
// dropping repeat URLs so each source keeps its first (best) rank.
func extractSources(output []outputItem) []models.Source {
	var sources []models.Source
	seen := make(map[string]bool)

	for _, item := range output {
		if item.Type != "message" {
			continue
		}
		for _, content := range item.Content {
			for _, ann := range content.Annotations {
				if ann.Type != "url_citation" || ann.URL == "" {
					continue
				}
				if seen[ann.URL] {
					continue
				}
				seen[ann.URL] = true
				sources = append(sources, models.Source{URL: ann.URL, Title: ann.Title})
			}
		}
	}

	return sources
}
