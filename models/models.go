package models

// QueryRow is one validated row from an uploaded spreadsheet.
type QueryRow struct {
	Country      string `json:"country"`
	Prompt       string `json:"prompt"`
	TargetDomain string `json:"target_domain"`
}

// Source is a single ranked citation returned by the search provider.
// Order within SearchResult.Sources is the provider's ranking.
type Source struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

// SearchUsage carries token accounting for one search call.
type SearchUsage struct {
	TotalTokens int `json:"total_tokens"`
}

// SearchResult is the outcome of one web search for a geo-targeted prompt.
type SearchResult struct {
	Sources []Source     `json:"sources"`
	Usage   *SearchUsage `json:"usage,omitempty"`
}

// VisibilityMetrics is the scoring record produced for one query row.
// Position is 1-based and nil when the target never appears in the sources.
type VisibilityMetrics struct {
	OriginalPrompt    string   `json:"original_prompt"`
	GeoPrompt         string   `json:"geo_prompt"`
	TargetDomain      string   `json:"target_domain"`
	Country           string   `json:"country"`
	Position          *int     `json:"position,omitempty"`
	Mentioned         bool     `json:"mentioned"`
	AIVScore          int      `json:"aiv_score"`
	CompetitorDomains []string `json:"competitor_domains"`
	TokensUsed        *int     `json:"tokens_used,omitempty"`
	Error             string   `json:"error,omitempty"`
}

// SubmitResponse is returned to the uploader once a job is accepted.
type SubmitResponse struct {
	OK      bool   `json:"ok"`
	Email   string `json:"email"`
	Status  string `json:"status"`
	Message string `json:"message"`
}
