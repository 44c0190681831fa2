package visibility

import (
	"strings"

	"ai-visibility-service/models"
)

// Scoring weights for the AIV score. The score rewards presence and early
// rank and penalizes the number of distinct competitor domains ranked above
// the target; the result is always clamped to [0, 100].
const (
	presenceWeight       = 40
	rankBonusNumerator   = 50
	competitorPenalty    = 5
	competitorPenaltyCap = 30
	unmentionedBase      = 10
)

// Score evaluates how visible targetDomain is among the ranked sources.
// The returned record carries position, mention flag, competitor domains and
// the AIV score; the caller fills in prompt and token accounting.
func Score(sources []models.Source, targetDomain, country string) models.VisibilityMetrics {
	target := strings.ToLower(strings.TrimSpace(targetDomain))

	metrics := models.VisibilityMetrics{
		TargetDomain:      target,
		Country:           country,
		CompetitorDomains: []string{},
	}

	seen := make(map[string]bool)
	for i, source := range sources {
		host := hostOf(source.URL)
		if host == "" {
			continue
		}

		if matchesDomain(host, target) {
			position := i + 1
			metrics.Position = &position
			metrics.Mentioned = true
			break
		}

		if !seen[host] {
			seen[host] = true
			metrics.CompetitorDomains = append(metrics.CompetitorDomains, host)
		}
	}

	metrics.AIVScore = computeScore(metrics.Mentioned, metrics.Position, len(metrics.CompetitorDomains))
	return metrics
}

// computeScore combines presence, inverse-rank bonus and a competitor
// penalty into a 0-100 score. Monotonically non-increasing in position for
// a fixed mention outcome; a mentioned row always outscores an unmentioned
// row with the same competitor count.
func computeScore(mentioned bool, position *int, competitors int) int {
	penalty := competitors * competitorPenalty
	if penalty > competitorPenaltyCap {
		penalty = competitorPenaltyCap
	}

	score := unmentionedBase - penalty
	if mentioned && position != nil {
		score = presenceWeight + rankBonusNumerator / *position - penalty
	}

	return clamp(score, 0, 100)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// hostOf extracts a normalized host (no scheme, no www., no port, no path)
// from a source URL.
func hostOf(rawURL string) string {
	host := strings.ToLower(strings.TrimSpace(rawURL))
	if host == "" {
		return ""
	}

	if idx := strings.Index(host, "://"); idx != -1 {
		host = host[idx+3:]
	}
	host = strings.TrimPrefix(host, "www.")

	for _, sep := range []string{"/", "?", "#"} {
		if idx := strings.Index(host, sep); idx != -1 {
			host = host[:idx]
		}
	}

	if idx := strings.Index(host, ":"); idx != -1 {
		host = host[:idx]
	}

	return host
}

// matchesDomain reports whether host equals the target domain or is one of
// its subdomains.
func matchesDomain(host, target string) bool {
	if target == "" {
		return false
	}
	return host == target || strings.HasSuffix(host, "."+target)
}
