package convert

import "portico-hq/portico/pkg/eventstream"

// UsageFromBackend maps the backend's usage block to Anthropic-schema
// accounting. The backend frequently omits absolute input counts; the
// estimate then falls back to context-window percentage, and failing
// that to total minus output.
func UsageFromBackend(tu *eventstream.TokenUsage) Usage {
	if tu == nil {
		return Usage{}
	}
	u := Usage{
		OutputTokens:         tu.OutputTokens,
		CacheReadInputTokens: tu.CacheReadInputTokens,
	}
	switch {
	case tu.UncachedInputTokens > 0:
		u.InputTokens = tu.UncachedInputTokens
	case tu.ContextUsagePercentage > 0:
		u.InputTokens = int(tu.ContextUsagePercentage * contextWindowTokens / 100)
	case tu.TotalTokens > tu.OutputTokens:
		u.InputTokens = tu.TotalTokens - tu.OutputTokens
	}
	return u
}
