package memory

// EstimateTokens approximates the token count of a text using the common
// 4-characters-per-token heuristic. It is deliberately cheap; budgets built
// on it are targets, not hard limits enforced by the model API.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	return (len(text) + 3) / 4
}
