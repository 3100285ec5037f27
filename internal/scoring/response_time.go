package scoring

import "github.com/ashureev/convoscore/internal/domain"

// ResponseTime is the mean delay in seconds between a user message and the AI
// message immediately after it, or 0 when no such pair exists.
func ResponseTime(messages []domain.Message) float64 {
	var delays []float64
	adjacentPairs(messages, func(user, ai domain.Message) {
		delays = append(delays, max(0, ai.Timestamp.Sub(user.Timestamp).Seconds()))
	})
	return mean(delays)
}
