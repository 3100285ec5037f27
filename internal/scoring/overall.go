package scoring

// Overall is the unweighted mean of the quality dimensions passed in.
// Engine passes clarity, relevance, empathy, accuracy, completeness and
// resolution; sentiment, response time, escalation and fallbacks are
// diagnostic only and never contribute.
func Overall(scores ...float64) float64 {
	return mean(scores)
}
