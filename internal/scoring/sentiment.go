package scoring

import "github.com/ashureev/convoscore/internal/domain"

// Polarity thresholds separating the sentiment categories.
const (
	PositiveThreshold = 0.2
	NegativeThreshold = -0.2
)

// Sentiment averages the polarity of user messages and maps it to a category.
// Without user messages the average is 0 (neutral).
func Sentiment(messages []domain.Message, scorer *PolarityScorer) domain.Sentiment {
	return Categorize(AveragePolarity(messages, scorer))
}

// AveragePolarity is the mean polarity over user messages.
func AveragePolarity(messages []domain.Message, scorer *PolarityScorer) float64 {
	var polarities []float64
	for _, m := range messages {
		if m.IsUser() {
			polarities = append(polarities, scorer.Polarity(m.Text))
		}
	}
	return mean(polarities)
}

// Categorize maps a polarity in [-1,1] to a sentiment category.
func Categorize(polarity float64) domain.Sentiment {
	switch {
	case polarity > PositiveThreshold:
		return domain.SentimentPositive
	case polarity < NegativeThreshold:
		return domain.SentimentNegative
	default:
		return domain.SentimentNeutral
	}
}
