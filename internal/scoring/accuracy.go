package scoring

import "github.com/ashureev/convoscore/internal/domain"

// AccuracyPlaceholder is the fixed accuracy reported for every conversation.
const AccuracyPlaceholder = 0.85

// Accuracy is a STUB. It does not inspect the transcript and always returns
// AccuracyPlaceholder; real accuracy needs domain-specific validation of the
// AI answers, which this service does not have.
func Accuracy(_ []domain.Message) float64 {
	return AccuracyPlaceholder
}
