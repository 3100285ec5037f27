package scoring

import (
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
)

// empathySaturation is the number of distinct empathy phrases that earns a full score.
const empathySaturation = 3.0

// Empathy averages, over AI messages, the count of distinct empathy phrases divided by 3 and capped at 1.
func Empathy(messages []domain.Message, matcher lexicon.Matcher) float64 {
	var scores []float64
	for _, m := range messages {
		if m.IsAI() {
			scores = append(scores, min(1.0, float64(matcher.CountPresent(m.Text))/empathySaturation))
		}
	}
	return mean(scores)
}
