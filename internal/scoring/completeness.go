package scoring

import (
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
	"github.com/ashureev/convoscore/internal/textutil"
)

// MinCompleteWords is the word count an AI message needs to pass the length check.
const MinCompleteWords = 20

// Completeness averages three binary checks per AI message: more than one
// sentence, at least 20 words, and any greeting-lexicon phrase anywhere in the text.
func Completeness(messages []domain.Message, greeting lexicon.Matcher) float64 {
	var scores []float64
	for _, m := range messages {
		if !m.IsAI() {
			continue
		}
		passed := 0
		if len(textutil.Sentences(m.Text)) > 1 {
			passed++
		}
		if len(textutil.Fields(m.Text)) >= MinCompleteWords {
			passed++
		}
		if greeting.ContainsAny(m.Text) {
			passed++
		}
		scores = append(scores, float64(passed)/3.0)
	}
	return mean(scores)
}
