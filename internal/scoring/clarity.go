package scoring

import (
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/textutil"
)

// TargetSentenceLength is the words-per-sentence at or below which an AI message scores full clarity.
const TargetSentenceLength = 20.0

// Clarity scores AI messages by mean sentence length: min(1, 20/mean).
// Messages without any sentence are skipped.
func Clarity(messages []domain.Message) float64 {
	var scores []float64
	for _, m := range messages {
		if !m.IsAI() {
			continue
		}
		sentences := textutil.Sentences(m.Text)
		if len(sentences) == 0 {
			continue
		}
		words := 0
		for _, s := range sentences {
			words += len(textutil.Fields(s))
		}
		avg := float64(words) / float64(len(sentences))
		scores = append(scores, min(1.0, TargetSentenceLength/avg))
	}
	return mean(scores)
}
