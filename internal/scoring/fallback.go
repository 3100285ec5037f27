package scoring

import (
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
)

// FallbackCount counts AI messages containing at least one fallback phrase.
func FallbackCount(messages []domain.Message, matcher lexicon.Matcher) int {
	n := 0
	for _, m := range messages {
		if m.IsAI() && matcher.ContainsAny(m.Text) {
			n++
		}
	}
	return n
}
