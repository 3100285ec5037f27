package scoring

import (
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
)

// ResolutionWindow is how many of the most recent messages are inspected.
const ResolutionWindow = 3

// Resolution is 1 when a user message among the last three messages contains
// a resolution phrase, otherwise 0. AI messages in the window are ignored.
func Resolution(messages []domain.Message, matcher lexicon.Matcher) float64 {
	start := max(0, len(messages)-ResolutionWindow)
	for i := len(messages) - 1; i >= start; i-- {
		if messages[i].IsUser() && matcher.ContainsAny(messages[i].Text) {
			return 1.0
		}
	}
	return 0.0
}
