package scoring

import (
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
)

// Escalation reports whether any user message in the transcript contains a frustration phrase.
func Escalation(messages []domain.Message, matcher lexicon.Matcher) bool {
	for _, m := range messages {
		if m.IsUser() && matcher.ContainsAny(m.Text) {
			return true
		}
	}
	return false
}
