package scoring

import (
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/textutil"
)

// Relevance averages word overlap over every adjacent (user, ai) pair.
func Relevance(messages []domain.Message) float64 {
	var scores []float64
	adjacentPairs(messages, func(user, ai domain.Message) {
		scores = append(scores, WordOverlap(user.Text, ai.Text))
	})
	return mean(scores)
}

// WordOverlap is |A∩B| / max(|A|,|B|) over lower-cased word sets, or 0 when either set is empty.
func WordOverlap(a, b string) float64 {
	setA, setB := textutil.WordSet(a), textutil.WordSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0.0
	}
	common := 0
	for w := range setA {
		if _, ok := setB[w]; ok {
			common++
		}
	}
	return float64(common) / float64(max(len(setA), len(setB)))
}
