package scoring

import (
	"strings"

	"github.com/ashureev/convoscore/internal/textutil"
)

// negationScope is how many following words a negator flips.
const negationScope = 3

// PolarityScorer assigns a lexical polarity in [-1,1] to a piece of text.
// Sentiment-bearing words carry a signed weight; negators flip and
// intensifiers scale the words that follow them.
type PolarityScorer struct {
	words        map[string]float64
	intensifiers map[string]float64
	negators     map[string]float64
}

// NewPolarityScorer creates a scorer with the built-in English word lists.
func NewPolarityScorer() *PolarityScorer {
	return &PolarityScorer{
		words: map[string]float64{
			"good": 0.7, "great": 0.8, "excellent": 0.9, "amazing": 0.9, "wonderful": 0.8,
			"fantastic": 0.9, "awesome": 0.8, "brilliant": 0.8, "perfect": 0.9, "outstanding": 0.9,
			"love": 0.8, "like": 0.6, "enjoy": 0.7, "happy": 0.8, "pleased": 0.7,
			"satisfied": 0.7, "delighted": 0.8, "glad": 0.7, "helpful": 0.7, "nice": 0.6,
			"thanks": 0.5, "thank": 0.5, "appreciate": 0.6, "easy": 0.5, "fast": 0.4,
			"works": 0.5, "solved": 0.6, "resolved": 0.6, "fixed": 0.5, "success": 0.8,

			"bad": -0.7, "terrible": -0.8, "awful": -0.9, "horrible": -0.9, "disgusting": -0.8,
			"hate": -0.8, "dislike": -0.6, "angry": -0.8, "mad": -0.7, "furious": -0.9,
			"sad": -0.7, "disappointed": -0.7, "upset": -0.7, "frustrated": -0.7, "annoyed": -0.6,
			"annoying": -0.6, "useless": -0.8, "broken": -0.6, "wrong": -0.6, "incorrect": -0.6,
			"problem": -0.5, "issue": -0.4, "slow": -0.4, "late": -0.4, "failure": -0.8,
			"worst": -1.0, "poor": -0.6, "confusing": -0.5, "ridiculous": -0.7, "failed": -0.6,
		},
		intensifiers: map[string]float64{
			"very": 1.3, "extremely": 1.5, "really": 1.2, "quite": 1.1, "rather": 1.1,
			"absolutely": 1.4, "completely": 1.4, "totally": 1.4, "incredibly": 1.5,
			"so": 1.2, "super": 1.3, "particularly": 1.2,
		},
		negators: map[string]float64{
			"not": -1.0, "no": -1.0, "never": -1.0, "nothing": -1.0, "nobody": -1.0,
			"neither": -1.0, "nor": -1.0, "without": -0.8, "barely": -0.7, "hardly": -0.7,
			"don't": -1.0, "doesn't": -1.0, "didn't": -1.0, "isn't": -1.0, "wasn't": -1.0,
			"aren't": -1.0, "can't": -1.0, "cannot": -1.0, "won't": -1.0,
		},
	}
}

// Polarity returns the mean weighted polarity of the sentiment words in text,
// clamped to [-1,1]. Text without sentiment words scores 0.
func (p *PolarityScorer) Polarity(text string) float64 {
	var sum float64
	var count int
	modifier := 1.0
	scope := 0

	for _, raw := range textutil.Fields(strings.ToLower(text)) {
		word := strings.Trim(raw, `.,!?;:"()[]{}…`)
		word = strings.ReplaceAll(word, "’", "'")

		if v, ok := p.negators[word]; ok {
			modifier = v
			scope = negationScope
			continue
		}
		if v, ok := p.intensifiers[word]; ok {
			modifier *= v
			scope = max(scope, 1)
			continue
		}
		if v, ok := p.words[word]; ok {
			sum += v * modifier
			count++
		}

		if scope > 0 {
			scope--
			if scope == 0 {
				modifier = 1.0
			}
		}
		if strings.ContainsAny(raw, ".!?;") {
			modifier = 1.0
			scope = 0
		}
	}

	if count == 0 {
		return 0.0
	}
	return max(-1.0, min(1.0, sum/float64(count)))
}
