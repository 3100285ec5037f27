// Package scoring turns a conversation transcript into quality scores.
//
// Each dimension is a pure function over the same ordered, read-only message
// slice. Engine wires the lexicon matchers into those functions and collects
// their outputs; it holds no per-call state and is safe for concurrent use.
package scoring

import (
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
)

// Scores holds every dimension computed for one transcript.
type Scores struct {
	Clarity          float64
	Relevance        float64
	Sentiment        domain.Sentiment
	Empathy          float64
	Accuracy         float64
	Completeness     float64
	ResponseTimeAvg  float64
	Resolution       float64
	EscalationNeeded bool
	FallbackCount    int
	Overall          float64
}

// Engine runs all analyzers over a transcript.
type Engine struct {
	empathy     lexicon.Matcher
	resolution  lexicon.Matcher
	frustration lexicon.Matcher
	fallback    lexicon.Matcher
	greeting    lexicon.Matcher
	polarity    *PolarityScorer
}

// NewEngine creates an engine using the given lexicon.
func NewEngine(set lexicon.Set) *Engine {
	return &Engine{
		empathy:     set.Matcher(lexicon.Empathy),
		resolution:  set.Matcher(lexicon.Resolution),
		frustration: set.Matcher(lexicon.Frustration),
		fallback:    set.Matcher(lexicon.Fallback),
		greeting:    set.Matcher(lexicon.Greeting),
		polarity:    NewPolarityScorer(),
	}
}

// Score computes every dimension for messages, which must be ordered by
// timestamp ascending. An empty slice yields zero values and a neutral
// sentiment; callers decide whether that is analyzable.
func (e *Engine) Score(messages []domain.Message) Scores {
	s := Scores{
		Clarity:          Clarity(messages),
		Relevance:        Relevance(messages),
		Sentiment:        Sentiment(messages, e.polarity),
		Empathy:          Empathy(messages, e.empathy),
		Accuracy:         Accuracy(messages),
		Completeness:     Completeness(messages, e.greeting),
		ResponseTimeAvg:  ResponseTime(messages),
		Resolution:       Resolution(messages, e.resolution),
		EscalationNeeded: Escalation(messages, e.frustration),
		FallbackCount:    FallbackCount(messages, e.fallback),
	}
	s.Overall = Overall(s.Clarity, s.Relevance, s.Empathy, s.Accuracy, s.Completeness, s.Resolution)
	return s
}

// Result converts the scores into a result record for conversationID.
// Timestamps are left for the store to assign.
func (s Scores) Result(conversationID string) *domain.AnalysisResult {
	return &domain.AnalysisResult{
		ConversationID:    conversationID,
		ClarityScore:      s.Clarity,
		RelevanceScore:    s.Relevance,
		Sentiment:         s.Sentiment,
		EmpathyScore:      s.Empathy,
		AccuracyScore:     s.Accuracy,
		CompletenessScore: s.Completeness,
		ResponseTimeAvg:   s.ResponseTimeAvg,
		ResolutionScore:   s.Resolution,
		EscalationNeeded:  s.EscalationNeeded,
		FallbackCount:     s.FallbackCount,
		OverallScore:      s.Overall,
	}
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0.0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// adjacentPairs calls fn for every user message immediately followed by an AI message.
func adjacentPairs(messages []domain.Message, fn func(user, ai domain.Message)) {
	for i := 0; i+1 < len(messages); i++ {
		if messages[i].IsUser() && messages[i+1].IsAI() {
			fn(messages[i], messages[i+1])
		}
	}
}
