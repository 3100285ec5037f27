package domain

import "time"

// Sentiment is the categorical mood of the user side of a conversation.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// AnalysisResult is the single live score record of a conversation.
// Every *Score field lies in [0,1]; ResponseTimeAvg is seconds.
type AnalysisResult struct {
	ConversationID    string    `json:"conversation_id"`
	ClarityScore      float64   `json:"clarity_score"`
	RelevanceScore    float64   `json:"relevance_score"`
	Sentiment         Sentiment `json:"sentiment"`
	EmpathyScore      float64   `json:"empathy_score"`
	AccuracyScore     float64   `json:"accuracy_score"`
	CompletenessScore float64   `json:"completeness_score"`
	ResponseTimeAvg   float64   `json:"response_time_avg"`
	ResolutionScore   float64   `json:"resolution_score"`
	EscalationNeeded  bool      `json:"escalation_needed"`
	FallbackCount     int       `json:"fallback_count"`
	OverallScore      float64   `json:"overall_score"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}
