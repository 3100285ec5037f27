// Package analysis runs the scoring engine against stored conversations and
// persists the results.
package analysis

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"

	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/metrics"
	"github.com/ashureev/convoscore/internal/scoring"
	"github.com/ashureev/convoscore/internal/shared"
	"github.com/ashureev/convoscore/internal/store"
)

// Triggers label what started an analysis.
const (
	TriggerRequest = "request"
	TriggerSweep   = "sweep"
)

// Service analyzes conversations and upserts their results.
type Service struct {
	repo    store.Repository
	engine  *scoring.Engine
	retry   shared.RetryPolicy
	workers int

	// writeLocks serializes analyses of the same conversation. Conversations
	// are striped over a fixed set of mutexes so the set never grows.
	writeLocks [lockStripes]sync.Mutex
}

const lockStripes = 64

// NewService creates an analysis service. workers bounds sweep parallelism.
func NewService(repo store.Repository, engine *scoring.Engine, workers int) *Service {
	if workers <= 0 {
		workers = 1
	}
	return &Service{
		repo:    repo,
		engine:  engine,
		retry:   shared.DefaultRetryPolicy,
		workers: workers,
	}
}

// Analyze scores the conversation's current messages and replaces any prior
// result. It returns nil, nil when the conversation has no messages; no
// record is written in that case.
func (s *Service) Analyze(ctx context.Context, conversationID string) (*domain.AnalysisResult, error) {
	return s.analyze(ctx, conversationID, TriggerRequest)
}

func (s *Service) analyze(ctx context.Context, conversationID, trigger string) (*domain.AnalysisResult, error) {
	unlock := s.lock(conversationID)
	defer unlock()

	messages, err := s.repo.GetMessages(ctx, conversationID)
	if err != nil {
		metrics.RecordAnalysis(trigger, metrics.OutcomeFailed, 0, false)
		return nil, fmt.Errorf("load messages: %w", err)
	}
	if len(messages) == 0 {
		metrics.RecordAnalysis(trigger, metrics.OutcomeSkipped, 0, false)
		slog.Debug("Conversation has no messages, skipping analysis", "conversation_id", conversationID)
		return nil, nil
	}

	scores := s.engine.Score(messages)

	var stored *domain.AnalysisResult
	err = shared.Retry(ctx, s.retry, "upsert_analysis", func() error {
		var upsertErr error
		stored, upsertErr = s.repo.UpsertAnalysis(ctx, scores.Result(conversationID))
		return upsertErr
	})
	if err != nil {
		metrics.RecordAnalysis(trigger, metrics.OutcomeFailed, 0, false)
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	metrics.RecordAnalysis(trigger, metrics.OutcomeAnalyzed, stored.OverallScore, stored.EscalationNeeded)
	slog.Debug("Conversation analyzed",
		"conversation_id", conversationID,
		"trigger", trigger,
		"messages", len(messages),
		"overall_score", stored.OverallScore,
		"escalation_needed", stored.EscalationNeeded)

	return stored, nil
}

// lock blocks until no other analysis of conversationID is running.
func (s *Service) lock(conversationID string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(conversationID))
	mu := &s.writeLocks[h.Sum32()%lockStripes]
	mu.Lock()
	return mu.Unlock
}
