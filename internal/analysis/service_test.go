package analysis

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
	"github.com/ashureev/convoscore/internal/scoring"
	"github.com/ashureev/convoscore/internal/store"
)

var base = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *store.SQLiteStore) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "analysis.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return NewService(repo, scoring.NewEngine(lexicon.Default()), 4), repo
}

func orderConversation(id string) *domain.Conversation {
	return &domain.Conversation{
		ID:        id,
		Title:     "Customer Support Chat",
		CreatedAt: base,
		Messages: []domain.Message{
			{Sender: domain.SenderUser, Text: "Hi, I need help with my order.", Timestamp: base},
			{Sender: domain.SenderAI, Text: "Sure, can you please share your order ID?", Timestamp: base.Add(5 * time.Second)},
			{Sender: domain.SenderUser, Text: "It's 12345.", Timestamp: base.Add(10 * time.Second)},
			{Sender: domain.SenderAI, Text: "Thanks! Your order has been shipped and will arrive tomorrow.", Timestamp: base.Add(12 * time.Second)},
		},
	}
}

func TestAnalyzeOrderConversation(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateConversation(ctx, orderConversation("c1")))

	result, err := svc.Analyze(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Equal(t, "c1", result.ConversationID)
	assert.InDelta(t, 3.5, result.ResponseTimeAvg, 1e-9)
	assert.Equal(t, 0, result.FallbackCount)
	assert.False(t, result.EscalationNeeded)
	assert.Zero(t, result.ResolutionScore)
	assert.Equal(t, domain.SentimentNeutral, result.Sentiment)
	assert.InDelta(t, 0.85, result.AccuracyScore, 1e-9)

	want := (result.ClarityScore + result.RelevanceScore + result.EmpathyScore +
		result.AccuracyScore + result.CompletenessScore + result.ResolutionScore) / 6
	assert.InDelta(t, want, result.OverallScore, 1e-9)
	assert.False(t, result.CreatedAt.IsZero())

	stored, err := repo.GetAnalysis(ctx, "c1")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, result.OverallScore, stored.OverallScore)
}

func TestAnalyzeEmptyConversationCreatesNothing(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateConversation(ctx, &domain.Conversation{ID: "empty", Title: "Empty", CreatedAt: base}))

	result, err := svc.Analyze(ctx, "empty")
	require.NoError(t, err)
	assert.Nil(t, result)

	stored, err := repo.GetAnalysis(ctx, "empty")
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestAnalyzeIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateConversation(ctx, orderConversation("c1")))

	first, err := svc.Analyze(ctx, "c1")
	require.NoError(t, err)
	second, err := svc.Analyze(ctx, "c1")
	require.NoError(t, err)

	// Scores and creation time match; only the update time may move.
	second.UpdatedAt = first.UpdatedAt
	assert.Equal(t, first, second)

	all, err := repo.ListAnalyses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAnalyzeConcurrentCallsKeepOneResult(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	require.NoError(t, repo.CreateConversation(ctx, orderConversation("c1")))

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.Analyze(ctx, "c1"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent Analyze failed: %v", err)
	}

	all, err := repo.ListAnalyses(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestAnalyzeEscalationFromEarlyMessage(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	conv := &domain.Conversation{ID: "angry", Title: "Angry", CreatedAt: base, Messages: []domain.Message{
		{Sender: domain.SenderUser, Text: "This bot is not helping me", Timestamp: base},
		{Sender: domain.SenderAI, Text: "I'm not sure. I don't know and I can't check.", Timestamp: base.Add(time.Second)},
		{Sender: domain.SenderUser, Text: "ok", Timestamp: base.Add(2 * time.Second)},
		{Sender: domain.SenderAI, Text: "Anything else?", Timestamp: base.Add(3 * time.Second)},
		{Sender: domain.SenderUser, Text: "Thanks, that solved it", Timestamp: base.Add(4 * time.Second)},
	}}
	require.NoError(t, repo.CreateConversation(ctx, conv))

	result, err := svc.Analyze(ctx, "angry")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.EscalationNeeded)
	assert.Equal(t, 1, result.FallbackCount)
	assert.Equal(t, 1.0, result.ResolutionScore)
}

type failingRepo struct {
	store.Repository
	getErr    error
	upsertErr error
	upserts   int
}

func (f *failingRepo) GetMessages(_ context.Context, _ string) ([]domain.Message, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return orderConversation("x").Messages, nil
}

func (f *failingRepo) UpsertAnalysis(_ context.Context, r *domain.AnalysisResult) (*domain.AnalysisResult, error) {
	f.upserts++
	if f.upsertErr != nil && f.upserts < 3 {
		return nil, f.upsertErr
	}
	if f.upsertErr != nil && !errors.Is(f.upsertErr, errBusy) {
		return nil, f.upsertErr
	}
	return r, nil
}

var errBusy = errors.New("database is locked")

func TestAnalyzeReturnsLoadError(t *testing.T) {
	repo := &failingRepo{getErr: errors.New("disk gone")}
	svc := NewService(repo, scoring.NewEngine(lexicon.Default()), 1)

	_, err := svc.Analyze(context.Background(), "x")
	assert.ErrorContains(t, err, "disk gone")
}

func TestAnalyzeRetriesStoreConflicts(t *testing.T) {
	repo := &failingRepo{upsertErr: errBusy}
	svc := NewService(repo, scoring.NewEngine(lexicon.Default()), 1)
	svc.retry.BaseDelay = time.Millisecond

	result, err := svc.Analyze(context.Background(), "x")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 3, repo.upserts)
}

func TestAnalyzeDoesNotRetryOtherErrors(t *testing.T) {
	repo := &failingRepo{upsertErr: errors.New("constraint failed")}
	svc := NewService(repo, scoring.NewEngine(lexicon.Default()), 1)

	_, err := svc.Analyze(context.Background(), "x")
	assert.Error(t, err)
	assert.Equal(t, 1, repo.upserts)
}
