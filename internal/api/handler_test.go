//nolint:revive // "api" package name is intentionally concise for this layer.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashureev/convoscore/internal/analysis"
	"github.com/ashureev/convoscore/internal/domain"
	"github.com/ashureev/convoscore/internal/lexicon"
	"github.com/ashureev/convoscore/internal/scoring"
	"github.com/ashureev/convoscore/internal/store"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

// fakeRepo fails the calls it overrides; everything else panics via the nil
// embedded interface, so a test touching an unexpected method fails loudly.
type fakeRepo struct {
	store.Repository
	pingErr error
	listErr error
}

func (f *fakeRepo) Ping(context.Context) error { return f.pingErr }

func (f *fakeRepo) ListConversations(context.Context) ([]*domain.Conversation, error) {
	return nil, f.listErr
}

func newTestRouter(t *testing.T, repo store.Repository) http.Handler {
	t.Helper()
	svc := analysis.NewService(repo, scoring.NewEngine(lexicon.Default()), 2)
	r := chi.NewRouter()
	NewHealthHandler(repo).RegisterHealth(r)
	NewHandler(repo, svc).RegisterRoutes(r)
	return r
}

func doRequest(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func orderRequest() map[string]interface{} {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	return map[string]interface{}{
		"title": "Order status",
		"messages": []map[string]interface{}{
			{"sender": "user", "text": "Hi, where is my order?", "timestamp": base},
			{"sender": "ai", "text": "Hello! I understand your concern. Let me check the status of your order.", "timestamp": base.Add(2 * time.Second)},
			{"sender": "user", "text": "It was supposed to arrive yesterday.", "timestamp": base.Add(10 * time.Second)},
			{"sender": "ai", "text": "I apologize for the delay. It will arrive tomorrow.", "timestamp": base.Add(15 * time.Second)},
		},
	}
}

func createConversation(t *testing.T, h http.Handler, body interface{}) createConversationResponse {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/api/conversations", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var resp createConversationResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func TestCreateConversationAnalyzesImmediately(t *testing.T) {
	h := newTestRouter(t, store.NewMemory())

	resp := createConversation(t, h, orderRequest())

	require.NotNil(t, resp.Conversation)
	assert.NotEmpty(t, resp.Conversation.ID)
	assert.Len(t, resp.Conversation.Messages, 4)
	require.NotNil(t, resp.Analysis)
	assert.Equal(t, resp.Conversation.ID, resp.Analysis.ConversationID)
	assert.InDelta(t, 3.5, resp.Analysis.ResponseTimeAvg, 1e-9)
	assert.InDelta(t, 0.85, resp.Analysis.AccuracyScore, 1e-9)
	assert.False(t, resp.Analysis.EscalationNeeded)

	w := doRequest(t, h, http.MethodGet, "/api/reports/"+resp.Conversation.ID, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateConversationWithoutMessages(t *testing.T) {
	h := newTestRouter(t, store.NewMemory())

	w := doRequest(t, h, http.MethodPost, "/api/conversations", map[string]interface{}{"title": "Empty"})
	require.Equal(t, http.StatusCreated, w.Code)

	var raw map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	assert.Contains(t, raw, "id")
	assert.Contains(t, raw, "title")
	assert.NotContains(t, raw, "conversation")
	assert.NotContains(t, raw, "analysis")
}

func createEmptyConversation(t *testing.T, h http.Handler, title string) domain.Conversation {
	t.Helper()
	w := doRequest(t, h, http.MethodPost, "/api/conversations", map[string]interface{}{"title": title})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var conv domain.Conversation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&conv))
	require.NotEmpty(t, conv.ID)
	return conv
}

func TestCreateConversationStampsMissingTimestamps(t *testing.T) {
	h := newTestRouter(t, store.NewMemory())
	before := time.Now().UTC().Add(-time.Second)

	resp := createConversation(t, h, map[string]interface{}{
		"title": "No clocks",
		"messages": []map[string]interface{}{
			{"sender": "user", "text": "hello"},
			{"sender": "ai", "text": "hi there"},
		},
	})

	msgs := resp.Conversation.Messages
	require.Len(t, msgs, 2)
	assert.True(t, msgs[0].Timestamp.After(before))
	assert.False(t, msgs[1].Timestamp.Before(msgs[0].Timestamp))
}

func TestCreateConversationRejectsInvalidInput(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		body interface{}
	}{
		{"missing title", map[string]interface{}{"title": "  "}},
		{"unknown sender", map[string]interface{}{
			"title":    "x",
			"messages": []map[string]interface{}{{"sender": "bot", "text": "hi"}},
		}},
		{"timestamps out of order", map[string]interface{}{
			"title": "x",
			"messages": []map[string]interface{}{
				{"sender": "user", "text": "a", "timestamp": base.Add(time.Minute)},
				{"sender": "ai", "text": "b", "timestamp": base},
			},
		}},
		{"not an object", []string{"nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := store.NewMemory()
			h := newTestRouter(t, repo)

			w := doRequest(t, h, http.MethodPost, "/api/conversations", tt.body)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			convs, err := repo.ListConversations(context.Background())
			require.NoError(t, err)
			assert.Empty(t, convs)
		})
	}
}

func TestConversationCRUD(t *testing.T) {
	h := newTestRouter(t, store.NewMemory())
	created := createConversation(t, h, orderRequest())
	id := created.Conversation.ID

	w := doRequest(t, h, http.MethodGet, "/api/conversations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list []domain.Conversation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list, 1)
	assert.Empty(t, list[0].Messages)

	w = doRequest(t, h, http.MethodGet, "/api/conversations/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var got domain.Conversation
	require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
	assert.Len(t, got.Messages, 4)

	w = doRequest(t, h, http.MethodDelete, "/api/conversations/"+id, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, h, http.MethodGet, "/api/conversations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doRequest(t, h, http.MethodGet, "/api/reports/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = doRequest(t, h, http.MethodDelete, "/api/conversations/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAnalyzeConversationEndpoint(t *testing.T) {
	h := newTestRouter(t, store.NewMemory())
	full := createConversation(t, h, orderRequest())
	empty := createEmptyConversation(t, h, "Empty")

	w := doRequest(t, h, http.MethodPost, "/api/conversations/"+full.Conversation.ID+"/analyze", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var result domain.AnalysisResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&result))
	assert.True(t, result.CreatedAt.Equal(full.Analysis.CreatedAt), "created_at must survive re-analysis")
	assert.InDelta(t, full.Analysis.OverallScore, result.OverallScore, 1e-12)

	w = doRequest(t, h, http.MethodPost, "/api/conversations/"+empty.ID+"/analyze", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Could not analyze conversation"}`, w.Body.String())

	w = doRequest(t, h, http.MethodPost, "/api/conversations/missing/analyze", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSweepEndpoint(t *testing.T) {
	repo := store.NewMemory()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for _, id := range []string{"a", "b"} {
		require.NoError(t, repo.CreateConversation(ctx, &domain.Conversation{
			ID: id, Title: id, CreatedAt: base,
			Messages: []domain.Message{
				{Sender: domain.SenderUser, Text: "hello", Timestamp: base},
				{Sender: domain.SenderAI, Text: "hi, how can I help?", Timestamp: base.Add(time.Second)},
			},
		}))
	}
	h := newTestRouter(t, repo)

	w := doRequest(t, h, http.MethodPost, "/api/sweep", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t,
		`{"selected":2,"analyzed":2,"skipped":0,"failed":0,"message":"Analyzed 2 new conversations"}`,
		w.Body.String())

	w = doRequest(t, h, http.MethodGet, "/api/reports", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var reports []domain.AnalysisResult
	require.NoError(t, json.NewDecoder(w.Body).Decode(&reports))
	assert.Len(t, reports, 2)
}

func TestListReportsEmpty(t *testing.T) {
	h := newTestRouter(t, store.NewMemory())
	w := doRequest(t, h, http.MethodGet, "/api/reports", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestListConversationsStoreError(t *testing.T) {
	h := newTestRouter(t, &fakeRepo{listErr: errors.New("disk gone")})
	w := doRequest(t, h, http.MethodGet, "/api/conversations", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantState  string
	}{
		{"healthy", nil, http.StatusOK, "healthy"},
		{"degraded", errors.New("connection refused"), http.StatusServiceUnavailable, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestRouter(t, &fakeRepo{pingErr: tt.pingErr})
			w := doRequest(t, h, http.MethodGet, "/health", nil)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, tt.wantState, body.Status)
		})
	}
}
