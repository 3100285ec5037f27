package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/ashureev/convoscore/internal/domain"
)

// MemoryStore implements Repository in process memory. Data is lost on exit.
type MemoryStore struct {
	mu            sync.RWMutex
	conversations map[string]*domain.Conversation
	analyses      map[string]*domain.AnalysisResult
	nextMessageID int64
	now           func() time.Time
}

// NewMemory creates an empty in-memory repository.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		conversations: make(map[string]*domain.Conversation),
		analyses:      make(map[string]*domain.AnalysisResult),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateConversation stores a copy of conv and assigns message IDs.
func (s *MemoryStore) CreateConversation(_ context.Context, conv *domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.conversations[conv.ID]; exists {
		return ErrConflict
	}
	for i := range conv.Messages {
		s.nextMessageID++
		conv.Messages[i].ID = s.nextMessageID
		conv.Messages[i].ConversationID = conv.ID
	}
	s.conversations[conv.ID] = copyConversation(conv, true)
	return nil
}

// GetConversation returns a copy of the conversation with its messages.
func (s *MemoryStore) GetConversation(_ context.Context, id string) (*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[id]
	if !ok {
		return nil, nil
	}
	out := copyConversation(conv, true)
	sortMessages(out.Messages)
	return out, nil
}

// ListConversations returns all conversations, newest first.
func (s *MemoryStore) ListConversations(_ context.Context) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Conversation
	for _, conv := range s.conversations {
		out = append(out, copyConversation(conv, false))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// ListUnanalyzedConversations returns conversations lacking an analysis, oldest first.
func (s *MemoryStore) ListUnanalyzedConversations(_ context.Context) ([]*domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.Conversation
	for id, conv := range s.conversations {
		if _, done := s.analyses[id]; !done {
			out = append(out, copyConversation(conv, false))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// DeleteConversation removes a conversation and its analysis.
func (s *MemoryStore) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[id]; !ok {
		return ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.analyses, id)
	return nil
}

// GetMessages returns the conversation's messages ordered by timestamp.
func (s *MemoryStore) GetMessages(_ context.Context, conversationID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok || len(conv.Messages) == 0 {
		return nil, nil
	}
	msgs := append([]domain.Message(nil), conv.Messages...)
	sortMessages(msgs)
	return msgs, nil
}

// UpsertAnalysis replaces or inserts the analysis keyed by conversation ID.
func (s *MemoryStore) UpsertAnalysis(_ context.Context, r *domain.AnalysisResult) (*domain.AnalysisResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.conversations[r.ConversationID]; !ok {
		return nil, ErrNotFound
	}

	now := s.now()
	stored := *r
	stored.CreatedAt = now
	stored.UpdatedAt = now
	if prev, ok := s.analyses[r.ConversationID]; ok {
		stored.CreatedAt = prev.CreatedAt
	}
	s.analyses[r.ConversationID] = &stored

	out := stored
	return &out, nil
}

// GetAnalysis returns a copy of the conversation's analysis.
func (s *MemoryStore) GetAnalysis(_ context.Context, conversationID string) (*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.analyses[conversationID]
	if !ok {
		return nil, nil
	}
	out := *r
	return &out, nil
}

// ListAnalyses returns all analyses, newest first.
func (s *MemoryStore) ListAnalyses(_ context.Context) ([]*domain.AnalysisResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.AnalysisResult
	for _, r := range s.analyses {
		c := *r
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ConversationID < out[j].ConversationID
	})
	return out, nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

func copyConversation(conv *domain.Conversation, withMessages bool) *domain.Conversation {
	out := &domain.Conversation{ID: conv.ID, Title: conv.Title, CreatedAt: conv.CreatedAt}
	if withMessages {
		out.Messages = append([]domain.Message(nil), conv.Messages...)
	}
	return out
}

func sortMessages(msgs []domain.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if !msgs[i].Timestamp.Equal(msgs[j].Timestamp) {
			return msgs[i].Timestamp.Before(msgs[j].Timestamp)
		}
		return msgs[i].ID < msgs[j].ID
	})
}
