// Package store provides transcript and analysis persistence.
package store

import (
	"context"
	"fmt"

	"github.com/ashureev/convoscore/internal/domain"
)

// Repository defines the interface for persisting conversations, their
// messages and their analysis results.
type Repository interface {
	// CreateConversation inserts a conversation together with its messages.
	// conv.ID and conv.CreatedAt must already be set.
	CreateConversation(ctx context.Context, conv *domain.Conversation) error

	// GetConversation retrieves a conversation with its messages.
	// Returns nil, nil when the conversation does not exist.
	GetConversation(ctx context.Context, id string) (*domain.Conversation, error)

	// ListConversations returns all conversations, newest first, without messages.
	ListConversations(ctx context.Context) ([]*domain.Conversation, error)

	// DeleteConversation removes a conversation, its messages and its analysis.
	// Returns ErrNotFound when nothing was deleted.
	DeleteConversation(ctx context.Context, id string) error

	// GetMessages returns a conversation's messages ordered by timestamp ascending.
	GetMessages(ctx context.Context, conversationID string) ([]domain.Message, error)

	// UpsertAnalysis replaces the analysis for result.ConversationID, or inserts
	// it if none exists. The original creation time is preserved on replace.
	// The stored record is returned.
	UpsertAnalysis(ctx context.Context, result *domain.AnalysisResult) (*domain.AnalysisResult, error)

	// GetAnalysis retrieves the analysis for a conversation.
	// Returns nil, nil when the conversation has not been analyzed.
	GetAnalysis(ctx context.Context, conversationID string) (*domain.AnalysisResult, error)

	// ListAnalyses returns all analysis results, newest first.
	ListAnalyses(ctx context.Context) ([]*domain.AnalysisResult, error)

	// ListUnanalyzedConversations returns conversations that have no analysis yet, oldest first.
	ListUnanalyzedConversations(ctx context.Context) ([]*domain.Conversation, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

var (
	_ Repository = (*SQLiteStore)(nil)
	_ Repository = (*PostgresStore)(nil)
	_ Repository = (*MemoryStore)(nil)
)

// Supported database drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Open creates the repository for driver. dbPath is used by SQLite and
// databaseURL by PostgreSQL; the memory driver needs neither.
func Open(driver, dbPath, databaseURL string) (Repository, error) {
	switch driver {
	case DriverSQLite:
		s, err := NewSQLite(dbPath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverPostgres:
		s, err := NewPostgres(databaseURL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}
