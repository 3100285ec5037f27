package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/convoscore/internal/domain"
	_ "github.com/lib/pq"
)

//go:embed postgres_schema.sql
var postgresSchema string

// PostgresStore implements Repository using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres connects to PostgreSQL using a lib/pq connection string or URL
// and applies the schema.
func NewPostgres(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := db.Exec(postgresSchema); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return &PostgresStore{db: db}, nil
}

// Ping verifies database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreateConversation inserts a conversation and its messages in one transaction.
func (s *PostgresStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at) VALUES ($1, $2, $3)`,
		conv.ID, conv.Title, conv.CreatedAt,
	); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	for i := range conv.Messages {
		m := &conv.Messages[i]
		if err := tx.QueryRowContext(ctx,
			`INSERT INTO messages (conversation_id, sender, text, timestamp)
			 VALUES ($1, $2, $3, $4) RETURNING id`,
			conv.ID, string(m.Sender), m.Text, m.Timestamp,
		).Scan(&m.ID); err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
		m.ConversationID = conv.ID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation with its messages.
func (s *PostgresStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, created_at FROM conversations WHERE id = $1`, id,
	).Scan(&conv.ID, &conv.Title, &conv.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}
	conv.CreatedAt = conv.CreatedAt.UTC()

	if conv.Messages, err = s.GetMessages(ctx, id); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns all conversations, newest first.
func (s *PostgresStore) ListConversations(ctx context.Context) ([]*domain.Conversation, error) {
	return s.queryConversations(ctx,
		`SELECT id, title, created_at FROM conversations ORDER BY created_at DESC, id`)
}

// ListUnanalyzedConversations returns conversations lacking an analysis, oldest first.
func (s *PostgresStore) ListUnanalyzedConversations(ctx context.Context) ([]*domain.Conversation, error) {
	return s.queryConversations(ctx, `
		SELECT c.id, c.title, c.created_at
		FROM conversations c
		LEFT JOIN analyses a ON a.conversation_id = c.id
		WHERE a.conversation_id IS NULL
		ORDER BY c.created_at, c.id`)
}

func (s *PostgresStore) queryConversations(ctx context.Context, query string) ([]*domain.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query conversations: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close conversation rows", "error", closeErr)
		}
	}()

	var convs []*domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(&conv.ID, &conv.Title, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		conv.CreatedAt = conv.CreatedAt.UTC()
		convs = append(convs, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return convs, nil
}

// DeleteConversation removes a conversation; messages and analysis cascade.
func (s *PostgresStore) DeleteConversation(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM conversations WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete conversation: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// GetMessages returns messages ordered by timestamp, ties broken by insertion order.
func (s *PostgresStore) GetMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender, text, timestamp
		FROM messages WHERE conversation_id = $1
		ORDER BY timestamp, id`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close message rows", "error", closeErr)
		}
	}()

	var msgs []domain.Message
	for rows.Next() {
		var m domain.Message
		var sender string
		if err := rows.Scan(&m.ID, &m.ConversationID, &sender, &m.Text, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Sender = domain.Sender(sender)
		m.Timestamp = m.Timestamp.UTC()
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// UpsertAnalysis creates or replaces the analysis keyed by conversation ID.
func (s *PostgresStore) UpsertAnalysis(ctx context.Context, r *domain.AnalysisResult) (*domain.AnalysisResult, error) {
	query := `
	INSERT INTO analyses (` + analysisColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $13)
	ON CONFLICT (conversation_id) DO UPDATE SET
		clarity_score = EXCLUDED.clarity_score,
		relevance_score = EXCLUDED.relevance_score,
		sentiment = EXCLUDED.sentiment,
		empathy_score = EXCLUDED.empathy_score,
		accuracy_score = EXCLUDED.accuracy_score,
		completeness_score = EXCLUDED.completeness_score,
		response_time_avg = EXCLUDED.response_time_avg,
		resolution_score = EXCLUDED.resolution_score,
		escalation_needed = EXCLUDED.escalation_needed,
		fallback_count = EXCLUDED.fallback_count,
		overall_score = EXCLUDED.overall_score,
		updated_at = EXCLUDED.updated_at
	RETURNING ` + analysisColumns

	stored, err := scanAnalysisPG(s.db.QueryRowContext(ctx, query,
		r.ConversationID, r.ClarityScore, r.RelevanceScore, string(r.Sentiment), r.EmpathyScore,
		r.AccuracyScore, r.CompletenessScore, r.ResponseTimeAvg, r.ResolutionScore,
		r.EscalationNeeded, r.FallbackCount, r.OverallScore, time.Now().UTC(),
	))
	if err != nil {
		return nil, fmt.Errorf("upsert analysis: %w", err)
	}
	return stored, nil
}

// GetAnalysis retrieves the analysis for a conversation.
func (s *PostgresStore) GetAnalysis(ctx context.Context, conversationID string) (*domain.AnalysisResult, error) {
	r, err := scanAnalysisPG(s.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE conversation_id = $1`, conversationID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis row: %w", err)
	}
	return r, nil
}

// ListAnalyses returns all analyses, newest first.
func (s *PostgresStore) ListAnalyses(ctx context.Context) ([]*domain.AnalysisResult, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses ORDER BY created_at DESC, conversation_id`)
	if err != nil {
		return nil, fmt.Errorf("query analyses: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close analysis rows", "error", closeErr)
		}
	}()

	var results []*domain.AnalysisResult
	for rows.Next() {
		r, err := scanAnalysisPG(rows)
		if err != nil {
			return nil, fmt.Errorf("scan analysis row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate analyses: %w", err)
	}
	return results, nil
}

func scanAnalysisPG(row rowScanner) (*domain.AnalysisResult, error) {
	var r domain.AnalysisResult
	var sentiment string
	if err := row.Scan(
		&r.ConversationID, &r.ClarityScore, &r.RelevanceScore, &sentiment, &r.EmpathyScore,
		&r.AccuracyScore, &r.CompletenessScore, &r.ResponseTimeAvg, &r.ResolutionScore,
		&r.EscalationNeeded, &r.FallbackCount, &r.OverallScore, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.Sentiment = domain.Sentiment(sentiment)
	r.CreatedAt = r.CreatedAt.UTC()
	r.UpdatedAt = r.UpdatedAt.UTC()
	return &r, nil
}
