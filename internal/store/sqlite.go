package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/convoscore/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// WAL for concurrent readers; foreign keys so deletes cascade.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender TEXT NOT NULL CHECK (sender IN ('user', 'ai')),
		text TEXT NOT NULL,
		timestamp INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, timestamp, id);

	CREATE TABLE IF NOT EXISTS analyses (
		conversation_id TEXT PRIMARY KEY REFERENCES conversations(id) ON DELETE CASCADE,
		clarity_score REAL NOT NULL,
		relevance_score REAL NOT NULL,
		sentiment TEXT NOT NULL,
		empathy_score REAL NOT NULL,
		accuracy_score REAL NOT NULL,
		completeness_score REAL NOT NULL,
		response_time_avg REAL NOT NULL,
		resolution_score REAL NOT NULL,
		escalation_needed INTEGER NOT NULL DEFAULT 0,
		fallback_count INTEGER NOT NULL DEFAULT 0,
		overall_score REAL NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// CreateConversation inserts a conversation and its messages in one transaction.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (id, title, created_at) VALUES (?, ?, ?)`,
		conv.ID, conv.Title, conv.CreatedAt.UnixMicro(),
	); err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}

	for i := range conv.Messages {
		m := &conv.Messages[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO messages (conversation_id, sender, text, timestamp) VALUES (?, ?, ?, ?)`,
			conv.ID, string(m.Sender), m.Text, m.Timestamp.UnixMicro(),
		)
		if err != nil {
			return fmt.Errorf("insert message %d: %w", i, err)
		}
		if m.ID, err = res.LastInsertId(); err != nil {
			return fmt.Errorf("message id: %w", err)
		}
		m.ConversationID = conv.ID
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit conversation: %w", err)
	}
	return nil
}

// GetConversation retrieves a conversation with its messages.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*domain.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, title, created_at FROM conversations WHERE id = ?`, id)

	var conv domain.Conversation
	var createdAt int64
	err := row.Scan(&conv.ID, &conv.Title, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}
	conv.CreatedAt = fromMicros(createdAt)

	if conv.Messages, err = s.GetMessages(ctx, id); err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns all conversations, newest first.
func (s *SQLiteStore) ListConversations(ctx context.Context) ([]*domain.Conversation, error) {
	return s.queryConversations(ctx,
		`SELECT id, title, created_at FROM conversations ORDER BY created_at DESC, id`)
}

// ListUnanalyzedConversations returns conversations lacking an analysis, oldest first.
func (s *SQLiteStore) ListUnanalyzedConversations(ctx context.Context) ([]*domain.Conversation, error) {
	return s.queryConversations(ctx, `
		SELECT c.id, c.title, c.created_at
		FROM conversations c
		LEFT JOIN analyses a ON a.conversation_id = c.id
		WHERE a.conversation_id IS NULL
		ORDER BY c.created_at, c.id`)
}

func (s *SQLiteStore) queryConversations(ctx context.Context, query string) ([]*domain.Conversation, error) {
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
		var createdAt int64
		if err := rows.Scan(&conv.ID, &conv.Title, &createdAt); err != nil {
			return nil, fmt.Errorf("scan conversation row: %w", err)
		}
		conv.CreatedAt = fromMicros(createdAt)
		convs = append(convs, &conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate conversations: %w", err)
	}
	return convs, nil
}

// DeleteConversation removes a conversation; messages and analysis cascade.
func (s *SQLiteStore) DeleteConversation(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// Explicit child deletes keep the cascade even on connections opened without foreign_keys.
	if _, err := tx.ExecContext(ctx, `DELETE FROM analyses WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete analysis: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE conversation_id = ?`, id); err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM conversations WHERE id = ?`, id)
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

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

// GetMessages returns messages ordered by timestamp, ties broken by insertion order.
func (s *SQLiteStore) GetMessages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, sender, text, timestamp
		FROM messages WHERE conversation_id = ?
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
		var ts int64
		if err := rows.Scan(&m.ID, &m.ConversationID, &sender, &m.Text, &ts); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		m.Sender = domain.Sender(sender)
		m.Timestamp = fromMicros(ts)
		msgs = append(msgs, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return msgs, nil
}

// UpsertAnalysis creates or replaces the analysis keyed by conversation ID.
func (s *SQLiteStore) UpsertAnalysis(ctx context.Context, r *domain.AnalysisResult) (*domain.AnalysisResult, error) {
	query := `
	INSERT INTO analyses (
		conversation_id, clarity_score, relevance_score, sentiment, empathy_score,
		accuracy_score, completeness_score, response_time_avg, resolution_score,
		escalation_needed, fallback_count, overall_score, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(conversation_id) DO UPDATE SET
		clarity_score = excluded.clarity_score,
		relevance_score = excluded.relevance_score,
		sentiment = excluded.sentiment,
		empathy_score = excluded.empathy_score,
		accuracy_score = excluded.accuracy_score,
		completeness_score = excluded.completeness_score,
		response_time_avg = excluded.response_time_avg,
		resolution_score = excluded.resolution_score,
		escalation_needed = excluded.escalation_needed,
		fallback_count = excluded.fallback_count,
		overall_score = excluded.overall_score,
		updated_at = excluded.updated_at`

	now := time.Now().UTC()
	if _, err := s.db.ExecContext(ctx, query,
		r.ConversationID, r.ClarityScore, r.RelevanceScore, string(r.Sentiment), r.EmpathyScore,
		r.AccuracyScore, r.CompletenessScore, r.ResponseTimeAvg, r.ResolutionScore,
		r.EscalationNeeded, r.FallbackCount, r.OverallScore, now.UnixMicro(), now.UnixMicro(),
	); err != nil {
		return nil, fmt.Errorf("upsert analysis: %w", err)
	}

	stored, err := s.GetAnalysis(ctx, r.ConversationID)
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("upsert analysis: row missing after write")
	}
	return stored, nil
}

const analysisColumns = `
	conversation_id, clarity_score, relevance_score, sentiment, empathy_score,
	accuracy_score, completeness_score, response_time_avg, resolution_score,
	escalation_needed, fallback_count, overall_score, created_at, updated_at`

// GetAnalysis retrieves the analysis for a conversation.
func (s *SQLiteStore) GetAnalysis(ctx context.Context, conversationID string) (*domain.AnalysisResult, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+analysisColumns+` FROM analyses WHERE conversation_id = ?`, conversationID)

	r, err := scanAnalysis(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis row: %w", err)
	}
	return r, nil
}

// ListAnalyses returns all analyses, newest first.
func (s *SQLiteStore) ListAnalyses(ctx context.Context) ([]*domain.AnalysisResult, error) {
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
		r, err := scanAnalysis(rows)
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

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAnalysis(row rowScanner) (*domain.AnalysisResult, error) {
	var r domain.AnalysisResult
	var sentiment string
	var createdAt, updatedAt int64
	if err := row.Scan(
		&r.ConversationID, &r.ClarityScore, &r.RelevanceScore, &sentiment, &r.EmpathyScore,
		&r.AccuracyScore, &r.CompletenessScore, &r.ResponseTimeAvg, &r.ResolutionScore,
		&r.EscalationNeeded, &r.FallbackCount, &r.OverallScore, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}
	r.Sentiment = domain.Sentiment(sentiment)
	r.CreatedAt = fromMicros(createdAt)
	r.UpdatedAt = fromMicros(updatedAt)
	return &r, nil
}

func fromMicros(us int64) time.Time {
	return time.UnixMicro(us).UTC()
}
