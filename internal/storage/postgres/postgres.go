package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/interfaces"
	"github.com/SOE-YoungS/cosmosdb-chatgpt/internal/storage/models"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

type PostgresStorage struct {
	db     *sql.DB
	logger *zap.Logger
}

func New(databaseURL string, logger *zap.Logger) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	return &PostgresStorage{
		db:     db,
		logger: logger.With(zap.String("component", "postgres_storage")),
	}, nil
}

func (s *PostgresStorage) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection (for migrations)
func (s *PostgresStorage) GetDB() *sql.DB {
	return s.db
}

// SessionStore implementation

func (s *PostgresStorage) ListSessions(ctx context.Context, userID string) ([]models.Session, error) {
	query := `
		SELECT id, user_id, name, model_id, tokens_used, created_at, updated_at
		FROM chat_sessions
		WHERE user_id = $1
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

func (s *PostgresStorage) InsertSession(ctx context.Context, session models.Session) error {
	query := `
		INSERT INTO chat_sessions (id, user_id, name, model_id, tokens_used, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		session.ID, session.UserID, session.Name, session.ModelID,
		session.TokensUsed, session.CreatedAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}

	s.logger.Debug("Session inserted",
		zap.String("session_id", session.ID),
		zap.String("user_id", session.UserID))

	return nil
}

func (s *PostgresStorage) UpdateSession(ctx context.Context, session models.Session) error {
	query := `
		UPDATE chat_sessions
		SET name = $2, model_id = $3, tokens_used = $4, updated_at = $5
		WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query,
		session.ID, session.Name, session.ModelID, session.TokensUsed, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("session not found: %s", session.ID)
	}

	return nil
}

// MessageStore implementation

func (s *PostgresStorage) ListMessages(ctx context.Context, sessionID, userID string) ([]models.Message, error) {
	query := `
		SELECT id, session_id, user_id, sender, tokens, text, created_at
		FROM messages
		WHERE session_id = $1 AND ($2 = '' OR user_id = $2)
		ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	return scanMessages(rows)
}

func (s *PostgresStorage) InsertMessage(ctx context.Context, msg models.Message) (models.Message, error) {
	query := `
		INSERT INTO messages (id, session_id, user_id, sender, tokens, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := s.db.ExecContext(ctx, query,
		msg.ID, msg.SessionID, msg.UserID, string(msg.Sender),
		tokensToNull(msg.Tokens), msg.Text, msg.Timestamp)
	if err != nil {
		return models.Message{}, fmt.Errorf("failed to insert message: %w", err)
	}

	s.logger.Debug("Message inserted",
		zap.String("message_id", msg.ID),
		zap.String("session_id", msg.SessionID),
		zap.String("sender", string(msg.Sender)))

	return msg, nil
}

// Atomic operations

func (s *PostgresStorage) DeleteSessionAndMessages(ctx context.Context, sessionID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM chat_sessions WHERE id = $1`, sessionID); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	s.logger.Debug("Session and messages deleted", zap.String("session_id", sessionID))
	return nil
}

func (s *PostgresStorage) UpsertBatch(ctx context.Context, prompt, completion models.Message, session models.Session) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	upsertMessage := `
		INSERT INTO messages (id, session_id, user_id, sender, tokens, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET tokens = EXCLUDED.tokens, text = EXCLUDED.text`

	for _, msg := range []models.Message{prompt, completion} {
		if _, err := tx.ExecContext(ctx, upsertMessage,
			msg.ID, msg.SessionID, msg.UserID, string(msg.Sender),
			tokensToNull(msg.Tokens), msg.Text, msg.Timestamp); err != nil {
			return fmt.Errorf("failed to upsert message %s: %w", msg.ID, err)
		}
	}

	updateSession := `
		UPDATE chat_sessions
		SET name = $2, model_id = $3, tokens_used = $4, updated_at = $5
		WHERE id = $1`

	if _, err := tx.ExecContext(ctx, updateSession,
		session.ID, session.Name, session.ModelID, session.TokensUsed, session.UpdatedAt); err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}

	s.logger.Debug("Batch upserted",
		zap.String("session_id", session.ID),
		zap.Int("tokens_used", session.TokensUsed))

	return nil
}

// Scan helpers

func scanSessions(rows *sql.Rows) ([]models.Session, error) {
	sessions := make([]models.Session, 0)

	for rows.Next() {
		var session models.Session
		if err := rows.Scan(&session.ID, &session.UserID, &session.Name,
			&session.ModelID, &session.TokensUsed, &session.CreatedAt, &session.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, session)
	}

	return sessions, rows.Err()
}

func scanMessages(rows *sql.Rows) ([]models.Message, error) {
	messages := make([]models.Message, 0)

	for rows.Next() {
		var (
			msg    models.Message
			sender string
			tokens sql.NullInt64
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &msg.UserID,
			&sender, &tokens, &msg.Text, &msg.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg.Sender = models.Sender(sender)
		if tokens.Valid {
			msg.Tokens = models.ResolvedTokens(int(tokens.Int64))
		} else {
			msg.Tokens = models.PendingTokens()
		}

		messages = append(messages, msg)
	}

	return messages, rows.Err()
}

func tokensToNull(t models.TokenCount) sql.NullInt64 {
	count, resolved := t.Value()
	return sql.NullInt64{Int64: int64(count), Valid: resolved}
}

var _ interfaces.ChatStore = (*PostgresStorage)(nil)
