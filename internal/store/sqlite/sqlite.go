package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/vovakirdan/dmrelay/internal/store"
)

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// New opens the SQLite database at dbPath and applies migrations.
// Use ":memory:" for a throwaway database.
func New(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; it also keeps :memory: databases alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateMessage persists a message to storage.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *store.Message) (*store.Message, error) {
	if msg == nil {
		return nil, errors.New("nil message")
	}

	saved := *msg
	if saved.ID == "" {
		saved.ID = store.NewID()
	}
	if saved.Timestamp.IsZero() {
		saved.Timestamp = time.Now()
	}
	saved.Timestamp = saved.Timestamp.UTC()

	var recipient sql.NullString
	if saved.RecipientID != "" {
		recipient = sql.NullString{String: saved.RecipientID, Valid: true}
	}

	query := `
		INSERT INTO messages (id, sender_id, recipient_id, sender_email, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	if _, err := s.db.ExecContext(ctx, query,
		saved.ID,
		saved.SenderID,
		recipient,
		saved.SenderEmail,
		saved.Text,
		saved.Timestamp.UnixNano(),
	); err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}

	return &saved, nil
}

// FindConversation retrieves the most recent messages between two users, oldest first.
func (s *SQLiteStore) FindConversation(ctx context.Context, userA, userB string, limit int) ([]*store.Message, error) {
	if limit <= 0 {
		return []*store.Message{}, nil
	}

	query := `
		SELECT id, sender_id, recipient_id, sender_email, text, created_at
		FROM (
			SELECT seq, id, sender_id, recipient_id, sender_email, text, created_at
			FROM messages
			WHERE (sender_id = ? AND recipient_id = ?)
			   OR (sender_id = ? AND recipient_id = ?)
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, seq ASC
	`
	rows, err := s.db.QueryContext(ctx, query, userA, userB, userB, userA, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*store.Message, 0, limit)
	for rows.Next() {
		var (
			msg       store.Message
			recipient sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&msg.ID, &msg.SenderID, &recipient, &msg.SenderEmail, &msg.Text, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.RecipientID = recipient.String
		msg.Timestamp = time.Unix(0, createdAt).UTC()
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}

	return messages, nil
}
