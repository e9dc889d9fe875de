package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"besocial/cmd/identity/ids"
)

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func pgIdent(schema, table string) string {
	return fmt.Sprintf("%q.%q", schema, table)
}

// PostgresStore is a MessageStore backed by PostgreSQL.
//
// Ownership model:
//   - PostgresStore does NOT own the pgx pool. The caller must close the pool.
//   - Close() is therefore a no-op.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures PostgresStore behavior.
type PostgresOption func(*PostgresStore) error

// WithSchema sets the DB schema used by this store (default: "besocial").
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return errors.New("chat: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return errors.New("chat: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a Postgres-backed MessageStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresStore, error) {
	st := &PostgresStore{
		pool:   pool,
		schema: "besocial",
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, errors.New("chat: nil pool")
	}
	return st, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

// Insert persists a message, assigning its identifier and creation timestamp.
func (s *PostgresStore) Insert(ctx context.Context, in InsertMessageInput) (Message, error) {
	if in.SenderID == "" || in.ReceiverID == "" || in.Text == "" {
		return Message{}, ErrInvalidInput
	}

	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	id, err := ids.NewULID(now)
	if err != nil {
		return Message{}, err
	}

	messages := pgIdent(s.schema, "messages")

	_, err = s.pool.Exec(ctx,
		`INSERT INTO `+messages+` (id, sender_id, receiver_id, text, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, in.SenderID, in.ReceiverID, in.Text, now,
	)
	if err != nil {
		return Message{}, err
	}

	return Message{
		ID:         id,
		SenderID:   in.SenderID,
		ReceiverID: in.ReceiverID,
		Text:       in.Text,
		CreatedAt:  now,
	}, nil
}

// GetByID returns one message by its identifier.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (Message, error) {
	if id == "" {
		return Message{}, ErrInvalidInput
	}
	messages := pgIdent(s.schema, "messages")

	var m Message
	err := s.pool.QueryRow(ctx,
		`SELECT id, sender_id, receiver_id, text, created_at
		 FROM `+messages+` WHERE id = $1`, id,
	).Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Message{}, ErrNotFound
	}
	if err != nil {
		return Message{}, err
	}
	return m, nil
}

// History returns all messages between userA and userB ordered by creation time ASC.
func (s *PostgresStore) History(ctx context.Context, userA, userB string) ([]Message, error) {
	if userA == "" || userB == "" {
		return nil, ErrInvalidInput
	}
	messages := pgIdent(s.schema, "messages")

	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, receiver_id, text, created_at
		 FROM `+messages+`
		 WHERE (sender_id = $1 AND receiver_id = $2)
		    OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at ASC, id ASC`,
		userA, userB,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

// RecentBetween returns up to limit most recent messages between the pair, newest first.
func (s *PostgresStore) RecentBetween(ctx context.Context, userA, userB string, limit int) ([]Message, error) {
	if userA == "" || userB == "" {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = 10
	}
	messages := pgIdent(s.schema, "messages")

	rows, err := s.pool.Query(ctx,
		`SELECT id, sender_id, receiver_id, text, created_at
		 FROM `+messages+`
		 WHERE (sender_id = $1 AND receiver_id = $2)
		    OR (sender_id = $2 AND receiver_id = $1)
		 ORDER BY created_at DESC, id DESC
		 LIMIT $3`,
		userA, userB, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectMessages(rows)
}

func collectMessages(rows pgx.Rows) ([]Message, error) {
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.SenderID, &m.ReceiverID, &m.Text, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
