package social

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"besocial/cmd/identity/ids"
)

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

func pgIdent(schema, table string) string {
	return fmt.Sprintf("%q.%q", schema, table)
}

// PostgresPostStore is a PostStore backed by PostgreSQL.
//
// Ownership model:
//   - The store does NOT own the pgx pool. The caller must close the pool.
//   - Close() is therefore a no-op.
type PostgresPostStore struct {
	pool   *pgxpool.Pool
	schema string
}

// PostgresOption configures the Postgres-backed stores.
type PostgresOption func(schemaHolder) error

type schemaHolder interface{ setSchema(string) }

func (s *PostgresPostStore) setSchema(schema string)         { s.schema = schema }
func (s *PostgresNotificationStore) setSchema(schema string) { s.schema = schema }

// WithSchema sets the DB schema used by the store (default: "besocial").
func WithSchema(schema string) PostgresOption {
	return func(h schemaHolder) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return errors.New("social: empty schema")
		}
		if !pgIdentRe.MatchString(schema) {
			return errors.New("social: invalid schema identifier")
		}
		h.setSchema(schema)
		return nil
	}
}

func applyOptions(h schemaHolder, opts []PostgresOption) error {
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(h); err != nil {
			return err
		}
	}
	return nil
}

// NewPostgresPostStore constructs a Postgres-backed PostStore.
func NewPostgresPostStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresPostStore, error) {
	if pool == nil {
		return nil, errors.New("social: nil pool")
	}
	st := &PostgresPostStore{pool: pool, schema: "besocial"}
	if err := applyOptions(st, opts); err != nil {
		return nil, err
	}
	return st, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresPostStore) Close() error { return nil }

func (s *PostgresPostStore) postsTable() string    { return pgIdent(s.schema, "posts") }
func (s *PostgresPostStore) likesTable() string    { return pgIdent(s.schema, "post_likes") }
func (s *PostgresPostStore) commentsTable() string { return pgIdent(s.schema, "post_comments") }

func (s *PostgresPostStore) Create(ctx context.Context, in CreatePostInput) (Post, error) {
	userID := strings.TrimSpace(in.UserID)
	text := strings.TrimSpace(in.Text)
	img := strings.TrimSpace(in.Img)
	if userID == "" || (text == "" && img == "") {
		return Post{}, ErrInvalidInput
	}

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Post{}, err
	}
	p := Post{
		ID:        id,
		UserID:    userID,
		Text:      text,
		Img:       img,
		CreatedAt: in.Now,
		UpdatedAt: in.Now,
	}
	q := fmt.Sprintf(`
		INSERT INTO %s (id, user_id, text, img, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, s.postsTable())
	if _, err := s.pool.Exec(ctx, q, p.ID, p.UserID, p.Text, p.Img, p.CreatedAt, p.UpdatedAt); err != nil {
		return Post{}, fmt.Errorf("social: create post: %w", err)
	}
	return p, nil
}

func (s *PostgresPostStore) GetByID(ctx context.Context, id string) (Post, error) {
	q := fmt.Sprintf(`
		SELECT id, user_id, text, img, created_at, updated_at
		FROM %s WHERE id = $1
	`, s.postsTable())

	var p Post
	err := s.pool.QueryRow(ctx, q, id).Scan(&p.ID, &p.UserID, &p.Text, &p.Img, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("social: get post: %w", err)
	}
	if err := s.attachRelations(ctx, []*Post{&p}); err != nil {
		return Post{}, err
	}
	return p, nil
}

func (s *PostgresPostStore) Delete(ctx context.Context, id string) error {
	// Likes and comments go via ON DELETE CASCADE.
	q := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, s.postsTable())
	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("social: delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresPostStore) AddComment(ctx context.Context, in AddCommentInput) (Post, error) {
	text := strings.TrimSpace(in.Text)
	if text == "" {
		return Post{}, ErrInvalidInput
	}

	cid, err := ids.NewULID(in.Now)
	if err != nil {
		return Post{}, err
	}
	q := fmt.Sprintf(`
		INSERT INTO %s (id, post_id, user_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, s.commentsTable())
	_, err = s.pool.Exec(ctx, q, cid, in.PostID, in.UserID, text, in.Now)
	if err != nil {
		if isFKViolation(err) {
			return Post{}, ErrNotFound
		}
		return Post{}, fmt.Errorf("social: add comment: %w", err)
	}

	uq := fmt.Sprintf(`UPDATE %s SET updated_at = $2 WHERE id = $1`, s.postsTable())
	if _, err := s.pool.Exec(ctx, uq, in.PostID, in.Now); err != nil {
		return Post{}, fmt.Errorf("social: touch post: %w", err)
	}
	return s.GetByID(ctx, in.PostID)
}

func (s *PostgresPostStore) ToggleLike(ctx context.Context, postID, userID string) ([]string, bool, error) {
	if _, err := s.GetByID(ctx, postID); err != nil {
		return nil, false, err
	}

	dq := fmt.Sprintf(`DELETE FROM %s WHERE post_id = $1 AND user_id = $2`, s.likesTable())
	tag, err := s.pool.Exec(ctx, dq, postID, userID)
	if err != nil {
		return nil, false, fmt.Errorf("social: unlike post: %w", err)
	}

	liked := false
	if tag.RowsAffected() == 0 {
		iq := fmt.Sprintf(`
			INSERT INTO %s (post_id, user_id, created_at)
			VALUES ($1, $2, now())
			ON CONFLICT (post_id, user_id) DO NOTHING
		`, s.likesTable())
		if _, err := s.pool.Exec(ctx, iq, postID, userID); err != nil {
			return nil, false, fmt.Errorf("social: like post: %w", err)
		}
		liked = true
	}

	lq := fmt.Sprintf(`
		SELECT user_id FROM %s WHERE post_id = $1 ORDER BY created_at ASC, user_id ASC
	`, s.likesTable())
	rows, err := s.pool.Query(ctx, lq, postID)
	if err != nil {
		return nil, false, fmt.Errorf("social: list likes: %w", err)
	}
	defer rows.Close()

	likes := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, false, fmt.Errorf("social: scan like: %w", err)
		}
		likes = append(likes, id)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("social: list likes: %w", err)
	}
	return likes, liked, nil
}

func (s *PostgresPostStore) ListAll(ctx context.Context) ([]Post, error) {
	q := fmt.Sprintf(`
		SELECT id, user_id, text, img, created_at, updated_at
		FROM %s ORDER BY created_at DESC, id DESC
	`, s.postsTable())
	return s.queryPosts(ctx, q)
}

func (s *PostgresPostStore) ListByUser(ctx context.Context, userID string) ([]Post, error) {
	q := fmt.Sprintf(`
		SELECT id, user_id, text, img, created_at, updated_at
		FROM %s WHERE user_id = $1 ORDER BY created_at DESC, id DESC
	`, s.postsTable())
	return s.queryPosts(ctx, q, userID)
}

func (s *PostgresPostStore) ListByUsers(ctx context.Context, userIDs []string) ([]Post, error) {
	if len(userIDs) == 0 {
		return []Post{}, nil
	}
	q := fmt.Sprintf(`
		SELECT id, user_id, text, img, created_at, updated_at
		FROM %s WHERE user_id = ANY($1) ORDER BY created_at DESC, id DESC
	`, s.postsTable())
	return s.queryPosts(ctx, q, userIDs)
}

func (s *PostgresPostStore) ListLikedBy(ctx context.Context, userID string) ([]Post, error) {
	q := fmt.Sprintf(`
		SELECT p.id, p.user_id, p.text, p.img, p.created_at, p.updated_at
		FROM %s p
		JOIN %s l ON l.post_id = p.id
		WHERE l.user_id = $1
		ORDER BY p.created_at DESC, p.id DESC
	`, s.postsTable(), s.likesTable())
	return s.queryPosts(ctx, q, userID)
}

func (s *PostgresPostStore) queryPosts(ctx context.Context, q string, args ...any) ([]Post, error) {
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("social: query posts: %w", err)
	}
	defer rows.Close()

	out := make([]Post, 0)
	for rows.Next() {
		var p Post
		if err := rows.Scan(&p.ID, &p.UserID, &p.Text, &p.Img, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("social: scan post: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("social: query posts: %w", err)
	}

	refs := make([]*Post, len(out))
	for i := range out {
		refs[i] = &out[i]
	}
	if err := s.attachRelations(ctx, refs); err != nil {
		return nil, err
	}
	return out, nil
}

// attachRelations loads likes and comments for the given posts in two
// batched queries.
func (s *PostgresPostStore) attachRelations(ctx context.Context, posts []*Post) error {
	if len(posts) == 0 {
		return nil
	}
	idx := make(map[string]*Post, len(posts))
	postIDs := make([]string, 0, len(posts))
	for _, p := range posts {
		idx[p.ID] = p
		postIDs = append(postIDs, p.ID)
	}

	lq := fmt.Sprintf(`
		SELECT post_id, user_id FROM %s
		WHERE post_id = ANY($1)
		ORDER BY created_at ASC, user_id ASC
	`, s.likesTable())
	rows, err := s.pool.Query(ctx, lq, postIDs)
	if err != nil {
		return fmt.Errorf("social: load likes: %w", err)
	}
	for rows.Next() {
		var postID, userID string
		if err := rows.Scan(&postID, &userID); err != nil {
			rows.Close()
			return fmt.Errorf("social: scan like: %w", err)
		}
		if p := idx[postID]; p != nil {
			p.Likes = append(p.Likes, userID)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("social: load likes: %w", err)
	}

	cq := fmt.Sprintf(`
		SELECT id, post_id, user_id, text, created_at FROM %s
		WHERE post_id = ANY($1)
		ORDER BY created_at ASC, id ASC
	`, s.commentsTable())
	rows, err = s.pool.Query(ctx, cq, postIDs)
	if err != nil {
		return fmt.Errorf("social: load comments: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var c Comment
		var postID string
		if err := rows.Scan(&c.ID, &postID, &c.UserID, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("social: scan comment: %w", err)
		}
		if p := idx[postID]; p != nil {
			p.Comments = append(p.Comments, c)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("social: load comments: %w", err)
	}
	return nil
}

// PostgresNotificationStore is a NotificationStore backed by PostgreSQL.
// It follows the same pool ownership model as PostgresPostStore.
type PostgresNotificationStore struct {
	pool   *pgxpool.Pool
	schema string
}

// NewPostgresNotificationStore constructs a Postgres-backed NotificationStore.
func NewPostgresNotificationStore(pool *pgxpool.Pool, opts ...PostgresOption) (*PostgresNotificationStore, error) {
	if pool == nil {
		return nil, errors.New("social: nil pool")
	}
	st := &PostgresNotificationStore{pool: pool, schema: "besocial"}
	if err := applyOptions(st, opts); err != nil {
		return nil, err
	}
	return st, nil
}

func (s *PostgresNotificationStore) Close() error { return nil }

func (s *PostgresNotificationStore) table() string { return pgIdent(s.schema, "notifications") }

func (s *PostgresNotificationStore) Insert(ctx context.Context, in InsertNotificationInput) (Notification, error) {
	if in.FromID == "" || in.ToID == "" {
		return Notification{}, ErrInvalidInput
	}
	if in.Type != NotificationFollow && in.Type != NotificationLike {
		return Notification{}, ErrInvalidInput
	}

	id, err := ids.NewULID(in.Now)
	if err != nil {
		return Notification{}, err
	}
	n := Notification{
		ID:        id,
		FromID:    in.FromID,
		ToID:      in.ToID,
		Type:      in.Type,
		PostID:    in.PostID,
		CreatedAt: in.Now,
	}
	q := fmt.Sprintf(`
		INSERT INTO %s (id, from_id, to_id, type, post_id, read, created_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6)
	`, s.table())
	if _, err := s.pool.Exec(ctx, q, n.ID, n.FromID, n.ToID, n.Type, n.PostID, n.CreatedAt); err != nil {
		return Notification{}, fmt.Errorf("social: insert notification: %w", err)
	}
	return n, nil
}

func (s *PostgresNotificationStore) ListForUser(ctx context.Context, userID string) ([]Notification, error) {
	q := fmt.Sprintf(`
		SELECT id, from_id, to_id, type, post_id, read, created_at
		FROM %s WHERE to_id = $1
		ORDER BY created_at ASC, id ASC
	`, s.table())
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("social: list notifications: %w", err)
	}
	defer rows.Close()

	out := make([]Notification, 0)
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.FromID, &n.ToID, &n.Type, &n.PostID, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("social: scan notification: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("social: list notifications: %w", err)
	}
	return out, nil
}

func (s *PostgresNotificationStore) MarkAllRead(ctx context.Context, userID string) error {
	q := fmt.Sprintf(`UPDATE %s SET read = TRUE WHERE to_id = $1`, s.table())
	if _, err := s.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("social: mark notifications read: %w", err)
	}
	return nil
}

func (s *PostgresNotificationStore) DeleteAllFor(ctx context.Context, userID string) error {
	q := fmt.Sprintf(`DELETE FROM %s WHERE to_id = $1`, s.table())
	if _, err := s.pool.Exec(ctx, q, userID); err != nil {
		return fmt.Errorf("social: delete notifications: %w", err)
	}
	return nil
}

func (s *PostgresNotificationStore) DeleteLike(ctx context.Context, fromID, toID, postID string) error {
	q := fmt.Sprintf(`
		DELETE FROM %s WHERE from_id = $1 AND to_id = $2 AND type = $3 AND post_id = $4
	`, s.table())
	if _, err := s.pool.Exec(ctx, q, fromID, toID, NotificationLike, postID); err != nil {
		return fmt.Errorf("social: delete like notification: %w", err)
	}
	return nil
}
