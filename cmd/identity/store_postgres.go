package identity

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"besocial/cmd/identity/ids"
)

var pgIdentRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

func pgIdentIsValid(s string) bool { return pgIdentRe.MatchString(s) }

func pgIdent(schema, table string) string {
	return fmt.Sprintf("%q.%q", schema, table)
}

// PostgresStore is a Store backed by PostgreSQL.
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
// The schema name is validated and safely quoted in queries.
func WithSchema(schema string) PostgresOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return errors.New("identity: empty schema")
		}
		if !pgIdentIsValid(schema) {
			return errors.New("identity: invalid schema identifier")
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a Postgres-backed user Store.
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
		return nil, errors.New("identity: nil pool")
	}
	return st, nil
}

// Close is a no-op because the pool is owned by the caller.
func (s *PostgresStore) Close() error { return nil }

const userColumns = `u.id, u.full_name, u.username, u.email, u.password_hash,
	u.bio, u.link, u.profile_img, u.cover_img, u.created_at, u.updated_at`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.FullName, &u.Username, &u.Email, &u.PasswordHash,
		&u.Bio, &u.Link, &u.ProfileImg, &u.CoverImg, &u.CreatedAt, &u.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isFKViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23503"
}

// Create inserts a new user, mapping unique violations to ErrConflict.
func (s *PostgresStore) Create(ctx context.Context, u User) (User, error) {
	if u.Username == "" || u.Email == "" || u.PasswordHash == "" {
		return User{}, ErrInvalidInput
	}

	now := time.Now().UTC()
	if u.ID == "" {
		id, err := ids.NewULID(now)
		if err != nil {
			return User{}, err
		}
		u.ID = id
	}

	users := pgIdent(s.schema, "users")

	row := s.pool.QueryRow(ctx,
		`INSERT INTO `+users+` AS u
		   (id, full_name, username, email, password_hash, bio, link, profile_img, cover_img, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10)
		 RETURNING `+userColumns,
		u.ID, u.FullName, u.Username, u.Email, u.PasswordHash,
		u.Bio, u.Link, u.ProfileImg, u.CoverImg, now,
	)

	created, err := scanUser(row)
	if isUniqueViolation(err) {
		return User{}, ErrConflict
	}
	if err != nil {
		return User{}, err
	}
	return created, nil
}

// GetByID returns one user including its follow graph edges.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (User, error) {
	if id == "" {
		return User{}, ErrInvalidInput
	}
	users := pgIdent(s.schema, "users")

	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` u WHERE u.id = $1`, id))
	if err != nil {
		return User{}, err
	}
	return s.attachFollowEdges(ctx, u)
}

// GetByUsername returns one user by normalized username, including follow edges.
func (s *PostgresStore) GetByUsername(ctx context.Context, username string) (User, error) {
	if username == "" {
		return User{}, ErrInvalidInput
	}
	users := pgIdent(s.schema, "users")

	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM `+users+` u WHERE u.username = $1`, username))
	if err != nil {
		return User{}, err
	}
	return s.attachFollowEdges(ctx, u)
}

func (s *PostgresStore) attachFollowEdges(ctx context.Context, u User) (User, error) {
	follows := pgIdent(s.schema, "follows")

	err := s.pool.QueryRow(ctx,
		`SELECT
		   COALESCE((SELECT array_agg(f.follower_id ORDER BY f.created_at) FROM `+follows+` f WHERE f.target_id = $1), '{}'),
		   COALESCE((SELECT array_agg(f.target_id   ORDER BY f.created_at) FROM `+follows+` f WHERE f.follower_id = $1), '{}')`,
		u.ID,
	).Scan(&u.Followers, &u.Following)
	if err != nil {
		return User{}, err
	}
	return u, nil
}

// ListOthers returns all users except excludeID, newest first.
// Follow edges are not attached for list views.
func (s *PostgresStore) ListOthers(ctx context.Context, excludeID string) ([]User, error) {
	users := pgIdent(s.schema, "users")

	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM `+users+` u
		 WHERE u.id <> $1
		 ORDER BY u.created_at DESC, u.id DESC`,
		excludeID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

// SuggestPeers returns up to limit users that userID does not already follow.
func (s *PostgresStore) SuggestPeers(ctx context.Context, userID string, limit int) ([]User, error) {
	if limit <= 0 {
		limit = 4
	}
	users := pgIdent(s.schema, "users")
	follows := pgIdent(s.schema, "follows")

	rows, err := s.pool.Query(ctx,
		`SELECT `+userColumns+` FROM `+users+` u
		 WHERE u.id <> $1
		   AND u.id NOT IN (SELECT f.target_id FROM `+follows+` f WHERE f.follower_id = $1)
		 ORDER BY u.created_at DESC, u.id DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectUsers(rows)
}

// Update persists mutable profile fields for an existing user.
func (s *PostgresStore) Update(ctx context.Context, u User) (User, error) {
	if u.ID == "" {
		return User{}, ErrInvalidInput
	}
	users := pgIdent(s.schema, "users")

	row := s.pool.QueryRow(ctx,
		`UPDATE `+users+` AS u SET
		   full_name = $2, username = $3, email = $4, password_hash = $5,
		   bio = $6, link = $7, profile_img = $8, cover_img = $9, updated_at = $10
		 WHERE u.id = $1
		 RETURNING `+userColumns,
		u.ID, u.FullName, u.Username, u.Email, u.PasswordHash,
		u.Bio, u.Link, u.ProfileImg, u.CoverImg, time.Now().UTC(),
	)

	updated, err := scanUser(row)
	if isUniqueViolation(err) {
		return User{}, ErrConflict
	}
	if err != nil {
		return User{}, err
	}
	return s.attachFollowEdges(ctx, updated)
}

// Follow records followerID following targetID (idempotent).
func (s *PostgresStore) Follow(ctx context.Context, followerID, targetID string) error {
	if followerID == "" || targetID == "" || followerID == targetID {
		return ErrInvalidInput
	}
	follows := pgIdent(s.schema, "follows")

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+follows+` (follower_id, target_id, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (follower_id, target_id) DO NOTHING`,
		followerID, targetID, time.Now().UTC(),
	)
	if isFKViolation(err) {
		return ErrNotFound
	}
	return err
}

// Unfollow removes the follow edge (idempotent).
func (s *PostgresStore) Unfollow(ctx context.Context, followerID, targetID string) error {
	if followerID == "" || targetID == "" || followerID == targetID {
		return ErrInvalidInput
	}
	follows := pgIdent(s.schema, "follows")

	_, err := s.pool.Exec(ctx,
		`DELETE FROM `+follows+` WHERE follower_id = $1 AND target_id = $2`,
		followerID, targetID,
	)
	return err
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}
