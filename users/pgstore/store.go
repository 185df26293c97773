// Package pgstore persists users in PostgreSQL through a pgx pool.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            BIGSERIAL PRIMARY KEY,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);`

const uniqueViolation = "23505"

var _ users.Repo = (*Store)(nil)

type Store struct {
	pool *pgxpool.Pool
}

// Open connects to databaseURL and creates the users table.
func Open(ctx context.Context, databaseURL string) (*Store, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}
	return NewStore(pool), nil
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Create(ctx context.Context, user *users.User) error {
	if user.Role == "" {
		user.Role = users.RoleUser
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (email, password_hash, name, role)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`, user.Email, user.PasswordHash, user.Name, string(user.Role))

	err := row.Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) Update(ctx context.Context, user *users.User) error {
	row := s.pool.QueryRow(ctx, `
		UPDATE users SET name = $1, password_hash = $2, updated_at = now()
		WHERE id = $3
		RETURNING updated_at
	`, user.Name, user.PasswordHash, user.ID)
	if err := row.Scan(&user.UpdatedAt); err != nil {
		return notFound(err)
	}
	return nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE email = $1
	`, email)
	return scanUser(row)
}

func (s *Store) GetByID(ctx context.Context, id int64) (*users.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id)
	return scanUser(row)
}

func (s *Store) List(ctx context.Context, offset, limit int) (users.UsersListResponse, error) {
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&total); err != nil {
		return users.UsersListResponse{}, fmt.Errorf("count users: %w", err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT id, email, password_hash, name, role, created_at, updated_at
		FROM users
		ORDER BY id
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return users.UsersListResponse{}, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	list := []*users.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return users.UsersListResponse{}, err
		}
		list = append(list, u)
	}
	if err := rows.Err(); err != nil {
		return users.UsersListResponse{}, fmt.Errorf("list users: %w", err)
	}

	return users.UsersListResponse{Users: list, Total: total, Offset: offset, Limit: limit}, nil
}

func scanUser(row pgx.Row) (*users.User, error) {
	var (
		u    users.User
		role string
	)
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Name, &role, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	u.Role = users.Role(role)
	return &u, nil
}

func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrUserNotFound
	}
	return fmt.Errorf("query user: %w", err)
}
