// Package sqlstore persists users in SQLite through sqlx.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	apperrors "github.com/jrsteele09/go-bookstore-server/internal/errors"
	"github.com/jrsteele09/go-bookstore-server/users"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	name          TEXT NOT NULL,
	role          TEXT NOT NULL DEFAULT 'user',
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);`

const userColumns = `id, email, password_hash, name, role, created_at, updated_at`

var _ users.Repo = (*Store)(nil)

type Store struct {
	db *sqlx.DB
}

// Open opens the SQLite database at path and creates the users table.
// ":memory:" is accepted for tests.
func Open(ctx context.Context, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := path
	if path != ":memory:" {
		dsn = path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// A single connection keeps writes serialised and in-memory databases shared.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create users table: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Create(ctx context.Context, user *users.User) error {
	now := time.Now().UTC()
	if user.Role == "" {
		user.Role = users.RoleUser
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, name, role, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		user.Email, user.PasswordHash, user.Name, string(user.Role), now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id
	user.CreatedAt = now
	user.UpdatedAt = now
	return nil
}

func (s *Store) Update(ctx context.Context, user *users.User) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, password_hash = ?, updated_at = ? WHERE id = ?`,
		user.Name, user.PasswordHash, now, user.ID)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if n == 0 {
		return apperrors.ErrUserNotFound
	}
	user.UpdatedAt = now
	return nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) GetByID(ctx context.Context, id int64) (*users.User, error) {
	var u users.User
	err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, notFound(err)
	}
	return &u, nil
}

func (s *Store) List(ctx context.Context, offset, limit int) (users.UsersListResponse, error) {
	var total int
	if err := s.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM users`); err != nil {
		return users.UsersListResponse{}, fmt.Errorf("count users: %w", err)
	}

	list := []*users.User{}
	err := s.db.SelectContext(ctx, &list,
		`SELECT `+userColumns+` FROM users ORDER BY id LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		return users.UsersListResponse{}, fmt.Errorf("list users: %w", err)
	}

	return users.UsersListResponse{Users: list, Total: total, Offset: offset, Limit: limit}, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.ErrUserNotFound
	}
	return fmt.Errorf("query user: %w", err)
}

func isUniqueViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
