package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/chrissnell/rehabtrack/internal/sessions"
	"github.com/chrissnell/rehabtrack/pkg/migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// SQLiteStore keeps users and sessions in a local SQLite file
type SQLiteStore struct {
	db     *sql.DB
	path   string
	logger *zap.SugaredLogger
}

// OpenSQLite opens (creating if needed) the database at path and applies pending migrations
func OpenSQLite(path string, logger *zap.SugaredLogger) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// A single connection serializes writers and avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := NewMigrator(db, logger).MigrateUp(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate session schema: %w", err)
	}

	logger.Infof("opened SQLite session store at %s", path)
	return &SQLiteStore{db: db, path: path, logger: logger}, nil
}

// NewMigrator returns a migrator for the session schema on a SQLite handle
func NewMigrator(db *sql.DB, logger *zap.SugaredLogger) *migrate.Migrator {
	return migrate.NewMigrator(db, migrate.NewFSProvider(migrations, "migrations", "schema_migrations"), logger)
}

func (s *SQLiteStore) Backend() string {
	return "sqlite"
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u *sessions.User) error {
	if err := prepareUser(u, time.Now()); err != nil {
		return err
	}

	var n int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE name = ?", u.Name).Scan(&n)
	if err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("%w: %s", ErrUserExists, u.Name)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO users (id, name, age, condition, goal, start_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Age, u.Condition, u.Goal, u.StartDate, formatTime(u.CreatedAt))
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *SQLiteStore) GetUser(ctx context.Context, id string) (*sessions.User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, age, condition, goal, start_date, created_at FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return u, err
}

func (s *SQLiteStore) ListUsers(ctx context.Context) ([]*sessions.User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, age, condition, goal, start_date, created_at FROM users ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	var users []*sessions.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*sessions.User, error) {
	var u sessions.User
	var created string
	if err := row.Scan(&u.ID, &u.Name, &u.Age, &u.Condition, &u.Goal, &u.StartDate, &created); err != nil {
		return nil, err
	}
	t, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("user %s has invalid creation time: %w", u.ID, err)
	}
	u.CreatedAt = t
	return &u, nil
}

func (s *SQLiteStore) SaveSession(ctx context.Context, sess *sessions.Session, overwrite bool) error {
	if err := prepareSession(sess); err != nil {
		return err
	}
	metadata, metrics, err := encodeSession(sess)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var n int
	if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE id = ?", sess.UserID).Scan(&n); err != nil {
		return fmt.Errorf("failed to check user: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", sess.UserID, ErrNotFound)
	}

	now := formatTime(time.Now())
	var existing string
	err = tx.QueryRowContext(ctx,
		"SELECT id FROM sessions WHERE user_id = ? AND date = ?", sess.UserID, sess.Date).Scan(&existing)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO sessions (id, user_id, date, metadata, metrics, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			sess.ID, sess.UserID, sess.Date, metadata, metrics, now, now)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
	case err != nil:
		return fmt.Errorf("failed to check session: %w", err)
	case !overwrite:
		return fmt.Errorf("%w: %s", ErrSessionExists, sess.Date)
	default:
		sess.ID = existing
		_, err = tx.ExecContext(ctx,
			"UPDATE sessions SET metadata = ?, metrics = ?, updated_at = ? WHERE id = ?",
			metadata, metrics, now, existing)
		if err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		s.logger.Infof("overwrote session %s for user %s", sess.Date, sess.UserID)
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetSession(ctx context.Context, userID, date string) (*sessions.Session, error) {
	var id, metadata, metrics string
	err := s.db.QueryRowContext(ctx,
		"SELECT id, metadata, metrics FROM sessions WHERE user_id = ? AND date = ?",
		userID, date).Scan(&id, &metadata, &metrics)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("session %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return decodeSession(id, userID, date, metadata, metrics)
}

func (s *SQLiteStore) ListSessions(ctx context.Context, userID string) ([]*sessions.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, date, metadata, metrics FROM sessions WHERE user_id = ? ORDER BY date", userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var list []*sessions.Session
	for rows.Next() {
		var id, date, metadata, metrics string
		if err := rows.Scan(&id, &date, &metadata, &metrics); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sess, err := decodeSession(id, userID, date, metadata, metrics)
		if err != nil {
			return nil, err
		}
		list = append(list, sess)
	}
	return list, rows.Err()
}

func (s *SQLiteStore) DeleteSession(ctx context.Context, userID, date string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM sessions WHERE user_id = ? AND date = ?", userID, date)
	if err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("session %s: %w", date, ErrNotFound)
	}
	return nil
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
