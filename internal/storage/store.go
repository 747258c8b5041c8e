// Package storage persists users and their processed sessions.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/chrissnell/rehabtrack/internal/sessions"
	"github.com/chrissnell/rehabtrack/pkg/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUserExists    = errors.New("user already exists")
	ErrSessionExists = errors.New("session already exists for this date")
	ErrInvalid       = errors.New("invalid record")
)

// Store is a session storage backend. Sessions are unique per user and date.
type Store interface {
	// CreateUser assigns the user an ID and creation time
	CreateUser(ctx context.Context, u *sessions.User) error
	GetUser(ctx context.Context, id string) (*sessions.User, error)
	ListUsers(ctx context.Context) ([]*sessions.User, error)

	// SaveSession stores s under its user and date, replacing an existing
	// session only when overwrite is set
	SaveSession(ctx context.Context, s *sessions.Session, overwrite bool) error
	GetSession(ctx context.Context, userID, date string) (*sessions.Session, error)
	ListSessions(ctx context.Context, userID string) ([]*sessions.Session, error)
	DeleteSession(ctx context.Context, userID, date string) error

	Ping(ctx context.Context) error
	Backend() string
	Close() error
}

// Open creates the store selected by cfg. SQLite takes precedence when both are configured.
func Open(cfg *config.StorageData, logger *zap.SugaredLogger) (Store, error) {
	switch {
	case cfg == nil:
		return nil, fmt.Errorf("no storage configured")
	case cfg.SQLite != nil:
		s, err := OpenSQLite(cfg.SQLite.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	case cfg.Postgres != nil:
		s, err := OpenPostgres(cfg.Postgres.ConnectionString, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("no storage configured")
	}
}

func prepareUser(u *sessions.User, now time.Time) error {
	u.Name = strings.TrimSpace(u.Name)
	if u.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	u.ID = uuid.NewString()
	u.CreatedAt = now.UTC()
	if u.StartDate == "" {
		u.StartDate = now.Format(sessions.DateLayout)
	}
	if _, err := time.Parse(sessions.DateLayout, u.StartDate); err != nil {
		return fmt.Errorf("%w: start date %q, use YYYY-MM-DD", ErrInvalid, u.StartDate)
	}
	return nil
}

func prepareSession(s *sessions.Session) error {
	if s.UserID == "" {
		return fmt.Errorf("%w: session has no user", ErrInvalid)
	}
	if _, err := time.Parse(sessions.DateLayout, s.Date); err != nil {
		return fmt.Errorf("%w: session date %q, use YYYY-MM-DD", ErrInvalid, s.Date)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// encodeSession serializes the metadata and metrics documents of s
func encodeSession(s *sessions.Session) (metadata, metrics string, err error) {
	md, err := json.Marshal(s.Metadata)
	if err != nil {
		return "", "", fmt.Errorf("encoding session metadata: %w", err)
	}
	mt, err := json.Marshal(s.Metrics)
	if err != nil {
		return "", "", fmt.Errorf("encoding session metrics: %w", err)
	}
	return string(md), string(mt), nil
}

func decodeSession(id, userID, date, metadata, metrics string) (*sessions.Session, error) {
	s := &sessions.Session{ID: id, UserID: userID, Date: date}
	if err := json.Unmarshal([]byte(metadata), &s.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata of session %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(metrics), &s.Metrics); err != nil {
		return nil, fmt.Errorf("decoding metrics of session %s: %w", id, err)
	}
	return s, nil
}
