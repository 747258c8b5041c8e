package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chrissnell/rehabtrack/internal/database"
	"github.com/chrissnell/rehabtrack/internal/sessions"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PostgresStore keeps users and sessions in PostgreSQL through GORM
type PostgresStore struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// OpenPostgres connects to PostgreSQL and migrates the schema
func OpenPostgres(dsn string, logger *zap.SugaredLogger) (*PostgresStore, error) {
	db, err := database.CreateConnection(dsn)
	if err != nil {
		return nil, err
	}
	return NewPostgresStore(db, logger), nil
}

// NewPostgresStore wraps an already migrated connection
func NewPostgresStore(db *gorm.DB, logger *zap.SugaredLogger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (p *PostgresStore) Backend() string {
	return "postgres"
}

func (p *PostgresStore) CreateUser(ctx context.Context, u *sessions.User) error {
	if err := prepareUser(u, time.Now()); err != nil {
		return err
	}
	rec := userRecord(u)
	if err := p.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", ErrUserExists, u.Name)
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (p *PostgresStore) GetUser(ctx context.Context, id string) (*sessions.User, error) {
	var rec database.UserRecord
	err := p.db.WithContext(ctx).Where("id = ?", id).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return fromUserRecord(rec), nil
}

func (p *PostgresStore) ListUsers(ctx context.Context) ([]*sessions.User, error) {
	var recs []database.UserRecord
	if err := p.db.WithContext(ctx).Order("name").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users := make([]*sessions.User, 0, len(recs))
	for _, rec := range recs {
		users = append(users, fromUserRecord(rec))
	}
	return users, nil
}

func (p *PostgresStore) SaveSession(ctx context.Context, sess *sessions.Session, overwrite bool) error {
	if err := prepareSession(sess); err != nil {
		return err
	}
	metadata, metrics, err := encodeSession(sess)
	if err != nil {
		return err
	}

	return p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&database.UserRecord{}).Where("id = ?", sess.UserID).Count(&n).Error; err != nil {
			return fmt.Errorf("failed to check user: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("user %s: %w", sess.UserID, ErrNotFound)
		}

		rec := database.SessionRecord{
			ID:       sess.ID,
			UserID:   sess.UserID,
			Date:     sess.Date,
			Metadata: metadata,
			Metrics:  metrics,
		}

		var existing database.SessionRecord
		err := tx.Where("user_id = ? AND date = ?", sess.UserID, sess.Date).Take(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("failed to insert session: %w", err)
			}
			return nil
		case err != nil:
			return fmt.Errorf("failed to check session: %w", err)
		case !overwrite:
			return fmt.Errorf("%w: %s", ErrSessionExists, sess.Date)
		}

		sess.ID = existing.ID
		rec.ID = existing.ID
		rec.CreatedAt = existing.CreatedAt
		if err := tx.Save(&rec).Error; err != nil {
			return fmt.Errorf("failed to update session: %w", err)
		}
		p.logger.Infof("overwrote session %s for user %s", sess.Date, sess.UserID)
		return nil
	})
}

func (p *PostgresStore) GetSession(ctx context.Context, userID, date string) (*sessions.Session, error) {
	var rec database.SessionRecord
	err := p.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).Take(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("session %s: %w", date, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}
	return decodeSession(rec.ID, rec.UserID, rec.Date, rec.Metadata, rec.Metrics)
}

func (p *PostgresStore) ListSessions(ctx context.Context, userID string) ([]*sessions.Session, error) {
	var recs []database.SessionRecord
	if err := p.db.WithContext(ctx).Where("user_id = ?", userID).Order("date").Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	list := make([]*sessions.Session, 0, len(recs))
	for _, rec := range recs {
		sess, err := decodeSession(rec.ID, rec.UserID, rec.Date, rec.Metadata, rec.Metrics)
		if err != nil {
			return nil, err
		}
		list = append(list, sess)
	}
	return list, nil
}

func (p *PostgresStore) DeleteSession(ctx context.Context, userID, date string) error {
	res := p.db.WithContext(ctx).Where("user_id = ? AND date = ?", userID, date).Delete(&database.SessionRecord{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("session %s: %w", date, ErrNotFound)
	}
	return nil
}

func (p *PostgresStore) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (p *PostgresStore) Close() error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func userRecord(u *sessions.User) database.UserRecord {
	return database.UserRecord{
		ID:        u.ID,
		Name:      u.Name,
		Age:       u.Age,
		Condition: u.Condition,
		Goal:      u.Goal,
		StartDate: u.StartDate,
		CreatedAt: u.CreatedAt,
	}
}

func fromUserRecord(rec database.UserRecord) *sessions.User {
	return &sessions.User{
		ID:        rec.ID,
		Name:      rec.Name,
		Age:       rec.Age,
		Condition: rec.Condition,
		Goal:      rec.Goal,
		StartDate: rec.StartDate,
		CreatedAt: rec.CreatedAt,
	}
}
