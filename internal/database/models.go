package database

import (
	"time"
)

// UserRecord represents a patient in the database
type UserRecord struct {
	ID        string    `gorm:"primaryKey;column:id"`
	Name      string    `gorm:"column:name;not null;uniqueIndex"`
	Age       string    `gorm:"column:age"`
	Condition string    `gorm:"column:condition"`
	Goal      string    `gorm:"column:goal"`
	StartDate string    `gorm:"column:start_date;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

// TableName specifies the table name for UserRecord
func (UserRecord) TableName() string {
	return "users"
}

// SessionRecord is one processed session. Metadata and metrics are stored
// as JSON documents; a user has at most one session per date.
type SessionRecord struct {
	ID        string    `gorm:"primaryKey;column:id"`
	UserID    string    `gorm:"column:user_id;not null;uniqueIndex:idx_sessions_user_date"`
	Date      string    `gorm:"column:date;not null;uniqueIndex:idx_sessions_user_date"`
	Metadata  string    `gorm:"column:metadata;type:text;not null"`
	Metrics   string    `gorm:"column:metrics;type:text;not null"`
	CreatedAt time.Time `gorm:"column:created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

// TableName specifies the table name for SessionRecord
func (SessionRecord) TableName() string {
	return "sessions"
}
