package repository

import (
	"context"
	"errors"
	"time"

	"edubot/internal/domain"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Session keys, named after the browser storage keys the web client used.
const (
	KeyAuthToken    = "authToken"
	KeyAccessToken  = "accessToken"
	KeyRefreshToken = "refreshToken"
	KeyUserData     = "userData"
	KeyDarkMode     = "darkMode"
)

// SessionEntry is one persisted key/value pair.
type SessionEntry struct {
	Key       string    `gorm:"column:entry_key;primaryKey;size:64"`
	Value     string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

func (SessionEntry) TableName() string { return "session_entries" }

type sessionRepo struct {
	db *gorm.DB
}

func NewSessionRepository(db *gorm.DB) domain.SessionRepository {
	return &sessionRepo{db}
}

func (r *sessionRepo) Get(ctx context.Context, key string) (string, bool, error) {
	var entry SessionEntry
	err := r.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return entry.Value, true, nil
}

func (r *sessionRepo) Set(ctx context.Context, key, value string) error {
	entry := SessionEntry{Key: key, Value: value}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "entry_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&entry).Error
}

func (r *sessionRepo) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Where("entry_key IN ?", keys).Delete(&SessionEntry{}).Error
}
