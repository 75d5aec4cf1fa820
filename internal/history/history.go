// Package history records finished synthesis jobs in a local sqlite database.
package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Entry is one generated clip.
type Entry struct {
	ID         uint      `gorm:"primaryKey"`
	JobToken   string    `gorm:"size:64;index"`
	ModelToken string    `gorm:"size:64;index"`
	VoiceTitle string    `gorm:"size:255"`
	Text       string    `gorm:"type:text"`
	AudioURL   string    `gorm:"size:512"`
	OutputFile string    `gorm:"size:512"`
	Bytes      int       `gorm:"not null;default:0"`
	CreatedAt  time.Time `gorm:"autoCreateTime;index"`
}

func (Entry) TableName() string {
	return "generations"
}

// Store is the generation log.
type Store struct {
	db *gorm.DB
}

// Open opens (creating if needed) the history database at path. A DSN such as
// "file::memory:" is passed through unchanged.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("history path is empty")
	}
	if dir := filepath.Dir(path); dir != "." && !isMemory(path) {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create history dir: %w", err)
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open history db: %w", err)
	}
	return New(db)
}

// New wraps an existing database handle and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("history store requires database handle")
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("failed to migrate history db: %w", err)
	}
	return &Store{db: db}, nil
}

// Record inserts a finished generation.
func (s *Store) Record(ctx context.Context, e *Entry) error {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return fmt.Errorf("failed to record generation: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	var entries []Entry
	q := s.db.WithContext(ctx).Order("created_at DESC").Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list generations: %w", err)
	}
	return entries, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func isMemory(path string) bool {
	return path == ":memory:" || strings.HasPrefix(path, "file:")
}
