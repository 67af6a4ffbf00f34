//go:build !js && !wasm
// +build !js,!wasm

package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const DefaultDBFile = "acousticsync.sqlite3"
const errDBClientNil = "db client is nil"

// ErrSessionNotFound is returned when a session ID has no journal row.
var ErrSessionNotFound = errors.New("sync session not found")

// EventKind names what happened to a session's timeline.
type EventKind string

const (
	EventCommit EventKind = "commit"
	EventSeek   EventKind = "seek"
	EventResync EventKind = "resync"
)

type DBClient struct {
	DB *gorm.DB
	db *sql.DB
}

type SyncSession struct {
	ID               string `gorm:"primaryKey;type:varchar(36)"`
	Title            string `gorm:"index:idx_session_title" json:"title"`
	MasterDurationMs int    `json:"master_duration_ms"`
	StartedAt        time.Time
	EndedAt          *time.Time
}

type SyncEvent struct {
	ID                uint      `gorm:"primaryKey;autoIncrement"`
	SessionID         string    `gorm:"type:varchar(36);index:idx_event_session" json:"session_id"`
	Kind              EventKind `gorm:"type:varchar(16)" json:"kind"`
	TimelineMs        int64     `json:"timeline_ms"`
	ConfidencePercent float64   `json:"confidence_percent"`
	CreatedAt         time.Time
}

// NewDBClient opens the journal at ACOUSTIC_JOURNAL_PATH, or DefaultDBFile.
func NewDBClient() (*DBClient, error) {
	dbPath := os.Getenv("ACOUSTIC_JOURNAL_PATH")
	if dbPath == "" {
		dbPath = DefaultDBFile
	}
	return NewDBClientWithPath(dbPath)
}

func NewDBClientWithPath(dbPath string) (*DBClient, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal dir: %w", err)
		}
	}

	gormConfig := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	}

	db, err := gorm.Open(sqlite.Open(dbPath+"?_foreign_keys=on"), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting sql.DB from gorm: %w", err)
	}

	// one writer; sqlite serializes writes anyway
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(time.Hour)

	if err := db.AutoMigrate(&SyncSession{}, &SyncEvent{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	return &DBClient{DB: db, db: sqlDB}, nil
}

func (c *DBClient) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}

// RegisterSession creates a session row and returns its generated ID.
func (c *DBClient) RegisterSession(title string, masterDurationMs int) (string, error) {
	if c == nil || c.DB == nil {
		return "", errors.New(errDBClientNil)
	}

	s := SyncSession{
		ID:               uuid.NewString(),
		Title:            title,
		MasterDurationMs: masterDurationMs,
		StartedAt:        time.Now().UTC(),
	}
	if err := c.DB.Create(&s).Error; err != nil {
		return "", fmt.Errorf("creating session: %w", err)
	}
	return s.ID, nil
}

// EndSession stamps the session's end time.
func (c *DBClient) EndSession(sessionID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	res := c.DB.Model(&SyncSession{}).Where("id = ?", sessionID).Update("ended_at", time.Now().UTC())
	if res.Error != nil {
		return fmt.Errorf("ending session: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// RecordEvent appends one timeline event to a session.
func (c *DBClient) RecordEvent(sessionID string, kind EventKind, timelineSeconds, confidencePercent float64) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	ev := SyncEvent{
		SessionID:         sessionID,
		Kind:              kind,
		TimelineMs:        int64(timelineSeconds * 1000),
		ConfidencePercent: confidencePercent,
		CreatedAt:         time.Now().UTC(),
	}
	if err := c.DB.Create(&ev).Error; err != nil {
		return fmt.Errorf("recording %s event: %w", kind, err)
	}
	return nil
}

// ListEvents returns a session's events in the order they were recorded.
func (c *DBClient) ListEvents(sessionID string) ([]SyncEvent, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []SyncEvent
	if err := c.DB.Where("session_id = ?", sessionID).Order("id asc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	return rows, nil
}

// ListSessions returns all sessions, newest first.
func (c *DBClient) ListSessions() ([]SyncSession, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var rows []SyncSession
	if err := c.DB.Order("started_at desc").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying sessions: %w", err)
	}
	return rows, nil
}

// GetSession looks up one session by ID.
func (c *DBClient) GetSession(sessionID string) (*SyncSession, error) {
	if c == nil || c.DB == nil {
		return nil, errors.New(errDBClientNil)
	}
	var s SyncSession
	err := c.DB.Where("id = ?", sessionID).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying session: %w", err)
	}
	return &s, nil
}

// DeleteSession removes a session and its events.
func (c *DBClient) DeleteSession(sessionID string) error {
	if c == nil || c.DB == nil {
		return errors.New(errDBClientNil)
	}
	return c.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("session_id = ?", sessionID).Delete(&SyncEvent{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id = ?", sessionID).Delete(&SyncSession{}).Error; err != nil {
			return err
		}
		return nil
	})
}
