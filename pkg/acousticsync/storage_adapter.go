package acousticsync

import (
	"github.com/himanishpuri/AcousticSync/pkg/acousticsync/storage"
)

// storageAdapter adapts the storage.DBClient to implement the Storage interface.
type storageAdapter struct {
	db *storage.DBClient
}

// NewSQLiteStorage opens a sync journal backed by SQLite.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	db, err := storage.NewDBClientWithPath(dbPath)
	if err != nil {
		return nil, err
	}
	return &storageAdapter{db: db}, nil
}

func (s *storageAdapter) RegisterSession(title string, masterDurationMs int) (string, error) {
	return s.db.RegisterSession(title, masterDurationMs)
}

func (s *storageAdapter) EndSession(sessionID string) error {
	return s.db.EndSession(sessionID)
}

func (s *storageAdapter) RecordEvent(sessionID string, kind storage.EventKind, timelineSeconds, confidencePercent float64) error {
	return s.db.RecordEvent(sessionID, kind, timelineSeconds, confidencePercent)
}

func (s *storageAdapter) Close() error {
	return s.db.Close()
}
