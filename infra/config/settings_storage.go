package config

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ErrSettingNotFound is returned when no record exists under the given name.
var ErrSettingNotFound = errors.New("setting not found")

// SettingsStorage is a key-value record store backed by SQLite. Each record
// is stored as a JSON document under a unique name.
type SettingsStorage struct {
	db   *sql.DB
	path string
	mu   sync.Mutex
}

// NewSettingsStorage opens (or creates) the settings database at dbPath.
func NewSettingsStorage(dbPath string) (*SettingsStorage, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	// WAL and a generous busy timeout keep concurrent readers happy.
	connStr := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_timeout=20000&_txlock=immediate", dbPath)

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(0)

	storage := &SettingsStorage{
		db:   db,
		path: dbPath,
	}

	if err := storage.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return storage, nil
}

// initSchema creates the settings table
func (s *SettingsStorage) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		value TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_settings_name ON settings(name);
	`

	_, err := s.db.Exec(query)
	return err
}

// retryOperation executes a database operation with retry logic for SQLITE_BUSY errors
func (s *SettingsStorage) retryOperation(operation func() error, maxRetries int) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		if strings.Contains(err.Error(), "SQLITE_BUSY") || strings.Contains(err.Error(), "database is locked") {
			lastErr = err
			if attempt < maxRetries {
				// Exponential backoff: 10ms, 20ms, 40ms
				backoff := time.Duration(10*(1<<attempt)) * time.Millisecond
				log.Printf("SQLite busy, retrying in %v (attempt %d/%d)", backoff, attempt+1, maxRetries+1)
				time.Sleep(backoff)
				continue
			}
		} else {
			return err
		}
	}

	return fmt.Errorf("operation failed after %d retries, last error: %w", maxRetries+1, lastErr)
}

// SaveSetting stores value as a JSON document under name, replacing any
// existing record wholesale.
func (s *SettingsStorage) SaveSetting(name string, value any) error {
	if name == "" {
		return errors.New("setting name cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal setting %s: %w", name, err)
	}

	return s.retryOperation(func() error {
		query := `
		INSERT INTO settings (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(name)
		DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
		`

		if _, err := s.db.Exec(query, name, string(payload)); err != nil {
			return fmt.Errorf("failed to save setting %s: %w", name, err)
		}
		return nil
	}, 3)
}

// LoadSetting reads the record stored under name into out. Returns
// ErrSettingNotFound when no record exists.
func (s *SettingsStorage) LoadSetting(name string, out any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		var payload string
		err := s.db.QueryRow("SELECT value FROM settings WHERE name = ?", name).Scan(&payload)
		if err != nil {
			if err == sql.ErrNoRows {
				return ErrSettingNotFound
			}
			return fmt.Errorf("failed to load setting %s: %w", name, err)
		}

		if err := json.Unmarshal([]byte(payload), out); err != nil {
			return fmt.Errorf("failed to unmarshal setting %s: %w", name, err)
		}
		return nil
	}, 3)
}

// DeleteSetting removes the record stored under name.
func (s *SettingsStorage) DeleteSetting(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.retryOperation(func() error {
		result, err := s.db.Exec("DELETE FROM settings WHERE name = ?", name)
		if err != nil {
			return fmt.Errorf("failed to delete setting %s: %w", name, err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrSettingNotFound
		}
		return nil
	}, 3)
}

// Close closes the database connection
func (s *SettingsStorage) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
