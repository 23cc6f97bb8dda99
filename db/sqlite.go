package db

import (
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"voice-detection/models"
	"voice-detection/utils"

	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

type SQLiteKeyStore struct {
	db *sql.DB
}

func NewSQLiteKeyStore(dataSourceName string) (*SQLiteKeyStore, error) {
	// Extract the file path before query parameters
	dbPath := dataSourceName
	if idx := strings.Index(dataSourceName, "?"); idx != -1 {
		dbPath = dataSourceName[:idx]
	}

	// Create the directory if it doesn't exist (cross-platform)
	dbDir := filepath.Dir(dbPath)
	if dbDir != "." && dbDir != "" {
		if err := utils.CreateFolder(dbDir); err != nil {
			return nil, fmt.Errorf("error creating database directory: %s", err)
		}
	}

	// Add busy timeout param to DSN (milliseconds)
	if !strings.Contains(dataSourceName, "_busy_timeout") {
		if strings.Contains(dataSourceName, "?") {
			dataSourceName += "&_busy_timeout=5000" // 5 seconds
		} else {
			dataSourceName += "?_busy_timeout=5000"
		}
	}

	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error connecting to SQLite: %s", err)
	}

	err = createTables(db)
	if err != nil {
		return nil, fmt.Errorf("error creating tables: %s", err)
	}

	return &SQLiteKeyStore{db: db}, nil
}

// createTables creates the required tables if they don't exist
func createTables(db *sql.DB) error {
	createKeysTable := `
    CREATE TABLE IF NOT EXISTS api_keys (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        key TEXT NOT NULL UNIQUE,
        owner TEXT NOT NULL,
        created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
        revoked INTEGER NOT NULL DEFAULT 0,
        last_used_at DATETIME
    );
    CREATE INDEX IF NOT EXISTS idx_api_keys_owner ON api_keys(owner);
    `

	_, err := db.Exec(createKeysTable)
	if err != nil {
		return fmt.Errorf("error creating api_keys table: %s", err)
	}

	return nil
}

func (s *SQLiteKeyStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteKeyStore) CreateKey(owner string) (models.APIKey, error) {
	key := utils.GenerateAPIKey()
	createdAt := time.Now().UTC()

	result, err := s.db.Exec(
		"INSERT INTO api_keys (key, owner, created_at) VALUES (?, ?, ?)",
		key, owner, createdAt,
	)
	if err != nil {
		// Check for constraint violation by examining error message (cross-platform compatible)
		errMsg := err.Error()
		if strings.Contains(errMsg, "UNIQUE constraint") || strings.Contains(errMsg, "constraint failed") {
			return models.APIKey{}, fmt.Errorf("key already exists: %v", err)
		}
		return models.APIKey{}, fmt.Errorf("failed to store key: %v", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return models.APIKey{}, fmt.Errorf("failed to read key id: %v", err)
	}

	return models.APIKey{
		ID:        id,
		Key:       key,
		Owner:     owner,
		CreatedAt: createdAt,
	}, nil
}

func (s *SQLiteKeyStore) ValidateKey(key string) (bool, error) {
	var revoked int
	err := s.db.QueryRow("SELECT revoked FROM api_keys WHERE key = ?", key).Scan(&revoked)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("error looking up key: %s", err)
	}
	if revoked != 0 {
		return false, nil
	}

	if _, err := s.db.Exec("UPDATE api_keys SET last_used_at = ? WHERE key = ?", time.Now().UTC(), key); err != nil {
		return false, fmt.Errorf("error stamping key use: %s", err)
	}

	return true, nil
}

func (s *SQLiteKeyStore) RevokeKey(key string) error {
	result, err := s.db.Exec("UPDATE api_keys SET revoked = 1 WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("error revoking key: %s", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking revocation: %s", err)
	}
	if affected == 0 {
		return fmt.Errorf("key not found")
	}

	return nil
}

func (s *SQLiteKeyStore) ListKeys() ([]models.APIKey, error) {
	rows, err := s.db.Query(`
		SELECT id, key, owner, created_at, revoked, last_used_at
		FROM api_keys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("error querying keys: %s", err)
	}
	defer rows.Close()

	var keys []models.APIKey
	for rows.Next() {
		var apiKey models.APIKey
		var revoked int
		var lastUsed sql.NullTime

		err := rows.Scan(
			&apiKey.ID,
			&apiKey.Key,
			&apiKey.Owner,
			&apiKey.CreatedAt,
			&revoked,
			&lastUsed,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning key: %s", err)
		}

		apiKey.Revoked = revoked == 1
		if lastUsed.Valid {
			used := lastUsed.Time
			apiKey.LastUsedAt = &used
		}

		keys = append(keys, apiKey)
	}

	return keys, nil
}

func (s *SQLiteKeyStore) SeedKeys(keys []string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("error starting transaction: %s", err)
	}

	stmt, err := tx.Prepare("INSERT OR IGNORE INTO api_keys (key, owner, created_at) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("error preparing statement: %s", err)
	}
	defer stmt.Close()

	for _, key := range keys {
		if _, err := stmt.Exec(key, "seed", time.Now().UTC()); err != nil {
			tx.Rollback()
			return fmt.Errorf("error seeding key: %s", err)
		}
	}

	return tx.Commit()
}
