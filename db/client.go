package db

// API Key Storage
//
// The detect endpoints are authenticated with API keys. Keys live in either
// SQLite (default, single-node deployments) or MongoDB (shared deployments);
// both stores implement KeyStore and are selected with the DB_TYPE
// environment variable. Detection results themselves are never persisted,
// only credentials are.

import (
	"fmt"
	"path/filepath"
	"strings"

	"voice-detection/models"
	"voice-detection/utils"
)

// KeyStore manages API key credentials.
type KeyStore interface {
	Close() error

	// CreateKey mints and stores a new key for owner.
	CreateKey(owner string) (models.APIKey, error)

	// ValidateKey reports whether key exists and is not revoked. A valid
	// lookup also stamps the key's last use.
	ValidateKey(key string) (bool, error)

	// RevokeKey permanently disables key.
	RevokeKey(key string) error

	// ListKeys returns every stored key, newest first.
	ListKeys() ([]models.APIKey, error)

	// SeedKeys inserts pre-shared keys, skipping ones already present.
	SeedKeys(keys []string) error
}

// NewKeyStore builds the store selected by the DB_TYPE environment variable.
func NewKeyStore() (KeyStore, error) {
	dbType := strings.ToLower(utils.GetEnv("DB_TYPE", "sqlite"))

	switch dbType {
	case "sqlite":
		dbPath := utils.GetEnv("SQLITE_DB_PATH", filepath.Join("db", "voice-detection.db"))
		return NewSQLiteKeyStore(dbPath)
	case "mongo":
		dbURI := utils.GetEnv("DB_URI", "mongodb://localhost:27017")
		dbName := utils.GetEnv("DB_NAME", "voice-detection")
		return NewMongoKeyStore(dbURI, dbName)
	default:
		return nil, fmt.Errorf("unsupported DB_TYPE value %q, expected sqlite or mongo", dbType)
	}
}

// SeedFromEnv loads comma-separated keys from the API_KEYS environment
// variable into store. Missing or empty values are not an error.
func SeedFromEnv(store KeyStore) error {
	raw := utils.GetEnv("API_KEYS", "")
	if raw == "" {
		return nil
	}

	var keys []string
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key != "" {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}

	return store.SeedKeys(keys)
}
