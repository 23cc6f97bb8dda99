package db

import (
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *SQLiteKeyStore {
	t.Helper()
	store, err := NewSQLiteKeyStore(filepath.Join(t.TempDir(), "keys.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteKeyLifecycle(t *testing.T) {
	store := newTestStore(t)

	created, err := store.CreateKey("team-asr")
	if err != nil {
		t.Fatalf("failed to create key: %v", err)
	}
	if !strings.HasPrefix(created.Key, "vd_") {
		t.Errorf("expected vd_ prefix, got %q", created.Key)
	}
	if created.Owner != "team-asr" {
		t.Errorf("expected owner team-asr, got %q", created.Owner)
	}

	valid, err := store.ValidateKey(created.Key)
	if err != nil {
		t.Fatalf("failed to validate key: %v", err)
	}
	if !valid {
		t.Error("freshly created key should validate")
	}

	if err := store.RevokeKey(created.Key); err != nil {
		t.Fatalf("failed to revoke key: %v", err)
	}

	valid, err = store.ValidateKey(created.Key)
	if err != nil {
		t.Fatalf("failed to validate key: %v", err)
	}
	if valid {
		t.Error("revoked key must not validate")
	}
}

func TestSQLiteValidateUnknownKey(t *testing.T) {
	store := newTestStore(t)

	valid, err := store.ValidateKey("vd_does_not_exist")
	if err != nil {
		t.Fatalf("unknown keys are not an error: %v", err)
	}
	if valid {
		t.Error("unknown key must not validate")
	}

	if err := store.RevokeKey("vd_does_not_exist"); err == nil {
		t.Error("revoking an unknown key should fail")
	}
}

func TestSQLiteListKeys(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.CreateKey("first"); err != nil {
		t.Fatalf("failed to create key: %v", err)
	}
	if _, err := store.CreateKey("second"); err != nil {
		t.Fatalf("failed to create key: %v", err)
	}

	keys, err := store.ListKeys()
	if err != nil {
		t.Fatalf("failed to list keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %d", len(keys))
	}
	for _, key := range keys {
		if key.Revoked {
			t.Errorf("key %q should not be revoked", key.Key)
		}
		if key.LastUsedAt != nil {
			t.Errorf("unused key %q should have no last use", key.Key)
		}
	}
}

func TestSQLiteSeedKeysIsIdempotent(t *testing.T) {
	store := newTestStore(t)

	seed := []string{"vd_alpha", "vd_beta"}
	if err := store.SeedKeys(seed); err != nil {
		t.Fatalf("failed to seed keys: %v", err)
	}
	if err := store.SeedKeys(seed); err != nil {
		t.Fatalf("re-seeding must not fail: %v", err)
	}

	keys, err := store.ListKeys()
	if err != nil {
		t.Fatalf("failed to list keys: %v", err)
	}
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys after double seed, got %d", len(keys))
	}

	valid, err := store.ValidateKey("vd_alpha")
	if err != nil {
		t.Fatalf("failed to validate seeded key: %v", err)
	}
	if !valid {
		t.Error("seeded key should validate")
	}
}
