// Package store persists the single pending draft and the share
// settings in a local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/karnagebitcoin/share-to-nostr/internal/draft"
)

// currentSchemaVersion is the latest schema version.
// Bump this when adding migrations.
const currentSchemaVersion = 1

// ErrNoDraft is returned when no draft is pending.
var ErrNoDraft = errors.New("no pending draft")

// Settings are the user-tunable sharing preferences.
type Settings struct {
	IncludeSourceURL bool `json:"includeSourceUrl"`
}

// DefaultSettings returns the out-of-the-box preferences.
func DefaultSettings() Settings {
	return Settings{IncludeSourceURL: true}
}

// SettingsPatch carries a partial settings update. Nil fields are left
// unchanged.
type SettingsPatch struct {
	IncludeSourceURL *bool `json:"includeSourceUrl"`
}

// Store holds drafts and settings. There is at most one pending draft;
// saving a new one replaces the old.
type Store struct {
	db *sql.DB
}

// Open initializes the database at baseDir/stn.db, creating the
// directory and running migrations as needed.
func Open(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	_ = os.Chmod(baseDir, 0700)

	dbPath := filepath.Join(baseDir, "stn.db")
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	_ = os.Chmod(dbPath, 0600)

	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version;").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	if version < 1 {
		schema := `
		CREATE TABLE IF NOT EXISTS drafts (
		  slot       INTEGER PRIMARY KEY CHECK (slot = 1),
		  body       TEXT NOT NULL,
		  created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS settings (
		  key   TEXT PRIMARY KEY,
		  value TEXT NOT NULL
		);
		`
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("migration 1 failed: %w", err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version=%d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
	}

	return nil
}

// SaveDraft stores the draft, replacing any existing one.
func (s *Store) SaveDraft(ctx context.Context, d draft.Draft) error {
	body, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (slot, body, created_at) VALUES (1, ?, ?)
		ON CONFLICT(slot) DO UPDATE SET body = excluded.body, created_at = excluded.created_at`,
		string(body), d.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// Draft returns the pending draft, or ErrNoDraft when there is none.
func (s *Store) Draft(ctx context.Context) (draft.Draft, error) {
	var body string
	err := s.db.QueryRowContext(ctx, "SELECT body FROM drafts WHERE slot = 1").Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return draft.Draft{}, ErrNoDraft
	}
	if err != nil {
		return draft.Draft{}, fmt.Errorf("load draft: %w", err)
	}

	var d draft.Draft
	if err := json.Unmarshal([]byte(body), &d); err != nil {
		return draft.Draft{}, fmt.Errorf("decode draft: %w", err)
	}
	return d, nil
}

// ClearDraft removes the pending draft. Clearing an empty store is not
// an error.
func (s *Store) ClearDraft(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM drafts WHERE slot = 1"); err != nil {
		return fmt.Errorf("clear draft: %w", err)
	}
	return nil
}

const settingsKey = "share"

// Settings returns the stored preferences, falling back to defaults for
// anything unset or unreadable.
func (s *Store) Settings(ctx context.Context) (Settings, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", settingsKey).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return DefaultSettings(), nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("load settings: %w", err)
	}

	settings := DefaultSettings()
	if err := json.Unmarshal([]byte(value), &settings); err != nil {
		return DefaultSettings(), nil
	}
	return settings, nil
}

// PatchSettings merges the patch into the stored settings and returns
// the result.
func (s *Store) PatchSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	settings, err := s.Settings(ctx)
	if err != nil {
		return Settings{}, err
	}

	if patch.IncludeSourceURL != nil {
		settings.IncludeSourceURL = *patch.IncludeSourceURL
	}

	value, err := json.Marshal(settings)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		settingsKey, string(value))
	if err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	return settings, nil
}
