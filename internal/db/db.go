package db

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/tgienger/coreterra/internal/nav"
)

//go:embed schema.sql
var schema string

// Setting keys
const (
	keyToken     = "auth_token"
	keyLastRoute = "last_route"
)

// DB wraps the local database. It holds what the web client kept in browser
// storage: the bearer token, the last screen and a log of notifications.
type DB struct {
	*sqlx.DB
}

// New opens coreterra.db inside dataDir, creating the directory if needed.
// An empty dataDir means DefaultDataDir().
func New(dataDir string) (*DB, error) {
	if dataDir == "" {
		var err error
		dataDir, err = DefaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return Open(filepath.Join(dataDir, "coreterra.db"))
}

// Open opens the database file at path and initializes the schema
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite3", path+"?_foreign_keys=on&_busy_timeout=5000")
	if err != nil {
		return nil, err
	}

	// Initialize schema
	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &DB{conn}, nil
}

// DefaultDataDir returns $XDG_DATA_HOME/coreterra, falling back to
// ~/.local/share/coreterra
func DefaultDataDir() (string, error) {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "coreterra"), nil
}

// GetSetting retrieves a setting value by key
func (db *DB) GetSetting(key string) (string, error) {
	var value string
	err := db.Get(&value, "SELECT value FROM settings WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return value, err
}

// SetSetting sets a setting value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// DeleteSetting removes a setting; deleting a missing key is not an error
func (db *DB) DeleteSetting(key string) error {
	_, err := db.Exec("DELETE FROM settings WHERE key = ?", key)
	return err
}

// Token returns the stored bearer token, or "" when signed out
func (db *DB) Token() (string, error) {
	return db.GetSetting(keyToken)
}

func (db *DB) SetToken(token string) error {
	return db.SetSetting(keyToken, token)
}

func (db *DB) ClearToken() error {
	return db.DeleteSetting(keyToken)
}

// LastRoute returns the screen that was open when the app last quit.
// Unknown or missing values yield the home screen.
func (db *DB) LastRoute() nav.Route {
	v, err := db.GetSetting(keyLastRoute)
	if err != nil || v == "" {
		return nav.RouteHome
	}
	r, err := nav.Parse(v)
	if err != nil || r == nav.RouteLogin {
		return nav.RouteHome
	}
	return r
}

func (db *DB) SetLastRoute(r nav.Route) error {
	return db.SetSetting(keyLastRoute, string(r))
}
