package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"mcpchat/config"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const activeServerKey = "active_server"

// ServerStore persists MCP server configurations and which one is active.
type ServerStore struct {
	db *sql.DB
}

func NewServerStore(dataDir string) (*ServerStore, error) {
	dbPath := filepath.Join(dataDir, "servers.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &ServerStore{db: db}
	if err := store.initialize(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	return store, nil
}

func (s *ServerStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS servers (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		command TEXT NOT NULL DEFAULT '',
		args TEXT NOT NULL DEFAULT '[]',
		env TEXT NOT NULL DEFAULT '{}',
		path TEXT NOT NULL DEFAULT '',
		url TEXT NOT NULL DEFAULT '',
		headers TEXT NOT NULL DEFAULT '{}',
		enabled INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *ServerStore) Close() error {
	return s.db.Close()
}

// Save inserts or updates a server. A missing ID is generated and returned.
func (s *ServerStore) Save(server config.ServerConfig) (string, error) {
	if server.Name == "" {
		return "", fmt.Errorf("server name cannot be empty")
	}
	if server.ID == "" {
		server.ID = uuid.New().String()
	}

	args, err := json.Marshal(server.Args)
	if err != nil {
		return "", fmt.Errorf("failed to encode args: %w", err)
	}
	env, err := json.Marshal(server.Env)
	if err != nil {
		return "", fmt.Errorf("failed to encode env: %w", err)
	}
	headers, err := json.Marshal(server.Headers)
	if err != nil {
		return "", fmt.Errorf("failed to encode headers: %w", err)
	}

	now := time.Now()
	query := `
	INSERT INTO servers (id, name, kind, command, args, env, path, url, headers, enabled, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		kind = excluded.kind,
		command = excluded.command,
		args = excluded.args,
		env = excluded.env,
		path = excluded.path,
		url = excluded.url,
		headers = excluded.headers,
		enabled = excluded.enabled,
		updated_at = excluded.updated_at
	`
	_, err = s.db.Exec(query,
		server.ID,
		server.Name,
		server.Kind,
		server.Command,
		string(args),
		string(env),
		server.Path,
		server.URL,
		string(headers),
		server.Enabled,
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to save server %s: %w", server.Name, err)
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Storage] Saved server '%s' (%s)", server.Name, server.ID)
	}
	return server.ID, nil
}

const selectServer = `
	SELECT id, name, kind, command, args, env, path, url, headers, enabled
	FROM servers
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanServer(row rowScanner) (config.ServerConfig, error) {
	var server config.ServerConfig
	var args, env, headers string

	err := row.Scan(
		&server.ID,
		&server.Name,
		&server.Kind,
		&server.Command,
		&args,
		&env,
		&server.Path,
		&server.URL,
		&headers,
		&server.Enabled,
	)
	if err != nil {
		return server, err
	}

	if err := json.Unmarshal([]byte(args), &server.Args); err != nil {
		return server, fmt.Errorf("corrupt args for %s: %w", server.Name, err)
	}
	if err := json.Unmarshal([]byte(env), &server.Env); err != nil {
		return server, fmt.Errorf("corrupt env for %s: %w", server.Name, err)
	}
	if err := json.Unmarshal([]byte(headers), &server.Headers); err != nil {
		return server, fmt.Errorf("corrupt headers for %s: %w", server.Name, err)
	}
	return server, nil
}

// Get returns the server with the given ID, or nil if there is none.
func (s *ServerStore) Get(id string) (*config.ServerConfig, error) {
	return s.queryOne(selectServer+` WHERE id = ?`, id)
}

// FindByName returns the server with the given name, or nil if there is none.
func (s *ServerStore) FindByName(name string) (*config.ServerConfig, error) {
	return s.queryOne(selectServer+` WHERE name = ?`, name)
}

func (s *ServerStore) queryOne(query string, arg string) (*config.ServerConfig, error) {
	server, err := scanServer(s.db.QueryRow(query, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &server, nil
}

// List returns all servers in insertion order.
func (s *ServerStore) List() ([]config.ServerConfig, error) {
	rows, err := s.db.Query(selectServer + ` ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var servers []config.ServerConfig
	for rows.Next() {
		server, err := scanServer(rows)
		if err != nil {
			return nil, err
		}
		servers = append(servers, server)
	}
	return servers, rows.Err()
}

// Delete removes a server and clears the active selection if it pointed at it.
func (s *ServerStore) Delete(id string) error {
	if _, err := s.db.Exec(`DELETE FROM servers WHERE id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM settings WHERE key = ? AND value = ?`, activeServerKey, id)
	return err
}

// SetActive records which server the session should connect to.
func (s *ServerStore) SetActive(id string) error {
	server, err := s.Get(id)
	if err != nil {
		return err
	}
	if server == nil {
		return fmt.Errorf("server %s not found", id)
	}

	_, err = s.db.Exec(`
	INSERT INTO settings (key, value) VALUES (?, ?)
	ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, activeServerKey, id)
	return err
}

// Active returns the selected server, falling back to the first enabled one.
// It returns nil when nothing is configured.
func (s *ServerStore) Active() (*config.ServerConfig, error) {
	var id string
	err := s.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, activeServerKey).Scan(&id)
	switch {
	case err == nil:
		server, err := s.Get(id)
		if err != nil || server != nil {
			return server, err
		}
	case !errors.Is(err, sql.ErrNoRows):
		return nil, err
	}

	servers, err := s.List()
	if err != nil {
		return nil, err
	}
	for i := range servers {
		if servers[i].Enabled {
			return &servers[i], nil
		}
	}
	return nil, nil
}

// Seed copies servers from the config file into an empty store. It also
// applies the configured active server name if one was given.
func (s *ServerStore) Seed(servers []config.ServerConfig, activeName string) error {
	existing, err := s.List()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, server := range servers {
		id, err := s.Save(server)
		if err != nil {
			return err
		}
		if server.Name == activeName {
			if err := s.SetActive(id); err != nil {
				return err
			}
		}
	}

	if config.DebugLog != nil {
		config.DebugLog.Printf("[Storage] Seeded %d servers from config", len(servers))
	}
	return nil
}
