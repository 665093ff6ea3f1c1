// Package history records every tool invocation in SQLite. The database
// is opened lazily and created on first use. If opening the DB or
// executing queries fails, the package falls back to in-memory storage.
package history

import (
	"database/sql"
	"os"
	"sync"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"

	"github.com/comigor/hass-tools/internal/logger"
)

var (
	mu          sync.Mutex
	invocations []Invocation // in-memory fallback

	pathMu  sync.Mutex
	dbPath  string
	dbOnce  sync.Once
	db      *sql.DB
	initErr error
)

// SetPath overrides the database location. Effective only before the
// first Save or List.
func SetPath(path string) {
	pathMu.Lock()
	dbPath = path
	pathMu.Unlock()
}

// initDB lazily opens the SQLite database and creates the invocations
// table if it doesn't exist.
func initDB() {
	pathMu.Lock()
	path := dbPath
	pathMu.Unlock()
	if path == "" {
		path = os.Getenv("HISTORY_DB_PATH")
	}
	if path == "" {
		path = "history.db"
	}

	var err error
	db, err = sql.Open("sqlite", "file:"+path+"?_busy_timeout=10000&_fk=1")
	if err != nil {
		initErr = err
		logger.L.Warn("sqlite open failed; using in-memory history", "error", err)
		return
	}
	if _, err = db.Exec(`CREATE TABLE IF NOT EXISTS invocations (
        id TEXT PRIMARY KEY,
        tool TEXT,
        entity TEXT,
        domain TEXT,
        service TEXT,
        status_code INTEGER,
        success INTEGER,
        created_at DATETIME
    );`); err != nil {
		initErr = err
		logger.L.Warn("sqlite table creation failed; using in-memory history", "error", err)
		return
	}
	logger.L.Info("sqlite history DB initialized", "path", path)
}

// Save persists an invocation record, assigning an ID when missing, and
// always keeps an in-memory copy as fallback. The stored record is
// returned.
func Save(inv Invocation) Invocation {
	dbOnce.Do(initDB)

	if inv.ID == "" {
		inv.ID = uuid.NewString()
	}

	if initErr == nil && db != nil {
		_, err := db.Exec(`INSERT INTO invocations (id, tool, entity, domain, service, status_code, success, created_at) VALUES (?,?,?,?,?,?,?,?);`,
			inv.ID, inv.Tool, inv.Entity, inv.Domain, inv.Service, inv.StatusCode, inv.Success, inv.CreatedAt)
		if err != nil {
			logger.L.Error("failed to store invocation in sqlite; falling back to memory", "error", err)
		}
	}

	mu.Lock()
	invocations = append(invocations, inv)
	mu.Unlock()
	return inv
}

// List returns all recorded invocations of one tool in chronological order.
func List(tool string) []Invocation {
	dbOnce.Do(initDB)
	var out []Invocation
	if initErr == nil && db != nil {
		rows, err := db.Query(`SELECT id, tool, entity, domain, service, status_code, success, created_at FROM invocations WHERE tool = ? ORDER BY created_at ASC;`, tool)
		if err == nil {
			defer rows.Close()
			for rows.Next() {
				var inv Invocation
				if err := rows.Scan(&inv.ID, &inv.Tool, &inv.Entity, &inv.Domain, &inv.Service, &inv.StatusCode, &inv.Success, &inv.CreatedAt); err == nil {
					out = append(out, inv)
				}
			}
			return out
		}
	}
	mu.Lock()
	for _, inv := range invocations {
		if inv.Tool == tool {
			out = append(out, inv)
		}
	}
	mu.Unlock()
	return out
}
