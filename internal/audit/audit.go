// Package audit records every document request in a SQLite log.
package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Actions recorded by the gateway and MCP tools.
const (
	ActionAnalyze = "analyze"
	ActionChat    = "chat"
	ActionUpload  = "upload"
)

type Auditor struct {
	db *sql.DB
}

type Entry struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Source    string    `json:"source"`
	Input     string    `json:"input"`
	Output    string    `json:"output"`
	Error     string    `json:"error,omitempty"`
	Duration  int64     `json:"duration_ms"`
	Timestamp time.Time `json:"timestamp"`
}

// NewAuditor opens (or creates) the audit database at path.
func NewAuditor(path string) (*Auditor, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		action TEXT NOT NULL,
		source TEXT,
		input TEXT,
		output TEXT,
		error TEXT,
		duration_ms INTEGER,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &Auditor{db: db}, nil
}

// Log records one request. input and output are stored as JSON. A nil
// Auditor discards everything, so callers need not check whether auditing
// is enabled. Write failures are logged, never returned.
func (a *Auditor) Log(action, source string, input, output any, started time.Time, err error) {
	if a == nil || a.db == nil {
		return
	}
	var errStr string
	if err != nil {
		errStr = err.Error()
	}
	_, err = a.db.Exec(
		"INSERT INTO audit_log (action, source, input, output, error, duration_ms) VALUES (?, ?, ?, ?, ?, ?)",
		action, source, encode(input), encode(output), errStr, time.Since(started).Milliseconds(),
	)
	if err != nil {
		log.Printf("Failed to write audit log: %v", err)
	}
}

func encode(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

// GetLogs returns the newest entries first.
func (a *Auditor) GetLogs(limit int) ([]Entry, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	rows, err := a.db.Query("SELECT id, action, source, input, output, error, duration_ms, timestamp FROM audit_log ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.Action, &e.Source, &e.Input, &e.Output, &e.Error, &e.Duration, &e.Timestamp); err != nil {
			continue
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (a *Auditor) Close() {
	if a != nil && a.db != nil {
		a.db.Close()
	}
}
