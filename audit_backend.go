// audit_backend.go: Storage backends for the audit trail
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"bufio"
	"database/sql"
	"encoding/json"
	goerrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/agilira/go-errors"
	_ "github.com/mattn/go-sqlite3" // SQLite driver registration
)

// auditTimeLayout sorts lexicographically in timestamp order.
const auditTimeLayout = "2006-01-02T15:04:05.000000000Z"

// auditBackend stores audit events.
type auditBackend interface {
	Write(events []AuditEvent) error
	Flush() error
	Close() error

	// Maintenance removes events older than retention and returns how
	// many were removed.
	Maintenance(retention time.Duration) (int64, error)

	GetStats() (*AuditStats, error)
	Query(filter AuditFilter) ([]AuditEvent, error)
}

// AuditStats summarizes an audit store
type AuditStats struct {
	TotalEvents       int64            `json:"total_events"`
	EventsByLevel     map[string]int64 `json:"events_by_level"`
	EventsByComponent map[string]int64 `json:"events_by_component"`
	OldestEvent       *time.Time       `json:"oldest_event,omitempty"`
	NewestEvent       *time.Time       `json:"newest_event,omitempty"`
	StorageSize       int64            `json:"storage_size_bytes"`
	SchemaVersion     int              `json:"schema_version"`
}

// AuditFilter selects events in Query. Zero fields do not filter.
type AuditFilter struct {
	Since     time.Time
	Event     string
	Component string
	Limit     int
}

func (f AuditFilter) match(e AuditEvent) bool {
	if !f.Since.IsZero() && e.Timestamp.Before(f.Since) {
		return false
	}
	if f.Event != "" && e.Event != f.Event {
		return false
	}
	if f.Component != "" && e.Component != f.Component {
		return false
	}
	return true
}

// createAuditBackend picks JSONL for a ".jsonl" output file and SQLite
// otherwise, falling back to JSONL when SQLite cannot be opened.
func createAuditBackend(config AuditConfig) (auditBackend, error) {
	if filepath.Ext(config.OutputFile) == ".jsonl" {
		return newJSONLBackend(config.OutputFile)
	}

	backend, err := newSQLiteBackend(auditDatabasePath(config))
	if err == nil {
		return backend, nil
	}
	if config.OutputFile == "" {
		return nil, err
	}

	jsonl, jerr := newJSONLBackend(config.OutputFile + ".jsonl")
	if jerr != nil {
		return nil, goerrors.Join(err, jerr)
	}
	return jsonl, nil
}

func auditDatabasePath(config AuditConfig) string {
	if config.OutputFile != "" {
		return config.OutputFile
	}
	return filepath.Join(os.TempDir(), "hestia", "audit.db")
}

// QueryAuditTrail reads events from the audit store at path, newest first.
func QueryAuditTrail(path string, filter AuditFilter) ([]AuditEvent, error) {
	backend, err := openAuditStore(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = backend.Close() }()
	return backend.Query(filter)
}

// AuditTrailStats summarizes the audit store at path.
func AuditTrailStats(path string) (*AuditStats, error) {
	backend, err := openAuditStore(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = backend.Close() }()
	return backend.GetStats()
}

// PruneAuditTrail removes events older than retention from the store at path.
func PruneAuditTrail(path string, retention time.Duration) (int64, error) {
	backend, err := openAuditStore(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = backend.Close() }()
	return backend.Maintenance(retention)
}

func openAuditStore(path string) (auditBackend, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, ErrCodeIOError, "audit store not found").
			WithContext("path", path)
	}
	return createAuditBackend(AuditConfig{Enabled: true, OutputFile: path})
}

// sqliteAuditBackend stores events in an SQLite database in WAL mode.
type sqliteAuditBackend struct {
	db         *sql.DB
	dbPath     string
	insertStmt *sql.Stmt
	mu         sync.RWMutex
	closed     bool
}

const auditSchemaVersion = 1

func newSQLiteBackend(dbPath string) (*sqliteAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0750); err != nil {
		return nil, fmt.Errorf("failed to create audit database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping audit database: %w", err)
	}

	s := &sqliteAuditBackend{db: db, dbPath: dbPath}
	if err := s.migrate(); err != nil {
		_ = db.Close()
		return nil, err
	}

	s.insertStmt, err = db.Prepare(`
	INSERT INTO audit_events (
		timestamp, level, event, component, source,
		old_value, new_value, process_id, process_name, context, checksum
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to prepare audit insert statement: %w", err)
	}
	return s, nil
}

// migrate brings the schema to auditSchemaVersion inside one transaction.
func (s *sqliteAuditBackend) migrate() error {
	if _, err := s.db.Exec(`
	CREATE TABLE IF NOT EXISTS schema_info (
		version INTEGER PRIMARY KEY,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return fmt.Errorf("failed to create schema_info table: %w", err)
	}

	var version int
	err := s.db.QueryRow("SELECT version FROM schema_info ORDER BY version DESC LIMIT 1").Scan(&version)
	if err != nil && err != sql.ErrNoRows {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version >= auditSchemaVersion {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin migration: %w", err)
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS audit_events (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp TEXT NOT NULL,
			level TEXT NOT NULL,
			event TEXT NOT NULL,
			component TEXT NOT NULL,
			source TEXT,
			old_value TEXT,
			new_value TEXT,
			process_id INTEGER NOT NULL,
			process_name TEXT NOT NULL,
			context TEXT,
			checksum TEXT
		)`,
		"CREATE INDEX IF NOT EXISTS idx_audit_timestamp ON audit_events(timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_audit_event ON audit_events(event, timestamp)",
		"CREATE INDEX IF NOT EXISTS idx_audit_component ON audit_events(component, timestamp)",
		"INSERT OR REPLACE INTO schema_info (version) VALUES (1)",
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("schema migration to v%d failed: %w", auditSchemaVersion, err)
		}
	}
	return tx.Commit()
}

func (s *sqliteAuditBackend) Write(events []AuditEvent) (err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return fmt.Errorf("cannot write to closed SQLite audit backend")
	}
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin audit transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt := tx.Stmt(s.insertStmt)
	defer func() { _ = stmt.Close() }()

	for _, event := range events {
		if err = insertEvent(stmt, event); err != nil {
			return fmt.Errorf("failed to insert audit event: %w", err)
		}
	}
	return tx.Commit()
}

func marshalOptional(v interface{}) (string, error) {
	if v == nil {
		return "", nil
	}
	data, err := json.Marshal(v)
	return string(data), err
}

func insertEvent(stmt *sql.Stmt, event AuditEvent) error {
	oldValue, err := marshalOptional(event.OldValue)
	if err != nil {
		return err
	}
	newValue, err := marshalOptional(event.NewValue)
	if err != nil {
		return err
	}
	var context string
	if len(event.Context) > 0 {
		if context, err = marshalOptional(event.Context); err != nil {
			return err
		}
	}

	_, err = stmt.Exec(
		event.Timestamp.UTC().Format(auditTimeLayout),
		event.Level.String(),
		event.Event,
		event.Component,
		event.Source,
		oldValue,
		newValue,
		event.ProcessID,
		event.ProcessName,
		context,
		event.Checksum,
	)
	return err
}

func (s *sqliteAuditBackend) Flush() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return nil
	}
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		return fmt.Errorf("failed to flush SQLite audit backend: %w", err)
	}
	return nil
}

func (s *sqliteAuditBackend) Maintenance(retention time.Duration) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return 0, fmt.Errorf("audit backend is closed")
	}
	cutoff := time.Now().Add(-retention).UTC().Format(auditTimeLayout)
	res, err := s.db.Exec("DELETE FROM audit_events WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to remove old audit events: %w", err)
	}
	_, _ = s.db.Exec("PRAGMA optimize")
	return res.RowsAffected()
}

func (s *sqliteAuditBackend) GetStats() (*AuditStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &AuditStats{
		EventsByLevel:     make(map[string]int64),
		EventsByComponent: make(map[string]int64),
		SchemaVersion:     auditSchemaVersion,
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM audit_events").Scan(&stats.TotalEvents); err != nil {
		return nil, fmt.Errorf("failed to count audit events: %w", err)
	}
	if err := s.groupCount("level", stats.EventsByLevel); err != nil {
		return nil, err
	}
	if err := s.groupCount("component", stats.EventsByComponent); err != nil {
		return nil, err
	}

	var oldest, newest sql.NullString
	if err := s.db.QueryRow("SELECT MIN(timestamp), MAX(timestamp) FROM audit_events").Scan(&oldest, &newest); err != nil {
		return nil, fmt.Errorf("failed to read audit time range: %w", err)
	}
	if t, err := time.Parse(auditTimeLayout, oldest.String); oldest.Valid && err == nil {
		stats.OldestEvent = &t
	}
	if t, err := time.Parse(auditTimeLayout, newest.String); newest.Valid && err == nil {
		stats.NewestEvent = &t
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.StorageSize = info.Size()
	}
	return stats, nil
}

// groupCount fills counts with COUNT(*) grouped by column, which is one
// of the fixed column names used by GetStats.
func (s *sqliteAuditBackend) groupCount(column string, counts map[string]int64) error {
	rows, err := s.db.Query("SELECT " + column + ", COUNT(*) FROM audit_events GROUP BY " + column)
	if err != nil {
		return fmt.Errorf("failed to group audit events by %s: %w", column, err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var key string
		var n int64
		if err := rows.Scan(&key, &n); err != nil {
			return err
		}
		counts[key] = n
	}
	return rows.Err()
}

func (s *sqliteAuditBackend) Query(filter AuditFilter) ([]AuditEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	limit := filter.Limit
	if limit <= 0 {
		limit = -1
	}
	since := ""
	if !filter.Since.IsZero() {
		since = filter.Since.UTC().Format(auditTimeLayout)
	}

	rows, err := s.db.Query(`
	SELECT timestamp, level, event, component, source, old_value, new_value,
		process_id, process_name, context, checksum
	FROM audit_events
	WHERE timestamp >= ? AND (? = '' OR event = ?) AND (? = '' OR component = ?)
	ORDER BY id DESC LIMIT ?`,
		since, filter.Event, filter.Event, filter.Component, filter.Component, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query audit events: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var events []AuditEvent
	for rows.Next() {
		var (
			ts, level                    string
			source, oldV, newV, ctx, sum sql.NullString
			e                            AuditEvent
		)
		if err := rows.Scan(&ts, &level, &e.Event, &e.Component, &source, &oldV, &newV,
			&e.ProcessID, &e.ProcessName, &ctx, &sum); err != nil {
			return nil, err
		}
		e.Timestamp, _ = time.Parse(auditTimeLayout, ts)
		e.Level, _ = ParseAuditLevel(level)
		e.Source = source.String
		e.Checksum = sum.String
		if oldV.String != "" {
			_ = json.Unmarshal([]byte(oldV.String), &e.OldValue)
		}
		if newV.String != "" {
			_ = json.Unmarshal([]byte(newV.String), &e.NewValue)
		}
		if ctx.String != "" {
			_ = json.Unmarshal([]byte(ctx.String), &e.Context)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (s *sqliteAuditBackend) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		errs = append(errs, err)
	}
	if s.insertStmt != nil {
		if err := s.insertStmt.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := s.db.Close(); err != nil {
		errs = append(errs, err)
	}
	return goerrors.Join(errs...)
}

// jsonlAuditBackend appends one JSON object per line.
type jsonlAuditBackend struct {
	file   *os.File
	path   string
	mu     sync.Mutex
	closed bool
}

func newJSONLBackend(path string) (*jsonlAuditBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("failed to create JSONL audit directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open JSONL audit file: %w", err)
	}
	return &jsonlAuditBackend{file: file, path: path}, nil
}

func (j *jsonlAuditBackend) Write(events []AuditEvent) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return fmt.Errorf("cannot write to closed JSONL audit backend")
	}

	w := bufio.NewWriter(j.file)
	enc := json.NewEncoder(w)
	for _, event := range events {
		if err := enc.Encode(event); err != nil {
			return fmt.Errorf("failed to write audit event: %w", err)
		}
	}
	return w.Flush()
}

func (j *jsonlAuditBackend) Flush() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	return j.file.Sync()
}

// Maintenance is a no-op for JSON lines; rotation belongs to the
// operator's log rotation.
func (j *jsonlAuditBackend) Maintenance(time.Duration) (int64, error) {
	return 0, nil
}

// scan calls fn for every decodable event in the file.
func (j *jsonlAuditBackend) scan(fn func(AuditEvent)) error {
	f, err := os.Open(j.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for sc.Scan() {
		var e AuditEvent
		if json.Unmarshal(sc.Bytes(), &e) == nil {
			fn(e)
		}
	}
	return sc.Err()
}

func (j *jsonlAuditBackend) GetStats() (*AuditStats, error) {
	stats := &AuditStats{
		EventsByLevel:     make(map[string]int64),
		EventsByComponent: make(map[string]int64),
		SchemaVersion:     1,
	}
	err := j.scan(func(e AuditEvent) {
		stats.TotalEvents++
		stats.EventsByLevel[e.Level.String()]++
		stats.EventsByComponent[e.Component]++
		t := e.Timestamp
		if stats.OldestEvent == nil || t.Before(*stats.OldestEvent) {
			stats.OldestEvent = &t
		}
		if stats.NewestEvent == nil || t.After(*stats.NewestEvent) {
			stats.NewestEvent = &t
		}
	})
	if err != nil {
		return nil, err
	}
	if info, err := os.Stat(j.path); err == nil {
		stats.StorageSize = info.Size()
	}
	return stats, nil
}

func (j *jsonlAuditBackend) Query(filter AuditFilter) ([]AuditEvent, error) {
	var all []AuditEvent
	if err := j.scan(func(e AuditEvent) {
		if filter.match(e) {
			all = append(all, e)
		}
	}); err != nil {
		return nil, err
	}

	// newest first
	for i, k := 0, len(all)-1; i < k; i, k = i+1, k-1 {
		all[i], all[k] = all[k], all[i]
	}
	if filter.Limit > 0 && len(all) > filter.Limit {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (j *jsonlAuditBackend) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	return j.file.Close()
}
