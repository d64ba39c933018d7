// Package history keeps the execution journal: one record per command that
// actually spawned a process.
package history

import (
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/doeshing/wintool/internal/domain"
	"github.com/doeshing/wintool/internal/pkg/filesystem"
	"github.com/doeshing/wintool/internal/ports"
)

// SQLiteStore persists the journal in a SQLite database. When the database
// cannot be opened it degrades to a JSONL FileStore next to it.
type SQLiteStore struct {
	db       *sql.DB
	path     string
	fallback *FileStore
	mu       sync.Mutex
}

// DefaultPath is ~/.wintool/history/history.db.
func DefaultPath() string {
	return filepath.Join(filesystem.UserHomeDir(), ".wintool", "history", "history.db")
}

// NewSQLiteStore creates (or opens) the database at path, DefaultPath when empty.
func NewSQLiteStore(path string) *SQLiteStore {
	if path == "" {
		path = DefaultPath()
	}
	fallback := NewFileStore(strings.TrimSuffix(path, filepath.Ext(path)) + ".jsonl")
	if err := os.MkdirAll(filepath.Dir(path), domain.DirectoryPermissions); err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &SQLiteStore{path: path, fallback: fallback}
	}
	store := &SQLiteStore{db: db, path: path}
	if err := store.init(); err != nil {
		_ = db.Close()
		return &SQLiteStore{path: path, fallback: fallback}
	}
	return store
}

func (s *SQLiteStore) init() error {
	if s.db == nil {
		return os.ErrInvalid
	}
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS executions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		ts INTEGER,
		dialect TEXT,
		kind TEXT,
		command TEXT,
		strategy TEXT,
		success INTEGER,
		exit_code INTEGER,
		error_kind TEXT,
		error TEXT,
		expected_failure INTEGER,
		execution_time_ms INTEGER
	);`)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS executions_ts ON executions (ts)`)
	return err
}

// Save inserts a new record.
func (s *SQLiteStore) Save(record domain.ExecutionRecord) error {
	if s.db == nil {
		return s.fallback.Save(record)
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec(`INSERT INTO executions
		(ts, dialect, kind, command, strategy, success, exit_code, error_kind, error, expected_failure, execution_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.Timestamp.UnixMilli(),
		string(record.Dialect),
		record.Kind,
		record.Command,
		record.Strategy,
		boolToInt(record.Success),
		record.ExitCode,
		string(record.ErrorKind),
		record.Error,
		boolToInt(record.ExpectedFailure),
		record.ExecutionTimeMS,
	)
	return err
}

// Records returns journal entries newest first (limit/search optional).
func (s *SQLiteStore) Records(limit int, search string) ([]domain.ExecutionRecord, error) {
	if s.db == nil {
		return s.fallback.Records(limit, search)
	}
	builder := strings.Builder{}
	builder.WriteString(`SELECT ts, dialect, kind, command, strategy, success, exit_code, error_kind, error, expected_failure, execution_time_ms FROM executions`)
	var args []interface{}
	if search != "" {
		builder.WriteString(" WHERE command LIKE ? OR error LIKE ?")
		args = append(args, "%"+search+"%", "%"+search+"%")
	}
	builder.WriteString(" ORDER BY ts DESC, id DESC")
	if limit > 0 {
		builder.WriteString(" LIMIT ?")
		args = append(args, limit)
	}
	rows, err := s.db.Query(builder.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var records []domain.ExecutionRecord
	for rows.Next() {
		var rec domain.ExecutionRecord
		var ts int64
		var dialect, errorKind string
		var success, expected int
		if err := rows.Scan(&ts, &dialect, &rec.Kind, &rec.Command, &rec.Strategy, &success, &rec.ExitCode, &errorKind, &rec.Error, &expected, &rec.ExecutionTimeMS); err != nil {
			return nil, err
		}
		rec.Timestamp = time.UnixMilli(ts)
		rec.Dialect = domain.Dialect(dialect)
		rec.ErrorKind = domain.ErrorKind(errorKind)
		rec.Success = success == 1
		rec.ExpectedFailure = expected == 1
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Prune deletes records older than before.
func (s *SQLiteStore) Prune(before time.Time) (int64, error) {
	if s.db == nil {
		return s.fallback.Prune(before)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	res, err := s.db.Exec("DELETE FROM executions WHERE ts < ?", before.UnixMilli())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Clear deletes all journal entries.
func (s *SQLiteStore) Clear() error {
	if s.db == nil {
		return s.fallback.Clear()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.db.Exec("DELETE FROM executions")
	return err
}

// ExportJSON writes the journal to a jsonl file.
func (s *SQLiteStore) ExportJSON(dest string) error {
	records, err := s.Records(0, "")
	if err != nil {
		return err
	}
	return writeJSONL(dest, records)
}

// Path returns the database path, or the JSONL path after a fallback.
func (s *SQLiteStore) Path() string {
	if s.db == nil {
		return s.fallback.Path()
	}
	return s.path
}

// Degraded reports whether the store fell back to JSONL.
func (s *SQLiteStore) Degraded() bool {
	return s.db == nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func writeJSONL(dest string, records []domain.ExecutionRecord) error {
	file, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer file.Close()
	enc := json.NewEncoder(file)
	for _, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return err
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

var _ ports.HistoryRepository = (*SQLiteStore)(nil)
