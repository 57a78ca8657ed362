package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/yourorg/oas2postman/pkg/types"
)

type SQLiteStore struct {
	db *sql.DB
	// mu serializes id allocation with the insert that uses it.
	mu sync.Mutex
}

// NewSQLiteStore opens (creating if needed) the database at dsn. A dsn that
// names a file gets its parent directory created.
func NewSQLiteStore(dsn string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dsn); dsn != ":memory:" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	s := &SQLiteStore{db: db}
	if err := s.Init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Init() error {
	if _, err := s.db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		return err
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			source TEXT NOT NULL,
			input TEXT NOT NULL,
			output TEXT NOT NULL,
			format TEXT NOT NULL,
			title TEXT NOT NULL,
			openapi_version TEXT NOT NULL,
			base_url TEXT NOT NULL,
			collection_id TEXT NOT NULL,
			folder_count INTEGER NOT NULL DEFAULT 0,
			request_count INTEGER NOT NULL DEFAULT 0,
			item_count INTEGER NOT NULL DEFAULT 0,
			skipped_count INTEGER NOT NULL DEFAULT 0,
			warnings TEXT NOT NULL,
			status TEXT NOT NULL,
			error_msg TEXT NOT NULL,
			collection BLOB,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created_at);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) CreateRun(run *types.Run, collection []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	id, err := s.nextRunID(now)
	if err != nil {
		return err
	}
	if run.Status == "" {
		run.Status = types.StatusOK
	}
	warnings, err := json.Marshal(run.Warnings)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT INTO runs(id,source,input,output,format,title,openapi_version,base_url,collection_id,folder_count,request_count,item_count,skipped_count,warnings,status,error_msg,collection,created_at) VALUES(?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		id, run.Source, run.Input, run.Output, run.Format, run.Title, run.OpenAPIVersion, run.BaseURL, run.CollectionID,
		run.FolderCount, run.RequestCount, run.ItemCount, run.SkippedCount, string(warnings), run.Status, run.Error, collection, now)
	if err != nil {
		return err
	}
	run.ID, run.CreatedAt = id, now
	return nil
}

// nextRunID returns run_YYYYMMDD_NNN, numbering from 001 each day.
func (s *SQLiteStore) nextRunID(now time.Time) (string, error) {
	prefix := fmt.Sprintf("run_%s_", now.Format("20060102"))
	rows, err := s.db.Query(`SELECT id FROM runs WHERE id LIKE ?`, prefix+"%")
	if err != nil {
		return "", err
	}
	defer rows.Close()
	maxN := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", err
		}
		var n int
		_, _ = fmt.Sscanf(id, prefix+"%03d", &n)
		if n > maxN {
			maxN = n
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%03d", prefix, maxN+1), nil
}

const runColumns = `id,source,input,output,format,title,openapi_version,base_url,collection_id,folder_count,request_count,item_count,skipped_count,warnings,status,error_msg,created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*types.Run, error) {
	var out types.Run
	var warnings string
	if err := row.Scan(&out.ID, &out.Source, &out.Input, &out.Output, &out.Format, &out.Title, &out.OpenAPIVersion, &out.BaseURL, &out.CollectionID,
		&out.FolderCount, &out.RequestCount, &out.ItemCount, &out.SkippedCount, &warnings, &out.Status, &out.Error, &out.CreatedAt); err != nil {
		return nil, err
	}
	if warnings != "" && warnings != "null" {
		_ = json.Unmarshal([]byte(warnings), &out.Warnings)
	}
	return &out, nil
}

func (s *SQLiteStore) GetRun(id string) (*types.Run, error) {
	run, err := scanRun(s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id=?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

func (s *SQLiteStore) ListRuns(limit int) ([]types.Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY created_at DESC, id DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]types.Run, 0)
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) GetCollection(id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRow(`SELECT collection FROM runs WHERE id=?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return data, err
}

func (s *SQLiteStore) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id=?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return errors.New("store is nil")
	}
	return s.db.Close()
}
