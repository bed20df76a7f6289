// Package store provides SQLite-backed persistence for client-local state:
// the project directories the user has selected before.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fentz26/agent7/internal/models"
	_ "modernc.org/sqlite"
)

// Store provides access to the agent7 SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a new Store and runs migrations.
func New(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &Store{db: db, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks the database connection is alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS recent_projects (
		directory TEXT PRIMARY KEY,
		project_id INTEGER NOT NULL,
		last_selected_at DATETIME NOT NULL,
		times_selected INTEGER NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_recent_projects_last ON recent_projects(last_selected_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

// RecordSelection remembers that directory was selected as projectID.
func (s *Store) RecordSelection(ctx context.Context, directory string, projectID int64) error {
	if directory == "" {
		return fmt.Errorf("directory required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recent_projects (directory, project_id, last_selected_at, times_selected)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT(directory) DO UPDATE SET
			project_id = excluded.project_id,
			last_selected_at = excluded.last_selected_at,
			times_selected = recent_projects.times_selected + 1`,
		directory, projectID, s.now(),
	)
	if err != nil {
		return fmt.Errorf("record selection: %w", err)
	}
	return nil
}

// RecentProjects returns up to limit directories, most recently selected first.
// A non-positive limit returns all of them.
func (s *Store) RecentProjects(ctx context.Context, limit int) ([]models.RecentProject, error) {
	query := `SELECT directory, project_id, last_selected_at, times_selected FROM recent_projects ORDER BY last_selected_at DESC`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query recent projects: %w", err)
	}
	defer rows.Close()

	var out []models.RecentProject
	for rows.Next() {
		var p models.RecentProject
		if err := rows.Scan(&p.Directory, &p.ProjectID, &p.LastSelectedAt, &p.TimesSelected); err != nil {
			return nil, fmt.Errorf("scan recent project: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ForgetProject removes a directory from the recent list.
func (s *Store) ForgetProject(ctx context.Context, directory string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM recent_projects WHERE directory = ?`, directory)
	return err
}
