// Package archive keeps a SQLite history of imported session files.
package archive

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ieslh/buildcheck/internal/inspection"
	"github.com/ieslh/buildcheck/internal/records"
)

// DB is an open archive database.
type DB struct {
	sql *sql.DB
}

// Source identifies the session file being imported.
type Source struct {
	Name string
	Path string
	// Date is the session date as written in the file name, if any.
	Date string
}

// Import is one archived session.
type Import struct {
	ID         string
	Name       string
	Path       string
	Date       string
	ImportedAt time.Time
	OK         int
	Issue      int
	Rows       int
}

// Issue is an archived slot marked ISSUE.
type Issue struct {
	Session string
	Room    string
	Item    string
	Index   int
	Notes   string
}

// Open opens or creates the archive at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create archive dir: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS sessions (
  id           TEXT PRIMARY KEY,
  name         TEXT NOT NULL UNIQUE,
  path         TEXT NOT NULL,
  session_date TEXT,
  imported_at  TEXT NOT NULL,
  ok_count     INTEGER NOT NULL DEFAULT 0,
  issue_count  INTEGER NOT NULL DEFAULT 0,
  row_count    INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS slots (
  id         INTEGER PRIMARY KEY,
  session_id TEXT NOT NULL,
  room       TEXT NOT NULL,
  item       TEXT NOT NULL,
  idx        INTEGER NOT NULL,
  status     TEXT NOT NULL CHECK (status IN ('','OK','ISSUE')),
  notes      TEXT
);
CREATE INDEX IF NOT EXISTS idx_slots_session ON slots(session_id);
CREATE INDEX IF NOT EXISTS idx_slots_status ON slots(status);
    `); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &DB{sql: db}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// ImportSession stores recs under a fresh import id. A session already
// archived under the same name is replaced.
func (d *DB) ImportSession(ctx context.Context, src Source, recs []records.Record) (imp Import, err error) {
	imp = Import{
		ID:         uuid.NewString(),
		Name:       src.Name,
		Path:       src.Path,
		Date:       src.Date,
		ImportedAt: time.Now().UTC(),
		Rows:       len(recs),
	}
	for _, rec := range recs {
		switch rec.Status {
		case inspection.StatusOK:
			imp.OK++
		case inspection.StatusIssue:
			imp.Issue++
		}
	}

	tx, err := d.sql.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return Import{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM slots WHERE session_id IN (SELECT id FROM sessions WHERE name = ?)`, src.Name); err != nil {
		return Import{}, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM sessions WHERE name = ?`, src.Name); err != nil {
		return Import{}, err
	}
	_, err = tx.ExecContext(ctx, `INSERT INTO sessions(id, name, path, session_date, imported_at, ok_count, issue_count, row_count) VALUES(?,?,?,?,?,?,?,?)`,
		imp.ID, imp.Name, imp.Path, nullIfEmpty(imp.Date), imp.ImportedAt.Format(time.RFC3339Nano), imp.OK, imp.Issue, imp.Rows)
	if err != nil {
		return Import{}, err
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO slots(session_id, room, item, idx, status, notes) VALUES(?,?,?,?,?,?)`)
	if err != nil {
		return Import{}, err
	}
	defer stmt.Close()
	for _, rec := range recs {
		if _, err = stmt.ExecContext(ctx, imp.ID, rec.Room, rec.Item, rec.Index, string(rec.Status), nullIfEmpty(rec.Notes)); err != nil {
			return Import{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return Import{}, err
	}
	return imp, nil
}

// Sessions lists archived sessions, most recently imported first.
func (d *DB) Sessions(ctx context.Context) ([]Import, error) {
	rows, err := d.sql.QueryContext(ctx, `SELECT id, name, path, session_date, imported_at, ok_count, issue_count, row_count FROM sessions ORDER BY imported_at DESC, name DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		var (
			imp        Import
			date       sql.NullString
			importedAt string
		)
		if err := rows.Scan(&imp.ID, &imp.Name, &imp.Path, &date, &importedAt, &imp.OK, &imp.Issue, &imp.Rows); err != nil {
			return nil, err
		}
		imp.Date = date.String
		if t, perr := time.Parse(time.RFC3339Nano, importedAt); perr == nil {
			imp.ImportedAt = t
		}
		out = append(out, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Issues lists archived ISSUE slots. An empty session name lists them for
// every archived session.
func (d *DB) Issues(ctx context.Context, session string) ([]Issue, error) {
	q := `SELECT s.name, r.room, r.item, r.idx, r.notes FROM slots r JOIN sessions s ON s.id = r.session_id WHERE r.status = 'ISSUE'`
	var args []any
	if session != "" {
		q += ` AND s.name = ?`
		args = append(args, session)
	}
	q += ` ORDER BY s.name, r.room, r.item, r.idx`

	rows, err := d.sql.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Issue
	for rows.Next() {
		var (
			is    Issue
			notes sql.NullString
		)
		if err := rows.Scan(&is.Session, &is.Room, &is.Item, &is.Index, &notes); err != nil {
			return nil, err
		}
		is.Notes = notes.String
		out = append(out, is)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
