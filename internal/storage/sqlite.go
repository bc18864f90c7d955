package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/matsen/refmerge/internal/conflict"
	"github.com/matsen/refmerge/internal/diff"
	"github.com/matsen/refmerge/internal/engine"
)

// ErrNotFound is returned when a session does not exist.
var ErrNotFound = errors.New("session not found")

// DB wraps a SQLite database of merge sessions.
type DB struct {
	db *sql.DB
}

// Session is a stored merge session.
type Session struct {
	ID           string          `json:"id"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
	OriginalName string          `json:"original_name"`
	UpdatedName  string          `json:"updated_name"`
	Snapshot     engine.Snapshot `json:"snapshot"`
}

// Summary is a session listing entry without the snapshot.
type Summary struct {
	ID           string    `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	OriginalName string    `json:"original_name"`
	UpdatedName  string    `json:"updated_name"`
	Runs         int       `json:"runs"`
}

// Run is one recorded merge of a session.
type Run struct {
	ID        int64               `json:"id"`
	SessionID string              `json:"session_id"`
	MergedAt  time.Time           `json:"merged_at"`
	Merged    string              `json:"merged"`
	Decisions []conflict.Decision `json:"decisions"`
	Stats     diff.Stats          `json:"stats"`
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

func createSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL,
			original_name TEXT,
			updated_name TEXT,
			snapshot_json TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS merge_runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT NOT NULL,
			merged_at INTEGER NOT NULL,
			merged_text TEXT NOT NULL,
			decisions_json TEXT NOT NULL,
			diff_stats_json TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_merge_runs_session ON merge_runs(session_id);
	`

	_, err := db.Exec(schema)
	return err
}

// Save inserts or replaces a session. An empty ID is filled with a new UUID
// and the timestamps are maintained.
func (d *DB) Save(s *Session) error {
	now := time.Now().UTC()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.UpdatedAt = now

	snapshotJSON, err := json.Marshal(s.Snapshot)
	if err != nil {
		return fmt.Errorf("marshaling snapshot for %s: %w", s.ID, err)
	}

	_, err = d.db.Exec(`
		INSERT INTO sessions (id, created_at, updated_at, original_name, updated_name, snapshot_json)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			updated_at = excluded.updated_at,
			original_name = excluded.original_name,
			updated_name = excluded.updated_name,
			snapshot_json = excluded.snapshot_json
	`, s.ID, s.CreatedAt.UnixNano(), s.UpdatedAt.UnixNano(), s.OriginalName, s.UpdatedName, string(snapshotJSON))
	if err != nil {
		return fmt.Errorf("saving session %s: %w", s.ID, err)
	}
	return nil
}

// Get retrieves a session by ID.
func (d *DB) Get(id string) (*Session, error) {
	row := d.db.QueryRow(`
		SELECT id, created_at, updated_at, original_name, updated_name, snapshot_json
		FROM sessions WHERE id = ?
	`, id)

	var s Session
	var created, updated int64
	var originalName, updatedName sql.NullString
	var snapshotJSON string
	err := row.Scan(&s.ID, &created, &updated, &originalName, &updatedName, &snapshotJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning session %s: %w", id, err)
	}

	if err := json.Unmarshal([]byte(snapshotJSON), &s.Snapshot); err != nil {
		return nil, fmt.Errorf("parsing snapshot for %s: %w", id, err)
	}
	s.CreatedAt = time.Unix(0, created).UTC()
	s.UpdatedAt = time.Unix(0, updated).UTC()
	s.OriginalName = originalName.String
	s.UpdatedName = updatedName.String
	return &s, nil
}

// List returns all sessions, most recently updated first.
func (d *DB) List() ([]Summary, error) {
	rows, err := d.db.Query(`
		SELECT s.id, s.created_at, s.updated_at, s.original_name, s.updated_name,
			(SELECT COUNT(*) FROM merge_runs r WHERE r.session_id = s.id)
		FROM sessions s
		ORDER BY s.updated_at DESC, s.id
	`)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var sum Summary
		var created, updated int64
		var originalName, updatedName sql.NullString
		if err := rows.Scan(&sum.ID, &created, &updated, &originalName, &updatedName, &sum.Runs); err != nil {
			return nil, fmt.Errorf("scanning session: %w", err)
		}
		sum.CreatedAt = time.Unix(0, created).UTC()
		sum.UpdatedAt = time.Unix(0, updated).UTC()
		sum.OriginalName = originalName.String
		sum.UpdatedName = updatedName.String
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Delete removes a session and its merge runs.
func (d *DB) Delete(id string) error {
	tx, err := d.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if _, err := tx.Exec(`DELETE FROM merge_runs WHERE session_id = ?`, id); err != nil {
		return fmt.Errorf("deleting runs of %s: %w", id, err)
	}
	return tx.Commit()
}

// RecordRun stores a merge result for a session.
func (d *DB) RecordRun(sessionID string, res *engine.Result) (*Run, error) {
	if _, err := d.Get(sessionID); err != nil {
		return nil, err
	}

	decisionsJSON, err := json.Marshal(res.Decisions)
	if err != nil {
		return nil, fmt.Errorf("marshaling decisions: %w", err)
	}
	statsJSON, err := json.Marshal(res.Stats)
	if err != nil {
		return nil, fmt.Errorf("marshaling diff stats: %w", err)
	}

	run := &Run{
		SessionID: sessionID,
		MergedAt:  time.Now().UTC(),
		Merged:    res.Merged,
		Decisions: res.Decisions,
		Stats:     res.Stats,
	}
	result, err := d.db.Exec(`
		INSERT INTO merge_runs (session_id, merged_at, merged_text, decisions_json, diff_stats_json)
		VALUES (?, ?, ?, ?, ?)
	`, sessionID, run.MergedAt.UnixNano(), run.Merged, string(decisionsJSON), string(statsJSON))
	if err != nil {
		return nil, fmt.Errorf("inserting merge run: %w", err)
	}
	run.ID, err = result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading merge run id: %w", err)
	}
	return run, nil
}

// Runs returns a session's merge runs, oldest first.
func (d *DB) Runs(sessionID string) ([]Run, error) {
	rows, err := d.db.Query(`
		SELECT id, session_id, merged_at, merged_text, decisions_json, diff_stats_json
		FROM merge_runs WHERE session_id = ?
		ORDER BY id
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var merged int64
		var decisionsJSON, statsJSON string
		if err := rows.Scan(&r.ID, &r.SessionID, &merged, &r.Merged, &decisionsJSON, &statsJSON); err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		if err := json.Unmarshal([]byte(decisionsJSON), &r.Decisions); err != nil {
			return nil, fmt.Errorf("parsing decisions of run %d: %w", r.ID, err)
		}
		if err := json.Unmarshal([]byte(statsJSON), &r.Stats); err != nil {
			return nil, fmt.Errorf("parsing diff stats of run %d: %w", r.ID, err)
		}
		r.MergedAt = time.Unix(0, merged).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}
