// Package store is the durable local event log. It is the source of
// truth: every event is persisted synchronously before a call returns,
// and merged views always prefer the local copy of a record.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"ticlog/internal/models"
	"ticlog/internal/timeutil"
)

const (
	dataDir = ".ticlog"
	dbFile  = ".ticlog/events.db"
)

// Store wraps the database connection
type Store struct {
	conn    *sql.DB
	baseDir string
}

// Open opens an existing database and runs any pending migrations.
func Open(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("database not found: run 'ticlog init' first")
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	s := &Store{conn: conn, baseDir: baseDir}
	if err := s.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

// Initialize creates the database and runs migrations.
func Initialize(baseDir string) (*Store, error) {
	dbPath := filepath.Join(baseDir, dbFile)

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	conn, err := openConn(dbPath)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(schema); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{conn: conn, baseDir: baseDir}
	if err := s.runMigrations(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func openConn(dbPath string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// WAL for concurrent reads while writes are serialized
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	// Busy timeout as fallback protection (matches lock timeout)
	if _, err := conn.Exec("PRAGMA busy_timeout=500"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	// Slightly faster writes, still safe with WAL
	conn.Exec("PRAGMA synchronous=NORMAL")

	return conn, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.conn.Close()
}

// BaseDir returns the base directory for the database
func (s *Store) BaseDir() string {
	return s.baseDir
}

// withWriteLock executes fn while holding an exclusive write lock.
// This prevents concurrent writes from multiple processes.
func (s *Store) withWriteLock(fn func() error) error {
	locker := newWriteLocker(s.baseDir)
	if err := locker.acquire(defaultTimeout); err != nil {
		return err
	}
	defer locker.release()
	return fn()
}

// getSchemaVersion returns the current schema version from the database.
func (s *Store) getSchemaVersion() (int, error) {
	var version string
	err := s.conn.QueryRow("SELECT value FROM schema_info WHERE key = 'version'").Scan(&version)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		// Table might not exist yet
		return 0, nil
	}
	var v int
	fmt.Sscanf(version, "%d", &v)
	return v, nil
}

func (s *Store) setSchemaVersion(version int) error {
	_, err := s.conn.Exec(`INSERT OR REPLACE INTO schema_info (key, value) VALUES ('version', ?)`,
		fmt.Sprintf("%d", version))
	return err
}

// runMigrations runs any pending schema migrations.
func (s *Store) runMigrations() error {
	_, err := s.conn.Exec(`CREATE TABLE IF NOT EXISTS schema_info (key TEXT PRIMARY KEY, value TEXT NOT NULL)`)
	if err != nil {
		return fmt.Errorf("create schema_info: %w", err)
	}

	current, err := s.getSchemaVersion()
	if err != nil {
		return fmt.Errorf("get schema version: %w", err)
	}
	if current >= SchemaVersion {
		return nil
	}

	for _, m := range Migrations {
		if m.Version > current {
			if _, err := s.conn.Exec(m.SQL); err != nil {
				return fmt.Errorf("migration %d (%s): %w", m.Version, m.Description, err)
			}
			if err := s.setSchemaVersion(m.Version); err != nil {
				return fmt.Errorf("set version %d: %w", m.Version, err)
			}
		}
	}

	if current == 0 {
		return s.setSchemaVersion(SchemaVersion)
	}
	return nil
}

// CreateEvent persists a new event. The store assigns the id and
// bookkeeping fields: created_at = updated_at = now, sync_status =
// pending, synced_at unset. When ended_at is present, duration_seconds
// is derived (whole seconds, floored) regardless of any caller-supplied
// value.
func (s *Store) CreateEvent(ev *models.Event) error {
	if !models.ValidEventType(string(ev.EventType)) {
		return fmt.Errorf("invalid event type: %q", ev.EventType)
	}
	if ev.StartedAt.IsZero() {
		return fmt.Errorf("started_at is required")
	}

	return s.withWriteLock(func() error {
		ev.ID = uuid.NewString()

		now := time.Now().UTC()
		ev.CreatedAt = now
		ev.UpdatedAt = now
		ev.SyncStatus = models.SyncPending
		ev.SyncedAt = nil

		if ev.EndedAt != nil {
			secs := timeutil.DurationSeconds(ev.StartedAt, *ev.EndedAt)
			ev.DurationSeconds = &secs
		} else {
			ev.DurationSeconds = nil
		}

		_, err := s.conn.Exec(`
			INSERT INTO events (id, event_type, description, triggers, notes, started_at, ended_at, duration_seconds, created_at, updated_at, synced_at, sync_status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, ev.ID, ev.EventType, ev.Description, ev.Triggers, ev.Notes,
			ev.StartedAt, nullableTime(ev.EndedAt), nullableInt(ev.DurationSeconds),
			ev.CreatedAt, ev.UpdatedAt, nullableTime(ev.SyncedAt), ev.SyncStatus)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}
		return nil
	})
}

const eventColumns = `id, event_type, description, triggers, notes, started_at, ended_at, duration_seconds, created_at, updated_at, synced_at, sync_status`

// ListAll returns every event sorted by started_at descending (most
// recent first). Ties break by insertion order so the listing is stable.
func (s *Store) ListAll() ([]models.Event, error) {
	rows, err := s.conn.Query(`
		SELECT ` + eventColumns + `
		FROM events
		ORDER BY started_at DESC, rowid ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// ListByStatus returns events with the given sync status sorted by
// created_at ascending, oldest first, so sync passes process FIFO.
func (s *Store) ListByStatus(status models.SyncStatus) ([]models.Event, error) {
	if !models.ValidSyncStatus(string(status)) {
		return nil, fmt.Errorf("invalid sync status: %q", status)
	}
	rows, err := s.conn.Query(`
		SELECT `+eventColumns+`
		FROM events
		WHERE sync_status = ?
		ORDER BY created_at ASC, rowid ASC
	`, status)
	if err != nil {
		return nil, fmt.Errorf("list events by status: %w", err)
	}
	defer rows.Close()
	return scanEvents(rows)
}

// GetEvent retrieves an event by id. Returns (nil, nil) when absent.
func (s *Store) GetEvent(id string) (*models.Event, error) {
	row := s.conn.QueryRow(`
		SELECT `+eventColumns+`
		FROM events WHERE id = ?
	`, id)

	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", id, err)
	}
	return ev, nil
}

// UpdateSyncStatus transitions an event's sync status and refreshes
// updated_at. syncedAt may be nil to clear the last-synced timestamp.
// Updating an id that does not exist is a no-op, not an error, so
// status writes are idempotent under concurrent deletes.
func (s *Store) UpdateSyncStatus(id string, status models.SyncStatus, syncedAt *time.Time) error {
	if !models.ValidSyncStatus(string(status)) {
		return fmt.Errorf("invalid sync status: %q", status)
	}
	return s.withWriteLock(func() error {
		_, err := s.conn.Exec(`
			UPDATE events SET sync_status = ?, synced_at = ?, updated_at = ?
			WHERE id = ?
		`, status, nullableTime(syncedAt), time.Now().UTC(), id)
		if err != nil {
			return fmt.Errorf("update sync status %s: %w", id, err)
		}
		return nil
	})
}

// DeleteEvent removes an event. Deleting a non-existent id is not an error.
func (s *Store) DeleteEvent(id string) error {
	return s.withWriteLock(func() error {
		_, err := s.conn.Exec(`DELETE FROM events WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete event %s: %w", id, err)
		}
		return nil
	})
}

// ClearAll removes every event. Test/reset paths only.
func (s *Store) ClearAll() error {
	return s.withWriteLock(func() error {
		_, err := s.conn.Exec(`DELETE FROM events`)
		if err != nil {
			return fmt.Errorf("clear events: %w", err)
		}
		return nil
	})
}

// CountByStatus returns the number of events with the given sync status.
func (s *Store) CountByStatus(status models.SyncStatus) (int64, error) {
	if !models.ValidSyncStatus(string(status)) {
		return 0, fmt.Errorf("invalid sync status: %q", status)
	}
	var count int64
	err := s.conn.QueryRow(`SELECT COUNT(*) FROM events WHERE sync_status = ?`, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(row scanner) (*models.Event, error) {
	var ev models.Event
	var endedAt, syncedAt sql.NullTime
	var duration sql.NullInt64

	err := row.Scan(
		&ev.ID, &ev.EventType, &ev.Description, &ev.Triggers, &ev.Notes,
		&ev.StartedAt, &endedAt, &duration,
		&ev.CreatedAt, &ev.UpdatedAt, &syncedAt, &ev.SyncStatus,
	)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		ev.EndedAt = &endedAt.Time
	}
	if syncedAt.Valid {
		ev.SyncedAt = &syncedAt.Time
	}
	if duration.Valid {
		ev.DurationSeconds = &duration.Int64
	}
	return &ev, nil
}

func scanEvents(rows *sql.Rows) ([]models.Event, error) {
	var events []models.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *ev)
	}
	return events, rows.Err()
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func nullableInt(n *int64) any {
	if n == nil {
		return nil
	}
	return *n
}
