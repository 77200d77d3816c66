package store

// SchemaVersion is the current database schema version
const SchemaVersion = 1

const schema = `
-- Events table
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    event_type TEXT NOT NULL,
    description TEXT DEFAULT '',
    triggers TEXT DEFAULT '',
    notes TEXT DEFAULT '',
    started_at DATETIME NOT NULL,
    ended_at DATETIME,
    duration_seconds INTEGER,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    synced_at DATETIME,
    sync_status TEXT NOT NULL DEFAULT 'pending'
);

-- Sync pass selection scans by status, history view by start time
CREATE INDEX IF NOT EXISTS idx_events_sync_status ON events(sync_status);
CREATE INDEX IF NOT EXISTS idx_events_started_at ON events(started_at DESC);

-- Schema version tracking
CREATE TABLE IF NOT EXISTS schema_info (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
`

// Migration represents a schema migration
type Migration struct {
	Version     int
	Description string
	SQL         string
}

// Migrations contains all schema migrations in order. Version 1 is the
// baseline schema; future column additions go here.
var Migrations = []Migration{}
