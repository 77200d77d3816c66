package models

import (
	"time"
)

// EventType represents the kind of occurrence being logged.
// It doubles as the partition key for the remote document store.
type EventType string

const (
	TypeTic       EventType = "tic"
	TypeEmotional EventType = "emotional"
	TypeCombined  EventType = "combined"
)

// ValidEventType reports whether s is a member of the event type enumeration.
func ValidEventType(s string) bool {
	switch EventType(s) {
	case TypeTic, TypeEmotional, TypeCombined:
		return true
	}
	return false
}

// EventTypes lists all valid event types in display order.
func EventTypes() []EventType {
	return []EventType{TypeTic, TypeEmotional, TypeCombined}
}

// SyncStatus represents an event's replication state relative to the
// remote store. Transitions: pending -> synced (upload ok),
// pending -> error (upload failed), error -> pending (retry requested).
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
	SyncError   SyncStatus = "error"
)

// ValidSyncStatus reports whether s is a member of the sync status enumeration.
func ValidSyncStatus(s string) bool {
	switch SyncStatus(s) {
	case SyncPending, SyncSynced, SyncError:
		return true
	}
	return false
}

// Event is a single user-logged occurrence with a type, time span, and
// optional annotations. Empty strings mean "not provided".
type Event struct {
	ID              string     `json:"id"`
	EventType       EventType  `json:"event_type"`
	Description     string     `json:"description,omitempty"`
	Triggers        string     `json:"triggers,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	StartedAt       time.Time  `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	DurationSeconds *int64     `json:"duration_seconds,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
	SyncedAt        *time.Time `json:"synced_at,omitempty"`
	SyncStatus      SyncStatus `json:"sync_status"`
}

// HasEnded reports whether the event has a recorded end time.
func (e *Event) HasEnded() bool {
	return e.EndedAt != nil
}
