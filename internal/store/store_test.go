package store

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"ticlog/internal/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInitialize(t *testing.T) {
	dir := t.TempDir()

	st, err := Initialize(dir)
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	defer st.Close()

	dbPath := filepath.Join(dir, ".ticlog", "events.db")
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file not created")
	}
}

func TestInitializeIdempotent(t *testing.T) {
	dir := t.TempDir()

	st, err := Initialize(dir)
	if err != nil {
		t.Fatalf("first Initialize failed: %v", err)
	}

	ev := &models.Event{EventType: models.TypeTic, StartedAt: time.Now().UTC()}
	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	st.Close()

	// Re-initializing an existing database must preserve data.
	st2, err := Initialize(dir)
	if err != nil {
		t.Fatalf("second Initialize failed: %v", err)
	}
	defer st2.Close()

	events, err := st2.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("got %d events after re-init, want 1", len(events))
	}
}

func TestOpenWithoutInit(t *testing.T) {
	_, err := Open(t.TempDir())
	if err == nil {
		t.Fatal("Open succeeded without init")
	}
}

func TestCreateAndGetEvent(t *testing.T) {
	st := newTestStore(t)

	started := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	ended := started.Add(125 * time.Second)
	ev := &models.Event{
		EventType:   models.TypeCombined,
		Description: "eye blink with anxiety",
		Triggers:    "bright light",
		Notes:       "after lunch",
		StartedAt:   started,
		EndedAt:     &ended,
	}

	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	if ev.ID == "" {
		t.Error("event ID not assigned")
	}
	if ev.SyncStatus != models.SyncPending {
		t.Errorf("sync status = %s, want pending", ev.SyncStatus)
	}
	if ev.SyncedAt != nil {
		t.Error("synced_at set on creation")
	}
	if ev.DurationSeconds == nil || *ev.DurationSeconds != 125 {
		t.Errorf("duration = %v, want 125", ev.DurationSeconds)
	}
	if ev.CreatedAt.IsZero() || !ev.CreatedAt.Equal(ev.UpdatedAt) {
		t.Error("created_at/updated_at not set to the same instant")
	}

	got, err := st.GetEvent(ev.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetEvent returned nil for existing id")
	}
	if got.Description != ev.Description || got.Triggers != ev.Triggers || got.Notes != ev.Notes {
		t.Error("annotation fields did not round trip")
	}
	if got.EndedAt == nil || !got.EndedAt.Equal(ended) {
		t.Errorf("ended_at = %v, want %v", got.EndedAt, ended)
	}
}

func TestCreateEventIgnoresCallerDuration(t *testing.T) {
	st := newTestStore(t)

	started := time.Date(2026, 8, 25, 14, 0, 0, 0, time.UTC)
	ended := started.Add(60 * time.Second)
	bogus := int64(9999)
	ev := &models.Event{
		EventType:       models.TypeTic,
		StartedAt:       started,
		EndedAt:         &ended,
		DurationSeconds: &bogus,
	}

	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}
	if ev.DurationSeconds == nil || *ev.DurationSeconds != 60 {
		t.Errorf("duration = %v, want derived 60", ev.DurationSeconds)
	}
}

func TestCreateOngoingEvent(t *testing.T) {
	st := newTestStore(t)

	ev := &models.Event{EventType: models.TypeEmotional, StartedAt: time.Now().UTC()}
	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	got, err := st.GetEvent(ev.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got.EndedAt != nil || got.DurationSeconds != nil {
		t.Error("ongoing event has ended_at or duration set")
	}
}

func TestCreateEventValidation(t *testing.T) {
	st := newTestStore(t)

	if err := st.CreateEvent(&models.Event{EventType: "mood", StartedAt: time.Now()}); err == nil {
		t.Error("expected error for invalid event type")
	}
	if err := st.CreateEvent(&models.Event{EventType: models.TypeTic}); err == nil {
		t.Error("expected error for missing started_at")
	}
}

func TestGetEventAbsent(t *testing.T) {
	st := newTestStore(t)

	got, err := st.GetEvent("no-such-id")
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got != nil {
		t.Error("GetEvent returned event for absent id")
	}
}

func TestListAllOrder(t *testing.T) {
	st := newTestStore(t)

	base := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	// Insert out of chronological order.
	for _, offset := range []time.Duration{time.Hour, 3 * time.Hour, 2 * time.Hour} {
		ev := &models.Event{EventType: models.TypeTic, StartedAt: base.Add(offset)}
		if err := st.CreateEvent(ev); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}

	events, err := st.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("got %d events, want 3", len(events))
	}
	for i := 1; i < len(events); i++ {
		if events[i].StartedAt.After(events[i-1].StartedAt) {
			t.Errorf("events not sorted newest first at index %d", i)
		}
	}
}

func TestListAllStableOnTies(t *testing.T) {
	st := newTestStore(t)

	started := time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		ev := &models.Event{EventType: models.TypeTic, StartedAt: started}
		if err := st.CreateEvent(ev); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		ids = append(ids, ev.ID)
	}

	events, err := st.ListAll()
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	for i, ev := range events {
		if ev.ID != ids[i] {
			t.Errorf("tie order unstable: index %d got %s, want %s", i, ev.ID, ids[i])
		}
	}
}

func TestListByStatusFIFO(t *testing.T) {
	st := newTestStore(t)

	// Descending start times: creation order and start-time order
	// disagree, so the assertion pins ordering to created_at.
	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		ev := &models.Event{EventType: models.TypeTic, StartedAt: base.Add(-time.Duration(i) * time.Hour)}
		if err := st.CreateEvent(ev); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
		ids = append(ids, ev.ID)
	}

	pending, err := st.ListByStatus(models.SyncPending)
	if err != nil {
		t.Fatalf("ListByStatus failed: %v", err)
	}
	if len(pending) != 3 {
		t.Fatalf("got %d pending, want 3", len(pending))
	}
	// Oldest created first.
	for i, ev := range pending {
		if ev.ID != ids[i] {
			t.Errorf("FIFO order broken: index %d got %s, want %s", i, ev.ID, ids[i])
		}
	}

	if _, err := st.ListByStatus("bogus"); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestUpdateSyncStatus(t *testing.T) {
	st := newTestStore(t)

	ev := &models.Event{EventType: models.TypeTic, StartedAt: time.Now().UTC()}
	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	syncedAt := time.Now().UTC().Truncate(time.Second)
	if err := st.UpdateSyncStatus(ev.ID, models.SyncSynced, &syncedAt); err != nil {
		t.Fatalf("UpdateSyncStatus failed: %v", err)
	}

	got, err := st.GetEvent(ev.ID)
	if err != nil {
		t.Fatalf("GetEvent failed: %v", err)
	}
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("status = %s, want synced", got.SyncStatus)
	}
	if got.SyncedAt == nil || !got.SyncedAt.Equal(syncedAt) {
		t.Errorf("synced_at = %v, want %v", got.SyncedAt, syncedAt)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Error("updated_at not refreshed")
	}

	// Back to pending clears synced_at.
	if err := st.UpdateSyncStatus(ev.ID, models.SyncPending, nil); err != nil {
		t.Fatalf("UpdateSyncStatus failed: %v", err)
	}
	got, _ = st.GetEvent(ev.ID)
	if got.SyncedAt != nil {
		t.Error("synced_at not cleared")
	}
}

func TestUpdateSyncStatusIdempotent(t *testing.T) {
	st := newTestStore(t)

	ev := &models.Event{EventType: models.TypeTic, StartedAt: time.Now().UTC()}
	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	syncedAt := time.Now().UTC().Truncate(time.Second)
	if err := st.UpdateSyncStatus(ev.ID, models.SyncSynced, &syncedAt); err != nil {
		t.Fatalf("first update failed: %v", err)
	}
	first, _ := st.GetEvent(ev.ID)

	// Same arguments again: the final state must not change.
	if err := st.UpdateSyncStatus(ev.ID, models.SyncSynced, &syncedAt); err != nil {
		t.Fatalf("second update failed: %v", err)
	}
	second, _ := st.GetEvent(ev.ID)

	if second.SyncStatus != first.SyncStatus {
		t.Errorf("status changed on repeat: %s -> %s", first.SyncStatus, second.SyncStatus)
	}
	if second.SyncedAt == nil || !second.SyncedAt.Equal(*first.SyncedAt) {
		t.Errorf("synced_at changed on repeat: %v -> %v", first.SyncedAt, second.SyncedAt)
	}
}

func TestUpdateSyncStatusMissingID(t *testing.T) {
	st := newTestStore(t)

	if err := st.UpdateSyncStatus("no-such-id", models.SyncSynced, nil); err != nil {
		t.Errorf("update of missing id should be a no-op, got %v", err)
	}
	if err := st.UpdateSyncStatus("x", "bogus", nil); err == nil {
		t.Error("expected error for invalid status")
	}
}

func TestDeleteEvent(t *testing.T) {
	st := newTestStore(t)

	ev := &models.Event{EventType: models.TypeTic, StartedAt: time.Now().UTC()}
	if err := st.CreateEvent(ev); err != nil {
		t.Fatalf("CreateEvent failed: %v", err)
	}

	if err := st.DeleteEvent(ev.ID); err != nil {
		t.Fatalf("DeleteEvent failed: %v", err)
	}
	got, _ := st.GetEvent(ev.ID)
	if got != nil {
		t.Error("event still present after delete")
	}

	// Deleting again is not an error.
	if err := st.DeleteEvent(ev.ID); err != nil {
		t.Errorf("second delete errored: %v", err)
	}
}

func TestCountByStatusAndClearAll(t *testing.T) {
	st := newTestStore(t)

	for i := 0; i < 2; i++ {
		ev := &models.Event{EventType: models.TypeTic, StartedAt: time.Now().UTC()}
		if err := st.CreateEvent(ev); err != nil {
			t.Fatalf("CreateEvent failed: %v", err)
		}
	}

	n, err := st.CountByStatus(models.SyncPending)
	if err != nil {
		t.Fatalf("CountByStatus failed: %v", err)
	}
	if n != 2 {
		t.Errorf("pending count = %d, want 2", n)
	}

	if _, err := st.CountByStatus("bogus"); err == nil {
		t.Error("expected error for invalid status")
	}

	if err := st.ClearAll(); err != nil {
		t.Fatalf("ClearAll failed: %v", err)
	}
	n, _ = st.CountByStatus(models.SyncPending)
	if n != 0 {
		t.Errorf("pending count after clear = %d, want 0", n)
	}
}
