// Package sync reconciles the local event log against the remote
// document store. It is the only component allowed to transition an
// event's sync status; UI surfaces read through it and create through
// the store.
package sync

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"ticlog/internal/models"
	"ticlog/internal/store"
)

// Remote is the slice of the remote client the orchestrator needs.
// internal/remote.Client satisfies it; tests substitute fakes.
type Remote interface {
	IsInitialized() bool
	Upload(ev models.Event) (bool, error)
	FetchAll() ([]models.Event, error)
	Delete(id string, eventType models.EventType) (bool, error)
}

// Result summarizes one sync pass.
type Result struct {
	Success     bool   `json:"success"`
	SyncedCount int    `json:"synced_count"`
	ErrorCount  int    `json:"error_count"`
	Message     string `json:"message"`
}

// State is a snapshot of the orchestrator for status displays.
type State struct {
	IsSyncing    bool       `json:"is_syncing"`
	LastSyncAt   *time.Time `json:"last_sync_at,omitempty"`
	PendingCount int64      `json:"pending_count"`
	ErrorCount   int64      `json:"error_count"`
	Message      string     `json:"message"`
}

// Orchestrator drives the reconciliation loop. Construct one per
// process with New; the syncing flag is instance state, not global.
type Orchestrator struct {
	store  *store.Store
	remote Remote

	// syncing is a cooperative mutex: a second sync pass arriving while
	// one is in flight is refused outright, never queued.
	syncing atomic.Bool

	mu         sync.Mutex
	lastSyncAt *time.Time

	autoMu   sync.Mutex
	autoCron *cron.Cron
}

// New creates an orchestrator over the given store and remote client.
func New(st *store.Store, rc Remote) *Orchestrator {
	return &Orchestrator{store: st, remote: rc}
}

// SyncPendingEvents pushes every pending event to the remote store,
// oldest first, strictly sequentially. One event's failure marks that
// event and moves on; it never aborts the batch. At most one pass runs
// at a time; an overlapping call returns immediately.
func (o *Orchestrator) SyncPendingEvents() Result {
	if !o.syncing.CompareAndSwap(false, true) {
		return Result{Success: false, Message: "Sync already in progress"}
	}
	defer o.syncing.Store(false)

	if o.remote == nil || !o.remote.IsInitialized() {
		return Result{Success: false, Message: "Cloud storage not configured"}
	}

	pending, err := o.store.ListByStatus(models.SyncPending)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("read pending events: %v", err)}
	}

	if len(pending) == 0 {
		o.setLastSyncAt(time.Now().UTC())
		return Result{Success: true, Message: "No events to sync"}
	}

	var syncedCount, errorCount int
	for _, ev := range pending {
		ok, err := o.remote.Upload(ev)
		if err != nil || !ok {
			if err != nil {
				slog.Warn("sync: upload failed", "id", ev.ID, "err", err)
			} else {
				slog.Warn("sync: upload rejected", "id", ev.ID)
			}
			if serr := o.store.UpdateSyncStatus(ev.ID, models.SyncError, nil); serr != nil {
				slog.Warn("sync: mark error failed", "id", ev.ID, "err", serr)
			}
			errorCount++
			continue
		}

		now := time.Now().UTC()
		if serr := o.store.UpdateSyncStatus(ev.ID, models.SyncSynced, &now); serr != nil {
			slog.Warn("sync: mark synced failed", "id", ev.ID, "err", serr)
		}
		syncedCount++
	}

	o.setLastSyncAt(time.Now().UTC())

	msg := fmt.Sprintf("Synced %d events successfully", syncedCount)
	if errorCount > 0 {
		msg = fmt.Sprintf("Synced %d events, %d failed", syncedCount, errorCount)
	}
	return Result{
		Success:     errorCount == 0,
		SyncedCount: syncedCount,
		ErrorCount:  errorCount,
		Message:     msg,
	}
}

// GetMergedEvents returns the deduplicated union of local and remote
// events, sorted by started_at descending. On id collision the local
// copy wins. A remote fetch failure degrades to the local-only listing
// so the history view never depends on network reachability.
func (o *Orchestrator) GetMergedEvents() ([]models.Event, error) {
	local, err := o.store.ListAll()
	if err != nil {
		return nil, fmt.Errorf("list local events: %w", err)
	}

	if o.remote == nil || !o.remote.IsInitialized() {
		return local, nil
	}

	remoteEvents, err := o.remote.FetchAll()
	if err != nil {
		slog.Warn("sync: remote fetch failed, showing local only", "err", err)
		return local, nil
	}

	// Remote entries first so local entries overwrite on collision.
	merged := make(map[string]models.Event, len(local)+len(remoteEvents))
	order := make([]string, 0, len(local)+len(remoteEvents))
	for _, ev := range remoteEvents {
		if _, seen := merged[ev.ID]; !seen {
			order = append(order, ev.ID)
		}
		merged[ev.ID] = ev
	}
	for _, ev := range local {
		if _, seen := merged[ev.ID]; !seen {
			order = append(order, ev.ID)
		}
		merged[ev.ID] = ev
	}

	out := make([]models.Event, 0, len(order))
	for _, id := range order {
		out = append(out, merged[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	return out, nil
}

// DeleteEvent removes an event locally and, when the record has been
// replicated and the remote is reachable, remotely as well. Deleting an
// unsynced record touches only local storage.
func (o *Orchestrator) DeleteEvent(id string) error {
	ev, err := o.store.GetEvent(id)
	if err != nil {
		return fmt.Errorf("get event: %w", err)
	}
	if ev == nil {
		return nil // already gone
	}

	if ev.SyncStatus == models.SyncSynced && o.remote != nil && o.remote.IsInitialized() {
		if ok, err := o.remote.Delete(ev.ID, ev.EventType); err != nil || !ok {
			return fmt.Errorf("remote delete %s failed: %v", ev.ID, err)
		}
	}

	return o.store.DeleteEvent(id)
}

// GetSyncState derives a status snapshot with a human-readable message.
func (o *Orchestrator) GetSyncState() (State, error) {
	pending, err := o.store.CountByStatus(models.SyncPending)
	if err != nil {
		return State{}, fmt.Errorf("count pending: %w", err)
	}
	failed, err := o.store.CountByStatus(models.SyncError)
	if err != nil {
		return State{}, fmt.Errorf("count failed: %w", err)
	}

	st := State{
		IsSyncing:    o.syncing.Load(),
		LastSyncAt:   o.getLastSyncAt(),
		PendingCount: pending,
		ErrorCount:   failed,
	}

	switch {
	case st.IsSyncing:
		st.Message = "Syncing..."
	case pending > 0:
		st.Message = fmt.Sprintf("%d event(s) pending sync", pending)
	case failed > 0:
		st.Message = fmt.Sprintf("%d event(s) failed to sync", failed)
	default:
		st.Message = "Up to date"
	}
	return st, nil
}

// RetryFailedSyncs flips every errored event back to pending and runs a
// sync pass.
func (o *Orchestrator) RetryFailedSyncs() Result {
	failed, err := o.store.ListByStatus(models.SyncError)
	if err != nil {
		return Result{Success: false, Message: fmt.Sprintf("read failed events: %v", err)}
	}

	for _, ev := range failed {
		if err := o.store.UpdateSyncStatus(ev.ID, models.SyncPending, nil); err != nil {
			return Result{Success: false, Message: fmt.Sprintf("reset %s: %v", ev.ID, err)}
		}
	}

	return o.SyncPendingEvents()
}

// StartAutoSync begins periodic background sync at the given interval.
// Idempotent: a second call while running is a no-op. The schedule
// fires autoSyncTick, which skips the pass when a sync is already in
// flight or the remote is not configured.
func (o *Orchestrator) StartAutoSync(interval time.Duration) error {
	o.autoMu.Lock()
	defer o.autoMu.Unlock()

	if o.autoCron != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", interval), o.autoSyncTick); err != nil {
		return fmt.Errorf("schedule auto-sync: %w", err)
	}
	c.Start()
	o.autoCron = c
	slog.Debug("autosync: started", "interval", interval)
	return nil
}

// StopAutoSync cancels the background schedule. Safe to call when not
// running; blocks until an in-flight tick finishes.
func (o *Orchestrator) StopAutoSync() {
	o.autoMu.Lock()
	defer o.autoMu.Unlock()

	if o.autoCron == nil {
		return
	}
	ctx := o.autoCron.Stop()
	<-ctx.Done()
	o.autoCron = nil
	slog.Debug("autosync: stopped")
}

// autoSyncTick is one scheduled pass. Tests call it directly instead of
// waiting on wall-clock time.
func (o *Orchestrator) autoSyncTick() {
	if o.syncing.Load() {
		return
	}
	if o.remote == nil || !o.remote.IsInitialized() {
		return
	}
	res := o.SyncPendingEvents()
	slog.Debug("autosync: pass complete", "synced", res.SyncedCount, "failed", res.ErrorCount)
}

func (o *Orchestrator) setLastSyncAt(t time.Time) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.lastSyncAt = &t
}

func (o *Orchestrator) getLastSyncAt() *time.Time {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.lastSyncAt
}
