package cmd

import (
	"ticlog/internal/cloudconfig"
	"ticlog/internal/remote"
	"ticlog/internal/store"
	ticsync "ticlog/internal/sync"
)

// openStore opens the local event store for the current base dir.
func openStore() (*store.Store, error) {
	return store.Open(getBaseDir())
}

// newRemote builds the remote client from the effective cloud config.
// An incomplete or unreachable configuration leaves it uninitialized;
// callers treat that as "offline".
func newRemote() *remote.Client {
	client := remote.New()
	client.Initialize(cloudconfig.LoadCloud())
	return client
}

// newOrchestrator wires the store to a freshly configured remote client.
func newOrchestrator(st *store.Store) *ticsync.Orchestrator {
	return ticsync.New(st, newRemote())
}
