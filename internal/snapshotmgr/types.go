// Package snapshotmgr implements the Snapshot Manager (C10): a façade over
// the Snapshot Store (C6), Strategy Factory (C7), and Change Detector (C8)
// that adds a bounded-concurrency queue and running metrics, per spec §4.9.
//
// Grounded on internal/agent/tool_exec.go's buffered-channel semaphore
// (ExecuteConcurrently's "sem := make(chan struct{}, e.config.Concurrency)"),
// generalized here to golang.org/x/sync/semaphore.Weighted so the bound
// itself is context-cancellable without a select/default dance, and on
// internal/observability/metrics.go's promauto-backed Metrics struct for the
// counter/gauge shape — scoped to a per-Manager prometheus.Registry (via
// promauto.With) rather than the package-global default registerer, since a
// Manager can be constructed more than once per process (tests build one per
// test function; the default registerer would panic on the second).
package snapshotmgr

import (
	"errors"
)

// ErrShuttingDown is returned by every operation once Shutdown has been
// called (spec §4.9 "drain outstanding operations before returning
// success" — new work is rejected during and after the drain).
var ErrShuttingDown = errors.New("snapshot manager is shutting down")

// ErrInvalidFiles is returned when the files argument to CreateSnapshot is
// neither a map[string]string, a []string, nor nil (spec §4.9 validation).
var ErrInvalidFiles = errors.New("files must be a map of path to content, a list of paths, or absent")

// Status is the façade's point-in-time snapshot of its own operational
// state (spec §4.9 getStatus).
type Status struct {
	ActiveStrategy    string
	InFlight          int
	Queued            int
	ShuttingDown      bool
	StoreCount        int
	StoreInlineBytes  int64
	StoreEvictions    int64
}

// Metrics is the façade's running counters (spec §4.9 getMetrics: "totals
// for operations, snapshots, errors; error rate is a running ratio").
type Metrics struct {
	TotalOperations int64
	TotalSnapshots  int64
	TotalErrors     int64
	ErrorRate       float64
}
