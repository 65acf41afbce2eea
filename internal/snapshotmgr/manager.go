package snapshotmgr

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/corehive/agentcore/internal/snapshot"
	"github.com/corehive/agentcore/internal/snapshot/strategy"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/semaphore"
)

// Manager is the Snapshot Manager (C10) singleton. It never holds file
// content itself; every Create/Get/List/Delete/Clear call is delegated to
// the Strategy Factory's currently active strategy, bounded by a weighted
// semaphore so at most maxConcurrentOperations run at once (spec §4.9
// "excess operations queued FIFO").
type Manager struct {
	factory *strategy.Factory
	store   *snapshot.Store // shared by both strategies; read for metrics only

	sem      *semaphore.Weighted
	inFlight int64
	wg       sync.WaitGroup

	metrics *promMetrics

	mu           sync.Mutex
	shuttingDown bool
	queued       int
	cron         *cron.Cron

	totalOps    int64
	totalSnaps  int64
	totalErrors int64
}

// New builds a Manager. store is the same *snapshot.Store the factory's
// FileStrategy (and, transitively, its GitStrategy) wrap; the Manager reads
// it directly only for getStatus/getMetrics, never mutates it.
func New(factory *strategy.Factory, store *snapshot.Store, maxConcurrentOperations int) *Manager {
	if maxConcurrentOperations <= 0 {
		maxConcurrentOperations = 1
	}
	return &Manager{
		factory: factory,
		store:   store,
		sem:     semaphore.NewWeighted(int64(maxConcurrentOperations)),
		metrics: newPromMetrics(),
	}
}

// Registry exposes the Manager's own Prometheus registry, so a caller can
// mount it on an HTTP /metrics handler without reaching into package
// internals or risking a collision with prometheus.DefaultRegisterer.
func (m *Manager) Registry() *prometheus.Registry {
	return m.metrics.registry
}

// run bounds op's concurrency and counts it toward totals, regardless of
// which façade method invoked it (spec §4.9 "bounded queue" applies to
// every operation, not just creation).
func (m *Manager) run(ctx context.Context, op func() (any, error)) (any, error) {
	m.mu.Lock()
	if m.shuttingDown {
		m.mu.Unlock()
		return nil, ErrShuttingDown
	}
	m.queued++
	m.mu.Unlock()
	m.metrics.setQueued(m.queued)

	m.wg.Add(1)
	defer m.wg.Done()

	if err := m.sem.Acquire(ctx, 1); err != nil {
		m.mu.Lock()
		m.queued--
		m.mu.Unlock()
		return nil, err
	}
	defer m.sem.Release(1)

	m.mu.Lock()
	m.queued--
	m.mu.Unlock()
	atomic.AddInt64(&m.inFlight, 1)
	defer atomic.AddInt64(&m.inFlight, -1)

	atomic.AddInt64(&m.totalOps, 1)
	result, err := op()
	if err != nil {
		atomic.AddInt64(&m.totalErrors, 1)
	}
	m.metrics.recordOp(err)
	return result, err
}

// normalizeFiles accepts map[string]string, []string, or nil and produces
// the []snapshot.InputFile Store.Create expects (spec §4.9 validation: any
// other shape is an error). A bare path list captures each path's current
// on-disk content relative to baseDir; an empty/missing content map entry
// for a listed path is left for the caller to populate via readFile.
func normalizeFiles(files any, readFile func(path string) ([]byte, error)) ([]snapshot.InputFile, error) {
	switch v := files.(type) {
	case nil:
		return nil, nil
	case map[string]string:
		out := make([]snapshot.InputFile, 0, len(v))
		for path, content := range v {
			out = append(out, snapshot.InputFile{Path: path, Content: []byte(content)})
		}
		return out, nil
	case []string:
		out := make([]snapshot.InputFile, 0, len(v))
		for _, path := range v {
			content, err := readFile(path)
			if err != nil {
				return nil, fmt.Errorf("snapshotmgr: reading %q: %w", path, err)
			}
			out = append(out, snapshot.InputFile{Path: path, Content: content})
		}
		return out, nil
	default:
		return nil, ErrInvalidFiles
	}
}

// CreateSnapshot validates instruction and files, then delegates to the
// active strategy (spec §4.9 createSnapshot). readFile resolves a bare
// path list's content; pass nil when files is already a map or absent.
func (m *Manager) CreateSnapshot(ctx context.Context, instruction string, files any, readFile func(path string) ([]byte, error)) (*snapshot.Snapshot, error) {
	if instruction == "" {
		return nil, snapshot.ErrEmptyInstruction
	}
	inputFiles, err := normalizeFiles(files, readFile)
	if err != nil {
		return nil, err
	}

	result, err := m.run(ctx, func() (any, error) {
		active, _ := m.factory.Active()
		if active == nil {
			return nil, fmt.Errorf("snapshotmgr: no active strategy")
		}
		return active.Create(ctx, instruction, inputFiles)
	})
	if err != nil {
		return nil, err
	}
	snap := result.(*snapshot.Snapshot)
	atomic.AddInt64(&m.totalSnaps, 1)
	m.metrics.recordSnapshot()
	return snap, nil
}

// GetSnapshot delegates to the active strategy (spec §4.9 getSnapshot).
func (m *Manager) GetSnapshot(ctx context.Context, id string, resolve bool) (*snapshot.Snapshot, error) {
	result, err := m.run(ctx, func() (any, error) {
		active, _ := m.factory.Active()
		if active == nil {
			return nil, fmt.Errorf("snapshotmgr: no active strategy")
		}
		return active.Get(id, resolve)
	})
	if err != nil {
		return nil, err
	}
	return result.(*snapshot.Snapshot), nil
}

// GetSnapshots delegates to the active strategy (spec §4.9 getSnapshots).
func (m *Manager) GetSnapshots(ctx context.Context, limit int) ([]*snapshot.Snapshot, error) {
	result, err := m.run(ctx, func() (any, error) {
		active, _ := m.factory.Active()
		if active == nil {
			return []*snapshot.Snapshot{}, nil
		}
		return active.List(limit), nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]*snapshot.Snapshot), nil
}

// DeleteSnapshot delegates to the active strategy (spec §4.9 deleteSnapshot).
func (m *Manager) DeleteSnapshot(ctx context.Context, id string) error {
	_, err := m.run(ctx, func() (any, error) {
		active, _ := m.factory.Active()
		if active == nil {
			return nil, fmt.Errorf("snapshotmgr: no active strategy")
		}
		return nil, active.Delete(id)
	})
	return err
}

// ClearSnapshots delegates to the active strategy (spec §4.9 clearSnapshots).
func (m *Manager) ClearSnapshots(ctx context.Context) error {
	_, err := m.run(ctx, func() (any, error) {
		active, _ := m.factory.Active()
		if active != nil {
			active.Clear()
		}
		return nil, nil
	})
	return err
}

// SwitchStrategy delegates to the Strategy Factory (spec §4.9
// switchStrategy / spec §4.6 "permitted at runtime").
func (m *Manager) SwitchStrategy(ctx context.Context, mode strategy.Name) strategy.SwitchResult {
	return m.factory.Switch(ctx, mode)
}

// GetStatus reports the façade's operational state (spec §4.9 getStatus).
func (m *Manager) GetStatus() Status {
	_, name := m.factory.Active()
	count, inlineBytes, evictions := 0, int64(0), int64(0)
	if m.store != nil {
		count, inlineBytes, evictions = m.store.Metrics()
	}

	m.mu.Lock()
	shuttingDown := m.shuttingDown
	queued := m.queued
	m.mu.Unlock()

	return Status{
		ActiveStrategy:   string(name),
		InFlight:         int(atomic.LoadInt64(&m.inFlight)),
		Queued:           queued,
		ShuttingDown:     shuttingDown,
		StoreCount:       count,
		StoreInlineBytes: inlineBytes,
		StoreEvictions:   evictions,
	}
}

// GetMetrics reports running totals (spec §4.9 getMetrics).
func (m *Manager) GetMetrics() Metrics {
	ops := atomic.LoadInt64(&m.totalOps)
	snaps := atomic.LoadInt64(&m.totalSnaps)
	errs := atomic.LoadInt64(&m.totalErrors)

	var rate float64
	if ops > 0 {
		rate = float64(errs) / float64(ops)
	}
	return Metrics{TotalOperations: ops, TotalSnapshots: snaps, TotalErrors: errs, ErrorRate: rate}
}

// Shutdown stops accepting new operations, stops any running periodic
// sweep, and blocks until every in-flight or queued operation has drained
// (spec §4.9 "drain outstanding operations before returning success").
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	m.shuttingDown = true
	m.mu.Unlock()

	m.StopPeriodicSweep()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
