package snapshotmgr

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// StartPeriodicSweep runs a recurring flush of the façade's gauges onto its
// Prometheus registry on the given cron schedule (spec §B "optional periodic
// eviction sweep / metrics flush ticker"). Grounded on
// internal/cron/schedule.go's cronParser, generalized from parsing a single
// expression to driving a live cron.Cron scheduler, since the sweep needs to
// actually fire rather than just report its next occurrence.
//
// Calling StartPeriodicSweep on a Manager that already has one running is a
// no-op; call StopPeriodicSweep first to change the schedule.
func (m *Manager) StartPeriodicSweep(schedule string) error {
	m.mu.Lock()
	if m.cron != nil {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	c := cron.New()
	if _, err := c.AddFunc(schedule, m.sweep); err != nil {
		return fmt.Errorf("snapshotmgr: invalid sweep schedule %q: %w", schedule, err)
	}

	m.mu.Lock()
	m.cron = c
	m.mu.Unlock()

	c.Start()
	return nil
}

// StopPeriodicSweep halts the sweep ticker started by StartPeriodicSweep, if
// any. Safe to call when no sweep is running.
func (m *Manager) StopPeriodicSweep() {
	m.mu.Lock()
	c := m.cron
	m.cron = nil
	m.mu.Unlock()

	if c != nil {
		c.Stop()
	}
}

// sweep flushes the façade's point-in-time status onto its gauges. The
// underlying Store already evicts on every Create (spec §4.6), so the sweep
// exists to keep the /metrics surface fresh between operations, not to do
// eviction work itself.
func (m *Manager) sweep() {
	status := m.GetStatus()
	m.metrics.setInFlight(status.InFlight)
	m.metrics.setQueued(status.Queued)
}
