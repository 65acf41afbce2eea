// Package strategy implements the Snapshot Strategy Factory (C7): pick a
// backing strategy (git, file, auto), fall back on unavailability, and
// allow a runtime switch.
//
// Grounded on internal/exec's validator style (regexp-based sanitizers
// returning an error, not a bool) for branch-name sanitization, and
// internal/retry + internal/backoff for the git strategy's bounded-attempt
// linear-backoff wrapper around VCS calls.
package strategy

import (
	"context"
	"log/slog"

	"github.com/corehive/agentcore/internal/snapshot"
)

// Strategy is the common interface both backing strategies (and the Store
// itself, for the file strategy) satisfy.
type Strategy interface {
	Mode() snapshot.Mode
	Create(ctx context.Context, instruction string, files []snapshot.InputFile) (*snapshot.Snapshot, error)
	Get(id string, resolve bool) (*snapshot.Snapshot, error)
	List(limit int) []*snapshot.Snapshot
	Delete(id string) error
	Clear()
}

// Name is a requested or reported strategy mode, including the
// factory-only "auto" value that never appears on a Snapshot itself.
type Name string

const (
	NameGit  Name = "git"
	NameFile Name = "file"
	NameAuto Name = "auto"
)

// SwitchResult is returned by Factory.Switch (spec §4.6).
type SwitchResult struct {
	Success  bool
	Previous Name
	Current  Name
}

// Factory selects and holds the active Strategy, permitting a runtime
// switch. Snapshots never migrate across a switch (spec §4.6).
type Factory struct {
	logger *slog.Logger

	fileStrategy *FileStrategy
	newGit       func() (*GitStrategy, error)

	active     Strategy
	activeName Name
}

// NewFactory constructs a Factory. newGit builds a fresh GitStrategy lazily
// (only when git mode is actually selected), since constructing one
// requires probing VCS availability.
func NewFactory(fileStrategy *FileStrategy, newGit func() (*GitStrategy, error), logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{fileStrategy: fileStrategy, newGit: newGit, logger: logger}
}

// Initialize selects the active strategy for the requested mode (spec §4.6).
// "auto" probes VCS availability and repo detection, choosing git if both
// succeed, else file; any probe failure is treated as unavailable, not an
// error.
func (f *Factory) Initialize(ctx context.Context, requested Name) error {
	switch requested {
	case NameFile:
		f.setActive(NameFile, f.fileStrategy)
		return nil
	case NameGit:
		git, err := f.newGit()
		if err != nil {
			return err
		}
		f.setActive(NameGit, git)
		return nil
	case NameAuto, "":
		if git, err := f.newGit(); err == nil && git.Probe(ctx) {
			f.setActive(NameGit, git)
			f.logger.Info("strategy factory selected git", "mode", "auto")
			return nil
		}
		f.setActive(NameFile, f.fileStrategy)
		f.logger.Info("strategy factory fell back to file", "mode", "auto")
		return nil
	default:
		f.setActive(NameFile, f.fileStrategy)
		return nil
	}
}

func (f *Factory) setActive(name Name, s Strategy) {
	f.active = s
	f.activeName = name
}

// Switch changes the active strategy at runtime (spec §4.6 "switchStrategy
// is permitted at runtime").
func (f *Factory) Switch(ctx context.Context, requested Name) SwitchResult {
	previous := f.activeName
	if err := f.Initialize(ctx, requested); err != nil {
		return SwitchResult{Success: false, Previous: previous, Current: previous}
	}
	return SwitchResult{Success: true, Previous: previous, Current: f.activeName}
}

// Active returns the currently selected strategy and its name.
func (f *Factory) Active() (Strategy, Name) {
	return f.active, f.activeName
}
