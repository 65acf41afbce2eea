package strategy

import (
	"context"

	"github.com/corehive/agentcore/internal/snapshot"
)

// FileStrategy is the memory-store backing strategy (spec §4.6 "file: the
// memory store of §4.5").
type FileStrategy struct {
	store *snapshot.Store
}

// NewFileStrategy wraps an existing Store.
func NewFileStrategy(store *snapshot.Store) *FileStrategy {
	return &FileStrategy{store: store}
}

func (f *FileStrategy) Mode() snapshot.Mode { return snapshot.ModeFile }

func (f *FileStrategy) Create(_ context.Context, instruction string, files []snapshot.InputFile) (*snapshot.Snapshot, error) {
	return f.store.Create(instruction, snapshot.ModeFile, files)
}

func (f *FileStrategy) Get(id string, resolve bool) (*snapshot.Snapshot, error) {
	return f.store.Get(id, resolve)
}

func (f *FileStrategy) List(limit int) []*snapshot.Snapshot { return f.store.List(limit) }

func (f *FileStrategy) Delete(id string) error { return f.store.Delete(id) }

func (f *FileStrategy) Clear() { f.store.Clear() }
