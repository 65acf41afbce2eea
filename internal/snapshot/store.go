package snapshot

import (
	"sync"
	"time"
)

// StoreOptions configures Store's optional compression and eviction
// behavior (SPEC_FULL Open Question defaults recorded in DESIGN.md).
type StoreOptions struct {
	CompressionThreshold int   // bytes; inline content at or above this size is gzipped
	MaxSnapshots         int   // 0 disables the count-based eviction bound
	MemoryLimitBytes     int64 // 0 disables the byte-based eviction bound
	Now                  func() time.Time
}

// Store is the memory variant of the Snapshot Store (C6): an ordered
// collection of snapshots indexed by id and by content checksum, grounded
// on internal/jobs/store.go's RWMutex-plus-ordered-keys shape.
type Store struct {
	mu sync.RWMutex

	opts StoreOptions

	snapshots map[string]*Snapshot
	order     []string       // insertion (== chronological) order of ids
	position  map[string]int // id -> index into order, kept in sync

	// checksumIndex maps a content checksum to every snapshot id (in
	// insertion order) that currently holds an Inline entry with that
	// checksum anywhere in its file set.
	checksumIndex map[string][]string

	inlineBytes   int64 // sum of len(Content) across all stored Inline entries
	evictionCount int64
}

// NewStore constructs an empty Store.
func NewStore(opts StoreOptions) *Store {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Store{
		opts:          opts,
		snapshots:     make(map[string]*Snapshot),
		position:      make(map[string]int),
		checksumIndex: make(map[string][]string),
	}
}

// Create assigns an id and timestamp, computes a checksum per input file,
// and stores each as Inline or Reference per spec §4.5.
func (s *Store) Create(instruction string, mode Mode, files []InputFile) (*Snapshot, error) {
	if instruction == "" {
		return nil, ErrEmptyInstruction
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := NewID(s.opts.Now())
	snap := &Snapshot{
		ID:          id,
		Instruction: instruction,
		Timestamp:   s.opts.Now(),
		Mode:        mode,
		Files:       make(map[string]FileEntry, len(files)),
	}

	for _, f := range files {
		entry, err := s.buildEntryLocked(id, f.Content)
		if err != nil {
			return nil, err
		}
		snap.Files[f.Path] = entry
	}

	s.insertLocked(snap)
	s.evictIfNeededLocked()

	return snap.Clone(), nil
}

func (s *Store) buildEntryLocked(newSnapshotID string, content []byte) (FileEntry, error) {
	sum := checksumOf(content)

	if existing := s.checksumIndex[sum]; len(existing) > 0 {
		target := existing[len(existing)-1]
		return NewReferenceEntry(sum, int64(len(content)), target), nil
	}

	stored := content
	compressed := false
	if s.opts.CompressionThreshold > 0 && len(content) >= s.opts.CompressionThreshold {
		if gz, err := compress(content); err == nil && len(gz) < len(content) {
			stored = gz
			compressed = true
		}
	}
	entry := NewInlineEntry(sum, stored, compressed)
	entry.Size = int64(len(content)) // logical size is the uncompressed size
	s.checksumIndex[sum] = append(s.checksumIndex[sum], newSnapshotID)
	s.inlineBytes += int64(len(stored))
	return entry, nil
}

func (s *Store) insertLocked(snap *Snapshot) {
	s.snapshots[snap.ID] = snap
	s.position[snap.ID] = len(s.order)
	s.order = append(s.order, snap.ID)
}

// Get returns a deep copy of the snapshot with id, resolving References to
// their Inline content when resolve is true (spec §4.5 "Retrieve").
func (s *Store) Get(id string, resolve bool) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.snapshots[id]
	if !ok {
		return nil, ErrSnapshotNotFound
	}
	clone := snap.Clone()
	if !resolve {
		return clone, nil
	}
	for path, entry := range clone.Files {
		if entry.Kind != EntryReference {
			continue
		}
		resolved, err := s.resolveEntryLocked(entry)
		if err != nil {
			return nil, err
		}
		clone.Files[path] = resolved
	}
	return clone, nil
}

func (s *Store) resolveEntryLocked(ref FileEntry) (FileEntry, error) {
	target, ok := s.snapshots[ref.SnapshotID]
	if !ok {
		return FileEntry{}, ErrSnapshotNotFound
	}
	for _, entry := range target.Files {
		if entry.Kind == EntryInline && entry.Checksum == ref.Checksum {
			content := entry.Content
			if entry.Compressed {
				plain, err := decompress(content)
				if err != nil {
					return FileEntry{}, err
				}
				content = plain
			}
			resolved := NewInlineEntry(entry.Checksum, append([]byte(nil), content...), false)
			resolved.Size = entry.Size
			return resolved, nil
		}
	}
	return FileEntry{}, ErrSnapshotNotFound
}

// List returns snapshots newest-first, optionally limited to the first
// limit results. limit <= 0 means unlimited.
func (s *Store) List(limit int) []*Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.order)
	if limit > 0 && limit < n {
		n = limit
	}
	out := make([]*Snapshot, 0, n)
	for i := len(s.order) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.snapshots[s.order[i]].Clone())
	}
	return out
}

// Metrics exposes the counters the Snapshot Manager surfaces (spec §4.5
// "Count memory-eviction events in metrics").
func (s *Store) Metrics() (count int, inlineBytes int64, evictions int64) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order), s.inlineBytes, s.evictionCount
}
