// Package snapshot implements the Snapshot Store (C6): a content-addressed,
// differential file-state store with checksum deduplication and a safe
// reference-rewrite deletion algorithm.
//
// Grounded on internal/jobs/store.go's in-memory store shape (sync.RWMutex
// guarding a map plus an insertion-ordered key slice), generalized from a
// flat job record store to a content-addressed, cross-referencing one.
package snapshot

import "time"

// Mode names the backing strategy a Snapshot was created under.
type Mode string

const (
	ModeGit  Mode = "git"
	ModeFile Mode = "file"
)

// EntryKind tags which FileEntry variant is populated.
type EntryKind int

const (
	EntryInline EntryKind = iota
	EntryReference
	EntryDeleted
)

// FileEntry is the tagged union from spec §3: Inline, Reference, or
// Deletion marker. Exactly one of the Inline/Reference-shaped field groups
// is meaningful, selected by Kind; consumers must switch on Kind rather
// than infer it from zero values.
type FileEntry struct {
	Kind EntryKind

	// Inline fields.
	Checksum   string
	Size       int64
	Content    []byte
	Compressed bool

	// Reference fields (Checksum above doubles as the reference's
	// checksum; SnapshotID names the earlier snapshot holding the bytes).
	SnapshotID string
}

// NewInlineEntry builds an Inline FileEntry, optionally compressing content
// when it exceeds compressionThreshold bytes.
func NewInlineEntry(checksum string, content []byte, compressed bool) FileEntry {
	return FileEntry{
		Kind:       EntryInline,
		Checksum:   checksum,
		Size:       int64(len(content)),
		Content:    content,
		Compressed: compressed,
	}
}

// NewReferenceEntry builds a Reference FileEntry pointing at snapshotID,
// which must contain an Inline entry with the same checksum and size.
func NewReferenceEntry(checksum string, size int64, snapshotID string) FileEntry {
	return FileEntry{Kind: EntryReference, Checksum: checksum, Size: size, SnapshotID: snapshotID}
}

// NewDeletionEntry marks a path as removed as of this snapshot.
func NewDeletionEntry() FileEntry {
	return FileEntry{Kind: EntryDeleted}
}

// Snapshot is a single time-sortable file-state capture (spec §3).
type Snapshot struct {
	ID          string
	Instruction string
	Timestamp   time.Time
	Mode        Mode
	Files       map[string]FileEntry
}

// Clone returns a deep copy so callers can mutate the result freely without
// affecting the store (spec §4.5 "Retrieve... return a deep copy").
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}
	files := make(map[string]FileEntry, len(s.Files))
	for path, entry := range s.Files {
		clonedEntry := entry
		if entry.Kind == EntryInline && entry.Content != nil {
			clonedEntry.Content = append([]byte(nil), entry.Content...)
		}
		files[path] = clonedEntry
	}
	return &Snapshot{
		ID:          s.ID,
		Instruction: s.Instruction,
		Timestamp:   s.Timestamp,
		Mode:        s.Mode,
		Files:       files,
	}
}

// InputFile is the caller-supplied shape for Store.Create.
type InputFile struct {
	Path    string
	Content []byte
}
