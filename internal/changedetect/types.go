// Package changedetect implements the Change Detector (C8): capture
// directory file-state snapshots (size, mtime, optional checksum), compare
// them, and decide whether the result warrants a snapshot.
//
// No teacher file walks a directory computing this kind of per-file diff
// (the closest candidate, internal/workspace, reads a fixed set of named
// markdown files rather than walking a tree, so it does not ground the walk
// itself). This package is written from scratch in the teacher's stdlib-
// first file-I/O idiom: filepath.WalkDir, os.Lstat to avoid following
// symlinks, crypto/md5 for a cheap below-threshold checksum — see
// DESIGN.md for the explicit stdlib justification.
package changedetect

import (
	"io/fs"
	"time"
)

// FileState is one file's recorded state at capture time.
type FileState struct {
	Size     int64
	Mode     fs.FileMode
	ModTime  time.Time
	Checksum string // empty when above the checksum threshold
}

// CaptureError records a per-path I/O failure encountered during Capture.
// Capture continues past individual failures (spec §7 "CaptureError...
// recorded in per-path error list; capture continues").
type CaptureError struct {
	Path string
	Err  error
}

// Capture is one directory file-state snapshot (spec §3 data model feeds
// into the "Change Set" produced by Compare).
type Capture struct {
	BasePath string
	Files    map[string]FileState
	Errors   []CaptureError
	Skipped  []string // paths skipped for exceeding MaxFileSize
}

// ChangeType classifies a modified entry (spec §4.7).
type ChangeType string

const (
	ChangeSizeIncreased   ChangeType = "size-increased"
	ChangeSizeDecreased   ChangeType = "size-decreased"
	ChangeContentChanged  ChangeType = "content-changed"
	ChangeTimestampChanged ChangeType = "timestamp-changed"
)

// ModifiedEntry is one path's classified change.
type ModifiedEntry struct {
	Path      string
	Type      ChangeType
	SizeDelta int64 // after.Size - before.Size
}

// ChangeSet is the four-partition result of comparing two Captures
// (spec §3).
type ChangeSet struct {
	Created   []string
	Modified  []ModifiedEntry
	Deleted   []string
	Unchanged []string
}

// Options configures Capture and ShouldCreateSnapshot.
type Options struct {
	ExcludePatterns   []string
	ChecksumThreshold int64 // files at or below this size also get an md5 checksum
	MaxFileSize       int64 // files above this size are skipped and counted
	TrackMTime        bool  // compare mtime when neither side has a checksum
	MinimumChangeSize int64
}

// DefaultExcludePatterns matches directories no capture should ever
// descend into (spec §4.7 "defaults include node_modules, .git,
// build-output directories").
var DefaultExcludePatterns = []string{"node_modules", ".git", "dist", "build", "out", "target", ".next", "vendor"}
