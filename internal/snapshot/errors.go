package snapshot

import "errors"

// ErrSnapshotNotFound is spec §7's SnapshotNotFound kind, surfaced by the
// façade as {success:false} rather than propagated as a hard error.
var ErrSnapshotNotFound = errors.New("snapshot not found")

// ErrEmptyInstruction is returned by Create when instruction is empty.
var ErrEmptyInstruction = errors.New("snapshot instruction must not be empty")
