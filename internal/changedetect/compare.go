package changedetect

import "sort"

// Compare implements spec §4.7's comparison and classification rules.
func Compare(before, after *Capture, opts Options) ChangeSet {
	var cs ChangeSet

	for path := range after.Files {
		if _, existed := before.Files[path]; !existed {
			cs.Created = append(cs.Created, path)
		}
	}
	for path := range before.Files {
		if _, exists := after.Files[path]; !exists {
			cs.Deleted = append(cs.Deleted, path)
		}
	}

	for path, afterState := range after.Files {
		beforeState, existed := before.Files[path]
		if !existed {
			continue
		}
		if !differs(beforeState, afterState, opts) {
			cs.Unchanged = append(cs.Unchanged, path)
			continue
		}
		cs.Modified = append(cs.Modified, ModifiedEntry{
			Path:      path,
			Type:      classify(beforeState, afterState),
			SizeDelta: afterState.Size - beforeState.Size,
		})
	}

	sort.Strings(cs.Created)
	sort.Strings(cs.Deleted)
	sort.Strings(cs.Unchanged)
	sort.Slice(cs.Modified, func(i, j int) bool { return cs.Modified[i].Path < cs.Modified[j].Path })

	return cs
}

// differs implements spec §4.7: "Two entries differ iff any of: size
// differs; checksums differ (when both present); mtime differs (when
// neither has a checksum and tracking is enabled)."
func differs(before, after FileState, opts Options) bool {
	if before.Size != after.Size {
		return true
	}
	if before.Checksum != "" && after.Checksum != "" {
		return before.Checksum != after.Checksum
	}
	if before.Checksum == "" && after.Checksum == "" && opts.TrackMTime {
		return !before.ModTime.Equal(after.ModTime)
	}
	return false
}

func classify(before, after FileState) ChangeType {
	switch {
	case after.Size > before.Size:
		return ChangeSizeIncreased
	case after.Size < before.Size:
		return ChangeSizeDecreased
	case before.Checksum != "" && after.Checksum != "" && before.Checksum != after.Checksum:
		return ChangeContentChanged
	default:
		return ChangeTimestampChanged
	}
}

// ShouldCreateSnapshot implements spec §4.7: true iff any created, any
// deleted, or any modified entry whose size delta's absolute value is at
// least minimumChangeSize.
func ShouldCreateSnapshot(cs ChangeSet, minimumChangeSize int64) bool {
	if len(cs.Created) > 0 || len(cs.Deleted) > 0 {
		return true
	}
	for _, m := range cs.Modified {
		delta := m.SizeDelta
		if delta < 0 {
			delta = -delta
		}
		if delta >= minimumChangeSize {
			return true
		}
	}
	return false
}
