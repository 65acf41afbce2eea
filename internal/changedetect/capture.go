package changedetect

import (
	"crypto/md5"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// Capture walks the tree under basePath and records each file's state
// (spec §4.7). Directories matching an exclude pattern are skipped
// entirely; symlinks are never followed.
func CaptureDir(basePath string, opts Options) (*Capture, error) {
	excludes := opts.ExcludePatterns
	if excludes == nil {
		excludes = DefaultExcludePatterns
	}

	result := &Capture{BasePath: basePath, Files: make(map[string]FileState)}

	err := filepath.WalkDir(basePath, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			result.Errors = append(result.Errors, CaptureError{Path: path, Err: walkErr})
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, relErr := filepath.Rel(basePath, path)
		if relErr != nil {
			rel = path
		}

		if d.IsDir() {
			if rel != "." && matchesExclude(d.Name(), excludes) {
				return fs.SkipDir
			}
			return nil
		}

		info, statErr := d.Info()
		if statErr != nil {
			result.Errors = append(result.Errors, CaptureError{Path: rel, Err: statErr})
			return nil
		}

		// os.Lstat-equivalent semantics: a symlink's DirEntry reports
		// ModeSymlink without following it; skip rather than capture a
		// symlink's own metadata as if it were the target file's.
		if info.Mode()&fs.ModeSymlink != 0 {
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		if opts.MaxFileSize > 0 && info.Size() > opts.MaxFileSize {
			result.Skipped = append(result.Skipped, rel)
			return nil
		}

		state := FileState{Size: info.Size(), Mode: info.Mode().Perm(), ModTime: info.ModTime()}
		if opts.ChecksumThreshold <= 0 || info.Size() <= opts.ChecksumThreshold {
			sum, sumErr := checksumFile(path)
			if sumErr != nil {
				result.Errors = append(result.Errors, CaptureError{Path: rel, Err: sumErr})
			} else {
				state.Checksum = sum
			}
		}

		result.Files[rel] = state
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func matchesExclude(name string, patterns []string) bool {
	for _, p := range patterns {
		if name == p {
			return true
		}
	}
	return false
}

func checksumFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
