package roles

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load walks dir (spec §6 "Role-definition file format") and returns a
// freshly populated Registry. Recognized extensions are .json, .yaml, and
// .yml; every other file is ignored. One file may define multiple roles,
// keyed by role name.
func Load(dir string) (*Registry, error) {
	reg := New()

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		if ext != ".json" && ext != ".yaml" && ext != ".yml" {
			return nil
		}

		group := groupFromFilename(path)
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			return fmt.Errorf("read role file %s: %w", path, readErr)
		}

		parsed, parseErr := parseRoleFile(data, ext)
		if parseErr != nil {
			return fmt.Errorf("parse role file %s: %w", path, parseErr)
		}

		for name, role := range parsed {
			r := role
			if validateErr := ValidateParsingToolSchemas(r); validateErr != nil {
				return fmt.Errorf("role %s.%s: %w", group, name, validateErr)
			}
			reg.add(group, name, r)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return reg, nil
}

// groupFromFilename implements spec §4.1: "For each file X.Y.ext, the group
// is Y; for X.ext, the group is global."
func groupFromFilename(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	parts := strings.Split(stem, ".")
	if len(parts) < 2 {
		return GlobalGroup
	}
	return parts[len(parts)-1]
}

func parseRoleFile(data []byte, ext string) (map[string]*Role, error) {
	out := make(map[string]*Role)
	if ext == ".json" {
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	}
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
