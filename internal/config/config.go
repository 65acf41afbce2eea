// Package config loads the process-wide configuration for the agent core:
// role directory location, model variant table, snapshot strategy, and the
// default tool-call budget. Loading and file-format parsing are an external
// collaborator boundary (spec §1); this package only defines the shape and a
// thin loader, not a general config framework.
package config

import "time"

// Config is the root configuration object.
type Config struct {
	Roles    RolesConfig    `yaml:"roles"`
	Models   ModelsConfig   `yaml:"models"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Budget   BudgetConfig   `yaml:"budget"`
}

// RolesConfig locates role-definition files and their environment template.
type RolesConfig struct {
	Dir              string `yaml:"dir"`
	EnvironmentTemplate string `yaml:"environment_template"`
	Watch            bool   `yaml:"watch"`
}

// ModelLevel is one of the role levels a Role may request.
type ModelLevel string

const (
	LevelBase  ModelLevel = "base"
	LevelSmart ModelLevel = "smart"
	LevelFast  ModelLevel = "fast"
)

// ModelsConfig maps each role level to a concrete provider/model pair.
// A level absent from Variants falls back to LevelBase at resolution time
// (spec §4.3 "Model selection").
type ModelsConfig struct {
	Variants map[ModelLevel]ModelVariant `yaml:"variants"`
}

// ModelVariant names the provider and model id backing one level.
type ModelVariant struct {
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
}

// SnapshotConfig configures the Snapshot Manager and its backing strategy.
type SnapshotConfig struct {
	Strategy                string        `yaml:"strategy"` // "git" | "file" | "auto"
	GitBranchPrefix         string        `yaml:"git_branch_prefix"`
	MaxSnapshots            int           `yaml:"max_snapshots"`
	MemoryLimitBytes        int64         `yaml:"memory_limit_bytes"`
	CompressionThreshold    int           `yaml:"compression_threshold_bytes"`
	MaxConcurrentOperations int           `yaml:"max_concurrent_operations"`
	MinimumChangeSize       int64         `yaml:"minimum_change_size_bytes"`
	ChecksumThreshold       int64         `yaml:"checksum_threshold_bytes"`
	MaxFileSize             int64         `yaml:"max_file_size_bytes"`
	RetryAttempts           int           `yaml:"retry_attempts"`
	RetryBaseDelay          time.Duration `yaml:"retry_base_delay"`
}

// BudgetConfig is the default tool-call budget for a new conversation.
type BudgetConfig struct {
	DefaultLimit int `yaml:"default_limit"`
}

// Defaults returns a Config populated with the defaults this core ships
// with absent any file on disk, following the same additive-default
// philosophy as the teacher's own config package (zero value plus explicit
// fill-in, rather than a schema-validated struct tag default).
func Defaults() *Config {
	return &Config{
		Roles: RolesConfig{
			Dir: "roles",
		},
		Models: ModelsConfig{
			Variants: map[ModelLevel]ModelVariant{
				LevelBase:  {Provider: "anthropic", Model: "claude-3-5-sonnet-latest"},
				LevelSmart: {Provider: "anthropic", Model: "claude-3-5-sonnet-latest"},
				LevelFast:  {Provider: "anthropic", Model: "claude-3-5-haiku-latest"},
			},
		},
		Snapshot: SnapshotConfig{
			Strategy:                "auto",
			GitBranchPrefix:         "agentcore-snapshot",
			MaxSnapshots:            200,
			MemoryLimitBytes:        256 << 20,
			CompressionThreshold:    4 << 10,
			MaxConcurrentOperations: 4,
			MinimumChangeSize:       1,
			ChecksumThreshold:       1 << 20,
			MaxFileSize:             32 << 20,
			RetryAttempts:           3,
			RetryBaseDelay:          200 * time.Millisecond,
		},
		Budget: BudgetConfig{
			DefaultLimit: 25,
		},
	}
}
