package config

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load reads a YAML or JSON configuration file from path, expands ${VAR}
// references against the process environment (after loading envFile, if it
// exists, the same local-dev convenience the teacher wires in cmd/nexus's
// main via godotenv), and overlays the result onto Defaults().
func Load(path, envFile string) (*Config, error) {
	if envFile != "" {
		if _, err := os.Stat(envFile); err == nil {
			if err := godotenv.Load(envFile); err != nil {
				return nil, fmt.Errorf("load env file: %w", err)
			}
		}
	}

	cfg := Defaults()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	if err := decodeInto(expanded, path, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func decodeInto(data, pathHint string, cfg *Config) error {
	ext := strings.ToLower(filepath.Ext(pathHint))
	if ext == ".json" {
		return strictJSONDecode([]byte(data), cfg)
	}
	decoder := yaml.NewDecoder(bytes.NewReader([]byte(data)))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil {
		return err
	}
	if err := decoder.Decode(new(struct{})); err != io.EOF {
		return fmt.Errorf("expected a single YAML document")
	}
	return nil
}
