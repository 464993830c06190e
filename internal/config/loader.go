package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	groveerrors "github.com/zhubert/grove/internal/errors"
)

// FileName is the config file name, relative to the repository root.
const FileName = ".grove.yaml"

// Load reads and parses .grove.yaml from the repository root.
// Returns nil, nil if the file does not exist.
func Load(repoRoot string) (*Config, error) {
	fp := filepath.Join(repoRoot, FileName)

	data, err := os.ReadFile(fp)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, groveerrors.ConfigLoadFailed(fp, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, groveerrors.ConfigLoadFailed(fp, err)
	}

	return &cfg, nil
}

// LoadAndMerge loads .grove.yaml, merges it over the defaults, and validates
// the result. A missing file yields the default config.
func LoadAndMerge(repoRoot string) (*Config, error) {
	cfg, err := Load(repoRoot)
	if err != nil {
		return nil, err
	}

	defaults := DefaultConfig()
	if cfg == nil {
		return defaults, nil
	}

	merged := Merge(cfg, defaults)
	if errs := Validate(merged); len(errs) > 0 {
		return nil, groveerrors.ConfigInvalid(errs[0].Error())
	}
	return merged, nil
}
