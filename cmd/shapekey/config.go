package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"
)

const defaultConfigName = "shapekey.toml"

// fileConfig mirrors shapekey.toml.
type fileConfig struct {
	Cache struct {
		MaxFingerprintBytes int `toml:"max_fingerprint_bytes"`
	} `toml:"cache"`
	Dispatch struct {
		ScalarShortcut bool `toml:"scalar_shortcut"`
	} `toml:"dispatch"`
	Trace struct {
		Level  string `toml:"level"`
		Mode   string `toml:"mode"`
		Output string `toml:"output"`
	} `toml:"trace"`
}

// loadConfig reads path. A missing file is not an error when path is the
// default name, so the CLI works without any config.
func loadConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == defaultConfigName {
			return fileConfig{}, nil
		}
		return fileConfig{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return fileConfig{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if meta.IsDefined("cache", "max_fingerprint_bytes") && cfg.Cache.MaxFingerprintBytes < 0 {
		return fileConfig{}, fmt.Errorf("%s: [cache].max_fingerprint_bytes must not be negative", path)
	}
	if meta.IsDefined("trace", "level") && strings.TrimSpace(cfg.Trace.Level) == "" {
		return fileConfig{}, fmt.Errorf("%s: [trace].level is empty", path)
	}
	return cfg, nil
}

// configFor loads the file named by --config and lets explicitly set trace
// flags win over it.
func configFor(cmd *cobra.Command) (fileConfig, error) {
	flags := cmd.Root().PersistentFlags()
	path, err := flags.GetString("config")
	if err != nil {
		return fileConfig{}, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return fileConfig{}, err
	}
	for _, o := range []struct {
		flag string
		dst  *string
	}{
		{"trace-level", &cfg.Trace.Level},
		{"trace-mode", &cfg.Trace.Mode},
		{"trace", &cfg.Trace.Output},
	} {
		if flags.Changed(o.flag) || *o.dst == "" {
			v, err := flags.GetString(o.flag)
			if err != nil {
				return fileConfig{}, fmt.Errorf("failed to get %s flag: %w", o.flag, err)
			}
			*o.dst = v
		}
	}
	return cfg, nil
}
