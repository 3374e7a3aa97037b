package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds server tunables that are deployment specific but not secret.
// Secrets and endpoints come from the environment, never from this file.
type Config struct {
	// Extensions accepted by the upload endpoint, without the leading dot.
	// An empty list disables the extension check entirely.
	AllowedExtensions []string `yaml:"allowed_extensions"`

	// Upper bound on a single upload in mebibytes. Payloads are buffered in
	// memory before being written, so this also bounds per request memory.
	MaxUploadMib int `yaml:"max_upload_mib"`
}

func Default() Config {
	return Config{
		AllowedExtensions: []string{"csv", "json", "txt", "dat", "h5", "mat", "parquet", "zip"},
		MaxUploadMib:      256,
	}
}

// Load reads the yaml config at path, falling back to defaults for any field
// not present. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config file '%v': %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("error parsing config file '%v': %w", path, err)
	}

	if cfg.MaxUploadMib <= 0 {
		cfg.MaxUploadMib = Default().MaxUploadMib
	}

	return cfg, nil
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMib) * 1024 * 1024
}

// ExtensionAllowed reports whether the filename's extension is in the allowed
// set. Filenames without an extension are rejected when a set is configured.
func (c *Config) ExtensionAllowed(filename string) bool {
	if len(c.AllowedExtensions) == 0 {
		return true
	}

	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	for _, allowed := range c.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}
