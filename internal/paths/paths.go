// Package paths resolves the XDG base directories sradb uses.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

const appName = "sradb"

type Paths struct {
	ConfigDir string
	DataDir   string
	CacheDir  string
}

// GetPaths returns all base paths respecting environment variables
func GetPaths() Paths {
	return Paths{
		ConfigDir: getDir("SRADB_CONFIG_HOME", "XDG_CONFIG_HOME", ".config"),
		DataDir:   getDir("SRADB_DATA_HOME", "XDG_DATA_HOME", ".local/share"),
		CacheDir:  getDir("SRADB_CACHE_HOME", "XDG_CACHE_HOME", ".cache"),
	}
}

func getDir(appEnv, xdgEnv, defaultBase string) string {
	// 1. Check sradb-specific env
	if dir := os.Getenv(appEnv); dir != "" {
		return dir
	}

	// 2. Check XDG env
	if xdgBase := os.Getenv(xdgEnv); xdgBase != "" {
		return filepath.Join(xdgBase, appName)
	}

	// 3. Use default
	home, _ := os.UserHomeDir()
	return filepath.Join(home, defaultBase, appName)
}

// GetConfigFile returns the default config file location. SRADB_CONFIG
// overrides it.
func GetConfigFile() string {
	if path := os.Getenv("SRADB_CONFIG"); path != "" {
		return path
	}
	return filepath.Join(GetPaths().ConfigDir, "config.yaml")
}

// GetMetaDBDir returns where `sradb metadb` stores the snapshot by default.
func GetMetaDBDir() string {
	return GetPaths().DataDir
}

// GetDownloadsPath returns the default output directory of `sradb download`.
func GetDownloadsPath() string {
	return filepath.Join(GetPaths().CacheDir, "downloads")
}

// EnsureDirectories creates all necessary directories
func EnsureDirectories() error {
	p := GetPaths()
	for _, dir := range []string{p.ConfigDir, p.DataDir, p.CacheDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}
