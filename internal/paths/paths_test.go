package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestGetPaths(t *testing.T) {
	p := GetPaths()

	if p.ConfigDir == "" {
		t.Error("ConfigDir should not be empty")
	}
	if p.DataDir == "" {
		t.Error("DataDir should not be empty")
	}
	if p.CacheDir == "" {
		t.Error("CacheDir should not be empty")
	}

	if !strings.Contains(p.ConfigDir, "sradb") {
		t.Errorf("ConfigDir should contain 'sradb', got %q", p.ConfigDir)
	}
	if !strings.Contains(p.DataDir, "sradb") {
		t.Errorf("DataDir should contain 'sradb', got %q", p.DataDir)
	}
}

func TestGetPathsWithAppEnv(t *testing.T) {
	t.Setenv("SRADB_CONFIG_HOME", "/custom/config")
	t.Setenv("SRADB_DATA_HOME", "/custom/data")
	t.Setenv("SRADB_CACHE_HOME", "/custom/cache")

	p := GetPaths()

	if p.ConfigDir != "/custom/config" {
		t.Errorf("expected ConfigDir '/custom/config', got %q", p.ConfigDir)
	}
	if p.DataDir != "/custom/data" {
		t.Errorf("expected DataDir '/custom/data', got %q", p.DataDir)
	}
	if p.CacheDir != "/custom/cache" {
		t.Errorf("expected CacheDir '/custom/cache', got %q", p.CacheDir)
	}
}

func TestGetPathsWithXDGEnv(t *testing.T) {
	// Clear sradb-specific vars to test XDG fallback
	t.Setenv("SRADB_CONFIG_HOME", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg/config")

	p := GetPaths()
	if p.ConfigDir != "/xdg/config/sradb" {
		t.Errorf("expected ConfigDir '/xdg/config/sradb', got %q", p.ConfigDir)
	}
}

func TestGetConfigFile(t *testing.T) {
	t.Setenv("SRADB_CONFIG", "")
	t.Setenv("SRADB_CONFIG_HOME", "/cfg")
	if got := GetConfigFile(); got != "/cfg/config.yaml" {
		t.Errorf("expected /cfg/config.yaml, got %q", got)
	}

	t.Setenv("SRADB_CONFIG", "/elsewhere/sradb.toml")
	if got := GetConfigFile(); got != "/elsewhere/sradb.toml" {
		t.Errorf("SRADB_CONFIG should win, got %q", got)
	}
}

func TestDefaultDirectories(t *testing.T) {
	t.Setenv("SRADB_DATA_HOME", "/data")
	t.Setenv("SRADB_CACHE_HOME", "/cache")

	if got := GetMetaDBDir(); got != "/data" {
		t.Errorf("GetMetaDBDir() = %q", got)
	}
	if got := GetDownloadsPath(); got != "/cache/downloads" {
		t.Errorf("GetDownloadsPath() = %q", got)
	}
}

func TestEnsureDirectories(t *testing.T) {
	base := t.TempDir()
	t.Setenv("SRADB_CONFIG_HOME", filepath.Join(base, "config"))
	t.Setenv("SRADB_DATA_HOME", filepath.Join(base, "data"))
	t.Setenv("SRADB_CACHE_HOME", filepath.Join(base, "cache"))

	if err := EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{"config", "data", "cache"} {
		info, err := os.Stat(filepath.Join(base, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s to exist", dir)
		}
	}
}
