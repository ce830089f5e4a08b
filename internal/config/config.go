package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/nishad/sradb/internal/paths"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the sradb configuration. It is read from YAML or TOML
// depending on the file extension.
type Config struct {
	// Database is the SRAmetadb snapshot. Empty means query NCBI live.
	Database string         `yaml:"database" toml:"database"`
	EUtils   EUtilsConfig   `yaml:"eutils" toml:"eutils"`
	ENA      ENAConfig      `yaml:"ena" toml:"ena"`
	Download DownloadConfig `yaml:"download" toml:"download"`
	MetaDB   MetaDBConfig   `yaml:"metadb" toml:"metadb"`
	Server   ServerConfig   `yaml:"server" toml:"server"`
}

// EUtilsConfig contains NCBI E-utilities settings
type EUtilsConfig struct {
	BaseURL  string `yaml:"base_url" toml:"base_url"`
	APIKey   string `yaml:"api_key" toml:"api_key"`
	Email    string `yaml:"email" toml:"email"`
	Tool     string `yaml:"tool" toml:"tool"`
	TimeoutS int    `yaml:"timeout_seconds" toml:"timeout_seconds"`
	// IntervalMS overrides the request pacing. 0 picks NCBI's limit for the key.
	IntervalMS int `yaml:"request_interval_ms" toml:"request_interval_ms"`
}

// ENAConfig contains ENA portal settings
type ENAConfig struct {
	PortalURL string `yaml:"portal_url" toml:"portal_url"`
}

// DownloadConfig contains defaults for `sradb download`
type DownloadConfig struct {
	OutDir    string `yaml:"out_dir" toml:"out_dir"`
	Protocol  string `yaml:"protocol" toml:"protocol"` // http or aspera
	Column    string `yaml:"column" toml:"column"`     // URL column of the metadata table
	AsperaKey string `yaml:"aspera_key" toml:"aspera_key"`
}

// MetaDBConfig contains defaults for `sradb metadb`
type MetaDBConfig struct {
	URL    string `yaml:"url" toml:"url"`
	OutDir string `yaml:"out_dir" toml:"out_dir"`
}

// ServerConfig contains HTTP API settings
type ServerConfig struct {
	Host string `yaml:"host" toml:"host"`
	Port int    `yaml:"port" toml:"port"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		EUtils: EUtilsConfig{
			BaseURL:  "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/",
			Tool:     "sradb",
			TimeoutS: 60,
		},
		ENA: ENAConfig{
			PortalURL: "https://www.ebi.ac.uk/ena/portal/api/",
		},
		Download: DownloadConfig{
			OutDir:   paths.GetDownloadsPath(),
			Protocol: "http",
			Column:   "sra_url",
		},
		MetaDB: MetaDBConfig{
			URL:    "https://s3.amazonaws.com/starbuck1/sradb/SRAmetadb.sqlite.gz",
			OutDir: paths.GetMetaDBDir(),
		},
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
	}
}

// Load loads configuration from a file. A missing file yields the defaults.
// SRADB_DB and NCBI_API_KEY override the file.
func Load(path string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// Return defaults if file doesn't exist
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := unmarshal(path, data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if db := os.Getenv("SRADB_DB"); db != "" {
		config.Database = db
	}
	if key := os.Getenv("NCBI_API_KEY"); key != "" {
		config.EUtils.APIKey = key
	}

	config.Database = expandPath(config.Database)
	config.Download.OutDir = expandPath(config.Download.OutDir)
	config.Download.AsperaKey = expandPath(config.Download.AsperaKey)
	config.MetaDB.OutDir = expandPath(config.MetaDB.OutDir)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks values a config file can get wrong.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Download.Protocol) {
	case "", "http", "https", "wget", "aspera", "ascp":
	default:
		return fmt.Errorf("download.protocol: unknown protocol %q", c.Download.Protocol)
	}
	if c.EUtils.TimeoutS < 0 || c.EUtils.IntervalMS < 0 {
		return fmt.Errorf("eutils: timeout and interval must not be negative")
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port: %d out of range", c.Server.Port)
	}
	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := marshal(path, c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	return paths.GetConfigFile()
}

// Timeout returns the E-utilities timeout.
func (e EUtilsConfig) Timeout() time.Duration {
	return time.Duration(e.TimeoutS) * time.Second
}

// RequestInterval returns the configured pacing, or 0 for the default.
func (e EUtilsConfig) RequestInterval() time.Duration {
	return time.Duration(e.IntervalMS) * time.Millisecond
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

func unmarshal(path string, data []byte, c *Config) error {
	if isTOML(path) {
		return toml.Unmarshal(data, c)
	}
	return yaml.Unmarshal(data, c)
}

func marshal(path string, c *Config) ([]byte, error) {
	if isTOML(path) {
		return toml.Marshal(c)
	}
	return yaml.Marshal(c)
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if len(path) == 0 {
		return path
	}

	if path[0] == '~' {
		homeDir, _ := os.UserHomeDir()
		return filepath.Join(homeDir, path[1:])
	}

	return path
}
