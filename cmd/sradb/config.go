package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/nishad/sradb/internal/config"
	"github.com/nishad/sradb/internal/paths"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage sradb configuration",
	Long:  `Show or create the sradb configuration file.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the configuration in effect, after environment and flag overrides.`,
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration",
	Long: `Create a default configuration file at ~/.config/sradb/config.yaml, or at
--config. A .toml path writes TOML. If a config file already exists, use
--force to overwrite it.`,
	Example: `  # Create default config
  sradb config init

  # TOML instead of YAML
  sradb config init --config ~/.config/sradb/config.toml`,
	RunE: runConfigInit,
}

var (
	configForce bool
)

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite existing configuration")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}

func activeConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.GetConfigPath()
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	path := activeConfigPath()

	fmt.Printf("%s %s\n", bold("Config File:"), path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println(yellow("  (using defaults - no config file found)"))
	}
	fmt.Println()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to format config: %w", err)
	}

	for _, line := range strings.Split(strings.TrimRight(string(data), "\n"), "\n") {
		// Top-level sections
		if strings.HasSuffix(line, ":") && !strings.HasPrefix(line, " ") {
			fmt.Println(bold(line))
			continue
		}
		key, value, ok := strings.Cut(line, ": ")
		if !ok {
			fmt.Println(line)
			continue
		}
		fmt.Printf("%s: %s\n", key, cyan(value))
	}

	p := paths.GetPaths()
	fmt.Println()
	fmt.Println(bold("Directories:"))
	fmt.Printf("  Config: %s\n", cyan(p.ConfigDir))
	fmt.Printf("  Data:   %s\n", cyan(p.DataDir))
	fmt.Printf("  Cache:  %s\n", cyan(p.CacheDir))
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := activeConfigPath()

	if _, err := os.Stat(path); err == nil && !configForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
	}

	if err := paths.EnsureDirectories(); err != nil {
		return err
	}
	if err := config.DefaultConfig().Save(path); err != nil {
		return err
	}

	printSuccess("Created configuration at %s", path)
	return nil
}
