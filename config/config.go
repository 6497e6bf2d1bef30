package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/RoscoeTheDog/codectx/constants/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// configCacheEntry holds cached configuration with metadata
type configCacheEntry struct {
	config  *Config
	modTime time.Time
}

// Global cache for configuration files
var (
	configCache = make(map[string]*configCacheEntry)
	cacheMutex  sync.RWMutex
)

// Config represents the structure of the configuration file
type Config struct {
	Version           string `mapstructure:"version"`
	Theme             string `mapstructure:"theme"`
	MaxTokens         int    `mapstructure:"max_tokens"`
	DetailLevel       string `mapstructure:"detail_level"`
	EnableCache       bool   `mapstructure:"enable_cache"`
	CacheCapacity     int    `mapstructure:"cache_capacity"`
	CacheSnapshotPath string `mapstructure:"cache_snapshot_path"`
}

// DefaultConfig values
var DefaultConfig = Config{
	Version:           "1.2.0",
	Theme:             "dracula",
	MaxTokens:         2000,
	DetailLevel:       "normal",
	EnableCache:       true,
	CacheCapacity:     100,
	CacheSnapshotPath: "",
}

// cfgFile holds the path to the configuration file (set via CLI)
var cfgFile string

// LoadConfigs initializes the configuration from file, flags, and environment variables, and returns the final config.
func LoadConfigs(rootCmd *cobra.Command, cwd string) *Config {
	var config *Config

	// Set default values using Viper
	setDefaults()

	// Automatically read environment variables
	viper.SetEnvPrefix("codectx")
	viper.AutomaticEnv()

	// Explicitly bind environment variables to config keys
	bindEnv()

	// Check if the user provided a config file
	if cfgFile != "" {
		// Use the config file from the flag
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Error reading config file: %v", err)))
			os.Exit(1)
		}
	} else {
		// Look for configuration files in the current directory
		viper.SetConfigName("codectx-config") // Name of config file (without extension)
		viper.AddConfigPath(cwd)              // Look in the current working directory

		// Support both YAML and JSON formats
		viper.SetConfigType("yaml") // Set default type
		if err := viper.ReadInConfig(); err != nil {
			// If YAML fails, try JSON
			viper.SetConfigType("json")
			if err := viper.ReadInConfig(); err != nil {
				// If both fail, continue with defaults
				fmt.Println(lipgloss.Yellow.Render("No configuration file found, using defaults"))
			}
		}
	}

	// Bind CLI flags to override config values
	bindFlags(rootCmd)

	// Unmarshal the configuration into the Config struct
	if err := viper.Unmarshal(&config); err != nil {
		fmt.Println(lipgloss.Red.Render(fmt.Sprintf("Unable to decode into struct: %v", err)))
		os.Exit(1)
	}

	return config
}

// setDefaults sets all default configuration values
func setDefaults() {
	viper.SetDefault("version", DefaultConfig.Version)
	viper.SetDefault("theme", DefaultConfig.Theme)
	viper.SetDefault("max_tokens", DefaultConfig.MaxTokens)
	viper.SetDefault("detail_level", DefaultConfig.DetailLevel)
	viper.SetDefault("enable_cache", DefaultConfig.EnableCache)
	viper.SetDefault("cache_capacity", DefaultConfig.CacheCapacity)
	viper.SetDefault("cache_snapshot_path", DefaultConfig.CacheSnapshotPath)
}

// bindEnv explicitly binds environment variables to configuration keys.
// With the prefix set these resolve as CODECTX_THEME, CODECTX_MAX_TOKENS, ...
func bindEnv() {
	_ = viper.BindEnv("theme")
	_ = viper.BindEnv("max_tokens")
	_ = viper.BindEnv("detail_level")
	_ = viper.BindEnv("enable_cache")
	_ = viper.BindEnv("cache_capacity")
	_ = viper.BindEnv("cache_snapshot_path")
}

// bindFlags binds the CLI flags to configuration values.
func bindFlags(rootCmd *cobra.Command) {
	_ = viper.BindPFlag("theme", rootCmd.PersistentFlags().Lookup("theme"))
	_ = viper.BindPFlag("max_tokens", rootCmd.PersistentFlags().Lookup("max_tokens"))
	_ = viper.BindPFlag("detail_level", rootCmd.PersistentFlags().Lookup("detail_level"))
	_ = viper.BindPFlag("enable_cache", rootCmd.PersistentFlags().Lookup("enable_cache"))
	_ = viper.BindPFlag("cache_capacity", rootCmd.PersistentFlags().Lookup("cache_capacity"))
	_ = viper.BindPFlag("cache_snapshot_path", rootCmd.PersistentFlags().Lookup("cache_snapshot_path"))
}

// InitFlags initializes the flags for the root command.
func InitFlags(rootCmd *cobra.Command) {
	// Use PersistentFlags so that these flags are available in all subcommands
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Specifies the path to a configuration file (JSON or YAML) that contains all the settings for the application.")

	// Theme configuration
	rootCmd.PersistentFlags().String("theme", DefaultConfig.Theme, "Set the highlighting theme for rendered code. (e.g., 'dracula', 'light', 'dark')")

	// Token budget configuration
	rootCmd.PersistentFlags().Int("max_tokens", DefaultConfig.MaxTokens, "Default token budget applied when truncating file content.")
	rootCmd.PersistentFlags().String("detail_level", DefaultConfig.DetailLevel, "Default detail level for token estimates: 'minimal', 'normal' or 'detailed'.")

	// Cache configuration
	rootCmd.PersistentFlags().Bool("enable_cache", DefaultConfig.EnableCache, "Enable or disable the validated analysis cache.")
	rootCmd.PersistentFlags().Int("cache_capacity", DefaultConfig.CacheCapacity, "Maximum number of analysis results the cache holds before evicting.")
	rootCmd.PersistentFlags().String("cache_snapshot_path", DefaultConfig.CacheSnapshotPath, "File the cache is saved to on exit and restored from on start. Empty disables persistence.")

	// Version flag
	rootCmd.Flags().BoolP("version", "v", false, "Specifies the version of the application.")
}

// GetConfigFileType returns the type of the configuration file based on its extension
func GetConfigFileType(filename string) string {
	if strings.HasSuffix(filename, ".json") {
		return "json"
	} else if strings.HasSuffix(filename, ".yaml") || strings.HasSuffix(filename, ".yml") {
		return "yaml"
	}
	return ""
}

// LoadConfigWithCache loads configuration with caching support
func LoadConfigWithCache(rootCmd *cobra.Command, cwd string) *Config {
	var configFilePath string

	// Determine config file path
	if cfgFile != "" {
		configFilePath = cfgFile
	} else {
		// Check for default config files
		yamlPath := fmt.Sprintf("%s/codectx-config.yaml", cwd)
		ymlPath := fmt.Sprintf("%s/codectx-config.yml", cwd)
		jsonPath := fmt.Sprintf("%s/codectx-config.json", cwd)

		if _, err := os.Stat(yamlPath); err == nil {
			configFilePath = yamlPath
		} else if _, err := os.Stat(ymlPath); err == nil {
			configFilePath = ymlPath
		} else if _, err := os.Stat(jsonPath); err == nil {
			configFilePath = jsonPath
		}
	}

	// If no config file exists, return default configuration loading
	if configFilePath == "" {
		return LoadConfigs(rootCmd, cwd)
	}

	// Check file modification time
	fileInfo, err := os.Stat(configFilePath)
	if err != nil {
		// File doesn't exist or error, fallback to regular loading
		return LoadConfigs(rootCmd, cwd)
	}

	// Check cache first
	cacheMutex.RLock()
	if cached, exists := configCache[configFilePath]; exists {
		// Check if file has been modified since cache
		if fileInfo.ModTime().Equal(cached.modTime) {
			cacheMutex.RUnlock()
			return cached.config
		}
	}
	cacheMutex.RUnlock()

	// Load configuration normally
	config := LoadConfigs(rootCmd, cwd)

	// Update cache
	cacheMutex.Lock()
	configCache[configFilePath] = &configCacheEntry{
		config:  config,
		modTime: fileInfo.ModTime(),
	}
	cacheMutex.Unlock()

	return config
}

// ClearConfigCache clears all cached configuration files
func ClearConfigCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	configCache = make(map[string]*configCacheEntry)
}

// GetConfigCacheStats returns statistics about the configuration cache
func GetConfigCacheStats() map[string]interface{} {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()

	stats := make(map[string]interface{})
	stats["cached_files"] = len(configCache)
	entries := make([]string, 0, len(configCache))
	for path := range configCache {
		entries = append(entries, path)
	}
	stats["cache_entries"] = entries

	return stats
}

// InvalidateConfigCache removes a specific config file from cache
func InvalidateConfigCache(configPath string) {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	delete(configCache, configPath)
}
