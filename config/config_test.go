package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetConfigFileType(t *testing.T) {
	assert.Equal(t, "json", GetConfigFileType("codectx-config.json"))
	assert.Equal(t, "yaml", GetConfigFileType("codectx-config.yaml"))
	assert.Equal(t, "yaml", GetConfigFileType("codectx-config.yml"))
	assert.Equal(t, "", GetConfigFileType("codectx-config.toml"))
}

func TestConfigCacheLifecycle(t *testing.T) {
	ClearConfigCache()

	cacheMutex.Lock()
	configCache["/tmp/codectx-config.yaml"] = &configCacheEntry{
		config:  &DefaultConfig,
		modTime: time.Now(),
	}
	cacheMutex.Unlock()

	stats := GetConfigCacheStats()
	assert.Equal(t, 1, stats["cached_files"])
	assert.Contains(t, stats["cache_entries"], "/tmp/codectx-config.yaml")

	InvalidateConfigCache("/tmp/codectx-config.yaml")
	stats = GetConfigCacheStats()
	assert.Equal(t, 0, stats["cached_files"])

	ClearConfigCache()
	assert.Equal(t, 0, GetConfigCacheStats()["cached_files"])
}

func TestDefaultConfig(t *testing.T) {
	assert.Equal(t, 2000, DefaultConfig.MaxTokens)
	assert.Equal(t, 100, DefaultConfig.CacheCapacity)
	assert.True(t, DefaultConfig.EnableCache)
	assert.Equal(t, "normal", DefaultConfig.DetailLevel)
	assert.Equal(t, "dracula", DefaultConfig.Theme)
}
