package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ignoreFileName is checked first; .gitignore is the fallback so projects
// without a dedicated ignore file still get sensible listings.
const ignoreFileName = ".codectx-ignore"

// ignoreCacheEntry holds cached ignore patterns with metadata
type ignoreCacheEntry struct {
	patterns []string
	modTime  time.Time
}

// Global cache for ignore patterns
var (
	ignoreCache = make(map[string]*ignoreCacheEntry)
	cacheMutex  sync.RWMutex
)

// Directory and file names skipped regardless of ignore files.
var defaultIgnoreNames = []string{
	".git",
	".svn",
	".hg",
	".idea",
	".vscode",
	".cache",
	".codectx-ignore",
	"node_modules",
	"__pycache__",
	"bin",
	"obj",
	"dist",
	"out",
	"target",
	"vendor",
}

// Extensions of binary or media files that never hold readable source.
var defaultIgnoreSuffixes = []string{
	".exe", ".dll", ".so", ".dylib", ".bin",
	".log", ".bak", ".bkp", ".tmp", ".tmpl", ".sum", ".lock",
	".mp3", ".wav", ".aac", ".flac", ".ogg",
	".jpg", ".jpeg", ".png", ".gif", ".ico", ".svg",
	".mkv", ".mp4", ".avi", ".mov", ".wmv",
	".zip", ".tar", ".gz", ".7z", ".rar",
	".pdf", ".drawio", ".excalidraw",
}

// Config files of the tool itself, matched by prefix to cover yml and json.
var defaultIgnorePrefixes = []string{
	"codectx-config",
}

// GetIgnorePatterns reads and returns the patterns from the project's ignore
// file. It prefers .codectx-ignore and falls back to .gitignore; if neither
// exists it returns an empty pattern list. Parsed patterns are cached per
// file and refreshed when the file's modification time changes.
func GetIgnorePatterns(rootDir string) ([]string, error) {
	for _, name := range []string{ignoreFileName, ".gitignore"} {
		ignorePath := filepath.Join(rootDir, name)

		fileInfo, err := os.Stat(ignorePath)
		if os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, fmt.Errorf("error checking %s: %w", name, err)
		}

		// Check cache first
		cacheMutex.RLock()
		if cached, exists := ignoreCache[ignorePath]; exists {
			if fileInfo.ModTime().Equal(cached.modTime) {
				cacheMutex.RUnlock()
				return cached.patterns, nil
			}
		}
		cacheMutex.RUnlock()

		ignorePatterns, err := readIgnoreFile(ignorePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}

		// Patterns the defaults already cover would only slow matching down.
		var validPatterns []string
		for _, pattern := range ignorePatterns {
			if !IsDefaultIgnored(pattern) {
				validPatterns = append(validPatterns, pattern)
			}
		}

		cacheMutex.Lock()
		ignoreCache[ignorePath] = &ignoreCacheEntry{
			patterns: validPatterns,
			modTime:  fileInfo.ModTime(),
		}
		cacheMutex.Unlock()

		return validPatterns, nil
	}

	return []string{}, nil
}

// IsDefaultIgnored reports whether any part of the path matches the built-in
// ignore rules for VCS metadata, build output and binary files.
func IsDefaultIgnored(path string) bool {
	parts := strings.Split(path, string(filepath.Separator))

	for _, part := range parts {
		part = strings.ToLower(part)
		for _, name := range defaultIgnoreNames {
			if part == name {
				return true
			}
		}
		for _, prefix := range defaultIgnorePrefixes {
			if strings.HasPrefix(part, prefix) {
				return true
			}
		}
		for _, suffix := range defaultIgnoreSuffixes {
			if strings.HasSuffix(part, suffix) {
				return true
			}
		}
	}
	return false
}

// readIgnoreFile reads an ignore file and returns the list of patterns.
func readIgnoreFile(ignorePath string) ([]string, error) {
	content, err := os.ReadFile(ignorePath)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(content), "\n")
	var patterns []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" && !strings.HasPrefix(line, "#") {
			patterns = append(patterns, line)
		}
	}
	return patterns, nil
}

// IsIgnored checks if a file path matches any of the loaded ignore patterns.
func IsIgnored(path string, patterns []string) bool {
	for _, pattern := range patterns {
		if match, _ := filepath.Match(pattern, path); match {
			return true
		}
		// Patterns like "*.txt" should also match files in subdirectories.
		if match, _ := filepath.Match(pattern, filepath.Base(path)); match {
			return true
		}
		// Handle patterns like "dir/" that ignore entire directories
		if strings.HasSuffix(pattern, "/") {
			prefix := strings.TrimSuffix(pattern, "/")
			if path == prefix || strings.HasPrefix(path, pattern) {
				return true
			}
		}
	}
	return false
}

// ClearIgnoreCache clears all cached ignore patterns
func ClearIgnoreCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	ignoreCache = make(map[string]*ignoreCacheEntry)
}

// GetIgnoreCacheStats returns statistics about the ignore pattern cache
func GetIgnoreCacheStats() map[string]interface{} {
	cacheMutex.RLock()
	defer cacheMutex.RUnlock()

	stats := make(map[string]interface{})
	stats["cached_files"] = len(ignoreCache)
	entries := make([]string, 0, len(ignoreCache))
	for path := range ignoreCache {
		entries = append(entries, path)
	}
	stats["cache_entries"] = entries

	return stats
}
