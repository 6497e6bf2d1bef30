package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir string, name string, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidatedCache_PutThenGet(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "package a\n")
	c := NewValidatedCache(10, NewFileReader())

	result := c.Put(path, nil, []byte(`{"sections":[]}`))
	require.True(t, result.Stored)
	assert.Empty(t, result.Reason)
	assert.Len(t, result.ContentHash, 8)

	hit, reason := c.Get(path, nil)
	require.Equal(t, MissNone, reason)
	require.NotNil(t, hit)
	assert.Equal(t, []byte(`{"sections":[]}`), hit.Payload)
	assert.Equal(t, 1, hit.HitCount)
	assert.Equal(t, result.ContentHash, hit.ContentHash)
	assert.False(t, hit.CreatedAt.IsZero())

	hit, reason = c.Get(path, nil)
	require.Equal(t, MissNone, reason)
	assert.Equal(t, 2, hit.HitCount)
}

func TestValidatedCache_MissNoEntry(t *testing.T) {
	c := NewValidatedCache(10, NewFileReader())

	hit, reason := c.Get("/nowhere/missing.go", nil)
	assert.Nil(t, hit)
	assert.Equal(t, MissNoEntry, reason)
}

func TestValidatedCache_ContentChangeInvalidates(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "package a\n")
	c := NewValidatedCache(10, NewFileReader())

	require.True(t, c.Put(path, nil, []byte("payload")).Stored)

	// Same size, different bytes. Only the content hash can catch this.
	require.NoError(t, os.WriteFile(path, []byte("package b\n"), 0644))

	hit, reason := c.Get(path, nil)
	assert.Nil(t, hit)
	assert.Equal(t, MissContentChanged, reason)

	// The stale entry is gone, not retried.
	hit, reason = c.Get(path, nil)
	assert.Nil(t, hit)
	assert.Equal(t, MissNoEntry, reason)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Invalidations)
	assert.Equal(t, 0, stats.Entries)
}

func TestValidatedCache_DeletedResource(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "package a\n")
	c := NewValidatedCache(10, NewFileReader())

	require.True(t, c.Put(path, nil, []byte("payload")).Stored)
	require.NoError(t, os.Remove(path))

	hit, reason := c.Get(path, nil)
	assert.Nil(t, hit)
	assert.Equal(t, MissResourceNotFound, reason)

	hit, reason = c.Get(path, nil)
	assert.Nil(t, hit)
	assert.Equal(t, MissNoEntry, reason)
}

func TestValidatedCache_PutMissingResource(t *testing.T) {
	c := NewValidatedCache(10, NewFileReader())

	result := c.Put("/nowhere/missing.go", nil, []byte("payload"))
	assert.False(t, result.Stored)
	assert.Equal(t, NotCachedResourceMissing, result.Reason)
	assert.Equal(t, 0, c.Len())
}

func TestValidatedCache_LRUEviction(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTestFile(t, dir, "a.go", "package a\n")
	pathB := writeTestFile(t, dir, "b.go", "package b\n")
	pathC := writeTestFile(t, dir, "c.go", "package c\n")
	c := NewValidatedCache(2, NewFileReader())

	require.True(t, c.Put(pathA, nil, []byte("A")).Stored)
	require.True(t, c.Put(pathB, nil, []byte("B")).Stored)

	// Touch A so B becomes the least recently used entry.
	_, reason := c.Get(pathA, nil)
	require.Equal(t, MissNone, reason)

	result := c.Put(pathC, nil, []byte("C"))
	require.True(t, result.Stored)
	assert.Equal(t, 1, result.Evicted)
	assert.Equal(t, 2, c.Len())

	_, reason = c.Get(pathB, nil)
	assert.Equal(t, MissNoEntry, reason, "least recently used entry was evicted")
	hit, reason := c.Get(pathA, nil)
	require.Equal(t, MissNone, reason)
	assert.Equal(t, []byte("A"), hit.Payload)
	hit, reason = c.Get(pathC, nil)
	require.Equal(t, MissNone, reason)
	assert.Equal(t, []byte("C"), hit.Payload)

	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestValidatedCache_ReplaceDoesNotEvict(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTestFile(t, dir, "a.go", "package a\n")
	pathB := writeTestFile(t, dir, "b.go", "package b\n")
	c := NewValidatedCache(2, NewFileReader())

	require.True(t, c.Put(pathA, nil, []byte("old")).Stored)
	require.True(t, c.Put(pathB, nil, []byte("B")).Stored)

	result := c.Put(pathA, nil, []byte("new"))
	require.True(t, result.Stored)
	assert.Equal(t, 0, result.Evicted)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, int64(0), c.Stats().Evictions)

	hit, reason := c.Get(pathA, nil)
	require.Equal(t, MissNone, reason)
	assert.Equal(t, []byte("new"), hit.Payload)
	assert.Equal(t, 1, hit.HitCount, "replacement resets the hit count")
}

func TestValidatedCache_ParamsAreCanonical(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "package a\n")
	c := NewValidatedCache(10, NewFileReader())

	require.True(t, c.Put(path, map[string]interface{}{"tool": "overview", "max_tokens": 200}, []byte("payload")).Stored)

	// Same pairs, different construction order.
	params := map[string]interface{}{}
	params["max_tokens"] = 200
	params["tool"] = "overview"
	hit, reason := c.Get(path, params)
	require.Equal(t, MissNone, reason)
	assert.Equal(t, []byte("payload"), hit.Payload)

	// Different values are a different entry.
	_, reason = c.Get(path, map[string]interface{}{"tool": "overview", "max_tokens": 400})
	assert.Equal(t, MissNoEntry, reason)
}

func TestValidatedCache_NilParamsEqualEmpty(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "package a\n")
	c := NewValidatedCache(10, NewFileReader())

	require.True(t, c.Put(path, nil, []byte("payload")).Stored)

	hit, reason := c.Get(path, map[string]interface{}{})
	require.Equal(t, MissNone, reason)
	assert.Equal(t, []byte("payload"), hit.Payload)
}

func TestValidatedCache_InvalidateByResource(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTestFile(t, dir, "a.go", "package a\n")
	pathB := writeTestFile(t, dir, "b.go", "package b\n")
	c := NewValidatedCache(10, NewFileReader())

	require.True(t, c.Put(pathA, map[string]interface{}{"tool": "overview"}, []byte("1")).Stored)
	require.True(t, c.Put(pathA, map[string]interface{}{"tool": "truncate"}, []byte("2")).Stored)
	require.True(t, c.Put(pathB, nil, []byte("3")).Stored)

	removed := c.Invalidate(pathA)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, c.Len())

	_, reason := c.Get(pathB, nil)
	assert.Equal(t, MissNone, reason)

	assert.Equal(t, 0, c.Invalidate(pathA), "already removed")
}

func TestValidatedCache_InvalidateAll(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTestFile(t, dir, "a.go", "package a\n")
	pathB := writeTestFile(t, dir, "b.go", "package b\n")
	c := NewValidatedCache(10, NewFileReader())

	require.True(t, c.Put(pathA, nil, []byte("1")).Stored)
	require.True(t, c.Put(pathB, nil, []byte("2")).Stored)

	assert.Equal(t, 2, c.InvalidateAll())
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, 0, c.InvalidateAll())
}

func TestValidatedCache_Stats(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "package a\n")
	c := NewValidatedCache(25, NewFileReader())

	stats := c.Stats()
	assert.Equal(t, 0, stats.Entries)
	assert.Equal(t, 25, stats.Capacity)
	assert.Equal(t, int64(0), stats.TotalRequests)
	assert.Equal(t, 0.0, stats.HitRatePercent, "no requests means zero rate, not NaN")

	require.True(t, c.Put(path, nil, []byte("payload")).Stored)
	c.Get(path, nil)
	c.Get("/nowhere/else.go", nil)

	stats = c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(2), stats.TotalRequests)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 50.0, stats.HitRatePercent)

	c.ResetStats()
	stats = c.Stats()
	assert.Equal(t, int64(0), stats.TotalRequests)
	assert.Equal(t, 1, stats.Entries, "resetting stats keeps entries")
}

func TestValidatedCache_DefaultCapacity(t *testing.T) {
	c := NewValidatedCache(0, NewFileReader())
	assert.Equal(t, DefaultCapacity, c.Capacity())

	c = NewValidatedCache(-5, NewFileReader())
	assert.Equal(t, DefaultCapacity, c.Capacity())
}

func TestValidatedCache_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 8)
	for i := range paths {
		paths[i] = writeTestFile(t, dir, fmt.Sprintf("f%d.go", i), fmt.Sprintf("package f%d\n", i))
	}
	c := NewValidatedCache(4, NewFileReader())

	var wg sync.WaitGroup
	for worker := 0; worker < 16; worker++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				path := paths[(worker+i)%len(paths)]
				if i%3 == 0 {
					c.Put(path, nil, []byte("payload"))
				} else {
					c.Get(path, nil)
				}
			}
		}(worker)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Len(), 4)
	stats := c.Stats()
	assert.Equal(t, stats.Hits+stats.Misses, stats.TotalRequests)
}

func TestSnapshot_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	pathA := writeTestFile(t, dir, "a.go", "package a\n")
	pathB := writeTestFile(t, dir, "b.go", "package b\n")
	snapshotPath := filepath.Join(dir, "cache.gob")

	c := NewValidatedCache(10, NewFileReader())
	require.True(t, c.Put(pathA, nil, []byte("A")).Stored)
	require.True(t, c.Put(pathB, nil, []byte("B")).Stored)
	require.NoError(t, c.SaveSnapshot(snapshotPath))

	restored := NewValidatedCache(10, NewFileReader())
	loaded, err := restored.LoadSnapshot(snapshotPath)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded)

	hit, reason := restored.Get(pathA, nil)
	require.Equal(t, MissNone, reason)
	assert.Equal(t, []byte("A"), hit.Payload)
	hit, reason = restored.Get(pathB, nil)
	require.Equal(t, MissNone, reason)
	assert.Equal(t, []byte("B"), hit.Payload)
}

func TestSnapshot_MissingFileIsNotAnError(t *testing.T) {
	c := NewValidatedCache(10, NewFileReader())
	loaded, err := c.LoadSnapshot(filepath.Join(t.TempDir(), "absent.gob"))
	require.NoError(t, err)
	assert.Equal(t, 0, loaded)
}

func TestSnapshot_StaleEntriesInvalidateOnGet(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "package a\n")
	snapshotPath := filepath.Join(dir, "cache.gob")

	c := NewValidatedCache(10, NewFileReader())
	require.True(t, c.Put(path, nil, []byte("payload")).Stored)
	require.NoError(t, c.SaveSnapshot(snapshotPath))

	// File changes between sessions.
	require.NoError(t, os.WriteFile(path, []byte("package changed\n"), 0644))

	restored := NewValidatedCache(10, NewFileReader())
	_, err := restored.LoadSnapshot(snapshotPath)
	require.NoError(t, err)

	hit, reason := restored.Get(path, nil)
	assert.Nil(t, hit)
	assert.Equal(t, MissContentChanged, reason)
}

func TestWatcher_InvalidatesOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "a.go", "package a\n")

	c := NewValidatedCache(10, NewFileReader())
	require.True(t, c.Put(path, nil, []byte("payload")).Stored)

	watcher, err := NewWatcher(c, dir)
	require.NoError(t, err)
	defer watcher.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx)

	require.NoError(t, os.WriteFile(path, []byte("package edited\n"), 0644))

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, 2*time.Second, 20*time.Millisecond, "write event should invalidate the entry")
}
