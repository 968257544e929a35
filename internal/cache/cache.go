// Package cache stores analysis results keyed by the SHA-256 of the analyzed file content.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/sevigo/diff-warden/internal/core"
)

// DefaultDir is the cache folder used when none is configured.
const DefaultDir = ".diffwarden-cache"

// ErrNotFound is returned by Load when no artifact exists for a hash.
var ErrNotFound = errors.New("cache entry not found")

// Store is a best-effort result cache. Get never fails: every problem is a miss.
type Store interface {
	Get(ctx context.Context, hash string) ([]core.Finding, bool)
	Put(ctx context.Context, path, hash string, findings []core.Finding) error
}

// HashContent returns the hex SHA-256 digest of a file's content.
func HashContent(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

// FileCache keeps one JSON artifact per content hash in a directory.
type FileCache struct {
	dir    string
	logger *slog.Logger
}

// NewFileCache creates the cache directory if needed.
func NewFileCache(dir string, logger *slog.Logger) (*FileCache, error) {
	if dir == "" {
		dir = DefaultDir
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}
	return &FileCache{dir: dir, logger: logger}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

// Get returns the cached findings for a content hash.
func (c *FileCache) Get(_ context.Context, hash string) ([]core.Finding, bool) {
	entry, err := c.Load(hash)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			c.logger.Warn("ignoring unreadable cache entry", "hash", hash, "error", err)
		}
		return nil, false
	}
	return entry.Findings, true
}

// Load reads and decodes the artifact for a content hash.
func (c *FileCache) Load(hash string) (*core.CacheEntry, error) {
	data, err := os.ReadFile(c.entryPath(hash))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}
	var entry core.CacheEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode cache entry: %w", err)
	}
	return &entry, nil
}

// Put writes the findings for a content hash. The artifact is written to a temporary
// file and renamed into place so readers never observe a partial write.
func (c *FileCache) Put(_ context.Context, path, hash string, findings []core.Finding) error {
	if findings == nil {
		findings = []core.Finding{}
	}
	data, err := json.Marshal(core.CacheEntry{Path: path, Findings: findings})
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	tmp, err := os.CreateTemp(c.dir, hash+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to write cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to close cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.entryPath(hash)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to store cache file: %w", err)
	}
	return nil
}

// Stats describes the contents of the cache directory.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
}

// Stats counts the artifacts in the cache directory.
func (c *FileCache) Stats() (Stats, error) {
	stats := Stats{Dir: c.dir}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return stats, nil
		}
		return stats, fmt.Errorf("failed to read cache directory: %w", err)
	}
	for _, e := range entries {
		if !isArtifact(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()
	}
	return stats, nil
}

// Clear removes every artifact and returns how many were deleted.
func (c *FileCache) Clear() (int, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read cache directory: %w", err)
	}
	removed := 0
	for _, e := range entries {
		if !isArtifact(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, e.Name())); err == nil {
			removed++
		}
	}
	return removed, nil
}

func (c *FileCache) entryPath(hash string) string {
	return filepath.Join(c.dir, hash+".json")
}

func isArtifact(name string) bool {
	return filepath.Ext(name) == ".json" && !strings.Contains(name, ".tmp")
}

// Noop is the Store used when caching is disabled.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]core.Finding, bool) { return nil, false }

func (Noop) Put(context.Context, string, string, []core.Finding) error { return nil }
