package internal

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	tt "github.com/gnolang/reroll/internal/types"
)

const (
	cacheFileName = "reroll_cache.gob"
	defaultMaxAge = 24 * time.Hour
)

type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

type CacheEntry struct {
	Metadata     fileMetadata
	Issues       []tt.Issue
	CreatedAt    time.Time
	LastAccessed time.Time
}

// cacheFile is the persisted form of a Cache.
type cacheFile struct {
	Entries          map[string]CacheEntry
	DependencyHashes map[string]string
}

// Cache stores the issues of each file across runs. An entry is dropped
// when the content or modification time of its file changes, when one of
// the dependency files changes, or when it is older than the maximum age.
type Cache struct {
	CacheDir         string
	entries          map[string]CacheEntry
	mutex            sync.Mutex
	maxAge           time.Duration
	dependencyFiles  []string
	dependencyHashes map[string]string
}

func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	cache := &Cache{
		CacheDir:         cacheDir,
		entries:          make(map[string]CacheEntry),
		maxAge:           defaultMaxAge,
		dependencyHashes: make(map[string]string),
	}

	if err := cache.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return cache, nil
}

func (c *Cache) path() string {
	return filepath.Join(c.CacheDir, cacheFileName)
}

func (c *Cache) load() error {
	file, err := os.Open(c.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	var stored cacheFile
	if err := gob.NewDecoder(file).Decode(&stored); err != nil {
		// an unreadable cache is an empty one
		return nil
	}
	if stored.Entries != nil {
		c.entries = stored.Entries
	}
	if stored.DependencyHashes != nil {
		c.dependencyHashes = stored.DependencyHashes
	}
	return nil
}

func (c *Cache) save() error {
	file, err := os.Create(c.path())
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	stored := cacheFile{Entries: c.entries, DependencyHashes: c.dependencyHashes}
	if err := gob.NewEncoder(file).Encode(stored); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

func (c *Cache) Set(filename string, issues []tt.Issue) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	metadata, err := getFileMetadata(filename)
	if err != nil {
		return fmt.Errorf("failed to get file metadata: %w", err)
	}

	now := time.Now()
	c.entries[filename] = CacheEntry{
		Metadata:     metadata,
		Issues:       issues,
		CreatedAt:    now,
		LastAccessed: now,
	}

	return c.save()
}

func (c *Cache) Get(filename string) ([]tt.Issue, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, false
	}

	if c.isEntryInvalid(filename, entry) {
		delete(c.entries, filename)
		return nil, false
	}

	entry.LastAccessed = time.Now()
	c.entries[filename] = entry

	return entry.Issues, true
}

func (c *Cache) isEntryInvalid(filename string, entry CacheEntry) bool {
	if c.maxAge > 0 && time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}

	currentMetadata, err := getFileMetadata(filename)
	if err != nil || !currentMetadata.LastModified.Equal(entry.Metadata.LastModified) || currentMetadata.Hash != entry.Metadata.Hash {
		return true
	}

	return false
}

// SetDependencies registers files every entry depends on, such as the
// configuration file. When one of them changed since the cache was
// written, every entry is dropped.
func (c *Cache) SetDependencies(files ...string) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.dependencyFiles = files
	if c.haveDependenciesChanged() {
		c.entries = make(map[string]CacheEntry)
	}
	if err := c.updateDependencyHashes(); err != nil {
		return err
	}
	return c.save()
}

func (c *Cache) haveDependenciesChanged() bool {
	if len(c.dependencyFiles) != len(c.dependencyHashes) {
		return true
	}
	for _, file := range c.dependencyFiles {
		hash, err := getFileHash(file)
		if err != nil || hash != c.dependencyHashes[file] {
			return true
		}
	}
	return false
}

func (c *Cache) updateDependencyHashes() error {
	hashes := make(map[string]string, len(c.dependencyFiles))
	for _, file := range c.dependencyFiles {
		hash, err := getFileHash(file)
		if err != nil {
			return fmt.Errorf("failed to get hash for %s: %w", file, err)
		}
		hashes[file] = hash
	}
	c.dependencyHashes = hashes
	return nil
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]CacheEntry)
	_ = c.save() // ignore error as this is a manual operation
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, fmt.Errorf("failed to calculate hash: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to get file info: %w", err)
	}

	return fileMetadata{
		Hash:         fmt.Sprintf("%x", hash.Sum(nil)),
		LastModified: info.ModTime(),
	}, nil
}

func getFileHash(filename string) (string, error) {
	metadata, err := getFileMetadata(filename)
	if err != nil {
		return "", err
	}
	return metadata.Hash, nil
}
