package twbinary

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/cockroachdb/errors"
)

// Cache stores detected binary versions so the binary is not executed on
// every resolve.
type Cache interface {
	Get(key string) (string, bool)
	Set(key, version string) error
}

type MemoryCache struct {
	entries sync.Map
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{}
}

func (c *MemoryCache) Get(key string) (string, bool) {
	v, ok := c.entries.Load(key)
	if !ok {
		return "", false
	}
	s, _ := v.(string)
	return s, true
}

func (c *MemoryCache) Set(key, version string) error {
	c.entries.Store(key, version)
	return nil
}

// FileCache persists versions as JSON, typically inside the var dir, so they
// survive between CLI invocations.
type FileCache struct {
	path    string
	mu      sync.Mutex
	entries map[string]string
}

// OpenFileCache loads the cache at path. A missing file is an empty cache.
func OpenFileCache(path string) (*FileCache, error) {
	c := &FileCache{path: path, entries: make(map[string]string)}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return c, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if err := json.Unmarshal(data, &c.entries); err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	return c, nil
}

func (c *FileCache) Get(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *FileCache) Set(key, version string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = version

	data, err := json.MarshalIndent(c.entries, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding version cache")
	}
	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return errors.Wrapf(err, "creating %s", filepath.Dir(c.path))
	}

	tmp := c.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	return errors.Wrapf(os.Rename(tmp, c.path), "replacing %s", c.path)
}
