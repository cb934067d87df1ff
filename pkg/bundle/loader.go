package bundle

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// BundleLoader abstracts where an export bundle lives. Paths are always
// relative to the bundle root and use forward slashes, e.g.
// "events/s01e04.yaml". Missing files are reported with an error wrapping
// fs.ErrNotExist so callers can tell absence from read failures.
type BundleLoader interface {
	ReadFile(ctx context.Context, name string) ([]byte, error)
	ListEventFiles(ctx context.Context) ([]string, error)
}

// DirBundleLoader reads a bundle from a local directory with caching.
type DirBundleLoader struct {
	root string

	cache   map[string][]byte
	cacheMu sync.RWMutex
	group   singleflight.Group
}

// NewDirBundleLoader creates a loader rooted at the given directory.
func NewDirBundleLoader(root string) *DirBundleLoader {
	return &DirBundleLoader{
		root:  root,
		cache: make(map[string][]byte),
	}
}

// ReadFile reads a bundle file from the filesystem. Results are cached.
func (l *DirBundleLoader) ReadFile(ctx context.Context, name string) ([]byte, error) {
	l.cacheMu.RLock()
	if cached, ok := l.cache[name]; ok {
		l.cacheMu.RUnlock()
		return cached, nil
	}
	l.cacheMu.RUnlock()

	result, err, _ := l.group.Do(name, func() (any, error) {
		l.cacheMu.RLock()
		if cached, ok := l.cache[name]; ok {
			l.cacheMu.RUnlock()
			return cached, nil
		}
		l.cacheMu.RUnlock()

		data, err := os.ReadFile(filepath.Join(l.root, filepath.FromSlash(name)))
		if err != nil {
			return nil, err
		}

		l.cacheMu.Lock()
		l.cache[name] = data
		l.cacheMu.Unlock()

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// ListEventFiles returns the per-episode event files under events/, sorted
// by name. A missing events directory yields an empty list.
func (l *DirBundleLoader) ListEventFiles(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(l.root, "events"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isYAMLFile(entry.Name()) {
			continue
		}
		names = append(names, "events/"+entry.Name())
	}
	sort.Strings(names)

	return names, nil
}

func isYAMLFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}
