package forecast

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"pricepulse/ml"
)

// ModelIndex tracks which model keys currently exist in the models
// directory. The initial scan is refreshed by filesystem events, so the
// listing endpoint never touches the directory on the request path.
type ModelIndex struct {
	dir    string
	logger *zap.Logger

	mu   sync.RWMutex
	keys map[string]struct{}

	watcher *fsnotify.Watcher
	done    chan struct{}
}

func NewModelIndex(dir string, logger *zap.Logger) (*ModelIndex, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	idx := &ModelIndex{
		dir:    dir,
		logger: logger,
		keys:   make(map[string]struct{}),
		done:   make(chan struct{}),
	}
	idx.rescan()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, err
	}
	idx.watcher = watcher

	go idx.loop()
	return idx, nil
}

// Keys returns the sorted sanitized keys with a persisted artifact.
func (idx *ModelIndex) Keys() []string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	keys := make([]string, 0, len(idx.keys))
	for k := range idx.keys {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (idx *ModelIndex) Close() error {
	close(idx.done)
	if idx.watcher != nil {
		return idx.watcher.Close()
	}
	return nil
}

func (idx *ModelIndex) loop() {
	for {
		select {
		case <-idx.done:
			return
		case event, ok := <-idx.watcher.Events:
			if !ok {
				return
			}
			key, isArtifact := artifactKey(event.Name)
			if !isArtifact {
				continue
			}
			switch {
			case event.Op&(fsnotify.Create|fsnotify.Write) != 0:
				idx.mu.Lock()
				idx.keys[key] = struct{}{}
				idx.mu.Unlock()
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				idx.mu.Lock()
				delete(idx.keys, key)
				idx.mu.Unlock()
			}
		case err, ok := <-idx.watcher.Errors:
			if !ok {
				return
			}
			idx.logger.Warn("model watcher error", zap.Error(err))
			idx.rescan()
		}
	}
}

func (idx *ModelIndex) rescan() {
	entries, err := os.ReadDir(idx.dir)
	if err != nil {
		idx.logger.Warn("cannot scan models dir", zap.String("dir", idx.dir), zap.Error(err))
		return
	}
	keys := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if key, ok := artifactKey(e.Name()); ok {
			keys[key] = struct{}{}
		}
	}
	idx.mu.Lock()
	idx.keys = keys
	idx.mu.Unlock()
}

func artifactKey(path string) (string, bool) {
	base := filepath.Base(path)
	if !strings.HasSuffix(base, ml.ArtifactExt) {
		return "", false
	}
	return strings.TrimSuffix(base, ml.ArtifactExt), true
}
