package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// File is a JSON-file-backed store for the durable namespace. Every Put
// rewrites the file; reads are served from memory.
type File struct {
	mu     sync.RWMutex
	path   string
	data   map[string]string
	logger *zap.Logger
}

// NewFile loads (or creates) the store at path.
func NewFile(path string, logger *zap.Logger) (*File, error) {
	f := &File{
		path:   path,
		data:   make(map[string]string),
		logger: logger,
	}

	raw, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
		// first run, start empty
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(raw, &f.data); err != nil {
			return nil, err
		}
	}

	return f, nil
}

// Get returns value or fallback.
func (f *File) Get(key, fallback string) string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if v, ok := f.data[key]; ok {
		return v
	}
	return fallback
}

// Put stores value and flushes to disk. Flush failures are logged, not fatal:
// the in-memory view stays authoritative for the running process.
func (f *File) Put(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	if err := f.flushLocked(); err != nil && f.logger != nil {
		f.logger.Warn("durable store flush failed", zap.String("path", f.path), zap.Error(err))
	}
}

func (f *File) flushLocked() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	tmp := f.path + ".tmp"
	if dir := filepath.Dir(f.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}
