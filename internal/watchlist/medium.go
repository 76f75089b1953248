package watchlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Medium is a durable key-value storage medium.
// Load returns (nil, nil) when the key has never been written.
type Medium interface {
	Load(key string) ([]byte, error)
	Save(key string, value []byte) error
}

// ======================================================================================
// In-Memory Medium
// ======================================================================================

// MemoryMedium keeps values in process memory. Used by tests and as the
// fallback when no durable backend can be opened.
type MemoryMedium struct {
	mu      sync.RWMutex
	data    map[string][]byte
	loadErr error
	saveErr error
}

// NewMemoryMedium creates an empty in-memory medium
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{data: make(map[string][]byte)}
}

// Load returns a copy of the stored value
func (m *MemoryMedium) Load(key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.loadErr != nil {
		return nil, m.loadErr
	}
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

// Save stores a copy of value under key
func (m *MemoryMedium) Save(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Put writes a raw value bypassing failure injection (e.g. to seed corrupt content)
func (m *MemoryMedium) Put(key string, raw string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = []byte(raw)
}

// Raw returns the stored value as a string, bypassing failure injection
func (m *MemoryMedium) Raw(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return string(v), ok
}

// FailLoads makes every subsequent Load return err. nil restores normal behaviour.
func (m *MemoryMedium) FailLoads(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailSaves makes every subsequent Save return err. nil restores normal behaviour.
func (m *MemoryMedium) FailSaves(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveErr = err
}

// ======================================================================================
// File Medium
// ======================================================================================

// FileMedium stores each key as a JSON file inside a directory
type FileMedium struct {
	dir string
}

// NewFileMedium creates a file medium rooted at dir, creating it if needed
func NewFileMedium(dir string) (*FileMedium, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create watchlist directory: %w", err)
	}
	return &FileMedium{dir: dir}, nil
}

// Path returns the file that backs key
func (f *FileMedium) Path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+".json")
}

// Load reads the file for key; a missing file is not an error
func (f *FileMedium) Load(key string) ([]byte, error) {
	data, err := os.ReadFile(f.Path(key))
	if os.IsNotExist(err) {
		return nil, nil
	}
	return data, err
}

// Save replaces the file for key atomically (temp file + rename)
func (f *FileMedium) Save(key string, value []byte) error {
	tmp, err := os.CreateTemp(f.dir, sanitizeKey(key)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(value); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, f.Path(key)); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}

// sanitizeKey keeps the key usable as a file name (no path traversal)
func sanitizeKey(key string) string {
	res := make([]rune, 0, len(key))
	for _, r := range key {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			res = append(res, r)
		}
	}
	if len(res) == 0 {
		return "watchlist"
	}
	return string(res)
}
