// internal/cart/storage.go
package cart

import (
	"os"
	"path/filepath"
	"sync"
)

// Storage is the persistence contract the cart writes through. It mirrors
// the web storage API the storefront uses in the browser, so the cart's
// behavior is identical whether it is backed by a file on disk or memory.
type Storage interface {
	GetItem(key string) (string, bool)
	SetItem(key, value string) error
	RemoveItem(key string)
}

// MemoryStorage keeps items in process memory. Used by tests and short-lived
// clients.
type MemoryStorage struct {
	mu    sync.RWMutex
	items map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{items: make(map[string]string)}
}

func (m *MemoryStorage) GetItem(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.items[key]
	return v, ok
}

func (m *MemoryStorage) SetItem(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	return nil
}

func (m *MemoryStorage) RemoveItem(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
}

// FileStorage persists each key as a JSON file under a directory, surviving
// client restarts the way browser local storage survives page reloads.
type FileStorage struct {
	mu  sync.Mutex
	dir string
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileStorage{dir: dir}, nil
}

func (f *FileStorage) GetItem(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (f *FileStorage) SetItem(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return os.WriteFile(f.path(key), []byte(value), 0o644)
}

func (f *FileStorage) RemoveItem(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	os.Remove(f.path(key))
}

func (f *FileStorage) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}
