package cartstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// GuestCartKey names the persisted guest cart.
const GuestCartKey = "guest_cart"

// Storage persists the guest cart lines between sessions.
type Storage interface {
	Load(ctx context.Context) ([]Item, error)
	Save(ctx context.Context, items []Item) error
	Clear(ctx context.Context) error
}

// MemoryStorage keeps the guest cart in process memory.
type MemoryStorage struct {
	mu    sync.Mutex
	items []Item
}

func NewMemoryStorage(items ...Item) *MemoryStorage {
	return &MemoryStorage{items: append([]Item{}, items...)}
}

func (m *MemoryStorage) Load(context.Context) ([]Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Item{}, m.items...), nil
}

func (m *MemoryStorage) Save(_ context.Context, items []Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = append([]Item{}, items...)
	return nil
}

func (m *MemoryStorage) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items = nil
	return nil
}

// FileStorage writes the guest cart as JSON under dir.
type FileStorage struct {
	path string
	mu   sync.Mutex
}

func NewFileStorage(dir string) (*FileStorage, error) {
	if dir == "" {
		return nil, fmt.Errorf("cartstate: storage dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("cartstate: create storage dir: %w", err)
	}
	return &FileStorage{path: filepath.Join(dir, GuestCartKey+".json")}, nil
}

func (f *FileStorage) Load(context.Context) ([]Item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cartstate: read guest cart: %w", err)
	}
	var items []Item
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("cartstate: decode guest cart: %w", err)
	}
	return items, nil
}

// Save replaces the stored cart atomically via a temp file rename.
func (f *FileStorage) Save(_ context.Context, items []Item) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if items == nil {
		items = []Item{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("cartstate: encode guest cart: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("cartstate: write guest cart: %w", err)
	}
	if err := os.Rename(tmp, f.path); err != nil {
		return fmt.Errorf("cartstate: replace guest cart: %w", err)
	}
	return nil
}

func (f *FileStorage) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("cartstate: remove guest cart: %w", err)
	}
	return nil
}
