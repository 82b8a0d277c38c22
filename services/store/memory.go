package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore keeps products and settings in process memory
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]Product
	order    []string
	settings map[string]float64
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		products: make(map[string]Product),
		settings: make(map[string]float64),
	}
}

func (m *MemoryStore) Create(ctx context.Context, p *Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.products[p.ID]; exists {
		return fmt.Errorf("product %s already exists", p.ID)
	}
	m.products[p.ID] = cloneProduct(*p)
	m.order = append(m.order, p.ID)
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := cloneProduct(p)
	return &out, nil
}

// List returns products in insertion order
func (m *MemoryStore) List(ctx context.Context) ([]Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products := make([]Product, 0, len(m.order))
	for _, id := range m.order {
		products = append(products, cloneProduct(m.products[id]))
	}
	return products, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, update ProductUpdate) (*Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p.TitleTranslated = update.TitleTranslated
	p.PriceTarget = update.PriceTarget
	m.products[id] = p

	out := cloneProduct(p)
	return &out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.products[id]; !ok {
		return ErrNotFound
	}
	delete(m.products, id)
	for i, existing := range m.order {
		if existing == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

func (m *MemoryStore) All(ctx context.Context) (map[string]float64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return WithDefaults(m.settings), nil
}

func (m *MemoryStore) Upsert(ctx context.Context, values map[string]float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.settings[k] = v
	}
	return nil
}

func cloneProduct(p Product) Product {
	if p.Images != nil {
		p.Images = append([]string(nil), p.Images...)
	}
	return p
}
