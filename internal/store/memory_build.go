package store

import (
	"context"
	"sync"

	"github.com/Harshitk-cp/tenantedge/internal/domain"
)

// MemoryBuildRegistry keeps build entries in process. Each tenant has its
// own lock; the registry-wide lock is only held to find or create it.
type MemoryBuildRegistry struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu   sync.RWMutex
	info *domain.TenantBuildInfo
}

func NewMemoryBuildRegistry() *MemoryBuildRegistry {
	return &MemoryBuildRegistry{entries: make(map[string]*memoryEntry)}
}

func (r *MemoryBuildRegistry) entry(tenantID string) *memoryEntry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[tenantID]
	if !ok {
		e = &memoryEntry{}
		r.entries[tenantID] = e
	}
	return e
}

func (r *MemoryBuildRegistry) Get(_ context.Context, tenantID string) (*domain.TenantBuildInfo, error) {
	r.mu.Lock()
	e, ok := r.entries[tenantID]
	r.mu.Unlock()
	if !ok {
		return nil, ErrNotFound
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.info == nil {
		return nil, ErrNotFound
	}
	cp := *e.info
	return &cp, nil
}

func (r *MemoryBuildRegistry) Put(_ context.Context, info *domain.TenantBuildInfo) error {
	e := r.entry(info.TenantID)
	e.mu.Lock()
	defer e.mu.Unlock()

	cp := *info
	e.info = &cp
	return nil
}

func (r *MemoryBuildRegistry) Ping(context.Context) error {
	return nil
}

// Len returns the number of tenants with a stored entry.
func (r *MemoryBuildRegistry) Len() int {
	r.mu.Lock()
	entries := make([]*memoryEntry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.Unlock()

	n := 0
	for _, e := range entries {
		e.mu.RLock()
		if e.info != nil {
			n++
		}
		e.mu.RUnlock()
	}
	return n
}
