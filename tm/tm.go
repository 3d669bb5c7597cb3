// Package tm provides translation memory backends. A translation memory
// records which keys are source entries of a resource; target-mode
// extraction consults it through handler.Lookup to drop keys the source
// file never had.
package tm

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/minios-linux/txfmt/handler"
)

// Driver names accepted by Open.
const (
	DriverMemory   = "memory"
	DriverSQLite3  = "sqlite3"
	DriverPostgres = "postgres"
)

// Store is a translation memory that can be written to.
type Store interface {
	handler.Lookup
	// Register records keys as source entries of resource and returns how
	// many were new.
	Register(ctx context.Context, resource string, keys []string) (int, error)
	// Keys returns the source entries of resource in lexical order.
	Keys(ctx context.Context, resource string) ([]string, error)
	Close() error
}

// Open returns the store for driver. dsn is ignored by the memory driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	switch driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverSQLite3, DriverPostgres:
		return OpenSQL(ctx, driver, dsn)
	}
	return nil, fmt.Errorf("unknown translation memory driver %q", driver)
}

// ---------------------------------------------------------------------------
// Memory
// ---------------------------------------------------------------------------

// Memory is an in-process Store.
type Memory struct {
	mu   sync.RWMutex
	keys map[string]map[string]struct{}
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{keys: make(map[string]map[string]struct{})}
}

// Add records keys for resource.
func (m *Memory) Add(resource string, keys ...string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	set := m.keys[resource]
	if set == nil {
		set = make(map[string]struct{}, len(keys))
		m.keys[resource] = set
	}
	added := 0
	for _, k := range keys {
		if _, ok := set[k]; !ok {
			set[k] = struct{}{}
			added++
		}
	}
	return added
}

// Exists implements handler.Lookup.
func (m *Memory) Exists(_ context.Context, resource, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[resource][key]
	return ok, nil
}

// Register implements Store.
func (m *Memory) Register(_ context.Context, resource string, keys []string) (int, error) {
	return m.Add(resource, keys...), nil
}

// Keys implements Store.
func (m *Memory) Keys(_ context.Context, resource string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.keys[resource]))
	for k := range m.keys[resource] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// ---------------------------------------------------------------------------
// Read-through cache
// ---------------------------------------------------------------------------

// Keyer lists the keys of a resource.
type Keyer interface {
	Keys(ctx context.Context, resource string) ([]string, error)
}

// Cache memoises the answers of a slower Lookup. It is safe for
// concurrent use.
type Cache struct {
	next handler.Lookup

	mu       sync.RWMutex
	answers  map[string]map[string]bool
	complete map[string]bool
}

// NewCache wraps next.
func NewCache(next handler.Lookup) *Cache {
	return &Cache{
		next:     next,
		answers:  make(map[string]map[string]bool),
		complete: make(map[string]bool),
	}
}

// Exists implements handler.Lookup. Errors are not cached.
func (c *Cache) Exists(ctx context.Context, resource, key string) (bool, error) {
	c.mu.RLock()
	v, hit := c.answers[resource][key]
	complete := c.complete[resource]
	c.mu.RUnlock()
	if hit {
		return v, nil
	}
	if complete {
		return false, nil
	}

	ok, err := c.next.Exists(ctx, resource, key)
	if err != nil {
		return false, err
	}
	c.mu.Lock()
	c.set(resource, key, ok)
	c.mu.Unlock()
	return ok, nil
}

// Preload fetches every key of resource in one call, after which misses
// are answered without consulting the wrapped lookup. It does nothing if
// the wrapped lookup cannot list keys.
func (c *Cache) Preload(ctx context.Context, resource string) (int, error) {
	k, ok := c.next.(Keyer)
	if !ok {
		return 0, nil
	}
	keys, err := k.Keys(ctx, resource)
	if err != nil {
		return 0, fmt.Errorf("preloading %s: %w", resource, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		c.set(resource, key, true)
	}
	c.complete[resource] = true
	return len(keys), nil
}

func (c *Cache) set(resource, key string, ok bool) {
	m := c.answers[resource]
	if m == nil {
		m = make(map[string]bool)
		c.answers[resource] = m
	}
	m[key] = ok
}
