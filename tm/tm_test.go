package tm

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/minios-linux/txfmt/handler"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	if n := m.Add("app", "b", "a", "b"); n != 2 {
		t.Fatalf("Add() = %d, want 2", n)
	}
	if n, _ := m.Register(ctx, "app", []string{"a", "c"}); n != 1 {
		t.Fatalf("Register() = %d, want 1", n)
	}

	if ok, _ := m.Exists(ctx, "app", "a"); !ok {
		t.Error("Exists(app, a) = false")
	}
	if ok, _ := m.Exists(ctx, "other", "a"); ok {
		t.Error("Exists(other, a) = true")
	}
	keys, _ := m.Keys(ctx, "app")
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "mongo", ""); err == nil {
		t.Fatal("Open(mongo) succeeded, want error")
	}
	s, err := Open(context.Background(), DriverMemory, "")
	if err != nil {
		t.Fatalf("Open(memory): %v", err)
	}
	if _, ok := s.(*Memory); !ok {
		t.Fatalf("Open(memory) = %T, want *Memory", s)
	}
}

type countingLookup struct {
	*Memory
	calls atomic.Int32
	fail  bool
}

func (c *countingLookup) Exists(ctx context.Context, resource, key string) (bool, error) {
	c.calls.Add(1)
	if c.fail {
		return false, errors.New("unavailable")
	}
	return c.Memory.Exists(ctx, resource, key)
}

func TestCacheMemoises(t *testing.T) {
	ctx := context.Background()
	inner := &countingLookup{Memory: NewMemory()}
	inner.Add("app", "a")
	c := NewCache(inner)

	for i := 0; i < 3; i++ {
		if ok, err := c.Exists(ctx, "app", "a"); err != nil || !ok {
			t.Fatalf("Exists(a) = %v, %v", ok, err)
		}
		if ok, err := c.Exists(ctx, "app", "zz"); err != nil || ok {
			t.Fatalf("Exists(zz) = %v, %v", ok, err)
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("inner lookups = %d, want 2", got)
	}
}

func TestCacheDoesNotCacheErrors(t *testing.T) {
	inner := &countingLookup{Memory: NewMemory(), fail: true}
	c := NewCache(inner)
	for i := 0; i < 2; i++ {
		if _, err := c.Exists(context.Background(), "app", "a"); err == nil {
			t.Fatal("Exists() error = nil, want failure")
		}
	}
	if got := inner.calls.Load(); got != 2 {
		t.Fatalf("inner lookups = %d, want 2", got)
	}
}

func TestCachePreload(t *testing.T) {
	ctx := context.Background()
	mem := NewMemory()
	mem.Add("app", "a", "b")
	inner := &countingLookup{Memory: mem}

	// countingLookup embeds *Memory, so it is also a Keyer.
	c := NewCache(inner)
	n, err := c.Preload(ctx, "app")
	if err != nil || n != 2 {
		t.Fatalf("Preload() = %d, %v; want 2, nil", n, err)
	}
	if ok, _ := c.Exists(ctx, "app", "b"); !ok {
		t.Error("Exists(b) = false after preload")
	}
	if ok, _ := c.Exists(ctx, "app", "missing"); ok {
		t.Error("Exists(missing) = true after preload")
	}
	if got := inner.calls.Load(); got != 0 {
		t.Fatalf("inner lookups = %d, want 0 after preload", got)
	}
}

func TestCachePreloadWithoutKeyer(t *testing.T) {
	lookup := handler.LookupFunc(func(context.Context, string, string) (bool, error) { return true, nil })
	n, err := NewCache(lookup).Preload(context.Background(), "app")
	if err != nil || n != 0 {
		t.Fatalf("Preload() = %d, %v; want 0, nil", n, err)
	}
}

func TestSQLiteStore(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "memory.db")

	s, err := Open(ctx, DriverSQLite3, path)
	if err != nil {
		t.Fatalf("Open(sqlite3): %v", err)
	}
	n, err := s.Register(ctx, "app", []string{"greeting", "farewell", "greeting"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if n != 2 {
		t.Fatalf("Register() = %d, want 2", n)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Reopen to check the schema migration is not re-applied.
	s, err = Open(ctx, DriverSQLite3, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s.Close()

	if ok, err := s.Exists(ctx, "app", "greeting"); err != nil || !ok {
		t.Errorf("Exists(greeting) = %v, %v", ok, err)
	}
	if ok, err := s.Exists(ctx, "app", "missing"); err != nil || ok {
		t.Errorf("Exists(missing) = %v, %v", ok, err)
	}
	if ok, err := s.Exists(ctx, "web", "greeting"); err != nil || ok {
		t.Errorf("Exists(web, greeting) = %v, %v", ok, err)
	}
	keys, err := s.Keys(ctx, "app")
	if err != nil {
		t.Fatalf("Keys: %v", err)
	}
	if want := []string{"farewell", "greeting"}; !reflect.DeepEqual(keys, want) {
		t.Errorf("Keys() = %v, want %v", keys, want)
	}
}
