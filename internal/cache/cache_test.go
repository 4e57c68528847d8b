package cache

import (
	"bytes"
	"testing"
	"time"
)

func TestKeyIsContentAddressed(t *testing.T) {
	a := Key([]byte("PAY TO THE ORDER OF"))
	b := Key([]byte("PAY TO THE ORDER OF"))
	c := Key([]byte("pay to the order of"))

	if a != b {
		t.Error("same content must produce the same key")
	}
	if a == c {
		t.Error("different content must produce different keys")
	}
	if len(a) == 0 || a[:13] != "titletrace:v1" {
		t.Errorf("key should carry the version prefix, got %q", a)
	}
}

func TestMemoryCacheRoundTrip(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	key := Key([]byte("note content"))
	if _, found := c.Get(key); found {
		t.Fatal("empty cache should miss")
	}

	want := []byte(`{"name":"note.md"}`)
	if err := c.Set(key, want, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := c.Get(key)
	if !found {
		t.Fatal("expected cache hit")
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	if err := c.Delete(key); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, found := c.Get(key); found {
		t.Error("deleted key should miss")
	}
}

func TestDiskCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	key := Key([]byte("assignment content"))
	want := []byte("cached review")
	if err := c.Set(key, want, 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	got, found := c.Get(key)
	if !found {
		t.Fatal("expected cache hit")
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestDiskCacheExpiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Minute)

	key := Key([]byte("stale"))
	if err := c.Set(key, []byte("old"), -time.Second); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, found := c.Get(key); found {
		t.Error("expired entry should miss")
	}
}

func TestLayeredCachePromotesFromDisk(t *testing.T) {
	dir := t.TempDir()
	c := NewLayeredCache(time.Minute, dir, time.Minute)

	key := Key([]byte("security instrument"))
	want := []byte("layered")
	if err := c.Set(key, want, time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	// Drop the memory layer; the disk copy should still serve the key.
	if err := c.memory.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	got, found := c.Get(key)
	if !found {
		t.Fatal("expected hit from disk layer")
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got %q, want %q", got, want)
	}

	// The disk hit promotes back into memory.
	if _, found := c.memory.Get(key); !found {
		t.Error("disk hit should repopulate the memory layer")
	}
}
