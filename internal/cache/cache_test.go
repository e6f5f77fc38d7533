package cache

import (
	"testing"
	"time"
)

func TestQueryKey(t *testing.T) {
	a := QueryKey("https://dbpedia.org/sparql", "select", "SELECT * WHERE {}")
	b := QueryKey("https://dbpedia.org/sparql", "count", "SELECT * WHERE {}")
	c := QueryKey("https://example.org/sparql", "select", "SELECT * WHERE {}")

	if a == b || a == c {
		t.Error("Expected kind and endpoint to change the key")
	}
	if a != QueryKey("https://dbpedia.org/sparql", "select", "SELECT * WHERE {}") {
		t.Error("Expected key to be deterministic")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)
	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatal(err)
	}
	if got, ok := c.Get("k"); !ok || string(got) != "v" {
		t.Errorf("Expected v, got %q (found=%v)", got, ok)
	}
	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("Expected deleted key to be gone")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	c := NewDiskCache(t.TempDir(), time.Hour)

	if err := c.Set("fresh", []byte("1"), 0); err != nil {
		t.Fatal(err)
	}
	if err := c.Set("stale", []byte("2"), -time.Second); err != nil {
		t.Fatal(err)
	}

	if got, ok := c.Get("fresh"); !ok || string(got) != "1" {
		t.Errorf("Expected fresh entry, got %q (found=%v)", got, ok)
	}
	if _, ok := c.Get("stale"); ok {
		t.Error("Expected expired entry to be dropped")
	}
	if err := c.Delete("never-set"); err != nil {
		t.Errorf("Expected deleting a missing key to succeed, got %v", err)
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()
	first := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := first.Set("q", []byte("answer"), 0); err != nil {
		t.Fatal(err)
	}

	// A second process shares only the disk layer.
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := second.Get("q")
	if !ok || string(got) != "answer" {
		t.Fatalf("Expected disk hit, got %q (found=%v)", got, ok)
	}
	if mem, ok := second.memory.Get("q"); !ok || string(mem) != "answer" {
		t.Error("Expected disk hit to be promoted to memory")
	}
}

func TestNop(t *testing.T) {
	var c Cache = Nop{}
	_ = c.Set("k", []byte("v"), 0)
	if _, ok := c.Get("k"); ok {
		t.Error("Expected Nop cache to store nothing")
	}
}
