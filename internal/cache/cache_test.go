package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/hiereval/internal/model"
)

func TestCacheKey(t *testing.T) {
	a := CacheKey("icecat", "1", "abc")
	b := CacheKey("icecat", "1", "abc")
	c := CacheKey("icecat", "2", "abc")

	if a != b {
		t.Errorf("expected stable keys, got %s and %s", a, b)
	}
	if a == c {
		t.Error("expected different keys for different inputs")
	}
	// parts are separated, so concatenations do not collide
	if CacheKey("ab", "c") == CacheKey("a", "bc") {
		t.Error("expected part boundaries to matter")
	}
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Minute)

	if err := c.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get("k")
	if !ok || string(got) != "v" {
		t.Errorf("expected hit with v, got %q %v", got, ok)
	}
	if c.Len() != 1 {
		t.Errorf("expected 1 entry, got %d", c.Len())
	}

	_ = c.Delete("k")
	if _, ok := c.Get("k"); ok {
		t.Error("expected miss after delete")
	}
}

func TestDiskCache_Expiry(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := c.Set("hiereval:v1:abc", []byte("report"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok := c.Get("hiereval:v1:abc")
	if !ok || string(got) != "report" {
		t.Errorf("expected hit, got %q %v", got, ok)
	}

	if err := c.Set("short", []byte("x"), time.Nanosecond); err != nil {
		t.Fatalf("set: %v", err)
	}
	time.Sleep(2 * time.Millisecond)
	if _, ok := c.Get("short"); ok {
		t.Error("expected expired entry to miss")
	}

	// no temp files left behind
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".json" {
			t.Errorf("unexpected file %s", e.Name())
		}
	}

	if err := c.Delete("missing"); err != nil {
		t.Errorf("expected delete of missing key to succeed, got %v", err)
	}
}

func TestDiskCache_Corrupt(t *testing.T) {
	dir := t.TempDir()
	c := NewDiskCache(dir, time.Hour)

	if err := os.WriteFile(c.path("bad"), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Error("expected corrupt entry to miss")
	}
}

func TestLayeredCache_PromotesDiskHits(t *testing.T) {
	dir := t.TempDir()

	first := NewLayeredCache(time.Minute, dir, time.Hour)
	if err := first.Set("k", []byte("v"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	// a fresh process only has the disk layer
	second := NewLayeredCache(time.Minute, dir, time.Hour)
	got, ok := second.Get("k")
	if !ok || string(got) != "v" {
		t.Fatalf("expected disk hit, got %q %v", got, ok)
	}
	if _, ok := second.memory.Get("k"); !ok {
		t.Error("expected disk hit to be promoted to memory")
	}

	if err := second.Clear(); err != nil {
		t.Errorf("clear: %v", err)
	}
	if _, ok := second.Get("k"); ok {
		t.Error("expected miss after clear")
	}
}

func TestFromConfig(t *testing.T) {
	if c := FromConfig(model.CacheConfig{Enabled: false}); c != nil {
		t.Error("expected nil cache when disabled")
	}
	if c := FromConfig(model.CacheConfig{Enabled: true, Dir: t.TempDir(), MemoryTTL: time.Minute}); c == nil {
		t.Error("expected cache when enabled")
	}
}
