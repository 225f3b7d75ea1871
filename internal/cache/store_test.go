package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGetOrFetch_CacheHit(t *testing.T) {
	s := NewStore(t.TempDir())

	calls := 0
	fetch := func() (string, error) {
		calls++
		return "value", nil
	}

	v, err := GetOrFetch(s, "catalog:Movie", time.Hour, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if v != "value" {
		t.Errorf("expected %q, got %q", "value", v)
	}

	// Second call within the TTL must not invoke the fetch function.
	v, err = GetOrFetch(s, "catalog:Movie", time.Hour, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if v != "value" {
		t.Errorf("expected %q, got %q", "value", v)
	}
	if calls != 1 {
		t.Errorf("expected 1 fetch call, got %d", calls)
	}
}

func TestGetOrFetch_Expiry(t *testing.T) {
	s := NewStore(t.TempDir())

	now := time.Now()
	s.now = func() time.Time { return now }

	calls := 0
	fetch := func() (int, error) {
		calls++
		return calls, nil
	}

	if _, err := GetOrFetch(s, "meta:abc", time.Minute, fetch); err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}

	// Advance past the TTL: the entry is treated as absent and refetched.
	now = now.Add(time.Minute + time.Second)
	v, err := GetOrFetch(s, "meta:abc", time.Minute, fetch)
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("expected 2 fetch calls after expiry, got %d", calls)
	}
	if v != 2 {
		t.Errorf("expected refetched value 2, got %d", v)
	}
}

func TestGetOrFetch_FetchError(t *testing.T) {
	s := NewStore(t.TempDir())

	wantErr := errors.New("upstream down")
	_, err := GetOrFetch(s, "meta:abc", time.Hour, func() (string, error) {
		return "", wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error, got %v", err)
	}

	// Errors are not cached: the next call fetches again.
	v, err := GetOrFetch(s, "meta:abc", time.Hour, func() (string, error) {
		return "recovered", nil
	})
	if err != nil {
		t.Fatalf("GetOrFetch failed: %v", err)
	}
	if v != "recovered" {
		t.Errorf("expected %q, got %q", "recovered", v)
	}
}

func TestStore_CorruptEntrySelfHeals(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	if err := Put(s, "meta:abc", time.Hour, "value"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Corrupt the persisted entry on disk.
	if err := os.WriteFile(s.path("meta:abc"), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("corrupt write failed: %v", err)
	}

	if _, ok := Get[string](s, "meta:abc"); ok {
		t.Fatal("expected corrupt entry to be treated as absent")
	}

	// The store recovers: a fresh value can be written and read back.
	if err := Put(s, "meta:abc", time.Hour, "fresh"); err != nil {
		t.Fatalf("Put after corruption failed: %v", err)
	}
	v, ok := Get[string](s, "meta:abc")
	if !ok || v != "fresh" {
		t.Errorf("expected recovered value %q, got %q (ok=%v)", "fresh", v, ok)
	}
}

func TestStore_NamespacedKeysDoNotCollide(t *testing.T) {
	s := NewStore(t.TempDir())

	// Identical title/year under movie vs series namespaces.
	if err := Put(s, "metadata-lookup:m|Alien|1979", time.Hour, "movie"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	if err := Put(s, "metadata-lookup:s|Alien|1979", time.Hour, "series"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	m, _ := Get[string](s, "metadata-lookup:m|Alien|1979")
	se, _ := Get[string](s, "metadata-lookup:s|Alien|1979")
	if m != "movie" || se != "series" {
		t.Errorf("namespace collision: got %q and %q", m, se)
	}
}

func TestStore_OverwritesInPlace(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)

	now := time.Now()
	s.now = func() time.Time { return now }

	if err := Put(s, "catalog:Movie", time.Millisecond, "stale"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}
	now = now.Add(time.Second)
	if err := Put(s, "catalog:Movie", time.Hour, "fresh"); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected 1 cache file (overwrite in place), got %d", len(entries))
	}
}

func TestFileName_SafeAndStable(t *testing.T) {
	key := "metadata-lookup:m|Sällskapsresan/äventyr|1980"
	name := fileName(key)

	if name != fileName(key) {
		t.Error("expected deterministic file name")
	}
	if strings.ContainsAny(name, "/|:") {
		t.Errorf("expected filesystem-safe name, got %q", name)
	}
	if filepath.Ext(name) != ".json" {
		t.Errorf("expected .json extension, got %q", name)
	}
	if name == fileName("metadata-lookup:s|Sällskapsresan/äventyr|1980") {
		t.Error("expected distinct names for distinct keys")
	}
}
