package cache

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mozillazg/go-unidecode"
)

// Entry is the persisted form of one cached value. An entry is valid iff
// now - StoredAt < TTL; invalid entries are treated as absent and overwritten
// in place.
type Entry struct {
	StoredAt time.Time       `json:"storedAt"`
	TTL      time.Duration   `json:"ttl"`
	Value    json.RawMessage `json:"value"`
}

// Store is a TTL-based key/value cache persisted as one JSON file per key.
// Writes are atomic per key (temp file + rename); concurrent writers for the
// same key race and the last writer wins, which is acceptable because the
// contract is bounded staleness, not consistency. Corrupt or unreadable
// entries are treated as empty, never fatal.
type Store struct {
	dir string
	now func() time.Time
}

// NewStore creates a store rooted at dir. The directory is created lazily on
// first write.
func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

var errEmptyKey = errors.New("cache: empty key")

// maxSlugLen bounds the readable portion of a cache filename; the hash suffix
// keeps distinct keys distinct after truncation.
const maxSlugLen = 80

// fileName maps an arbitrary cache key (namespaced, may contain titles with
// any characters) to a stable filesystem-safe name.
func fileName(key string) string {
	slug := unidecode.Unidecode(key)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.' || r == '-' || r == '_':
			return r
		default:
			return '-'
		}
	}, slug)
	if len(slug) > maxSlugLen {
		slug = slug[:maxSlugLen]
	}
	sum := sha1.Sum([]byte(key))
	return slug + "-" + hex.EncodeToString(sum[:6]) + ".json"
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, fileName(key))
}

// getRaw returns the stored value for key if present and unexpired.
func (s *Store) getRaw(key string) (json.RawMessage, bool) {
	if key == "" {
		return nil, false
	}
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		// Corrupt entry: self-heal by removing it.
		_ = os.Remove(s.path(key))
		return nil, false
	}
	if entry.TTL <= 0 || s.now().Sub(entry.StoredAt) >= entry.TTL {
		return nil, false
	}
	return entry.Value, true
}

// putRaw stores value under key with the given TTL using an atomic
// temp-file-plus-rename write.
func (s *Store) putRaw(key string, ttl time.Duration, value json.RawMessage) error {
	if key == "" {
		return errEmptyKey
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	entry := Entry{StoredAt: s.now(), TTL: ttl, Value: value}
	path := s.path(key)
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(f)
	if err := enc.Encode(entry); err != nil {
		f.Close()
		_ = os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, path)
}

// Get returns the cached value for key, decoded as T.
func Get[T any](s *Store, key string) (T, bool) {
	var v T
	raw, ok := s.getRaw(key)
	if !ok {
		return v, false
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, false
	}
	return v, true
}

// Put stores v under key with the given TTL.
func Put[T any](s *Store, key string, ttl time.Duration, v T) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.putRaw(key, ttl, raw)
}

// GetOrFetch returns the cached value for key when present and unexpired;
// otherwise it invokes fn, stores the result with the current timestamp and
// returns it. A fetch error is returned without touching the stored entry.
func GetOrFetch[T any](s *Store, key string, ttl time.Duration, fn func() (T, error)) (T, error) {
	if v, ok := Get[T](s, key); ok {
		return v, nil
	}
	v, err := fn()
	if err != nil {
		return v, err
	}
	if err := Put(s, key, ttl, v); err != nil {
		log.Printf("[cache] store %q: %v", key, err)
	}
	return v, nil
}
