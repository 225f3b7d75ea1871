package metadata

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"jellybridge/internal/cache"
)

// newTestResolver points the TMDB client at a stub server.
func newTestResolver(t *testing.T, handler http.Handler) (*Resolver, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	r := NewResolver("test-key", "sv-SE", cache.NewStore(t.TempDir()), srv.Client())
	r.client.baseURL = srv.URL
	return r, &calls
}

func searchResponse(results ...map[string]any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"results": results})
	})
}

func TestLookup_MapsFirstResult(t *testing.T) {
	resolver, _ := newTestResolver(t, searchResponse(
		map[string]any{
			"title":         "Alien",
			"overview":      "I rymden kan ingen höra dig skrika.",
			"poster_path":   "/alien.jpg",
			"backdrop_path": "/alien-bg.jpg",
			"release_date":  "1979-05-25",
			"vote_average":  8.15,
		},
		map[string]any{"title": "Aliens"},
	))

	rec := resolver.Lookup(context.Background(), "Alien", 1979, true)
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Title != "Alien" {
		t.Errorf("title: got %q", rec.Title)
	}
	if rec.Poster != defaultImageBaseURL+"/alien.jpg" {
		t.Errorf("poster: got %q", rec.Poster)
	}
	if rec.Backdrop != defaultImageBaseURL+"/alien-bg.jpg" {
		t.Errorf("backdrop: got %q", rec.Backdrop)
	}
	if rec.Year != "1979" {
		t.Errorf("year: got %q", rec.Year)
	}
	if rec.Rating != 8.2 {
		t.Errorf("rating should round to one decimal, got %v", rec.Rating)
	}
}

func TestLookup_TVResultFields(t *testing.T) {
	resolver, _ := newTestResolver(t, searchResponse(
		map[string]any{
			"name":           "Bron",
			"overview":       "A body on the bridge.",
			"first_air_date": "2011-09-21",
			"vote_average":   8.0,
		},
	))

	rec := resolver.Lookup(context.Background(), "Bron", 2011, false)
	if rec == nil {
		t.Fatal("expected a record")
	}
	if rec.Title != "Bron" {
		t.Errorf("title should map from tv name, got %q", rec.Title)
	}
	if rec.Year != "2011" {
		t.Errorf("year should map from first_air_date, got %q", rec.Year)
	}
}

func TestLookup_HitCachedMissNot(t *testing.T) {
	resolver, calls := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") == "Alien" {
			json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{
				{"title": "Alien", "release_date": "1979-05-25"},
			}})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{}})
	}))

	// A hit is cached: the second lookup must not reach the server.
	for i := 0; i < 2; i++ {
		if rec := resolver.Lookup(context.Background(), "Alien", 1979, true); rec == nil {
			t.Fatalf("lookup %d: expected a record", i)
		}
	}
	if n := atomic.LoadInt32(calls); n != 1 {
		t.Fatalf("expected 1 upstream search for the hit, got %d", n)
	}

	// A miss is not cached: every lookup reaches the server again.
	for i := 0; i < 2; i++ {
		if rec := resolver.Lookup(context.Background(), "Nonexistent", 0, true); rec != nil {
			t.Fatalf("lookup %d: expected nil for a miss, got %+v", i, rec)
		}
	}
	if n := atomic.LoadInt32(calls); n != 3 {
		t.Fatalf("expected misses to bypass the cache, got %d total calls", n)
	}
}

func TestLookup_MovieAndSeriesKeysDoNotCollide(t *testing.T) {
	resolver, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		title := "Alien the Movie"
		if r.URL.Path == "/search/tv" {
			title = "Alien the Series"
		}
		json.NewEncoder(w).Encode(map[string]any{"results": []map[string]any{
			{"title": title, "name": title},
		}})
	}))

	movie := resolver.Lookup(context.Background(), "Alien", 1979, true)
	series := resolver.Lookup(context.Background(), "Alien", 1979, false)
	if movie == nil || series == nil {
		t.Fatal("expected records for both kinds")
	}
	if movie.Title == series.Title {
		t.Fatalf("movie and series lookups collided on %q", movie.Title)
	}
}

func TestLookup_ServerErrorYieldsNil(t *testing.T) {
	resolver, _ := newTestResolver(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	if rec := resolver.Lookup(context.Background(), "Alien", 1979, true); rec != nil {
		t.Fatalf("expected nil on upstream error, got %+v", rec)
	}
}

func TestLookup_DisabledWithoutKey(t *testing.T) {
	resolver := NewResolver("", "sv-SE", cache.NewStore(t.TempDir()), nil)
	if resolver.Enabled() {
		t.Fatal("resolver should be disabled without a key")
	}
	if rec := resolver.Lookup(context.Background(), "Alien", 1979, true); rec != nil {
		t.Fatalf("expected nil without a key, got %+v", rec)
	}
}

func TestLookup_EmptyTitleSkipped(t *testing.T) {
	resolver, calls := newTestResolver(t, searchResponse())
	if rec := resolver.Lookup(context.Background(), "  ", 0, true); rec != nil {
		t.Fatalf("expected nil for blank title, got %+v", rec)
	}
	if n := atomic.LoadInt32(calls); n != 0 {
		t.Fatalf("blank title must not hit the server, got %d calls", n)
	}
}

func TestLookup_LocalizesOverview(t *testing.T) {
	resolver, _ := newTestResolver(t, searchResponse(
		map[string]any{
			"title":        "Alien",
			"overview":     "Season 1 Episode summary for the Movie.",
			"release_date": "1979-05-25",
		},
	))

	rec := resolver.Lookup(context.Background(), "Alien", 1979, true)
	if rec == nil {
		t.Fatal("expected a record")
	}
	want := "Säsong 1 Avsnitt summary for the Film."
	if rec.Overview != want {
		t.Errorf("overview: got %q, want %q", rec.Overview, want)
	}
}
